package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
)

// Scheduler turns stored reminders into notifications.
//
// The scheduled store is the source of truth. Precise per-id timers and the periodic
// sweep both go through fire, which only acts on entries still present in the store
// and never fires the same (id, dueAt) twice. A reminder is removed from the store
// once fired, whether or not the notification could be displayed, unless it was moved
// to another time while firing.
type Scheduler struct {
	store    *reminder.Store
	notifier Notifier
	clock    clock.Clock

	checkInterval time.Duration
	catchUp       time.Duration
	autoDismiss   time.Duration

	mu     sync.Mutex
	timers map[string]armedTimer
	fired  map[string]time.Time // id -> dueAt already fired
	active map[string]bool      // ids currently on screen
}

// armedTimer is a pending timer and the due time it was armed for.
type armedTimer struct {
	timer clock.Timer
	dueAt time.Time
}

// NewScheduler wires the scheduler. Zero durations in opts select the defaults.
func NewScheduler(store *reminder.Store, n Notifier, clk clock.Clock, opts config.SchedulerSettings) *Scheduler {
	if n == nil {
		n = NopNotifier{}
	}
	s := &Scheduler{
		store:         store,
		notifier:      n,
		clock:         clk,
		checkInterval: opts.CheckInterval,
		catchUp:       opts.CatchUpWindow,
		autoDismiss:   opts.AutoDismiss,
		timers:        make(map[string]armedTimer),
		fired:         make(map[string]time.Time),
		active:        make(map[string]bool),
	}
	if s.checkInterval <= 0 {
		s.checkInterval = config.DefaultCheckInterval
	}
	if s.catchUp <= 0 {
		s.catchUp = config.DefaultCatchUpWindow
	}
	if s.autoDismiss <= 0 {
		s.autoDismiss = config.NotificationAutoDismiss
	}
	return s
}

// Permission reports the notifier's permission status.
func (s *Scheduler) Permission() string {
	return s.notifier.Permission()
}

// RequestPermission asks the notifier for permission and logs the outcome.
func (s *Scheduler) RequestPermission(ctx context.Context) (string, error) {
	status, err := s.notifier.RequestPermission(ctx)
	slog.Info(config.MsgPermission,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyStatus, status)
	return status, err
}

// Schedule stores r and arms a timer for its due time, replacing any previous timer for r.ID.
// It returns reminder.ErrMissingFields or reminder.ErrDueInPast, without touching the
// store, when r cannot be armed.
func (s *Scheduler) Schedule(r reminder.Scheduled) (*reminder.Scheduled, error) {
	now := s.clock.Now()
	if err := enqueue(s.store, &r, now); err != nil {
		return nil, err
	}

	delay := r.DueAt.Sub(now)
	s.arm(r.ID, r.DueAt)
	ScheduledTotal.Inc()

	slog.Debug(config.MsgScheduled,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyID, r.ID,
		config.LogKeyDueAt, r.DueAt,
		config.LogKeyDelay, delay)
	return &r, nil
}

// Cancel stops the timer of id and removes it from the scheduled store.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	if a, ok := s.timers[id]; ok {
		a.timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	removed, err := s.store.RemoveScheduled(id)
	if err != nil {
		slog.Warn(config.ErrStorageWrite,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyID, id,
			config.LogKeyError, err)
		return
	}
	if removed {
		slog.Debug(config.MsgCancelled,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyID, id)
	}
}

// Dismiss releases an on-screen notification so the same id can be shown again.
func (s *Scheduler) Dismiss(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}

// Active reports whether a notification for id is currently displayed.
func (s *Scheduler) Active(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[id]
}

// Armed reports how many precise timers are pending.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Run sweeps immediately, then every check interval, until ctx is cancelled.
// Pending timers are stopped on return; the store keeps the entries for the next start.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.checkInterval <= 0 {
		return errors.New(config.ErrCheckInterval)
	}
	log := slog.With(config.LogKeyComponent, config.CompScheduler)
	log.Info(config.MsgCheckerStart,
		config.LogKeyInterval, s.checkInterval,
		config.LogKeyWindow, s.catchUp)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	defer s.stopTimers()

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgCheckerStop)
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep fires entries due within the catch-up window, re-arms timers lost by a restart
// or moved by another process, and drops entries that came due before the window.
// Fired markers older than the window are forgotten: such entries are dropped, never fired.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	for id, dueAt := range s.fired {
		if now.Sub(dueAt) >= s.catchUp {
			delete(s.fired, id)
		}
	}
	s.mu.Unlock()

	for _, r := range s.store.Scheduled() {
		switch {
		case r.DueAt.After(now):
			s.mu.Lock()
			a, ok := s.timers[r.ID]
			armed := ok && a.dueAt.Equal(r.DueAt)
			s.mu.Unlock()
			if !armed {
				s.arm(r.ID, r.DueAt)
				slog.Debug(config.MsgRearmed,
					config.LogKeyComponent, config.CompScheduler,
					config.LogKeyID, r.ID,
					config.LogKeyDueAt, r.DueAt)
			}
		case now.Sub(r.DueAt) < s.catchUp:
			s.fire(ctx, r.ID, config.TriggerSweep)
		default:
			s.drop(r)
		}
	}
}

// arm replaces the timer of id with one expiring at dueAt.
func (s *Scheduler) arm(id string, dueAt time.Time) {
	delay := dueAt.Sub(s.clock.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[id]; ok {
		old.timer.Stop()
	}
	if prev, ok := s.fired[id]; ok && !prev.Equal(dueAt) {
		delete(s.fired, id)
	}
	s.timers[id] = armedTimer{
		timer: s.clock.AfterFunc(delay, func() {
			s.fire(context.Background(), id, config.TriggerTimer)
		}),
		dueAt: dueAt,
	}
}

// release forgets the timer of id when it was armed for dueAt or earlier.
// Must be called with s.mu held.
func (s *Scheduler) release(id string, dueAt time.Time) {
	if a, ok := s.timers[id]; ok && !a.dueAt.After(dueAt) {
		a.timer.Stop()
		delete(s.timers, id)
	}
}

// fire is the single path through which a reminder is delivered.
func (s *Scheduler) fire(ctx context.Context, id, trigger string) {
	log := slog.With(
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyID, id,
		config.LogKeyTrigger, trigger,
	)

	now := s.clock.Now()
	entry, ok := s.store.ScheduledByID(id)
	if !ok {
		// Cancelled, possibly by another process. A timer that has run out is spent.
		s.mu.Lock()
		s.release(id, now)
		s.mu.Unlock()
		log.Debug(config.MsgFireCancelled)
		return
	}
	if entry.DueAt.After(now) {
		// Rescheduled to a later time, possibly by another process.
		s.mu.Lock()
		a, ok := s.timers[id]
		armed := ok && a.dueAt.Equal(entry.DueAt)
		s.mu.Unlock()
		if !armed {
			s.arm(id, entry.DueAt)
		}
		return
	}

	granted := s.notifier.Permission() == config.PermissionGranted

	s.mu.Lock()
	if prev, done := s.fired[id]; done && prev.Equal(entry.DueAt) {
		s.mu.Unlock()
		log.Debug(config.MsgAlreadyFired)
		return
	}
	s.fired[id] = entry.DueAt
	s.release(id, entry.DueAt)
	alreadyActive := s.active[id]
	show := granted && !alreadyActive
	if show {
		s.active[id] = true
	}
	s.mu.Unlock()

	// Only the occurrence read above is consumed; a newer time written meanwhile stays queued.
	if _, err := s.store.RemoveScheduledIf(id, entry.DueAt); err != nil {
		log.Warn(config.ErrStorageWrite, config.LogKeyError, err)
	}
	FiredTotal.WithLabelValues(trigger).Inc()
	log.Info(config.MsgFired, config.LogKeyDueAt, entry.DueAt)

	switch {
	case !granted:
		s.suppress(log, config.ReasonPermission)
		return
	case alreadyActive:
		s.suppress(log, config.ReasonActive)
		return
	}

	n := FromScheduled(entry)
	if err := s.notifier.Show(ctx, n); err != nil {
		s.Dismiss(id)
		log.Warn(config.ErrNotifyFailed, config.LogKeyError, err)
		s.suppress(log, config.ReasonError)
		return
	}
	ShownTotal.Inc()
	log.Debug(config.MsgShown)

	if !n.RequireInteraction {
		s.clock.AfterFunc(s.autoDismiss, func() { s.Dismiss(id) })
	}
}

func (s *Scheduler) suppress(log *slog.Logger, reason string) {
	SuppressedTotal.WithLabelValues(reason).Inc()
	log.Debug(config.MsgSuppressed, config.LogKeyReason, reason)
}

// drop removes an entry whose due time fell before the catch-up window.
func (s *Scheduler) drop(r reminder.Scheduled) {
	s.mu.Lock()
	s.release(r.ID, r.DueAt)
	s.mu.Unlock()

	removed, err := s.store.RemoveScheduledIf(r.ID, r.DueAt)
	if err != nil {
		slog.Warn(config.ErrStorageWrite,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyID, r.ID,
			config.LogKeyError, err)
		return
	}
	if !removed {
		return
	}
	MissedTotal.Inc()
	slog.Warn(config.MsgMissed,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyID, r.ID,
		config.LogKeyDueAt, r.DueAt,
		config.LogKeyDelay, s.clock.Now().Sub(r.DueAt).Round(time.Second))
}

func (s *Scheduler) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, id)
	}
}
