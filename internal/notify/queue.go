package notify

import (
	"log/slog"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
)

// Queue records notification requests in the scheduled store without arming timers.
// Short-lived processes (CLI, MCP) use it so that the long-running Scheduler, which
// re-arms stored entries on every sweep, delivers them.
type Queue struct {
	store *reminder.Store
	clock clock.Clock
}

func NewQueue(store *reminder.Store, clk clock.Clock) *Queue {
	return &Queue{store: store, clock: clk}
}

// Schedule validates and stores r. It fails like Scheduler.Schedule.
func (q *Queue) Schedule(r reminder.Scheduled) (*reminder.Scheduled, error) {
	if err := enqueue(q.store, &r, q.clock.Now()); err != nil {
		return nil, err
	}
	slog.Debug(config.MsgScheduled,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyID, r.ID,
		config.LogKeyDueAt, r.DueAt)
	return &r, nil
}

// Cancel removes id from the scheduled store.
func (q *Queue) Cancel(id string) {
	if _, err := q.store.RemoveScheduled(id); err != nil {
		slog.Warn(config.ErrStorageWrite,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyID, id,
			config.LogKeyError, err)
	}
}

// enqueue validates r and persists it with its ScheduledAt and default icon filled in.
func enqueue(store *reminder.Store, r *reminder.Scheduled, now time.Time) error {
	if r.ID == "" || r.Title == "" || r.DueAt.IsZero() {
		return reminder.ErrMissingFields
	}
	if !r.DueAt.After(now) {
		slog.Debug(config.MsgScheduleRejected,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyID, r.ID,
			config.LogKeyDueAt, r.DueAt)
		return reminder.ErrDueInPast
	}

	r.ScheduledAt = now
	if r.Icon == "" {
		r.Icon = reminder.IconFor(r.Category)
	}
	return store.PutScheduled(*r)
}
