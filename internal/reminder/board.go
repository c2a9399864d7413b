package reminder

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/google/uuid"
)

// Scheduler arms and cancels notifications. Implemented by notify.Scheduler.
type Scheduler interface {
	Schedule(r Scheduled) (*Scheduled, error)
	Cancel(id string)
}

// UpdateFields carries a partial edit of a manual reminder. Nil fields are left unchanged.
type UpdateFields struct {
	Title    *string
	DueAt    *time.Time
	Category *Category
	Icon     *string
	Notes    *string
}

// Board is the reminders page: the merged view over manual and synced reminders
// plus the editing operations allowed on manual ones.
type Board struct {
	store   *Store
	sched   Scheduler
	clock   clock.Clock
	signals *Broadcaster
}

// NewBoard wires the aggregator. sched and signals may be nil.
func NewBoard(store *Store, sched Scheduler, clk clock.Clock, signals *Broadcaster) *Board {
	return &Board{store: store, sched: sched, clock: clk, signals: signals}
}

// All returns manual and synced reminders sorted ascending by due time.
// Entries with equal due times keep manual-before-synced order.
func (b *Board) All() []Reminder {
	all := append(b.store.Manual(), b.store.Synced()...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DueAt.Before(all[j].DueAt)
	})
	return all
}

// Due returns the incomplete reminders whose due time is at or before now, oldest first.
func (b *Board) Due(now time.Time) []Reminder {
	var out []Reminder
	for _, r := range b.All() {
		if !r.Completed && r.IsDue(now) {
			out = append(out, r)
		}
	}
	return out
}

// Today returns the incomplete reminders due on now's calendar day.
func (b *Board) Today(now time.Time) []Reminder {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	var out []Reminder
	for _, r := range b.All() {
		if !r.Completed && !r.DueAt.Before(start) && r.DueAt.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// Get looks a reminder up by id in both collections.
func (b *Board) Get(id string) (Reminder, error) {
	for _, r := range b.All() {
		if r.ID == id {
			return r, nil
		}
	}
	return Reminder{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Add stores a manual reminder and schedules its notification.
// An empty id is replaced by a random UUID; an existing id is overwritten with its CreatedAt kept.
func (b *Board) Add(r Reminder) (Reminder, error) {
	if strings.TrimSpace(r.Title) == "" || r.DueAt.IsZero() {
		return Reminder{}, ErrMissingFields
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if b.isSynced(r.ID) {
		return Reminder{}, fmt.Errorf("%w: %s", ErrReadOnly, r.ID)
	}

	r.Category = ParseCategory(string(r.Category))
	r.Icon = r.DisplayIcon()
	r.IsSynced = false
	r.SourceType = ""
	r.SourceID = ""
	r.CreatedAt = b.clock.Now()

	err := b.store.UpdateManual(func(list []Reminder) ([]Reminder, error) {
		for i := range list {
			if list[i].ID == r.ID {
				r.CreatedAt = list[i].CreatedAt
				list[i] = r
				return list, nil
			}
		}
		return append(list, r), nil
	})
	if err != nil {
		return Reminder{}, err
	}

	b.reschedule(r)
	b.signals.Publish(config.SourceManual)
	return r, nil
}

// Update applies a partial edit to a manual reminder. CreatedAt is preserved.
func (b *Board) Update(id string, f UpdateFields) (Reminder, error) {
	return b.mutate(id, func(r *Reminder) error {
		if f.Title != nil {
			if strings.TrimSpace(*f.Title) == "" {
				return ErrMissingFields
			}
			r.Title = *f.Title
		}
		if f.DueAt != nil {
			if f.DueAt.IsZero() {
				return ErrMissingFields
			}
			r.DueAt = *f.DueAt
		}
		if f.Category != nil {
			old := r.Category
			r.Category = ParseCategory(string(*f.Category))
			if r.Icon == IconFor(old) {
				r.Icon = IconFor(r.Category)
			}
		}
		if f.Icon != nil {
			r.Icon = *f.Icon
		}
		if f.Notes != nil {
			r.Notes = *f.Notes
		}
		return nil
	})
}

// ToggleComplete flips the completed flag of a manual reminder.
// Completing cancels the pending notification, reopening schedules it again.
func (b *Board) ToggleComplete(id string) (Reminder, error) {
	return b.mutate(id, func(r *Reminder) error {
		r.Completed = !r.Completed
		return nil
	})
}

// Delete removes a manual reminder and cancels its notification.
func (b *Board) Delete(id string) error {
	if b.isSynced(id) {
		return fmt.Errorf("%w: %s", ErrReadOnly, id)
	}
	err := b.store.UpdateManual(func(list []Reminder) ([]Reminder, error) {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	if err != nil {
		return err
	}

	if b.sched != nil {
		b.sched.Cancel(id)
	}
	b.signals.Publish(config.SourceManual)
	return nil
}

func (b *Board) mutate(id string, apply func(*Reminder) error) (Reminder, error) {
	if b.isSynced(id) {
		return Reminder{}, fmt.Errorf("%w: %s", ErrReadOnly, id)
	}

	var updated Reminder
	err := b.store.UpdateManual(func(list []Reminder) ([]Reminder, error) {
		for i := range list {
			if list[i].ID != id {
				continue
			}
			if err := apply(&list[i]); err != nil {
				return nil, err
			}
			updated = list[i]
			return list, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	if err != nil {
		return Reminder{}, err
	}

	b.reschedule(updated)
	b.signals.Publish(config.SourceManual)
	return updated, nil
}

// reschedule replaces the pending notification of r, or drops it when r is completed.
func (b *Board) reschedule(r Reminder) {
	if b.sched == nil {
		return
	}
	b.sched.Cancel(r.ID)
	if r.Completed {
		return
	}
	if _, err := b.sched.Schedule(r.Scheduled()); err != nil && !errors.Is(err, ErrDueInPast) {
		slog.Warn(config.MsgScheduleRejected,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyID, r.ID,
			config.LogKeyError, err)
	}
}

func (b *Board) isSynced(id string) bool {
	for _, r := range b.store.Synced() {
		if r.ID == id {
			return true
		}
	}
	return false
}
