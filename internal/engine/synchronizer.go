// Package engine derives synced reminders from care records and keeps the
// scheduler in step with them.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
)

// Synchronizer recomputes the synced reminders of one feature at a time.
// Every Sync call replaces all entries of its source type, so repeated calls with
// the same input leave the store unchanged.
type Synchronizer struct {
	Store     *reminder.Store
	Scheduler reminder.Scheduler    // Optional. Nil skips notification scheduling.
	Clock     clock.Clock           // Interface for time mocking.
	Signals   *reminder.Broadcaster // Optional. Receives one signal per completed sync.

	// Format allows the UI to inject localized strings into the logic layer.
	// It returns "" or the key itself when no translation exists.
	Format func(key string, data map[string]any) string
}

// SyncFeeding projects the next feeding from the logged sessions.
func (s *Synchronizer) SyncFeeding(feedings []Feeding, settings IntervalSettings) error {
	return s.apply(config.SourceFeeding, s.feedingReminders(feedings, settings))
}

// SyncDiaper projects the next diaper change from the logged changes.
func (s *Synchronizer) SyncDiaper(changes []DiaperChange, settings IntervalSettings) error {
	return s.apply(config.SourceDiaper, s.diaperReminders(changes, settings))
}

// SyncSleep projects the daily nap and bedtime reminders.
func (s *Synchronizer) SyncSleep(settings SleepSettings) error {
	return s.apply(config.SourceSleep, s.sleepReminders(s.Clock.Now(), settings))
}

// SyncVaccinations projects reminders for the incomplete vaccines of schedule.
func (s *Synchronizer) SyncVaccinations(schedule []Vaccine, done Vaccinations, birth time.Time) error {
	return s.apply(config.SourceVaccination, s.vaccinationReminders(s.Clock.Now(), schedule, done, birth))
}

// SyncMedications projects dose reminders for the courses active today.
func (s *Synchronizer) SyncMedications(meds []Medication) error {
	return s.apply(config.SourceMedication, s.medicationReminders(s.Clock.Now(), meds))
}

// SyncAppointments projects countdown reminders for upcoming appointments.
func (s *Synchronizer) SyncAppointments(appts []Appointment) error {
	return s.apply(config.SourceAppointment, s.appointmentReminders(s.Clock.Now(), appts))
}

// apply replaces the synced set of sourceType, brings the scheduler in line with it
// and broadcasts the change.
func (s *Synchronizer) apply(sourceType string, fresh []reminder.Reminder) error {
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeySource, sourceType,
	)

	now := s.Clock.Now()
	for i := range fresh {
		fresh[i].CreatedAt = now
	}

	previous, err := s.Store.ReplaceSynced(sourceType, fresh)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrSyncFailed, err)
	}
	if len(fresh) == 0 {
		log.Debug(config.MsgSyncCleared, config.LogKeyOld, len(previous))
	}

	if s.Scheduler != nil {
		current := make(map[string]bool, len(fresh))
		for _, r := range fresh {
			id := reminder.SyncedID(sourceType, r.SourceID)
			current[id] = true

			r.ID = id
			if r.Icon == "" {
				r.Icon = reminder.IconFor(r.Category)
			}
			if !r.DueAt.After(now) {
				s.Scheduler.Cancel(id)
				continue
			}
			if _, err := s.Scheduler.Schedule(r.Scheduled()); err != nil {
				log.Warn(config.MsgScheduleRejected, config.LogKeyID, id, config.LogKeyError, err)
			}
		}
		for _, r := range previous {
			if !current[r.ID] {
				s.Scheduler.Cancel(r.ID)
			}
		}
	}

	s.Signals.Publish(sourceType)
	return nil
}

// text resolves a localized string, falling back to fmt.Sprintf(fallback, args...).
func (s *Synchronizer) text(key string, data map[string]any, fallback string, args ...any) string {
	if s.Format != nil {
		if out := s.Format(key, data); out != "" && out != key {
			return out
		}
	}
	if len(args) == 0 {
		return fallback
	}
	return strings.TrimSpace(fmt.Sprintf(fallback, args...))
}
