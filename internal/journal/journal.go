// Package journal persists care records and settings. Every change re-runs the
// synchronizer of the feature it belongs to.
package journal

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New(config.ErrRecordNotFound)
	ErrUnknownVaccine = errors.New(config.ErrUnknownVaccine)
	ErrInvalidTime    = errors.New(config.ErrInvalidTime)
	ErrMedication     = errors.New(config.ErrMedicationTimes)
	ErrAppointment    = errors.New(config.ErrAppointmentEmpty)
)

// Journal is the write side of the care records.
type Journal struct {
	mu      sync.Mutex
	backend storage.Backend
	sync    *engine.Synchronizer
	clock   clock.Clock
}

// New creates a journal persisting to b and synchronizing through s.
func New(b storage.Backend, s *engine.Synchronizer, clk clock.Clock) *Journal {
	return &Journal{backend: b, sync: s, clock: clk}
}

// -----------------------------------------------------------------------------
// Feeding & Diaper
// -----------------------------------------------------------------------------

// LogFeeding records a feeding session. Empty id and timestamp default to a UUID and now.
func (j *Journal) LogFeeding(f engine.Feeding) (engine.Feeding, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = j.clock.Now()
	}

	list := append(j.feedings(), f)
	if err := storage.SaveJSON(j.backend, config.KeyFeedings, list); err != nil {
		return engine.Feeding{}, err
	}
	j.logged(config.SourceFeeding, f.ID)
	return f, j.sync.SyncFeeding(list, j.feedingSettings())
}

// LogDiaper records a diaper change. Empty id and timestamp default to a UUID and now.
func (j *Journal) LogDiaper(d engine.DiaperChange) (engine.DiaperChange, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = j.clock.Now()
	}

	list := append(j.diapers(), d)
	if err := storage.SaveJSON(j.backend, config.KeyDiapers, list); err != nil {
		return engine.DiaperChange{}, err
	}
	j.logged(config.SourceDiaper, d.ID)
	return d, j.sync.SyncDiaper(list, j.diaperSettings())
}

// Feedings returns the logged sessions, most recent first.
func (j *Journal) Feedings() []engine.Feeding {
	j.mu.Lock()
	defer j.mu.Unlock()
	list := j.feedings()
	sort.SliceStable(list, func(a, b int) bool { return list[a].Timestamp.After(list[b].Timestamp) })
	return list
}

// Diapers returns the logged changes, most recent first.
func (j *Journal) Diapers() []engine.DiaperChange {
	j.mu.Lock()
	defer j.mu.Unlock()
	list := j.diapers()
	sort.SliceStable(list, func(a, b int) bool { return list[a].Timestamp.After(list[b].Timestamp) })
	return list
}

func (j *Journal) FeedingSettings() engine.IntervalSettings {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.feedingSettings()
}

func (j *Journal) DiaperSettings() engine.IntervalSettings {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.diaperSettings()
}

// SetFeedingSettings stores s and re-projects the next feeding.
func (j *Journal) SetFeedingSettings(s engine.IntervalSettings) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := storage.SaveJSON(j.backend, config.KeyFeedingSettings, s); err != nil {
		return err
	}
	return j.sync.SyncFeeding(j.feedings(), s)
}

// SetDiaperSettings stores s and re-projects the next diaper change.
func (j *Journal) SetDiaperSettings(s engine.IntervalSettings) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := storage.SaveJSON(j.backend, config.KeyDiaperSettings, s); err != nil {
		return err
	}
	return j.sync.SyncDiaper(j.diapers(), s)
}

// -----------------------------------------------------------------------------
// Sleep
// -----------------------------------------------------------------------------

func (j *Journal) SleepSettings() engine.SleepSettings {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sleepSettings()
}

// SetSleepSettings validates the clock times of enabled reminders, stores s and re-projects.
func (j *Journal) SetSleepSettings(s engine.SleepSettings) error {
	if s.NapEnabled && !validClock(s.NapTime) {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s.NapTime)
	}
	if s.BedtimeEnabled && !validClock(s.Bedtime) {
		return fmt.Errorf("%w: %q", ErrInvalidTime, s.Bedtime)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := storage.SaveJSON(j.backend, config.KeySleepSettings, s); err != nil {
		return err
	}
	return j.sync.SyncSleep(s)
}

// -----------------------------------------------------------------------------
// Vaccination & Profile
// -----------------------------------------------------------------------------

// CompleteVaccine marks a vaccine of engine.VaccineSchedule as given now.
func (j *Journal) CompleteVaccine(id string) error {
	if _, ok := engine.FindVaccine(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVaccine, id)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	done := j.vaccinations()
	done[id] = j.clock.Now()
	if err := storage.SaveJSON(j.backend, config.KeyVaccinations, done); err != nil {
		return err
	}
	j.logged(config.SourceVaccination, id)
	return j.sync.SyncVaccinations(engine.VaccineSchedule, done, j.profile().BirthDate)
}

// Vaccinations returns the completion map.
func (j *Journal) Vaccinations() engine.Vaccinations {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.vaccinations()
}

// Profile returns the stored baby profile; the zero value when none was set.
func (j *Journal) Profile() engine.Profile {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.profile()
}

// SetProfile stores p and re-projects the vaccination reminders from its birth date.
func (j *Journal) SetProfile(p engine.Profile) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := storage.SaveJSON(j.backend, config.KeyProfile, p); err != nil {
		return err
	}
	return j.sync.SyncVaccinations(engine.VaccineSchedule, j.vaccinations(), p.BirthDate)
}

// -----------------------------------------------------------------------------
// Medication
// -----------------------------------------------------------------------------

// AddMedication stores a course of treatment, replacing one with the same id.
func (j *Journal) AddMedication(m engine.Medication) (engine.Medication, error) {
	if strings.TrimSpace(m.Name) == "" || len(m.Times) == 0 {
		return engine.Medication{}, ErrMedication
	}
	for _, hhmm := range m.Times {
		if !validClock(hhmm) {
			return engine.Medication{}, fmt.Errorf("%w: %q", ErrInvalidTime, hhmm)
		}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if m.StartDate == "" {
		m.StartDate = j.clock.Now().Format(config.DateLayout)
	}

	list := j.medications()
	replaced := false
	for i := range list {
		if list[i].ID == m.ID {
			list[i] = m
			replaced = true
		}
	}
	if !replaced {
		list = append(list, m)
	}
	if err := storage.SaveJSON(j.backend, config.KeyMedications, list); err != nil {
		return engine.Medication{}, err
	}
	return m, j.sync.SyncMedications(list)
}

// RemoveMedication deletes a course and its dose reminders.
func (j *Journal) RemoveMedication(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	list := j.medications()
	kept := list[:0]
	for _, m := range list {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(list) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := storage.SaveJSON(j.backend, config.KeyMedications, kept); err != nil {
		return err
	}
	return j.sync.SyncMedications(kept)
}

func (j *Journal) Medications() []engine.Medication {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.medications()
}

// -----------------------------------------------------------------------------
// Appointment
// -----------------------------------------------------------------------------

// AddAppointment stores a visit, replacing one with the same id.
func (j *Journal) AddAppointment(a engine.Appointment) (engine.Appointment, error) {
	if strings.TrimSpace(a.Title) == "" || a.DateTime.IsZero() {
		return engine.Appointment{}, ErrAppointment
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	list := j.appointments()
	replaced := false
	for i := range list {
		if list[i].ID == a.ID {
			list[i] = a
			replaced = true
		}
	}
	if !replaced {
		list = append(list, a)
	}
	if err := storage.SaveJSON(j.backend, config.KeyAppointments, list); err != nil {
		return engine.Appointment{}, err
	}
	return a, j.sync.SyncAppointments(list)
}

// RemoveAppointment deletes a visit and its countdown reminders.
func (j *Journal) RemoveAppointment(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	list := j.appointments()
	kept := list[:0]
	for _, a := range list {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(list) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := storage.SaveJSON(j.backend, config.KeyAppointments, kept); err != nil {
		return err
	}
	return j.sync.SyncAppointments(kept)
}

func (j *Journal) Appointments() []engine.Appointment {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.appointments()
}

// -----------------------------------------------------------------------------
// Resync
// -----------------------------------------------------------------------------

// ResyncAll re-runs every synchronizer from the stored records. Daily reminders roll
// over to the next day and countdowns that passed disappear.
func (j *Journal) ResyncAll() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	start := time.Now()
	slog.Info(config.MsgSyncStarted, config.LogKeyComponent, config.CompJournal)

	err := errors.Join(
		j.sync.SyncFeeding(j.feedings(), j.feedingSettings()),
		j.sync.SyncDiaper(j.diapers(), j.diaperSettings()),
		j.sync.SyncSleep(j.sleepSettings()),
		j.sync.SyncVaccinations(engine.VaccineSchedule, j.vaccinations(), j.profile().BirthDate),
		j.sync.SyncMedications(j.medications()),
		j.sync.SyncAppointments(j.appointments()),
	)

	slog.Info(config.MsgSyncDone,
		config.LogKeyComponent, config.CompJournal,
		config.LogKeyDuration, time.Since(start).Milliseconds())
	return err
}

// -----------------------------------------------------------------------------
// Loaders (callers hold j.mu)
// -----------------------------------------------------------------------------

func (j *Journal) feedings() []engine.Feeding {
	var list []engine.Feeding
	storage.LoadJSON(j.backend, config.KeyFeedings, &list)
	return list
}

func (j *Journal) diapers() []engine.DiaperChange {
	var list []engine.DiaperChange
	storage.LoadJSON(j.backend, config.KeyDiapers, &list)
	return list
}

func (j *Journal) feedingSettings() engine.IntervalSettings {
	s := engine.DefaultFeedingSettings()
	storage.LoadJSON(j.backend, config.KeyFeedingSettings, &s)
	return s
}

func (j *Journal) diaperSettings() engine.IntervalSettings {
	s := engine.DefaultDiaperSettings()
	storage.LoadJSON(j.backend, config.KeyDiaperSettings, &s)
	return s
}

func (j *Journal) sleepSettings() engine.SleepSettings {
	s := engine.DefaultSleepSettings()
	storage.LoadJSON(j.backend, config.KeySleepSettings, &s)
	return s
}

func (j *Journal) vaccinations() engine.Vaccinations {
	done := engine.Vaccinations{}
	storage.LoadJSON(j.backend, config.KeyVaccinations, &done)
	if done == nil {
		done = engine.Vaccinations{}
	}
	return done
}

func (j *Journal) medications() []engine.Medication {
	var list []engine.Medication
	storage.LoadJSON(j.backend, config.KeyMedications, &list)
	return list
}

func (j *Journal) appointments() []engine.Appointment {
	var list []engine.Appointment
	storage.LoadJSON(j.backend, config.KeyAppointments, &list)
	return list
}

func (j *Journal) profile() engine.Profile {
	var p engine.Profile
	storage.LoadJSON(j.backend, config.KeyProfile, &p)
	return p
}

func (j *Journal) logged(source, id string) {
	slog.Debug(config.MsgEventLogged,
		config.LogKeyComponent, config.CompJournal,
		config.LogKeySource, source,
		config.LogKeyID, id)
}

func validClock(hhmm string) bool {
	_, err := time.Parse(config.TimeOfDayLayout, hhmm)
	return err == nil
}
