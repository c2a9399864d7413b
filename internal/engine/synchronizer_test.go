package engine_test

import (
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockScheduler records scheduling calls using `testify/mock`.
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(r reminder.Scheduled) (*reminder.Scheduled, error) {
	args := m.Called(r)
	if s := args.Get(0); s != nil {
		return s.(*reminder.Scheduled), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduler) Cancel(id string) {
	m.Called(id)
}

// failingBackend accepts reads and rejects writes.
type failingBackend struct{}

func (failingBackend) Get(string) (string, error) { return "", nil }
func (failingBackend) Set(string, string) error   { return errors.New("quota exceeded") }
func (failingBackend) Remove(string) error        { return nil }

type fixture struct {
	sync    *engine.Synchronizer
	store   *reminder.Store
	backend storage.Backend
	sched   *MockScheduler
	clock   *clock.Mock
	signals <-chan reminder.Signal
}

func newFixture(t *testing.T, at time.Time) fixture {
	t.Helper()
	backend := storage.NewPreferencesBackend(test.NewApp().Preferences())
	store := reminder.NewStore(backend)
	sched := new(MockScheduler)
	sched.On("Schedule", mock.Anything).Return(&reminder.Scheduled{}, nil).Maybe()
	sched.On("Cancel", mock.Anything).Return().Maybe()

	bc := reminder.NewBroadcaster()
	ch, unsubscribe := bc.Subscribe()
	t.Cleanup(unsubscribe)

	clk := clock.NewMock(at)
	return fixture{
		sync:    &engine.Synchronizer{Store: store, Scheduler: sched, Clock: clk, Signals: bc},
		store:   store,
		backend: backend,
		sched:   sched,
		clock:   clk,
		signals: ch,
	}
}

func feedingsAt(offsetsHours ...float64) []engine.Feeding {
	var out []engine.Feeding
	for _, h := range offsetsHours {
		out = append(out, engine.Feeding{ID: "f", Timestamp: now.Add(time.Duration(h * float64(time.Hour)))})
	}
	return out
}

func scheduledIDs(m *MockScheduler) []string {
	var ids []string
	for _, c := range m.Calls {
		if c.Method == "Schedule" {
			ids = append(ids, c.Arguments.Get(0).(reminder.Scheduled).ID)
		}
	}
	return ids
}

// -----------------------------------------------------------------------------
// Feeding & Diaper
// -----------------------------------------------------------------------------

func TestSyncFeeding_AdaptiveScenario(t *testing.T) {
	f := newFixture(t, now)

	// Logged in chronological order: the synchronizer sorts before estimating.
	err := f.sync.SyncFeeding(feedingsAt(-9, -6, -3, 0), engine.DefaultFeedingSettings())
	require.NoError(t, err)

	list := f.store.SyncedBySource(config.SourceFeeding)
	require.Len(t, list, 1)
	r := list[0]
	assert.Equal(t, "synced-feeding-next-feeding", r.ID)
	assert.Equal(t, now.Add(3*time.Hour), r.DueAt)
	assert.Equal(t, config.FallbackFeedingTitle, r.Title)
	assert.Equal(t, "Next feeding expected (every 3.0 h)", r.Notes)
	assert.Equal(t, "🍼", r.Icon)

	assert.Equal(t, []string{r.ID}, scheduledIDs(f.sched))

	sig := <-f.signals
	assert.Equal(t, config.SignalRemindersSynced, sig.Name)
	assert.Equal(t, config.SourceFeeding, sig.SourceType)
}

func TestSyncFeeding_FixedIntervalWithFewEvents(t *testing.T) {
	f := newFixture(t, now)
	settings := engine.IntervalSettings{Enabled: true, IntervalHours: 2.5, Adaptive: true}

	require.NoError(t, f.sync.SyncFeeding(feedingsAt(-1, 0), settings))

	list := f.store.SyncedBySource(config.SourceFeeding)
	require.Len(t, list, 1)
	assert.Equal(t, now.Add(150*time.Minute), list[0].DueAt)
}

func TestSyncFeeding_PastDueIsListedNotScheduled(t *testing.T) {
	f := newFixture(t, now)

	require.NoError(t, f.sync.SyncFeeding(feedingsAt(-5), engine.DefaultFeedingSettings()))

	list := f.store.SyncedBySource(config.SourceFeeding)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDue(now))
	assert.Empty(t, scheduledIDs(f.sched))
	f.sched.AssertCalled(t, "Cancel", list[0].ID)
}

func TestSync_DisabledOrEmptyClears(t *testing.T) {
	f := newFixture(t, now)
	require.NoError(t, f.sync.SyncFeeding(feedingsAt(-1), engine.DefaultFeedingSettings()))
	require.NoError(t, f.sync.SyncDiaper([]engine.DiaperChange{{ID: "d", Timestamp: now}}, engine.DefaultDiaperSettings()))
	require.Len(t, f.store.SyncedBySource(config.SourceFeeding), 1)

	disabled := engine.DefaultFeedingSettings()
	disabled.Enabled = false
	require.NoError(t, f.sync.SyncFeeding(feedingsAt(-1), disabled))
	assert.Empty(t, f.store.SyncedBySource(config.SourceFeeding))
	f.sched.AssertCalled(t, "Cancel", "synced-feeding-next-feeding")

	// Clearing again stays a no-op.
	require.NoError(t, f.sync.SyncFeeding(nil, engine.DefaultFeedingSettings()))
	assert.Empty(t, f.store.SyncedBySource(config.SourceFeeding))
	assert.Len(t, f.store.SyncedBySource(config.SourceDiaper), 1, "Other sources are untouched")
}

func TestSync_RepeatedRunsAreByteIdentical(t *testing.T) {
	f := newFixture(t, now)
	feedings := feedingsAt(0, -3, -6, -9)

	require.NoError(t, f.sync.SyncFeeding(feedings, engine.DefaultFeedingSettings()))
	first, err := f.backend.Get(config.KeySyncedReminders)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.sync.SyncFeeding(feedings, engine.DefaultFeedingSettings()))
	second, err := f.backend.Get(config.KeySyncedReminders)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.store.SyncedBySource(config.SourceFeeding), 1)
}

func TestSyncDiaper(t *testing.T) {
	f := newFixture(t, now)
	changes := []engine.DiaperChange{
		{ID: "a", Timestamp: now.Add(-12 * time.Hour)},
		{ID: "b", Timestamp: now.Add(-8 * time.Hour)},
		{ID: "c", Timestamp: now.Add(-4 * time.Hour)},
		{ID: "d", Timestamp: now},
	}

	require.NoError(t, f.sync.SyncDiaper(changes, engine.DefaultDiaperSettings()))

	list := f.store.SyncedBySource(config.SourceDiaper)
	require.Len(t, list, 1)
	assert.Equal(t, config.SlotNextDiaper, list[0].SourceID)
	assert.Equal(t, now.Add(4*time.Hour), list[0].DueAt)
	assert.Equal(t, reminder.CategoryDiaper, list[0].Category)
}

func TestSyncDiaper_ZeroHoursUsesDiaperDefault(t *testing.T) {
	f := newFixture(t, now)
	changes := []engine.DiaperChange{{ID: "a", Timestamp: now}}

	require.NoError(t, f.sync.SyncDiaper(changes, engine.IntervalSettings{Enabled: true, IntervalHours: 0}))

	list := f.store.SyncedBySource(config.SourceDiaper)
	require.Len(t, list, 1)
	want := now.Add(time.Duration(config.DefaultDiaperIntervalHours * float64(time.Hour)))
	assert.Equal(t, want, list[0].DueAt)
}

// -----------------------------------------------------------------------------
// Sleep
// -----------------------------------------------------------------------------

func TestSyncSleep_TodayOrTomorrow(t *testing.T) {
	// now is 12:00: the 13:00 nap is today, a 07:00 bedtime rolls to tomorrow.
	f := newFixture(t, now)
	settings := engine.SleepSettings{NapEnabled: true, NapTime: "13:00", BedtimeEnabled: true, Bedtime: "07:00"}

	require.NoError(t, f.sync.SyncSleep(settings))

	byID := map[string]reminder.Reminder{}
	for _, r := range f.store.SyncedBySource(config.SourceSleep) {
		byID[r.SourceID] = r
	}
	require.Len(t, byID, 2)
	assert.Equal(t, time.Date(2024, 2, 20, 13, 0, 0, 0, time.UTC), byID[config.SlotNap].DueAt)
	assert.Equal(t, time.Date(2024, 2, 21, 7, 0, 0, 0, time.UTC), byID[config.SlotBedtime].DueAt)
}

func TestSyncSleep_PartialAndInvalid(t *testing.T) {
	f := newFixture(t, now)

	require.NoError(t, f.sync.SyncSleep(engine.SleepSettings{NapEnabled: true, NapTime: "25:99", BedtimeEnabled: true, Bedtime: "19:30"}))
	list := f.store.SyncedBySource(config.SourceSleep)
	require.Len(t, list, 1, "Malformed clock times silently drop their reminder")
	assert.Equal(t, config.SlotBedtime, list[0].SourceID)

	require.NoError(t, f.sync.SyncSleep(engine.SleepSettings{}))
	assert.Empty(t, f.store.SyncedBySource(config.SourceSleep))
}

// -----------------------------------------------------------------------------
// Vaccination
// -----------------------------------------------------------------------------

func TestSyncVaccinations_LeadRule(t *testing.T) {
	birth := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := []engine.Vaccine{{ID: "dtap-1", Name: "DTaP", Months: 2}}

	tests := []struct {
		name  string
		today time.Time
		want  time.Time
	}{
		{"More than a week ahead fires a week before", time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC), time.Date(2024, 2, 23, 9, 0, 0, 0, time.UTC)},
		{"Inside the last week fires the day before", time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)},
		{"Week mark morning before 09:00 still fires that day", time.Date(2024, 2, 23, 8, 0, 0, 0, time.UTC), time.Date(2024, 2, 23, 9, 0, 0, 0, time.UTC)},
		{"Week mark after 09:00 falls back to the eve", time.Date(2024, 2, 23, 10, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.today)
			require.NoError(t, f.sync.SyncVaccinations(schedule, nil, birth))

			list := f.store.SyncedBySource(config.SourceVaccination)
			require.Len(t, list, 1)
			assert.Equal(t, "synced-vaccination-dtap-1", list[0].ID)
			assert.Equal(t, tt.want, list[0].DueAt)
			assert.Equal(t, "💉 DTaP vaccine due", list[0].Title)
			assert.Equal(t, "Scheduled for 2024-03-01", list[0].Notes)
		})
	}
}

func TestSyncVaccinations_Filters(t *testing.T) {
	birth := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC))
	schedule := []engine.Vaccine{
		{ID: "hepb-1", Name: "HepB", Months: 0},    // past
		{ID: "dtap-1", Name: "DTaP", Months: 2},    // done
		{ID: "rv-2", Name: "Rotavirus", Months: 4}, // upcoming
	}
	done := engine.Vaccinations{"dtap-1": time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, f.sync.SyncVaccinations(schedule, done, birth))
	list := f.store.SyncedBySource(config.SourceVaccination)
	require.Len(t, list, 1)
	assert.Equal(t, "rv-2", list[0].SourceID)

	require.NoError(t, f.sync.SyncVaccinations(schedule, done, time.Time{}))
	assert.Empty(t, f.store.SyncedBySource(config.SourceVaccination), "No birth date, no vaccination reminders")
}

// -----------------------------------------------------------------------------
// Medication
// -----------------------------------------------------------------------------

func TestSyncMedications(t *testing.T) {
	f := newFixture(t, now)
	meds := []engine.Medication{
		{ID: "vitd", Name: "Vitamin D", Dosage: "400 IU", Times: []string{"08:00", "18:00"}, StartDate: "2024-02-01"},
		{ID: "amox", Name: "Amoxicillin", Dosage: "5 ml", Times: []string{"09:00"}, StartDate: "2024-02-10", EndDate: "2024-02-19"},
		{ID: "future", Name: "Iron", Times: []string{"10:00"}, StartDate: "2024-03-01"},
		{ID: "broken", Name: "Drops", Times: []string{"noon", "20:00"}, StartDate: "2024-02-20", EndDate: "2024-02-20"},
		{ID: "bad-date", Name: "X", Times: []string{"10:00"}, StartDate: "yesterday"},
	}

	require.NoError(t, f.sync.SyncMedications(meds))

	byID := map[string]reminder.Reminder{}
	for _, r := range f.store.SyncedBySource(config.SourceMedication) {
		byID[r.SourceID] = r
	}
	require.Len(t, byID, 3)

	assert.Equal(t, time.Date(2024, 2, 21, 8, 0, 0, 0, time.UTC), byID["vitd-08:00"].DueAt, "Passed slot rolls to tomorrow")
	assert.Equal(t, time.Date(2024, 2, 20, 18, 0, 0, 0, time.UTC), byID["vitd-18:00"].DueAt)
	assert.Equal(t, "💊 Vitamin D", byID["vitd-18:00"].Title)
	assert.Equal(t, "Give 400 IU at 18:00", byID["vitd-18:00"].Notes)
	assert.Contains(t, byID, "broken-20:00", "End date is inclusive")
}

// -----------------------------------------------------------------------------
// Appointment
// -----------------------------------------------------------------------------

func TestSyncAppointments_TwoHoursAhead(t *testing.T) {
	f := newFixture(t, now)
	appt := engine.Appointment{ID: "a1", Title: "Checkup", DateTime: now.Add(2 * time.Hour)}

	require.NoError(t, f.sync.SyncAppointments([]engine.Appointment{appt}))

	list := f.store.SyncedBySource(config.SourceAppointment)
	require.Len(t, list, 2, "The 24 hour mark is already past")
	ids := []string{list[0].SourceID, list[1].SourceID}
	assert.ElementsMatch(t, []string{"a1-1h", "a1-30m"}, ids)
	for _, r := range list {
		assert.True(t, r.DueAt.After(now))
	}
	assert.ElementsMatch(t, []string{"synced-appointment-a1-1h", "synced-appointment-a1-30m"}, scheduledIDs(f.sched))
}

func TestSyncAppointments_FullAndPast(t *testing.T) {
	f := newFixture(t, now)
	appts := []engine.Appointment{
		{ID: "far", Title: "Dentist", DateTime: now.Add(72 * time.Hour)},
		{ID: "done", Title: "Old", DateTime: now.Add(-time.Hour)},
		{ID: "zero", Title: "Undated"},
	}

	require.NoError(t, f.sync.SyncAppointments(appts))
	list := f.store.SyncedBySource(config.SourceAppointment)
	require.Len(t, list, 3)
	for _, r := range list {
		assert.Contains(t, []string{"far-24h", "far-1h", "far-30m"}, r.SourceID)
	}
}

func TestSyncAppointments_RemovedAppointmentCancels(t *testing.T) {
	f := newFixture(t, now)
	appt := engine.Appointment{ID: "a1", Title: "Checkup", DateTime: now.Add(48 * time.Hour)}
	require.NoError(t, f.sync.SyncAppointments([]engine.Appointment{appt}))

	require.NoError(t, f.sync.SyncAppointments(nil))

	assert.Empty(t, f.store.SyncedBySource(config.SourceAppointment))
	for _, id := range []string{"synced-appointment-a1-24h", "synced-appointment-a1-1h", "synced-appointment-a1-30m"} {
		f.sched.AssertCalled(t, "Cancel", id)
	}
}

// -----------------------------------------------------------------------------
// Localization & Errors
// -----------------------------------------------------------------------------

func TestSync_UsesFormatter(t *testing.T) {
	f := newFixture(t, now)
	f.sync.Format = func(key string, data map[string]any) string {
		switch key {
		case config.TKeyAppointmentTitle:
			return "RDV : " + data["Title"].(string)
		default:
			return key // Missing translation
		}
	}

	require.NoError(t, f.sync.SyncAppointments([]engine.Appointment{{ID: "a", Title: "Pédiatre", DateTime: now.Add(45 * time.Minute)}}))

	list := f.store.SyncedBySource(config.SourceAppointment)
	require.Len(t, list, 1)
	assert.Equal(t, "RDV : Pédiatre", list[0].Title)
	assert.Equal(t, "Starts in 30m", list[0].Notes, "Missing keys fall back to built-in text")
}

func TestSync_WriteFailureIsReturned(t *testing.T) {
	s := &engine.Synchronizer{
		Store: reminder.NewStore(failingBackend{}),
		Clock: clock.NewMock(now),
	}

	err := s.SyncSleep(engine.DefaultSleepSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSyncFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSync_NilSchedulerAndSignals(t *testing.T) {
	store := reminder.NewStore(storage.NewPreferencesBackend(test.NewApp().Preferences()))
	s := &engine.Synchronizer{Store: store, Clock: clock.NewMock(now)}

	assert.NoError(t, s.SyncSleep(engine.DefaultSleepSettings()))
	assert.Len(t, store.SyncedBySource(config.SourceSleep), 2)
}
