package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/notify"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockNotifier simulates a notification sink using `testify/mock`.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Permission() string {
	return m.Called().String(0)
}

func (m *MockNotifier) RequestPermission(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockNotifier) Show(ctx context.Context, n notify.Notification) error {
	return m.Called(ctx, n).Error(0)
}

var t0 = time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)

type fixture struct {
	sched    *notify.Scheduler
	store    *reminder.Store
	notifier *MockNotifier
	clock    *clock.Mock
}

func newFixture(t *testing.T, permission string) fixture {
	t.Helper()
	store := reminder.NewStore(storage.NewPreferencesBackend(test.NewApp().Preferences()))
	n := new(MockNotifier)
	n.On("Permission").Return(permission).Maybe()
	clk := clock.NewMock(t0)
	return fixture{
		sched:    notify.NewScheduler(store, n, clk, config.SchedulerSettings{}),
		store:    store,
		notifier: n,
		clock:    clk,
	}
}

func entry(id string, due time.Time) reminder.Scheduled {
	return reminder.Scheduled{ID: id, Title: "Title " + id, Body: "body", DueAt: due, Category: reminder.CategoryFeeding}
}

func showCount(n *MockNotifier) int {
	count := 0
	for _, c := range n.Calls {
		if c.Method == "Show" {
			count++
		}
	}
	return count
}

// -----------------------------------------------------------------------------
// Schedule
// -----------------------------------------------------------------------------

func TestSchedule_RejectsPastAndIncomplete(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)

	got, err := f.sched.Schedule(entry("past", t0.Add(-time.Second)))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, reminder.ErrDueInPast)

	got, err = f.sched.Schedule(entry("now", t0))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, reminder.ErrDueInPast, "Due exactly now is not in the future")

	for _, r := range []reminder.Scheduled{
		{Title: "no id", DueAt: t0.Add(time.Hour)},
		{ID: "x", DueAt: t0.Add(time.Hour)},
		{ID: "x", Title: "no date"},
	} {
		got, err = f.sched.Schedule(r)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, reminder.ErrMissingFields)
	}

	assert.Empty(t, f.store.Scheduled(), "Rejected reminders never reach the store")
	assert.Zero(t, f.clock.Pending())
}

func TestSchedule_PersistsAndArms(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	before := testutil.ToFloat64(notify.ScheduledTotal)

	got, err := f.sched.Schedule(entry("a", t0.Add(time.Hour)))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, t0, got.ScheduledAt)
	assert.Equal(t, "🍼", got.Icon)

	stored, ok := f.store.ScheduledByID("a")
	require.True(t, ok)
	assert.Equal(t, *got, stored)
	assert.Equal(t, 1, f.sched.Armed())
	assert.Equal(t, before+1, testutil.ToFloat64(notify.ScheduledTotal))
}

func TestSchedule_RescheduleReplacesTimer(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(nil)

	_, err := f.sched.Schedule(entry("a", t0.Add(time.Hour)))
	require.NoError(t, err)
	_, err = f.sched.Schedule(entry("a", t0.Add(2*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, 1, f.clock.Pending(), "The first timer is stopped")
	assert.Len(t, f.store.Scheduled(), 1)

	f.clock.Advance(time.Hour)
	assert.Zero(t, showCount(f.notifier))

	f.clock.Advance(time.Hour)
	assert.Equal(t, 1, showCount(f.notifier))
}

// -----------------------------------------------------------------------------
// Fire path
// -----------------------------------------------------------------------------

func TestFire_ShowsAndRemoves(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
		return n.ID == "a" && n.Title == "Title a" && n.Body == "body" && n.Icon == "🍼"
	})).Return(nil).Once()
	shown := testutil.ToFloat64(notify.ShownTotal)

	_, err := f.sched.Schedule(entry("a", t0.Add(time.Minute)))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)

	f.notifier.AssertExpectations(t)
	assert.Empty(t, f.store.Scheduled(), "Fired reminders leave the store")
	assert.True(t, f.sched.Active("a"))
	assert.Zero(t, f.sched.Armed())
	assert.Equal(t, shown+1, testutil.ToFloat64(notify.ShownTotal))

	f.clock.Advance(config.NotificationAutoDismiss)
	assert.False(t, f.sched.Active("a"), "Notifications auto-dismiss")
}

func TestFire_RequireInteractionStaysActive(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(nil)

	r := entry("sticky", t0.Add(time.Minute))
	r.RequireInteraction = true
	_, err := f.sched.Schedule(r)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	f.clock.Advance(time.Hour)
	assert.True(t, f.sched.Active("sticky"))

	f.sched.Dismiss("sticky")
	assert.False(t, f.sched.Active("sticky"))
}

func TestFire_PermissionDeniedStillRemoves(t *testing.T) {
	f := newFixture(t, config.PermissionDenied)
	suppressed := testutil.ToFloat64(notify.SuppressedTotal.WithLabelValues(config.ReasonPermission))

	_, err := f.sched.Schedule(entry("a", t0.Add(time.Minute)))
	require.NoError(t, err, "Denied permission still records the reminder")
	require.Len(t, f.store.Scheduled(), 1)

	f.clock.Advance(time.Minute)

	f.notifier.AssertNotCalled(t, "Show", mock.Anything, mock.Anything)
	assert.Empty(t, f.store.Scheduled())
	assert.Equal(t, suppressed+1, testutil.ToFloat64(notify.SuppressedTotal.WithLabelValues(config.ReasonPermission)))
}

func TestFire_ActiveIDIsNotShownTwice(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(nil)

	_, err := f.sched.Schedule(entry("a", t0.Add(time.Minute)))
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	// Rescheduled to fire while the first notification is still on screen.
	_, err = f.sched.Schedule(entry("a", t0.Add(time.Minute+5*time.Second)))
	require.NoError(t, err)
	f.clock.Advance(5 * time.Second)

	assert.Equal(t, 1, showCount(f.notifier))
	assert.Empty(t, f.store.Scheduled())
}

func TestFire_ShowErrorReleasesActive(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(errors.New("dbus down"))

	_, err := f.sched.Schedule(entry("a", t0.Add(time.Minute)))
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	assert.False(t, f.sched.Active("a"))
	assert.Empty(t, f.store.Scheduled())
}

func TestCancel_StopsTimerAndRemoves(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)

	_, err := f.sched.Schedule(entry("a", t0.Add(time.Minute)))
	require.NoError(t, err)

	f.sched.Cancel("a")
	assert.Empty(t, f.store.Scheduled())
	assert.Zero(t, f.sched.Armed())
	assert.Zero(t, f.clock.Pending())

	f.clock.Advance(time.Hour)
	f.notifier.AssertNotCalled(t, "Show", mock.Anything, mock.Anything)

	assert.NotPanics(t, func() { f.sched.Cancel("unknown") })
}

func TestFire_TimerAndSweepFireOnce(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(nil)

	// Simulate an entry written by a previous process, then armed by the sweep.
	require.NoError(t, f.store.PutScheduled(entry("a", t0.Add(30*time.Second))))
	f.sched.Sweep(context.Background())
	assert.Equal(t, 1, f.sched.Armed(), "Future entries without a timer are re-armed")

	// The timer fires at +30s, then the sweep at +60s finds nothing left.
	f.clock.Advance(time.Minute)
	f.sched.Sweep(context.Background())

	assert.Equal(t, 1, showCount(f.notifier))
}

// -----------------------------------------------------------------------------
// Sweep
// -----------------------------------------------------------------------------

func TestSweep_CatchUpWindow(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(nil)
	missed := testutil.ToFloat64(notify.MissedTotal)

	// Entries left behind while the app was closed.
	require.NoError(t, f.store.PutScheduled(entry("recent", t0.Add(-2*time.Minute))))
	require.NoError(t, f.store.PutScheduled(entry("stale", t0.Add(-config.DefaultCatchUpWindow))))
	require.NoError(t, f.store.PutScheduled(entry("future", t0.Add(time.Hour))))

	f.sched.Sweep(context.Background())

	f.notifier.AssertCalled(t, "Show", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool { return n.ID == "recent" }))
	assert.Equal(t, 1, showCount(f.notifier), "Entries older than the window are dropped, not shown")
	assert.Equal(t, missed+1, testutil.ToFloat64(notify.MissedTotal))

	left := f.store.Scheduled()
	require.Len(t, left, 1)
	assert.Equal(t, "future", left[0].ID)
}

func TestSweep_CustomWindow(t *testing.T) {
	store := reminder.NewStore(storage.NewPreferencesBackend(test.NewApp().Preferences()))
	n := new(MockNotifier)
	n.On("Permission").Return(config.PermissionGranted)
	n.On("Show", mock.Anything, mock.Anything).Return(nil)
	clk := clock.NewMock(t0)
	s := notify.NewScheduler(store, n, clk, config.SchedulerSettings{CheckInterval: time.Minute, CatchUpWindow: time.Minute})

	require.NoError(t, store.PutScheduled(entry("in", t0.Add(-59*time.Second))))
	require.NoError(t, store.PutScheduled(entry("out", t0.Add(-61*time.Second))))

	s.Sweep(context.Background())
	assert.Equal(t, 1, showCount(n))
	assert.Empty(t, store.Scheduled())
}

func TestSweep_ForgetsFiredMarkersPastWindow(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(nil)

	for _, id := range []string{"a", "b"} {
		_, err := f.sched.Schedule(entry(id, t0.Add(time.Minute)))
		require.NoError(t, err)
	}
	f.clock.Advance(time.Minute)
	assert.Equal(t, 2, f.sched.FiredLen())

	// Rescheduling an id clears its marker for the old time.
	_, err := f.sched.Schedule(entry("b", t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 1, f.sched.FiredLen())

	f.clock.Advance(config.DefaultCatchUpWindow - time.Minute)
	f.sched.Sweep(context.Background())
	assert.Equal(t, 1, f.sched.FiredLen(), "Markers inside the window are kept")

	f.clock.Advance(time.Minute)
	f.sched.Sweep(context.Background())
	assert.Zero(t, f.sched.FiredLen())
	assert.Equal(t, 2, showCount(f.notifier))
}

func TestRun_SweepsOnStartAndStops(t *testing.T) {
	f := newFixture(t, config.PermissionGranted)
	f.notifier.On("Show", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.store.PutScheduled(entry("due", t0.Add(-time.Second))))
	require.NoError(t, f.store.PutScheduled(entry("later", t0.Add(time.Hour))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sched.Run(ctx) }()

	require.Eventually(t, func() bool { return len(f.store.Scheduled()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.Zero(t, f.sched.Armed(), "Timers are stopped on shutdown")
	assert.Len(t, f.store.Scheduled(), 1, "Pending entries survive for the next start")
}

func TestRequestPermission(t *testing.T) {
	f := newFixture(t, config.PermissionDefault)
	f.notifier.On("RequestPermission", mock.Anything).Return(config.PermissionGranted, nil)

	status, err := f.sched.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.PermissionGranted, status)
	assert.Equal(t, config.PermissionDefault, f.sched.Permission())
}
