package ui

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/journal"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/locale"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockTray implements minimal system tray functionality for headless testing.
type MockTray struct {
	Menu *fyne.Menu
}

func (m *MockTray) SetSystemTrayMenu(menu *fyne.Menu) {
	m.Menu = menu
}

func (m *MockTray) SetSystemTrayIcon(icon fyne.Resource) {}
func (m *MockTray) SetSystemTrayWindow(w fyne.Window)    {}
func (m *MockTray) Run()                                 {}
func (m *MockTray) Quit()                                {}

// flakyBackend fails every write once broken is set.
type flakyBackend struct {
	storage.Backend
	broken atomic.Bool
}

func (f *flakyBackend) Set(key, value string) error {
	if f.broken.Load() {
		return errors.New("disk full")
	}
	return f.Backend.Set(key, value)
}

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

type testEnv struct {
	app     *BloomApp
	tray    *MockTray
	clock   *clock.Mock
	backend *flakyBackend
}

// setupTestApp initializes a headless Fyne app over in-memory preferences.
func setupTestApp(t *testing.T) testEnv {
	t.Helper()
	a := test.NewApp()

	backend := &flakyBackend{Backend: storage.NewPreferencesBackend(a.Preferences())}
	store := reminder.NewStore(backend)
	clk := clock.NewMock(testNow)
	signals := reminder.NewBroadcaster()
	tr := locale.New(config.DefaultLanguage)

	sync := &engine.Synchronizer{Store: store, Clock: clk, Signals: signals, Format: tr.Format}
	svc := Services{
		Board:   reminder.NewBoard(store, nil, clk, signals),
		Journal: journal.New(backend, sync, clk),
		Signals: signals,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := NewBloomApp(a, ctx, tr, svc)
	tray := &MockTray{}
	app.Tray = tray
	app.Clock = clk
	app.UpdateLocalizer()

	return testEnv{app: app, tray: tray, clock: clk, backend: backend}
}

// -----------------------------------------------------------------------------
// Localization Tests
// -----------------------------------------------------------------------------

func TestLocalization_Switching(t *testing.T) {
	env := setupTestApp(t)
	app := env.app
	app.setupTrayMenu()

	app.Preferences.SetString(config.PrefLanguage, "en")
	app.UpdateLocalizer()
	assert.Equal(t, "Settings…", app.GetMsg(config.TKeyMenuSettings))

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateLocalizer()
	app.RefreshTrayMenu()
	assert.Equal(t, "Paramètres…", app.TraySettingsItem.Label)
	assert.Equal(t, "Aucun rappel aujourd'hui", app.TrayStatusItem.Label)
}

// -----------------------------------------------------------------------------
// Configuration & Preferences Tests
// -----------------------------------------------------------------------------

func TestConfiguration_WorkerSignal(t *testing.T) {
	env := setupTestApp(t)
	app := env.app
	app.watchPreferences()

	signalReceived := make(chan bool)
	go func() {
		select {
		case key := <-app.configChan:
			signalReceived <- key == config.PrefResyncInterval
		case <-time.After(500 * time.Millisecond):
			signalReceived <- false
		}
	}()

	app.Preferences.SetInt(config.PrefResyncInterval, 120)

	assert.True(t, <-signalReceived, "Changing the interval should notify the background worker")
}

// -----------------------------------------------------------------------------
// Sync Logic Integration Tests
// -----------------------------------------------------------------------------

func TestPerformSync_Success(t *testing.T) {
	env := setupTestApp(t)
	app := env.app
	app.setupTrayMenu()

	test.AssertNotificationSent(t, fyne.NewNotification(config.AppName, "Reminders are up to date"), func() {
		app.performSync(true)
	})

	require.NotNil(t, env.tray.Menu)
	// Default nap (13:00) and bedtime (19:30) are both still ahead today.
	assert.Equal(t, "2 reminders today", app.TrayStatusItem.Label)
}

func TestPerformSync_Failure(t *testing.T) {
	env := setupTestApp(t)
	app := env.app
	app.setupTrayMenu()
	app.performSync(false)

	env.clock.Set(testNow.Add(24 * time.Hour))
	env.backend.broken.Store(true)

	test.AssertNotificationSent(t, fyne.NewNotification(config.TitleSyncError, "Some reminders could not be synchronized"), func() {
		app.performSync(true)
	})
	assert.Equal(t, config.FallbackTrayError, app.TrayStatusItem.Label)
}

func TestTrayStatusUpdate_Logic(t *testing.T) {
	env := setupTestApp(t)
	app := env.app
	app.setupTrayMenu()

	app.updateTrayStatus(-1)
	assert.Equal(t, config.FallbackTrayError, app.TrayStatusItem.Label)

	app.updateTrayStatus(0)
	assert.Equal(t, "No reminders today", app.TrayStatusItem.Label)

	app.updateTrayStatus(1)
	assert.Equal(t, "1 reminder today", app.TrayStatusItem.Label)

	app.updateTrayStatus(10)
	assert.Contains(t, app.TrayStatusItem.Label, "10")

	assert.NotNil(t, env.tray.Menu)
}

func TestTrayStatus_IgnoresCompletedAndOtherDays(t *testing.T) {
	env := setupTestApp(t)
	app := env.app
	app.setupTrayMenu()

	done, err := app.Board.Add(reminder.Reminder{Title: "Buy formula", DueAt: testNow.Add(2 * time.Hour)})
	require.NoError(t, err)
	_, err = app.Board.ToggleComplete(done.ID)
	require.NoError(t, err)
	_, err = app.Board.Add(reminder.Reminder{Title: "Call pediatrician", DueAt: testNow.Add(3 * time.Hour)})
	require.NoError(t, err)
	_, err = app.Board.Add(reminder.Reminder{Title: "Next week", DueAt: testNow.Add(7 * 24 * time.Hour)})
	require.NoError(t, err)

	app.refreshStatus()
	assert.Equal(t, "1 reminder today", app.TrayStatusItem.Label)
}

func TestShowRemindersWindow_Singleton(t *testing.T) {
	env := setupTestApp(t)
	app := env.app

	assert.Nil(t, app.remindersWindow)
	app.ShowRemindersWindow()
	require.NotNil(t, app.remindersWindow)
	require.NotNil(t, app.refreshReminders)

	first := app.remindersWindow
	app.ShowRemindersWindow()
	assert.Same(t, first, app.remindersWindow)

	first.Close()
	assert.Nil(t, app.remindersWindow)
	assert.Nil(t, app.refreshReminders)
}

func TestShowSettingsWindow_Singleton(t *testing.T) {
	env := setupTestApp(t)
	app := env.app

	app.ShowSettingsWindow()
	require.NotNil(t, app.Window)
	w := app.Window
	app.ShowSettingsWindow()
	assert.Same(t, w, app.Window)

	w.Close()
	assert.Nil(t, app.Window)
}
