package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/journal"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApp_ResyncInterval tests the conversion of the preference into a ticker period.
func TestApp_ResyncInterval(t *testing.T) {
	a := test.NewApp()
	app := &BloomApp{App: a, Preferences: a.Preferences()}

	assert.Equal(t, time.Duration(config.DefaultResyncMin)*time.Minute, app.resyncInterval(), "Unset uses the default")

	tests := []struct {
		name string
		val  int
		want time.Duration
	}{
		{"Disabled", 0, 0},
		{"Negative", -5, 0},
		{"Quarter Hour", 15, 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.Preferences.SetInt(config.PrefResyncInterval, tt.val)
			assert.Equal(t, tt.want, app.resyncInterval())
		})
	}
}

// -----------------------------------------------------------------------------
// Reminders Table (View Model Logic)
// -----------------------------------------------------------------------------

func TestFormatDue(t *testing.T) {
	env := setupTestApp(t)
	app := env.app

	past := reminder.Reminder{DueAt: testNow.Add(-time.Minute)}
	assert.Equal(t, "Due now", app.formatDue(past, testNow))
	assert.Equal(t, "Due now", app.formatDue(reminder.Reminder{DueAt: testNow}, testNow), "Exactly now is due")

	past.Completed = true
	assert.Equal(t, "Feb 20 07:59", app.formatDue(past, testNow), "Completed reminders keep their date")

	future := reminder.Reminder{DueAt: testNow.Add(26 * time.Hour)}
	assert.Equal(t, "Feb 21 10:00", app.formatDue(future, testNow))

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateLocalizer()
	assert.Equal(t, "Maintenant", app.formatDue(reminder.Reminder{DueAt: testNow}, testNow))
}

func TestReminderRows(t *testing.T) {
	env := setupTestApp(t)
	app := env.app

	bath, err := app.Board.Add(reminder.Reminder{Title: "Bath", DueAt: testNow.Add(2 * time.Hour), Category: reminder.CategoryHealth})
	require.NoError(t, err)
	_, err = app.Board.ToggleComplete(bath.ID)
	require.NoError(t, err)
	require.NoError(t, app.Journal.SetSleepSettings(engine.SleepSettings{NapEnabled: true, NapTime: "09:00"}))

	rows := app.reminderRows(testNow)
	require.Len(t, rows, 2)

	assert.Equal(t, "😴 Nap time", rows[0].Title, "Synced titles already carry their icon")
	assert.True(t, rows[0].IsSynced)
	assert.Equal(t, string(reminder.CategorySleep), rows[0].Category)

	assert.Equal(t, config.CompletedMark+reminder.IconFor(reminder.CategoryHealth)+" Bath", rows[1].Title)
	assert.False(t, rows[1].IsSynced)
	assert.Equal(t, "Feb 20 10:00", rows[1].Due)
}

func TestSortRows(t *testing.T) {
	rows := func() []reminderRow {
		return []reminderRow{
			{Title: "b", Category: "sleep", DueAt: testNow.Add(2 * time.Hour)},
			{Title: "C", Category: "feeding", DueAt: testNow.Add(time.Hour)},
			{Title: "a", Category: "sleep", DueAt: testNow.Add(time.Hour)},
		}
	}
	titles := func(rs []reminderRow) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Title
		}
		return out
	}

	r := rows()
	sortRows(r, config.ColIDDue, true)
	assert.Equal(t, []string{"C", "a", "b"}, titles(r), "Due ties fall back to byte order of the title")

	r = rows()
	sortRows(r, config.ColIDTitle, true)
	assert.Equal(t, []string{"a", "b", "C"}, titles(r), "Title sort ignores case")

	r = rows()
	sortRows(r, config.ColIDCategory, true)
	assert.Equal(t, []string{"C", "a", "b"}, titles(r))

	r = rows()
	sortRows(r, config.ColIDDue, false)
	assert.Equal(t, "b", r[0].Title)
}

// -----------------------------------------------------------------------------
// Settings
// -----------------------------------------------------------------------------

func TestIntervalSettings_EmptyDisables(t *testing.T) {
	on := widget.NewCheck("", nil)
	on.SetChecked(true)
	adaptive := widget.NewCheck("", nil)
	hours := NewDecimalEntry()

	hours.SetText("2.5")
	assert.Equal(t, engine.IntervalSettings{Enabled: true, IntervalHours: 2.5}, intervalSettings(on, hours, adaptive))

	for _, text := range []string{"", "0", "abc"} {
		hours.SetText(text)
		assert.False(t, intervalSettings(on, hours, adaptive).Enabled, "Hours %q disables the reminder", text)
	}

	assert.Equal(t, "2.5", formatHours(2.5))
	assert.Equal(t, "3", formatHours(3))
	assert.Empty(t, formatHours(0))
}

func TestSaveSettings(t *testing.T) {
	env := setupTestApp(t)
	app := env.app
	app.setupTrayMenu()

	sw := app.newSettingsWidgets()
	assert.Equal(t, config.DefaultNapTime, sw.entryNap.Text)
	assert.Equal(t, "3", sw.entryFeedHours.Text)

	sw.langSelect.SetSelected("fr")
	sw.entryResync.SetText("0")
	sw.entryDiapHours.SetText("2")
	sw.checkFeeding.SetChecked(false)
	sw.checkBedtime.SetChecked(false)
	sw.entryNap.SetText("14:30")

	require.NoError(t, app.saveSettings(sw))

	assert.Equal(t, "fr", app.Locale.Language())
	assert.Equal(t, "Paramètres…", app.TraySettingsItem.Label)
	assert.Equal(t, config.DisabledInterval, app.Preferences.Int(config.PrefResyncInterval))
	assert.False(t, app.Journal.FeedingSettings().Enabled)
	assert.Equal(t, 2.0, app.Journal.DiaperSettings().IntervalHours)

	sleep := app.Journal.SleepSettings()
	assert.Equal(t, "14:30", sleep.NapTime)
	assert.False(t, sleep.BedtimeEnabled)
}

func TestSaveSettings_InvalidTimeKeepsPreferences(t *testing.T) {
	env := setupTestApp(t)
	app := env.app

	sw := app.newSettingsWidgets()
	sw.langSelect.SetSelected("fr")
	sw.entryNap.SetText("noon")

	err := app.saveSettings(sw)
	assert.ErrorIs(t, err, journal.ErrInvalidTime)
	assert.Equal(t, "en", app.Locale.Language(), "Nothing is saved when the form is rejected")
}
