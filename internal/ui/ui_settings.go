package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	langSelect  *widget.Select
	entryResync *NumericalEntry

	checkFeeding   *widget.Check
	entryFeedHours *NumericalEntry
	checkFeedAdapt *widget.Check
	checkDiaper    *widget.Check
	entryDiapHours *NumericalEntry
	checkDiapAdapt *widget.Check
	checkNap       *widget.Check
	entryNap       *widget.Entry
	checkBedtime   *widget.Check
	entryBedtime   *widget.Entry
}

// newSettingsWidgets builds the form controls pre-filled from preferences and the journal.
func (app *BloomApp) newSettingsWidgets() *settingsWidgets {
	sw := &settingsWidgets{}

	sw.langSelect = widget.NewSelect(app.SupportedLanguages, nil)
	sw.langSelect.SetSelected(app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))

	sw.entryResync = NewNumericalEntry()
	sw.entryResync.SetText(strconv.Itoa(app.Preferences.IntWithFallback(config.PrefResyncInterval, config.DefaultResyncMin)))

	feeding := app.Journal.FeedingSettings()
	sw.checkFeeding = widget.NewCheck(app.GetMsg(config.TKeyLblEnabled), nil)
	sw.checkFeeding.SetChecked(feeding.Enabled)
	sw.entryFeedHours = NewDecimalEntry()
	sw.entryFeedHours.SetText(formatHours(feeding.IntervalHours))
	sw.entryFeedHours.PlaceHolder = config.HoursEntryWidthHint
	sw.checkFeedAdapt = widget.NewCheck(app.GetMsg(config.TKeyLblAdaptive), nil)
	sw.checkFeedAdapt.SetChecked(feeding.Adaptive)

	diaper := app.Journal.DiaperSettings()
	sw.checkDiaper = widget.NewCheck(app.GetMsg(config.TKeyLblEnabled), nil)
	sw.checkDiaper.SetChecked(diaper.Enabled)
	sw.entryDiapHours = NewDecimalEntry()
	sw.entryDiapHours.SetText(formatHours(diaper.IntervalHours))
	sw.entryDiapHours.PlaceHolder = config.HoursEntryWidthHint
	sw.checkDiapAdapt = widget.NewCheck(app.GetMsg(config.TKeyLblAdaptive), nil)
	sw.checkDiapAdapt.SetChecked(diaper.Adaptive)

	sleep := app.Journal.SleepSettings()
	sw.checkNap = widget.NewCheck(app.GetMsg(config.TKeyLblNap), nil)
	sw.checkNap.SetChecked(sleep.NapEnabled)
	sw.entryNap = widget.NewEntry()
	sw.entryNap.SetText(sleep.NapTime)
	sw.entryNap.PlaceHolder = config.TimeOfDayLayout
	sw.checkBedtime = widget.NewCheck(app.GetMsg(config.TKeyLblBedtime), nil)
	sw.checkBedtime.SetChecked(sleep.BedtimeEnabled)
	sw.entryBedtime = widget.NewEntry()
	sw.entryBedtime.SetText(sleep.Bedtime)
	sw.entryBedtime.PlaceHolder = config.TimeOfDayLayout

	return sw
}

// ShowSettingsWindow displays the configuration dialog.
func (app *BloomApp) ShowSettingsWindow() {
	if app.Window != nil {
		slog.Debug(config.MsgSettingsFocus, config.LogKeyComponent, config.CompUISet)
		app.Window.RequestFocus()
		return
	}

	slog.Info(config.MsgSettingsOpen, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinSettings))
	app.Window = w

	sw := app.newSettingsWidgets()

	// --- General ---
	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), sw.langSelect)

	widResync := container.NewBorder(nil, nil, nil, widget.NewLabel(app.GetMsg(config.TKeyLblMinutes)), sw.entryResync)
	itemResync := widget.NewFormItem(app.GetMsg(config.TKeyLblResync), widResync)
	itemResync.HintText = app.GetMsg(config.TKeyHelpResync)

	generalCard := widget.NewCard(app.GetMsg(config.TKeyLblGeneral), "", widget.NewForm(itemLang, itemResync))

	// --- Care reminders ---
	feedingCard := app.buildIntervalCard(config.TKeyLblFeeding, sw.checkFeeding, sw.entryFeedHours, sw.checkFeedAdapt)
	diaperCard := app.buildIntervalCard(config.TKeyLblDiaper, sw.checkDiaper, sw.entryDiapHours, sw.checkDiapAdapt)
	sleepCard := widget.NewCard(app.GetMsg(config.TKeyLblSleep), "", widget.NewForm(
		widget.NewFormItem("", container.NewBorder(nil, nil, sw.checkNap, nil, sw.entryNap)),
		widget.NewFormItem("", container.NewBorder(nil, nil, sw.checkBedtime, nil, sw.entryBedtime)),
	))

	// --- Actions ---
	saveAction := func() {
		if err := app.saveSettings(sw); err != nil {
			dialog.ShowError(err, w)
			return
		}
		w.Close()
	}

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), saveAction)
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	footerLabel := widget.NewLabel(app.Locale.Format(config.TKeyLblFooter, map[string]any{"Version": config.Version}))
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	paddedContent := container.NewPadded(container.NewVBox(
		generalCard,
		feedingCard,
		diaperCard,
		sleepCard,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	w.SetContent(paddedContent)
	w.Resize(fyne.NewSize(config.SettingsWindowWidth, paddedContent.MinSize().Height))
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.Window = nil })
	w.Show()
}

// buildIntervalCard lays out the controls of a rolling reminder (feeding or diaper).
func (app *BloomApp) buildIntervalCard(titleKey string, enabled *widget.Check, hours *NumericalEntry, adaptive *widget.Check) *widget.Card {
	itemHours := widget.NewFormItem(app.GetMsg(config.TKeyLblEveryHours), hours)
	form := widget.NewForm(itemHours, widget.NewFormItem("", adaptive))

	toggle := func(on bool) {
		if on {
			form.Show()
		} else {
			form.Hide()
		}
	}
	enabled.OnChanged = toggle
	toggle(enabled.Checked)

	return widget.NewCard(app.GetMsg(titleKey), "", container.NewVBox(enabled, form))
}

// saveSettings persists the preferences and the care settings, then resyncs.
// An empty or zero hour field disables the matching reminder.
func (app *BloomApp) saveSettings(sw *settingsWidgets) error {
	slog.Info(config.MsgSettingsSave, config.LogKeyComponent, config.CompUISet)

	sleep := engine.SleepSettings{
		NapEnabled:     sw.checkNap.Checked,
		NapTime:        sw.entryNap.Text,
		BedtimeEnabled: sw.checkBedtime.Checked,
		Bedtime:        sw.entryBedtime.Text,
	}
	if err := app.Journal.SetSleepSettings(sleep); err != nil {
		return err
	}

	var errs []error
	if err := app.Journal.SetFeedingSettings(intervalSettings(sw.checkFeeding, sw.entryFeedHours, sw.checkFeedAdapt)); err != nil {
		errs = append(errs, err)
	}
	if err := app.Journal.SetDiaperSettings(intervalSettings(sw.checkDiaper, sw.entryDiapHours, sw.checkDiapAdapt)); err != nil {
		errs = append(errs, err)
	}

	app.Preferences.SetString(config.PrefLanguage, sw.langSelect.Selected)

	resyncText := sw.entryResync.Text
	if resyncText == "" || resyncText == "0" {
		app.Preferences.SetInt(config.PrefResyncInterval, config.DisabledInterval)
		slog.Info(config.MsgResyncDisabled, config.LogKeyComponent, config.CompUISet)
	} else if i, err := strconv.Atoi(resyncText); err == nil {
		app.Preferences.SetInt(config.PrefResyncInterval, i)
	}

	app.UpdateLocalizer()
	app.RefreshTrayMenu()
	return errors.Join(errs...)
}

func intervalSettings(enabled *widget.Check, hours *NumericalEntry, adaptive *widget.Check) engine.IntervalSettings {
	h, err := strconv.ParseFloat(hours.Text, 64)
	if err != nil || h <= 0 {
		return engine.IntervalSettings{Enabled: false, Adaptive: adaptive.Checked}
	}
	return engine.IntervalSettings{Enabled: enabled.Checked, IntervalHours: h, Adaptive: adaptive.Checked}
}

func formatHours(h float64) string {
	if h <= 0 {
		return ""
	}
	return fmt.Sprintf("%g", h)
}
