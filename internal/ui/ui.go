package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/journal"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/locale"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/notify"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/server"
)

//go:embed Icon.png
var appIconData []byte

// Services groups the components the tray app drives. Scheduler, Signals and Server are optional.
type Services struct {
	Board     *reminder.Board
	Journal   *journal.Journal
	Scheduler *notify.Scheduler
	Signals   *reminder.Broadcaster
	Server    *server.CalendarServer
	Render    server.Renderer
}

// BloomApp encapsulates the tray UI state, preferences, and background logic.
type BloomApp struct {
	App         fyne.App
	Window      fyne.Window // settings window, nil when closed
	Preferences fyne.Preferences
	Locale      *locale.Translator
	Ctx         context.Context

	Board     *reminder.Board
	Journal   *journal.Journal
	Scheduler *notify.Scheduler
	Signals   *reminder.Broadcaster
	Server    *server.CalendarServer
	Render    server.Renderer
	Clock     clock.Clock

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem    *fyne.MenuItem
	TrayRemindersItem *fyne.MenuItem
	TraySyncItem      *fyne.MenuItem
	TraySettingsItem  *fyne.MenuItem

	SupportedLanguages []string
	configChan         chan string

	remindersWindow  fyne.Window
	refreshReminders func()
}

// NewBloomApp constructs the application and wires dependencies.
func NewBloomApp(a fyne.App, ctx context.Context, tr *locale.Translator, svc Services) *BloomApp {
	a.SetIcon(fyne.NewStaticResource(config.IconFile, appIconData))

	return &BloomApp{
		App:                a,
		Preferences:        a.Preferences(),
		Locale:             tr,
		Ctx:                ctx,
		Board:              svc.Board,
		Journal:            svc.Journal,
		Scheduler:          svc.Scheduler,
		Signals:            svc.Signals,
		Server:             svc.Server,
		Render:             svc.Render,
		Clock:              clock.RealClock{},
		SupportedLanguages: tr.Languages(),
		configChan:         make(chan string, config.ChannelBufferSize),
	}
}

// Run launches the background services and the main UI loop.
func (app *BloomApp) Run() {
	app.UpdateLocalizer()
	app.watchPreferences()
	app.startServices()

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	go app.watchReminders()
	go app.backgroundWorker()
	app.App.Run()
}

// startServices runs the feed server and the notification checker until the context ends.
func (app *BloomApp) startServices() {
	if app.Scheduler != nil {
		go func() {
			if err := app.Scheduler.Run(app.Ctx); err != nil {
				slog.Error(config.ErrCheckInterval,
					config.LogKeyError, err,
					config.LogKeyComponent, config.CompUI)
			}
		}()
	}

	if app.Server == nil {
		return
	}

	if app.Signals != nil && app.Render != nil {
		signals, unsubscribe := app.Signals.Subscribe()
		go func() {
			defer unsubscribe()
			app.Server.Follow(app.Ctx, signals, app.Render)
		}()
	}

	go func() {
		if err := app.Server.Start(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)

			app.App.SendNotification(fyne.NewNotification(
				config.TitleStartupError,
				fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
		}
	}()
}

// watchPreferences monitors changes to settings to trigger immediate updates.
func (app *BloomApp) watchPreferences() {
	app.Preferences.AddChangeListener(func() {
		select {
		case app.configChan <- config.PrefResyncInterval:
		default:
		}
	})
}

// watchReminders refreshes the tray status and the reminders table on every broadcast.
func (app *BloomApp) watchReminders() {
	if app.Signals == nil {
		return
	}
	signals, unsubscribe := app.Signals.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-app.Ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			fyne.Do(app.refreshStatus)
		}
	}
}

// setupTrayMenu constructs the system tray menu.
func (app *BloomApp) setupTrayMenu() {
	app.TrayStatusItem = fyne.NewMenuItem(config.FallbackTrayLabel, func() {
		app.ShowRemindersWindow()
	})

	app.TrayRemindersItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuReminders), func() {
		app.ShowRemindersWindow()
	})

	app.TraySyncItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSync), func() {
		go app.performSync(true)
	})

	app.TraySettingsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSettings), func() {
		app.ShowSettingsWindow()
	})

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItemSeparator(),
		app.TrayRemindersItem,
		app.TraySyncItem,
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// RefreshTrayMenu updates localized labels in the tray menu.
func (app *BloomApp) RefreshTrayMenu() {
	if app.Menu == nil {
		return
	}
	app.TrayRemindersItem.Label = app.GetMsg(config.TKeyMenuReminders)
	app.TraySyncItem.Label = app.GetMsg(config.TKeyMenuSync)
	app.TraySettingsItem.Label = app.GetMsg(config.TKeyMenuSettings)
	app.refreshStatus()
}

// resyncInterval reads the resync period from preferences. Zero disables periodic resyncs.
func (app *BloomApp) resyncInterval() time.Duration {
	val := app.Preferences.IntWithFallback(config.PrefResyncInterval, config.DefaultResyncMin)
	if val <= config.DisabledInterval {
		return 0
	}
	return time.Duration(val) * time.Minute
}

// backgroundWorker rebuilds the synced reminders periodically so daily and
// rolling reminders roll over without user activity.
func (app *BloomApp) backgroundWorker() {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	app.performSync(false)

	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	reset := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tick = ticker.C
		}
	}

	currentDuration := app.resyncInterval()
	reset(currentDuration)
	defer reset(0)

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, currentDuration)

	for {
		select {
		case <-app.Ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-app.configChan:
			newDuration := app.resyncInterval()
			if newDuration != currentDuration {
				log.Info(config.MsgUpdateSync, config.LogKeyOld, currentDuration, config.LogKeyNew, newDuration)
				currentDuration = newDuration
				reset(currentDuration)
			}

		case <-tick:
			app.performSync(false)
		}
	}
}

// performSync rebuilds every feature's synced reminders and reports the outcome in the tray.
func (app *BloomApp) performSync(manual bool) {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyManual, manual)

	if err := app.Journal.ResyncAll(); err != nil {
		slog.Error(config.MsgSyncFailed, config.LogKeyError, err, config.LogKeyComponent, config.CompUI)
		if manual {
			app.App.SendNotification(fyne.NewNotification(config.TitleSyncError, app.GetMsg(config.TKeyNotifSyncError)))
		}
		fyne.Do(func() { app.updateTrayStatus(-1) })
		return
	}

	fyne.Do(app.refreshStatus)

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifSyncDone)))
	}
}

// refreshStatus recounts today's open reminders and refreshes the open reminders table.
func (app *BloomApp) refreshStatus() {
	app.updateTrayStatus(app.countToday())
	if app.refreshReminders != nil {
		app.refreshReminders()
	}
}

func (app *BloomApp) countToday() int {
	if app.Board == nil {
		return 0
	}
	return len(app.Board.Today(app.Clock.Now()))
}

// updateTrayStatus shows how many reminders are still open today. A negative count marks a failed sync.
func (app *BloomApp) updateTrayStatus(count int) {
	if app.Menu == nil || app.TrayStatusItem == nil {
		return
	}

	var label string
	switch {
	case count < 0:
		label = config.FallbackTrayError
	case count == 0:
		label = app.GetMsg(config.TKeyTrayStatusZero)
		if label == config.TKeyTrayStatusZero {
			label = fmt.Sprintf(config.FallbackTrayDefault, 0)
		}
	default:
		label = app.Locale.Plural(config.TKeyTrayStatus, count)
		if label == config.TKeyTrayStatus || label == "" {
			label = fmt.Sprintf(config.FallbackTrayDefault, count)
		}
	}

	app.TrayStatusItem.Label = label
	app.Menu.Refresh()
}

// UpdateLocalizer switches the translator to the language stored in preferences.
func (app *BloomApp) UpdateLocalizer() {
	lang := app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage)
	app.Locale.SetLanguage(lang)
	slog.Debug(config.MsgLocaleLoaded,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyLang, lang)
}

// GetMsg resolves a translation key. Missing keys resolve to the key itself.
func (app *BloomApp) GetMsg(key string) string {
	return app.Locale.Msg(key)
}
