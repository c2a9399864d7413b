package main

import (
	"context"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/feed"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/journal"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/locale"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/notify"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/server"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/storage"
)

// services is the dependency graph shared by every command.
type services struct {
	settings   *config.Settings
	closer     io.Closer
	clock      clock.Clock
	translator *locale.Translator

	store     *reminder.Store
	signals   *reminder.Broadcaster
	scheduler *notify.Scheduler // nil outside long-running commands
	board     *reminder.Board
	journal   *journal.Journal
}

// openServices opens storage and wires the reminder components. Long-running
// commands pass a notifier and get a Scheduler; the others queue notification
// requests in the store for the running daemon to deliver.
func openServices(s *config.Settings, prefs fyne.Preferences, n notify.Notifier) (*services, error) {
	backend, closer, err := storage.Open(s.Storage, prefs)
	if err != nil {
		return nil, err
	}

	svc := &services{
		settings:   s,
		closer:     closer,
		clock:      clock.RealClock{},
		translator: locale.New(s.Language),
		store:      reminder.NewStore(backend),
		signals:    reminder.NewBroadcaster(),
	}

	var sched reminder.Scheduler = notify.NewQueue(svc.store, svc.clock)
	if n != nil {
		svc.scheduler = notify.NewScheduler(svc.store, n, svc.clock, s.Scheduler)
		sched = svc.scheduler
	}

	svc.board = reminder.NewBoard(svc.store, sched, svc.clock, svc.signals)
	sync := &engine.Synchronizer{
		Store:     svc.store,
		Scheduler: sched,
		Clock:     svc.clock,
		Signals:   svc.signals,
		Format:    svc.translator.Format,
	}
	svc.journal = journal.New(backend, sync, svc.clock)
	return svc, nil
}

func (s *services) Close() error {
	return s.closer.Close()
}

// calendar returns the feed server, or nil when disabled.
func (s *services) calendar() *server.CalendarServer {
	if !s.settings.Server.Enabled {
		return nil
	}
	return server.NewCalendarServer(s.settings.Server.Port, s.clock)
}

// renderFeed renders the reminders of the last config.FeedHistory and everything ahead.
func (s *services) renderFeed() server.Renderer {
	b := &feed.Builder{Clock: s.clock, AlarmTrigger: s.settings.Server.AlarmTrigger}
	return func(ctx context.Context) ([]byte, error) {
		return b.Build(ctx, feed.Horizon(s.board.All(), s.clock.Now(), config.FeedHistory))
	}
}

// notifiers assembles the configured sinks. a may be nil for headless runs.
func notifiers(s *config.Settings, a fyne.App) notify.Notifier {
	var sinks notify.MultiNotifier
	if a != nil {
		sinks = append(sinks, notify.NewFyneNotifier(a))
	}
	if s.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(s.Telegram)
		if err != nil {
			slog.Warn(config.ErrTelegramConfig,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err)
		} else {
			sinks = append(sinks, tg)
		}
	}
	return sinks
}
