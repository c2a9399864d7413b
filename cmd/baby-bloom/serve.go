package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/tools"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/ui"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder checker and the calendar feed headless",
		Long: `Run the notification checker, the periodic resync and, when enabled,
the iCalendar feed with Prometheus metrics on /metrics.

Notifications go to Telegram when configured.`,
		Annotations: map[string]string{annotDaemon: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openServices(c.settings, nil, notifiers(c.settings, nil))
			if err != nil {
				return err
			}
			defer svc.Close()
			return svc.serve(cmd.Context())
		},
	}
}

// serve blocks until ctx is cancelled.
func (s *services) serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	if err := s.journal.ResyncAll(); err != nil {
		slog.Warn(config.MsgSyncFailed, config.LogKeyComponent, config.CompMain, config.LogKeyError, err)
	}

	if srv := s.calendar(); srv != nil {
		signals, unsubscribe := s.signals.Subscribe()
		wg.Add(2)
		go func() {
			defer wg.Done()
			defer unsubscribe()
			srv.Follow(ctx, signals, s.renderFeed())
		}()
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx); err != nil {
				slog.Error(config.ErrServerStartup, config.LogKeyError, err, config.LogKeyComponent, config.CompMain)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.resyncLoop(ctx, time.Duration(config.DefaultResyncMin)*time.Minute)
	}()

	err := s.scheduler.Run(ctx)
	slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
	return err
}

// resyncLoop rolls daily and rolling reminders over while nobody logs anything.
func (s *services) resyncLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.journal.ResyncAll(); err != nil {
				slog.Warn(config.MsgSyncFailed, config.LogKeyComponent, config.CompWorker, config.LogKeyError, err)
			}
		}
	}
}

func (c *cli) trayCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "tray",
		Short:       "Run the system tray app",
		Annotations: map[string]string{annotDaemon: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a := app.NewWithID(config.AppID)
			a.Preferences().SetString(config.PrefLastRun, config.Version)

			svc, err := openServices(c.settings, a.Preferences(), notifiers(c.settings, a))
			if err != nil {
				return err
			}
			defer svc.Close()

			srv := svc.calendar()
			gui := ui.NewBloomApp(a, ctx, svc.translator, ui.Services{
				Board:     svc.board,
				Journal:   svc.journal,
				Scheduler: svc.scheduler,
				Signals:   svc.signals,
				Server:    srv,
				Render:    svc.renderFeed(),
			})

			go func() {
				<-ctx.Done()
				slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
				a.Quit()
			}()

			// Blocks until the app quits.
			gui.Run()
			slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
			return nil
		},
	}
}

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the reminder tools over MCP on stdio",
		Long: `Expose reminders and the care journal to MCP clients over stdio.

Notifications requested here are queued in storage and delivered by the
running "serve" or "tray" process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openServices(c.settings, nil, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			slog.Info(config.MsgMCPServe, config.LogKeyComponent, config.CompMain)
			return server.ServeStdio(tools.NewServer(svc.board, svc.journal, svc.clock).MCPServer())
		},
	}
}
