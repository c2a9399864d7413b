// Package server publishes the reminders as an iCalendar feed over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Renderer produces the current feed body.
type Renderer func(ctx context.Context) ([]byte, error)

// snapshot is one rendered version of the feed.
type snapshot struct {
	data    []byte
	etag    string
	modTime time.Time
}

// CalendarServer serves the reminder feed and the Prometheus metrics.
type CalendarServer struct {
	Port  string
	Clock clock.Clock

	current atomic.Pointer[snapshot]
}

// NewCalendarServer returns a server for localhost:port.
func NewCalendarServer(port string, clk clock.Clock) *CalendarServer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &CalendarServer{Port: port, Clock: clk}
}

// Start binds the port, then serves until ctx is cancelled.
// A port that cannot be bound is reported before Start blocks.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(config.LocalhostBindAddr, s.Port))
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Handler routes the feed and /metrics. Every path other than /metrics serves the feed.
func (s *CalendarServer) Handler() http.Handler {
	feed := promhttp.InstrumentHandlerCounter(feedRequests, http.HandlerFunc(s.serveFeed))

	mux := http.NewServeMux()
	mux.Handle(config.RouteRoot, feed)
	mux.Handle(config.RouteMetrics, promhttp.Handler())
	return mux
}

// Follow renders the feed once, then again after signals, until ctx is cancelled.
// Signals that pile up during a render are folded into a single refresh.
// A failed render keeps the previous content.
func (s *CalendarServer) Follow(ctx context.Context, signals <-chan reminder.Signal, render Renderer) {
	refresh := func() {
		data, err := render(ctx)
		if err != nil {
			feedRenders.WithLabelValues(resultError).Inc()
			slog.Warn(config.ErrICalEncode,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err)
			return
		}
		feedRenders.WithLabelValues(resultOK).Inc()
		s.Update(data)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			if !drain(signals) {
				return
			}
			refresh()
		}
	}
}

// drain discards the signals already queued. It reports false once the channel is closed.
func drain(signals <-chan reminder.Signal) bool {
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// Update publishes data. It reports whether the content changed; identical
// content keeps its ETag and modification time so clients see a 304.
func (s *CalendarServer) Update(data []byte) bool {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	if cur := s.current.Load(); cur != nil && cur.etag == etag {
		return false
	}

	s.current.Store(&snapshot{
		data:    data,
		etag:    etag,
		modTime: s.Clock.Now().UTC().Truncate(time.Second),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
	return true
}

// serveFeed answers GET and HEAD. Conditional requests are resolved by http.ServeContent.
func (s *CalendarServer) serveFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	snap := s.current.Load()
	if snap == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	h := w.Header()
	h.Set(config.HeaderContentType, config.MimeTextCalendar)
	h.Set(config.HeaderXContentType, config.MimeNoSniff)
	h.Set(config.HeaderCacheControl, config.CacheControlPrivate)
	h.Set(config.HeaderETag, snap.etag)

	http.ServeContent(w, r, config.FeedFileName, snap.modTime, bytes.NewReader(snap.data))
}
