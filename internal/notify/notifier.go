// Package notify delivers reminder notifications and owns the timers that trigger them.
package notify

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
)

// Notification is what a sink displays when a reminder fires.
type Notification struct {
	ID                 string // Tag; a sink shows at most one notification per ID at a time.
	Title              string
	Body               string
	Icon               string
	Category           reminder.Category
	RequireInteraction bool
}

// FromScheduled converts a scheduled reminder into a notification.
func FromScheduled(r reminder.Scheduled) Notification {
	icon := r.Icon
	if icon == "" {
		icon = reminder.IconFor(r.Category)
	}
	return Notification{
		ID:                 r.ID,
		Title:              r.Title,
		Body:               r.Body,
		Icon:               icon,
		Category:           r.Category,
		RequireInteraction: r.RequireInteraction,
	}
}

// Notifier is a notification sink.
// Permission reports one of config.Permission*; sinks reporting PermissionUnsupported
// treat RequestPermission and Show as no-ops.
type Notifier interface {
	Permission() string
	RequestPermission(ctx context.Context) (string, error)
	Show(ctx context.Context, n Notification) error
}

// -----------------------------------------------------------------------------
// Desktop (fyne)
// -----------------------------------------------------------------------------

// FyneNotifier shows desktop notifications through the running fyne app.
type FyneNotifier struct {
	App fyne.App
}

func NewFyneNotifier(a fyne.App) *FyneNotifier {
	return &FyneNotifier{App: a}
}

// Permission is granted whenever an app is attached; fyne exposes no permission prompt.
func (f *FyneNotifier) Permission() string {
	if f == nil || f.App == nil {
		return config.PermissionUnsupported
	}
	return config.PermissionGranted
}

func (f *FyneNotifier) RequestPermission(context.Context) (string, error) {
	return f.Permission(), nil
}

func (f *FyneNotifier) Show(_ context.Context, n Notification) error {
	if f.Permission() != config.PermissionGranted {
		return nil
	}
	f.App.SendNotification(fyne.NewNotification(n.Title, n.Body))
	return nil
}

// -----------------------------------------------------------------------------
// Fan-out
// -----------------------------------------------------------------------------

// MultiNotifier delivers to every sink that has permission.
type MultiNotifier []Notifier

// Permission is granted if any sink is granted. Otherwise the first sink's status is reported.
func (m MultiNotifier) Permission() string {
	if len(m) == 0 {
		return config.PermissionUnsupported
	}
	for _, n := range m {
		if n.Permission() == config.PermissionGranted {
			return config.PermissionGranted
		}
	}
	return m[0].Permission()
}

func (m MultiNotifier) RequestPermission(ctx context.Context) (string, error) {
	var errs []error
	for _, n := range m {
		if _, err := n.RequestPermission(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return m.Permission(), errors.Join(errs...)
}

func (m MultiNotifier) Show(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range m {
		if sink.Permission() != config.PermissionGranted {
			continue
		}
		if err := sink.Show(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// Unsupported environment
// -----------------------------------------------------------------------------

// NopNotifier stands in when no sink is available.
type NopNotifier struct{}

func (NopNotifier) Permission() string { return config.PermissionUnsupported }

func (NopNotifier) RequestPermission(context.Context) (string, error) {
	return config.PermissionUnsupported, nil
}

func (NopNotifier) Show(context.Context, Notification) error { return nil }
