// Package feed renders reminders as an iCalendar feed so calendar apps can subscribe to them.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/clock"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/emersion/go-ical"
)

// Builder converts reminders into VEVENTs.
type Builder struct {
	Clock clock.Clock // Interface for time mocking.

	// AlarmTrigger is an ISO 8601 duration (e.g. "-PT10M") attached as a VALARM
	// to open reminders. Empty disables alarms.
	AlarmTrigger string
}

// Build encodes reminders as a VCALENDAR. An empty list yields config.StubVCalendar.
func (b *Builder) Build(ctx context.Context, reminders []reminder.Reminder) ([]byte, error) {
	if len(reminders) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(b.Clock.Now().UTC())

	for _, r := range reminders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		event := b.event(r)
		event.Props.Set(dtStampProp)
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompFeed,
		config.LogKeyCount, len(reminders),
		config.LogKeySizeBytes, buf.Len())
	return buf.Bytes(), nil
}

func (b *Builder) event(r reminder.Reminder) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, r.ID, config.ICalDomain))

	summary := strings.TrimSpace(r.DisplayIcon() + " " + r.Title)
	event.Props.SetText(config.PropSummary, summary)

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDateTime(r.DueAt.UTC())
	event.Props.Set(dtStartProp)

	if r.Notes != "" {
		event.Props.SetText(config.PropDescription, r.Notes)
	}
	if r.Category != "" {
		event.Props.SetText(config.PropCategories, string(r.Category))
	}

	if r.Completed {
		event.Props.SetText(config.PropStatus, config.StatusCompleted)
	} else if b.AlarmTrigger != "" {
		addAlarm(event, b.AlarmTrigger, summary)
	}
	return event
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set manually to avoid the VALUE=TEXT parameter.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// Horizon trims reminders that ended before now minus keep, so long-lived feeds stay small.
func Horizon(reminders []reminder.Reminder, now time.Time, keep time.Duration) []reminder.Reminder {
	cutoff := now.Add(-keep)
	out := make([]reminder.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.DueAt.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}
