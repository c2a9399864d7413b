package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
)

// appointmentLeads are the offsets before an appointment at which a reminder fires.
var appointmentLeads = []time.Duration{24 * time.Hour, time.Hour, 30 * time.Minute}

// intervalKind describes one "next event" reminder slot.
type intervalKind struct {
	slot          string
	category      reminder.Category
	titleKey      string
	bodyKey       string
	titleFallback string
	bodyFallback  string
	defaultHours  float64 // used when the settings carry no positive interval
}

var (
	feedingKind = intervalKind{
		slot:          config.SlotNextFeeding,
		category:      reminder.CategoryFeeding,
		titleKey:      config.TKeyFeedingTitle,
		bodyKey:       config.TKeyFeedingBody,
		titleFallback: config.FallbackFeedingTitle,
		bodyFallback:  config.FallbackFeedingBody,
		defaultHours:  config.DefaultFeedingIntervalHours,
	}
	diaperKind = intervalKind{
		slot:          config.SlotNextDiaper,
		category:      reminder.CategoryDiaper,
		titleKey:      config.TKeyDiaperTitle,
		bodyKey:       config.TKeyDiaperBody,
		titleFallback: config.FallbackDiaperTitle,
		bodyFallback:  config.FallbackDiaperBody,
		defaultHours:  config.DefaultDiaperIntervalHours,
	}
)

// intervalReminder projects the single "next event" reminder of feeding or diaper tracking.
func (s *Synchronizer) intervalReminder(kind intervalKind, times []time.Time, settings IntervalSettings) []reminder.Reminder {
	if !settings.Enabled || len(times) == 0 {
		return nil
	}

	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })
	if sorted[0].IsZero() {
		return nil
	}

	fixed := settings.IntervalHours
	if fixed <= 0 {
		fixed = kind.defaultHours
	}
	hours := EstimateInterval(sorted, fixed, settings.Adaptive)
	label := fmt.Sprintf(config.FormatHours, hours)

	return []reminder.Reminder{{
		SourceID: kind.slot,
		Title:    s.text(kind.titleKey, nil, kind.titleFallback),
		Notes:    s.text(kind.bodyKey, map[string]any{"Hours": label}, kind.bodyFallback, label),
		DueAt:    NextExpected(sorted[0], hours),
		Category: kind.category,
	}}
}

func (s *Synchronizer) feedingReminders(feedings []Feeding, settings IntervalSettings) []reminder.Reminder {
	times := make([]time.Time, 0, len(feedings))
	for _, f := range feedings {
		times = append(times, f.Timestamp)
	}
	return s.intervalReminder(feedingKind, times, settings)
}

func (s *Synchronizer) diaperReminders(changes []DiaperChange, settings IntervalSettings) []reminder.Reminder {
	times := make([]time.Time, 0, len(changes))
	for _, c := range changes {
		times = append(times, c.Timestamp)
	}
	return s.intervalReminder(diaperKind, times, settings)
}

func (s *Synchronizer) sleepReminders(now time.Time, settings SleepSettings) []reminder.Reminder {
	var out []reminder.Reminder
	if settings.NapEnabled {
		if at, ok := nextClockTime(now, settings.NapTime); ok {
			out = append(out, reminder.Reminder{
				SourceID: config.SlotNap,
				Title:    s.text(config.TKeyNapTitle, nil, config.FallbackNapTitle),
				Notes:    s.text(config.TKeyNapBody, nil, config.FallbackNapBody),
				DueAt:    at,
				Category: reminder.CategorySleep,
			})
		}
	}
	if settings.BedtimeEnabled {
		if at, ok := nextClockTime(now, settings.Bedtime); ok {
			out = append(out, reminder.Reminder{
				SourceID: config.SlotBedtime,
				Title:    s.text(config.TKeyBedtimeTitle, nil, config.FallbackBedtimeTitle),
				Notes:    s.text(config.TKeyBedtimeBody, nil, config.FallbackBedtimeBody),
				DueAt:    at,
				Category: reminder.CategorySleep,
			})
		}
	}
	return out
}

// vaccinationReminders emits one reminder per incomplete vaccine whose due date lies ahead.
// The reminder fires at 09:00 a week before the due date, or at 09:00 on the eve once
// that first reminder time has passed.
func (s *Synchronizer) vaccinationReminders(now time.Time, schedule []Vaccine, done Vaccinations, birth time.Time) []reminder.Reminder {
	if birth.IsZero() {
		return nil
	}

	loc := now.Location()
	by, bm, bd := birth.In(loc).Date()
	birthDay := time.Date(by, bm, bd, 0, 0, 0, 0, loc)

	var out []reminder.Reminder
	for _, v := range schedule {
		if _, completed := done[v.ID]; completed {
			continue
		}
		due := birthDay.AddDate(0, v.Months, 0)
		if !due.After(now) {
			continue
		}

		dueAt := due.AddDate(0, 0, -config.VaccineLeadDays).Add(config.VaccineReminderHour * time.Hour)
		if !now.Before(dueAt) {
			dueAt = due.AddDate(0, 0, -config.VaccineLastCallDays).Add(config.VaccineReminderHour * time.Hour)
		}

		date := due.Format(config.DateLayout)
		out = append(out, reminder.Reminder{
			SourceID: v.ID,
			Title:    s.text(config.TKeyVaccineTitle, map[string]any{"Name": v.Name}, config.FallbackVaccineTitle, v.Name),
			Notes:    s.text(config.TKeyVaccineBody, map[string]any{"Date": date}, config.FallbackVaccineBody, date),
			DueAt:    dueAt,
			Category: reminder.CategoryVaccination,
		})
	}
	return out
}

// medicationReminders emits one reminder per (medication, time of day) for courses active today.
func (s *Synchronizer) medicationReminders(now time.Time, meds []Medication) []reminder.Reminder {
	today := now.Format(config.DateLayout)

	var out []reminder.Reminder
	for _, m := range meds {
		if !activeOn(today, m) {
			continue
		}
		for _, hhmm := range m.Times {
			at, ok := nextClockTime(now, hhmm)
			if !ok {
				continue
			}
			out = append(out, reminder.Reminder{
				SourceID: fmt.Sprintf(config.FormatMedSlot, m.ID, hhmm),
				Title:    s.text(config.TKeyMedicationTitle, map[string]any{"Name": m.Name}, config.FallbackMedicationTitle, m.Name),
				Notes: s.text(config.TKeyMedicationBody, map[string]any{"Dosage": m.Dosage, "Time": hhmm},
					config.FallbackMedicationBody, m.Dosage, hhmm),
				DueAt:    at,
				Category: reminder.CategoryMedication,
			})
		}
	}
	return out
}

// appointmentReminders emits the 24 h, 1 h and 30 min marks of each upcoming appointment
// that are still ahead of now.
func (s *Synchronizer) appointmentReminders(now time.Time, appts []Appointment) []reminder.Reminder {
	var out []reminder.Reminder
	for _, a := range appts {
		if a.DateTime.IsZero() || !a.DateTime.After(now) {
			continue
		}
		for _, lead := range appointmentLeads {
			at := a.DateTime.Add(-lead)
			if !at.After(now) {
				continue
			}
			label := leadLabel(lead)
			out = append(out, reminder.Reminder{
				SourceID: fmt.Sprintf(config.FormatApptSlot, a.ID, label),
				Title:    s.text(config.TKeyAppointmentTitle, map[string]any{"Title": a.Title}, config.FallbackAppointmentTitle, a.Title),
				Notes:    s.text(config.TKeyAppointmentBody, map[string]any{"Lead": label}, config.FallbackAppointmentBody, label),
				DueAt:    at,
				Category: reminder.CategoryAppointment,
			})
		}
	}
	return out
}

// nextClockTime returns today's occurrence of hhmm, or tomorrow's if it is not after now.
func nextClockTime(now time.Time, hhmm string) (time.Time, bool) {
	t, err := time.Parse(config.TimeOfDayLayout, hhmm)
	if err != nil {
		slog.Debug(config.MsgDroppedReminder,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyValue, hhmm,
			config.LogKeyError, err)
		return time.Time{}, false
	}
	y, m, d := now.Date()
	at := time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, true
}

// activeOn reports whether day falls inside the medication's inclusive date range.
// Dates compare lexically since both use the same fixed-width layout.
func activeOn(day string, m Medication) bool {
	if _, err := time.Parse(config.DateLayout, m.StartDate); err != nil {
		slog.Debug(config.MsgDroppedReminder,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyID, m.ID,
			config.LogKeyValue, m.StartDate)
		return false
	}
	if day < m.StartDate {
		return false
	}
	if m.EndDate == "" {
		return true
	}
	if _, err := time.Parse(config.DateLayout, m.EndDate); err != nil {
		return false
	}
	return day <= m.EndDate
}

func leadLabel(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf(config.FormatLeadHours, int(d/time.Hour))
	}
	return fmt.Sprintf(config.FormatLeadMins, int(d/time.Minute))
}
