package engine

import (
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
)

// Feeding is a logged feeding session.
type Feeding struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type,omitempty"` // breast, bottle, solid
	AmountMl    float64   `json:"amountMl,omitempty"`
	DurationMin int       `json:"durationMin,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// DiaperChange is a logged diaper change.
type DiaperChange struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type,omitempty"` // wet, dirty, both
	Notes     string    `json:"notes,omitempty"`
}

// IntervalSettings configures the feeding and diaper reminders.
type IntervalSettings struct {
	Enabled       bool    `json:"enabled"`
	IntervalHours float64 `json:"intervalHours"`
	Adaptive      bool    `json:"adaptive"`
}

// DefaultFeedingSettings returns the settings used before the user changes anything.
func DefaultFeedingSettings() IntervalSettings {
	return IntervalSettings{Enabled: true, IntervalHours: config.DefaultFeedingIntervalHours, Adaptive: true}
}

// DefaultDiaperSettings returns the settings used before the user changes anything.
func DefaultDiaperSettings() IntervalSettings {
	return IntervalSettings{Enabled: true, IntervalHours: config.DefaultDiaperIntervalHours, Adaptive: true}
}

// SleepSettings holds the daily nap and bedtime clock times ("HH:MM").
type SleepSettings struct {
	NapEnabled     bool   `json:"napEnabled"`
	NapTime        string `json:"napTime"`
	BedtimeEnabled bool   `json:"bedtimeEnabled"`
	Bedtime        string `json:"bedtime"`
}

func DefaultSleepSettings() SleepSettings {
	return SleepSettings{
		NapEnabled:     true,
		NapTime:        config.DefaultNapTime,
		BedtimeEnabled: true,
		Bedtime:        config.DefaultBedtime,
	}
}

// Vaccine is one entry of the immunization schedule.
type Vaccine struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Months int    `json:"months"`
}

// VaccineSchedule is the built-in immunization calendar, by age in months.
var VaccineSchedule = []Vaccine{
	{ID: "hepb-1", Name: "Hepatitis B (1st dose)", Months: 0},
	{ID: "hepb-2", Name: "Hepatitis B (2nd dose)", Months: 1},
	{ID: "rv-1", Name: "Rotavirus (1st dose)", Months: 2},
	{ID: "dtap-1", Name: "DTaP (1st dose)", Months: 2},
	{ID: "hib-1", Name: "Hib (1st dose)", Months: 2},
	{ID: "pcv-1", Name: "Pneumococcal (1st dose)", Months: 2},
	{ID: "ipv-1", Name: "Polio (1st dose)", Months: 2},
	{ID: "rv-2", Name: "Rotavirus (2nd dose)", Months: 4},
	{ID: "dtap-2", Name: "DTaP (2nd dose)", Months: 4},
	{ID: "hib-2", Name: "Hib (2nd dose)", Months: 4},
	{ID: "pcv-2", Name: "Pneumococcal (2nd dose)", Months: 4},
	{ID: "ipv-2", Name: "Polio (2nd dose)", Months: 4},
	{ID: "rv-3", Name: "Rotavirus (3rd dose)", Months: 6},
	{ID: "dtap-3", Name: "DTaP (3rd dose)", Months: 6},
	{ID: "pcv-3", Name: "Pneumococcal (3rd dose)", Months: 6},
	{ID: "hepb-3", Name: "Hepatitis B (3rd dose)", Months: 6},
	{ID: "flu-1", Name: "Influenza (1st dose)", Months: 6},
	{ID: "mmr-1", Name: "MMR (1st dose)", Months: 12},
	{ID: "var-1", Name: "Varicella (1st dose)", Months: 12},
	{ID: "hepa-1", Name: "Hepatitis A (1st dose)", Months: 12},
	{ID: "hib-3", Name: "Hib (booster)", Months: 12},
	{ID: "pcv-4", Name: "Pneumococcal (booster)", Months: 12},
	{ID: "dtap-4", Name: "DTaP (4th dose)", Months: 15},
	{ID: "hepa-2", Name: "Hepatitis A (2nd dose)", Months: 18},
}

// FindVaccine looks an entry of VaccineSchedule up by id.
func FindVaccine(id string) (Vaccine, bool) {
	for _, v := range VaccineSchedule {
		if v.ID == id {
			return v, true
		}
	}
	return Vaccine{}, false
}

// Vaccinations maps a vaccine id to the time it was given.
type Vaccinations map[string]time.Time

// Medication is a course of treatment given at fixed times of day.
// StartDate and EndDate are inclusive calendar days ("2006-01-02"); an empty EndDate is open-ended.
type Medication struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Dosage    string   `json:"dosage,omitempty"`
	Times     []string `json:"times"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate,omitempty"`
}

// Appointment is a scheduled visit.
type Appointment struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	DateTime time.Time `json:"dateTime"`
	Location string    `json:"location,omitempty"`
	Doctor   string    `json:"doctor,omitempty"`
}

// Profile identifies the baby the reminders are about.
type Profile struct {
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birthDate"`
}

// AgeInMonths returns the number of whole months elapsed since BirthDate.
func (p Profile) AgeInMonths(now time.Time) int {
	if p.BirthDate.IsZero() || now.Before(p.BirthDate) {
		return 0
	}
	months := (now.Year()-p.BirthDate.Year())*12 + int(now.Month()-p.BirthDate.Month())
	if now.Day() < p.BirthDate.Day() {
		months--
	}
	return months
}
