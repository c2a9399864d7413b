package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
)

// Category classifies a reminder and selects its default icon.
type Category string

const (
	CategoryFeeding     Category = "feeding"
	CategorySleep       Category = "sleep"
	CategoryDiaper      Category = "diaper"
	CategoryHealth      Category = "health"
	CategoryMedication  Category = "medication"
	CategoryAppointment Category = "appointment"
	CategoryVaccination Category = "vaccination"
	CategoryGeneral     Category = "general"
)

// Sentinel errors returned by the store, the board and the scheduler.
var (
	ErrNotFound      = errors.New(config.ErrReminderNotFound)
	ErrReadOnly      = errors.New(config.ErrReminderReadOnly)
	ErrDueInPast     = errors.New(config.ErrDueInPast)
	ErrMissingFields = errors.New(config.ErrMissingFields)
)

// Reminder is a manual or synced entry shown on the reminders page.
type Reminder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"dueAt"`
	Category  Category  `json:"category"`
	Icon      string    `json:"icon,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`

	// SourceType and SourceID identify the feature slot owning a synced reminder.
	SourceType string `json:"sourceType,omitempty"`
	SourceID   string `json:"sourceId,omitempty"`
	IsSynced   bool   `json:"isSynced"`

	CreatedAt time.Time `json:"createdAt"`
}

// Scheduled is an entry of the scheduled-notification collection.
type Scheduled struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	DueAt              time.Time `json:"dueAt"`
	Body               string    `json:"body,omitempty"`
	Icon               string    `json:"icon,omitempty"`
	Category           Category  `json:"category"`
	ScheduledAt        time.Time `json:"scheduledAt"`
	RequireInteraction bool      `json:"requireInteraction,omitempty"`
}

// SyncedID builds the id of the synced reminder owning (sourceType, sourceID).
func SyncedID(sourceType, sourceID string) string {
	return fmt.Sprintf(config.FormatSyncedID, sourceType, sourceID)
}

// Scheduled converts the reminder into a notification request. Notes become the body.
func (r Reminder) Scheduled() Scheduled {
	return Scheduled{
		ID:       r.ID,
		Title:    r.Title,
		DueAt:    r.DueAt,
		Body:     r.Notes,
		Icon:     r.DisplayIcon(),
		Category: r.Category,
	}
}

// DisplayIcon returns the explicit icon or the category default.
func (r Reminder) DisplayIcon() string {
	if r.Icon != "" {
		return r.Icon
	}
	return IconFor(r.Category)
}

// IsDue reports whether the reminder should be rendered as "Due now".
func (r Reminder) IsDue(now time.Time) bool {
	return !r.DueAt.After(now)
}
