package reminder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/storage"
)

// Store persists the scheduled, synced and manual collections as JSON arrays.
// Reads never fail: unreadable data is logged by the storage layer and treated as empty.
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
}

// NewStore creates a store over the given backend.
func NewStore(b storage.Backend) *Store {
	return &Store{backend: b}
}

// -----------------------------------------------------------------------------
// Scheduled notifications
// -----------------------------------------------------------------------------

// Scheduled returns every pending notification.
func (s *Store) Scheduled() []Scheduled {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadScheduled()
}

// ScheduledByID looks up a pending notification.
func (s *Store) ScheduledByID(id string) (Scheduled, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.loadScheduled() {
		if r.ID == id {
			return r, true
		}
	}
	return Scheduled{}, false
}

// PutScheduled inserts or replaces the notification with the same id.
func (s *Store) PutScheduled(r Scheduled) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.loadScheduled()
	replaced := false
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, r)
	}
	return storage.SaveJSON(s.backend, config.KeyScheduledReminders, list)
}

// RemoveScheduled deletes the notification with the given id and reports whether it existed.
func (s *Store) RemoveScheduled(id string) (bool, error) {
	return s.removeScheduled(func(r Scheduled) bool { return r.ID == id })
}

// RemoveScheduledIf deletes the notification with the given id only while it is still
// due at dueAt. An entry moved to another time in the meantime is left in place.
func (s *Store) RemoveScheduledIf(id string, dueAt time.Time) (bool, error) {
	return s.removeScheduled(func(r Scheduled) bool { return r.ID == id && r.DueAt.Equal(dueAt) })
}

func (s *Store) removeScheduled(match func(Scheduled) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.loadScheduled()
	kept := list[:0]
	found := false
	for _, r := range list {
		if match(r) {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return false, nil
	}
	return true, storage.SaveJSON(s.backend, config.KeyScheduledReminders, kept)
}

func (s *Store) loadScheduled() []Scheduled {
	var list []Scheduled
	storage.LoadJSON(s.backend, config.KeyScheduledReminders, &list)
	return list
}

// -----------------------------------------------------------------------------
// Synced reminders
// -----------------------------------------------------------------------------

// Synced returns every synced reminder across all sources.
func (s *Store) Synced() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSynced()
}

// SyncedBySource returns the synced reminders owned by sourceType.
func (s *Store) SyncedBySource(sourceType string) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Reminder
	for _, r := range s.loadSynced() {
		if r.SourceType == sourceType {
			out = append(out, r)
		}
	}
	return out
}

// ReplaceSynced removes every entry of sourceType and inserts fresh in its place.
// Entries are normalized (id, flags, icon) and deduplicated by source id, the last one winning.
// CreatedAt of a slot that survives the replacement is preserved so an unchanged
// resync stores identical bytes. It returns the entries that were replaced.
func (s *Store) ReplaceSynced(sourceType string, fresh []Reminder) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.loadSynced()
	var kept, previous []Reminder
	created := make(map[string]Reminder)
	for _, r := range existing {
		if r.SourceType == sourceType {
			previous = append(previous, r)
			created[r.ID] = r
			continue
		}
		kept = append(kept, r)
	}

	index := make(map[string]int, len(fresh))
	var normalized []Reminder
	for _, r := range fresh {
		r.SourceType = sourceType
		r.ID = SyncedID(sourceType, r.SourceID)
		r.IsSynced = true
		r.Completed = false
		if r.Icon == "" {
			r.Icon = IconFor(r.Category)
		}
		if prev, ok := created[r.ID]; ok && !prev.CreatedAt.IsZero() {
			r.CreatedAt = prev.CreatedAt
		}

		if i, dup := index[r.ID]; dup {
			normalized[i] = r
			continue
		}
		index[r.ID] = len(normalized)
		normalized = append(normalized, r)
	}

	if len(previous) == 0 && len(normalized) == 0 {
		return nil, nil
	}

	if err := storage.SaveJSON(s.backend, config.KeySyncedReminders, append(kept, normalized...)); err != nil {
		return nil, err
	}

	slog.Debug(config.MsgSyncDone,
		config.LogKeyComponent, config.CompStore,
		config.LogKeySource, sourceType,
		config.LogKeyOld, len(previous),
		config.LogKeyNew, len(normalized))
	return previous, nil
}

func (s *Store) loadSynced() []Reminder {
	var list []Reminder
	storage.LoadJSON(s.backend, config.KeySyncedReminders, &list)
	return list
}

// -----------------------------------------------------------------------------
// Manual reminders
// -----------------------------------------------------------------------------

// Manual returns the user-owned reminders.
func (s *Store) Manual() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadManual()
}

// UpdateManual runs fn over the manual list under the store lock and persists the result.
// Nothing is written when fn returns an error.
func (s *Store) UpdateManual(fn func([]Reminder) ([]Reminder, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := fn(s.loadManual())
	if err != nil {
		return err
	}
	return storage.SaveJSON(s.backend, config.KeyManualReminders, list)
}

func (s *Store) loadManual() []Reminder {
	var list []Reminder
	storage.LoadJSON(s.backend, config.KeyManualReminders, &list)
	return list
}
