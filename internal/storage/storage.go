// Package storage provides the durable key-value layer every collection is persisted in.
// Values are JSON documents stored under fixed keys, mirroring browser localStorage.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
)

// Backend is a string key-value store. Get returns "" for absent keys.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// PreferencesBackend stores values in fyne application preferences.
type PreferencesBackend struct {
	Prefs fyne.Preferences
}

// NewPreferencesBackend wraps the given preferences.
func NewPreferencesBackend(prefs fyne.Preferences) *PreferencesBackend {
	return &PreferencesBackend{Prefs: prefs}
}

func (p *PreferencesBackend) Get(key string) (string, error) {
	return p.Prefs.String(key), nil
}

func (p *PreferencesBackend) Set(key, value string) error {
	p.Prefs.SetString(key, value)
	return nil
}

func (p *PreferencesBackend) Remove(key string) error {
	p.Prefs.RemoveValue(key)
	return nil
}

// LoadJSON decodes the value under key into v.
// Read failures and corrupt JSON are logged and reported as false, leaving v untouched,
// so callers treat the collection as empty rather than failing.
func LoadJSON(b Backend, key string, v any) bool {
	raw, err := b.Get(key)
	if err != nil {
		slog.Warn(config.ErrStorageRead,
			config.LogKeyComponent, config.CompStorage,
			config.LogKeyKey, key,
			config.LogKeyError, err)
		return false
	}
	if strings.TrimSpace(raw) == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.Warn(config.ErrStorageDecode,
			config.LogKeyComponent, config.CompStorage,
			config.LogKeyKey, key,
			config.LogKeyError, err)
		return false
	}
	return true
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(b Backend, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s %q: %w", config.ErrStorageEncode, key, err)
	}
	if err := b.Set(key, string(data)); err != nil {
		slog.Error(config.ErrStorageWrite,
			config.LogKeyComponent, config.CompStorage,
			config.LogKeyKey, key,
			config.LogKeyError, err)
		return fmt.Errorf("%s %q: %w", config.ErrStorageWrite, key, err)
	}
	return nil
}

// nopCloser is returned for backends that own no resources.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the backend selected in settings. prefs is only used by BackendPreferences
// and may be nil otherwise. The returned closer releases the backend's resources.
func Open(s config.StorageSettings, prefs fyne.Preferences) (Backend, io.Closer, error) {
	switch s.Backend {
	case config.BackendSQLite:
		db, err := OpenSQLite(s.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.BackendPreferences:
		if prefs == nil {
			return nil, nil, fmt.Errorf("%s: preferences backend requires the tray app", config.ErrStorageOpen)
		}
		return NewPreferencesBackend(prefs), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%s: %q", config.ErrBackendUnknown, s.Backend)
	}
}
