package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockBackend simulates a failing storage layer using `testify/mock`.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Set(key, value string) error {
	return m.Called(key, value).Error(0)
}

func (m *MockBackend) Remove(key string) error {
	return m.Called(key).Error(0)
}

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// backends returns one instance of every real backend for table-driven tests.
func backends(t *testing.T) map[string]storage.Backend {
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]storage.Backend{
		config.BackendSQLite:      db,
		config.BackendPreferences: storage.NewPreferencesBackend(test.NewApp().Preferences()),
	}
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestBackends_RoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := b.Get("absent")
			require.NoError(t, err)
			assert.Empty(t, v, "Absent keys read as empty string")

			require.NoError(t, b.Set("k", "one"))
			require.NoError(t, b.Set("k", "two"))
			v, err = b.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "two", v, "Set overwrites")

			require.NoError(t, b.Remove("k"))
			v, err = b.Get("k")
			require.NoError(t, err)
			assert.Empty(t, v)
		})
	}
}

func TestJSON_SaveLoad(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			in := []sample{{Name: "a", Count: 1}, {Name: "b", Count: 2}}
			require.NoError(t, storage.SaveJSON(b, "samples", in))

			var out []sample
			assert.True(t, storage.LoadJSON(b, "samples", &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestLoadJSON_CorruptIsEmpty(t *testing.T) {
	b := storage.NewPreferencesBackend(test.NewApp().Preferences())
	require.NoError(t, b.Set("samples", "{not json"))

	var out []sample
	assert.False(t, storage.LoadJSON(b, "samples", &out))
	assert.Empty(t, out, "Corrupt data should degrade to an empty collection")
}

func TestLoadJSON_ReadErrorIsEmpty(t *testing.T) {
	b := new(MockBackend)
	b.On("Get", "samples").Return("", errors.New("disk on fire"))

	var out []sample
	assert.False(t, storage.LoadJSON(b, "samples", &out))
	assert.Empty(t, out)
	b.AssertExpectations(t)
}

func TestSaveJSON_WriteErrorPropagates(t *testing.T) {
	b := new(MockBackend)
	b.On("Set", "samples", mock.Anything).Return(errors.New("quota exceeded"))

	err := storage.SaveJSON(b, "samples", []sample{{Name: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrStorageWrite)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestOpen_Selection(t *testing.T) {
	b, closer, err := storage.Open(config.StorageSettings{
		Backend: config.BackendSQLite,
		Path:    filepath.Join(t.TempDir(), "nested", "bloom.db"),
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteBackend{}, b)
	assert.NoError(t, closer.Close())

	_, _, err = storage.Open(config.StorageSettings{Backend: config.BackendPreferences}, nil)
	assert.Error(t, err, "Preferences backend needs a fyne app")

	b, _, err = storage.Open(config.StorageSettings{Backend: config.BackendPreferences}, test.NewApp().Preferences())
	require.NoError(t, err)
	assert.IsType(t, &storage.PreferencesBackend{}, b)

	_, _, err = storage.Open(config.StorageSettings{Backend: "redis"}, nil)
	assert.ErrorContains(t, err, config.ErrBackendUnknown)
}
