package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	_ "modernc.org/sqlite"
)

// SQLiteBackend stores values in a single key-value table.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the kv table exists.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrStorageOpen, err)
		}
	}

	db, err := sql.Open(config.SQLiteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStorageOpen, err)
	}

	if _, err := db.Exec(config.SQLitePragma); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrStorageOpen, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrStorageOpen, err)
	}

	slog.Debug(config.MsgStorageOpened,
		config.LogKeyComponent, config.CompStorage,
		config.LogKeyBackend, config.BackendSQLite,
		config.LogKeyPath, path)

	return &SQLiteBackend{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLiteBackend) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *SQLiteBackend) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}
