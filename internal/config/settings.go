package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Settings holds the runtime configuration of the daemon, the tray app and the CLI.
type Settings struct {
	Language  string            `koanf:"language"`
	Storage   StorageSettings   `koanf:"storage"`
	Scheduler SchedulerSettings `koanf:"scheduler"`
	Server    ServerSettings    `koanf:"server"`
	Telegram  TelegramSettings  `koanf:"telegram"`
}

type StorageSettings struct {
	Backend string `koanf:"backend"` // BackendSQLite or BackendPreferences (tray only)
	Path    string `koanf:"path"`
}

type SchedulerSettings struct {
	CheckInterval time.Duration `koanf:"check_interval"`
	CatchUpWindow time.Duration `koanf:"catch_up_window"`
	AutoDismiss   time.Duration `koanf:"auto_dismiss"`
}

type ServerSettings struct {
	Enabled      bool   `koanf:"enabled"`
	Port         string `koanf:"port"`
	AlarmTrigger string `koanf:"alarm_trigger"` // ISO8601 duration, empty disables VALARM
}

// TelegramSettings configures the optional Telegram notification sink.
// When BotToken is empty the token is looked up in the OS keyring under ChatID.
type TelegramSettings struct {
	Enabled  bool   `koanf:"enabled"`
	ChatID   string `koanf:"chat_id"`
	BotToken string `koanf:"bot_token"`
	BaseURL  string `koanf:"base_url"`
}

// DefaultSettings returns the baseline configuration map.
func DefaultSettings() map[string]interface{} {
	return map[string]interface{}{
		"language": DefaultLanguage,
		"storage": map[string]interface{}{
			"backend": BackendSQLite,
			"path":    DefaultDBPath,
		},
		"scheduler": map[string]interface{}{
			"check_interval":  DefaultCheckInterval.String(),
			"catch_up_window": DefaultCatchUpWindow.String(),
			"auto_dismiss":    NotificationAutoDismiss.String(),
		},
		"server": map[string]interface{}{
			"enabled":       true,
			"port":          DefaultPort,
			"alarm_trigger": DefaultAlarmTrigger,
		},
		"telegram": map[string]interface{}{
			"enabled":   false,
			"chat_id":   "",
			"bot_token": "",
			"base_url":  TelegramAPIBase,
		},
	}
}

// LoadSettings merges defaults, the optional YAML file at path and BLOOM_* environment variables.
// A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(DefaultSettings(), "."), nil); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigDefaults, err)
	}

	if path != "" {
		path = ExpandPath(path)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrConfigFile, err)
			}
		}
	}

	// BLOOM_SCHEDULER_CHECK_INTERVAL -> scheduler.check_interval
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		section, rest, found := strings.Cut(key, "_")
		if !found {
			return key
		}
		return section + "." + rest
	}), nil); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigEnv, err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigUnmarshal, err)
	}

	s.Storage.Path = ExpandPath(s.Storage.Path)
	return &s, nil
}

// Validate checks the settings for values the scheduler and server cannot work with.
func (s *Settings) Validate() error {
	switch s.Storage.Backend {
	case BackendSQLite:
		if s.Storage.Path == "" {
			return fmt.Errorf("%s: storage.path is required for sqlite", ErrConfigInvalid)
		}
	case BackendPreferences:
	default:
		return fmt.Errorf("%s: %q", ErrBackendUnknown, s.Storage.Backend)
	}

	if s.Scheduler.CheckInterval <= 0 {
		return fmt.Errorf("%s: scheduler.check_interval must be positive", ErrConfigInvalid)
	}
	if s.Scheduler.CatchUpWindow < s.Scheduler.CheckInterval {
		return fmt.Errorf("%s: scheduler.catch_up_window must be at least one check interval", ErrConfigInvalid)
	}

	if s.Server.Enabled && s.Server.Port == "" {
		return fmt.Errorf("%s: %s", ErrConfigInvalid, ErrPortRequired)
	}

	if s.Telegram.Enabled && s.Telegram.ChatID == "" {
		return fmt.Errorf("%s: %s", ErrConfigInvalid, ErrTelegramConfig)
	}
	return nil
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
