// Package locale loads the embedded translations and renders reminder texts and UI labels.
package locale

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves message ids in the active language.
// Missing keys resolve to the key itself so callers can detect them and fall back.
type Translator struct {
	bundle    *i18n.Bundle
	languages []string

	mu        sync.RWMutex
	lang      string
	localizer *i18n.Localizer
}

// New loads every embedded locale file and activates lang.
func New(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		t.SetLanguage(lang)
		return t
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		t.languages = append(t.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	t.SetLanguage(lang)
	return t
}

// Languages lists the locales that loaded successfully.
func (t *Translator) Languages() []string {
	return t.languages
}

// Language returns the active language code.
func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// SetLanguage switches the active language. An empty code selects config.DefaultLanguage.
func (t *Translator) SetLanguage(lang string) {
	if lang == "" {
		lang = config.DefaultLanguage
	}
	t.mu.Lock()
	t.lang = lang
	t.localizer = i18n.NewLocalizer(t.bundle, lang)
	t.mu.Unlock()
}

// Msg translates a key without template data.
func (t *Translator) Msg(key string) string {
	return t.Format(key, nil)
}

// Format translates a key, filling its template from data.
// It matches the engine.Synchronizer Format hook.
func (t *Translator) Format(key string, data map[string]any) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// Plural translates a key with plural forms selected by count, exposed to the template as .Count.
func (t *Translator) Plural(key string, count int) string {
	return t.localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: map[string]any{"Count": count},
		PluralCount:  count,
	})
}

func (t *Translator) localize(lc *i18n.LocalizeConfig) string {
	if t == nil {
		return lc.MessageID
	}
	t.mu.RLock()
	loc := t.localizer
	t.mu.RUnlock()

	msg, err := loc.Localize(lc)
	if err != nil || msg == "" {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, lc.MessageID,
			config.LogKeyError, err,
		)
		return lc.MessageID
	}
	return msg
}
