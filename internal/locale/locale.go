// Package locale provides translated player-facing strings backed by embedded
// go-i18n message files.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when no language, or an unsupported one, is requested.
const DefaultLanguage = "en"

// Message keys.
const (
	KeyExhaustedReason      = "ExhaustedReason"
	KeyGameOverTitle        = "GameOverTitle"
	KeySurvivedTitle        = "SurvivedTitle"
	KeyDayLabel             = "DayLabel"
	KeyClockLabel           = "ClockLabel"
	KeyStatHunger           = "StatHunger"
	KeyStatSleep            = "StatSleep"
	KeyStatHappiness        = "StatHappiness"
	KeyStatWillpower        = "StatWillpower"
	KeyStatMoney            = "StatMoney"
	KeyStatEmploymentChance = "StatEmploymentChance"
	KeyActionDone           = "ActionDone"
	KeySpeedLabel           = "SpeedLabel"
	KeyPausedLabel          = "PausedLabel"
)

// Keys lists every message key the application uses.
var Keys = []string{
	KeyExhaustedReason,
	KeyGameOverTitle,
	KeySurvivedTitle,
	KeyDayLabel,
	KeyClockLabel,
	KeyStatHunger,
	KeyStatSleep,
	KeyStatHappiness,
	KeyStatWillpower,
	KeyStatMoney,
	KeyStatEmploymentChance,
	KeyActionDone,
	KeySpeedLabel,
	KeyPausedLabel,
}

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves message keys for one language.
type Translator struct {
	lang      string
	languages []string
	localizer *i18n.Localizer
}

// New loads the embedded message files and returns a Translator for lang.
// Unknown languages fall back to English.
func New(lang string) (*Translator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading embedded locales: %w", err)
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug("skipping locale file", "file", name)
			continue
		}
		code := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if code == "" {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			return nil, fmt.Errorf("loading locale %s: %w", name, err)
		}
		langs = append(langs, code)
	}
	sort.Strings(langs)

	if lang == "" {
		lang = DefaultLanguage
	}
	resolved := DefaultLanguage
	for _, l := range langs {
		if l == lang {
			resolved = lang
			break
		}
	}
	if resolved != lang {
		slog.Warn("unsupported locale, falling back", "requested", lang, "using", resolved)
	}

	return &Translator{
		lang:      resolved,
		languages: langs,
		localizer: i18n.NewLocalizer(bundle, resolved, DefaultLanguage),
	}, nil
}

// Language returns the resolved language code.
func (t *Translator) Language() string { return t.lang }

// Languages returns the available language codes, sorted.
func (t *Translator) Languages() []string {
	out := make([]string, len(t.languages))
	copy(out, t.languages)
	return out
}

// T translates key. A missing key returns the key itself.
func (t *Translator) T(key string) string {
	return t.Tf(key, nil)
}

// Tf translates key with template data.
func (t *Translator) Tf(key string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return key
	}
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug("missing translation", "key", key, "lang", t.lang, "error", err)
		return key
	}
	return msg
}

// ExhaustedReason returns the terminal game-over message.
func (t *Translator) ExhaustedReason() string {
	return t.T(KeyExhaustedReason)
}
