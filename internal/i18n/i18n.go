// Package i18n turns error kinds and advisories into user-facing text.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/cyp0633/recurdate/calerr"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is used when the requested language is unknown.
const DefaultLanguage = "en"

// Translator looks up messages for one language.
type Translator struct {
	localizer *i18n.Localizer
	lang      string
	logger    *slog.Logger
}

var (
	bundle    *i18n.Bundle
	languages []string
)

func init() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			panic(err)
		}
		languages = append(languages, strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json"))
	}
	sort.Strings(languages)
}

// Languages returns the codes of the embedded locales.
func Languages() []string {
	return append([]string(nil), languages...)
}

// New returns a Translator for lang, falling back to English for unknown or
// malformed tags. A nil logger discards output.
func New(lang string, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tag, err := language.Parse(lang)
	if err != nil {
		logger.Debug("unknown language, using default",
			"lang", lang,
			"error", err)
		tag = language.English
	}
	return &Translator{
		localizer: i18n.NewLocalizer(bundle, tag.String(), DefaultLanguage),
		lang:      tag.String(),
		logger:    logger,
	}
}

// Lang returns the tag the Translator was built for.
func (t *Translator) Lang() string {
	return t.lang
}

// Translate returns the message for id, or id itself when no locale has it.
func (t *Translator) Translate(id string) string {
	return t.TranslateWith(id, nil)
}

// TranslateWith is Translate with template data.
func (t *Translator) TranslateWith(id string, data map[string]any) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		t.logger.Debug("translation missing",
			"lang", t.lang,
			"key", id,
			"error", err)
		return id
	}
	return msg
}

// Error renders err. Errors carrying a calerr kind are looked up by
// kind and field, then by kind alone; anything else falls back to err.Error().
func (t *Translator) Error(err error) string {
	if err == nil {
		return ""
	}
	var e *calerr.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if msg := t.Translate(e.MessageID()); msg != e.MessageID() {
		return msg
	}
	if msg := t.Translate(string(e.Kind)); msg != string(e.Kind) {
		return msg
	}
	return e.Message
}
