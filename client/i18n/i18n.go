package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var localeFiles = []string{
	"locales/en-us.json",
	"locales/fr-fr.json",
}

var (
	mu        sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
)

// Init loads the embedded catalogs and selects lang, e.g. "fr-FR". Unknown
// languages fall back to English.
func Init(lang string) {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, file := range localeFiles {
		if _, err := b.LoadMessageFileFS(localeFS, file); err != nil {
			log.Warnf("failed to load locale file %s: %v", file, err)
		}
	}

	mu.Lock()
	bundle = b
	localizer = i18n.NewLocalizer(bundle, lang)
	mu.Unlock()
}

// SetLocale changes the current locale
func SetLocale(lang string) {
	mu.RLock()
	b := bundle
	mu.RUnlock()

	if b == nil {
		Init(lang)
		return
	}

	mu.Lock()
	localizer = i18n.NewLocalizer(b, lang)
	mu.Unlock()
}

// T translates a message by its ID with optional template data
func T(messageID string, templateData map[string]interface{}) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()

	if l == nil {
		Init(language.English.String())
		mu.RLock()
		l = localizer
		mu.RUnlock()
	}

	msg, err := l.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: templateData,
	})
	if err != nil {
		// Return message ID if translation fails
		return messageID
	}
	return msg
}
