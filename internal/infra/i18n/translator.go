// Package i18n localizes the short user-facing messages (toasts).
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

// Translator maps canonical English messages to one locale.
type Translator struct {
	locale       string
	translations map[string]string
}

// NewTranslator loads locales/<locale>.yaml from fsys.
func NewTranslator(fsys fs.FS, locale string) (*Translator, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	filePath := path.Join("locales", locale+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.locale = locale
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) Locale() string { return t.locale }

// T returns the localized form of msg. A message of the form "<known>: detail"
// gets its prefix translated and keeps the detail (provider text is passed
// through as-is). Unknown messages are returned unchanged.
func (t *Translator) T(msg string) string {
	if t == nil {
		return msg
	}
	if v, ok := t.translations[msg]; ok {
		return v
	}
	if head, detail, ok := strings.Cut(msg, ": "); ok {
		if v, ok := t.translations[head]; ok {
			return v + ": " + detail
		}
	}
	return msg
}
