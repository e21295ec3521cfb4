// internal/pkg/locale/catalog.go
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const DefaultLanguage = "en"

// SupportedLanguages in display order.
var SupportedLanguages = []string{"en", "es", "fr", "ar"}

var languageNames = map[string]string{
	"en": "English",
	"es": "Español",
	"fr": "Français",
	"ar": "العربية",
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.Arabic,
})

// Args are the named placeholders substituted into a message.
type Args map[string]any

// Catalog holds translated messages keyed by message key then language.
type Catalog struct {
	messages map[string]map[string]string
}

// NewCatalog builds a catalog from key -> language -> text.
func NewCatalog(messages map[string]map[string]string) *Catalog {
	return &Catalog{messages: messages}
}

var defaultCatalog = NewCatalog(builtinMessages)

// Default returns the built-in catalog.
func Default() *Catalog { return defaultCatalog }

// Translate looks up key in language, falling back to English and then to
// the key itself. Placeholders of the form {name} are replaced from args.
func (c *Catalog) Translate(lang, key string, args Args) string {
	text := key
	if entry, ok := c.messages[key]; ok {
		if v, ok := entry[lang]; ok {
			text = v
		} else if v, ok := entry[DefaultLanguage]; ok {
			text = v
		}
	}
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// IsSupportedLanguage reports whether code is one of SupportedLanguages.
func IsSupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// NormalizeLanguage returns code if supported, otherwise DefaultLanguage.
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if IsSupportedLanguage(code) {
		return code
	}
	return DefaultLanguage
}

// LanguageName returns the native display name for a language code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// MatchAcceptLanguage picks the best supported language for an
// Accept-Language header value; fallback is used when nothing matches.
func MatchAcceptLanguage(header, fallback string) string {
	if strings.TrimSpace(header) == "" {
		return NormalizeLanguage(fallback)
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return NormalizeLanguage(fallback)
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return NormalizeLanguage(fallback)
	}
	return SupportedLanguages[idx]
}
