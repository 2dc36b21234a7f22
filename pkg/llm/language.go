package llm

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Language selects the output language of generated content.
type Language string

const (
	LanguageEnglish   Language = "english"
	LanguageChinese   Language = "chinese"
	LanguageBilingual Language = "bilingual"
)

// Languages lists the supported languages.
func Languages() (langs []Language) {
	langs = []Language{LanguageEnglish, LanguageChinese, LanguageBilingual}
	return langs
}

// ParseLanguage accepts a language name in any case; empty means english.
func ParseLanguage(s string) (lang Language, err error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", LanguageEnglish:
		lang = LanguageEnglish
	case LanguageChinese:
		lang = LanguageChinese
	case LanguageBilingual:
		lang = LanguageBilingual
	default:
		err = errors.Errorf("unsupported language %q (supported: english, chinese, bilingual)", s)
	}
	return lang, err
}

// Tag returns the BCP 47 tag of the primary output language.
func (l Language) Tag() (tag language.Tag) {
	tag = language.English
	if l == LanguageChinese {
		tag = language.SimplifiedChinese
	}
	return tag
}

// Label returns a display name such as "Bilingual".
func (l Language) Label() (label string) {
	label = cases.Title(language.English).String(string(l))
	return label
}

// instructions returns the fixed language instruction handed to the model.
func (l Language) instructions() (text string) {
	switch l {
	case LanguageChinese:
		text = "Write every field of the résumé in Simplified Chinese (" + l.Tag().String() + "). Keep company names, product names and technology names in their original form."
	case LanguageBilingual:
		text = "Write the résumé bilingually: each text field gives the English version first, followed by the Simplified Chinese translation in parentheses. Bullets and achievements follow the same pattern."
	default:
		text = "Write every field of the résumé in English (" + l.Tag().String() + ")."
	}
	return text
}
