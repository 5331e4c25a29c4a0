package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code    string   // ISO 639-1
	tag     string   // BCP-47 tag sent to speech backends
	display string   // English name
	native  string   // Name in the language itself
	voice   string   // Prebuilt synthesis voice
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "en-US", "English", "English", "Zephyr", []string{"english"}},
	{"es", "es-US", "Spanish", "Español", "Puck", []string{"spanish", "español", "espanol"}},
	{"fr", "fr-FR", "French", "Français", "Charon", []string{"french", "français", "francais"}},
	{"de", "de-DE", "German", "Deutsch", "Fenrir", []string{"german", "deutsch"}},
	{"hi", "hi-IN", "Hindi", "हिन्दी", "Kore", []string{"hindi"}},
}

// DefaultVoice is used when a language has no mapped voice.
const DefaultVoice = "Zephyr"

var (
	byCode map[string]*entry
	byWord map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	// Region or script subtags ("es-MX", "hin") reduce to their base language.
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return nil
	}
	base, _ := tag.Base()
	if e, ok := byCode[base.String()]; ok {
		return e
	}
	return nil
}

// Normalize returns the two-letter code for a supported language, or an empty
// string when the input is not one of them.
func Normalize(code string) string {
	if e := lookup(code); e != nil {
		return e.code
	}
	return ""
}

// Supported reports whether code names a supported language.
func Supported(code string) bool {
	return lookup(code) != nil
}

// Codes lists the supported two-letter codes in display order.
func Codes() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code)
	}
	return out
}

// DisplayName returns the English name for a code. Unknown input is returned
// upper-cased; empty input yields "Unknown".
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NativeName returns the language's own name, falling back to DisplayName.
func NativeName(code string) string {
	if e := lookup(code); e != nil {
		return e.native
	}
	return DisplayName(code)
}

// Voice returns the prebuilt synthesis voice for a language.
func Voice(code string) string {
	if e := lookup(code); e != nil && e.voice != "" {
		return e.voice
	}
	return DefaultVoice
}

// Tag returns the BCP-47 tag used for speech requests.
func Tag(code string) string {
	if e := lookup(code); e != nil {
		return e.tag
	}
	return "en-US"
}
