package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/gatekeeper/pkg/gm"
)

// The gatekeeper never writes user-facing prose, but injection content does
// surface in character responses. When the host runs at a rating below R,
// injection text is softened before delivery.

var strongLanguage = []string{
	"fuck", "shit", "damn", "hell", "ass", "bitch", "bastard", "crap",
	"piss", "motherfucker", "goddamn", "asshole", "dumbass", "jackass",
	"bullshit", "horseshit", "dipshit", "shithead", "dickhead", "prick",
}

var replacements = map[string]string{
	"fuck":         "fudge",
	"shit":         "shoot",
	"damn":         "dang",
	"hell":         "heck",
	"ass":          "butt",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"motherfucker": "mother-trucker",
	"goddamn":      "gosh-dang",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
}

// InjectionFilter softens strong language in injection content.
type InjectionFilter struct {
	regexes map[string]*regexp.Regexp
}

func NewInjectionFilter() *InjectionFilter {
	f := &InjectionFilter{
		regexes: make(map[string]*regexp.Regexp, len(strongLanguage)),
	}
	for _, word := range strongLanguage {
		f.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return f
}

// Apply softens content when the rating calls for it; at rating R the text
// passes through untouched.
func (f *InjectionFilter) Apply(content, rating string) string {
	if !ShouldFilter(rating) {
		return content
	}
	result := content
	for _, word := range strongLanguage {
		replacement, ok := replacements[word]
		if !ok {
			continue
		}
		result = f.regexes[word].ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// ShouldFilter reports whether a rating requires softening.
func ShouldFilter(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case gm.RatingG, gm.RatingPG, gm.RatingPG13, "PG13":
		return true
	default:
		return false
	}
}

// preserveCase applies the case pattern of the matched word to its
// replacement.
func preserveCase(original, replacement string) string {
	if original == "" {
		return replacement
	}
	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case: carry the pattern over character by character.
	originalRunes := []rune(original)
	out := make([]rune, 0, len(replacement))
	for i, r := range replacement {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			out = append(out, unicode.ToUpper(r))
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
