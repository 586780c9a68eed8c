package language

import (
	"unicode"
)

// DefaultLanguage is assumed when no script matches (empty or code-only
// input) or every score is zero.
const DefaultLanguage = "en"

// ReliabilityThreshold is the confidence below which a detection is only a
// hint. Callers must not treat an unreliable detection as an error; it just
// suggests hedging (e.g. skipping translation).
const ReliabilityThreshold = 0.4

// Detection is the result of classifying one input text.
type Detection struct {
	MainLanguage string
	Confidence   float64
	Scores       map[string]float64
	IsReliable   bool
}

// Detector classifies the dominant language of a text. The contract is
// deliberately small so a statistical model can replace the script matcher
// without touching callers.
type Detector interface {
	Detect(text string) Detection
}

// ScriptDetector counts characters per language script and picks the
// plurality language. Not ML-based; a deliberate latency/dependency
// trade-off for a front end that only needs a routing hint.
type ScriptDetector struct{}

// NewScriptDetector returns the pattern-matching detector.
func NewScriptDetector() *ScriptDetector {
	return &ScriptDetector{}
}

var scriptTables = []struct {
	lang   string
	ranges []*unicode.RangeTable
}{
	{"ar", []*unicode.RangeTable{unicode.Arabic}},
	{"he", []*unicode.RangeTable{unicode.Hebrew}},
	{"ru", []*unicode.RangeTable{unicode.Cyrillic}},
	{"zh", []*unicode.RangeTable{unicode.Han}},
	{"ja", []*unicode.RangeTable{unicode.Hiragana, unicode.Katakana}},
	{"ko", []*unicode.RangeTable{unicode.Hangul}},
	{"th", []*unicode.RangeTable{unicode.Thai}},
	{"en", []*unicode.RangeTable{unicode.Latin}},
}

// SupportedLanguages lists every language code Detect can return.
func SupportedLanguages() []string {
	langs := make([]string, 0, len(scriptTables))
	for _, s := range scriptTables {
		langs = append(langs, s.lang)
	}
	return langs
}

// Detect counts, for each supported language, the share of letters matching
// that language's script and picks the highest. Mixed-script input yields
// the plurality language with low confidence.
func (d *ScriptDetector) Detect(text string) Detection {
	scores := make(map[string]float64, len(scriptTables))
	for _, s := range scriptTables {
		scores[s.lang] = 0
	}

	total := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		for _, s := range scriptTables {
			if unicode.IsOneOf(s.ranges, r) {
				scores[s.lang]++
				break
			}
		}
	}

	if total == 0 {
		return Detection{
			MainLanguage: DefaultLanguage,
			Confidence:   0,
			Scores:       scores,
			IsReliable:   false,
		}
	}

	best := DefaultLanguage
	bestScore := 0.0
	for k := range scores {
		scores[k] /= float64(total)
	}
	// Iterate the table, not the map, so ties resolve deterministically.
	for _, s := range scriptTables {
		if scores[s.lang] > bestScore {
			best = s.lang
			bestScore = scores[s.lang]
		}
	}

	if bestScore == 0 {
		best = DefaultLanguage
	}

	return Detection{
		MainLanguage: best,
		Confidence:   bestScore,
		Scores:       scores,
		IsReliable:   bestScore > ReliabilityThreshold,
	}
}
