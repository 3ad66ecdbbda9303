package pipeline

import (
	"strings"

	"novel-translator/internal/segment"
	"novel-translator/internal/textutil"
)

// Pair is one line of the reading view.
type Pair struct {
	Original   string
	Translated string
	// Gap marks a skipped unit; it renders as an empty line and has no text.
	Gap bool
	// Fallback marks a unit whose translation failed; Translated holds
	// the original text.
	Fallback bool
}

// merge walks units in order and takes translations from results, which
// holds one entry per content unit in the same order.
func merge(units []segment.Unit, results []outcome) []Pair {
	pairs := make([]Pair, len(units))
	next := 0
	for i, u := range units {
		if u.Kind == segment.Skip {
			pairs[i] = Pair{Gap: true}
			continue
		}

		pair := Pair{Original: u.Text, Translated: u.Text, Fallback: true}
		if next < len(results) && results[next].err == nil {
			pair.Translated = results[next].text
			pair.Fallback = false
		}
		next++
		pairs[i] = pair
	}
	return pairs
}

// PlainText renders the translation as a text document: one line per
// translated unit, an empty line per gap.
func PlainText(pairs []Pair) string {
	var sb strings.Builder
	for _, p := range pairs {
		if !p.Gap {
			sb.WriteString(p.Translated)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Title derives a file-name-safe title from the first translated pair.
// It returns "" when there is nothing usable.
func Title(pairs []Pair, maxRunes int) string {
	for _, p := range pairs {
		if p.Gap {
			continue
		}
		return textutil.FilenameTitle(p.Translated, maxRunes)
	}
	return ""
}
