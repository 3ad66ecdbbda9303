// Package segment splits source text into ordered units and marks the ones
// that should not be sent for translation.
package segment

import (
	"strings"
	"unicode/utf8"
)

// Kind classifies a unit.
type Kind int

const (
	// Content units are translated.
	Content Kind = iota
	// Skip units are blank lines or boilerplate; they render as gaps.
	Skip
)

func (k Kind) String() string {
	if k == Skip {
		return "skip"
	}
	return "content"
}

// Unit is one line or paragraph of source text.
type Unit struct {
	// Position is the index in the original sequence.
	Position int
	// Raw is the line exactly as received.
	Raw string
	// Text is the trimmed line. It is what gets translated and displayed
	// as the original.
	Text string
	Kind Kind
}

// Segmenter classifies lines against a blacklist and a minimum length.
type Segmenter struct {
	blacklist []string
	minLength int
}

// New creates a Segmenter. minLength is counted in runes and only applies to
// extracted nodes (see SegmentNodes).
func New(blacklist []string, minLength int) *Segmenter {
	terms := make([]string, 0, len(blacklist))
	for _, b := range blacklist {
		if b != "" {
			terms = append(terms, b)
		}
	}
	return &Segmenter{blacklist: terms, minLength: minLength}
}

// Segment splits pasted text on line boundaries. Empty or whitespace-only
// input yields no units.
func (s *Segmenter) Segment(raw string) []Unit {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return s.classify(strings.Split(raw, "\n"), 0)
}

// SegmentNodes classifies text nodes extracted from an HTML page. Nodes
// shorter than the minimum length are skipped.
func (s *Segmenter) SegmentNodes(nodes []string) []Unit {
	blank := true
	for _, n := range nodes {
		if strings.TrimSpace(n) != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil
	}
	return s.classify(nodes, s.minLength)
}

func (s *Segmenter) classify(lines []string, minLength int) []Unit {
	units := make([]Unit, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		kind := Content
		if s.skip(trimmed, minLength) {
			kind = Skip
		}
		units[i] = Unit{Position: i, Raw: line, Text: trimmed, Kind: kind}
	}
	return units
}

func (s *Segmenter) skip(trimmed string, minLength int) bool {
	if trimmed == "" {
		return true
	}
	for _, term := range s.blacklist {
		if strings.Contains(trimmed, term) {
			return true
		}
	}
	return minLength > 0 && utf8.RuneCountInString(trimmed) < minLength
}

// Reconstruct joins the raw text of every unit, giving back the pasted input.
func Reconstruct(units []Unit) string {
	lines := make([]string, len(units))
	for i, u := range units {
		lines[i] = u.Raw
	}
	return strings.Join(lines, "\n")
}

// ContentCount returns the number of units that need translation.
func ContentCount(units []Unit) int {
	n := 0
	for _, u := range units {
		if u.Kind == Content {
			n++
		}
	}
	return n
}
