// Package glossary keeps fixed renderings for names and terms. Terms are
// swapped for placeholders before translation and for their target
// rendering afterwards.
package glossary

import (
	"fmt"
	"sort"
	"strings"
)

// Mapping stores a placeholder and the text it must become.
type Mapping struct {
	Source      string
	Target      string
	Placeholder string
}

// Protect replaces every glossary source term found in text with a
// {{g_N}} placeholder. Longer terms win over terms they contain.
func Protect(text string, terms map[string]string) (string, []Mapping) {
	if len(terms) == 0 || text == "" {
		return text, nil
	}

	var present []string
	for src := range terms {
		if src != "" && strings.Contains(text, src) {
			present = append(present, src)
		}
	}
	if len(present) == 0 {
		return text, nil
	}

	sort.Slice(present, func(i, j int) bool {
		if len(present[i]) != len(present[j]) {
			return len(present[i]) > len(present[j])
		}
		return present[i] < present[j]
	})

	mappings := make([]Mapping, 0, len(present))
	oldnew := make([]string, 0, 2*len(present))
	for i, src := range present {
		m := Mapping{
			Source:      src,
			Target:      terms[src],
			Placeholder: fmt.Sprintf("{{g_%d}}", i+1),
		}
		mappings = append(mappings, m)
		oldnew = append(oldnew, m.Source, m.Placeholder)
	}

	// strings.Replacer tries pairs in argument order at each position, so
	// sorting longest-first makes the longest term win.
	protected := strings.NewReplacer(oldnew...).Replace(text)

	// A shorter term can be fully shadowed by a longer one; drop mappings
	// whose placeholder never made it into the text.
	used := mappings[:0]
	for _, m := range mappings {
		if strings.Contains(protected, m.Placeholder) {
			used = append(used, m)
		}
	}
	return protected, used
}

// Restore replaces placeholders in translated text with the target terms.
func Restore(translated string, mappings []Mapping) string {
	if len(mappings) == 0 {
		return translated
	}
	oldnew := make([]string, 0, 2*len(mappings))
	for _, m := range mappings {
		oldnew = append(oldnew, m.Placeholder, m.Target)
	}
	return strings.NewReplacer(oldnew...).Replace(translated)
}
