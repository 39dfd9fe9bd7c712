// Package textfold normalizes free-text business labels so they can be compared
// without regard to case, diacritics, or spacing.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s trimmed, upper-cased, stripped of combining marks and with
// runs of inner whitespace collapsed to a single space.
// "  Refeição  " and "REFEICAO" fold to the same value.
func Fold(s string) string {
	if s == "" {
		return ""
	}

	// transform.Chain keeps internal state, so build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	return strings.Join(strings.Fields(strings.ToUpper(stripped)), " ")
}

// Set is a lookup table of folded labels.
type Set map[string]struct{}

// NewSet folds every label and returns the resulting set. Empty labels are skipped.
func NewSet(labels ...string) Set {
	s := make(Set, len(labels))
	for _, l := range labels {
		if f := Fold(l); f != "" {
			s[f] = struct{}{}
		}
	}
	return s
}

// Has reports whether the already-folded label is a member of the set.
func (s Set) Has(folded string) bool {
	_, ok := s[folded]
	return ok
}

// ContainsAll reports whether folded contains every term. Terms are folded first.
func ContainsAll(folded string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(folded, Fold(term)) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether folded contains at least one of terms.
// An empty terms list matches nothing.
func ContainsAny(folded string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(folded, Fold(term)) {
			return true
		}
	}
	return false
}
