package timeline

import (
	"fmt"
	"time"

	"github.com/chrissnell/shiftline/pkg/textfold"
)

const maxEventSpan = 24 * time.Hour

// Normalize corrects an end time that was stored as a time of day on the same
// date as the start and therefore lands before it: the end is moved forward by
// exactly one calendar day.
//
// If the corrected span is still longer than 24h the original pair is returned
// together with ErrCrossesMultipleDays; the caller decides whether to drop the
// row or keep it. The span is never truncated.
func Normalize(start, end time.Time) (time.Time, time.Time, error) {
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	if end.Sub(start) > maxEventSpan {
		return start, end, fmt.Errorf("%w: %s to %s", ErrCrossesMultipleDays,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

// MultiDayPolicy says what happens to a row rejected with ErrCrossesMultipleDays.
type MultiDayPolicy string

const (
	MultiDayDrop        MultiDayPolicy = "drop"
	MultiDayPassThrough MultiDayPolicy = "pass-through"
)

// ExclusionRule matches operation labels by substring. A label matches when it
// contains every Contains term and, if AnyOf is not empty, at least one AnyOf term.
type ExclusionRule struct {
	Contains []string `json:"contains"`
	AnyOf    []string `json:"any_of,omitempty"`
}

// DefaultExclusionRules drops end-of-shift markers such as "FIM DE EXPEDIENTE"
// and "FINAL DE EXPEDIENTE".
func DefaultExclusionRules() []ExclusionRule {
	return []ExclusionRule{
		{Contains: []string{"EXPEDIENTE"}, AnyOf: []string{"FIM", "FINAL"}},
	}
}

// Matches reports whether the folded label satisfies the rule.
func (r ExclusionRule) Matches(folded string) bool {
	if len(r.Contains) == 0 && len(r.AnyOf) == 0 {
		return false
	}
	if !textfold.ContainsAll(folded, r.Contains) {
		return false
	}
	return len(r.AnyOf) == 0 || textfold.ContainsAny(folded, r.AnyOf)
}

// Exclusions decides which operation labels are removed before merging.
type Exclusions struct {
	labels textfold.Set
	rules  []ExclusionRule
}

// NewExclusions combines exact labels and substring rules into one filter.
func NewExclusions(labels []string, rules []ExclusionRule) Exclusions {
	return Exclusions{
		labels: textfold.NewSet(labels...),
		rules:  rules,
	}
}

// Excluded reports whether an operation label should be dropped.
func (x Exclusions) Excluded(operation string) bool {
	folded := textfold.Fold(operation)
	if x.labels.Has(folded) {
		return true
	}
	for _, r := range x.rules {
		if r.Matches(folded) {
			return true
		}
	}
	return false
}
