// Package ingest loads activity rows from external sources into timeline.RawEvent values.
package ingest

import (
	"context"
	"sort"
	"time"

	"github.com/chrissnell/shiftline/internal/timeline"
)

// Source serves activity rows per subject.
type Source interface {
	// Subjects lists the subject ids with at least one row, sorted.
	Subjects(ctx context.Context) ([]string, error)

	// Events returns the rows of subject that may overlap [from, to), sorted by
	// start. A zero from or to leaves that side unbounded.
	Events(ctx context.Context, subject string, from, to time.Time) ([]timeline.RawEvent, error)

	// LoadDiagnostics returns the rows rejected while the source was loaded,
	// before they could be served by Events.
	LoadDiagnostics(ctx context.Context) (timeline.Diagnostics, error)
}

// Lookback is how far before a window rows are fetched: no accepted row spans
// more than a day, so anything starting earlier cannot reach the window.
const Lookback = 24 * time.Hour

// MemorySource is a Source over rows held in memory, typically loaded from CSV.
type MemorySource struct {
	subjects  []string
	bySubject map[string][]timeline.RawEvent
	loadDiag  timeline.Diagnostics
}

// NewMemorySource indexes events by subject. The slice is not retained.
func NewMemorySource(events []timeline.RawEvent) *MemorySource {
	return NewMemorySourceWithDiagnostics(events, timeline.Diagnostics{})
}

// NewMemorySourceWithDiagnostics is NewMemorySource for rows that came with
// load diagnostics, such as the output of CSVLoader.Load.
func NewMemorySourceWithDiagnostics(events []timeline.RawEvent, diag timeline.Diagnostics) *MemorySource {
	subjects, groups := timeline.GroupBySubject(events)
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Start.Before(g[j].Start) })
	}
	return &MemorySource{subjects: subjects, bySubject: groups, loadDiag: diag}
}

// Subjects implements Source.
func (m *MemorySource) Subjects(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(m.subjects))
	copy(out, m.subjects)
	return out, nil
}

// Events implements Source.
func (m *MemorySource) Events(ctx context.Context, subject string, from, to time.Time) ([]timeline.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []timeline.RawEvent
	for _, e := range m.bySubject[subject] {
		if !from.IsZero() && e.Start.Before(from.Add(-Lookback)) {
			continue
		}
		if !to.IsZero() && !e.Start.Before(to) {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

// LoadDiagnostics implements Source.
func (m *MemorySource) LoadDiagnostics(ctx context.Context) (timeline.Diagnostics, error) {
	if err := ctx.Err(); err != nil {
		return timeline.Diagnostics{}, err
	}
	var out timeline.Diagnostics
	out.Merge(m.loadDiag)
	return out, nil
}
