package timeline

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// GroupBySubject partitions events by subject id, keeping input order within
// each subject. Subject ids are returned sorted.
func GroupBySubject(events []RawEvent) ([]string, map[string][]RawEvent) {
	groups := make(map[string][]RawEvent)
	for _, e := range events {
		groups[e.SubjectID] = append(groups[e.SubjectID], e)
	}
	subjects := make([]string, 0, len(groups))
	for s := range groups {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects, groups
}

// RunSubjects runs the pipeline for every subject in events over w, one
// goroutine per subject, at most Config.Workers at a time. Each worker reads
// only its own subject's slice and writes only its own result slot, so no
// locking is needed. Reports come back ordered by subject id.
//
// If ctx is cancelled the partial results are discarded and ctx.Err() returned.
func (p *Pipeline) RunSubjects(ctx context.Context, events []RawEvent, w Window) ([]Report, error) {
	subjects, groups := GroupBySubject(events)
	reports := make([]Report, len(subjects))

	g, ctx := errgroup.WithContext(ctx)
	if p.cfg.Workers > 0 {
		g.SetLimit(p.cfg.Workers)
	}

	for i, subject := range subjects {
		i, subject := i, subject
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := p.Run(groups[subject], w)
			if err != nil {
				return err
			}
			r.SubjectID = subject
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// CombineReports folds the summaries of several reports into one, as if all
// their blocks had been aggregated together.
func CombineReports(reports []Report, kinds []ActivityKind) Summary {
	total := NewSummary(kinds)
	for _, r := range reports {
		total = total.Combine(r.Summary)
	}
	return total
}
