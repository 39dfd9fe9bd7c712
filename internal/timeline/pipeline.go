package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Report is everything computed for one subject over one window.
type Report struct {
	ID            string       `json:"report_id,omitempty"`
	SubjectID     string       `json:"subject_id"`
	Window        Window       `json:"window"`
	Blocks        []SplitBlock `json:"blocks"`
	ResourceBands []Block      `json:"resource_bands"`
	Summary       Summary      `json:"summary"`

	DistinctOperations int                            `json:"distinct_operations"`
	Stats              map[ActivityKind]DurationStats `json:"stats"`
	Shift              *ShiftAssessment               `json:"shift,omitempty"`
	Diagnostics        Diagnostics                    `json:"diagnostics"`
}

// Pipeline runs the ordered stages Normalize, exclusion, Classify, Merge,
// ClipAll, SplitDayNight and Aggregate with one configuration.
type Pipeline struct {
	cfg        Config
	classifier *Classifier
	exclusions Exclusions
	key        KeyFunc
}

// NewPipeline validates cfg and prepares the classifier and filters.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MultiDay == "" {
		cfg.MultiDay = MultiDayDrop
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = AllKinds()
	}
	key, err := cfg.MergeKey.KeyFunc()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Reasons),
		exclusions: NewExclusions(cfg.ExcludedLabels, cfg.ExclusionRules),
		key:        key,
	}, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Classifier returns the pipeline's classifier.
func (p *Pipeline) Classifier() *Classifier {
	return p.classifier
}

// Prepare normalizes, filters and classifies raw rows. Rows that cannot be
// used are recorded in the returned Diagnostics rather than failing the batch.
func (p *Pipeline) Prepare(raw []RawEvent) ([]Event, Diagnostics) {
	var diag Diagnostics
	events := make([]Event, 0, len(raw))

	for _, r := range raw {
		if strings.TrimSpace(r.SubjectID) == "" {
			diag.Drop(r.Row, DropMissingSubject, "")
			continue
		}
		if r.Start.IsZero() || r.End.IsZero() {
			diag.Drop(r.Row, DropMalformedTimestamp, "missing start or end")
			continue
		}

		start, end, err := Normalize(r.Start, r.End)
		if err != nil {
			if p.cfg.MultiDay == MultiDayDrop {
				diag.Drop(r.Row, DropCrossesMultipleDays, err.Error())
				continue
			}
			diag.Flag(r.Row, DropCrossesMultipleDays, err.Error())
		}
		r.Start, r.End = start, end

		if p.exclusions.Excluded(r.OperationLabel) {
			diag.Drop(r.Row, DropExcluded, r.OperationLabel)
			continue
		}

		events = append(events, NewEvent(r, p.classifier))
	}
	return events, diag
}

// Run builds the report of one subject's events over w. All supplied events are
// merged before clipping, so a block that straddles a window edge is clipped
// rather than split. Events of several subjects should go through RunSubjects.
func (p *Pipeline) Run(raw []RawEvent, w Window) (Report, error) {
	if !w.Start.Before(w.End) {
		return Report{}, fmt.Errorf("%w: start is not before end", ErrInvalidWindow)
	}
	nights, err := NightIntervals(w, p.cfg.EveningStartHour, p.cfg.MorningEndHour)
	if err != nil {
		return Report{}, err
	}

	events, diag := p.Prepare(raw)

	merged := Merge(events, p.key, p.cfg.GapThreshold)
	clipped := ClipAll(merged, w)
	split := SplitAll(clipped, nights)
	summary := AggregateSplit(split, p.cfg.Kinds)

	report := Report{
		Window:             w,
		Blocks:             split,
		ResourceBands:      ClipAll(ResourceBands(events, p.cfg.GapThreshold), w),
		Summary:            summary,
		DistinctOperations: DistinctOperations(clipped),
		Stats:              BlockStats(clipped),
		Shift:              AssessShift(summary, p.cfg.Shift),
		Diagnostics:        diag,
	}
	if len(raw) > 0 {
		report.SubjectID = raw[0].SubjectID
	}
	return report, nil
}

// RunDate is Run over the operational day that starts on the calendar date of date.
func (p *Pipeline) RunDate(raw []RawEvent, date time.Time) (Report, error) {
	w, err := p.cfg.OperationalDay(date)
	if err != nil {
		return Report{}, err
	}
	return p.Run(raw, w)
}
