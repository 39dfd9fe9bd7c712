package timeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func dayWindow(t *testing.T) Window {
	t.Helper()
	w, err := OperationalDay(at(0, 0, 0), DefaultAnchorHour, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func newPipeline(t *testing.T, mutate func(*Config)) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestPipelineRun(t *testing.T) {
	p := newPipeline(t, nil)

	events := []RawEvent{
		raw("X", "IMPRODUTIVA", "AGUARDANDO ORDENS", at(0, 6, 0), at(0, 8, 0)),
		raw("X", "PRODUTIVA", "PLANTIO", at(0, 8, 0), at(0, 12, 0)),
		raw("X", "PRODUTIVA", "PLANTIO", at(0, 12, 1), at(0, 14, 0)),
		raw("X", "IMPRODUTIVA", "REFEICAO", at(0, 14, 0), at(0, 15, 0)),
		raw("X", "AUXILIAR", "MANOBRA", at(0, 23, 30), at(0, 0, 15)),
	}

	r, err := p.Run(events, dayWindow(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r.SubjectID != "X" {
		t.Errorf("subject = %q", r.SubjectID)
	}
	if len(r.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %+v", len(r.Blocks), r.Blocks)
	}

	first := r.Blocks[0]
	if first.Kind != ManagedStop || !first.Start.Equal(at(0, 7, 0)) || first.DurationMin != 60 {
		t.Errorf("first block should be clipped to the window start: %+v", first)
	}
	if r.Blocks[1].Kind != Effective || r.Blocks[1].DurationMin != 360 {
		t.Errorf("productive rows should merge across the one minute gap: %+v", r.Blocks[1])
	}
	last := r.Blocks[3]
	if last.Kind != Maneuver || last.NightMinutes != 45 || last.DayMinutes != 0 {
		t.Errorf("midnight-crossing maneuver should be all night: %+v", last)
	}

	s := r.Summary
	if s.TotalMinutes != 60+360+60+45 {
		t.Errorf("total = %v", s.TotalMinutes)
	}
	if s.DayMinutes+s.NightMinutes != s.TotalMinutes {
		t.Errorf("day %v + night %v != total %v", s.DayMinutes, s.NightMinutes, s.TotalMinutes)
	}
	if s.MinutesByKind[EssentialStop] != 60 {
		t.Errorf("essential = %v", s.MinutesByKind[EssentialStop])
	}
	if s.MinutesByKind[MechanicalStop] != 0 {
		t.Errorf("mechanical = %v", s.MinutesByKind[MechanicalStop])
	}
	if r.DistinctOperations != 4 {
		t.Errorf("distinct operations = %d", r.DistinctOperations)
	}
	if len(r.ResourceBands) != 2 {
		t.Errorf("expected 2 resource bands, got %+v", r.ResourceBands)
	}
	if r.Shift != nil {
		t.Error("shift assessment should be disabled by default")
	}
}

func TestPipelineDiagnostics(t *testing.T) {
	p := newPipeline(t, nil)

	malformed := raw("X", "PRODUTIVA", "PLANTIO", time.Time{}, at(0, 9, 0))
	malformed.Row = 2
	orphan := raw(" ", "PRODUTIVA", "PLANTIO", at(0, 9, 0), at(0, 10, 0))
	orphan.Row = 3
	long := raw("X", "PRODUTIVA", "PLANTIO", at(0, 8, 0), at(1, 9, 0))
	long.Row = 4
	closing := raw("X", "IMPRODUTIVA", "Fim de Expediente", at(0, 18, 0), at(0, 18, 5))
	closing.Row = 5
	good := raw("X", "PRODUTIVA", "PLANTIO", at(0, 10, 0), at(0, 11, 0))
	good.Row = 6

	r, err := p.Run([]RawEvent{malformed, orphan, long, closing, good}, dayWindow(t))
	if err != nil {
		t.Fatalf("row problems must not fail the batch: %v", err)
	}
	if len(r.Blocks) != 1 {
		t.Errorf("expected only the good row, got %+v", r.Blocks)
	}

	d := r.Diagnostics
	want := map[DropReason]int{
		DropMalformedTimestamp:  1,
		DropMissingSubject:      1,
		DropCrossesMultipleDays: 1,
		DropExcluded:            1,
	}
	for reason, n := range want {
		if d.Dropped[reason] != n {
			t.Errorf("dropped[%s] = %d, want %d", reason, d.Dropped[reason], n)
		}
	}
	if d.DroppedCount() != 4 {
		t.Errorf("dropped count = %d", d.DroppedCount())
	}
	if len(d.Issues) != 4 || d.Issues[0].Row != 2 {
		t.Errorf("unexpected issues %+v", d.Issues)
	}
}

func TestPipelineMultiDayPassThrough(t *testing.T) {
	p := newPipeline(t, func(c *Config) { c.MultiDay = MultiDayPassThrough })

	long := raw("X", "PRODUTIVA", "PLANTIO", at(0, 8, 0), at(1, 9, 0))
	r, err := p.Run([]RawEvent{long}, dayWindow(t))
	if err != nil {
		t.Fatal(err)
	}
	if r.Diagnostics.Flagged != 1 || r.Diagnostics.DroppedCount() != 0 {
		t.Errorf("unexpected diagnostics %+v", r.Diagnostics)
	}
	if len(r.Blocks) != 1 || !r.Blocks[0].End.Equal(at(1, 7, 0)) {
		t.Errorf("multi-day row should be kept and clipped: %+v", r.Blocks)
	}
}

func TestPipelineExcludedLabels(t *testing.T) {
	p := newPipeline(t, func(c *Config) { c.ExcludedLabels = []string{"troca de turno"} })

	r, err := p.Run([]RawEvent{
		raw("X", "IMPRODUTIVA", "TROCA DE TURNO", at(0, 9, 0), at(0, 9, 30)),
		raw("X", "PRODUTIVA", "PLANTIO", at(0, 10, 0), at(0, 11, 0)),
	}, dayWindow(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Blocks) != 1 || r.Diagnostics.Dropped[DropExcluded] != 1 {
		t.Errorf("configured label should be excluded: %+v", r)
	}
}

func TestPipelineRejectsInvalidWindow(t *testing.T) {
	p := newPipeline(t, nil)
	_, err := p.Run(nil, Window{Start: at(1, 7, 0), End: at(0, 7, 0)})
	if !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	p := newPipeline(t, nil)
	r, err := p.Run(nil, dayWindow(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Blocks) != 0 || r.Summary.TotalMinutes != 0 || r.Summary.ObservedStart != nil {
		t.Errorf("unexpected report for empty input: %+v", r)
	}
	if _, ok := r.Summary.MinutesByKind[EssentialStop]; !ok {
		t.Error("empty report should still list every kind")
	}
}

func TestPipelineRunDate(t *testing.T) {
	p := newPipeline(t, nil)
	r, err := p.RunDate([]RawEvent{
		raw("X", "PRODUTIVA", "PLANTIO", at(1, 6, 0), at(1, 8, 0)),
	}, at(0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Window.Start.Equal(at(0, 7, 0)) {
		t.Errorf("window start = %v", r.Window.Start)
	}
	if len(r.Blocks) != 1 || r.Blocks[0].DurationMin != 60 {
		t.Errorf("block should be clipped to the window end: %+v", r.Blocks)
	}
}

func TestNewPipelineRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative gap", func(c *Config) { c.GapThreshold = -time.Minute }, ErrInvalidConfig},
		{"anchor out of range", func(c *Config) { c.AnchorHour = 24 }, ErrInvalidConfig},
		{"night hours reversed", func(c *Config) { c.EveningStartHour = 6 }, ErrInvalidNightHours},
		{"unknown merge key", func(c *Config) { c.MergeKey = "bogus" }, ErrInvalidConfig},
		{"unknown multi-day policy", func(c *Config) { c.MultiDay = "split" }, ErrInvalidConfig},
		{"negative shift", func(c *Config) { c.Shift.ExpectedMinutes = -1 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewPipeline(cfg); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunSubjects(t *testing.T) {
	p := newPipeline(t, func(c *Config) { c.Workers = 2 })

	var events []RawEvent
	for _, subject := range []string{"C", "A", "B"} {
		events = append(events,
			raw(subject, "PRODUTIVA", "PLANTIO", at(0, 8, 0), at(0, 9, 0)),
			raw(subject, "IMPRODUTIVA", "CHUVA", at(0, 9, 0), at(0, 9, 30)),
		)
	}

	reports, err := p.RunSubjects(context.Background(), events, dayWindow(t))
	if err != nil {
		t.Fatalf("RunSubjects: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i, want := range []string{"A", "B", "C"} {
		if reports[i].SubjectID != want {
			t.Errorf("report %d subject = %q, want %q", i, reports[i].SubjectID, want)
		}
		if reports[i].Summary.TotalMinutes != 90 {
			t.Errorf("report %d total = %v", i, reports[i].Summary.TotalMinutes)
		}
	}

	combined := CombineReports(reports, AllKinds())
	if combined.TotalMinutes != 270 || combined.MinutesByKind[Effective] != 180 || combined.BlockCount != 6 {
		t.Errorf("unexpected combined summary %+v", combined)
	}
}

func TestRunSubjectsCancelled(t *testing.T) {
	p := newPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RunSubjects(ctx, []RawEvent{
		raw("A", "PRODUTIVA", "PLANTIO", at(0, 8, 0), at(0, 9, 0)),
	}, dayWindow(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGroupBySubject(t *testing.T) {
	subjects, groups := GroupBySubject([]RawEvent{
		raw("B", "", "1", at(0, 8, 0), at(0, 9, 0)),
		raw("A", "", "2", at(0, 8, 0), at(0, 9, 0)),
		raw("B", "", "3", at(0, 9, 0), at(0, 10, 0)),
	})
	if len(subjects) != 2 || subjects[0] != "A" || subjects[1] != "B" {
		t.Errorf("subjects = %v", subjects)
	}
	if len(groups["B"]) != 2 || groups["B"][1].OperationLabel != "3" {
		t.Errorf("groups[B] = %+v", groups["B"])
	}
}

func TestAssessShift(t *testing.T) {
	s := Aggregate([]Block{
		block("PLANTIO", Effective, at(0, 7, 0), at(0, 17, 0)),
	}, AllKinds())

	tests := []struct {
		name          string
		policy        ShiftPolicy
		wantNil       bool
		wantExtra     float64
		wantSuspicion bool
	}{
		{"disabled", ShiftPolicy{}, true, 0, false},
		{"within tolerance", ShiftPolicy{ExpectedMinutes: 588, ToleranceMinutes: 15}, false, 12, false},
		{"beyond tolerance", ShiftPolicy{ExpectedMinutes: 588, ToleranceMinutes: 10}, false, 12, true},
		{"short shift", ShiftPolicy{ExpectedMinutes: 660, ToleranceMinutes: 30}, false, -60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessShift(s, tt.policy)
			if tt.wantNil {
				if got != nil {
					t.Errorf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected an assessment")
			}
			if got.WorkedMinutes != 600 || got.ExtraMinutes != tt.wantExtra || got.Suspicious != tt.wantSuspicion {
				t.Errorf("unexpected assessment %+v", got)
			}
		})
	}

	if AssessShift(NewSummary(AllKinds()), ShiftPolicy{ExpectedMinutes: 588}) != nil {
		t.Error("an empty summary has no shift to assess")
	}
}

func TestBlockStats(t *testing.T) {
	stats := BlockStats([]Block{
		block("A", Effective, at(0, 8, 0), at(0, 8, 30)),
		block("A", Effective, at(0, 9, 0), at(0, 9, 10)),
		block("A", Effective, at(0, 10, 0), at(0, 10, 20)),
		block("B", Travel, at(0, 11, 0), at(0, 11, 5)),
	})

	eff := stats[Effective]
	if eff.Count != 3 || eff.Mean != 20 || eff.Median != 20 || eff.Max != 30 {
		t.Errorf("unexpected effective stats %+v", eff)
	}
	if math.Abs(eff.StdDev-10) > 1e-9 {
		t.Errorf("stddev = %v, want 10", eff.StdDev)
	}
	if tr := stats[Travel]; tr.Count != 1 || tr.StdDev != 0 || tr.Median != 5 {
		t.Errorf("unexpected travel stats %+v", tr)
	}
	if _, ok := stats[Maneuver]; ok {
		t.Error("kinds without blocks should be omitted")
	}
}

func TestDistinctOperations(t *testing.T) {
	n := DistinctOperations([]Block{
		block("Refeição", EssentialStop, at(0, 8, 0), at(0, 9, 0)),
		block("REFEICAO", EssentialStop, at(0, 12, 0), at(0, 13, 0)),
		block("PLANTIO", Effective, at(0, 9, 0), at(0, 12, 0)),
	})
	if n != 2 {
		t.Errorf("expected 2 distinct operations, got %d", n)
	}
}

func TestDateNavigation(t *testing.T) {
	events := []RawEvent{
		raw("X", "", "A", at(2, 9, 0), at(2, 10, 0)),
		raw("X", "", "B", at(0, 9, 0), at(0, 10, 0)),
		raw("X", "", "C", at(1, 3, 0), at(1, 4, 0)), // before the anchor: belongs to day 0
		raw("X", "", "D", at(1, 8, 0), at(1, 9, 0)),
		raw("X", "", "E", time.Time{}, at(1, 9, 0)),
	}

	dates := AvailableDates(events, DefaultAnchorHour, time.UTC)
	want := []time.Time{at(0, 0, 0), at(1, 0, 0), at(2, 0, 0)}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v", dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("date %d = %v, want %v", i, dates[i], want[i])
		}
	}

	d, ok := DefaultDate(dates)
	if !ok || !d.Equal(at(1, 0, 0)) {
		t.Errorf("default date = %v (%v)", d, ok)
	}
	if one, _ := DefaultDate(dates[:1]); !one.Equal(at(0, 0, 0)) {
		t.Errorf("single date default = %v", one)
	}
	if _, ok := DefaultDate(nil); ok {
		t.Error("no dates means no default")
	}

	if got := PreviousDate(dates, at(2, 0, 0)); !got.Equal(at(1, 0, 0)) {
		t.Errorf("previous of day 2 = %v", got)
	}
	if got := PreviousDate(dates, at(0, 0, 0)); !got.Equal(at(0, 0, 0)) {
		t.Errorf("previous of the oldest date should stay put, got %v", got)
	}
	if got := PreviousDate(dates, at(9, 0, 0)); !got.Equal(at(9, 0, 0)) {
		t.Errorf("unknown date should be returned unchanged, got %v", got)
	}
}
