package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chrissnell/shiftline/internal/timeline"
)

func row(subject string, start time.Time) timeline.RawEvent {
	return timeline.RawEvent{
		SubjectID:      subject,
		OperationLabel: "PLANTIO",
		Start:          start,
		End:            start.Add(time.Hour),
	}
}

func TestMemorySource(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 1, d, h, 0, 0, 0, time.UTC) }

	src := NewMemorySource([]timeline.RawEvent{
		row("B", day(3, 9)),
		row("A", day(2, 9)),
		row("A", day(1, 9)),
		row("A", day(5, 9)),
	})
	ctx := context.Background()

	subjects, err := src.Subjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 2 || subjects[0] != "A" || subjects[1] != "B" {
		t.Errorf("subjects = %v", subjects)
	}

	all, err := src.Events(ctx, "A", time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || !all[0].Start.Equal(day(1, 9)) || !all[2].Start.Equal(day(5, 9)) {
		t.Errorf("unbounded query should return every row sorted: %+v", all)
	}

	// [day 2 07:00, day 3 07:00) plus a day of lookback reaches day 1 09:00.
	windowed, err := src.Events(ctx, "A", day(2, 7), day(3, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(windowed) != 2 {
		t.Errorf("expected the lookback row and the in-window row, got %+v", windowed)
	}

	none, err := src.Events(ctx, "C", time.Time{}, time.Time{})
	if err != nil || len(none) != 0 {
		t.Errorf("unknown subject: %+v, %v", none, err)
	}
}

func TestMemorySourceHonoursContext(t *testing.T) {
	src := NewMemorySource(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Subjects(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Subjects: expected context.Canceled, got %v", err)
	}
	if _, err := src.Events(ctx, "A", time.Time{}, time.Time{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Events: expected context.Canceled, got %v", err)
	}
}

func TestMemorySourceLoadDiagnostics(t *testing.T) {
	var diag timeline.Diagnostics
	diag.DropFor("A", 3, timeline.DropMalformedTimestamp, "time \"banana\"")

	src := NewMemorySourceWithDiagnostics([]timeline.RawEvent{row("A", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))}, diag)

	got, err := src.LoadDiagnostics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Dropped[timeline.DropMalformedTimestamp] != 1 || len(got.Issues) != 1 {
		t.Errorf("unexpected diagnostics %+v", got)
	}

	// The caller may merge into the result without touching the source.
	got.Drop(9, timeline.DropMissingSubject, "")
	again, _ := src.LoadDiagnostics(context.Background())
	if again.DroppedCount() != 1 {
		t.Errorf("source diagnostics changed: %+v", again)
	}

	empty, err := NewMemorySource(nil).LoadDiagnostics(context.Background())
	if err != nil || empty.DroppedCount() != 0 {
		t.Errorf("expected no diagnostics, got %+v, %v", empty, err)
	}
}
