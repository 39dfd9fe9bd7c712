package timeline

import (
	"time"

	"github.com/chrissnell/shiftline/pkg/textfold"
)

// RawEvent is one activity record as supplied by a loader.
type RawEvent struct {
	SubjectID      string    `json:"subject_id"`
	ResourceID     string    `json:"resource_id,omitempty"` // empty when not tracked per resource
	ResourceName   string    `json:"resource_name,omitempty"`
	GroupLabel     string    `json:"group_label"`
	OperationLabel string    `json:"operation_label"`
	Start          time.Time `json:"start_at"`
	End            time.Time `json:"end_at"`
	Row            int       `json:"row,omitempty"` // source row number, for diagnostics
}

// Event is a normalized, classified RawEvent ready for merging.
type Event struct {
	RawEvent
	Kind ActivityKind

	opKey string
}

// NewEvent classifies raw with c. raw is expected to be normalized already.
func NewEvent(raw RawEvent, c *Classifier) Event {
	return Event{
		RawEvent: raw,
		Kind:     c.Classify(raw.GroupLabel, raw.OperationLabel),
		opKey:    textfold.Fold(raw.OperationLabel),
	}
}

func (e Event) operationKey() string {
	if e.opKey != "" {
		return e.opKey
	}
	return textfold.Fold(e.OperationLabel)
}

// Block is a merged, classified, contiguous interval. Blocks are values: every
// derived block (a clipped copy, for instance) is a new Block.
type Block struct {
	SubjectID      string       `json:"subject_id"`
	ResourceID     string       `json:"resource_id,omitempty"`
	ResourceName   string       `json:"resource_name,omitempty"`
	OperationLabel string       `json:"operation_label"`
	Kind           ActivityKind `json:"kind"`
	Start          time.Time    `json:"start_at"`
	End            time.Time    `json:"end_at"`
	DurationMin    float64      `json:"duration_min"`
}

// NewBlock builds a block over [start, end) from the attributes of e.
// An end before start is collapsed onto start.
func NewBlock(e Event, start, end time.Time) Block {
	b := Block{
		SubjectID:      e.SubjectID,
		ResourceID:     e.ResourceID,
		ResourceName:   e.ResourceName,
		OperationLabel: e.OperationLabel,
		Kind:           e.Kind,
	}
	return b.withBounds(start, end)
}

func (b Block) withBounds(start, end time.Time) Block {
	if end.Before(start) {
		end = start
	}
	b.Start = start
	b.End = end
	b.DurationMin = minutes(end.Sub(start))
	return b
}

// Duration returns End - Start.
func (b Block) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// asEvent turns a block back into a mergeable event.
func (b Block) asEvent() Event {
	return Event{
		RawEvent: RawEvent{
			SubjectID:      b.SubjectID,
			ResourceID:     b.ResourceID,
			ResourceName:   b.ResourceName,
			OperationLabel: b.OperationLabel,
			Start:          b.Start,
			End:            b.End,
		},
		Kind: b.Kind,
	}
}

func minutes(d time.Duration) float64 {
	return d.Minutes()
}
