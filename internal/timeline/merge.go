package timeline

import (
	"fmt"
	"sort"
	"time"
)

// DefaultGapThreshold is the largest idle time between two same-key events that
// still lets them merge.
const DefaultGapThreshold = 2 * time.Minute

// MergeKey holds the attributes two adjacent events must share to be merged.
// Fields a KeyFunc does not care about are left empty.
type MergeKey struct {
	Operation string
	Resource  string
	Subject   string
}

// KeyFunc extracts the merge key of an event.
type KeyFunc func(Event) MergeKey

// ByOperation merges runs of the same operation label.
func ByOperation(e Event) MergeKey {
	return MergeKey{Operation: e.operationKey()}
}

// ByOperationResource also requires the same piece of equipment.
func ByOperationResource(e Event) MergeKey {
	return MergeKey{Operation: e.operationKey(), Resource: e.ResourceID}
}

// ByOperationResourceSubject also requires the same operator.
func ByOperationResourceSubject(e Event) MergeKey {
	return MergeKey{Operation: e.operationKey(), Resource: e.ResourceID, Subject: e.SubjectID}
}

// ByResource ignores the operation and groups strictly by equipment. It is used
// to derive equipment-usage bands.
func ByResource(e Event) MergeKey {
	return MergeKey{Resource: e.ResourceID}
}

// MergeKeyPolicy names one of the built-in key functions in configuration.
type MergeKeyPolicy string

const (
	MergeByOperation                MergeKeyPolicy = "operation"
	MergeByOperationResource        MergeKeyPolicy = "operation-resource"
	MergeByOperationResourceSubject MergeKeyPolicy = "operation-resource-subject"
	MergeByResource                 MergeKeyPolicy = "resource"
)

// KeyFunc resolves the policy to its key function.
func (p MergeKeyPolicy) KeyFunc() (KeyFunc, error) {
	switch p {
	case MergeByOperation:
		return ByOperation, nil
	case MergeByOperationResource, "":
		return ByOperationResource, nil
	case MergeByOperationResourceSubject:
		return ByOperationResourceSubject, nil
	case MergeByResource:
		return ByResource, nil
	}
	return nil, fmt.Errorf("%w: unknown merge key %q", ErrInvalidConfig, string(p))
}

// Merge collapses events into contiguous blocks in a single scan.
//
// Events are stable-sorted by start time, so ties keep their input order. An
// event extends the current block when key reports the same MergeKey and the
// gap from the block's end to the event's start is at most gapThreshold. A
// negative gap (overlapping rows) counts as zero. The block takes the kind and
// labels of the first event of its run.
func Merge(events []Event, key KeyFunc, gapThreshold time.Duration) []Block {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	blocks := make([]Block, 0, len(sorted))

	first := sorted[0]
	curKey := key(first)
	curEnd := first.End

	for _, next := range sorted[1:] {
		gap := next.Start.Sub(curEnd)
		if gap < 0 {
			gap = 0
		}

		if key(next) == curKey && gap <= gapThreshold {
			if next.End.After(curEnd) {
				curEnd = next.End
			}
			continue
		}

		blocks = append(blocks, NewBlock(first, first.Start, curEnd))
		first = next
		curKey = key(next)
		curEnd = next.End
	}
	blocks = append(blocks, NewBlock(first, first.Start, curEnd))

	return blocks
}

// MergeBlocks runs Merge over blocks that were already merged. With the same key
// and threshold the result equals the input.
func MergeBlocks(blocks []Block, key KeyFunc, gapThreshold time.Duration) []Block {
	events := make([]Event, len(blocks))
	for i, b := range blocks {
		events[i] = b.asEvent()
	}
	return Merge(events, key, gapThreshold)
}

// ResourceBands merges events by equipment only, producing the periods during
// which each piece of equipment was in use. Events without a resource share
// the empty resource id and band together.
func ResourceBands(events []Event, gapThreshold time.Duration) []Block {
	bands := Merge(events, ByResource, gapThreshold)
	for i := range bands {
		bands[i].OperationLabel = ""
		bands[i].Kind = Unclassified
	}
	return bands
}
