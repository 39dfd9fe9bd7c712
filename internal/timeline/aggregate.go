package timeline

import "time"

// Summary is the reduction of a set of blocks. Totals are sums and the boundary
// fields are min/max reductions, so partial summaries can be combined in any order.
type Summary struct {
	TotalMinutes  float64                  `json:"total_minutes"`
	MinutesByKind map[ActivityKind]float64 `json:"minutes_by_kind"`
	DayMinutes    float64                  `json:"day_minutes"`
	NightMinutes  float64                  `json:"night_minutes"`
	BlockCount    int                      `json:"block_count"`

	ObservedStart       *time.Time `json:"window_start_observed"`
	ObservedEnd         *time.Time `json:"window_end_observed"`
	FirstEffectiveStart *time.Time `json:"first_effective_start"`
	LastEffectiveEnd    *time.Time `json:"last_effective_end"`

	// LeadGapMinutes is the unaccounted time before the first effective block and
	// TrailGapMinutes the time after the last one. Both are nil without effective work.
	LeadGapMinutes  *float64 `json:"lead_gap_minutes"`
	TrailGapMinutes *float64 `json:"trail_gap_minutes"`
}

// NewSummary returns an empty summary reporting zero for every kind in kinds.
func NewSummary(kinds []ActivityKind) Summary {
	s := Summary{MinutesByKind: make(map[ActivityKind]float64, len(kinds))}
	for _, k := range kinds {
		s.MinutesByKind[k] = 0
	}
	return s
}

// Aggregate reduces blocks into a Summary. Every kind in kinds is present in
// MinutesByKind, with zero when no block has it. Blocks of kinds not listed
// still count toward TotalMinutes.
func Aggregate(blocks []Block, kinds []ActivityKind) Summary {
	s := NewSummary(kinds)
	for _, b := range blocks {
		s.add(b)
	}
	s.computeGaps()
	return s
}

// AggregateSplit is Aggregate over day/night annotated blocks; it also fills
// DayMinutes and NightMinutes.
func AggregateSplit(blocks []SplitBlock, kinds []ActivityKind) Summary {
	s := NewSummary(kinds)
	for _, b := range blocks {
		s.add(b.Block)
		s.DayMinutes += b.DayMinutes
		s.NightMinutes += b.NightMinutes
	}
	s.computeGaps()
	return s
}

func (s *Summary) add(b Block) {
	s.TotalMinutes += b.DurationMin
	s.BlockCount++
	if _, tracked := s.MinutesByKind[b.Kind]; tracked {
		s.MinutesByKind[b.Kind] += b.DurationMin
	}

	s.ObservedStart = minTime(s.ObservedStart, b.Start)
	s.ObservedEnd = maxTime(s.ObservedEnd, b.End)
	if b.Kind == Effective {
		s.FirstEffectiveStart = minTime(s.FirstEffectiveStart, b.Start)
		s.LastEffectiveEnd = maxTime(s.LastEffectiveEnd, b.End)
	}
}

func (s *Summary) computeGaps() {
	s.LeadGapMinutes = nil
	s.TrailGapMinutes = nil
	if s.ObservedStart != nil && s.FirstEffectiveStart != nil {
		lead := minutes(s.FirstEffectiveStart.Sub(*s.ObservedStart))
		s.LeadGapMinutes = &lead
	}
	if s.ObservedEnd != nil && s.LastEffectiveEnd != nil {
		trail := minutes(s.ObservedEnd.Sub(*s.LastEffectiveEnd))
		s.TrailGapMinutes = &trail
	}
}

// Combine merges two summaries as if their blocks had been aggregated together.
// Neither input is modified.
func (s Summary) Combine(o Summary) Summary {
	out := Summary{
		TotalMinutes:  s.TotalMinutes + o.TotalMinutes,
		MinutesByKind: make(map[ActivityKind]float64, len(s.MinutesByKind)),
		DayMinutes:    s.DayMinutes + o.DayMinutes,
		NightMinutes:  s.NightMinutes + o.NightMinutes,
		BlockCount:    s.BlockCount + o.BlockCount,
	}
	for k, v := range s.MinutesByKind {
		out.MinutesByKind[k] += v
	}
	for k, v := range o.MinutesByKind {
		out.MinutesByKind[k] += v
	}

	out.ObservedStart = minTimePtr(s.ObservedStart, o.ObservedStart)
	out.ObservedEnd = maxTimePtr(s.ObservedEnd, o.ObservedEnd)
	out.FirstEffectiveStart = minTimePtr(s.FirstEffectiveStart, o.FirstEffectiveStart)
	out.LastEffectiveEnd = maxTimePtr(s.LastEffectiveEnd, o.LastEffectiveEnd)
	out.computeGaps()
	return out
}

func minTime(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.Before(*cur) {
		return &t
	}
	return cur
}

func maxTime(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.After(*cur) {
		return &t
	}
	return cur
}

func minTimePtr(a, b *time.Time) *time.Time {
	if b == nil {
		return a
	}
	return minTime(a, *b)
}

func maxTimePtr(a, b *time.Time) *time.Time {
	if b == nil {
		return a
	}
	return maxTime(a, *b)
}
