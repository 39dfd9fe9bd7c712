package timeline

import (
	"fmt"
	"time"
)

// Default night boundaries: night runs from 19:00 to 07:00 the next morning.
const (
	DefaultEveningStartHour = 19
	DefaultMorningEndHour   = 7
)

// ValidateNightHours rejects boundaries outside 0-23 and evenings that do not
// start after the morning ends.
func ValidateNightHours(eveningStart, morningEnd int) error {
	if eveningStart < 0 || eveningStart > 23 || morningEnd < 0 || morningEnd > 23 {
		return fmt.Errorf("%w: hours must be in 0-23 (evening %d, morning %d)",
			ErrInvalidNightHours, eveningStart, morningEnd)
	}
	if eveningStart <= morningEnd {
		return fmt.Errorf("%w: evening start %d must be after morning end %d",
			ErrInvalidNightHours, eveningStart, morningEnd)
	}
	return nil
}

// NightIntervalsFor returns the night sub-ranges of the window w, in order.
//
// With D the calendar day of w.Start, the night is [D E:00, D+1 00:00) and
// [D+1 00:00, D+1 M:00), each intersected with w and dropped when empty. An
// operational day therefore never yields more than those two ranges, even when
// its anchor hour falls inside the night. Windows longer than a day should use
// NightIntervalsSpanning.
func NightIntervalsFor(w Window, eveningStart, morningEnd int) ([]Window, error) {
	if err := checkNightInput(w, eveningStart, morningEnd); err != nil {
		return nil, err
	}
	return nightOf(w.Start, w, eveningStart, morningEnd, nil), nil
}

// NightIntervalsSpanning returns the night sub-ranges of every calendar day
// from the day of w.Start through the day of w.End, in order. It is the
// multi-day counterpart of NightIntervalsFor and agrees with it on the first day.
func NightIntervalsSpanning(w Window, eveningStart, morningEnd int) ([]Window, error) {
	if err := checkNightInput(w, eveningStart, morningEnd); err != nil {
		return nil, err
	}
	var nights []Window
	for day := w.Start; !startOfDay(day).After(w.End); day = startOfDay(day).AddDate(0, 0, 1) {
		nights = nightOf(day, w, eveningStart, morningEnd, nights)
	}
	return nights, nil
}

// NightIntervals picks NightIntervalsFor for windows of at most a day and
// NightIntervalsSpanning for longer ones.
func NightIntervals(w Window, eveningStart, morningEnd int) ([]Window, error) {
	if w.End.Sub(w.Start) > 24*time.Hour {
		return NightIntervalsSpanning(w, eveningStart, morningEnd)
	}
	return NightIntervalsFor(w, eveningStart, morningEnd)
}

func checkNightInput(w Window, eveningStart, morningEnd int) error {
	if err := ValidateNightHours(eveningStart, morningEnd); err != nil {
		return err
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: empty window", ErrInvalidWindow)
	}
	return nil
}

// nightOf appends to dst the two night parts that start on the calendar day of
// day, clipped to w.
func nightOf(day time.Time, w Window, eveningStart, morningEnd int, dst []Window) []Window {
	y, m, d := day.Date()
	loc := day.Location()
	evening := time.Date(y, m, d, eveningStart, 0, 0, 0, loc)
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	morning := time.Date(y, m, d+1, morningEnd, 0, 0, 0, loc)

	for _, part := range []Window{{evening, midnight}, {midnight, morning}} {
		if in, ok := part.Intersect(w); ok {
			dst = append(dst, in)
		}
	}
	return dst
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Overlap returns the length of the intersection of [aStart, aEnd) and w, or
// zero when they do not overlap.
func Overlap(aStart, aEnd time.Time, w Window) time.Duration {
	d := earlierOf(aEnd, w.End).Sub(laterOf(aStart, w.Start))
	if d < 0 {
		return 0
	}
	return d
}

// SplitDurations partitions the duration of b into day and night parts.
// night is the total overlap with the night intervals and day is the remainder,
// so day+night always equals b.Duration().
func SplitDurations(b Block, nights []Window) (day, night time.Duration) {
	for _, n := range nights {
		night += Overlap(b.Start, b.End, n)
	}
	total := b.Duration()
	if night > total {
		night = total
	}
	return total - night, night
}

// SplitDayNight is SplitDurations expressed in minutes. dayMin is derived from
// b.DurationMin so the two parts add back up to the block's duration.
func SplitDayNight(b Block, nights []Window) (dayMin, nightMin float64) {
	_, night := SplitDurations(b, nights)
	nightMin = minutes(night)
	return b.DurationMin - nightMin, nightMin
}

// SplitBlock is a block annotated with its day and night minutes.
type SplitBlock struct {
	Block
	DayMinutes   float64 `json:"day_minutes"`
	NightMinutes float64 `json:"night_minutes"`
}

// SplitAll annotates every block with its day and night minutes.
func SplitAll(blocks []Block, nights []Window) []SplitBlock {
	out := make([]SplitBlock, len(blocks))
	for i, b := range blocks {
		day, night := SplitDayNight(b, nights)
		out[i] = SplitBlock{Block: b, DayMinutes: day, NightMinutes: night}
	}
	return out
}
