package timeline

import (
	"sort"
	"time"
)

// OperationalDate returns the calendar date (midnight in loc) of the operational
// day that t belongs to. With an anchor of 07:00, 03:00 on the 2nd belongs to
// the day of the 1st.
func OperationalDate(t time.Time, anchorHour int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	if local.Hour() < anchorHour {
		d--
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// AvailableDates lists the distinct operational dates on which events start,
// oldest first.
func AvailableDates(events []RawEvent, anchorHour int, loc *time.Location) []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, e := range events {
		if e.Start.IsZero() {
			continue
		}
		d := OperationalDate(e.Start, anchorHour, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// DefaultDate picks the date a report opens on: the day before the most recent
// one when at least two are available, since the latest day is usually still
// in progress. It returns false for an empty list.
func DefaultDate(dates []time.Time) (time.Time, bool) {
	switch len(dates) {
	case 0:
		return time.Time{}, false
	case 1:
		return dates[0], true
	}
	return dates[len(dates)-2], true
}

// PreviousDate steps one available date back from current, stopping at the
// oldest. A current date not in the list is returned unchanged.
func PreviousDate(dates []time.Time, current time.Time) time.Time {
	for i, d := range dates {
		if d.Equal(current) {
			if i == 0 {
				return d
			}
			return dates[i-1]
		}
	}
	return current
}
