package timeline

import "time"

// at returns 2024-01-01 plus the given day offset, hour and minute, in UTC.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, 1+day, hour, minute, 0, 0, time.UTC)
}

func event(op string, kind ActivityKind, start, end time.Time) Event {
	return Event{
		RawEvent: RawEvent{
			SubjectID:      "X",
			OperationLabel: op,
			Start:          start,
			End:            end,
		},
		Kind: kind,
	}
}

func raw(subject, group, op string, start, end time.Time) RawEvent {
	return RawEvent{
		SubjectID:      subject,
		ResourceID:     "TR-01",
		GroupLabel:     group,
		OperationLabel: op,
		Start:          start,
		End:            end,
	}
}
