package timeline

import "errors"

var (
	// ErrMalformedTimestamp marks a row whose start or end time could not be read.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrCrossesMultipleDays marks a row that still spans more than 24h after the
	// single midnight correction.
	ErrCrossesMultipleDays = errors.New("event crosses multiple days")

	// ErrInvalidWindow is returned when a window does not satisfy start < end.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrInvalidNightHours is returned when the night boundaries are out of range
	// or the evening start is not after the morning end.
	ErrInvalidNightHours = errors.New("invalid night hours")

	// ErrInvalidConfig wraps every other rejected configuration value.
	ErrInvalidConfig = errors.New("invalid timeline configuration")
)
