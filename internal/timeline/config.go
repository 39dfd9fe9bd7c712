package timeline

import (
	"fmt"
	"time"
)

// Config holds everything a Pipeline needs. Build it with DefaultConfig and
// override fields, or get it from pkg/config.
type Config struct {
	GapThreshold     time.Duration
	Reasons          ReasonSets
	AnchorHour       int
	EveningStartHour int
	MorningEndHour   int
	ExcludedLabels   []string
	ExclusionRules   []ExclusionRule
	MergeKey         MergeKeyPolicy
	MultiDay         MultiDayPolicy
	Shift            ShiftPolicy
	Location         *time.Location

	// Kinds lists the categories reported in Summary.MinutesByKind.
	Kinds []ActivityKind

	// Workers bounds the per-subject fan-out of RunSubjects. Zero or less means
	// one worker per subject.
	Workers int
}

// DefaultConfig returns the configuration used by the dashboards in the field.
func DefaultConfig() Config {
	return Config{
		GapThreshold:     DefaultGapThreshold,
		Reasons:          DefaultReasonSets(),
		AnchorHour:       DefaultAnchorHour,
		EveningStartHour: DefaultEveningStartHour,
		MorningEndHour:   DefaultMorningEndHour,
		ExclusionRules:   DefaultExclusionRules(),
		MergeKey:         MergeByOperationResource,
		MultiDay:         MultiDayDrop,
		Location:         time.UTC,
		Kinds:            AllKinds(),
	}
}

// Validate rejects configurations that cannot be run. Nothing is corrected.
func (c Config) Validate() error {
	if c.GapThreshold < 0 {
		return fmt.Errorf("%w: gap threshold %s is negative", ErrInvalidConfig, c.GapThreshold)
	}
	if c.AnchorHour < 0 || c.AnchorHour > 23 {
		return fmt.Errorf("%w: anchor hour %d out of range 0-23", ErrInvalidConfig, c.AnchorHour)
	}
	if err := ValidateNightHours(c.EveningStartHour, c.MorningEndHour); err != nil {
		return err
	}
	if _, err := c.MergeKey.KeyFunc(); err != nil {
		return err
	}
	switch c.MultiDay {
	case "", MultiDayDrop, MultiDayPassThrough:
	default:
		return fmt.Errorf("%w: unknown multi-day policy %q", ErrInvalidConfig, string(c.MultiDay))
	}
	if c.Shift.ExpectedMinutes < 0 || c.Shift.ToleranceMinutes < 0 {
		return fmt.Errorf("%w: shift minutes must not be negative", ErrInvalidConfig)
	}
	return nil
}

// OperationalDay builds the canonical window for date using the configured
// anchor hour and location.
func (c Config) OperationalDay(date time.Time) (Window, error) {
	return OperationalDay(date, c.AnchorHour, c.location())
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
