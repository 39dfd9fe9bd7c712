package config

import (
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/shiftline/internal/timeline"
)

// DefaultTimelineSettings returns the settings equivalent to timeline.DefaultConfig.
func DefaultTimelineSettings() TimelineSettings {
	d := timeline.DefaultConfig()

	rules := make([]ExclusionRuleData, len(d.ExclusionRules))
	for i, r := range d.ExclusionRules {
		rules[i] = ExclusionRuleData{Contains: r.Contains, AnyOf: r.AnyOf}
	}

	return TimelineSettings{
		GapThresholdMinutes:   d.GapThreshold.Minutes(),
		ManagedReasons:        d.Reasons.Managed,
		MechanicalReasons:     d.Reasons.Mechanical,
		EssentialReasons:      d.Reasons.Essential,
		WindowAnchorHour:      d.AnchorHour,
		NightEveningStartHour: d.EveningStartHour,
		NightMorningEndHour:   d.MorningEndHour,
		ExclusionRules:        rules,
		MergeKey:              string(d.MergeKey),
		MultiDayPolicy:        string(d.MultiDay),
		Timezone:              "UTC",
	}
}

// ToTimelineConfig converts the settings into an engine configuration and
// validates it. Invalid values are reported, never corrected.
func (s TimelineSettings) ToTimelineConfig() (timeline.Config, error) {
	if s.GapThresholdMinutes < 0 || math.IsNaN(s.GapThresholdMinutes) {
		return timeline.Config{}, fmt.Errorf("%w: gap-threshold-minutes must be a non-negative number, got %v",
			timeline.ErrInvalidConfig, s.GapThresholdMinutes)
	}

	loc := time.UTC
	if s.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(s.Timezone)
		if err != nil {
			return timeline.Config{}, fmt.Errorf("%w: timezone %q: %v", timeline.ErrInvalidConfig, s.Timezone, err)
		}
	}

	rules := make([]timeline.ExclusionRule, len(s.ExclusionRules))
	for i, r := range s.ExclusionRules {
		rules[i] = timeline.ExclusionRule{Contains: r.Contains, AnyOf: r.AnyOf}
	}

	cfg := timeline.Config{
		GapThreshold: time.Duration(s.GapThresholdMinutes * float64(time.Minute)),
		Reasons: timeline.ReasonSets{
			Managed:    s.ManagedReasons,
			Mechanical: s.MechanicalReasons,
			Essential:  s.EssentialReasons,
		},
		AnchorHour:       s.WindowAnchorHour,
		EveningStartHour: s.NightEveningStartHour,
		MorningEndHour:   s.NightMorningEndHour,
		ExcludedLabels:   s.ExcludedOperations,
		ExclusionRules:   rules,
		MergeKey:         timeline.MergeKeyPolicy(s.MergeKey),
		MultiDay:         timeline.MultiDayPolicy(s.MultiDayPolicy),
		Shift: timeline.ShiftPolicy{
			ExpectedMinutes:  s.ShiftExpectedMinutes,
			ToleranceMinutes: s.ShiftToleranceMinutes,
		},
		Location: loc,
		Kinds:    timeline.AllKinds(),
		Workers:  s.Workers,
	}

	if err := cfg.Validate(); err != nil {
		return timeline.Config{}, err
	}
	return cfg, nil
}

// Validate checks the source section.
func (s SourceData) Validate() error {
	switch s.Type {
	case SourceCSV:
		if s.CSV == nil || s.CSV.Path == "" {
			return fmt.Errorf("%w: csv source needs a path", timeline.ErrInvalidConfig)
		}
		if len([]rune(s.CSV.Delimiter)) > 1 {
			return fmt.Errorf("%w: csv delimiter %q must be a single character", timeline.ErrInvalidConfig, s.CSV.Delimiter)
		}
	case SourcePostgres:
		if s.Postgres == nil || s.Postgres.ConnectionString == "" {
			return fmt.Errorf("%w: postgres source needs a connection string", timeline.ErrInvalidConfig)
		}
	case "":
		return fmt.Errorf("%w: source type is required", timeline.ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown source type %q", timeline.ErrInvalidConfig, s.Type)
	}
	return nil
}
