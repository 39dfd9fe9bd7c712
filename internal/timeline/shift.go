package timeline

import "math"

// ShiftPolicy describes the expected length of a shift. A zero ExpectedMinutes
// disables the assessment.
type ShiftPolicy struct {
	ExpectedMinutes  float64 `json:"expected_minutes"`
	ToleranceMinutes float64 `json:"tolerance_minutes"`
}

// Enabled reports whether the policy has an expected shift length.
func (p ShiftPolicy) Enabled() bool {
	return p.ExpectedMinutes > 0
}

// ShiftAssessment compares the observed span of work with the policy.
type ShiftAssessment struct {
	WorkedMinutes   float64 `json:"worked_minutes"`
	ExpectedMinutes float64 `json:"expected_minutes"`
	ExtraMinutes    float64 `json:"extra_minutes"`
	Suspicious      bool    `json:"suspicious"`
}

// AssessShift measures the span from the first observed start to the last
// observed end. It returns nil when the policy is disabled or nothing was observed.
func AssessShift(s Summary, p ShiftPolicy) *ShiftAssessment {
	if !p.Enabled() || s.ObservedStart == nil || s.ObservedEnd == nil {
		return nil
	}
	worked := minutes(s.ObservedEnd.Sub(*s.ObservedStart))
	extra := worked - p.ExpectedMinutes
	return &ShiftAssessment{
		WorkedMinutes:   worked,
		ExpectedMinutes: p.ExpectedMinutes,
		ExtraMinutes:    extra,
		Suspicious:      math.Abs(extra) > p.ToleranceMinutes,
	}
}
