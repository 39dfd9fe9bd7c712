// Package timeline turns raw operator activity records into classified, merged
// blocks, clips them to analysis windows, splits them into day and night minutes,
// and reduces them to per-kind summaries.
//
// Every stage is a pure function over value slices, so each can be run and
// tested on its own: Normalize, Classifier.Classify, Merge, ClipAll,
// SplitDayNight and Aggregate. Pipeline chains them in that order.
package timeline

import "fmt"

// ActivityKind is the closed set of categories a record can be classified into.
type ActivityKind uint8

const (
	Unclassified ActivityKind = iota
	Effective
	ManagedStop
	MechanicalStop
	EssentialStop
	OtherStop
	Miscellaneous
	Travel
	Maneuver
)

var kindNames = [...]string{
	Unclassified:   "unclassified",
	Effective:      "effective",
	ManagedStop:    "managed_stop",
	MechanicalStop: "mechanical_stop",
	EssentialStop:  "essential_stop",
	OtherStop:      "other_stop",
	Miscellaneous:  "miscellaneous",
	Travel:         "travel",
	Maneuver:       "maneuver",
}

// AllKinds returns every kind in report order.
func AllKinds() []ActivityKind {
	return []ActivityKind{
		Effective,
		ManagedStop,
		MechanicalStop,
		EssentialStop,
		OtherStop,
		Miscellaneous,
		Travel,
		Maneuver,
		Unclassified,
	}
}

func (k ActivityKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ActivityKind(%d)", uint8(k))
}

// IsStop reports whether k is one of the unproductive stop kinds.
func (k ActivityKind) IsStop() bool {
	switch k {
	case ManagedStop, MechanicalStop, EssentialStop, OtherStop, Miscellaneous:
		return true
	}
	return false
}

// MarshalText lets kinds be used as JSON object keys.
func (k ActivityKind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown activity kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *ActivityKind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind converts a kind name as produced by String back into an ActivityKind.
func ParseKind(name string) (ActivityKind, error) {
	for i, n := range kindNames {
		if n == name {
			return ActivityKind(i), nil
		}
	}
	return Unclassified, fmt.Errorf("unknown activity kind %q", name)
}
