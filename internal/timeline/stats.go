package timeline

import (
	"math"
	"sort"

	"github.com/chrissnell/shiftline/pkg/textfold"
	"gonum.org/v1/gonum/stat"
)

// DurationStats describes the distribution of block durations of one kind.
type DurationStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_minutes"`
	StdDev float64 `json:"stddev_minutes"`
	Median float64 `json:"median_minutes"`
	Max    float64 `json:"max_minutes"`
}

// BlockStats computes DurationStats per kind. Kinds without blocks are omitted.
func BlockStats(blocks []Block) map[ActivityKind]DurationStats {
	byKind := make(map[ActivityKind][]float64)
	for _, b := range blocks {
		byKind[b.Kind] = append(byKind[b.Kind], b.DurationMin)
	}

	out := make(map[ActivityKind]DurationStats, len(byKind))
	for kind, durations := range byKind {
		sort.Float64s(durations)

		ds := DurationStats{
			Count:  len(durations),
			Mean:   stat.Mean(durations, nil),
			Median: stat.Quantile(0.5, stat.Empirical, durations, nil),
			Max:    durations[len(durations)-1],
		}
		// the unbiased estimator is undefined for a single sample
		if len(durations) > 1 {
			ds.StdDev = stat.StdDev(durations, nil)
		}
		if math.IsNaN(ds.StdDev) {
			ds.StdDev = 0
		}
		out[kind] = ds
	}
	return out
}

// DistinctOperations counts the different operation labels among blocks,
// ignoring case and diacritics.
func DistinctOperations(blocks []Block) int {
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		seen[textfold.Fold(b.OperationLabel)] = struct{}{}
	}
	return len(seen)
}
