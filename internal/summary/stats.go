package summary

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// DurationStats are derived timing statistics over the aggregated cases.
type DurationStats struct {
	Mean float64 `json:"meanSeconds"`
	P95  float64 `json:"p95Seconds"`
}

// NewDurationStats computes timing statistics for a case set. Returns nil for
// an empty set so the field marshals away.
func NewDurationStats(cases []TestCase) *DurationStats {
	if len(cases) == 0 {
		return nil
	}
	durations := make([]float64, 0, len(cases))
	for _, c := range cases {
		durations = append(durations, c.Duration)
	}
	mean, err := stats.Mean(durations)
	if err != nil {
		return nil
	}
	p95, err := stats.Percentile(durations, 95)
	if err != nil {
		// Percentile fails for a single sample; fall back to the sample.
		p95 = durations[0]
	}
	return &DurationStats{Mean: Round2(mean), P95: Round2(p95)}
}

// SlowestCases returns up to n cases ordered by descending duration.
// Ties keep the aggregate source order so output stays deterministic.
func (ts *TestSummary) SlowestCases(n int) []TestCase {
	if n <= 0 || len(ts.Cases) == 0 {
		return nil
	}
	out := make([]TestCase, len(ts.Cases))
	copy(out, ts.Cases)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Duration > out[j].Duration })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
