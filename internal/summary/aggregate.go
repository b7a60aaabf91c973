package summary

import (
	log "github.com/sirupsen/logrus"
)

// AggregateCoverage merges parsed coverage documents into one summary.
// Counters are summed and the rates recomputed from the sums; averaging the
// per-document rates would weight small files the same as large ones.
// File records are concatenated in source order and never deduplicated: a
// caller presenting the same path twice gets two entries, reported as a
// data-quality warning.
func AggregateCoverage(docs []*CoverageDocument) *CoverageSummary {
	s := &CoverageSummary{Files: []FileCoverage{}}
	seen := map[string]struct{}{}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, f := range doc.Files {
			s.Statements += f.Statements
			s.StatementsCovered += f.StatementsCovered
			s.Conditionals += f.Conditionals
			s.ConditionalsCovered += f.ConditionalsCovered
			s.Methods += f.Methods
			s.MethodsCovered += f.MethodsCovered
			if _, ok := seen[f.Path]; ok {
				log.Warnf("duplicate coverage entry for path %q across input reports", f.Path)
			}
			seen[f.Path] = struct{}{}
			s.Files = append(s.Files, f)
		}
	}
	s.LineRate = Rate(s.StatementsCovered, s.Statements)
	s.BranchRate = Rate(s.ConditionalsCovered, s.Conditionals)
	return s
}

// AggregateTests merges parsed test documents into one summary. Case records
// are concatenated in source order; counters and the pass rate are recomputed
// from the concatenated set.
func AggregateTests(docs []*TestDocument) *TestSummary {
	s := &TestSummary{Cases: []TestCase{}}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, c := range doc.Cases {
			s.Total++
			switch c.Status {
			case TestStatusFailed:
				s.Failed++
			case TestStatusSkipped:
				s.Skipped++
			default:
				s.Passed++
			}
			s.TotalTime += c.Duration
			s.Cases = append(s.Cases, c)
		}
	}
	s.TotalTime = Round2(s.TotalTime)
	s.PassRate = Rate(s.Passed, s.Total)
	s.Durations = NewDurationStats(s.Cases)
	return s
}
