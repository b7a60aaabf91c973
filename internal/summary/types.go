// Package summary holds the normalized model for test-run and coverage
// reports: the per-file and per-case records produced by the parsers, and
// the aggregated summaries persisted as run artifacts.
package summary

import "math"

// ReportKind selects between the two report families handled by the pipeline.
type ReportKind string

const (
	KindTest     ReportKind = "test"
	KindCoverage ReportKind = "coverage"
)

// LineKind classifies a coverage line record.
type LineKind string

const (
	LineKindStatement   LineKind = "statement"
	LineKindConditional LineKind = "conditional"
	LineKindMethod      LineKind = "method"
)

// LineRecord is a single line entry from a coverage report. TrueHits and
// FalseHits are only meaningful for conditional lines; absent attributes
// default to zero.
type LineRecord struct {
	Number    int      `json:"number"`
	Hits      int      `json:"hits"`
	Kind      LineKind `json:"kind"`
	TrueHits  int      `json:"trueHits,omitempty"`
	FalseHits int      `json:"falseHits,omitempty"`
}

// FileCoverage carries the counters and recomputed rates for one source file.
// LineRate and BranchRate are always derived from the counters (see Rate),
// never taken from the report document.
type FileCoverage struct {
	Name                string       `json:"name"`
	Path                string       `json:"path"`
	Statements          int          `json:"statements"`
	StatementsCovered   int          `json:"statementsCovered"`
	Conditionals        int          `json:"conditionals"`
	ConditionalsCovered int          `json:"conditionalsCovered"`
	Methods             int          `json:"methods"`
	MethodsCovered      int          `json:"methodsCovered"`
	LineRate            float64      `json:"lineRate"`
	BranchRate          float64      `json:"branchRate"`
	Lines               []LineRecord `json:"lines,omitempty"`
}

// CoverageDocument is the transient result of parsing one coverage report
// file. It only lives between Parse and Aggregate.
type CoverageDocument struct {
	Files []FileCoverage
}

// CoverageSummary aggregates one or more coverage documents.
type CoverageSummary struct {
	Statements          int            `json:"statements"`
	StatementsCovered   int            `json:"statementsCovered"`
	Conditionals        int            `json:"conditionals"`
	ConditionalsCovered int            `json:"conditionalsCovered"`
	Methods             int            `json:"methods"`
	MethodsCovered      int            `json:"methodsCovered"`
	LineRate            float64        `json:"lineRate"`
	BranchRate          float64        `json:"branchRate"`
	Files               []FileCoverage `json:"files"`
}

// FileByPath builds a path-keyed lookup over the aggregated files. When two
// inputs reported the same path the last writer wins; duplicates are a
// data-quality condition surfaced by the aggregator, not merged here.
func (cs *CoverageSummary) FileByPath() map[string]FileCoverage {
	m := make(map[string]FileCoverage, len(cs.Files))
	for _, f := range cs.Files {
		m[f.Path] = f
	}
	return m
}

// TestStatus is the terminal state of one test case.
type TestStatus string

const (
	TestStatusPassed  TestStatus = "passed"
	TestStatusFailed  TestStatus = "failed"
	TestStatusSkipped TestStatus = "skipped"
)

// TestCase is one executed case. Identity for comparisons is (Suite, Name).
type TestCase struct {
	Suite          string     `json:"suite"`
	Name           string     `json:"name"`
	Status         TestStatus `json:"status"`
	Duration       float64    `json:"durationSeconds"`
	FailureMessage string     `json:"failureMessage,omitempty"`
}

// CaseKey is the comparison identity of a test case.
type CaseKey struct {
	Suite string
	Name  string
}

// Key returns the comparison identity of the case.
func (tc TestCase) Key() CaseKey {
	return CaseKey{Suite: tc.Suite, Name: tc.Name}
}

// TestDocument is the transient result of parsing one test report file.
type TestDocument struct {
	Cases []TestCase
}

// TestSummary aggregates one or more test documents.
type TestSummary struct {
	Total     int        `json:"total"`
	Passed    int        `json:"passed"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	PassRate  float64    `json:"passRate"`
	TotalTime float64    `json:"totalTime"`
	Cases     []TestCase `json:"cases"`

	// Durations are derived statistics, recomputed on aggregation and not
	// part of the comparison identity.
	Durations *DurationStats `json:"durations,omitempty"`
}

// CaseByKey builds a (suite, name)-keyed lookup over the aggregated cases.
func (ts *TestSummary) CaseByKey() map[CaseKey]TestCase {
	m := make(map[CaseKey]TestCase, len(ts.Cases))
	for _, c := range ts.Cases {
		m[c.Key()] = c
	}
	return m
}

// Round2 rounds to two decimals, the rounding rule shared by parsers,
// aggregation and comparison.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rate returns covered/total as a 0-100 percentage rounded to two decimals,
// and 0 when total is zero.
func Rate(covered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(covered) / float64(total) * 100)
}
