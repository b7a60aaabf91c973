// Package compare computes the structural and numeric diff between a base
// summary and the current one. Comparisons are derived values: they are never
// persisted on their own and never mutate the summaries they read.
package compare

import (
	"github.com/reportcard-dev/reportcard/internal/summary"
)

// FileDelta describes one file present in both snapshots whose rates drifted.
type FileDelta struct {
	Path              string  `json:"path"`
	BaseLineRate      float64 `json:"baseLineRate"`
	CurrentLineRate   float64 `json:"currentLineRate"`
	DeltaLineRate     float64 `json:"deltaLineRate"`
	BaseBranchRate    float64 `json:"baseBranchRate"`
	CurrentBranchRate float64 `json:"currentBranchRate"`
	DeltaBranchRate   float64 `json:"deltaBranchRate"`
}

// CoverageComparison is the diff of two coverage summaries. All deltas follow
// the current - base sign convention.
type CoverageComparison struct {
	DeltaLineRate            float64 `json:"deltaLineRate"`
	DeltaBranchRate          float64 `json:"deltaBranchRate"`
	DeltaStatements          int     `json:"deltaStatements"`
	DeltaStatementsCovered   int     `json:"deltaStatementsCovered"`
	DeltaConditionals        int     `json:"deltaConditionals"`
	DeltaConditionalsCovered int     `json:"deltaConditionalsCovered"`
	DeltaMethods             int     `json:"deltaMethods"`
	DeltaMethodsCovered      int     `json:"deltaMethodsCovered"`

	FilesAdded   []summary.FileCoverage `json:"filesAdded"`
	FilesRemoved []summary.FileCoverage `json:"filesRemoved"`
	FilesChanged []FileDelta            `json:"filesChanged"`

	Improved bool `json:"improved"`
}

// TestComparison is the diff of two test summaries.
type TestComparison struct {
	DeltaTotal    int     `json:"deltaTotal"`
	DeltaPassed   int     `json:"deltaPassed"`
	DeltaFailed   int     `json:"deltaFailed"`
	DeltaSkipped  int     `json:"deltaSkipped"`
	DeltaPassRate float64 `json:"deltaPassRate"`
	DeltaTime     float64 `json:"deltaTime"`

	Added   []summary.TestCase `json:"added"`
	Removed []summary.TestCase `json:"removed"`
	// Broken holds cases that went passed -> failed, Fixed the reverse.
	// Both carry the current snapshot of the case.
	Broken []summary.TestCase `json:"broken"`
	Fixed  []summary.TestCase `json:"fixed"`
}

// Coverage diffs base against current. Files are classified by path: present
// only in current (added), only in base (removed), or in both with rate drift
// (changed). Files whose rates are identical are excluded from the changed
// set even when the underlying counters moved proportionally; only rate drift
// counts. Iteration follows the summaries' source order, so output for equal
// inputs is byte-identical across calls.
func Coverage(base, current *summary.CoverageSummary) *CoverageComparison {
	c := &CoverageComparison{
		DeltaLineRate:            summary.Round2(current.LineRate - base.LineRate),
		DeltaBranchRate:          summary.Round2(current.BranchRate - base.BranchRate),
		DeltaStatements:          current.Statements - base.Statements,
		DeltaStatementsCovered:   current.StatementsCovered - base.StatementsCovered,
		DeltaConditionals:        current.Conditionals - base.Conditionals,
		DeltaConditionalsCovered: current.ConditionalsCovered - base.ConditionalsCovered,
		DeltaMethods:             current.Methods - base.Methods,
		DeltaMethodsCovered:      current.MethodsCovered - base.MethodsCovered,
		FilesAdded:               []summary.FileCoverage{},
		FilesRemoved:             []summary.FileCoverage{},
		FilesChanged:             []FileDelta{},
	}
	c.Improved = c.DeltaLineRate > 0 || (c.DeltaLineRate == 0 && c.DeltaBranchRate > 0)

	baseByPath := base.FileByPath()
	currentByPath := current.FileByPath()

	for _, f := range current.Files {
		b, ok := baseByPath[f.Path]
		if !ok {
			c.FilesAdded = append(c.FilesAdded, f)
			continue
		}
		deltaLine := summary.Round2(f.LineRate - b.LineRate)
		deltaBranch := summary.Round2(f.BranchRate - b.BranchRate)
		if deltaLine == 0 && deltaBranch == 0 {
			continue
		}
		c.FilesChanged = append(c.FilesChanged, FileDelta{
			Path:              f.Path,
			BaseLineRate:      b.LineRate,
			CurrentLineRate:   f.LineRate,
			DeltaLineRate:     deltaLine,
			BaseBranchRate:    b.BranchRate,
			CurrentBranchRate: f.BranchRate,
			DeltaBranchRate:   deltaBranch,
		})
	}
	for _, b := range base.Files {
		if _, ok := currentByPath[b.Path]; !ok {
			c.FilesRemoved = append(c.FilesRemoved, b)
		}
	}
	return c
}

// Tests diffs base against current. Cases are classified by (suite, name):
// unique to current (added), unique to base (removed), or present in both
// with a pass/fail transition (broken, fixed).
func Tests(base, current *summary.TestSummary) *TestComparison {
	c := &TestComparison{
		DeltaTotal:    current.Total - base.Total,
		DeltaPassed:   current.Passed - base.Passed,
		DeltaFailed:   current.Failed - base.Failed,
		DeltaSkipped:  current.Skipped - base.Skipped,
		DeltaPassRate: summary.Round2(current.PassRate - base.PassRate),
		DeltaTime:     summary.Round2(current.TotalTime - base.TotalTime),
		Added:         []summary.TestCase{},
		Removed:       []summary.TestCase{},
		Broken:        []summary.TestCase{},
		Fixed:         []summary.TestCase{},
	}

	baseByKey := base.CaseByKey()
	currentByKey := current.CaseByKey()

	for _, cur := range current.Cases {
		b, ok := baseByKey[cur.Key()]
		if !ok {
			c.Added = append(c.Added, cur)
			continue
		}
		switch {
		case b.Status == summary.TestStatusPassed && cur.Status == summary.TestStatusFailed:
			c.Broken = append(c.Broken, cur)
		case b.Status == summary.TestStatusFailed && cur.Status == summary.TestStatusPassed:
			c.Fixed = append(c.Fixed, cur)
		}
	}
	for _, b := range base.Cases {
		if _, ok := currentByKey[b.Key()]; !ok {
			c.Removed = append(c.Removed, b)
		}
	}
	return c
}
