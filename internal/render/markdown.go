// Package render turns a pipeline report into the markdown bodies posted as
// PR comments and written to job summaries. Pure string building; the caller
// owns where the text goes.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reportcard-dev/reportcard/internal/compare"
	"github.com/reportcard-dev/reportcard/internal/config"
	"github.com/reportcard-dev/reportcard/internal/pipeline"
	"github.com/reportcard-dev/reportcard/internal/summary"
)

const commentHeader = "## Reportcard"

// Comment renders the PR comment body.
func Comment(report *pipeline.Report, display config.Display) string {
	var sb strings.Builder
	sb.WriteString(commentHeader + "\n\n")

	if report.Tests != nil {
		renderTests(&sb, report.Tests, display)
	}
	if report.Coverage != nil {
		renderCoverage(&sb, report.Coverage, display)
	}
	if report.Tests == nil && report.Coverage == nil {
		sb.WriteString("_No reports were processed._\n")
	}
	return sb.String()
}

// JobSummary renders the job-summary body. Same content as the comment plus
// phase timings.
func JobSummary(report *pipeline.Report, display config.Display) string {
	var sb strings.Builder
	sb.WriteString(Comment(report, display))
	if report.Timers != nil && len(report.Timers.Phases) > 0 {
		sb.WriteString("\n<details><summary>Pipeline timing</summary>\n\n")
		sb.WriteString("| Phase | Seconds |\n|---|---|\n")
		for _, phase := range sortedKeys(report.Timers.Phases) {
			sb.WriteString(fmt.Sprintf("| %s | %.3f |\n", phase, report.Timers.Phases[phase]))
		}
		sb.WriteString("\n</details>\n")
	}
	return sb.String()
}

func renderTests(sb *strings.Builder, res *pipeline.TestResult, display config.Display) {
	s := res.Summary
	c := res.Comparison

	sb.WriteString("### Tests\n\n")
	sb.WriteString("| Total | Passed | Failed | Skipped | Pass rate | Time |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| %d%s | %d%s | %d%s | %d%s | %.2f%%%s | %.2fs%s |\n\n",
		s.Total, deltaInt(c != nil, func() int { return c.DeltaTotal }),
		s.Passed, deltaInt(c != nil, func() int { return c.DeltaPassed }),
		s.Failed, deltaInt(c != nil, func() int { return c.DeltaFailed }),
		s.Skipped, deltaInt(c != nil, func() int { return c.DeltaSkipped }),
		s.PassRate, deltaFloat(c != nil, func() float64 { return c.DeltaPassRate }),
		s.TotalTime, deltaFloat(c != nil, func() float64 { return c.DeltaTime }),
	))

	if c == nil {
		sb.WriteString("_No baseline found; comparison unavailable._\n\n")
	} else {
		renderCaseList(sb, ":x: Newly broken", c.Broken)
		renderCaseList(sb, ":white_check_mark: Fixed", c.Fixed)
		renderCaseList(sb, "Added", c.Added)
		renderCaseList(sb, "Removed", c.Removed)
	}

	if display.ShowSlowest > 0 {
		slowest := s.SlowestCases(display.ShowSlowest)
		if len(slowest) > 0 {
			sb.WriteString(fmt.Sprintf("<details><summary>Slowest %d cases</summary>\n\n", len(slowest)))
			sb.WriteString("| Suite | Case | Seconds |\n|---|---|---|\n")
			for _, tc := range slowest {
				sb.WriteString(fmt.Sprintf("| %s | %s | %.2f |\n", tc.Suite, tc.Name, tc.Duration))
			}
			sb.WriteString("\n</details>\n\n")
		}
	}
}

func renderCaseList(sb *strings.Builder, title string, cases []summary.TestCase) {
	if len(cases) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("**%s (%d)**\n\n", title, len(cases)))
	for _, tc := range cases {
		sb.WriteString(fmt.Sprintf("- `%s` / `%s`", tc.Suite, tc.Name))
		if tc.FailureMessage != "" {
			sb.WriteString(fmt.Sprintf(" — %s", firstLine(tc.FailureMessage)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func renderCoverage(sb *strings.Builder, res *pipeline.CoverageResult, display config.Display) {
	s := res.Summary
	c := res.Comparison

	sb.WriteString("### Coverage\n\n")
	sb.WriteString("| Lines | Branches | Statements | Conditionals | Methods |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| %.2f%%%s | %.2f%%%s | %d/%d | %d/%d | %d/%d |\n\n",
		s.LineRate, deltaFloat(c != nil, func() float64 { return c.DeltaLineRate }),
		s.BranchRate, deltaFloat(c != nil, func() float64 { return c.DeltaBranchRate }),
		s.StatementsCovered, s.Statements,
		s.ConditionalsCovered, s.Conditionals,
		s.MethodsCovered, s.Methods,
	))

	if c == nil {
		sb.WriteString("_No baseline found; comparison unavailable._\n\n")
		return
	}
	if c.Improved {
		sb.WriteString(":arrow_up: Coverage improved against the base.\n\n")
	}
	if display.ShowFileDetails {
		renderFileDeltas(sb, c)
	}
}

func renderFileDeltas(sb *strings.Builder, c *compare.CoverageComparison) {
	if len(c.FilesChanged) > 0 {
		sb.WriteString("**Changed files**\n\n")
		sb.WriteString("| File | Lines (base → current) | Branches (base → current) |\n|---|---|---|\n")
		for _, fd := range c.FilesChanged {
			sb.WriteString(fmt.Sprintf("| %s | %.2f%% → %.2f%% (%s) | %.2f%% → %.2f%% (%s) |\n",
				fd.Path,
				fd.BaseLineRate, fd.CurrentLineRate, signed(fd.DeltaLineRate),
				fd.BaseBranchRate, fd.CurrentBranchRate, signed(fd.DeltaBranchRate)))
		}
		sb.WriteString("\n")
	}
	if len(c.FilesAdded) > 0 {
		sb.WriteString(fmt.Sprintf("**New files (%d)**\n\n", len(c.FilesAdded)))
		for _, f := range c.FilesAdded {
			sb.WriteString(fmt.Sprintf("- %s (%.2f%% lines)\n", f.Path, f.LineRate))
		}
		sb.WriteString("\n")
	}
	if len(c.FilesRemoved) > 0 {
		sb.WriteString(fmt.Sprintf("**Removed files (%d)**\n\n", len(c.FilesRemoved)))
		for _, f := range c.FilesRemoved {
			sb.WriteString(fmt.Sprintf("- %s\n", f.Path))
		}
		sb.WriteString("\n")
	}
}

func deltaInt(ok bool, get func() int) string {
	if !ok {
		return ""
	}
	v := get()
	if v == 0 {
		return ""
	}
	return fmt.Sprintf(" (%+d)", v)
}

func deltaFloat(ok bool, get func() float64) string {
	if !ok {
		return ""
	}
	v := get()
	if v == 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", signed(v))
}

func signed(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
