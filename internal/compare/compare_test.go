package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportcard-dev/reportcard/internal/summary"
)

func coverageSummaryFromFiles(files ...summary.FileCoverage) *summary.CoverageSummary {
	docs := []*summary.CoverageDocument{{Files: files}}
	return summary.AggregateCoverage(docs)
}

func fileCov(path string, covered, total int) summary.FileCoverage {
	return summary.FileCoverage{
		Name:              path,
		Path:              path,
		Statements:        total,
		StatementsCovered: covered,
		LineRate:          summary.Rate(covered, total),
	}
}

func TestCoverage_SelfCompareIsEmpty(t *testing.T) {
	s := coverageSummaryFromFiles(fileCov("a.go", 7, 10), fileCov("b.go", 8, 10))

	c := Coverage(s, s)

	assert.Equal(t, 0.0, c.DeltaLineRate)
	assert.Equal(t, 0.0, c.DeltaBranchRate)
	assert.Equal(t, 0, c.DeltaStatements)
	assert.Empty(t, c.FilesAdded)
	assert.Empty(t, c.FilesRemoved)
	assert.Empty(t, c.FilesChanged)
	assert.False(t, c.Improved)
}

func TestCoverage_AddedRemovedChanged(t *testing.T) {
	base := coverageSummaryFromFiles(fileCov("a.go", 70, 100), fileCov("b.go", 80, 100))
	current := coverageSummaryFromFiles(fileCov("a.go", 85, 100), fileCov("b.go", 80, 100), fileCov("c.go", 90, 100))

	c := Coverage(base, current)

	require.Len(t, c.FilesAdded, 1)
	assert.Equal(t, "c.go", c.FilesAdded[0].Path)
	assert.Empty(t, c.FilesRemoved)
	// b.go is unchanged and excluded from the changed set
	require.Len(t, c.FilesChanged, 1)
	assert.Equal(t, "a.go", c.FilesChanged[0].Path)
	assert.Equal(t, 15.0, c.FilesChanged[0].DeltaLineRate)

	// aggregate delta comes from summed counters (150/200 -> 255/300),
	// not from averaging per-file deltas
	assert.Equal(t, 10.0, c.DeltaLineRate)
	assert.True(t, c.Improved)
}

func TestCoverage_SymmetricNegation(t *testing.T) {
	a := coverageSummaryFromFiles(fileCov("a.go", 70, 100), fileCov("b.go", 50, 100))
	b := coverageSummaryFromFiles(fileCov("a.go", 90, 100), fileCov("c.go", 10, 100))

	ab := Coverage(a, b)
	ba := Coverage(b, a)

	assert.Equal(t, ab.DeltaLineRate, -ba.DeltaLineRate)
	assert.Equal(t, ab.DeltaStatements, -ba.DeltaStatements)
	assert.Equal(t, ab.DeltaStatementsCovered, -ba.DeltaStatementsCovered)

	require.Len(t, ab.FilesAdded, 1)
	require.Len(t, ba.FilesRemoved, 1)
	assert.Equal(t, ab.FilesAdded[0].Path, ba.FilesRemoved[0].Path)
	require.Len(t, ab.FilesRemoved, 1)
	require.Len(t, ba.FilesAdded, 1)
	assert.Equal(t, ab.FilesRemoved[0].Path, ba.FilesAdded[0].Path)
	assert.Equal(t, ab.FilesChanged[0].DeltaLineRate, -ba.FilesChanged[0].DeltaLineRate)
}

// Rates are the only trigger for the changed set: a file whose counters grew
// proportionally (same percentage) is not reported. Known edge case, kept on
// purpose: structural growth at constant coverage is invisible here.
func TestCoverage_ProportionalGrowthNotChanged(t *testing.T) {
	base := coverageSummaryFromFiles(fileCov("a.go", 5, 10))
	current := coverageSummaryFromFiles(fileCov("a.go", 10, 20))

	c := Coverage(base, current)

	assert.Empty(t, c.FilesChanged)
	assert.Equal(t, 10, c.DeltaStatements)
	assert.Equal(t, 5, c.DeltaStatementsCovered)
	assert.Equal(t, 0.0, c.DeltaLineRate)
	assert.False(t, c.Improved)
}

func TestCoverage_BranchOnlyImprovement(t *testing.T) {
	base := &summary.CoverageSummary{LineRate: 80, BranchRate: 40}
	current := &summary.CoverageSummary{LineRate: 80, BranchRate: 45}

	c := Coverage(base, current)
	assert.Equal(t, 0.0, c.DeltaLineRate)
	assert.Equal(t, 5.0, c.DeltaBranchRate)
	assert.True(t, c.Improved)
}

func testSummaryFromCases(cases ...summary.TestCase) *summary.TestSummary {
	return summary.AggregateTests([]*summary.TestDocument{{Cases: cases}})
}

func TestTests_SelfCompareIsEmpty(t *testing.T) {
	s := testSummaryFromCases(
		summary.TestCase{Suite: "s", Name: "a", Status: summary.TestStatusPassed},
		summary.TestCase{Suite: "s", Name: "b", Status: summary.TestStatusFailed},
	)
	c := Tests(s, s)
	assert.Equal(t, 0, c.DeltaTotal)
	assert.Equal(t, 0.0, c.DeltaPassRate)
	assert.Empty(t, c.Added)
	assert.Empty(t, c.Removed)
	assert.Empty(t, c.Broken)
	assert.Empty(t, c.Fixed)
}

func TestTests_Transitions(t *testing.T) {
	base := testSummaryFromCases(
		summary.TestCase{Suite: "s", Name: "stays", Status: summary.TestStatusPassed},
		summary.TestCase{Suite: "s", Name: "breaks", Status: summary.TestStatusPassed},
		summary.TestCase{Suite: "s", Name: "heals", Status: summary.TestStatusFailed},
		summary.TestCase{Suite: "s", Name: "gone", Status: summary.TestStatusPassed},
	)
	current := testSummaryFromCases(
		summary.TestCase{Suite: "s", Name: "stays", Status: summary.TestStatusPassed},
		summary.TestCase{Suite: "s", Name: "breaks", Status: summary.TestStatusFailed, FailureMessage: "boom"},
		summary.TestCase{Suite: "s", Name: "heals", Status: summary.TestStatusPassed},
		summary.TestCase{Suite: "s", Name: "fresh", Status: summary.TestStatusPassed},
	)

	c := Tests(base, current)

	require.Len(t, c.Broken, 1)
	assert.Equal(t, "breaks", c.Broken[0].Name)
	assert.Equal(t, "boom", c.Broken[0].FailureMessage)
	require.Len(t, c.Fixed, 1)
	assert.Equal(t, "heals", c.Fixed[0].Name)
	require.Len(t, c.Added, 1)
	assert.Equal(t, "fresh", c.Added[0].Name)
	require.Len(t, c.Removed, 1)
	assert.Equal(t, "gone", c.Removed[0].Name)
	assert.Equal(t, 0, c.DeltaTotal)
}

func TestTests_SameNameDifferentSuite(t *testing.T) {
	base := testSummaryFromCases(
		summary.TestCase{Suite: "alpha", Name: "shared", Status: summary.TestStatusPassed},
	)
	current := testSummaryFromCases(
		summary.TestCase{Suite: "beta", Name: "shared", Status: summary.TestStatusPassed},
	)
	c := Tests(base, current)
	// identity is the (suite, name) tuple
	require.Len(t, c.Added, 1)
	require.Len(t, c.Removed, 1)
	assert.Equal(t, "beta", c.Added[0].Suite)
	assert.Equal(t, "alpha", c.Removed[0].Suite)
}
