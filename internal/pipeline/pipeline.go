// Package pipeline runs the full reconciliation flow for one CI invocation:
// parse the report files, aggregate them into per-kind summaries, persist the
// summaries as run artifacts, recover the base summaries through the fallback
// search, and attach the comparisons. Summaries and comparisons stay separate
// values; nothing mutates a summary after aggregation.
package pipeline

import (
	"context"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/reportcard-dev/reportcard/internal/artifact"
	"github.com/reportcard-dev/reportcard/internal/compare"
	"github.com/reportcard-dev/reportcard/internal/parser/clover"
	"github.com/reportcard-dev/reportcard/internal/parser/junit"
	"github.com/reportcard-dev/reportcard/internal/summary"
)

// TestResult pairs the current test summary with its optional comparison.
// A nil Comparison means no baseline was available.
type TestResult struct {
	Summary    *summary.TestSummary    `json:"summary"`
	Comparison *compare.TestComparison `json:"comparison,omitempty"`
}

// CoverageResult pairs the current coverage summary with its optional
// comparison.
type CoverageResult struct {
	Summary    *summary.CoverageSummary    `json:"summary"`
	Comparison *compare.CoverageComparison `json:"comparison,omitempty"`
}

// Report is the pipeline output handed to the renderers.
type Report struct {
	Tests    *TestResult     `json:"tests,omitempty"`
	Coverage *CoverageResult `json:"coverage,omitempty"`
	Timers   *Timers         `json:"timers,omitempty"`
}

// Options configures one pipeline invocation. Report paths arrive already
// resolved; file discovery belongs to the caller.
type Options struct {
	TestReports     []string
	CoverageReports []string

	// Ref is the branch or SHA the current run belongs to; it keys the
	// persisted artifacts.
	Ref string
	// BaseCommit, when known, is tried before BaseBranch in the base lookup.
	BaseCommit string
	BaseBranch string

	Flags   []string
	Variant string
	Job     string

	// Store is the artifact backend. Nil disables persistence and
	// comparison, leaving bare summaries.
	Store *artifact.Store
}

func (o Options) key(kind summary.ReportKind) artifact.Key {
	return artifact.Key{Ref: o.Ref, Kind: kind, Flags: o.Flags, Variant: o.Variant, Job: o.Job}
}

// baseRef is the ref the base artifacts were named under: the base branch,
// or the base commit when no branch is configured.
func (o Options) baseRef() string {
	if o.BaseBranch != "" {
		return o.BaseBranch
	}
	return o.BaseCommit
}

// Run executes the pipeline. The test and coverage chains are independent
// and run concurrently; parsers and aggregation are pure, and each chain
// owns its retrieval. A kind with report files but zero parseable ones fails
// the run; storage trouble never does.
func Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{Timers: NewTimers()}

	g, ctx := errgroup.WithContext(ctx)
	if len(opts.TestReports) > 0 {
		g.Go(func() error {
			res, err := runTests(ctx, opts, report.Timers)
			if err != nil {
				return err
			}
			report.Tests = res
			return nil
		})
	}
	if len(opts.CoverageReports) > 0 {
		g.Go(func() error {
			res, err := runCoverage(ctx, opts, report.Timers)
			if err != nil {
				return err
			}
			report.Coverage = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func runTests(ctx context.Context, opts Options, timers *Timers) (*TestResult, error) {
	stop := timers.Observe("tests/parse")
	docs := parseAll(opts.TestReports, junit.Parse)
	stop()
	if len(docs) == 0 {
		return nil, errors.Errorf("no valid test reports among %d file(s)", len(opts.TestReports))
	}

	stop = timers.Observe("tests/aggregate")
	current := summary.AggregateTests(docs)
	stop()
	log.Infof("aggregated %d test case(s) from %d report(s): %.2f%% pass rate",
		current.Total, len(docs), current.PassRate)

	res := &TestResult{Summary: current}
	if opts.Store == nil {
		return res, nil
	}

	key := opts.key(summary.KindTest)
	stop = timers.Observe("tests/persist")
	opts.Store.Persist(ctx, key, current)
	stop()

	stop = timers.Observe("tests/retrieve")
	base := &summary.TestSummary{}
	found, err := opts.Store.FetchBase(ctx, opts.BaseCommit, opts.BaseBranch, key.WithRef(opts.baseRef()), base)
	stop()
	if err != nil {
		log.WithError(err).Warn("base test summary is unreadable, continuing without comparison")
		return res, nil
	}
	if !found {
		log.Info("no base test summary found, comparison unavailable")
		return res, nil
	}

	stop = timers.Observe("tests/compare")
	res.Comparison = compare.Tests(base, current)
	stop()
	return res, nil
}

func runCoverage(ctx context.Context, opts Options, timers *Timers) (*CoverageResult, error) {
	stop := timers.Observe("coverage/parse")
	docs := parseAll(opts.CoverageReports, clover.Parse)
	stop()
	if len(docs) == 0 {
		return nil, errors.Errorf("no valid coverage reports among %d file(s)", len(opts.CoverageReports))
	}

	stop = timers.Observe("coverage/aggregate")
	current := summary.AggregateCoverage(docs)
	stop()
	log.Infof("aggregated coverage for %d file(s) from %d report(s): %.2f%% lines",
		len(current.Files), len(docs), current.LineRate)

	res := &CoverageResult{Summary: current}
	if opts.Store == nil {
		return res, nil
	}

	key := opts.key(summary.KindCoverage)
	stop = timers.Observe("coverage/persist")
	opts.Store.Persist(ctx, key, current)
	stop()

	stop = timers.Observe("coverage/retrieve")
	base := &summary.CoverageSummary{}
	found, err := opts.Store.FetchBase(ctx, opts.BaseCommit, opts.BaseBranch, key.WithRef(opts.baseRef()), base)
	stop()
	if err != nil {
		log.WithError(err).Warn("base coverage summary is unreadable, continuing without comparison")
		return res, nil
	}
	if !found {
		log.Info("no base coverage summary found, comparison unavailable")
		return res, nil
	}

	stop = timers.Observe("coverage/compare")
	res.Comparison = compare.Coverage(base, current)
	stop()
	return res, nil
}

// parseAll reads and parses every path, collecting the documents that
// survive. Failures are logged per file; deciding whether zero survivors is
// fatal stays with the caller.
func parseAll[D any](paths []string, parse func([]byte) (D, error)) []D {
	docs := make([]D, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).Warnf("skipping unreadable report %s", path)
			continue
		}
		doc, err := parse(data)
		if err != nil {
			log.WithError(err).Warnf("skipping unparseable report %s", path)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}
