package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reportcard-dev/reportcard/internal/artifact"
	s3store "github.com/reportcard-dev/reportcard/internal/artifact/s3"
	"github.com/reportcard-dev/reportcard/internal/cistore"
	"github.com/reportcard-dev/reportcard/internal/config"
	"github.com/reportcard-dev/reportcard/internal/pipeline"
	"github.com/reportcard-dev/reportcard/internal/render"
)

type runFlags struct {
	testPatterns     []string
	coveragePatterns []string

	ref        string
	baseBranch string
	baseCommit string

	flags   []string
	variant string
	job     string

	configFile string
	outputDir  string

	backend string
	apiURL  string
	repo    string
	runID   int64
	bucket  string
	region  string

	minCoverage    float64
	failOnDecrease bool
}

func newCmdRun() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Parse reports, persist the summaries and compare against the base",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, f)
		},
	}

	cmd.Flags().StringSliceVar(&f.testPatterns, "test-reports", nil, "glob pattern(s) for JUnit XML reports")
	cmd.Flags().StringSliceVar(&f.coveragePatterns, "coverage-reports", nil, "glob pattern(s) for Clover coverage XML reports")
	cmd.Flags().StringVar(&f.ref, "ref", "", "branch or SHA of the current run (required)")
	cmd.Flags().StringVar(&f.baseBranch, "base-branch", "", "base branch to compare against (default from settings)")
	cmd.Flags().StringVar(&f.baseCommit, "base-commit", "", "exact base commit SHA, tried before the base branch")
	cmd.Flags().StringSliceVar(&f.flags, "flags", nil, "coverage flags qualifying the artifact name")
	cmd.Flags().StringVar(&f.variant, "variant", "", "matrix variant qualifying the artifact name")
	cmd.Flags().StringVar(&f.job, "job", "", "job name qualifying the artifact name")
	cmd.Flags().StringVar(&f.configFile, "config", "", "settings file (default .reportcard.yml when present)")
	cmd.Flags().StringVar(&f.outputDir, "output", "", "directory for the rendered comment, job summary and report JSON")
	cmd.Flags().StringVar(&f.backend, "backend", "", "artifact backend: ci, s3, or empty for no persistence")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "CI platform API base URL")
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository in owner/name form")
	cmd.Flags().Int64Var(&f.runID, "run-id", 0, "current CI run id")
	cmd.Flags().StringVar(&f.bucket, "bucket", "", "S3 bucket for the s3 backend")
	cmd.Flags().StringVar(&f.region, "region", "us-east-1", "S3 region for the s3 backend")
	cmd.Flags().Float64Var(&f.minCoverage, "min-coverage", 0, "fail when aggregate line coverage is below this percentage")
	cmd.Flags().BoolVar(&f.failOnDecrease, "fail-on-decrease", false, "fail when line coverage dropped against the base")

	for _, name := range []string{"base-branch", "flags", "variant", "job", "min-coverage", "fail-on-decrease"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			log.Warnf("Unable to bind flag %s\n", name)
		}
	}
	return cmd
}

func runPipeline(cmd *cobra.Command, f *runFlags) error {
	if f.ref == "" {
		return errors.New("--ref is required")
	}

	settings, err := config.Load(f.configFile)
	if err != nil {
		return err
	}
	settings.ApplyOverrides()

	testFiles, err := discover(f.testPatterns)
	if err != nil {
		return err
	}
	coverageFiles, err := discover(f.coveragePatterns)
	if err != nil {
		return err
	}
	if len(f.testPatterns) > 0 && len(testFiles) == 0 {
		return errors.Errorf("no test reports matched pattern %v", f.testPatterns)
	}
	if len(f.coveragePatterns) > 0 && len(coverageFiles) == 0 {
		return errors.Errorf("no coverage reports matched pattern %v", f.coveragePatterns)
	}
	if len(testFiles) == 0 && len(coverageFiles) == 0 {
		return errors.New("nothing to do: no report patterns given")
	}

	store, err := buildStore(f)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(cmd.Context(), pipeline.Options{
		TestReports:     testFiles,
		CoverageReports: coverageFiles,
		Ref:             f.ref,
		BaseCommit:      f.baseCommit,
		BaseBranch:      settings.BaseBranch,
		Flags:           settings.Flags,
		Variant:         settings.Variant,
		Job:             settings.Job,
		Store:           store,
	})
	if err != nil {
		return err
	}

	comment := render.Comment(report, settings.Display)
	fmt.Fprintln(cmd.OutOrStdout(), comment)

	if f.outputDir != "" {
		if err := writeOutputs(f.outputDir, report, settings); err != nil {
			return err
		}
	}

	return evaluateThresholds(report, settings)
}

// discover expands the glob patterns into concrete file paths. This is the
// file-discovery collaborator; the pipeline itself only sees resolved paths.
func discover(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad report pattern %q", pattern)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func buildStore(f *runFlags) (*artifact.Store, error) {
	switch f.backend {
	case "":
		log.Info("no artifact backend configured, skipping persistence and comparison")
		return nil, nil
	case "ci":
		if f.repo == "" || f.apiURL == "" {
			return nil, errors.New("the ci backend requires --repo and --api-url")
		}
		client := cistore.New(f.apiURL, f.repo, viper.GetString("token"), f.runID)
		return artifact.NewStore(client, client), nil
	case "s3":
		if f.bucket == "" {
			return nil, errors.New("the s3 backend requires --bucket")
		}
		if f.repo == "" || f.apiURL == "" {
			return nil, errors.New("the s3 backend still requires --repo and --api-url for run lookups")
		}
		blob, err := s3store.NewClient(f.bucket, f.region, f.runID)
		if err != nil {
			return nil, err
		}
		runs := cistore.New(f.apiURL, f.repo, viper.GetString("token"), f.runID)
		return artifact.NewStore(blob, runs), nil
	default:
		return nil, errors.Errorf("unknown backend %q", f.backend)
	}
}

func writeOutputs(dir string, report *pipeline.Report, settings config.Settings) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", dir)
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling report")
	}
	outputs := map[string][]byte{
		"report.json": raw,
		"comment.md":  []byte(render.Comment(report, settings.Display)),
		"summary.md":  []byte(render.JobSummary(report, settings.Display)),
	}
	for name, content := range outputs {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}

// evaluateThresholds turns settings violations into a non-zero exit,
// independent of storage health.
func evaluateThresholds(report *pipeline.Report, settings config.Settings) error {
	if report.Coverage == nil {
		return nil
	}
	if settings.MinCoverage > 0 && report.Coverage.Summary.LineRate < settings.MinCoverage {
		return errors.Errorf("line coverage %.2f%% is below the required %.2f%%",
			report.Coverage.Summary.LineRate, settings.MinCoverage)
	}
	if settings.FailOnCoverageDecrease && report.Coverage.Comparison != nil &&
		report.Coverage.Comparison.DeltaLineRate < 0 {
		return errors.Errorf("line coverage dropped %.2f%% against the base",
			-report.Coverage.Comparison.DeltaLineRate)
	}
	return nil
}
