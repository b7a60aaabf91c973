package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/reportcard-dev/reportcard/internal/config"
	"github.com/reportcard-dev/reportcard/internal/pipeline"
	"github.com/reportcard-dev/reportcard/internal/render"
)

// newCmdRender re-renders a saved report JSON, so comment bodies can be
// regenerated without re-running the pipeline.
func newCmdRender() *cobra.Command {
	var input string
	var mode string
	var configFile string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render markdown from a saved report JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configFile)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(input)
			if err != nil {
				return errors.Wrapf(err, "reading report %s", input)
			}
			report := &pipeline.Report{}
			if err := json.Unmarshal(data, report); err != nil {
				return errors.Wrapf(err, "parsing report %s", input)
			}

			switch mode {
			case "comment":
				fmt.Fprintln(cmd.OutOrStdout(), render.Comment(report, settings.Display))
			case "summary":
				fmt.Fprintln(cmd.OutOrStdout(), render.JobSummary(report, settings.Display))
			default:
				return errors.Errorf("unknown render mode %q", mode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "report.json", "saved report JSON")
	cmd.Flags().StringVar(&mode, "mode", "comment", "what to render: comment or summary")
	cmd.Flags().StringVar(&configFile, "config", "", "settings file (default .reportcard.yml when present)")
	return cmd
}
