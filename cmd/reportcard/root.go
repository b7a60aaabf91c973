package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reportcard-dev/reportcard/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reportcard",
	Short: "Reconcile per-commit test and coverage reports across CI runs",
	Long: `reportcard parses JUnit test and Clover coverage XML reports, aggregates
them into one summary per kind, persists the summaries as run artifacts, and
compares them against the base branch's previously persisted summaries`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loglevel := viper.GetString("log-level")
		logrusLevel, err := log.ParseLevel(loglevel)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
		log.SetOutput(os.Stderr)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initBindFlag(flag string) {
	err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	if err != nil {
		log.Warnf("Unable to bind flag %s\n", flag)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "logging level")
	initBindFlag("log-level")

	rootCmd.AddCommand(newCmdRun())
	rootCmd.AddCommand(newCmdRender())
	rootCmd.AddCommand(version.NewCmdVersion())
}

// initConfig reads in environment variables if set.
func initConfig() {
	viper.SetEnvPrefix("REPORTCARD")
	viper.AutomaticEnv()
}
