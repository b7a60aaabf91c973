// Package version carries the build metadata stamped at link time.
package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	Version = "unknown"
	Commit  = "unknown"
)

func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of this tool",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reportcard version %s+%s\n", Version, Commit)
		},
	}
}
