package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hh-parser version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hh-parser %s (%s)\n", version, commit)
	},
}
