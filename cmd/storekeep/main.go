// Command storekeep is the admin CLI for the product catalog.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverFlag string

// rootCmd is the CLI entry point. Subcommands register themselves in their
// own files.
var rootCmd = &cobra.Command{
	Use:          "storekeep",
	Short:        "Manage the product catalog from the terminal",
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "",
		"backend base URL (overrides the preferences file)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
