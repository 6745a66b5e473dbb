// Command vmsim runs demand-paged workloads against the paging engine.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use: "vmsim",
	Short: "vmsim drives the demand-paged virtual memory engine with " +
		"configurable workloads.",
	Long: `vmsim drives the demand-paged virtual memory engine with ` +
		`configurable workloads. It can record paging events to a SQLite ` +
		`database and expose live engine statistics over HTTP.`,
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
