// Package main provides the entry point for the wcoj CLI driver.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/wcoj/cmd/wcoj/commands"
	"github.com/Sumatoshi-tech/wcoj/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wcoj",
		Short: "wcoj - incremental worst-case-optimal join engine for graph motifs",
		Long: `wcoj maintains multi-way conjunctive graph-motif queries incrementally
over a changing edge relation.

Commands:
  run     Load a graph, absorb an update stream, and track a motif
  report  Render a motif-tracking run's result as a table
  plot    Render a motif-tracking run's match-count timeline as an HTML chart`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "wcoj %s\n", version.String())
		},
	}
}
