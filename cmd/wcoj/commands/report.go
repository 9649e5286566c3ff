package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	reportCmdUse   = "report <result.json>"
	reportCmdShort = "Render a `wcoj run` result as a table"
	reportArgCount = 1
)

// NewReportCommand creates the report subcommand.
func NewReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   reportCmdUse,
		Short: reportCmdShort,
		Args:  cobra.ExactArgs(reportArgCount),
		RunE: func(_ *cobra.Command, args []string) error {
			return runReport(args[0])
		},
	}
}

func runReport(resultPath string) error {
	result, err := loadRunResult(resultPath)
	if err != nil {
		return err
	}

	fmt.Println(relationsTable(result))
	fmt.Println()
	fmt.Println(stepsTable(result))

	return nil
}

func loadRunResult(path string) (RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunResult{}, fmt.Errorf("read result: %w", err)
	}

	var result RunResult

	if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
		return RunResult{}, fmt.Errorf("parse result: %w", unmarshalErr)
	}

	return result, nil
}

func relationsTable(result RunResult) string {
	t := table.NewWriter()
	t.SetTitle("Motif relations (source = relation " + strconv.Itoa(result.Source) + ")")
	t.AppendHeader(table.Row{"Relation", "Src Attr", "Dst Attr"})

	for i, r := range result.Relations {
		t.AppendRow(table.Row{i, r.Src, r.Dst})
	}

	return t.Render()
}

func stepsTable(result RunResult) string {
	var totalUpdates, totalMatches int

	var totalNet int64

	t := table.NewWriter()
	t.SetTitle("Tracking steps")
	t.AppendHeader(table.Row{"Time", "Updates", "Matches", "Net Delta"})

	for _, s := range result.Steps {
		t.AppendRow(table.Row{s.Time, humanize.Comma(int64(s.Updates)), humanize.Comma(int64(s.Matches)), s.NetDelta})

		totalUpdates += s.Updates
		totalMatches += s.Matches
		totalNet += s.NetDelta
	}

	t.AppendFooter(table.Row{"total", humanize.Comma(int64(totalUpdates)), humanize.Comma(int64(totalMatches)), totalNet})

	return t.Render()
}
