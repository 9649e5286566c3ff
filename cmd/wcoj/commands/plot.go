package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"
)

const (
	plotCmdUse   = "plot <result.json>"
	plotCmdShort = "Render a `wcoj run` result's match-count timeline as an HTML chart"
	plotArgCount = 1
	lineWidth    = 2
)

// NewPlotCommand creates the plot subcommand.
func NewPlotCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   plotCmdUse,
		Short: plotCmdShort,
		Args:  cobra.ExactArgs(plotArgCount),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPlot(args[0], outPath)
		},
	}

	cmd.Flags().StringVar(&outPath, "output", "timeline.html", "path to write the rendered HTML chart")

	return cmd
}

func runPlot(resultPath, outPath string) error {
	result, err := loadRunResult(resultPath)
	if err != nil {
		return err
	}

	line := buildTimelineChart(result)

	f, createErr := os.Create(outPath)
	if createErr != nil {
		return fmt.Errorf("create chart output: %w", createErr)
	}
	defer f.Close()

	if renderErr := line.Render(f); renderErr != nil {
		return fmt.Errorf("render chart: %w", renderErr)
	}

	return nil
}

func buildTimelineChart(result RunResult) *charts.Line {
	labels := make([]string, len(result.Steps))
	netData := make([]opts.LineData, len(result.Steps))
	matchData := make([]opts.LineData, len(result.Steps))

	for i, s := range result.Steps {
		labels[i] = strconv.FormatInt(s.Time, 10)
		netData[i] = opts.LineData{Value: s.NetDelta}
		matchData[i] = opts.LineData{Value: s.Matches}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "100%", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Motif-instance deltas over time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (tick)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Net Delta", netData,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("Matches", matchData,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)

	return line
}
