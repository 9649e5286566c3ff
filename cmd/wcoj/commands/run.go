package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/wcoj/internal/observability"
	"github.com/Sumatoshi-tech/wcoj/pkg/adjacency"
	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
	"github.com/Sumatoshi-tech/wcoj/pkg/config"
	"github.com/Sumatoshi-tech/wcoj/pkg/graphstream"
	"github.com/Sumatoshi-tech/wcoj/pkg/motif"
	"github.com/Sumatoshi-tech/wcoj/pkg/snapshot"
	"github.com/Sumatoshi-tech/wcoj/pkg/worker"
)

// ErrNoMotif is returned when neither --motif nor --relations names a
// motif to track.
var ErrNoMotif = errors.New("no motif description: pass --motif or --relations")

const (
	runCmdUse   = "run"
	runCmdShort = "Load a graph, absorb an update stream, and track a motif"
)

// StepResult is one logical tick's outcome: the batch of updates absorbed
// at Time, and the signed motif-instance deltas TrackMotif computed for
// them.
type StepResult struct {
	Time       int64 `json:"time"`
	Updates    int   `json:"updates"`
	Matches    int   `json:"matches"`
	NetDelta   int64 `json:"net_delta"`
}

// RunResult is the complete output of one `wcoj run` invocation, consumed
// by the report and plot subcommands.
type RunResult struct {
	Relations []motif.Relation `json:"relations"`
	Source    int              `json:"source"`
	Steps     []StepResult     `json:"steps"`
}

// NewRunCommand creates the run subcommand.
func NewRunCommand() *cobra.Command {
	var (
		configPath   string
		graphPath    string
		updatesPath  string
		motifPath    string
		relationsArg string
		source       int
		outPath      string
		snapshotIn   string
		snapshotOut  string
	)

	cmd := &cobra.Command{
		Use:   runCmdUse,
		Short: runCmdShort,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMain(runOptions{
				configPath:   configPath,
				graphPath:    graphPath,
				updatesPath:  updatesPath,
				motifPath:    motifPath,
				relationsArg: relationsArg,
				source:       source,
				outPath:      outPath,
				snapshotIn:   snapshotIn,
				snapshotOut:  snapshotOut,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&graphPath, "graph", "", "path to the static base edge-list file (ignored when --snapshot-in is set)")
	cmd.Flags().StringVar(&updatesPath, "updates", "", "path to the update-stream file (src dst time diff per line)")
	cmd.Flags().StringVar(&motifPath, "motif", "", "path to a YAML motif description (see pkg/motif.Parse)")
	cmd.Flags().StringVar(&relationsArg, "relations", "", "comma-separated src:dst relation list, e.g. 0:1,1:2,2:0")
	cmd.Flags().IntVar(&source, "source", 0, "relation index whose changes this run tracks (ignored when --motif sets it)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the run result as JSON to this path (stdout if empty)")
	cmd.Flags().StringVar(&snapshotIn, "snapshot-in", "", "restore the base graph from a pkg/snapshot checkpoint instead of --graph")
	cmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "checkpoint the base graph to this path after the run completes")

	return cmd
}

type runOptions struct {
	configPath   string
	graphPath    string
	updatesPath  string
	motifPath    string
	relationsArg string
	source       int
	outPath      string
	snapshotIn   string
	snapshotOut  string
}

func runMain(opts runOptions) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	providers, err := observability.Init(observability.Config{
		ServiceName: "wcoj",
		Mode:        observability.ModeCLI,
		LogLevel:    parseLogLevel(cfg.Logging.Level),
		LogJSON:     cfg.Logging.Format == "json",
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	if cfg.Server.Enabled {
		diag, diagErr := observability.NewDiagnosticsServer(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), providers.Meter)
		if diagErr != nil {
			return fmt.Errorf("start diagnostics server: %w", diagErr)
		}

		defer func() { _ = diag.Close() }()

		providers.Logger.Info("wcoj.diagnostics", "addr", diag.Addr())
	}

	relations, source, err := resolveMotif(opts)
	if err != nil {
		return err
	}

	g := graphstream.New[int64](lessInt64)

	edges, err := loadBaseGraph(opts.snapshotIn, opts.graphPath)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	if initErr := g.Initialize(edges); initErr != nil {
		return fmt.Errorf("initialize graph: %w", initErr)
	}

	batches, err := loadUpdateBatches(opts.updatesPath)
	if err != nil {
		return fmt.Errorf("load updates: %w", err)
	}

	batchSize := cfg.Worker.BatchSize
	if batchSize <= 0 {
		batchSize = worker.DefaultExtensionBatchSize
	}

	result := RunResult{Relations: relations, Source: source}

	for _, batch := range batches {
		step, stepErr := processBatch(g, relations, batch, batchSize)
		if stepErr != nil {
			return fmt.Errorf("track motif at time %d: %w", batch.time, stepErr)
		}

		result.Steps = append(result.Steps, step)

		providers.Logger.Info("wcoj.step",
			"time", batch.time,
			"updates", step.Updates,
			"matches", step.Matches,
			"net_delta", step.NetDelta,
		)
	}

	if opts.snapshotOut != "" {
		if snapErr := snapshot.Write(opts.snapshotOut, g.ForwardBaseEntries()); snapErr != nil {
			return fmt.Errorf("write snapshot: %w", snapErr)
		}

		providers.Logger.Info("wcoj.snapshot", "path", opts.snapshotOut)
	}

	return writeResult(result, opts.outPath)
}

// updateBatch groups every update sharing one logical time tick, the unit
// processBatch absorbs, tracks, and merges atomically.
type updateBatch struct {
	time    int64
	updates []graphstream.EdgeUpdate[int64]
}

// processBatch absorbs one logical tick's updates, tracks the motif against
// sub-batches of at most extensionBatchSize updates at a time via
// pkg/worker, bounding how much generic-join work TrackMotif does per yield
// when a single tick carries an unusually large update burst, and only then
// merges the tick into the committed layer, so that while tracking the
// tick's own updates are still filtered by each extender's validity rule.
func processBatch(g *graphstream.GraphStreamIndex[int64], relations []motif.Relation, batch updateBatch, extensionBatchSize int) (StepResult, error) {
	g.Absorb(batch.updates)
	g.Advance(batch.time)

	w := worker.New[graphstream.EdgeUpdate[int64]](extensionBatchSize)

	var (
		matches []graphstream.Match
		trackErr error
	)

	w.Enqueue(worker.Task[graphstream.EdgeUpdate[int64]]{
		Items: batch.updates,
		Run: func(sub []graphstream.EdgeUpdate[int64]) {
			if trackErr != nil {
				return
			}

			subMatches, err := graphstream.TrackMotif(g, relations, sub, batch.time)
			if err != nil {
				trackErr = err

				return
			}

			matches = append(matches, subMatches...)
		},
	})

	w.RunToFixedPoint()
	g.MergeTo(func(t int64) bool { return t <= batch.time })

	if trackErr != nil {
		return StepResult{}, trackErr
	}

	var net int64
	for _, m := range matches {
		net += m.Diff
	}

	return StepResult{
		Time:     batch.time,
		Updates:  len(batch.updates),
		Matches:  len(matches),
		NetDelta: net,
	}, nil
}

func resolveMotif(opts runOptions) ([]motif.Relation, int, error) {
	if opts.motifPath != "" {
		data, err := os.ReadFile(opts.motifPath)
		if err != nil {
			return nil, 0, fmt.Errorf("read motif description: %w", err)
		}

		return motif.Parse(data)
	}

	if opts.relationsArg != "" {
		relations, err := parseRelationsFlag(opts.relationsArg)
		if err != nil {
			return nil, 0, err
		}

		return relations, opts.source, nil
	}

	return nil, 0, ErrNoMotif
}

func parseRelationsFlag(arg string) ([]motif.Relation, error) {
	pairs := strings.Split(arg, ",")
	relations := make([]motif.Relation, 0, len(pairs))

	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid relation %q: want src:dst", pair)
		}

		src, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid relation %q: %w", pair, err)
		}

		dst, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid relation %q: %w", pair, err)
		}

		relations = append(relations, motif.Relation{Src: src, Dst: dst})
	}

	return relations, nil
}

// loadBaseGraph restores the base graph from a pkg/snapshot checkpoint when
// snapshotPath is set, otherwise loads it from the adjacency-vector file at
// graphPath.
func loadBaseGraph(snapshotPath, graphPath string) ([]graphstream.Edge, error) {
	if snapshotPath != "" {
		entries, err := snapshot.Read(snapshotPath)
		if err != nil {
			return nil, err
		}

		return entriesToEdges(entries), nil
	}

	return loadGraph(graphPath)
}

func entriesToEdges(entries []compact.Entry[uint32, uint32]) []graphstream.Edge {
	edges := make([]graphstream.Edge, len(entries))
	for i, e := range entries {
		edges[i] = graphstream.Edge{Src: e.Key, Dst: e.Value}
	}

	return edges
}

func loadGraph(path string) ([]graphstream.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := adjacency.LoadVector(f)
	if err != nil {
		return nil, err
	}

	edges := make([]graphstream.Edge, len(entries))
	for i, e := range entries {
		edges[i] = graphstream.Edge{Src: e.Key, Dst: e.Value}
	}

	return edges, nil
}

// loadUpdateBatches reads "src dst time diff" lines, grouping consecutive
// lines that share a time value into one batch. The file must already be
// time-ordered; this mirrors how a real ingestion pipeline would deliver
// ticks in arrival order rather than requiring an upfront sort.
func loadUpdateBatches(path string) ([]updateBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var batches []updateBatch

	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed update line %q: want \"src dst time diff\"", line)
		}

		src, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed update line %q: %w", line, err)
		}

		dst, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed update line %q: %w", line, err)
		}

		tick, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed update line %q: %w", line, err)
		}

		diff, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed update line %q: %w", line, err)
		}

		update := graphstream.EdgeUpdate[int64]{Src: uint32(src), Dst: uint32(dst), Time: tick, Diff: diff}

		if n := len(batches); n > 0 && batches[n-1].time == tick {
			batches[n-1].updates = append(batches[n-1].updates, update)
			continue
		}

		batches = append(batches, updateBatch{time: tick, updates: []graphstream.EdgeUpdate[int64]{update}})
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return nil, scanErr
	}

	return batches, nil
}

func writeResult(result RunResult, outPath string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if outPath == "" {
		fmt.Println(string(data))

		return nil
	}

	if writeErr := os.WriteFile(outPath, data, 0o600); writeErr != nil {
		return fmt.Errorf("write result: %w", writeErr)
	}

	return nil
}

func lessInt64(a, b int64) bool { return a < b }

// parseLogLevel maps a config string to an slog.Level, defaulting to Info
// for anything unrecognized.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
