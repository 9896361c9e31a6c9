package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-leiden/pkg/config"
	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/graphio"
	"github.com/dd0wney/cluso-leiden/pkg/health"
	"github.com/dd0wney/cluso-leiden/pkg/leiden"
	"github.com/dd0wney/cluso-leiden/pkg/logging"
	"github.com/dd0wney/cluso-leiden/pkg/metrics"
)

type runFlags struct {
	configPath     string
	inputs         []string
	postgresURL    string
	postgresTable  string
	seedsFile      string
	orientation    string
	resolution     float64
	concurrency    int
	maxIterations  int
	theta          float64
	seed           uint64
	intermediate   bool
	consecutiveIDs bool
	output         string
	format         string
	metricsAddr    string
	logLevel       string
}

func newRunCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run [edge-list files...]",
		Short: "Load a graph, cluster it and write the communities",
		Long: `Load a graph from edge-list files (plain or snappy-compressed .sz) or a
PostgreSQL table, cluster it and write one community per node.

Flags override values from --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runClustering(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	f.StringSliceVarP(&flags.inputs, "input", "i", nil, "edge-list file (repeatable)")
	f.StringVar(&flags.postgresURL, "postgres-url", "", "read edges from this PostgreSQL database")
	f.StringVar(&flags.postgresTable, "postgres-table", "", "edge table (default edges)")
	f.StringVar(&flags.seedsFile, "seeds", "", "file of \"node seed\" lines with initial communities")
	f.StringVar(&flags.orientation, "orientation", "", "input orientation (only undirected graphs are clustered)")
	f.Float64VarP(&flags.resolution, "resolution", "r", leiden.DefaultResolution, "modularity resolution")
	f.IntVarP(&flags.concurrency, "concurrency", "p", leiden.DefaultConcurrency, "parallel tasks per phase")
	f.IntVar(&flags.maxIterations, "max-iterations", leiden.DefaultMaxIterations, "maximum number of levels")
	f.Float64Var(&flags.theta, "theta", leiden.DefaultTheta, "refinement randomness")
	f.Uint64Var(&flags.seed, "seed", 0, "random seed for reproducible runs")
	f.BoolVar(&flags.intermediate, "intermediate", false, "write the communities of every level")
	f.BoolVar(&flags.consecutiveIDs, "consecutive-ids", false, "renumber communities 0..k-1")
	f.StringVarP(&flags.output, "output", "o", "", "output file (default stdout)")
	f.StringVarP(&flags.format, "format", "f", "", "output format: tsv or json")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

// resolve loads the config file, if any, and overlays explicitly set flags.
func (rf *runFlags) resolve(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if rf.configPath != "" {
		loaded, err := config.Load(rf.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if files := slices.Concat(rf.inputs, args); len(files) > 0 {
		cfg.Input.Files = files
	}
	if rf.postgresURL != "" {
		table := graphio.DefaultPostgresTable()
		if cfg.Input.Postgres != nil {
			table = cfg.Input.Postgres.Table
		}
		if rf.postgresTable != "" {
			table.Table = rf.postgresTable
		}
		cfg.Input.Postgres = &config.PostgresConfig{URL: rf.postgresURL, Table: table}
	}
	if rf.seedsFile != "" {
		cfg.Input.SeedsFile = rf.seedsFile
	}
	if rf.orientation != "" {
		cfg.Input.Orientation = rf.orientation
	}
	if changed("resolution") {
		cfg.Algorithm.Resolution = rf.resolution
	}
	if changed("concurrency") {
		cfg.Algorithm.Concurrency = rf.concurrency
	}
	if changed("max-iterations") {
		cfg.Algorithm.MaxIterations = rf.maxIterations
	}
	if changed("theta") {
		cfg.Algorithm.Theta = rf.theta
	}
	if changed("seed") {
		seed := rf.seed
		cfg.Algorithm.Seed = &seed
	}
	if changed("intermediate") {
		cfg.Algorithm.IncludeIntermediate = rf.intermediate
	}
	if changed("consecutive-ids") {
		cfg.Algorithm.ConsecutiveIDs = rf.consecutiveIDs
	}
	if rf.output != "" {
		cfg.Output.Path = rf.output
	}
	if rf.format != "" {
		cfg.Output.Format = rf.format
	}
	if rf.metricsAddr != "" {
		cfg.Metrics.Addr = rf.metricsAddr
	}
	if rf.logLevel != "" {
		cfg.Logging.Level = rf.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runClustering(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (err error) {
	logger := logging.NewJSONLogger(stderr, cfg.LogLevel())
	registry := metrics.DefaultRegistry()

	var state health.RunState
	state.Set(health.StageLoading)
	defer func() {
		if err != nil {
			state.Set(health.StageFailed)
		}
	}()
	checker := health.NewChecker()
	checker.RegisterReadinessCheck("run", state.Check)
	checker.RegisterLivenessCheck("memory", health.MemoryCheck(nil))
	checker.RegisterCheck("memory", health.MemoryCheck(nil))
	if cfg.Metrics.Addr != "" {
		server := startMetricsServer(cfg.Metrics.Addr, registry, checker, logger)
		defer server.shutdown()
	}

	g, err := loadGraph(ctx, cfg, checker, logger, registry)
	if err != nil {
		return err
	}

	opts := []leiden.Option{leiden.WithLogger(logger), leiden.WithMetrics(registry)}
	if cfg.Input.SeedsFile != "" {
		seeds, err := graphio.LoadSeeds(cfg.Input.SeedsFile, g)
		if err != nil {
			return fmt.Errorf("failed to load seeds: %w", err)
		}
		opts = append(opts, leiden.WithSeeds(seeds))
	}

	state.Set(health.StageClustering)
	result, err := leiden.Run(ctx, g, cfg.Parameters(g), opts...)
	if err != nil {
		return err
	}

	if cfg.Output.Path == "" {
		if err := graphio.WriteResult(stdout, g, result, cfg.Output.Format); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	} else {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return err
		}
		if err := writeAndClose(f, g, result, cfg.Output.Format); err != nil {
			return err
		}
	}
	state.Set(health.StageDone)
	return nil
}

// writeAndClose writes the result to w and closes it. A failed close is
// reported, since buffered output may not have reached its destination.
func writeAndClose(w io.WriteCloser, g graph.Graph, result *leiden.Result, format string) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()
	if err := graphio.WriteResult(w, g, result, format); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func loadGraph(ctx context.Context, cfg *config.Config, checker *health.Checker, logger logging.Logger, registry *metrics.Registry) (*graph.CSR, error) {
	opts, err := cfg.LoadOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	opts.Metrics = registry

	if pg := cfg.Input.Postgres; pg != nil {
		source, err := graphio.NewPostgresSource(ctx, pg.URL, pg.Table)
		if err != nil {
			return nil, err
		}
		defer source.Close()
		checker.RegisterCheck("postgres", health.PingCheck(source.Ping))
		return source.Load(ctx, opts)
	}
	return graphio.LoadFiles(ctx, cfg.Input.Files, opts)
}
