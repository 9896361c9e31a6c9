package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/leiden"
	"github.com/dd0wney/cluso-leiden/pkg/logging"
	"github.com/dd0wney/cluso-leiden/pkg/metrics"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

type benchFlags struct {
	groups      int
	groupSize   int
	pIn         float64
	pOut        float64
	seed        uint64
	runs        int
	concurrency int
	resolution  float64
	logLevel    string
}

func newBenchCommand() *cobra.Command {
	var flags benchFlags
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Cluster a random planted-partition graph and report timing and recovery",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd.Context(), flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.groups, "groups", 20, "number of planted communities")
	f.IntVar(&flags.groupSize, "group-size", 50, "nodes per planted community")
	f.Float64Var(&flags.pIn, "p-in", 0.3, "edge probability inside a community")
	f.Float64Var(&flags.pOut, "p-out", 0.002, "edge probability between communities")
	f.Uint64Var(&flags.seed, "seed", 1, "random seed for generation and clustering")
	f.IntVar(&flags.runs, "runs", 3, "number of clustering runs")
	f.IntVarP(&flags.concurrency, "concurrency", "p", leiden.DefaultConcurrency, "parallel tasks per phase")
	f.Float64VarP(&flags.resolution, "resolution", "r", leiden.DefaultResolution, "modularity resolution")
	f.StringVar(&flags.logLevel, "log-level", "warn", "debug, info, warn or error")
	return cmd
}

// plantedPartition builds groups of groupSize nodes, joining two nodes with
// probability pIn inside a group and pOut across groups. The graph is drawn
// as a gonum graph and converted, and comes back with each node's planted
// group.
func plantedPartition(groups, groupSize int, pIn, pOut float64, seed uint64) (*graph.CSR, []int64, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	n := groups * groupSize
	planted := make([]int64, n)
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		planted[i] = int64(i / groupSize)
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p := pOut
			if planted[i] == planted[j] {
				p = pIn
			}
			if rng.Float64() < p {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}
	csr, err := graph.FromGonum(g)
	if err != nil {
		return nil, nil, err
	}
	return csr, planted, nil
}

// purity is the share of nodes that belong to the dominant planted group of
// their detected community.
func purity(found, planted []int64) float64 {
	if len(found) == 0 {
		return 1
	}
	overlap := make(map[[2]int64]int)
	for i := range found {
		overlap[[2]int64{found[i], planted[i]}]++
	}
	best := make(map[int64]int)
	for key, count := range overlap {
		best[key[0]] = max(best[key[0]], count)
	}
	total := 0
	for _, count := range best {
		total += count
	}
	return float64(total) / float64(len(found))
}

func runBench(ctx context.Context, flags benchFlags, stdout, stderr io.Writer) error {
	level, err := logging.ParseLevel(flags.logLevel)
	if err != nil {
		return err
	}
	logger := logging.NewJSONLogger(stderr, level)
	registry := metrics.NewRegistry()

	start := time.Now()
	g, planted, err := plantedPartition(flags.groups, flags.groupSize, flags.pIn, flags.pOut, flags.seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Generated %d nodes, %d relationships in %v\n",
		g.NodeCount(), g.RelationshipCount()/2, time.Since(start).Round(time.Millisecond))

	pool, err := parallel.NewWorkerPool(flags.concurrency)
	if err != nil {
		return err
	}
	defer pool.Close()

	params := leiden.DefaultParameters(g)
	params.Concurrency = flags.concurrency
	params.Gamma = leiden.GammaForResolution(g, flags.resolution)

	var total time.Duration
	for run := 0; run < flags.runs; run++ {
		seed := flags.seed + uint64(run)
		params.RandomSeed = &seed

		start := time.Now()
		result, err := leiden.Run(ctx, g, params,
			leiden.WithPool(pool),
			leiden.WithLogger(logger),
			leiden.WithMetrics(registry),
		)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		total += elapsed

		fmt.Fprintf(stdout, "run %d: %v, %d iterations, %d communities, modularity %.4f, purity %.4f\n",
			run+1, elapsed.Round(time.Microsecond), result.Iterations, result.CommunityCount(),
			result.Modularity(), purity(result.Communities, planted))
	}
	if flags.runs > 0 {
		fmt.Fprintf(stdout, "mean: %v over %d runs (%d planted communities)\n",
			(total / time.Duration(flags.runs)).Round(time.Microsecond), flags.runs, flags.groups)
	}
	return nil
}
