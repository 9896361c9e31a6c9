// Package leiden implements the Leiden community detection algorithm.
//
// A run alternates four phases per level: a queue-driven local move that
// greedily improves the modularity gain, a randomized refinement that splits
// each local move community into well-connected parts, aggregation of the
// refined communities into a coarser graph, and maintenance of the local
// move partition on that coarser graph. Levels repeat until the local move
// stops changing anything or MaxIterations is reached.
package leiden

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/logging"
	"github.com/dd0wney/cluso-leiden/pkg/metrics"
	"github.com/dd0wney/cluso-leiden/pkg/parallel"
)

// Leiden is a configured clustering run over one root graph.
type Leiden struct {
	graph      graph.Graph
	params     Parameters
	seedValues SeedValues
	seeds      *SeedMap
	pool       *parallel.WorkerPool
	logger     logging.Logger
	metrics    *metrics.Registry
}

// Option customizes a Leiden run.
type Option func(*Leiden)

// WithPool runs every phase on pool. The caller keeps ownership of it; when
// absent a pool sized to Concurrency is created and closed per run.
func WithPool(pool *parallel.WorkerPool) Option {
	return func(l *Leiden) { l.pool = pool }
}

// WithLogger sets the logger; phases log at debug level, runs at info.
func WithLogger(logger logging.Logger) Option {
	return func(l *Leiden) { l.logger = logger }
}

// WithMetrics records runs and phases in registry.
func WithMetrics(registry *metrics.Registry) Option {
	return func(l *Leiden) { l.metrics = registry }
}

// WithSeeds starts the first level from the given seed communities.
func WithSeeds(values SeedValues) Option {
	return func(l *Leiden) { l.seedValues = values }
}

// New validates params and seeds against g. Nothing runs until Run.
func New(g graph.Graph, params Parameters, opts ...Option) (*Leiden, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if g.Orientation() != graph.Undirected {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOrientation, g.Orientation())
	}

	l := &Leiden{
		graph:  g,
		params: params,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.seedValues != nil {
		seeds, err := NewSeedMap(g.NodeCount(), l.seedValues)
		if err != nil {
			return nil, err
		}
		l.seeds = seeds
	}
	return l, nil
}

// Run clusters g with params. It is shorthand for New followed by Run.
func Run(ctx context.Context, g graph.Graph, params Parameters, opts ...Option) (*Result, error) {
	l, err := New(g, params, opts...)
	if err != nil {
		return nil, err
	}
	return l.Run(ctx)
}

// Run executes the algorithm. ctx is checked between phases; on
// cancellation the partial state is discarded and ctx.Err() is returned.
func (l *Leiden) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := l.logger.With(logging.Component("leiden"), logging.RunID(runID))

	pool := l.pool
	if pool == nil {
		p, err := parallel.NewWorkerPool(l.params.Concurrency)
		if err != nil {
			return nil, fmt.Errorf("create worker pool: %w", err)
		}
		defer p.Close()
		pool = p
	}

	if l.metrics != nil {
		l.metrics.RunStarted()
		l.metrics.SetPoolWorkers(pool.Workers())
	}
	start := time.Now()

	result, err := l.run(ctx, pool, logger)

	duration := time.Since(start)
	status := metrics.StatusSuccess
	switch {
	case err == nil:
		result.RunID = runID
		logger.Info("leiden run complete",
			logging.Nodes(l.graph.NodeCount()),
			logging.Communities(result.CommunityCount()),
			logging.Int("iterations", result.Iterations),
			logging.Bool("converged", result.Converged),
			logging.Modularity(result.Modularity()),
			logging.Latency(duration),
		)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = metrics.StatusCancelled
		logger.Warn("leiden run cancelled", logging.Error(err), logging.Latency(duration))
	default:
		status = metrics.StatusError
		logger.Error("leiden run failed", logging.Error(err), logging.Latency(duration))
	}

	if l.metrics != nil {
		iterations := 0
		if result != nil {
			iterations = result.Iterations
			l.metrics.RecordOutcome(result.CommunityCount(), result.Modularity())
		}
		l.metrics.RecordRun(status, duration, iterations)
	}
	return result, err
}

// level is the state of one working graph between phases.
type level struct {
	graph            graph.Graph
	communities      []int64
	nodeVolumes      []float64
	communityVolumes *parallel.AtomicDoubleArray
	labels           []int64
}

func (l *Leiden) run(ctx context.Context, pool *parallel.WorkerPool, logger logging.Logger) (*Result, error) {
	p := l.params
	root := l.graph
	n := root.NodeCount()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return &Result{Communities: []int64{}, Levels: [][]int64{{}}, Converged: true}, nil
	}

	var cur *level
	err := l.phase(logger, PhaseInit, -1, func() error {
		volumes, err := InitVolumes(root, pool, p.Concurrency)
		if err != nil {
			return err
		}
		cur = l.initialLevel(volumes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if l.seeds != nil {
		logger.Debug("seed partition",
			logging.Int64("explicit_seeds", l.seeds.ExplicitCount()),
			logging.Communities(l.seeds.CommunitiesCount()),
		)
	}

	rng := newRand(p.RandomSeed)
	dendrogram := NewDendrogramTracker(n, p.IncludeIntermediateCommunities, pool, p.Concurrency)
	result := &Result{}

	for iteration := 0; iteration < p.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Iterations++
		nodeCount := cur.graph.NodeCount()
		if l.metrics != nil {
			l.metrics.SetLevelNodes(nodeCount)
		}

		var moved LocalMoveResult
		err := l.phase(logger, PhaseLocalMove, iteration, func() error {
			if p.Concurrency == 1 {
				moved = localMoveSequential(cur.graph, cur.communities, cur.nodeVolumes, cur.communityVolumes, p.Gamma)
				return nil
			}
			var err error
			moved, err = localMoveParallel(cur.graph, cur.communities, cur.nodeVolumes, cur.communityVolumes, p.Gamma, pool, p.Concurrency)
			return err
		}, logging.Nodes(nodeCount))
		if err != nil {
			return nil, err
		}
		if l.metrics != nil {
			l.metrics.RecordMoves(moved.Moves)
		}
		logger.Debug("local move result",
			logging.Iteration(iteration),
			logging.Moves(moved.Moves),
			logging.Communities(moved.Communities),
		)

		// with zero moves the partition equals the previous level's output
		unchanged := iteration > 0 && moved.Moves == 0
		if !unchanged {
			if err := l.recordLevel(logger, iteration, dendrogram, cur, result, pool); err != nil {
				return nil, err
			}
		}
		if unchanged || moved.Communities == nodeCount {
			result.Converged = true
			break
		}
		// nothing would consume a coarser graph
		if iteration == p.MaxIterations-1 {
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var refined *RefinementResult
		err = l.phase(logger, PhaseRefine, iteration, func() error {
			var err error
			refined, err = refine(cur.graph, cur.communities, cur.nodeVolumes, cur.communityVolumes, p.Gamma, p.Theta, rng, pool, p.Concurrency)
			return err
		})
		if err != nil {
			return nil, err
		}
		if l.metrics != nil {
			l.metrics.RecordMerges(refined.Merges)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			coarse        *graph.CSR
			coarseVolumes []float64
		)
		err = l.phase(logger, PhaseAggregate, iteration, func() error {
			var err error
			coarse, coarseVolumes, err = aggregate(cur.graph, refined, pool, p.Concurrency)
			if err != nil {
				return err
			}
			return dendrogram.Advance(refined.Communities, coarse)
		})
		if err != nil {
			return nil, err
		}

		err = l.phase(logger, PhaseMaintain, iteration, func() error {
			seed := maintainPartition(coarse, cur.communities, coarseVolumes, cur.labels)
			cur = &level{
				graph:            coarse,
				communities:      seed.communities,
				nodeVolumes:      coarseVolumes,
				communityVolumes: seed.volumes,
				labels:           seed.labels,
			}
			return nil
		}, logging.Nodes(coarse.NodeCount()))
		if err != nil {
			return nil, err
		}
	}

	levels := dendrogram.Levels()
	if p.ConsecutiveIDs {
		relabeled := make([][]int64, len(levels))
		for i, lv := range levels {
			relabeled[i] = consecutiveIDs(lv)
		}
		levels = relabeled
	}
	result.Levels = levels
	result.Communities = levels[len(levels)-1]
	return result, nil
}

// initialLevel builds the first working state: singletons, or the seed
// partition when seeds were given.
func (l *Leiden) initialLevel(volumes *Volumes) *level {
	n := l.graph.NodeCount()
	cur := &level{
		graph:       l.graph,
		nodeVolumes: volumes.Node,
	}

	if l.seeds == nil {
		cur.communities = make([]int64, n)
		cur.labels = make([]int64, n)
		for v := int64(0); v < n; v++ {
			cur.communities[v] = v
			cur.labels[v] = v
		}
		cur.communityVolumes = volumes.Community
		return cur
	}

	cur.communities = l.seeds.Communities()
	cur.labels = l.seeds.Labels(n)
	cur.communityVolumes = parallel.NewAtomicDoubleArray(n)
	for v := int64(0); v < n; v++ {
		cur.communityVolumes.Add(cur.communities[v], volumes.Node[v])
	}
	return cur
}

// recordLevel appends the current local move partition to the dendrogram
// and scores it on the root graph.
func (l *Leiden) recordLevel(logger logging.Logger, iteration int, dendrogram *DendrogramTracker, cur *level, result *Result, pool *parallel.WorkerPool) error {
	err := l.phase(logger, PhaseDendrogram, iteration, func() error {
		return dendrogram.AppendLevel(cur.communities, cur.labels)
	})
	if err != nil {
		return err
	}

	return l.phase(logger, PhaseModularity, iteration, func() error {
		q, err := Modularity(l.graph, dendrogram.Latest(), l.params.Gamma, pool, l.params.Concurrency)
		if err != nil {
			return err
		}
		result.Modularities = append(result.Modularities, q)
		return nil
	})
}

// phase times fn, logs it at debug level and records it in metrics.
func (l *Leiden) phase(logger logging.Logger, name string, iteration int, fn func() error, fields ...logging.Field) error {
	fields = append(fields, logging.Phase(name), logging.Iteration(iteration))
	timer := logging.StartTimer(logger, "phase complete", fields...)

	if err := fn(); err != nil {
		timer.EndError(err)
		return phaseError(name, iteration, err)
	}

	elapsed := timer.End()
	if l.metrics != nil {
		l.metrics.RecordPhase(name, elapsed)
	}
	return nil
}
