package leiden

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/logging"
	"github.com/dd0wney/cluso-leiden/pkg/metrics"
)

func TestRun_Fixture(t *testing.T) {
	g := fixtureGraph(t)
	params := testParams(g, 1)
	require.InDelta(t, 1.0/28, params.Gamma, 1e-15)

	result, err := Run(context.Background(), g, params)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 1, 1, 4, 4}, result.Communities)
	assert.Equal(t, 2, result.Iterations)
	assert.True(t, result.Converged)
	assert.Len(t, result.Levels, 1)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, int64(2), result.CommunityCount())
	assert.InDelta(t, 6.0/28, result.Modularity(), 1e-12)
	assert.Equal(t, map[int64][]int64{1: {0, 1, 2}, 4: {3, 4}}, result.Members())
}

func TestRun_FixtureConsecutiveIDs(t *testing.T) {
	g := fixtureGraph(t)
	params := testParams(g, 1)
	params.ConsecutiveIDs = true
	params.IncludeIntermediateCommunities = true

	result, err := Run(context.Background(), g, params)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 0, 0, 1, 1}, result.Communities)
	// the second level moves nothing, so no duplicate level is recorded
	assert.Equal(t, [][]int64{{0, 0, 0, 1, 1}}, result.Levels)
}

func TestRun_FixtureParallel(t *testing.T) {
	g := fixtureGraph(t)
	result, err := Run(context.Background(), g, testParams(g, 4))
	require.NoError(t, err)

	c := result.Communities
	assert.Equal(t, c[0], c[1])
	assert.Equal(t, c[0], c[2])
	assert.Equal(t, c[3], c[4])
	assert.NotEqual(t, c[0], c[3])
	assert.True(t, result.Converged)
}

func TestRun_MaxIterations(t *testing.T) {
	g := fixtureGraph(t)
	params := testParams(g, 1)
	params.MaxIterations = 1

	result, err := Run(context.Background(), g, params)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 1, 1, 4, 4}, result.Communities)
	assert.Equal(t, 1, result.Iterations)
	assert.False(t, result.Converged)
}

func TestRun_LastIterationSkipsCoarsening(t *testing.T) {
	g := fixtureGraph(t)
	params := testParams(g, 1)
	params.MaxIterations = 1
	registry := metrics.NewRegistry()
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)

	result, err := Run(context.Background(), g, params, WithMetrics(registry), WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 1, 1, 4, 4}, result.Communities)
	assert.Equal(t, 3.0, counterValue(t, registry.NodeMovesTotal))
	assert.Zero(t, counterValue(t, registry.RefinementMergesTotal))

	out := buf.String()
	assert.Contains(t, out, `"phase":"local_move"`)
	assert.NotContains(t, out, `"phase":"refine"`)
	assert.NotContains(t, out, `"phase":"aggregate"`)
	assert.NotContains(t, out, `"phase":"maintain"`)
}

func TestRun_HighResolutionKeepsSingletons(t *testing.T) {
	g := fixtureGraph(t)
	params := testParams(g, 1)
	params.Gamma = 1

	result, err := Run(context.Background(), g, params)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 1, 2, 3, 4}, result.Communities)
	assert.Equal(t, 1, result.Iterations)
	assert.True(t, result.Converged)
}

func TestRun_CliqueRing(t *testing.T) {
	const k, s = 4, 8
	g := cliqueRing(t, k, s, 0.1)

	for _, concurrency := range []int{1, 4} {
		result, err := Run(context.Background(), g, testParams(g, concurrency))
		require.NoError(t, err, "concurrency %d", concurrency)

		assert.Equal(t, int64(k), result.CommunityCount(), "concurrency %d", concurrency)
		for c := 0; c < k; c++ {
			base := c * s
			for i := 1; i < s; i++ {
				assert.Equal(t, result.Communities[base], result.Communities[base+i],
					"concurrency %d: clique %d split", concurrency, c)
			}
		}
		assert.True(t, result.Converged)
	}
}

func TestRun_ReproducibleWithSeed(t *testing.T) {
	g := randomGraph(7, 60, 0.08)
	params := testParams(g, 1)

	first, err := Run(context.Background(), g, params)
	require.NoError(t, err)
	second, err := Run(context.Background(), g, params)
	require.NoError(t, err)

	assert.Equal(t, first.Levels, second.Levels)
	assert.Equal(t, first.Iterations, second.Iterations)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_IntermediateLevels(t *testing.T) {
	g := randomGraph(11, 120, 0.04)
	params := testParams(g, 1)
	params.IncludeIntermediateCommunities = true

	result, err := Run(context.Background(), g, params)
	require.NoError(t, err)

	require.NotEmpty(t, result.Levels)
	assert.Equal(t, result.Levels[len(result.Levels)-1], result.Communities)
	assert.Len(t, result.Modularities, len(result.Levels))

	// later levels start from the previous partition and only improve it
	for i := 1; i < len(result.Modularities); i++ {
		assert.GreaterOrEqual(t, result.Modularities[i], result.Modularities[i-1]-1e-9)
	}
	for _, lv := range result.Levels {
		assert.Len(t, lv, int(g.NodeCount()))
	}
}

func TestRun_Seeds(t *testing.T) {
	g := fixtureGraph(t)

	var buf bytes.Buffer
	result, err := Run(context.Background(), g, testParams(g, 1),
		WithSeeds(SeedSlice{10, 10, 10, 20, 20}),
		WithLogger(logging.NewJSONLogger(&buf, logging.DebugLevel)))
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 10, 10, 20, 20}, result.Communities)
	assert.Contains(t, buf.String(), `"explicit_seeds":2`)

	// a single explicit seed: fresh ids follow the largest seed
	result, err = Run(context.Background(), g, testParams(g, 1),
		WithSeeds(SeedSlice{7, MissingSeed, MissingSeed, MissingSeed, MissingSeed}))
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 8, 8, 11, 11}, result.Communities)
}

func TestNew_Errors(t *testing.T) {
	g := fixtureGraph(t)

	_, err := New(nil, testParams(g, 1))
	assert.ErrorIs(t, err, ErrNilGraph)

	bad := testParams(g, 1)
	bad.Theta = 0
	_, err = New(g, bad)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	bad = testParams(g, 1)
	bad.Concurrency = 0
	_, err = New(g, bad)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = New(g, testParams(g, 1), WithSeeds(SeedSlice{1, -2, 3, 4, 5}))
	assert.ErrorIs(t, err, ErrInvalidSeed)

	directed := graph.NewBuilder(graph.Natural, true)
	require.NoError(t, directed.AddRelationship(0, 1, 1))
	_, err = New(directed.Build(), testParams(g, 1))
	assert.ErrorIs(t, err, ErrUnsupportedOrientation)
}

func TestRun_Cancelled(t *testing.T) {
	g := fixtureGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	registry := metrics.NewRegistry()
	result, err := Run(ctx, g, testParams(g, 1), WithMetrics(registry))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)

	counter, err := registry.RunsTotal.GetMetricWithLabelValues(metrics.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, counter))
}

func TestRun_EmptyGraph(t *testing.T) {
	g := graph.NewBuilder(graph.Undirected, true).Build()
	params := Parameters{Concurrency: 1, MaxIterations: 3, Gamma: 0, Theta: 0.01}

	result, err := Run(context.Background(), g, params)
	require.NoError(t, err)
	assert.Empty(t, result.Communities)
	assert.True(t, result.Converged)
	assert.Zero(t, result.Modularity())
}

func TestRun_CallerOwnedPool(t *testing.T) {
	g := cliqueRing(t, 3, 6, 0.5)
	pool := newTestPool(t, 3)

	for i := 0; i < 3; i++ {
		_, err := Run(context.Background(), g, testParams(g, 3), WithPool(pool))
		require.NoError(t, err)
	}
	// the pool survives every run
	assert.NoError(t, pool.RunAll(func() {}))
}

func TestRun_MetricsAndLogging(t *testing.T) {
	g := fixtureGraph(t)
	registry := metrics.NewRegistry()
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)

	_, err := Run(context.Background(), g, testParams(g, 1),
		WithMetrics(registry), WithLogger(logger))
	require.NoError(t, err)

	success, err := registry.RunsTotal.GetMetricWithLabelValues(metrics.StatusSuccess)
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, success))
	assert.Equal(t, 3.0, counterValue(t, registry.NodeMovesTotal))
	assert.Equal(t, 3.0, counterValue(t, registry.RefinementMergesTotal))

	out := buf.String()
	assert.Contains(t, out, "leiden run complete")
	assert.Contains(t, out, `"phase":"local_move"`)
	assert.Equal(t, 1, strings.Count(out, "leiden run complete"))
}

func TestPhaseError(t *testing.T) {
	cause := errors.New("boom")
	err := phaseError(PhaseAggregate, 2, cause)

	var pe *PhaseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, PhaseAggregate, pe.Phase)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "leiden aggregate (iteration 2): boom", err.Error())
	assert.Equal(t, "leiden init: boom", phaseError(PhaseInit, -1, cause).Error())
	assert.NoError(t, phaseError(PhaseInit, 0, nil))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.Counter.GetValue()
}
