package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-leiden/pkg/config"
	"github.com/dd0wney/cluso-leiden/pkg/graphio"
	"github.com/dd0wney/cluso-leiden/pkg/leiden"
)

const fixtureEdges = "0 3 4\n1 0 3\n2 0 2\n2 1 0\n3 4 5\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), err
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.txt")
	require.NoError(t, os.WriteFile(path, []byte(fixtureEdges), 0o600))
	return path
}

func TestRunCommand_TSV(t *testing.T) {
	path := writeFixture(t)
	out, err := execute(t, "run", path, "--seed", "42", "--concurrency", "1", "--consecutive-ids")
	require.NoError(t, err)
	assert.Equal(t, "0\t0\n1\t0\n2\t0\n3\t1\n4\t1\n", out)
}

func TestRunCommand_JSONWithConfig(t *testing.T) {
	dir := t.TempDir()
	edges := writeFixture(t)
	cfgPath := filepath.Join(dir, "leiden.yaml")
	cfg := "algorithm:\n  seed: 42\n  concurrency: 1\ninput:\n  files: [" + edges + "]\noutput:\n  format: json\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, err := execute(t, "run", "--config", cfgPath)
	require.NoError(t, err)

	var doc graphio.ResultDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, int64(2), doc.Communities)
	assert.True(t, doc.Converged)
	assert.InDelta(t, 6.0/28, doc.Modularity, 1e-12)
}

func TestRunCommand_OutputFileAndSeeds(t *testing.T) {
	dir := t.TempDir()
	edges := writeFixture(t)
	seeds := filepath.Join(dir, "seeds.txt")
	require.NoError(t, os.WriteFile(seeds, []byte("0 10\n1 10\n2 10\n3 20\n4 20\n"), 0o600))
	output := filepath.Join(dir, "out.tsv")

	_, err := execute(t, "run", "-i", edges, "--seeds", seeds, "--seed", "1", "-p", "1", "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "0\t10\n1\t10\n2\t10\n3\t20\n4\t20\n", string(data))
}

func TestRunCommand_Errors(t *testing.T) {
	_, err := execute(t, "run")
	assert.ErrorIs(t, err, config.ErrNoInput)

	_, err = execute(t, "run", writeFixture(t), "--theta", "0")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
}

func (f *failingCloser) Close() error { return f.closeErr }

func TestWriteAndClose_ReportsCloseError(t *testing.T) {
	g, err := graphio.LoadFiles(context.Background(), []string{writeFixture(t)}, graphio.DefaultLoadOptions())
	require.NoError(t, err)
	seed := uint64(42)
	params := leiden.DefaultParameters(g)
	params.RandomSeed = &seed
	result, err := leiden.Run(context.Background(), g, params)
	require.NoError(t, err)

	diskFull := errors.New("no space left on device")
	w := &failingCloser{closeErr: diskFull}
	err = writeAndClose(w, g, result, graphio.FormatTSV)
	require.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "failed to close output")
	assert.NotEmpty(t, w.String())

	ok := &failingCloser{}
	require.NoError(t, writeAndClose(ok, g, result, graphio.FormatTSV))

	// a write failure wins over the close error
	err = writeAndClose(&failingCloser{closeErr: diskFull}, g, result, "xml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, diskFull)
}

func TestRunFlags_OverlayConfig(t *testing.T) {
	cmd := newRunCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--resolution", "2", "--postgres-url", "postgres://localhost/g", "--postgres-table", "links"}))

	var flags runFlags
	flags.resolution = 2
	flags.postgresURL = "postgres://localhost/g"
	flags.postgresTable = "links"
	cfg, err := flags.resolve(cmd, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Algorithm.Resolution)
	require.NotNil(t, cfg.Input.Postgres)
	assert.Equal(t, "links", cfg.Input.Postgres.Table.Table)
	assert.Equal(t, "source", cfg.Input.Postgres.Table.SourceColumn)
}

func TestBenchCommand(t *testing.T) {
	out, err := execute(t, "bench", "--groups", "4", "--group-size", "10", "--p-in", "0.9", "--p-out", "0", "--runs", "2", "-p", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 40 nodes")
	assert.Equal(t, 2, strings.Count(out, "purity 1.0000"))
	assert.Contains(t, out, "mean:")
}

func TestPurity(t *testing.T) {
	planted := []int64{0, 0, 0, 1, 1, 1}
	assert.Equal(t, 1.0, purity([]int64{5, 5, 5, 9, 9, 9}, planted))
	assert.InDelta(t, 4.0/6, purity([]int64{5, 5, 5, 5, 5, 5}, planted), 1e-12)
	assert.Equal(t, 1.0, purity(nil, nil))
}

func TestPlantedPartition(t *testing.T) {
	g, planted, err := plantedPartition(3, 5, 1, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(15), g.NodeCount())
	assert.Equal(t, int64(3*10*2), g.RelationshipCount())
	assert.Equal(t, int64(2), planted[14])

	// same seed, same graph, however gonum iterates its maps
	again, _, err := plantedPartition(3, 5, 1, 0, 7)
	require.NoError(t, err)
	for v := int64(0); v < g.NodeCount(); v++ {
		assert.Equal(t, g.ToOriginalNodeID(v), again.ToOriginalNodeID(v))
		assert.Equal(t, g.Degree(v), again.Degree(v))
	}
}
