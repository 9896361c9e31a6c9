package graphio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/logging"
	"github.com/dd0wney/cluso-leiden/pkg/metrics"
)

// SnappySuffix marks edge-list files compressed with the snappy framing format.
const SnappySuffix = ".sz"

// Load sources reported to metrics.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// ErrNoInputs is returned when LoadFiles is called without paths.
var ErrNoInputs = errors.New("no input files")

// LoadOptions controls how edge lists become a graph.
type LoadOptions struct {
	Orientation graph.Orientation
	// DefaultWeight is used for lines without a weight column.
	DefaultWeight float64
	// Weighted forces a relationship property even when no line has a weight.
	Weighted bool
	// Concurrency bounds the number of files parsed at once.
	Concurrency int
	Logger      logging.Logger
	Metrics     *metrics.Registry
}

// DefaultLoadOptions returns undirected loading with unit weights.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Orientation:   graph.Undirected,
		DefaultWeight: 1.0,
		Concurrency:   4,
	}
}

func (o LoadOptions) logger() logging.Logger {
	if o.Logger == nil {
		return logging.NopLogger{}
	}
	return o.Logger
}

// ReadEdgeListFile parses one file. Plain files are memory-mapped; files
// ending in SnappySuffix are streamed through a snappy reader.
func ReadEdgeListFile(path string, defaultWeight float64) (*EdgeList, error) {
	if strings.HasSuffix(path, SnappySuffix) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseEdgeList(snappy.NewReader(f), path, defaultWeight)
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return ParseEdgeList(io.NewSectionReader(reader, 0, int64(reader.Len())), path, defaultWeight)
}

// LoadFiles parses paths concurrently and builds one graph from all of them.
// Edges are inserted in path order, so the result does not depend on which
// file finishes parsing first.
func LoadFiles(ctx context.Context, paths []string, opts LoadOptions) (*graph.CSR, error) {
	if len(paths) == 0 {
		return nil, ErrNoInputs
	}
	start := time.Now()
	csr, err := loadFiles(ctx, paths, opts)
	recordLoad(opts, SourceFile, start, csr, err)
	return csr, err
}

func loadFiles(ctx context.Context, paths []string, opts LoadOptions) (*graph.CSR, error) {
	lists := make([]*EdgeList, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			list, err := ReadEdgeListFile(path, opts.DefaultWeight)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			lists[i] = list
			opts.logger().Debug("edge list parsed",
				logging.String("path", path),
				logging.Int("edges", len(list.Edges)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	weighted := opts.Weighted
	for _, list := range lists {
		weighted = weighted || list.Weighted
	}
	builder := graph.NewBuilder(opts.Orientation, weighted)
	for i, list := range lists {
		if err := addEdgeList(builder, list); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", paths[i], err)
		}
	}
	return builder.Build(), nil
}

func addEdgeList(builder *graph.Builder, list *EdgeList) error {
	for _, id := range list.Nodes {
		if err := builder.AddNode(id); err != nil {
			return err
		}
	}
	for _, e := range list.Edges {
		if err := builder.AddRelationship(e.Source, e.Target, e.Weight); err != nil {
			return err
		}
	}
	return nil
}

func recordLoad(opts LoadOptions, source string, start time.Time, g graph.Graph, err error) {
	elapsed := time.Since(start)
	if err != nil {
		opts.logger().Error("graph load failed",
			logging.String("source", source),
			logging.Error(err),
		)
		if opts.Metrics != nil {
			status := metrics.StatusError
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				status = metrics.StatusCancelled
			}
			opts.Metrics.RecordGraphLoad(source, status, elapsed, 0, 0)
		}
		return
	}

	opts.logger().Info("graph loaded",
		logging.String("source", source),
		logging.Nodes(g.NodeCount()),
		logging.Int64("relationships", g.RelationshipCount()),
		logging.Latency(elapsed),
	)
	if opts.Metrics != nil {
		opts.Metrics.RecordGraphLoad(source, metrics.StatusSuccess, elapsed, g.NodeCount(), g.RelationshipCount())
	}
}
