package graphio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
)

// ErrMissingColumn is returned when a PostgresTable lacks a required column name.
var ErrMissingColumn = errors.New("missing column name")

// PostgresTable names the relation holding the edges. WeightColumn is
// optional; without it every edge gets the load's default weight.
type PostgresTable struct {
	Schema       string `yaml:"schema"`
	Table        string `yaml:"table" validate:"required"`
	SourceColumn string `yaml:"sourceColumn" validate:"required"`
	TargetColumn string `yaml:"targetColumn" validate:"required"`
	WeightColumn string `yaml:"weightColumn"`
}

// DefaultPostgresTable reads public.edges(source, target, weight).
func DefaultPostgresTable() PostgresTable {
	return PostgresTable{
		Schema:       "public",
		Table:        "edges",
		SourceColumn: "source",
		TargetColumn: "target",
		WeightColumn: "weight",
	}
}

// Query builds the SELECT statement for the table with quoted identifiers.
func (t PostgresTable) Query() (string, error) {
	switch {
	case t.Table == "":
		return "", fmt.Errorf("%w: table", ErrMissingColumn)
	case t.SourceColumn == "":
		return "", fmt.Errorf("%w: source", ErrMissingColumn)
	case t.TargetColumn == "":
		return "", fmt.Errorf("%w: target", ErrMissingColumn)
	}

	relation := pgx.Identifier{t.Table}
	if t.Schema != "" {
		relation = pgx.Identifier{t.Schema, t.Table}
	}
	weight := "NULL::double precision"
	if t.WeightColumn != "" {
		weight = pgx.Identifier{t.WeightColumn}.Sanitize() + "::double precision"
	}
	return fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		pgx.Identifier{t.SourceColumn}.Sanitize(),
		pgx.Identifier{t.TargetColumn}.Sanitize(),
		weight,
		relation.Sanitize(),
	), nil
}

// PostgresSource reads edges from a PostgreSQL table.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table PostgresTable
}

// NewPostgresSource connects to databaseURL and verifies the connection.
func NewPostgresSource(ctx context.Context, databaseURL string, table PostgresTable) (*PostgresSource, error) {
	if _, err := table.Query(); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Loading is a single streaming query; a small pool suffices.
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PostgresSource{pool: pool, table: table}, nil
}

// Load streams every row of the table into a graph.
func (s *PostgresSource) Load(ctx context.Context, opts LoadOptions) (*graph.CSR, error) {
	start := time.Now()
	csr, err := s.load(ctx, opts)
	recordLoad(opts, SourcePostgres, start, csr, err)
	return csr, err
}

func (s *PostgresSource) load(ctx context.Context, opts LoadOptions) (*graph.CSR, error) {
	query, err := s.table.Query()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("edge query failed: %w", err)
	}
	defer rows.Close()

	builder := graph.NewBuilder(opts.Orientation, opts.Weighted || s.table.WeightColumn != "")
	var (
		source, target int64
		weight         *float64
	)
	row := 0
	for rows.Next() {
		row++
		if err := rows.Scan(&source, &target, &weight); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		w := opts.DefaultWeight
		if weight != nil {
			w = *weight
		}
		if err := builder.AddRelationship(source, target, w); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("edge query failed: %w", err)
	}
	return builder.Build(), nil
}

// Ping checks database connectivity.
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}
