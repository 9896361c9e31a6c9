// Package config loads clustering run configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/graphio"
	"github.com/dd0wney/cluso-leiden/pkg/leiden"
	"github.com/dd0wney/cluso-leiden/pkg/logging"
	"github.com/dd0wney/cluso-leiden/pkg/validation"
)

// ErrInvalidConfig wraps every validation failure reported by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrNoInput is reported when neither files nor postgres is configured.
var ErrNoInput = errors.New("one of files or postgres is required")

// Config is the full description of one clustering run.
type Config struct {
	Algorithm AlgorithmConfig `yaml:"algorithm"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AlgorithmConfig holds the user-facing clustering parameters.
type AlgorithmConfig struct {
	// Resolution is divided by the graph's total weight to obtain gamma.
	Resolution          float64 `yaml:"resolution" validate:"finite,gte=0"`
	Concurrency         int     `yaml:"concurrency" validate:"lte=65536"`
	MaxIterations       int     `yaml:"maxIterations"`
	Theta               float64 `yaml:"theta" validate:"finite"`
	// Seed fixes the refinement random source when set.
	Seed                *uint64 `yaml:"seed"`
	IncludeIntermediate bool    `yaml:"includeIntermediateCommunities"`
	ConsecutiveIDs      bool    `yaml:"consecutiveIds"`
}

// InputConfig selects exactly one graph source. Orientation exists for
// graphio callers; a clustering run only accepts undirected input.
type InputConfig struct {
	Files           []string        `yaml:"files"`
	Postgres        *PostgresConfig `yaml:"postgres"`
	Orientation     string          `yaml:"orientation"`
	DefaultWeight   float64         `yaml:"defaultWeight" validate:"finite"`
	// LoadConcurrency bounds the number of files parsed at once.
	LoadConcurrency int             `yaml:"loadConcurrency"`
	SeedsFile       string          `yaml:"seedsFile"`
}

// PostgresConfig points at an edge table.
type PostgresConfig struct {
	URL   string                `yaml:"url"`
	Table graphio.PostgresTable `yaml:",inline"`
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default filled in and no input.
func Default() *Config {
	return &Config{
		Algorithm: AlgorithmConfig{
			Resolution:    leiden.DefaultResolution,
			Concurrency:   min(runtime.GOMAXPROCS(0), leiden.DefaultConcurrency),
			MaxIterations: leiden.DefaultMaxIterations,
			Theta:         leiden.DefaultTheta,
		},
		Input: InputConfig{
			Orientation:     graph.Undirected.String(),
			DefaultWeight:   1.0,
			LoadConcurrency: 4,
		},
		Output: OutputConfig{
			Format: graphio.FormatTSV,
		},
		Logging: LoggingConfig{
			Level: logging.InfoLevel.String(),
		},
	}
}

// Load reads path and overlays it on Default. The result is not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse overlays YAML data on Default. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Input.Postgres != nil {
		cfg.Input.Postgres.Table = withTableDefaults(cfg.Input.Postgres.Table)
	}
	return cfg, nil
}

func withTableDefaults(t graphio.PostgresTable) graphio.PostgresTable {
	d := graphio.DefaultPostgresTable()
	t.Schema = validation.DefaultOr(t.Schema, d.Schema)
	t.Table = validation.DefaultOr(t.Table, d.Table)
	t.SourceColumn = validation.DefaultOr(t.SourceColumn, d.SourceColumn)
	t.TargetColumn = validation.DefaultOr(t.TargetColumn, d.TargetColumn)
	return t
}

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	var errs []error
	if err := validation.Struct(c); err != nil {
		errs = append(errs, err)
	}

	cv := validation.NewConfigValidator("config")
	cv.Custom("input", func() error {
		if len(c.Input.Files) == 0 && c.Input.Postgres == nil {
			return ErrNoInput
		}
		return nil
	})
	cv.Exclusive(map[string]bool{
		"input.files":    len(c.Input.Files) > 0,
		"input.postgres": c.Input.Postgres != nil,
	})
	cv.Positive("algorithm.concurrency", c.Algorithm.Concurrency)
	cv.Positive("algorithm.maxIterations", c.Algorithm.MaxIterations)
	cv.PositiveFloat("algorithm.theta", c.Algorithm.Theta)
	cv.Positive("input.loadConcurrency", c.Input.LoadConcurrency)
	cv.OneOf("input.orientation", c.Input.Orientation, []string{graph.Undirected.String()})
	cv.OneOf("output.format", c.Output.Format, []string{graphio.FormatTSV, graphio.FormatJSON})
	cv.Custom("logging.level", func() error {
		_, err := logging.ParseLevel(c.Logging.Level)
		return err
	})
	cv.When(c.Input.Postgres != nil, func(cv *validation.ConfigValidator) {
		cv.Required("input.postgres.url", c.Input.Postgres.URL)
		cv.Custom("input.postgres", func() error {
			_, err := c.Input.Postgres.Table.Query()
			return err
		})
	})
	if cv.HasErrors() {
		errs = append(errs, cv.Validate())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Parameters maps the algorithm section onto run parameters for g.
func (c *Config) Parameters(g graph.Graph) leiden.Parameters {
	a := c.Algorithm
	return leiden.Parameters{
		Concurrency:                    a.Concurrency,
		MaxIterations:                  a.MaxIterations,
		Gamma:                          leiden.GammaForResolution(g, a.Resolution),
		Theta:                          a.Theta,
		RandomSeed:                     a.Seed,
		IncludeIntermediateCommunities: a.IncludeIntermediate,
		ConsecutiveIDs:                 a.ConsecutiveIDs,
	}
}

// LoadOptions maps the input section onto graph loading options.
func (c *Config) LoadOptions() (graphio.LoadOptions, error) {
	orientation, err := graph.ParseOrientation(c.Input.Orientation)
	if err != nil {
		return graphio.LoadOptions{}, err
	}
	return graphio.LoadOptions{
		Orientation:   orientation,
		DefaultWeight: c.Input.DefaultWeight,
		Concurrency:   c.Input.LoadConcurrency,
	}, nil
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.Level {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}
