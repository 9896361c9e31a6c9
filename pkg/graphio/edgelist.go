// Package graphio loads graphs and seed partitions from edge-list files and
// PostgreSQL, and writes clustering results.
//
// An edge-list line holds a source id, a target id and an optional weight,
// separated by whitespace or commas. A line with a single id declares an
// isolated node. Blank lines and lines starting with '#' or '%' are skipped.
package graphio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dd0wney/cluso-leiden/pkg/pools"
)

// MaxLineLength bounds a single input line.
const MaxLineLength = pools.LargeBuffer

// ErrMalformedLine is wrapped by ParseError for lines that cannot be parsed.
var ErrMalformedLine = errors.New("malformed line")

// ParseError locates a parse failure in its input.
type ParseError struct {
	Source string
	Line   int
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Cause)
	}
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Edge is one relationship between original node ids.
type Edge struct {
	Source int64
	Target int64
	Weight float64
}

// EdgeList is the parsed content of one input.
type EdgeList struct {
	Edges []Edge
	// Nodes lists ids declared on single-id lines.
	Nodes []int64
	// Weighted is true when at least one line carried a weight.
	Weighted bool
}

// ParseEdgeList reads an edge list from r. Edges without a weight column
// get defaultWeight. source names the input in errors.
func ParseEdgeList(r io.Reader, source string, defaultWeight float64) (*EdgeList, error) {
	buf := pools.GetBytes(pools.MediumBuffer)
	defer pools.PutBytes(buf)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(buf[:0], MaxLineLength)

	list := &EdgeList{}
	line := 0
	for scanner.Scan() {
		line++
		fields := splitFields(scanner.Bytes())
		if len(fields) == 0 || fields[0][0] == '#' || fields[0][0] == '%' {
			continue
		}

		fail := func(format string, args ...any) error {
			return &ParseError{Source: source, Line: line, Cause: fmt.Errorf("%w: "+format, append([]any{ErrMalformedLine}, args...)...)}
		}

		if len(fields) > 3 {
			return nil, fail("expected at most 3 fields, got %d", len(fields))
		}
		src, err := parseID(fields[0])
		if err != nil {
			return nil, fail("source: %v", err)
		}
		if len(fields) == 1 {
			list.Nodes = append(list.Nodes, src)
			continue
		}
		tgt, err := parseID(fields[1])
		if err != nil {
			return nil, fail("target: %v", err)
		}

		weight := defaultWeight
		if len(fields) == 3 {
			weight, err = strconv.ParseFloat(string(fields[2]), 64)
			if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
				return nil, fail("weight %q is not a finite number", fields[2])
			}
			list.Weighted = true
		}
		list.Edges = append(list.Edges, Edge{Source: src, Target: tgt, Weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Source: source, Line: line + 1, Cause: err}
	}
	return list, nil
}

func splitFields(line []byte) [][]byte {
	return bytes.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '\r'
	})
}

func parseID(field []byte) (int64, error) {
	id, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", field)
	}
	if id < 0 {
		return 0, fmt.Errorf("negative node id %d", id)
	}
	return id, nil
}
