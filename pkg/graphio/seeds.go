package graphio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/leiden"
	"github.com/dd0wney/cluso-leiden/pkg/pools"
)

// ErrUnknownNode is returned for a seed whose node is not in the graph.
var ErrUnknownNode = errors.New("unknown node")

// ParseSeeds reads "node seed" lines keyed by original node id and returns
// seed values indexed by the mapped ids of g. Nodes without a line get
// leiden.MissingSeed.
func ParseSeeds(r io.Reader, source string, g graph.Graph) (leiden.SeedSlice, error) {
	seeds := make(leiden.SeedSlice, g.NodeCount())
	for i := range seeds {
		seeds[i] = leiden.MissingSeed
	}

	buf := pools.GetBytes(pools.SmallBuffer)
	defer pools.PutBytes(buf)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(buf[:0], MaxLineLength)

	line := 0
	for scanner.Scan() {
		line++
		fields := splitFields(scanner.Bytes())
		if len(fields) == 0 || fields[0][0] == '#' || fields[0][0] == '%' {
			continue
		}
		if len(fields) != 2 {
			return nil, &ParseError{Source: source, Line: line, Cause: fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedLine, len(fields))}
		}
		original, err := parseID(fields[0])
		if err != nil {
			return nil, &ParseError{Source: source, Line: line, Cause: fmt.Errorf("%w: %v", ErrMalformedLine, err)}
		}
		seed, err := strconv.ParseInt(string(fields[1]), 10, 64)
		if err != nil || seed < 0 {
			return nil, &ParseError{Source: source, Line: line, Cause: fmt.Errorf("%w: invalid seed %q", ErrMalformedLine, fields[1])}
		}
		mapped, ok := g.ToMappedNodeID(original)
		if !ok {
			return nil, &ParseError{Source: source, Line: line, Cause: fmt.Errorf("%w: %d", ErrUnknownNode, original)}
		}
		seeds[mapped] = seed
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Source: source, Line: line + 1, Cause: err}
	}
	return seeds, nil
}

// LoadSeeds reads a seed file for g.
func LoadSeeds(path string, g graph.Graph) (leiden.SeedSlice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSeeds(f, path, g)
}
