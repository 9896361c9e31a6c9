package graphio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dd0wney/cluso-leiden/pkg/graph"
	"github.com/dd0wney/cluso-leiden/pkg/leiden"
)

// Output formats understood by WriteResult.
const (
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

// NodeAssignment is the JSON form of one node's communities.
type NodeAssignment struct {
	Node      int64   `json:"node"`
	Community int64   `json:"community"`
	Levels    []int64 `json:"levels,omitempty"`
}

// ResultDocument is the JSON form of a clustering result.
type ResultDocument struct {
	RunID        string           `json:"runId"`
	Iterations   int              `json:"iterations"`
	Converged    bool             `json:"converged"`
	Communities  int64            `json:"communityCount"`
	Modularity   float64          `json:"modularity"`
	Modularities []float64        `json:"modularities"`
	Nodes        []NodeAssignment `json:"nodes"`
}

// NewResultDocument pairs each result entry with its original node id.
func NewResultDocument(g graph.Graph, result *leiden.Result) *ResultDocument {
	doc := &ResultDocument{
		RunID:        result.RunID,
		Iterations:   result.Iterations,
		Converged:    result.Converged,
		Communities:  result.CommunityCount(),
		Modularity:   result.Modularity(),
		Modularities: result.Modularities,
		Nodes:        make([]NodeAssignment, len(result.Communities)),
	}
	intermediate := len(result.Levels) > 1
	for n, c := range result.Communities {
		a := NodeAssignment{Node: g.ToOriginalNodeID(int64(n)), Community: c}
		if intermediate {
			a.Levels = make([]int64, len(result.Levels))
			for l, level := range result.Levels {
				a.Levels[l] = level[n]
			}
		}
		doc.Nodes[n] = a
	}
	return doc
}

// WriteResult writes result in the given format. TSV rows are
// "node<TAB>community", followed by one column per level when intermediate
// levels were kept.
func WriteResult(w io.Writer, g graph.Graph, result *leiden.Result, format string) error {
	doc := NewResultDocument(g, result)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatTSV, "":
		bw := bufio.NewWriter(w)
		var row []byte
		for _, a := range doc.Nodes {
			row = strconv.AppendInt(row[:0], a.Node, 10)
			row = append(row, '\t')
			row = strconv.AppendInt(row, a.Community, 10)
			for _, c := range a.Levels {
				row = append(row, '\t')
				row = strconv.AppendInt(row, c, 10)
			}
			row = append(row, '\n')
			if _, err := bw.Write(row); err != nil {
				return err
			}
		}
		return bw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
