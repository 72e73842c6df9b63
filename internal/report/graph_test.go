package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/torspider/torspider/internal/model"
)

func TestGraphWriter(t *testing.T) {
	t.Parallel()

	graph := &model.WebGraph{
		Nodes: []model.GraphNode{
			{Domain: "abc.onion", Title: "Front Page"},
			{Domain: "def.onion", Title: model.UnknownTitle},
		},
		Edges: []model.GraphEdge{
			{Source: "abc.onion", Target: "def.onion"},
		},
	}

	t.Run("round trips through json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewGraphWriter(&buf).Write(graph); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		var decoded model.WebGraph
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid json: %v", err)
		}
		if len(decoded.Nodes) != 2 || len(decoded.Edges) != 1 {
			t.Errorf("decoded graph = %+v", decoded)
		}
		if decoded.Nodes[0].Domain != "abc.onion" || decoded.Nodes[0].Title != "Front Page" {
			t.Errorf("node 0 = %+v", decoded.Nodes[0])
		}
		if decoded.Edges[0].Source != "abc.onion" || decoded.Edges[0].Target != "def.onion" {
			t.Errorf("edge 0 = %+v", decoded.Edges[0])
		}
	})

	t.Run("indent pretty prints", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewGraphWriter(&buf, WithIndent()).Write(graph); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Errorf("output is not indented:\n%s", buf.String())
		}
	})

	t.Run("empty graph keeps arrays", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		empty := &model.WebGraph{Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}
		if err := NewGraphWriter(&buf).Write(empty); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		output := strings.TrimSpace(buf.String())
		if strings.Contains(output, "null") {
			t.Errorf("empty graph encoded null arrays: %s", output)
		}
	})
}
