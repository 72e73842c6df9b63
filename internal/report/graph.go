package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/torspider/torspider/internal/model"
)

// GraphWriter exports the visible web graph as JSON for visualization
// tools.
type GraphWriter struct {
	output io.Writer

	// indent enables pretty-printed output.
	indent bool
}

// GraphOption configures a GraphWriter.
type GraphOption func(*GraphWriter)

// WithIndent enables pretty-printed JSON.
func WithIndent() GraphOption {
	return func(w *GraphWriter) { w.indent = true }
}

// NewGraphWriter creates a GraphWriter that outputs to the given
// writer.
func NewGraphWriter(output io.Writer, opts ...GraphOption) *GraphWriter {
	w := &GraphWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write serializes the graph.
func (w *GraphWriter) Write(graph *model.WebGraph) error {
	enc := json.NewEncoder(w.output)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(graph); err != nil {
		return fmt.Errorf("failed to encode web graph: %w", err)
	}
	return nil
}
