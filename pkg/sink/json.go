package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// JSONWriter writes the table as an indented JSON array of objects,
// keeping the provider's key order.
type JSONWriter struct {
	out io.Writer
}

// NewJSONWriter creates a JSON writer on out.
func NewJSONWriter(out io.Writer) *JSONWriter {
	return &JSONWriter{out: out}
}

// Write implements Writer.
func (w *JSONWriter) Write(_ context.Context, t *table.Table) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
