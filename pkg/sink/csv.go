package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// CSVWriter writes a header row of column names followed by one line per
// record. Missing cells are empty; nested values are compact JSON.
type CSVWriter struct {
	out io.Writer
}

// NewCSVWriter creates a CSV writer on out.
func NewCSVWriter(out io.Writer) *CSVWriter {
	return &CSVWriter{out: out}
}

// Write implements Writer.
func (w *CSVWriter) Write(_ context.Context, t *table.Table) error {
	cw := csv.NewWriter(w.out)

	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Strings()); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
