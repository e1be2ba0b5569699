package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

// DefaultSheet is the worksheet name used when none is given.
const DefaultSheet = "Results"

// XLSXWriter writes a single-sheet workbook: a header row, then one row
// per record with numbers and booleans stored as typed cells.
type XLSXWriter struct {
	out   io.Writer
	sheet string
}

// NewXLSXWriter creates an XLSX writer on out.
func NewXLSXWriter(out io.Writer, sheet string) *XLSXWriter {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXWriter{out: out, sheet: sheet}
}

// Write implements Writer.
func (w *XLSXWriter) Write(_ context.Context, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	columns := t.Columns()
	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(w.sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range t.Rows() {
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			if v, ok := rec.Get(col); ok {
				row[j] = cellValue(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(w.sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w.out); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func cellValue(v any) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string:
		return val
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return table.FormatCell(val)
	}
}
