package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/sepode/internal/analysis"
)

// Header is the column layout of report CSV files.
var Header = []string{"t", "y_euler", "y_exact", "abs_error", "rel_error_percent"}

const undefinedCell = "undefined"

// WriteCSV writes rows with the given number of decimals; prec -1 writes the
// shortest representation that round-trips exactly.
func WriteCSV(w io.Writer, rows []analysis.Row, prec int) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return err
	}

	format := func(v float64) string {
		if prec < 0 {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		return strconv.FormatFloat(v, 'f', prec, 64)
	}

	for _, row := range rows {
		rel := undefinedCell
		if pct, ok := row.RelError.Percent(); ok {
			rel = format(pct)
		}
		record := []string{format(row.T), format(row.Approx), format(row.Exact), format(row.AbsError), rel}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) ([]analysis.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}
	for i, col := range Header {
		if records[0][i] != col {
			return nil, fmt.Errorf("unexpected column %d: %q, want %q", i, records[0][i], col)
		}
	}

	rows := make([]analysis.Row, 0, len(records)-1)
	for line, record := range records[1:] {
		var vals [4]float64
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line+2, Header[j], err)
			}
			vals[j] = v
		}

		rel := analysis.Undefined
		if record[4] != undefinedCell {
			pct, err := strconv.ParseFloat(record[4], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line+2, Header[4], err)
			}
			rel = analysis.Defined(pct)
		}

		rows = append(rows, analysis.Row{
			T:        vals[0],
			Approx:   vals[1],
			Exact:    vals[2],
			AbsError: vals[3],
			RelError: rel,
		})
	}

	return rows, nil
}
