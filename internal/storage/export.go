package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/sepode/internal/analysis"
)

type ExportData struct {
	Run  RunMetadata    `json:"run"`
	Rows []analysis.Row `json:"rows"`
}

// ExportJSON writes a run and its rows as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, report *analysis.Report) error {
	data := ExportData{
		Run:  *meta,
		Rows: report.Rows,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
