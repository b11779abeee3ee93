package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/ode"
	"github.com/san-kum/sepode/internal/sim"
)

func referenceResult(t *testing.T) *sim.Result {
	t.Helper()
	result, err := sim.New(nil).Run(context.Background(), ode.DefaultProblem())
	require.NoError(t, err)
	return result
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	result := referenceResult(t)
	runID, err := st.Save(result)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	require.Equal(t, "euler", meta.Integrator)
	require.Equal(t, ode.DefaultProblem(), meta.Problem)
	require.Equal(t, 6, meta.Points)
	require.InDelta(t, result.Report.MaxAbsError, meta.Summary.MaxAbsError, 1e-15)

	_, report, err := st.LoadReport(runID)
	require.NoError(t, err)
	require.Equal(t, result.Report.Rows, report.Rows, "lossless csv should round-trip rows exactly")
	require.Equal(t, result.Report.MaxRelErrorPercent, report.MaxRelErrorPercent)
	require.Equal(t, 5, report.MaxAbsIndex)
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	require.Empty(t, runs)

	first, err := st.Save(referenceResult(t))
	require.NoError(t, err)
	second, err := st.Save(referenceResult(t))
	require.NoError(t, err)

	// Stray directories without metadata are skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, first, runs[0].ID)
	require.Equal(t, second, runs[1].ID)
}

func TestStoreList_MissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestStoreLoad_NotFound(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("nope")
	require.ErrorIs(t, err, ErrRunNotFound)

	_, _, err = st.LoadReport("nope")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	runID, err := st.Save(referenceResult(t))
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(tmpDir, runID, "metadata.json"))
	require.FileExists(t, filepath.Join(tmpDir, runID, "report.csv"))
}

func TestStoreSave_Nil(t *testing.T) {
	_, err := New(t.TempDir()).Save(nil)
	require.Error(t, err)
}

func TestCSV_FixedPrecision(t *testing.T) {
	rows := []analysis.Row{
		{T: 0, Exact: 2, Approx: 2, AbsError: 0, RelError: analysis.Defined(0)},
		{T: 0.2, Exact: 1.809674836071919, Approx: 1.8, AbsError: 0.00967483607191899, RelError: analysis.Defined(0.5346173731917052)},
		{T: 0.4, Exact: 0, Approx: 0.1, AbsError: 0.1, RelError: analysis.Undefined},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, 8))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "t,y_euler,y_exact,abs_error,rel_error_percent", lines[0])
	require.Equal(t, "0.20000000,1.80000000,1.80967484,0.00967484,0.53461737", lines[2])
	require.True(t, strings.HasSuffix(lines[3], ",undefined"))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, back, 3)
	require.True(t, back[2].RelError.IsUndefined())
	require.InDelta(t, 1.80967484, back[1].Exact, 1e-12)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "time,a,b,c,d\n"},
		{"bad number", "t,y_euler,y_exact,abs_error,rel_error_percent\n0,x,2,0,0\n"},
		{"bad relative", "t,y_euler,y_exact,abs_error,rel_error_percent\n0,2,2,0,nan%\n"},
		{"short row", "t,y_euler,y_exact,abs_error,rel_error_percent\n0,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	runID, err := st.Save(referenceResult(t))
	require.NoError(t, err)

	meta, report, err := st.LoadReport(runID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, meta, report))

	var decoded ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, runID, decoded.Run.ID)
	require.Len(t, decoded.Rows, 6)
	require.Contains(t, buf.String(), `"rel_error_percent"`)
}

func TestStoreSaveRejectsDivergedRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	p := ode.Problem{K: 1000, Y0: 2, TStart: 0, TEnd: 100, H: 0.2}
	result, err := sim.New(nil).Run(context.Background(), p)
	require.NoError(t, err)

	runID, err := st.Save(result)
	require.ErrorIs(t, err, ErrNonFiniteReport)
	require.Empty(t, runID)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStoreSaveRemovesPartialRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	result := referenceResult(t)
	result.Problem.K = math.NaN()

	_, err := st.Save(result)
	require.Error(t, err)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
