package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/sepode/internal/analysis"
	"github.com/san-kum/sepode/internal/ode"
	"github.com/san-kum/sepode/internal/sim"
)

const (
	metadataFile = "metadata.json"
	reportFile   = "report.csv"
)

var (
	// ErrRunNotFound indicates no stored run has the requested id.
	ErrRunNotFound = errors.New("storage: run not found")
	// ErrNonFiniteReport indicates a report holding NaN or Inf, typically a
	// diverged integration. Such runs are not stored.
	ErrNonFiniteReport = errors.New("storage: report has non-finite values")
)

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: slog.Default()}
}

// WithLogger sets the logger used for store events.
func (s *Store) WithLogger(l *slog.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Summary mirrors the scalar metrics of an analysis.Report.
type Summary struct {
	MaxAbsError         float64 `json:"max_abs_error"`
	MaxAbsIndex         int     `json:"max_abs_index"`
	MeanAbsError        float64 `json:"mean_abs_error"`
	MaxRelErrorPercent  float64 `json:"max_rel_error_percent"`
	MeanRelErrorPercent float64 `json:"mean_rel_error_percent"`
	UndefinedCount      int     `json:"undefined_count"`
}

type RunMetadata struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Problem    ode.Problem `json:"problem"`
	Integrator string      `json:"integrator"`
	Points     int         `json:"points"`
	ElapsedUS  int64       `json:"elapsed_us"`
	Summary    Summary     `json:"summary"`
}

func summarize(r *analysis.Report) Summary {
	return Summary{
		MaxAbsError:         r.MaxAbsError,
		MaxAbsIndex:         r.MaxAbsIndex,
		MeanAbsError:        r.MeanAbsError,
		MaxRelErrorPercent:  r.MaxRelErrorPercent,
		MeanRelErrorPercent: r.MeanRelErrorPercent,
		UndefinedCount:      r.UndefinedCount,
	}
}

// Save writes result under a new run id and returns the id.
func (s *Store) Save(result *sim.Result) (string, error) {
	if result == nil || result.Report == nil {
		return "", fmt.Errorf("storage: nothing to save")
	}
	if err := checkFinite(result.Report); err != nil {
		return "", err
	}

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", result.Integrator, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := s.writeRun(runDir, runID, now, result); err != nil {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			s.logger.Warn("failed to remove partial run", "dir", runDir, "err", rmErr)
		}
		return "", err
	}

	s.logger.Debug("run saved", "id", runID, "dir", runDir, "points", result.Report.Len())
	return runID, nil
}

func (s *Store) writeRun(runDir, runID string, now time.Time, result *sim.Result) error {
	meta := RunMetadata{
		ID:         runID,
		Timestamp:  now,
		Problem:    result.Problem,
		Integrator: result.Integrator,
		Points:     result.Report.Len(),
		ElapsedUS:  result.Elapsed.Microseconds(),
		Summary:    summarize(result.Report),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, reportFile))
	if err != nil {
		return err
	}
	if err := WriteCSV(csvFile, result.Report.Rows, -1); err != nil {
		csvFile.Close()
		return err
	}
	return csvFile.Close()
}

func checkFinite(r *analysis.Report) error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	summary := []float64{r.MaxAbsError, r.MeanAbsError, r.MaxRelErrorPercent, r.MeanRelErrorPercent}
	for _, v := range summary {
		if !finite(v) {
			return fmt.Errorf("%w: summary value %g", ErrNonFiniteReport, v)
		}
	}
	for i, row := range r.Rows {
		pct, _ := row.RelError.Percent()
		if !finite(row.T) || !finite(row.Exact) || !finite(row.Approx) || !finite(row.AbsError) || !finite(pct) {
			return fmt.Errorf("%w: row %d at t=%g", ErrNonFiniteReport, i, row.T)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Debug("skipping unreadable run", "dir", entry.Name(), "err", err)
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s metadata: %w", runID, err)
	}

	return &meta, nil
}

// LoadReport rebuilds the stored report: rows from the CSV, summaries from
// the metadata.
func (s *Store) LoadReport(runID string) (*RunMetadata, *analysis.Report, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, reportFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: read %s report: %w", runID, err)
	}

	report := &analysis.Report{
		Rows:                rows,
		MaxAbsError:         meta.Summary.MaxAbsError,
		MaxAbsIndex:         meta.Summary.MaxAbsIndex,
		MeanAbsError:        meta.Summary.MeanAbsError,
		MaxRelErrorPercent:  meta.Summary.MaxRelErrorPercent,
		MeanRelErrorPercent: meta.Summary.MeanRelErrorPercent,
		UndefinedCount:      meta.Summary.UndefinedCount,
	}
	return meta, report, nil
}
