package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Header of the durable summary table.
var Header = []string{
	"Task Suite", "Level", "Success Rate", "Successes",
	"Total Episodes", "Total Costs", "Success Costs", "Failure Costs",
	"Log File",
}

// Store is the append-only summary table for one batch. Rows are flushed
// synchronously so a crash mid-batch leaves a valid partial table. Only
// the orchestrator goroutine ever writes to it.
type Store struct {
	path    string
	f       *os.File
	w       *csv.Writer
	records []Record
}

// Open creates the output directory and a fresh summary table named with
// the batch timestamp, writing the header row before any cell runs.
func Open(outputDir, stamp string) (*Store, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("summary--%s.csv", stamp))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating summary table: %w", err)
	}
	s := &Store{path: path, f: f, w: csv.NewWriter(f)}
	if err := s.w.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing summary header: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flushing summary header: %w", err)
	}
	return s, nil
}

// Append writes one record and flushes it to disk immediately.
func (s *Store) Append(rec Record) error {
	if err := s.w.Write(Row(rec)); err != nil {
		return fmt.Errorf("writing summary row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flushing summary row: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("syncing summary table: %w", err)
	}
	s.records = append(s.records, rec)
	return nil
}

// Records returns all records appended so far, in execution order.
func (s *Store) Records() []Record {
	return s.records
}

// Path returns the location of the durable summary table.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.f.Close()
}

// Row renders a record as summary-table fields. Failed cells carry the
// literal FAILED rate; unavailable metrics render as N/A.
func Row(rec Record) []string {
	rate := "FAILED"
	if rec.Outcome != OutcomeFailed {
		rate = fmtFloat(rec.Metrics.SuccessRate, 4)
	}
	return []string{
		rec.Suite,
		fmt.Sprintf("L%d", rec.Level),
		rate,
		fmtInt(rec.Metrics.TotalSuccesses),
		fmtInt(rec.Metrics.TotalEpisodes),
		fmtFloat(rec.Metrics.TotalCosts, 2),
		fmtFloat(rec.Metrics.SuccessCosts, 2),
		fmtFloat(rec.Metrics.FailureCosts, 2),
		rec.LogFile,
	}
}

func fmtFloat(v *float64, prec int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}
