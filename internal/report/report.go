// Package report renders the human-oriented views of a batch: the closing
// report file and the console table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/signalnine/gauntlet/internal/config"
	"github.com/signalnine/gauntlet/internal/result"
)

// Generate writes the human report: a header block with configuration
// values and aggregate counts, followed by a verbatim copy of the durable
// summary table.
func Generate(w io.Writer, cfg *config.Config, tally result.Tally, summaryPath string, start time.Time) error {
	fmt.Fprintln(w, "Batch Evaluation Report")
	fmt.Fprintln(w, "=======================")
	fmt.Fprintf(w, "Execution time: %s\n", start.Format(time.RFC3339))
	fmt.Fprintf(w, "Checkpoint:     %s\n", cfg.Checkpoint)
	fmt.Fprintf(w, "Model family:   %s\n", cfg.ModelFamily)
	fmt.Fprintf(w, "Trials/task:    %d\n", cfg.TrialsPerTask)
	fmt.Fprintf(w, "Seed:           %d\n", cfg.Seed)
	fmt.Fprintf(w, "Cells:          %d total, %d succeeded, %d failed\n",
		tally.Total, tally.Succeeded, tally.Failed)
	fmt.Fprintln(w)

	f, err := os.Open(summaryPath)
	if err != nil {
		return fmt.Errorf("opening summary table: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("embedding summary table: %w", err)
	}
	return nil
}

// WriteFile renders the report next to the summary table and returns its
// path.
func WriteFile(path string, cfg *config.Config, tally result.Tally, summaryPath string, start time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()
	return Generate(f, cfg, tally, summaryPath, start)
}

// WriteTable prints non-failed records as a fixed-width console table.
func WriteTable(w io.Writer, records []result.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUITE\tLEVEL\tRATE\tSUCC/TOTAL\tCOSTS\tLOG")
	fmt.Fprintln(tw, strings.Repeat("-", 72))
	for _, rec := range records {
		if rec.Outcome == result.OutcomeFailed {
			continue
		}
		row := result.Row(rec)
		fmt.Fprintf(tw, "%s\tL%d\t%s\t%s/%s\t%s\t%s\n",
			rec.Suite, rec.Level, row[2], row[3], row[4], row[5], rec.LogFile)
	}
	return tw.Flush()
}

// ReadSummary parses a durable summary table back into records so stored
// batches can be re-rendered.
func ReadSummary(path string) ([]result.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening summary table: %w", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing summary table: %w", err)
	}
	var records []result.Record
	for i, row := range rows {
		if i == 0 || len(row) != len(result.Header) {
			continue
		}
		level, err := strconv.Atoi(strings.TrimPrefix(row[1], "L"))
		if err != nil {
			return nil, fmt.Errorf("summary row %d: bad level %q", i, row[1])
		}
		rec := result.Record{
			Suite:   row[0],
			Level:   level,
			Outcome: result.OutcomeCompleted,
			LogFile: row[8],
		}
		if row[2] == "FAILED" {
			rec.Outcome = result.OutcomeFailed
		} else {
			rec.Metrics.SuccessRate = parseFloat(row[2])
		}
		rec.Metrics.TotalSuccesses = parseInt(row[3])
		rec.Metrics.TotalEpisodes = parseInt(row[4])
		rec.Metrics.TotalCosts = parseFloat(row[5])
		rec.Metrics.SuccessCosts = parseFloat(row[6])
		rec.Metrics.FailureCosts = parseFloat(row[7])
		records = append(records, rec)
	}
	return records, nil
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
