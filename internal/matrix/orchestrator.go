// Package matrix expands the configured suite × level matrix and drives
// the cells sequentially.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/signalnine/gauntlet/internal/config"
	"github.com/signalnine/gauntlet/internal/report"
	"github.com/signalnine/gauntlet/internal/result"
	"github.com/signalnine/gauntlet/internal/runner"
)

// interCellDelay throttles successive evaluation launches. Not a
// correctness requirement.
const interCellDelay = 2 * time.Second

type Cell struct {
	Suite string
	Level int
}

// Expand computes the Cartesian product in suite-major, level-minor order.
// This ordering is a user-visible contract: it fixes both execution order
// and report row order.
func Expand(suites []string, levels []int) []Cell {
	cells := make([]Cell, 0, len(suites)*len(levels))
	for _, s := range suites {
		for _, l := range levels {
			cells = append(cells, Cell{Suite: s, Level: l})
		}
	}
	return cells
}

// Run executes the full matrix one cell at a time, tallies outcomes, and
// renders the closing report. A failed cell never aborts the batch; only
// configuration and summary I/O errors do.
func Run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	batchStamp := start.Format("2006-01-02T15-04-05")
	// Log files are addressed by day, not by batch: a re-run on the same
	// day derives the same log paths, which is what lets skip-existing
	// resume from prior results. The summary table stays unique per batch.
	runStamp := start.Format("2006-01-02")
	cells := Expand(cfg.Suites, cfg.Levels)

	if cfg.DryRun {
		for i, c := range cells {
			fmt.Printf("[%d/%d] %s L%d\n", i+1, len(cells), c.Suite, c.Level)
			if err := runner.RunCell(ctx, &runner.CellOpts{
				Cfg: cfg, Suite: c.Suite, Level: c.Level, Stamp: runStamp,
			}); err != nil {
				return err
			}
		}
		fmt.Printf("dry run: %d cells expanded, nothing executed\n", len(cells))
		return nil
	}

	store, err := result.Open(cfg.OutputDir, batchStamp)
	if err != nil {
		return err
	}
	defer store.Close()

	tally := result.Tally{Total: len(cells)}
	for i, c := range cells {
		fmt.Printf("[%d/%d] %s L%d\n", i+1, len(cells), c.Suite, c.Level)
		err := runner.RunCell(ctx, &runner.CellOpts{
			Cfg:   cfg,
			Suite: c.Suite,
			Level: c.Level,
			Stamp: runStamp,
			Store: store,
		})
		switch {
		case err == nil:
			tally.Succeeded++
		case errors.Is(err, runner.ErrCellFailed):
			tally.Failed++
		default:
			return err
		}
		if i < len(cells)-1 {
			time.Sleep(interCellDelay)
		}
	}

	reportPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("report--%s.txt", batchStamp))
	if err := report.WriteFile(reportPath, cfg, tally, store.Path(), start); err != nil {
		return err
	}

	fmt.Printf("\n%d cells: %d succeeded, %d failed\n", tally.Total, tally.Succeeded, tally.Failed)
	fmt.Printf("summary: %s\nreport:  %s\n", store.Path(), reportPath)
	fmt.Println("\n--- Results ---")
	return report.WriteTable(os.Stdout, store.Records())
}
