// Package runner executes a single evaluation cell: one (suite, level)
// invocation of the external benchmark program.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/signalnine/gauntlet/internal/config"
	"github.com/signalnine/gauntlet/internal/docker"
	"github.com/signalnine/gauntlet/internal/extract"
	"github.com/signalnine/gauntlet/internal/result"
)

// ErrCellFailed marks a recoverable per-cell failure. The orchestrator
// continues to the next cell on it; any other error aborts the batch.
var ErrCellFailed = errors.New("evaluation failed")

type CellOpts struct {
	Cfg   *config.Config
	Suite string
	Level int
	// Stamp is the batch timestamp; re-running with the same stamp
	// addresses the same log files.
	Stamp string
	Store *result.Store
}

// RunID derives the deterministic identifier for one cell's execution.
func RunID(suite, family, stamp string, level int) string {
	return fmt.Sprintf("%s--%s--%s--L%d", suite, family, stamp, level)
}

// LogPath locates the cell's log file under the output directory.
func LogPath(outputDir, suite, family, stamp string, level int) string {
	return filepath.Join(outputDir, RunID(suite, family, stamp, level)+".log")
}

// Args returns the fixed named parameter set passed to the evaluation
// program. Suite and level identifiers pass through verbatim.
func Args(cfg *config.Config, suite string, level int) []string {
	return []string{
		"--pretrained_checkpoint", cfg.Checkpoint,
		"--action_decoder_path", cfg.ActionDecoder,
		"--model_family", cfg.ModelFamily,
		"--task_suite_name", suite,
		"--task_level", strconv.Itoa(level),
		"--num_trials_per_task", strconv.Itoa(cfg.TrialsPerTask),
		"--seed", strconv.Itoa(cfg.Seed),
		"--local_log_dir", cfg.OutputDir,
		"--run_id_note", fmt.Sprintf("L%d", level),
		"--add_noise", boolArg(cfg.Perturb.Noise),
		"--adjust_light", boolArg(cfg.Perturb.Light),
		"--randomize_color", boolArg(cfg.Perturb.Color),
		"--camera_offset", boolArg(cfg.Perturb.Camera),
		"--save_video_mode", cfg.SaveVideo,
	}
}

// Invocation is the full argument vector for the cell, program included.
func Invocation(cfg *config.Config, suite string, level int) []string {
	prog := strings.Fields(cfg.Eval.Program)
	if cfg.Eval.Image != "" {
		prog = strings.Fields(cfg.Eval.Command)
	}
	return append(prog, Args(cfg, suite, level)...)
}

// RunCell drives one cell through its states: skip check, invocation,
// extraction or failure handling. Exactly one record is appended per cell
// regardless of which branch is taken.
func RunCell(ctx context.Context, opts *CellOpts) error {
	cfg := opts.Cfg
	logPath := LogPath(cfg.OutputDir, opts.Suite, cfg.ModelFamily, opts.Stamp, opts.Level)

	if cfg.DryRun {
		fmt.Printf("[dry-run] would run: %s\n", strings.Join(Invocation(cfg, opts.Suite, opts.Level), " "))
		fmt.Printf("[dry-run] log file: %s\n", logPath)
		return nil
	}

	if cfg.SkipExisting {
		if _, err := os.Stat(logPath); err == nil {
			if rate := extract.SuccessRate(logPath); rate != nil {
				log.Printf("warning: skipping %s L%d: existing log reports success rate %.4f",
					opts.Suite, opts.Level, *rate)
				return opts.Store.Append(result.Record{
					Suite:   opts.Suite,
					Level:   opts.Level,
					Outcome: result.OutcomeSkipped,
					Metrics: extract.FromLog(logPath),
					LogFile: logPath,
				})
			}
		}
	}

	exitCode, timedOut, err := execute(ctx, cfg, opts.Suite, opts.Level, logPath)
	if err != nil {
		// No place to write the log or the environment; fatal, nothing
		// ran. Launch failures are not fatal: they surface as non-zero
		// exit codes so the cell is recorded and the batch continues.
		return err
	}
	if exitCode != 0 {
		printFailure(os.Stdout, opts.Suite, opts.Level, logPath, timedOut, cfg.VerboseErrors)
		if appendErr := opts.Store.Append(result.Record{
			Suite:   opts.Suite,
			Level:   opts.Level,
			Outcome: result.OutcomeFailed,
			LogFile: logPath,
		}); appendErr != nil {
			return appendErr
		}
		return fmt.Errorf("%s L%d exited %d: %w", opts.Suite, opts.Level, exitCode, ErrCellFailed)
	}

	metrics := extract.FromLog(logPath)
	rec := result.Record{
		Suite:   opts.Suite,
		Level:   opts.Level,
		Outcome: result.OutcomeCompleted,
		Metrics: metrics,
		LogFile: logPath,
	}
	if err := opts.Store.Append(rec); err != nil {
		return err
	}
	row := result.Row(rec)
	fmt.Printf("  completed: rate %s (%s/%s), costs %s\n", row[2], row[3], row[4], row[5])
	return nil
}

// execute runs the evaluation program with combined output redirected into
// the log file, overwriting any prior content for this identifier.
func execute(ctx context.Context, cfg *config.Config, suite string, level int, logPath string) (exitCode int, timedOut bool, err error) {
	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, false, fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	extraEnv, err := envFromFile(cfg.Eval.EnvFile)
	if err != nil {
		return 0, false, err
	}

	timeout := time.Duration(cfg.Eval.TimeoutMinutes) * time.Minute

	if cfg.Eval.Image != "" {
		res, err := docker.RunEval(ctx, &docker.RunOpts{
			Image:   cfg.Eval.Image,
			Command: Invocation(cfg, suite, level),
			Env:     extraEnv,
			Mounts:  evalMounts(cfg),
			Timeout: timeout,
			Logs:    logFile,
		})
		if err != nil {
			// Daemon or image trouble fails the cell, not the batch.
			// 125 is the docker CLI's own "could not run" code.
			fmt.Fprintf(logFile, "running eval container: %v\n", err)
			return 125, false, nil
		}
		return res.ExitCode, res.TimedOut, nil
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	argv := Invocation(cfg, suite, level)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), extraEnv...)

	runErr := cmd.Run()
	timedOut = runCtx.Err() == context.DeadlineExceeded
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return exitErr.ExitCode(), timedOut, nil
		}
		if timedOut {
			return 124, true, nil
		}
		// The program never started (missing binary, bad permissions).
		// Record why in the log and fail the cell; 127 is the shell's
		// command-not-found code.
		fmt.Fprintf(logFile, "launching %s: %v\n", argv[0], runErr)
		return 127, false, nil
	}
	return 0, false, nil
}

// evalMounts binds the checkpoint, decoder, and output directory into the
// container at their host paths so the argument vector works unchanged.
func evalMounts(cfg *config.Config) []docker.Mount {
	mounts := []docker.Mount{
		{Source: absPath(cfg.Checkpoint), Target: absPath(cfg.Checkpoint), ReadOnly: true},
		{Source: absPath(cfg.OutputDir), Target: absPath(cfg.OutputDir)},
	}
	if cfg.ActionDecoder != "" {
		mounts = append(mounts, docker.Mount{
			Source: absPath(cfg.ActionDecoder), Target: absPath(cfg.ActionDecoder), ReadOnly: true,
		})
	}
	return mounts
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func boolArg(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
