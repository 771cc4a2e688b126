package runner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTailLines(t *testing.T) {
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	got := tailLines(lines, 50)
	if len(got) != 50 {
		t.Fatalf("expected 50 lines, got %d", len(got))
	}
	if got[0] != "line 10" || got[49] != "line 59" {
		t.Errorf("wrong window: first %q, last %q", got[0], got[49])
	}
	if short := tailLines(lines[:5], 50); len(short) != 5 {
		t.Errorf("short input: expected all 5 lines, got %d", len(short))
	}
}

func TestTracebackLines(t *testing.T) {
	lines := []string{
		"setup ok",
		"Traceback (most recent call last):",
		"  frame 1",
		"  frame 2",
		"RuntimeError: boom",
	}
	got := tracebackLines(lines, 20)
	if len(got) != 3 {
		t.Fatalf("expected 3 lines after the marker, got %d", len(got))
	}
	if got[0] != "  frame 1" || got[2] != "RuntimeError: boom" {
		t.Errorf("wrong slice: %v", got)
	}
	if tracebackLines([]string{"all good"}, 20) != nil {
		t.Error("expected nil without a traceback marker")
	}
	// First occurrence wins when the log holds several tracebacks.
	double := append(append([]string{}, lines...), "Traceback (second)", "  other frame")
	got = tracebackLines(double, 20)
	if got[0] != "  frame 1" {
		t.Errorf("expected context after the first marker, got %v", got)
	}
}

func TestMarkerLines(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, fmt.Sprintf("ERROR: attempt %d", i))
	}
	lines = append(lines, "info: fine", "Exception raised", "task FAILED hard")
	got := markerLines(lines, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 matches, got %d", len(got))
	}
	if got[9] != "task FAILED hard" {
		t.Errorf("expected the most recent match last, got %q", got[9])
	}
	if got[8] != "Exception raised" {
		t.Errorf("case-insensitive markers should all match, got %q", got[8])
	}
	if m := markerLines([]string{"all calm"}, 10); len(m) != 0 {
		t.Errorf("expected no matches, got %v", m)
	}
}

func TestPrintFailureQuiet(t *testing.T) {
	var buf bytes.Buffer
	printFailure(&buf, "kitchen_basic", 1, "/logs/x.log", false, false)
	out := buf.String()
	if !strings.Contains(out, "kitchen_basic L1") {
		t.Error("banner should name the cell")
	}
	if !strings.Contains(out, "/logs/x.log") {
		t.Error("quiet mode should print the log path")
	}
	if !strings.Contains(out, "--verbose-errors") {
		t.Error("quiet mode should hint at the verbose flag")
	}
}

func TestPrintFailureVerbose(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "x.log")
	body := `loading model
Traceback (most recent call last):
  File "eval.py", line 3
RuntimeError: sim crashed
`
	if err := os.WriteFile(logPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	printFailure(&buf, "tabletop", 0, logPath, false, true)
	out := buf.String()
	if !strings.Contains(out, "RuntimeError: sim crashed") {
		t.Error("verbose output should include the log tail")
	}
	if !strings.Contains(out, "traceback:") {
		t.Error("verbose output should include the traceback section")
	}
	if !strings.Contains(out, "recent error lines:") {
		t.Error("verbose output should include the error marker section")
	}
}

func TestPrintFailureTimedOut(t *testing.T) {
	var buf bytes.Buffer
	printFailure(&buf, "tabletop", 2, "/logs/y.log", true, false)
	if !strings.Contains(strings.ToLower(buf.String()), "timed out") {
		t.Error("banner should mention the timeout")
	}
}

func TestEnvFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	body := "HF_TOKEN=abc\n\n# comment\nWANDB_KEY=def\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	env, err := envFromFile(path)
	if err != nil {
		t.Fatalf("envFromFile: %v", err)
	}
	if len(env) != 2 || env[0] != "HF_TOKEN=abc" || env[1] != "WANDB_KEY=def" {
		t.Errorf("got %v", env)
	}
}

func TestEnvFromFileEmptyPath(t *testing.T) {
	env, err := envFromFile("")
	if err != nil || env != nil {
		t.Errorf("expected no entries for empty path, got %v, %v", env, err)
	}
}

func TestEnvFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.env")
	if err := os.WriteFile(path, []byte("NOT A PAIR\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := envFromFile(path); err == nil {
		t.Error("expected error for malformed line")
	}
}
