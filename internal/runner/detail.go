package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	failTailLines      = 50
	tracebackLineCount = 20
	markerLineCount    = 10
	tracebackMarker    = "Traceback"
)

var errorMarkers = []string{"error", "exception", "failed"}

// printFailure emits the error banner for a failed cell and, when verbose
// is set, the relevant slices of its log.
func printFailure(w io.Writer, suite string, level int, logPath string, timedOut, verbose bool) {
	reason := "evaluation failed"
	if timedOut {
		reason = "evaluation timed out"
	}
	fmt.Fprintf(w, "==== %s: %s L%d ====\n", strings.ToUpper(reason), suite, level)
	if !verbose {
		fmt.Fprintf(w, "  log file: %s\n", logPath)
		fmt.Fprintln(w, "  re-run with --verbose-errors for log excerpts")
		return
	}

	lines, err := readLogLines(logPath)
	if err != nil {
		fmt.Fprintf(w, "  could not read log %s: %v\n", logPath, err)
		return
	}
	fmt.Fprintf(w, "  last %d lines of %s:\n", failTailLines, logPath)
	for _, l := range tailLines(lines, failTailLines) {
		fmt.Fprintf(w, "    %s\n", l)
	}
	if tb := tracebackLines(lines, tracebackLineCount); len(tb) > 0 {
		fmt.Fprintln(w, "  traceback:")
		for _, l := range tb {
			fmt.Fprintf(w, "    %s\n", l)
		}
	}
	if m := markerLines(lines, markerLineCount); len(m) > 0 {
		fmt.Fprintln(w, "  recent error lines:")
		for _, l := range m {
			fmt.Fprintf(w, "    %s\n", l)
		}
	}
}

func tailLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// tracebackLines returns the n lines following the first traceback marker,
// or nil if the log has none.
func tracebackLines(lines []string, n int) []string {
	for i, l := range lines {
		if strings.Contains(l, tracebackMarker) {
			end := i + 1 + n
			if end > len(lines) {
				end = len(lines)
			}
			return lines[i+1 : end]
		}
	}
	return nil
}

// markerLines returns the last n lines matching any error marker,
// case-insensitively, in file order.
func markerLines(lines []string, n int) []string {
	var matches []string
	for _, l := range lines {
		lower := strings.ToLower(l)
		for _, m := range errorMarkers {
			if strings.Contains(lower, m) {
				matches = append(matches, l)
				break
			}
		}
	}
	if len(matches) > n {
		matches = matches[len(matches)-n:]
	}
	return matches
}

func readLogLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
