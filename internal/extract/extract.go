// Package extract pulls numeric results out of evaluation program logs.
// The program prints label-prefixed metric lines, possibly several times
// as it reports progress; the authoritative value is always the last
// occurrence. All format assumptions live here.
package extract

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/signalnine/gauntlet/internal/result"
)

// Metric labels printed by the evaluation program.
const (
	LabelSuccessRate    = "Overall success rate:"
	LabelTotalEpisodes  = "Total episodes:"
	LabelTotalSuccesses = "Total successes:"
	LabelTotalCosts     = "Overall costs:"
	LabelSuccessCosts   = "Overall success costs:"
	LabelFailureCosts   = "Overall failure costs:"
)

// FromLog extracts all metric fields from the log at path. A missing file
// yields the zero Metrics (every field unavailable); an unparsable field
// degrades to unavailable without affecting the others.
func FromLog(path string) result.Metrics {
	lines, err := readLines(path)
	if err != nil {
		return result.Metrics{}
	}
	return result.Metrics{
		SuccessRate:    lastFloat(lines, LabelSuccessRate),
		TotalEpisodes:  lastInt(lines, LabelTotalEpisodes),
		TotalSuccesses: lastInt(lines, LabelTotalSuccesses),
		TotalCosts:     lastFloat(lines, LabelTotalCosts),
		SuccessCosts:   lastFloat(lines, LabelSuccessCosts),
		FailureCosts:   lastFloat(lines, LabelFailureCosts),
	}
}

// SuccessRate extracts just the success rate from the log at path. Used by
// the skip-existing check to decide whether a prior log is usable.
func SuccessRate(path string) *float64 {
	lines, err := readLines(path)
	if err != nil {
		return nil
	}
	return lastFloat(lines, LabelSuccessRate)
}

// lastValue returns the text following label on the last line containing
// it. Last occurrence wins: earlier matches are progress updates.
func lastValue(lines []string, label string) (string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if idx := strings.Index(lines[i], label); idx >= 0 {
			rest := strings.TrimSpace(lines[i][idx+len(label):])
			if fields := strings.Fields(rest); len(fields) > 0 {
				return fields[0], true
			}
			return "", false
		}
	}
	return "", false
}

func lastFloat(lines []string, label string) *float64 {
	tok, ok := lastValue(lines, label)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil
	}
	return &v
}

func lastInt(lines []string, label string) *int {
	tok, ok := lastValue(lines, label)
	if !ok {
		return nil
	}
	if v, err := strconv.Atoi(tok); err == nil {
		return &v
	}
	// Some programs print counts as floats ("20.0").
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

func readLines(path string) ([]string, error) {
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
