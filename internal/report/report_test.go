package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/gauntlet/internal/config"
	"github.com/signalnine/gauntlet/internal/report"
	"github.com/signalnine/gauntlet/internal/result"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func seedStore(t *testing.T) *result.Store {
	t.Helper()
	store, err := result.Open(t.TempDir(), "stamp")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	records := []result.Record{
		{
			Suite: "kitchen_basic", Level: 0, Outcome: result.OutcomeCompleted,
			Metrics: result.Metrics{
				SuccessRate: fptr(0.8), TotalSuccesses: iptr(16),
				TotalEpisodes: iptr(20), TotalCosts: fptr(100),
				SuccessCosts: fptr(70), FailureCosts: fptr(30),
			},
			LogFile: "/logs/a.log",
		},
		{Suite: "kitchen_basic", Level: 1, Outcome: result.OutcomeFailed, LogFile: "/logs/b.log"},
	}
	for _, rec := range records {
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return store
}

func TestGenerateEmbedsSummary(t *testing.T) {
	store := seedStore(t)
	cfg := &config.Config{
		Checkpoint:    "/ckpt/p.pt",
		ModelFamily:   "diffusion",
		TrialsPerTask: 10,
		Seed:          42,
	}
	var buf bytes.Buffer
	err := report.Generate(&buf, cfg, result.Tally{Total: 2, Succeeded: 1, Failed: 1},
		store.Path(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"/ckpt/p.pt",
		"diffusion",
		"2 total, 1 succeeded, 1 failed",
		strings.Join(result.Header, ","),
		"kitchen_basic,L0,0.8000",
		"kitchen_basic,L1,FAILED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteTableSkipsFailed(t *testing.T) {
	store := seedStore(t)
	var buf bytes.Buffer
	if err := report.WriteTable(&buf, store.Records()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "L0") {
		t.Error("expected completed row in table")
	}
	if strings.Contains(out, "/logs/b.log") {
		t.Error("failed row should not appear in the console table")
	}
}

func TestReadSummaryRoundTrip(t *testing.T) {
	store := seedStore(t)
	records, err := report.ReadSummary(store.Path())
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Suite != "kitchen_basic" || first.Level != 0 {
		t.Errorf("first record: got %s L%d", first.Suite, first.Level)
	}
	if first.Metrics.SuccessRate == nil || *first.Metrics.SuccessRate != 0.8 {
		t.Error("round-tripped success rate wrong")
	}
	if first.Metrics.TotalEpisodes == nil || *first.Metrics.TotalEpisodes != 20 {
		t.Error("round-tripped episode count wrong")
	}
	second := records[1]
	if second.Outcome != result.OutcomeFailed {
		t.Errorf("second record outcome: got %s", second.Outcome)
	}
	if second.Metrics.SuccessRate != nil {
		t.Error("failed record should have no rate")
	}
}

func TestReadSummaryMissing(t *testing.T) {
	if _, err := report.ReadSummary("nonexistent.csv"); err == nil {
		t.Error("expected error for missing summary")
	}
}
