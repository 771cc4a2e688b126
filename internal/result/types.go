package result

// Outcome classifies one evaluation cell.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Metrics holds the values extracted from a cell's log. Nil means the
// field was not available; extraction can partially fail even on a
// nominally successful run, so every field is independently optional.
type Metrics struct {
	SuccessRate    *float64
	TotalSuccesses *int
	TotalEpisodes  *int
	TotalCosts     *float64
	SuccessCosts   *float64
	FailureCosts   *float64
}

// Record is one row of the batch summary: a single (suite, level) cell.
// Records are append-only and never revised after creation.
type Record struct {
	Suite   string
	Level   int
	Outcome Outcome
	Metrics Metrics
	LogFile string
}

// Tally counts cell outcomes for the closing report. Skipped cells count
// as succeeded.
type Tally struct {
	Total     int
	Succeeded int
	Failed    int
}
