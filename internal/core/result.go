package core

import "time"

// FailureKind tells parse/convert/write failures apart from rule violations.
type FailureKind int

const (
	ProcessError FailureKind = iota
	ValidationError
)

func (k FailureKind) String() string {
	if k == ValidationError {
		return "VALIDATION ERROR"
	}
	return "ERROR"
}

// FailedItem records why one row did not make it to the sink.
type FailedItem struct {
	Item     Item
	Kind     FailureKind
	Messages []string
}

// Result accumulates the outcome of one import run. Only the Importer
// mutates it; callers receive it after the run and read it.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	processed int
	failed    []FailedItem
}

// NewResult returns an empty result for the run.
func NewResult(runID string) *Result {
	return &Result{RunID: runID, StartedAt: time.Now()}
}

// MarkProcessed counts one row, whatever its outcome.
func (r *Result) MarkProcessed() {
	r.processed++
}

// AddProcessError records a parse, conversion, write or unexpected failure.
func (r *Result) AddProcessError(err error, item Item) {
	r.failed = append(r.failed, FailedItem{
		Item:     item,
		Kind:     ProcessError,
		Messages: []string{err.Error()},
	})
}

// AddValidationErrors records one message per violation.
func (r *Result) AddValidationErrors(violations []Violation, item Item) {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.String()
	}
	r.failed = append(r.failed, FailedItem{
		Item:     item,
		Kind:     ValidationError,
		Messages: msgs,
	})
}

// Processed is the number of rows handled.
func (r *Result) Processed() int {
	return r.processed
}

// Failed is the number of rows that produced a FailedItem.
func (r *Result) Failed() int {
	return len(r.failed)
}

// Succeeded is Processed minus Failed.
func (r *Result) Succeeded() int {
	return r.processed - len(r.failed)
}

// FailedItems returns the failures in the order they occurred.
func (r *Result) FailedItems() []FailedItem {
	out := make([]FailedItem, len(r.failed))
	copy(out, r.failed)
	return out
}

// Duration is the wall time of the run, or zero while it is running.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary is a flat view of the counters.
type Summary struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Summary returns the counters of r.
func (r *Result) Summary() Summary {
	return Summary{
		RunID:     r.RunID,
		Processed: r.Processed(),
		Succeeded: r.Succeeded(),
		Failed:    r.Failed(),
	}
}
