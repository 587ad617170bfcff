// Package report renders the outcome of an import run for people and for
// API clients.
package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/JonMunkholm/productimport/internal/core"
)

const rule = "=================================="

// Print writes the run summary followed by one block per failed row.
func Print(w io.Writer, r *core.Result) {
	pterm.Fprintln(w, rule)
	pterm.Fprintln(w, "Processed rows count: "+strconv.Itoa(r.Processed()))
	pterm.Fprintln(w, "Succeed rows count: "+strconv.Itoa(r.Succeeded()))
	pterm.Fprintln(w, "Failed rows count: "+strconv.Itoa(r.Failed()))
	pterm.Fprintln(w, rule)

	failed := r.FailedItems()
	if len(failed) == 0 {
		return
	}
	pterm.Fprintln(w)
	pterm.Fprintln(w, "ERRORS")
	pterm.Fprintln(w, rule)
	for _, f := range failed {
		printFailure(w, f)
	}
}

func printFailure(w io.Writer, f core.FailedItem) {
	pterm.Fprintln(w, pterm.Yellow(FailureLine(f)))
	for _, msg := range f.Messages {
		pterm.Fprintln(w, "  "+pterm.Red(msg))
	}
	pterm.Fprintln(w)
}

// FailureLine formats "Line <n>, <KIND>: <values>".
func FailureLine(f core.FailedItem) string {
	return "Line " + strconv.Itoa(f.Item.Line()) + ", " + f.Kind.String() + ": " +
		strings.Join(f.Item.Values, ", ")
}

// Failure is the JSON shape of one failed row.
type Failure struct {
	Line     int      `json:"line"`
	Kind     string   `json:"kind"`
	Values   []string `json:"values"`
	Messages []string `json:"messages"`
}

// Response is the JSON shape of a finished run.
type Response struct {
	core.Summary
	DryRun   bool      `json:"dry_run"`
	Failures []Failure `json:"failures"`
}

// NewResponse flattens r for encoding.
func NewResponse(r *core.Result, dryRun bool) Response {
	failed := r.FailedItems()
	failures := make([]Failure, len(failed))
	for i, f := range failed {
		values := f.Item.Values
		if values == nil {
			values = []string{}
		}
		failures[i] = Failure{
			Line:     f.Item.Line(),
			Kind:     f.Kind.String(),
			Values:   values,
			Messages: f.Messages,
		}
	}
	return Response{
		Summary:  r.Summary(),
		DryRun:   dryRun,
		Failures: failures,
	}
}
