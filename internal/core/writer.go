package core

import (
	"context"
	"fmt"
)

// Writer stages valid objects and makes them durable in Finish.
//
// With the test option set, Write and Finish do nothing. A Write error
// fails only the current row. A Finish error ends the run.
type Writer interface {
	Configure(opts Options) error
	Write(ctx context.Context, obj any) error
	Finish(ctx context.Context) error
}

// WriterFactory creates a Writer bound to a target for one run.
type WriterFactory func(def TargetDefinition) Writer

// WriteError wraps a sink rejection of one object.
type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrWrite) match.
func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// DryRunMode reads the test option.
func DryRunMode(opts Options) (bool, error) {
	return opts.Bool(OptionTestMode)
}
