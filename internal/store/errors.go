package store

import "errors"

// ErrJournalIO wraps a failure to read or write the journal/artifact
// database itself — spec.md §7's JournalIO, fatal, exit 1.
var ErrJournalIO = errors.New("store: journal io error")

// JournalIOError carries the underlying database error.
type JournalIOError struct {
	Op  string
	Err error
}

func (e *JournalIOError) Error() string {
	return "store: journal io error during " + e.Op + ": " + e.Err.Error()
}

func (e *JournalIOError) Unwrap() error { return ErrJournalIO }
