package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWorkers is returned when the worker count is zero or negative.
	ErrInvalidWorkers = errors.New("worker count must be greater than 0")
	// ErrInvalidEntityCount is returned when a negative entity count is partitioned.
	ErrInvalidEntityCount = errors.New("entity count must not be negative")
	// ErrTooManyWorkers is returned when more workers than entities are requested.
	ErrTooManyWorkers = errors.New("worker count exceeds entity count")
	// ErrInvalidPivots is returned when a pivot sequence does not cover [0, n].
	ErrInvalidPivots = errors.New("invalid pivot sequence")
	// ErrRangeOutOfBounds is returned when a worker range falls outside the entity list.
	ErrRangeOutOfBounds = errors.New("worker range out of bounds")
	// ErrMalformedRow is returned when an input row has fewer than the required columns.
	ErrMalformedRow = errors.New("malformed input row")
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrDegenerate is returned in strict mode when both signatures are empty.
	ErrDegenerate = errors.New("degenerate coefficient: both signatures are empty")
	// ErrTimeout is returned when the parallel phase does not finish in time.
	ErrTimeout = errors.New("comparison timed out")
)

// ParseError identifies the input row that could not be parsed.
type ParseError struct {
	Line    int
	Columns int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v (got %d columns)", e.Line, e.Err, e.Columns)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WorkerError reports the failure of a single comparison worker.
type WorkerError struct {
	WorkerID int
	Range    Range
	Err      error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d [%d, %d): %v", e.WorkerID, e.Range.Start, e.Range.End, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}
