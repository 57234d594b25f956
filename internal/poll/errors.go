package poll

import (
	"errors"
	"fmt"
)

// Failure taxonomy surfaced to the HTTP layer. Everything a handler needs to
// pick a status code is one errors.Is/As check away.
var (
	ErrPollEnded     = errors.New("poll has ended")
	ErrInvalidOption = errors.New("option index out of range")
	ErrDuplicateVote = errors.New("you have already voted on this poll")
	ErrForbidden     = errors.New("not allowed to perform this action")
	// ErrOptionsLocked guards the ledger: once anyone has voted, the options
	// array is frozen so optionIndex entries can never dangle.
	ErrOptionsLocked = errors.New("options cannot be changed after voting has started")
)

// ValidationError reports malformed poll input (bad option count, oversized
// text, and so on).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StoreError wraps a persistence failure, including a concurrent-write
// conflict that survived the internal retry.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
