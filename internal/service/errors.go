package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks caller-input errors rejected before any downstream call.
var ErrInvalidInput = errors.New("invalid input")

// RetrievalError wraps an embedding or store failure on the query path.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
