package lms

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// ExternalError marks a failure of an external collaborator (the grading
// service). Scoring downgrades it to a zero score for the affected question
// instead of failing the whole submission.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ExternalError) Unwrap() error { return e.Err }

func Externalf(op string, err error) error { return &ExternalError{Op: op, Err: err} }
