// Package errors defines the coded error types surfaced by the forecasting
// pipeline. All fatal conditions abort the run and carry enough context for
// the caller to report them; diagnostic findings travel as warnings on the
// result, never as errors.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the pipeline's fatal conditions.
const (
	CodeParseFailed      = "PARSE_FAILED"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeModelFitFailed   = "MODEL_FIT_FAILED"
)

// PipelineError is a coded error with optional structured details.
type PipelineError struct {
	Code    string
	Message string
	Details any
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a new PipelineError with the given code and message.
func New(code, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

// Wrap creates a new PipelineError wrapping an underlying cause.
func Wrap(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// ParseError reports a malformed date or field encountered while cleaning.
// Fatal: every downstream stage depends on valid dates.
func ParseError(field, value string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeParseFailed,
		Message: fmt.Sprintf("parse %s %q", field, value),
		Details: map[string]string{"field": field, "value": value},
		Err:     err,
	}
}

// ValidationError reports an empty or non-contiguous series partition.
// Fatal: no meaningful model can be built from it.
func ValidationError(message string) *PipelineError {
	return &PipelineError{Code: CodeValidationFailed, Message: message}
}

// ModelFitError reports that no candidate order converged to a valid
// likelihood. Fatal: no forecast can be produced. attempted lists the
// orders the search tried, in discovery order.
func ModelFitError(message string, attempted []string) *PipelineError {
	return &PipelineError{
		Code:    CodeModelFitFailed,
		Message: message,
		Details: attempted,
	}
}

// IsCode reports whether err is (or wraps) a PipelineError with the code.
func IsCode(err error, code string) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
