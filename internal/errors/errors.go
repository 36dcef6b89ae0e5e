package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/dashtrack/internal/logger"
)

// Taxonomy shared by the engine, the dispatcher and both transports.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrEngineFailure   = errors.New("engine failure")
)

// FieldError names one offending payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidInputError is returned when a payload fails its schema. It never
// accompanies a storage mutation.
type InvalidInputError struct {
	Fields []FieldError
}

// InvalidField builds an InvalidInputError for a single field.
func InvalidField(field, message string) *InvalidInputError {
	return &InvalidInputError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *InvalidInputError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// Add appends a field failure.
func (e *InvalidInputError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// FieldNames returns the offending field names in report order.
func (e *InvalidInputError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// OrNil returns nil when no field failed so callers can return it directly.
func (e *InvalidInputError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// UnknownEndpointError reports an unroutable verb/path pair.
type UnknownEndpointError struct {
	Method string
	Path   string
}

func (e *UnknownEndpointError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrUnknownEndpoint, e.Method, e.Path)
}

func (e *UnknownEndpointError) Is(target error) bool { return target == ErrUnknownEndpoint }

// EngineError wraps an unexpected backend fault. Its message is generic;
// the cause is only reachable through Unwrap for logging.
type EngineError struct {
	Op  string
	Err error
}

// Engine wraps err as an engine failure for op. Taxonomy errors pass through.
func Engine(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrEngineFailure) {
		return err
	}
	return &EngineError{Op: op, Err: err}
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s during %s", ErrEngineFailure, e.Op)
}

func (e *EngineError) Unwrap() error { return e.Err }

func (e *EngineError) Is(target error) bool { return target == ErrEngineFailure }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.Err != nil {
		return fmt.Sprintf("Error: %v: %v", err, engineErr.Err)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
