package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the resolution and merge failure kinds. Typed errors below
// match them through errors.Is.
var (
	ErrInvalidNumber          = errors.New("invalid number")
	ErrConflictingPort        = errors.New("conflicting port specification")
	ErrUnsupportedProbeType   = errors.New("unsupported probe type")
	ErrDuplicateInitContainer = errors.New("duplicate init container")
	ErrMalformedAnnotation    = errors.New("malformed init container annotation")
)

// ValidationError represents an error that occurs during validation.
type ValidationError struct {
	Message string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		Message: message,
	}
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidNumberError is returned when the winning value for an integer key
// does not parse as a base-10 integer.
type InvalidNumberError struct {
	Key    string
	Source string
	Value  string
	Err    error
}

func (e *InvalidNumberError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid number %q for %s", e.Value, e.Key)
	}
	return fmt.Sprintf("invalid number %q for %s (from %s)", e.Value, e.Key, e.Source)
}

func (e *InvalidNumberError) Unwrap() error { return e.Err }

func (e *InvalidNumberError) Is(target error) bool { return target == ErrInvalidNumber }

// ConflictingPortError is returned when both a numeric port and a named port
// resolve for the same probe.
type ConflictingPortError struct {
	Port     int
	PortName string
}

func (e *ConflictingPortError) Error() string {
	return fmt.Sprintf("port %d and port-name %q are mutually exclusive, configure only one of them", e.Port, e.PortName)
}

func (e *ConflictingPortError) Is(target error) bool { return target == ErrConflictingPort }

// UnsupportedProbeTypeError is returned for a probe type other than http, tcp or exec.
type UnsupportedProbeTypeError struct {
	Type string
}

func (e *UnsupportedProbeTypeError) Error() string {
	return fmt.Sprintf("unsupported probe type %q (expected one of http, tcp, exec)", e.Type)
}

func (e *UnsupportedProbeTypeError) Is(target error) bool { return target == ErrUnsupportedProbeType }

// DuplicateInitContainerError is returned when a pod template already carries
// an init container with the same name.
type DuplicateInitContainerError struct {
	Pod       string
	Container string
}

func (e *DuplicateInitContainerError) Error() string {
	return fmt.Sprintf("pod template %s already contains an init container with name %s, cannot add a second one", e.Pod, e.Container)
}

func (e *DuplicateInitContainerError) Is(target error) bool {
	return target == ErrDuplicateInitContainer
}

// MalformedAnnotationError is returned when the init container annotation is
// not a JSON array of objects carrying a name.
type MalformedAnnotationError struct {
	Key string
	Err error
}

func (e *MalformedAnnotationError) Error() string {
	return fmt.Sprintf("annotation %s: %v", e.Key, e.Err)
}

func (e *MalformedAnnotationError) Unwrap() error { return e.Err }

func (e *MalformedAnnotationError) Is(target error) bool { return target == ErrMalformedAnnotation }

// RoleError ties a resolution failure to the probe role it happened in.
type RoleError struct {
	Role Role
	Err  error
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("%s probe: %v", e.Role, e.Err)
}

func (e *RoleError) Unwrap() error { return e.Err }

// WrapValidationError wraps an error with additional context.
func WrapValidationError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	message := fmt.Sprintf(format, args...)
	if ve, ok := err.(*ValidationError); ok {
		return &ValidationError{
			Message: fmt.Sprintf("%s: %s", message, ve.Message),
		}
	}

	return &ValidationError{
		Message: fmt.Sprintf("%s: %v", message, err),
	}
}
