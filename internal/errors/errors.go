package errors

import (
	"errors"
	"fmt"
)

// Exit codes for conduit-console
const (
	ExitSuccess            = 0
	ExitGeneralError       = 1
	ExitConduitNotFound    = 2
	ExitConduitExists      = 3
	ExitBackendUnavailable = 4
	ExitContainerFailed    = 5
	ExitConfigError        = 6
	ExitUnitError          = 7
	ExitValidation         = 8
)

// ConduitError is the base error type for conduit-console
type ConduitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ConduitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ConduitError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error
func (e *ConduitError) ExitCode() int {
	return e.Code
}

// New creates a new ConduitError
func New(code int, message string) *ConduitError {
	return &ConduitError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ConduitError
func Wrap(code int, message string, cause error) *ConduitError {
	return &ConduitError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConduitNotFound returns an error for a missing conduit
func ConduitNotFound(name string) *ConduitError {
	return New(ExitConduitNotFound, fmt.Sprintf("conduit not found: %s", name))
}

// ConduitExists returns an error when a conduit name is already taken
func ConduitExists(name string) *ConduitError {
	return New(ExitConduitExists, fmt.Sprintf("conduit %s already exists", name))
}

// ConduitNotRunning returns an error when a conduit exists but is not running
func ConduitNotRunning(name string) *ConduitError {
	return New(ExitGeneralError, fmt.Sprintf("conduit %s is not running", name))
}

// BackendUnavailable returns an error when no runtime serves a backend
func BackendUnavailable(backend string, cause error) *ConduitError {
	return Wrap(ExitBackendUnavailable, fmt.Sprintf("backend %s is not available", backend), cause)
}

// ContainerFailed returns an error for runtime operations
func ContainerFailed(op string, cause error) *ConduitError {
	return Wrap(ExitContainerFailed, fmt.Sprintf("container %s failed", op), cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *ConduitError {
	return Wrap(ExitConfigError, message, cause)
}

// UnitError returns an error for systemd unit file operations
func UnitError(op string, cause error) *ConduitError {
	return Wrap(ExitUnitError, fmt.Sprintf("unit %s failed", op), cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *ConduitError {
	return New(ExitValidation, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var conduitErr *ConduitError
	if errors.As(err, &conduitErr) {
		return conduitErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
