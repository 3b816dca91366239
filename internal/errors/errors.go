// Package errors provides centralized error definitions and error handling utilities
// for tun2proxyctl. It defines the supervisor's failure taxonomy, semantic error
// types, constructors with context wrapping, and classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures of a supervision step:
//   - SupervisorError: launching, stopping or supervising the tun2proxy binary
//   - ElevationError: the administrator-privilege prompt was cancelled or denied
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found (binaries, config files)
//   - ValidationError: invalid input or state
//
// # Usage
//
//	err := errors.NewSupervisorError("binary not found", errors.ErrBinaryNotFound).
//	    WithBinary("/opt/homebrew/bin/tun2proxy-bin")
//
//	if errors.Is(err, errors.ErrBinaryNotFound) { ... }
//
//	var elevErr *errors.ElevationError
//	if errors.As(err, &elevErr) && elevErr.Cancelled { ... }
//
// # Error Classification
//
// Every supervisor failure is reported through the log stream rather than
// aborting the process. The classification helpers decide how it is rendered:
//   - Retryable: the user may simply try the action again
//   - UserFacing: the message is safe to show verbatim
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Supervision sentinel errors
var (
	// ErrBinaryNotFound indicates that the configured executable does not exist.
	ErrBinaryNotFound = New("binary not found")
	// ErrLaunchFailed indicates that the OS refused to spawn the executable.
	ErrLaunchFailed = New("launch failed")
	// ErrPermissionDenied indicates that the process exited with a permission failure.
	ErrPermissionDenied = New("operation not permitted")
	// ErrElevationFailed indicates that the privilege prompt was cancelled or denied.
	ErrElevationFailed = New("elevation failed")
	// ErrStopFailed indicates that a best-effort stop did not complete cleanly.
	ErrStopFailed = New("stop failed")
)

// General sentinel errors
var (
	// ErrUnsupportedPlatform indicates the operation has no implementation on this OS.
	ErrUnsupportedPlatform = New("unsupported platform")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ClassifiedError is the base interface for all tun2proxyctl errors.
type ClassifiedError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the user may retry the action as-is.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SupervisorError represents a failed supervision step.
//
// Example:
//
//	err := errors.NewSupervisorError("failed to start process", errors.ErrLaunchFailed).
//	    WithBinary("/usr/local/bin/tun2proxy").WithPhase("starting")
//	fmt.Println(err) // "supervisor error [binary=/usr/local/bin/tun2proxy, phase=starting]: ..."
type SupervisorError struct {
	baseError
	Binary string
	Phase  string
}

// NewSupervisorError creates a new SupervisorError. Supervisor failures are
// user-facing and retryable by default since the user may fix the cause and
// press start again.
func NewSupervisorError(message string, cause error) *SupervisorError {
	return &SupervisorError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: true,
		},
	}
}

// WithBinary adds the executable path to the error context.
func (e *SupervisorError) WithBinary(path string) *SupervisorError {
	e.Binary = path
	return e
}

// WithPhase adds the supervisor phase to the error context.
func (e *SupervisorError) WithPhase(phase string) *SupervisorError {
	e.Phase = phase
	return e
}

// WithSeverity sets the error severity.
func (e *SupervisorError) WithSeverity(s Severity) *SupervisorError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *SupervisorError) Error() string {
	var parts []string
	if e.Binary != "" {
		parts = append(parts, fmt.Sprintf("binary=%s", e.Binary))
	}
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase=%s", e.Phase))
	}

	prefix := "supervisor error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("supervisor error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SupervisorError) Is(target error) bool {
	if _, ok := target.(*SupervisorError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ElevationError is returned by an elevation channel when the privileged
// command could not run. Message carries the OS-provided text.
type ElevationError struct {
	baseError
	// Message is the human-readable message returned by the OS prompt.
	Message string
	// Cancelled is true when the user dismissed the prompt.
	Cancelled bool
	// Output is whatever the privileged command printed before failing.
	Output string
}

// NewElevationError creates a new ElevationError wrapping ErrElevationFailed.
func NewElevationError(message string) *ElevationError {
	return &ElevationError{
		baseError: baseError{
			message:    message,
			cause:      ErrElevationFailed,
			severity:   SeverityError,
			retryable:  true,
			userFacing: true,
		},
		Message: message,
	}
}

// WithCancelled marks the error as a user cancellation.
func (e *ElevationError) WithCancelled(c bool) *ElevationError {
	e.Cancelled = c
	if c {
		e.severity = SeverityWarning
	}
	return e
}

// WithOutput attaches the privileged command's output.
func (e *ElevationError) WithOutput(out string) *ElevationError {
	e.Output = out
	return e
}

// Error returns the OS message, which is what the log stream shows.
func (e *ElevationError) Error() string {
	if e.Message == "" {
		return ErrElevationFailed.Error()
	}
	return e.Message
}

// Is checks if this error matches the target.
func (e *ElevationError) Is(target error) bool {
	if _, ok := target.(*ElevationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("binary", "/usr/local/bin/tun2proxy")
//	fmt.Println(err) // "binary not found: /usr/local/bin/tun2proxy"
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	cause        error
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.ResourceID == "" {
		return fmt.Sprintf("%s not found", e.ResourceType)
	}
	return fmt.Sprintf("%s not found: %s", e.ResourceType, e.ResourceID)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("unsupported scheme").WithField("proxy.type").WithValue("ftp")
type ValidationError struct {
	Message string
	Field   string
	Value   any
	cause   error
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Value != nil {
		msg = fmt.Sprintf("%s (got: %v)", msg, e.Value)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return "validation error: " + msg
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the user may retry the failed action as-is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var classified ClassifiedError
	if As(err, &classified) {
		return classified.IsRetryable()
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var classified ClassifiedError
	if As(err, &classified) {
		return classified.IsUserFacing()
	}

	var notFound *NotFoundError
	var validation *ValidationError
	return As(err, &notFound) || As(err, &validation)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ClassifiedError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var classified ClassifiedError
	if As(err, &classified) {
		return classified.Severity()
	}

	return SeverityError
}

// IsCancelled reports whether err is an elevation prompt the user dismissed.
func IsCancelled(err error) bool {
	var elevErr *ElevationError
	return As(err, &elevErr) && elevErr.Cancelled
}
