// Package errors provides the structured error type shared by the linking
// pass, the sub-builder and the CLI.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeResolve  ErrorType = "resolve"
	ErrorTypeBuild    ErrorType = "build"
	ErrorTypeEmit     ErrorType = "emit"
	ErrorTypeNotify   ErrorType = "notify"
	ErrorTypeInternal ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeTemplateRead     = "ERR_TEMPLATE_READ"
	ErrCodeUnresolvedAlias  = "ERR_UNRESOLVED_ALIAS"
	ErrCodeSubBuildFailed   = "ERR_SUBBUILD_FAILED"
	ErrCodeSubBuildNoOutput = "ERR_SUBBUILD_NO_OUTPUT"
	ErrCodeEmitFailed       = "ERR_EMIT_FAILED"
	ErrCodeManifestInvalid  = "ERR_MANIFEST_INVALID"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeNotifyFailed     = "ERR_NOTIFY_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// LinkError is a structured error type with context.
type LinkError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *LinkError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *LinkError) Is(target error) bool {
	var t *LinkError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *LinkError) WithContext(key string, value interface{}) *LinkError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *LinkError) WithLocation(filePath string, line int) *LinkError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *LinkError {
	return &LinkError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *LinkError {
	return &LinkError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewResolveError creates a reference resolution error.
func NewResolveError(code, message string) *LinkError {
	return &LinkError{
		Type:        ErrorTypeResolve,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewBuildError creates a sub-build error.
func NewBuildError(code, message string, cause error) *LinkError {
	return &LinkError{
		Type:        ErrorTypeBuild,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewEmitError creates an emission error.
func NewEmitError(code, message string, cause error) *LinkError {
	return &LinkError{
		Type:    ErrorTypeEmit,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *LinkError {
	return &LinkError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var le *LinkError
	if errors.As(err, &le) {
		return le.Recoverable
	}

	return false
}

// IsBuildError checks if an error is sub-build related.
func IsBuildError(err error) bool {
	var le *LinkError
	if errors.As(err, &le) {
		return le.Type == ErrorTypeBuild
	}

	return false
}

// IsResolveError checks if an error came from reference resolution.
func IsResolveError(err error) bool {
	var le *LinkError
	if errors.As(err, &le) {
		return le.Type == ErrorTypeResolve
	}

	return false
}

// HasCode reports whether any LinkError in the chain carries code. Joined
// errors are searched too.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var le *LinkError
	if errors.As(err, &le) && le.Code == code {
		return true
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
	}

	if le != nil && le.Cause != nil {
		return HasCode(le.Cause, code)
	}

	return false
}

// Logger is the subset of the logging interface the handler needs.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error logging.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level that matches its type. fields are attached to
// the record.
func (h *ErrorHandler) Handle(ctx context.Context, err error, fields ...interface{}) {
	if err == nil || h.logger == nil {
		return
	}

	var le *LinkError
	if !errors.As(err, &le) {
		h.logger.Error(ctx, err, "Unhandled error occurred", fields...)
		return
	}

	fields = append(fields, "type", le.Type, "code", le.Code)
	if le.FilePath != "" {
		fields = append(fields, "file", le.FilePath)
	}

	switch {
	case le.Type == ErrorTypeNotify:
		h.logger.Warn(ctx, err, "After-emit notification failed", fields...)
	case IsBuildError(err), IsResolveError(err):
		fields = append(fields, "recoverable", IsRecoverable(err))
		h.logger.Error(ctx, err, "Linking failed", fields...)
	default:
		h.logger.Error(ctx, err, "Error occurred", fields...)
	}
}
