package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a LinkError if the
// input is not already one.
func Wrap(err error, errType ErrorType, code, message string) *LinkError {
	if err == nil {
		return nil
	}

	var le *LinkError
	if errors.As(err, &le) {
		return &LinkError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       le,
			Context:     le.Context,
			FilePath:    le.FilePath,
			Line:        le.Line,
			Recoverable: le.Recoverable,
		}
	}

	return &LinkError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeBuild || errType == ErrorTypeResolve,
	}
}

// WrapNotify wraps a failure raised inside the after-emit chain.
func WrapNotify(err error, message string) *LinkError {
	return Wrap(err, ErrorTypeNotify, ErrCodeNotifyFailed, message)
}

// ErrTemplateRead creates the error returned when the main template cannot
// be read.
func ErrTemplateRead(path string, cause error) *LinkError {
	return NewIOError(ErrCodeTemplateRead, "cannot read template", cause).
		WithLocation(path, 0)
}

// ErrUnresolvedAlias creates the error returned when a reference is neither
// relative nor covered by the alias table.
func ErrUnresolvedAlias(reference string) *LinkError {
	return NewResolveError(
		ErrCodeUnresolvedAlias,
		"no alias matches reference "+reference,
	).WithContext("reference", reference)
}

// ErrSubBuildFailed creates a sub-build failure error.
func ErrSubBuildFailed(reference string, cause error) *LinkError {
	return NewBuildError(
		ErrCodeSubBuildFailed,
		"sub-build failed for "+reference,
		cause,
	).WithContext("reference", reference)
}

// ErrSubBuildNoOutput creates the error returned when a sub-build finished
// without an artifact for its request.
func ErrSubBuildNoOutput(reference string) *LinkError {
	return NewBuildError(
		ErrCodeSubBuildNoOutput,
		"sub-build produced no output for "+reference,
		nil,
	).WithContext("reference", reference)
}
