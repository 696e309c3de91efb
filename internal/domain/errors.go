package domain

import (
	"errors"
	"net/http"
)

// Kind is the coarse category of a domain error. Callers at the HTTP
// boundary switch on Kind; everything else should match on Code.
type Kind uint8

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindAlreadyExists
	KindUnauthorized
	KindInvalidInput
	KindFileOperationFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidInput:
		return "invalid_input"
	case KindFileOperationFailed:
		return "file_operation_failed"
	default:
		return "unexpected"
	}
}

// HTTPStatus maps a kind to the single status code the REST surface uses for it.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code is a machine-readable error code.
type Code string

const (
	CodeUnexpected          Code = "UNEXPECTED"
	CodeNotFound            Code = "NOT_FOUND"
	CodeImageNotFound       Code = "IMAGE_NOT_FOUND"
	CodeLikeNotFound        Code = "LIKE_NOT_FOUND"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
	CodeDuplicateFilename   Code = "DUPLICATE_FILENAME"
	CodeLikeAlreadyExists   Code = "LIKE_ALREADY_EXISTS"
	CodeDuplicateUsername   Code = "DUPLICATE_USERNAME"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeFileOperationFailed Code = "FILE_OPERATION_FAILED"
)

// Kind returns the category a code belongs to.
func (c Code) Kind() Kind {
	switch c {
	case CodeNotFound, CodeImageNotFound, CodeLikeNotFound, CodeUserNotFound:
		return KindNotFound
	case CodeDuplicateFilename, CodeLikeAlreadyExists, CodeDuplicateUsername:
		return KindAlreadyExists
	case CodeUnauthorized:
		return KindUnauthorized
	case CodeInvalidInput:
		return KindInvalidInput
	case CodeFileOperationFailed:
		return KindFileOperationFailed
	default:
		return KindUnexpected
	}
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Context such as image id or filename
	Cause    error             // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code. A target whose code
// is CodeNotFound matches every not-found code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	return t.Code == CodeNotFound && e.Code.Kind() == KindNotFound
}

// Kind returns the category of the error.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a domain error carrying contextual key/value pairs.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WrapWithMetadata creates a domain error with both metadata and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}

// KindOf returns the kind of the first domain error in err's chain, or
// KindUnexpected when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind()
	}
	return KindUnexpected
}

// CodeOf returns the code of the first domain error in err's chain.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnexpected
}

var (
	ErrNotFound            = New(CodeNotFound, "not found")
	ErrImageNotFound       = New(CodeImageNotFound, "image not found")
	ErrLikeNotFound        = New(CodeLikeNotFound, "like not found")
	ErrUserNotFound        = New(CodeUserNotFound, "user not found")
	ErrDuplicateFilename   = New(CodeDuplicateFilename, "filename already exists")
	ErrLikeAlreadyExists   = New(CodeLikeAlreadyExists, "image already liked")
	ErrDuplicateUsername   = New(CodeDuplicateUsername, "username already exists")
	ErrUnauthorized        = New(CodeUnauthorized, "unauthorized")
	ErrInvalidInput        = New(CodeInvalidInput, "invalid input")
	ErrFileOperationFailed = New(CodeFileOperationFailed, "file operation failed")
)
