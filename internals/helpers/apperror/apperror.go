// file: internals/helpers/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind = kategori error domain; controller yang menerjemahkan ke HTTP status.
type Kind string

const (
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindInvalidTime  Kind = "INVALID_TIME"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is membuat errors.Is(err, &Error{Kind: X}) cocok berdasarkan Kind saja.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error { return New(KindUnauthorized, format, args...) }
func Forbidden(format string, args ...any) *Error    { return New(KindForbidden, format, args...) }
func Conflict(format string, args ...any) *Error     { return New(KindConflict, format, args...) }
func InvalidTime(format string, args ...any) *Error  { return New(KindInvalidTime, format, args...) }
func Validation(format string, args ...any) *Error   { return New(KindValidation, format, args...) }
func NotFound(format string, args ...any) *Error     { return New(KindNotFound, format, args...) }

// KindOf mengembalikan Kind dari err, "" kalau bukan *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind shortcut buat test & controller.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
