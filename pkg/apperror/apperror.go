// Package apperror defines the error taxonomy shared by services and handlers.
//
// Services return *Error values carrying a Kind and a message that is safe to
// show to end users. Upstream and internal errors keep their cause for
// server-side logging; the response layer decides what reaches the client.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for status mapping and logging.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindCSRF           Kind = "csrf"
	KindValidation     Kind = "validation"
	KindRateLimited    Kind = "rate_limited"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindUpstream       Kind = "upstream"
	KindInternal       Kind = "internal"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds field-level validation messages keyed by input name.
	Fields map[string]string

	cause error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.cause != nil {
		s += fmt.Sprintf(" (%s)", e.cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// WithField returns a copy of e with an extra field message.
func (e *Error) WithField(field, msg string) *Error {
	cp := *e
	cp.Fields = make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[field] = msg
	return &cp
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Authentication(msg string) *Error { return newf(KindAuthentication, "%s", msg) }
func Authorization(msg string) *Error  { return newf(KindAuthorization, "%s", msg) }
func CSRF() *Error                     { return newf(KindCSRF, "invalid or expired form, please reload and try again") }
func RateLimited(msg string) *Error    { return newf(KindRateLimited, "%s", msg) }
func NotFound(what string) *Error      { return newf(KindNotFound, "%s not found", what) }
func Conflict(msg string) *Error       { return newf(KindConflict, "%s", msg) }

// Validation creates a validation error for a single field.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: map[string]string{field: msg}}
}

// ValidationFields creates a validation error covering several fields.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

// Upstream marks a failure of a dependency (database, storage, commerce API, OAuth provider).
func Upstream(op string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: op + " failed", cause: cause}
}

// Internal marks an unexpected failure.
func Internal(op string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: op + " failed", cause: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
