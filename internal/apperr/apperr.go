// Package apperr defines the typed error taxonomy shared by all services.
// Every service-level failure is an *Error carrying a Kind and a
// human-readable message; handlers translate the Kind into an HTTP status
// without inspecting message strings.
package apperr

import "errors"

// Kind classifies a service failure.
type Kind int

const (
	// KindNotFound — the referenced sale/invoice/product/register does not exist.
	KindNotFound Kind = iota
	// KindConflict — out of stock, duplicate invoice, register already open/closed,
	// already cancelled. Retrying the same request will fail again.
	KindConflict
	// KindInvalid — the request is well-formed JSON but semantically invalid
	// (e.g. invoicing a sale without a customer).
	KindInvalid
	// KindUpstream — the fiscal gateway or media store failed; the message wraps
	// the upstream error. No local rows were written.
	KindUpstream
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Msg: msg} }

func Invalid(msg string) *Error { return &Error{Kind: KindInvalid, Msg: msg} }

// Upstream wraps a gateway/media failure so callers can still unwrap the cause.
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: cause}
}

// KindOf returns the Kind of err and true when err is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
