// errs.go — the error taxonomy of the driver protocol core.
// Grounded on cmd/dev-console/main_connection.go's typed sentinel errors
// (serverVersionMismatchError, nonGasolineServiceError): one concrete type
// per failure kind, matched with errors.As rather than string comparison.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies which row of the §4.7 taxonomy an error belongs to.
type Kind string

const (
	KindServerNotFound  Kind = "ServerNotFound"
	KindLaunchFailed    Kind = "LaunchFailed"
	KindTransportError  Kind = "TransportError"
	KindProtocolError   Kind = "ProtocolError"
	KindTimeoutError    Kind = "TimeoutError"
	KindTargetClosed    Kind = "TargetClosed"
	KindAssertionTime   Kind = "AssertionTimeout"
	KindElementNotFound Kind = "ElementNotFound"
	KindInvalidArgument Kind = "InvalidArgument"
)

// Error is the single concrete error type for every taxonomy row. Context
// chaining is expressed the normal Go way (wrapping), not as a distinct
// variant, so errors.Is/errors.As work without a bespoke Context kind.
type Error struct {
	Kind    Kind
	Message string
	// Selector, URL, Operation enrich the human-readable message when set;
	// spec §7 requires surfacing these where relevant.
	Selector  string
	URL       string
	Operation string
	// Cause is the wrapped inner error (driver protocol message, OS error, ...).
	Cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Operation != "" {
		msg = fmt.Sprintf("%s: %s", e.Operation, msg)
	}
	if e.Selector != "" {
		msg = fmt.Sprintf("%s (selector=%q)", msg, e.Selector)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s (url=%q)", msg, e.URL)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, errs.TargetClosed) (a sentinel Kind-only Error)
// match any *Error sharing the same Kind, without requiring field equality.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a bare Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap chains cause under a new Error of the given kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithContext returns a copy of e enriched with operation/selector/url
// context, used when an inner error bubbles up through a named operation.
func (e *Error) WithContext(operation, selector, url string) *Error {
	cp := *e
	if operation != "" {
		cp.Operation = operation
	}
	if selector != "" {
		cp.Selector = selector
	}
	if url != "" {
		cp.URL = url
	}
	return &cp
}

// Sentinel values for errors.Is comparisons against a bare Kind.
var (
	TargetClosed    = &Error{Kind: KindTargetClosed, Message: "target closed"}
	TimeoutError    = &Error{Kind: KindTimeoutError, Message: "timeout"}
	ProtocolError   = &Error{Kind: KindProtocolError, Message: "protocol error"}
	TransportError  = &Error{Kind: KindTransportError, Message: "transport error"}
	ServerNotFound  = &Error{Kind: KindServerNotFound, Message: "server not found"}
	LaunchFailed    = &Error{Kind: KindLaunchFailed, Message: "launch failed"}
	AssertionTime   = &Error{Kind: KindAssertionTime, Message: "assertion timeout"}
	ElementNotFound = &Error{Kind: KindElementNotFound, Message: "element not found"}
	InvalidArgument = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
)

// FromProtocolName maps the wire error.name field (§6) to a Kind, preserving
// the message verbatim as §7 requires.
func FromProtocolName(name, message string) *Error {
	switch name {
	case "TimeoutError":
		return New(KindTimeoutError, message)
	case "TargetClosedError":
		return New(KindTargetClosed, message)
	default:
		return New(KindProtocolError, message)
	}
}

// NewAssertionTimeout builds the §4.6/§8 failure message: selector, human
// phrase for the condition, and elapsed timeout.
func NewAssertionTimeout(selector, condition string, timeout, elapsed time.Duration) *Error {
	return &Error{
		Kind:     KindAssertionTime,
		Message:  fmt.Sprintf("Timed out waiting for %s to %s (timeout %s, elapsed %s)", selector, condition, timeout, elapsed),
		Selector: selector,
	}
}

// As is a thin convenience wrapper over errors.As for the common case of
// testing whether err is (or wraps) an *Error of a given Kind.
func As(err error, kind Kind) (*Error, bool) {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil, false
		}
		if e.Kind == kind {
			return e, true
		}
		err = e.Cause
	}
	return nil, false
}
