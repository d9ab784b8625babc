// Package failure defines the classified outcomes a poll cycle can fail with.
package failure

import (
	"errors"
	"fmt"
)

// Kind identifies which stage of a cycle failed and how.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindRemote
	KindMalformedResponse
	KindMissingField
	KindUnknownStatus
	KindNotification
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindTransport:         "transport",
	KindRemote:            "remote",
	KindMalformedResponse: "malformed_response",
	KindMissingField:      "missing_field",
	KindUnknownStatus:     "unknown_status",
	KindNotification:      "notification",
}

// String returns a stable label, suitable for log fields and metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Category returns the human-readable group a kind is reported under.
func (k Kind) Category() string {
	switch k {
	case KindTransport, KindRemote:
		return "remote API failure"
	case KindMalformedResponse:
		return "invalid response shape"
	case KindMissingField, KindUnknownStatus:
		return "invalid submission status"
	case KindNotification:
		return "messaging failure"
	default:
		return "unknown failure"
	}
}

// Error is a classified failure returned by the leaf components.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // set for KindRemote
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to err. It returns nil for a nil err.
func Wrap(err error, kind Kind, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Remote builds a KindRemote error for a non-success HTTP status.
func Remote(statusCode int) *Error {
	return &Error{
		Kind:       KindRemote,
		Message:    fmt.Sprintf("status endpoint returned status %d", statusCode),
		StatusCode: statusCode,
	}
}

// KindOf reports the kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Describe renders err the way it is logged and reported to the chat.
// Two failures with the same description are treated as duplicates.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", KindOf(err).Category(), err)
}
