package relayerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a relay failure so callers can react programmatically
// instead of string-matching messages.
type Kind int

const (
	// KindInvalidInput means the caller's request was malformed. No
	// outbound call was made.
	KindInvalidInput Kind = iota
	// KindAuthFailed means the OAuth code-for-token exchange failed.
	KindAuthFailed
	// KindUpstream means QuickBooks returned a non-success status.
	KindUpstream
	// KindMalformedUpstream means QuickBooks returned a body we could
	// not decode into the expected shape.
	KindMalformedUpstream
	// KindInternal is everything else.
	KindInternal
)

// Error is the tagged error carried through the relay. Details holds the
// raw upstream error body when one was available.
type Error struct {
	Kind    Kind
	Message string
	Details json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidInput reports a client input error.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// AuthFailed reports a failed token exchange.
func AuthFailed(err error) *Error {
	return &Error{Kind: KindAuthFailed, Message: "token exchange failed", Err: err}
}

// Upstream reports a non-success QuickBooks response. details may be nil.
func Upstream(message string, details json.RawMessage) *Error {
	return &Error{Kind: KindUpstream, Message: message, Details: details}
}

// MalformedUpstream reports an undecodable QuickBooks response.
func MalformedUpstream(message string, err error) *Error {
	return &Error{Kind: KindMalformedUpstream, Message: message, Err: err}
}

// Internal wraps an unclassified failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// From extracts the tagged error from err, classifying unknown errors as
// internal.
func From(err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return Internal(err)
}

// HTTPStatus maps a kind to the status code written on the wire.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindAuthFailed:
		return http.StatusUnauthorized
	case KindUpstream, KindMalformedUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code is the stable wire identifier for a kind.
func (k Kind) Code() string {
	switch k {
	case KindInvalidInput:
		return "invalid_request"
	case KindAuthFailed:
		return "auth_failed"
	case KindUpstream:
		return "upstream_error"
	case KindMalformedUpstream:
		return "upstream_malformed"
	default:
		return "internal_error"
	}
}

// Envelope is the JSON error body returned to callers.
type Envelope struct {
	Error     string          `json:"error"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewEnvelope builds the wire envelope for a tagged error.
func NewEnvelope(e *Error, requestID string) Envelope {
	return Envelope{
		Error:     e.Kind.Code(),
		Message:   e.Error(),
		Details:   e.Details,
		RequestID: requestID,
	}
}
