package scroll

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies an export failure so callers can branch on the failure's
// origin without inspecting error strings.
type Kind int

const (
	// KindUnknown is the zero value; no scroll operation returns it.
	KindUnknown Kind = iota

	// KindMalformedQuery means the caller-supplied query body failed to
	// parse. Surfaced before any network call, never retried.
	KindMalformedQuery

	// KindBackendError means the backend accepted the request but reported
	// an application-level error in the response payload.
	KindBackendError

	// KindProtocolViolation means the response lacks an expected field or
	// shape, such as a missing scroll id or hits array.
	KindProtocolViolation

	// KindTransportFailure means the network round-trip itself failed:
	// connection error, timeout, or a non-JSON body.
	KindTransportFailure

	// KindReleaseFailure means the cursor release did not succeed. It is
	// reported but never fatal to the export outcome.
	KindReleaseFailure
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindMalformedQuery:
		return "malformed_query"
	case KindBackendError:
		return "backend_error"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindTransportFailure:
		return "transport_failure"
	case KindReleaseFailure:
		return "release_failure"
	default:
		return "unknown"
	}
}

// Error is the error type returned by all scroll operations. It carries the
// failure kind, the operation that failed, the backend error payload when one
// was present, and the underlying cause.
type Error struct {
	Kind    Kind
	Op      string          // "search", "continue", or "release"
	Payload json.RawMessage // backend-reported error object, if any
	Err     error
}

func (e *Error) Error() string {
	if len(e.Payload) > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Payload)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or KindUnknown if err was not
// produced by a scroll operation.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
