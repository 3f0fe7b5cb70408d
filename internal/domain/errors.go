// Package domain – error taxonomy
//
// Every failure the bot can observe belongs to exactly one Kind. The polling
// loop branches on the kind (only configuration errors are fatal), metrics
// are labelled by it, and the cycle journal stores it as text.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error by where it originated.
type Kind int

const (
	KindUnknown   Kind = iota
	KindConfig         // missing or malformed startup configuration
	KindTransport      // the upstream API could not be reached
	KindProtocol       // non-200 status or malformed response shape
	KindData           // a homework record is incomplete or has an unknown status
	KindDelivery       // the chat message could not be sent
)

// String returns the lowercase label used in logs, metrics, and the journal.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindData:
		return "data"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Sentinel errors. Callers match them with errors.Is.
var (
	// ErrMissingCredentials is returned when a required secret is empty.
	ErrMissingCredentials = errors.New("missing required environment variables")

	// ErrInvalidChatID is returned when TELEGRAM_CHAT_ID is neither numeric
	// nor a @channel username.
	ErrInvalidChatID = errors.New("invalid telegram chat id")

	// ErrTransport wraps network failures reaching the status API.
	ErrTransport = errors.New("status api unreachable")

	// ErrDecode is returned when the response body is not a JSON object.
	ErrDecode = errors.New("response body is not a json object")

	// ErrMissingHomeworks is returned when the response has no "homeworks" key.
	ErrMissingHomeworks = errors.New(`response has no "homeworks" key`)

	// ErrUnknownStatus is returned for a status that is not in the verdict table.
	ErrUnknownStatus = errors.New("unknown homework status")
)

// Error attaches a Kind and the failing operation to an underlying error.
type Error struct {
	Kind Kind
	Op   string // e.g. "practicum.GetAPIAnswer"
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// E builds a *Error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusError carries a non-200 response from the status API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Body)
}

// TypeError reports a JSON value of the wrong type.
type TypeError struct {
	Field string
	Want  string
	Got   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s must be %s, got %s", e.Field, e.Want, e.Got)
}

// MissingFieldError reports a required key absent from a homework record.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("homework record has no %q field", e.Field)
}

// JSONTypeName names the JSON type of a value decoded into any.
func JSONTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
