package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// MsgNetworkError is shown to operators whenever the gateway could not be reached.
const MsgNetworkError = "network error, please retry"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ErrorKind classifies a failed gateway call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork           // no response received
	KindValidation        // success: false, rejected payload
	KindNotFound          // mutation target no longer exists
	KindServer            // 5xx or unreadable response
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// GatewayError is returned by gateway implementations for every failed call.
type GatewayError struct {
	Kind    ErrorKind
	Status  int    // HTTP status; 0 when no response was received
	Message string // message reported by the gateway, if any
	Err     error  // underlying transport or decoding error
}

func NewGatewayError(kind ErrorKind, status int, msg string, err error) error {
	return &GatewayError{Kind: kind, Status: status, Message: msg, Err: err}
}

func (err *GatewayError) Error() string {
	switch {
	case err.Message != "":
		return err.Message
	case err.Err != nil:
		return fmt.Sprintf("%s error: %v", err.Kind, err.Err)
	case err.Status != 0:
		return fmt.Sprintf("%s error: status %d", err.Kind, err.Status)
	default:
		return err.Kind.String() + " error"
	}
}

func (err *GatewayError) Unwrap() error { return err.Err }

// KindOf returns the ErrorKind of a (possibly wrapped) GatewayError.
func KindOf(err error) ErrorKind {
	if gErr, ok := errors.Cause(err).(*GatewayError); ok {
		return gErr.Kind
	}
	return KindUnknown
}

// UserMessage returns the text shown to operators for err.
// Network failures get a generic retry message, every other gateway message is surfaced verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch cause := errors.Cause(err).(type) {
	case *GatewayError:
		if cause.Kind == KindNetwork {
			return MsgNetworkError
		}
		return cause.Error()
	case *ValidationError:
		return cause.Error()
	default:
		return err.Error()
	}
}
