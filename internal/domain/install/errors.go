package install

import (
	"encoding/json"
	"errors"
	"strings"
)

// Kind classifies install failures.
type Kind string

// Failure kinds. Only KindPostConfigure is non-fatal.
const (
	KindConfiguration  Kind = "configuration"
	KindAuthentication Kind = "authentication"
	KindBuild          Kind = "build"
	KindTransport      Kind = "transport"
	KindPostConfigure  Kind = "post-configure"
	KindUnexpected     Kind = "unexpected"
)

// Error is a stage failure carrying its kind and, when the remote side
// answered, the raw response payload.
type Error struct {
	// Kind is the failure class.
	Kind Kind
	// Stage is the pipeline stage that failed.
	Stage Stage
	// Err is the underlying cause.
	Err error
	// Payload is the remote response body, if any.
	Payload string
}

// Fail wraps err as a failure of stage. It returns nil for a nil err.
func Fail(stage Stage, err error) error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	failure := &Error{
		Kind:  stage.Kind(),
		Stage: stage,
		Err:   err,
	}

	var carrier interface{ ResponseBody() string }
	if errors.As(err, &carrier) {
		failure.Payload = carrier.ResponseBody()
	}

	return failure
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the failure aborts the run.
func (e *Error) Fatal() bool {
	return e.Kind != KindPostConfigure
}

// Detail returns the most specific error surface available: the "error"
// field of a JSON payload, the raw payload, then the cause message.
func (e *Error) Detail() string {
	payload := strings.TrimSpace(e.Payload)
	if payload == "" {
		return e.Err.Error()
	}

	var body struct {
		Error any `json:"error"`
	}

	if err := json.Unmarshal([]byte(payload), &body); err == nil && body.Error != nil {
		if message, ok := body.Error.(string); ok && message != "" {
			return message
		}

		if encoded, err := json.Marshal(body.Error); err == nil {
			return string(encoded)
		}
	}

	return payload
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var failure *Error
	if errors.As(err, &failure) {
		return failure.Kind
	}

	return KindUnexpected
}
