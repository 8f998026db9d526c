// Package fault defines the error taxonomy shared by the schema store, the
// submission writer and the pipeline that composes them.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// FormUnavailable means the form does not exist or is closed. The two
	// cases are indistinguishable to callers.
	FormUnavailable Kind = iota + 1
	// SchemaLoadFailed means the schema store could not be read.
	SchemaLoadFailed
	// ValidationFailed means the submitted values do not satisfy the schema.
	ValidationFailed
	// HeaderWriteFailed means the submission header could not be persisted.
	HeaderWriteFailed
	// ResponseWriteFailed means the field responses could not be persisted.
	ResponseWriteFailed
)

// Public messages returned to callers. Infra kinds never carry store detail.
const (
	MsgFormUnavailable = "Form not found or is no longer accepting responses"
	MsgSchemaLoad      = "Failed to load form fields"
	MsgWrite           = "Failed to submit form. Please try again."
)

func (k Kind) String() string {
	switch k {
	case FormUnavailable:
		return "FormUnavailable"
	case SchemaLoadFailed:
		return "SchemaLoadFailed"
	case ValidationFailed:
		return "ValidationFailed"
	case HeaderWriteFailed:
		return "HeaderWriteFailed"
	case ResponseWriteFailed:
		return "ResponseWriteFailed"
	default:
		return "Unknown"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case FormUnavailable:
		return http.StatusNotFound
	case ValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsClient reports whether the kind is caused by caller input rather than
// infrastructure.
func (k Kind) IsClient() bool {
	return k == FormUnavailable || k == ValidationFailed
}

// Fault is an error tagged with a Kind.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *Fault) Unwrap() error {
	return e.Err
}

// Is matches another *Fault with the same Kind, so callers can test
// errors.Is(err, &fault.Fault{Kind: fault.FormUnavailable}).
func (e *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns a Fault of the given kind.
func New(kind Kind, msg string, err error) error {
	return &Fault{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of the first Fault in err's chain, or 0.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// PublicMessage returns the caller-facing message for err. Client faults
// expose their own message; everything else gets the generic text for its
// kind.
func PublicMessage(err error) string {
	var f *Fault
	if !errors.As(err, &f) {
		return "An unexpected error occurred. Please try again."
	}
	switch f.Kind {
	case FormUnavailable:
		return MsgFormUnavailable
	case ValidationFailed:
		return f.Message
	case SchemaLoadFailed:
		return MsgSchemaLoad
	default:
		return MsgWrite
	}
}
