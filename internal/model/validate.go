package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure. Field is the
// caller-facing label; FieldID stays internal and is never serialized.
type FieldError struct {
	FieldID string `json:"-"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error in schema order. It is the one surfaced to
// submitters when only a single message is shown.
func (e *ValidationError) First() FieldError {
	if len(e.Errors) == 0 {
		return FieldError{}
	}
	return e.Errors[0]
}

// RequiredMessage is the submitter-facing text for a missing required field.
func RequiredMessage(label string) string {
	return "Please fill in the required field: " + label
}

// ValidateSubmission checks raw submitted values against the ordered field
// schema. A required field needs a present, non-empty value; an absent key and
// an empty string are treated the same. Every missing required field is
// reported, in schema order. On success the returned Values hold exactly the
// fields that received a non-empty value. Keys not in the schema are ignored.
func ValidateSubmission(fields []*FieldDefinition, raw map[string]string) (Values, error) {
	var (
		ve     ValidationError
		values Values
	)
	for _, f := range fields {
		v := raw[f.ID]
		if v == "" {
			if f.Required {
				ve.Errors = append(ve.Errors, FieldError{
					FieldID: f.ID,
					Field:   f.Label,
					Message: "is required",
				})
			}
			continue
		}
		values = append(values, Value{FieldID: f.ID, Value: v})
	}
	if ve.HasErrors() {
		return nil, &ve
	}
	return values, nil
}

// ValidateFormSchema checks an operator-supplied form definition before it is
// stored.
func ValidateFormSchema(f *Form, fields []*FieldDefinition) error {
	var ve ValidationError

	title := strings.TrimSpace(f.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 500 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}
	if strings.TrimSpace(f.OwnerID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "owner_id", Message: "is required"})
	}

	for i, fd := range fields {
		if strings.TrimSpace(fd.Label) == "" {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   fmt.Sprintf("fields[%d].label", i),
				Message: "is required",
			})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
