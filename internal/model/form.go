package model

import (
	"net/url"
	"time"
)

// Form is an owner-defined container for a field schema. A form with
// IsActive false no longer accepts submissions.
type Form struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"-"`
	Title     string    `db:"title" json:"title"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FieldDefinition is one ordered slot in a form's schema. Only the relative
// order of Position matters; values need not be contiguous.
type FieldDefinition struct {
	ID       string `db:"id" json:"id"`
	FormID   string `db:"form_id" json:"form_id"`
	Label    string `db:"label" json:"label"`
	Required bool   `db:"required" json:"required"`
	Position int    `db:"position" json:"position"`
}

// Submission is one completed response event against a form.
type Submission struct {
	ID        string    `db:"id" json:"id"`
	FormID    string    `db:"form_id" json:"form_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FieldResponse is one submitted value for one field within a submission.
type FieldResponse struct {
	SubmissionID string `db:"submission_id" json:"submission_id"`
	FieldID      string `db:"field_id" json:"field_id"`
	Value        string `db:"value" json:"value"`
}

// Value is a validated, non-empty value for one field.
type Value struct {
	FieldID string
	Value   string
}

// Values is the normalized output of ValidateSubmission, in schema order.
type Values []Value

// Responses binds the values to a submission.
func (v Values) Responses(submissionID string) []FieldResponse {
	out := make([]FieldResponse, 0, len(v))
	for _, val := range v {
		out = append(out, FieldResponse{
			SubmissionID: submissionID,
			FieldID:      val.FieldID,
			Value:        val.Value,
		})
	}
	return out
}

// RawValues flattens a parsed form body into the map the validator reads.
// Only the first value of a repeated key is kept.
func RawValues(form url.Values) map[string]string {
	raw := make(map[string]string, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			raw[k] = vs[0]
		}
	}
	return raw
}

// FormSummary is an owner-facing view of a form with its submission count.
type FormSummary struct {
	Form
	Submissions int `db:"submission_count" json:"submission_count"`
}

// FormSchema is a form together with its ordered fields.
type FormSchema struct {
	Form   *Form              `json:"form"`
	Fields []*FieldDefinition `json:"fields"`
}
