// Package events carries notifications about accepted submissions and newly
// defined forms to anything listening on the message bus.
package events

import (
	"context"
	"time"

	"github.com/wassi-real/lidforms/internal/model"
)

// Subjects. TopicAll matches every subject this service emits.
const (
	TopicSubmissionCreated = "lidforms.submission.created"
	TopicFormCreated       = "lidforms.form.created"

	TopicAll = "lidforms.>"
)

// SubmissionCreated is emitted once a submission and all of its responses
// have been committed. Submitted values are never included.
type SubmissionCreated struct {
	SubmissionID  string    `json:"submission_id"`
	FormID        string    `json:"form_id"`
	CreatedAt     time.Time `json:"created_at"`
	ResponseCount int       `json:"response_count"`
}

// NewSubmissionCreated builds the event for a committed submission.
func NewSubmissionCreated(sub *model.Submission, values model.Values) SubmissionCreated {
	return SubmissionCreated{
		SubmissionID:  sub.ID,
		FormID:        sub.FormID,
		CreatedAt:     sub.CreatedAt,
		ResponseCount: len(values),
	}
}

// FormCreated is emitted when a form is seeded.
type FormCreated struct {
	FormID     string `json:"form_id"`
	Title      string `json:"title"`
	IsActive   bool   `json:"is_active"`
	FieldCount int    `json:"field_count"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// Message is one raw payload together with the subject it arrived on.
type Message struct {
	Topic string
	Data  []byte
}
