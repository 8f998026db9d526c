package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/wassi-real/lidforms/internal/model"
)

var (
	_ Publisher  = NoopPublisher{}
	_ Publisher  = (*NATSPublisher)(nil)
	_ Subscriber = (*NATSSubscriber)(nil)
)

func TestNoopPublisher(t *testing.T) {
	var pub NoopPublisher
	if err := pub.Publish(context.Background(), TopicSubmissionCreated, SubmissionCreated{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewSubmissionCreated(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := NewSubmissionCreated(
		&model.Submission{ID: "sub-1", FormID: "form-1", CreatedAt: at},
		model.Values{{FieldID: "f1", Value: "secret"}, {FieldID: "f2", Value: "x"}},
	)

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"submission_id":"sub-1","form_id":"form-1","created_at":"2026-03-01T12:00:00Z","response_count":2}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}
