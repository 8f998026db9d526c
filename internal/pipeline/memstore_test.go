package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
)

// memStore is an in-memory schema store and transactional writer. A write
// is staged and only merged into the committed state when every step
// succeeds.
type memStore struct {
	mu sync.Mutex

	forms  map[string]*model.Form
	fields map[string][]*model.FieldDefinition

	// aliases maps alternate spellings of an id to the stored id.
	aliases map[string]string

	submissions []*model.Submission
	responses   []model.FieldResponse

	loadErr       error
	headerErr     error
	responsesErr  error
	writeCalls    int
	writeFormIDs  []string
	writeObserves func(ctx context.Context)
}

func newMemStore() *memStore {
	return &memStore{
		forms:   map[string]*model.Form{},
		fields:  map[string][]*model.FieldDefinition{},
		aliases: map[string]string{},
	}
}

func (m *memStore) addForm(f *model.Form, fields ...*model.FieldDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[f.ID] = f
	for _, fd := range fields {
		fd.FormID = f.ID
	}
	m.fields[f.ID] = fields
}

func (m *memStore) GetActiveForm(ctx context.Context, formID string) (*model.Form, []*model.FieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, nil, fault.New(fault.SchemaLoadFailed, "select form", err)
	}
	if m.loadErr != nil {
		return nil, nil, m.loadErr
	}
	if id, ok := m.aliases[formID]; ok {
		formID = id
	}
	f, ok := m.forms[formID]
	if !ok || !f.IsActive {
		return nil, nil, fault.New(fault.FormUnavailable, "no active form", nil)
	}
	return f, append([]*model.FieldDefinition{}, m.fields[formID]...), nil
}

func (m *memStore) WriteSubmission(ctx context.Context, formID string, values model.Values) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++
	m.writeFormIDs = append(m.writeFormIDs, formID)
	if m.writeObserves != nil {
		m.writeObserves(ctx)
	}

	if m.headerErr != nil {
		return nil, m.headerErr
	}
	sub := &model.Submission{
		ID:        fmt.Sprintf("sub-%d", len(m.submissions)+1),
		FormID:    formID,
		CreatedAt: time.Now().UTC(),
	}
	staged := values.Responses(sub.ID)
	if m.responsesErr != nil {
		// Rolled back: the staged header is discarded with the responses.
		return nil, m.responsesErr
	}
	m.submissions = append(m.submissions, sub)
	m.responses = append(m.responses, staged...)
	return sub, nil
}

func (m *memStore) counts() (subs, responses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions), len(m.responses)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

var errConnReset = errors.New("connection reset by peer")
