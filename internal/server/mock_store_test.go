package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
	"github.com/wassi-real/lidforms/internal/store"
)

var _ store.Store = (*mockStore)(nil)

type mockStore struct {
	mu sync.Mutex

	forms       map[string]*model.Form
	fields      map[string][]*model.FieldDefinition
	submissions []*model.Submission
	responses   []model.FieldResponse

	pingErr     error
	writeErr    error
	listErr     error
	panicOnLoad bool
}

func newMockStore() *mockStore {
	return &mockStore{
		forms:  make(map[string]*model.Form),
		fields: make(map[string][]*model.FieldDefinition),
	}
}

func (m *mockStore) GetActiveForm(_ context.Context, formID string) (*model.Form, []*model.FieldDefinition, error) {
	if m.panicOnLoad {
		panic("schema store exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[formID]
	if !ok || !f.IsActive {
		return nil, nil, fault.New(fault.FormUnavailable, "no active form", nil)
	}
	return f, m.fields[formID], nil
}

func (m *mockStore) WriteSubmission(_ context.Context, formID string, values model.Values) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	sub := &model.Submission{ID: fmt.Sprintf("sub-%d", len(m.submissions)+1), FormID: formID, CreatedAt: time.Now().UTC()}
	m.submissions = append(m.submissions, sub)
	m.responses = append(m.responses, values.Responses(sub.ID)...)
	return sub, nil
}

func (m *mockStore) ListOwnerForms(_ context.Context, ownerID string) ([]*model.FormSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*model.FormSummary{}
	for _, f := range m.forms {
		if f.OwnerID != ownerID {
			continue
		}
		n := 0
		for _, s := range m.submissions {
			if s.FormID == f.ID {
				n++
			}
		}
		out = append(out, &model.FormSummary{Form: *f, Submissions: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetOwnerForm(_ context.Context, ownerID, formID string) (*model.Form, []*model.FieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[formID]
	if !ok || f.OwnerID != ownerID {
		return nil, nil, fault.New(fault.FormUnavailable, "no form for owner", nil)
	}
	return f, m.fields[formID], nil
}

func (m *mockStore) ListFormSchemas(_ context.Context) ([]*model.FormSchema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.FormSchema
	for id, f := range m.forms {
		out = append(out, &model.FormSchema{Form: f, Fields: m.fields[id]})
	}
	return out, nil
}

func (m *mockStore) CreateForm(_ context.Context, form *model.Form, fields []*model.FieldDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[form.ID] = form
	m.fields[form.ID] = fields
	return nil
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Close() error { return nil }

func (m *mockStore) counts() (subs, responses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions), len(m.responses)
}
