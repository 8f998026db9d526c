package pipeline

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wassi-real/lidforms/internal/events"
	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	contactID  = "form-contact"
	inactiveID = "form-closed"
)

// contactStore holds the contact form: name (required, position 1) and
// note (optional, position 2), plus an inactive copy.
func contactStore() *memStore {
	m := newMemStore()
	m.addForm(&model.Form{ID: contactID, Title: "Contact", IsActive: true},
		&model.FieldDefinition{ID: "name", Label: "Your name", Required: true, Position: 1},
		&model.FieldDefinition{ID: "note", Label: "Note", Position: 2},
	)
	m.addForm(&model.Form{ID: inactiveID, Title: "Closed", IsActive: false},
		&model.FieldDefinition{ID: "name", Label: "Your name", Required: true, Position: 1},
	)
	return m
}

func newTestPipeline(m *memStore, opts ...Option) *Pipeline {
	return New(m, m, opts...)
}

func TestSubmit_Success(t *testing.T) {
	m := contactStore()
	pub := &recordingPublisher{}
	p := newTestPipeline(m, WithPublisher(pub))

	res := p.Submit(context.Background(), contactID, map[string]string{"name": "Ann"})

	require.Equal(t, Success, res.Outcome)
	assert.Equal(t, http.StatusOK, res.Status())
	assert.Equal(t, MsgSuccess, res.Message)
	require.NotNil(t, res.Submission)
	assert.Equal(t, contactID, res.Submission.FormID)

	subs, responses := m.counts()
	assert.Equal(t, 1, subs)
	require.Equal(t, 1, responses)
	assert.Equal(t, model.FieldResponse{SubmissionID: res.Submission.ID, FieldID: "name", Value: "Ann"}, m.responses[0])

	require.Equal(t, []string{events.TopicSubmissionCreated}, pub.topics)
	ev := pub.events[0].(events.SubmissionCreated)
	assert.Equal(t, res.Submission.ID, ev.SubmissionID)
	assert.Equal(t, 1, ev.ResponseCount)
}

func TestSubmit_MissingRequired(t *testing.T) {
	m := contactStore()
	p := newTestPipeline(m)

	res := p.Submit(context.Background(), contactID, map[string]string{})

	assert.Equal(t, BadRequest, res.Outcome)
	assert.Equal(t, http.StatusBadRequest, res.Status())
	assert.Equal(t, "Please fill in the required field: Your name", res.Message)
	assert.Equal(t, fault.ValidationFailed, fault.KindOf(res.Err))
	assert.Zero(t, m.writeCalls, "validation failure must not reach the writer")
	subs, responses := m.counts()
	assert.Zero(t, subs)
	assert.Zero(t, responses)
}

func TestSubmit_EmptyRequiredValue(t *testing.T) {
	m := contactStore()
	p := newTestPipeline(m)

	res := p.Submit(context.Background(), contactID, map[string]string{"name": "", "note": "hi"})

	assert.Equal(t, BadRequest, res.Outcome)
	assert.Zero(t, m.writeCalls)
}

func TestSubmit_InactiveForm(t *testing.T) {
	m := contactStore()
	p := newTestPipeline(m)

	res := p.Submit(context.Background(), inactiveID, map[string]string{"name": "Ann"})

	assert.Equal(t, NotFound, res.Outcome)
	assert.Equal(t, http.StatusNotFound, res.Status())
	assert.Equal(t, fault.MsgFormUnavailable, res.Message)
	assert.Zero(t, m.writeCalls)
}

func TestFetch_MissingMatchesInactive(t *testing.T) {
	m := contactStore()
	p := newTestPipeline(m)

	_, errMissing := p.Fetch(context.Background(), "form-nope")
	_, errInactive := p.Fetch(context.Background(), inactiveID)

	assert.Equal(t, fault.FormUnavailable, fault.KindOf(errMissing))
	assert.Equal(t, fault.FormUnavailable, fault.KindOf(errInactive))
	assert.Equal(t, fault.PublicMessage(errInactive), fault.PublicMessage(errMissing))
}

func TestFetch_Active(t *testing.T) {
	p := newTestPipeline(contactStore())

	schema, err := p.Fetch(context.Background(), contactID)
	require.NoError(t, err)
	assert.Equal(t, "Contact", schema.Form.Title)
	require.Len(t, schema.Fields, 2)
	assert.Equal(t, "name", schema.Fields[0].ID)
}

func TestSubmit_OptionalOnly(t *testing.T) {
	m := newMemStore()
	m.addForm(&model.Form{ID: "survey", IsActive: true},
		&model.FieldDefinition{ID: "a", Label: "A", Position: 1},
		&model.FieldDefinition{ID: "b", Label: "B", Position: 2},
	)
	p := newTestPipeline(m)

	res := p.Submit(context.Background(), "survey", map[string]string{"a": "", "b": "kept", "zzz": "ignored"})

	require.Equal(t, Success, res.Outcome)
	_, responses := m.counts()
	assert.Equal(t, 1, responses)
	assert.Equal(t, "b", m.responses[0].FieldID)
}

func TestSubmit_SchemaLoadFailure(t *testing.T) {
	m := contactStore()
	m.loadErr = fault.New(fault.SchemaLoadFailed, "select fields (sqlstate 57014)", errConnReset)
	core, logs := observer.New(zapcore.ErrorLevel)
	p := newTestPipeline(m, WithLogger(zap.New(core)))

	res := p.Submit(context.Background(), contactID, map[string]string{"name": "Ann"})

	assert.Equal(t, InternalError, res.Outcome)
	assert.Equal(t, fault.MsgSchemaLoad, res.Message)
	assert.NotContains(t, res.Message, "sqlstate")
	assert.Zero(t, m.writeCalls)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, contactID, logs.All()[0].ContextMap()["form_id"])
}

func TestSubmit_UnclassifiedLoadError(t *testing.T) {
	m := contactStore()
	m.loadErr = errConnReset
	p := newTestPipeline(m)

	res := p.Submit(context.Background(), contactID, map[string]string{"name": "Ann"})

	assert.Equal(t, InternalError, res.Outcome)
	assert.Equal(t, fault.MsgSchemaLoad, res.Message)
}

func TestSubmit_ResponseFailureLeavesNoHeader(t *testing.T) {
	m := contactStore()
	m.responsesErr = fault.New(fault.ResponseWriteFailed, "insert responses (sqlstate 23503)", errConnReset)
	pub := &recordingPublisher{}
	p := newTestPipeline(m, WithPublisher(pub))

	res := p.Submit(context.Background(), contactID, map[string]string{"name": "Ann", "note": "n"})

	assert.Equal(t, InternalError, res.Outcome)
	assert.Equal(t, fault.MsgWrite, res.Message)
	subs, responses := m.counts()
	assert.Zero(t, subs, "header must not survive a failed response write")
	assert.Zero(t, responses)
	assert.Empty(t, pub.topics)
}

func TestSubmit_HeaderFailure(t *testing.T) {
	m := contactStore()
	m.headerErr = errConnReset
	p := newTestPipeline(m)

	res := p.Submit(context.Background(), contactID, map[string]string{"name": "Ann"})

	assert.Equal(t, InternalError, res.Outcome)
	assert.Equal(t, fault.MsgWrite, res.Message)
	assert.Equal(t, fault.HeaderWriteFailed, fault.KindOf(res.Err))
}

func TestSubmit_WriteSurvivesCallerCancel(t *testing.T) {
	m := contactStore()
	ctx, cancel := context.WithCancel(context.Background())
	var (
		writeErr    error
		hasDeadline bool
	)
	m.writeObserves = func(wctx context.Context) {
		cancel()
		writeErr = wctx.Err()
		_, hasDeadline = wctx.Deadline()
	}
	p := newTestPipeline(m)

	res := p.Submit(ctx, contactID, map[string]string{"name": "Ann"})

	require.Equal(t, Success, res.Outcome)
	assert.NoError(t, writeErr, "write context must be detached from the caller")
	assert.True(t, hasDeadline)
}

func TestSubmit_CanceledBeforeLoad(t *testing.T) {
	m := contactStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPipeline(m)

	res := p.Submit(ctx, contactID, map[string]string{"name": "Ann"})

	assert.Equal(t, InternalError, res.Outcome)
	assert.Zero(t, m.writeCalls)
}

func TestSubmit_PublishFailureDoesNotChangeResult(t *testing.T) {
	m := contactStore()
	pub := &recordingPublisher{err: errConnReset}
	core, logs := observer.New(zapcore.WarnLevel)
	p := newTestPipeline(m, WithPublisher(pub), WithLogger(zap.New(core)))

	res := p.Submit(context.Background(), contactID, map[string]string{"name": "Ann"})

	assert.Equal(t, Success, res.Outcome)
	assert.Equal(t, 1, logs.FilterMessage("publish submission event").Len())
}

func TestWithTimeout(t *testing.T) {
	p := New(nil, nil, WithTimeout(250*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, p.timeout)

	p = New(nil, nil, WithTimeout(0))
	assert.Equal(t, DefaultTimeout, p.timeout)
}

func TestOutcome(t *testing.T) {
	for _, tc := range []struct {
		o      Outcome
		name   string
		status int
	}{
		{Success, "success", http.StatusOK},
		{NotFound, "not_found", http.StatusNotFound},
		{BadRequest, "bad_request", http.StatusBadRequest},
		{InternalError, "internal_error", http.StatusInternalServerError},
	} {
		assert.Equal(t, tc.name, tc.o.String())
		assert.Equal(t, tc.status, tc.o.Status())
	}
}

func TestSubmit_WritesWithLoadedFormID(t *testing.T) {
	m := contactStore()
	m.aliases["URN:FORM-CONTACT"] = contactID
	p := newTestPipeline(m)

	res := p.Submit(context.Background(), "URN:FORM-CONTACT", map[string]string{"name": "Ann"})

	require.Equal(t, Success, res.Outcome, "err: %v", res.Err)
	assert.Equal(t, []string{contactID}, m.writeFormIDs)
	assert.Equal(t, contactID, res.Submission.FormID)
}
