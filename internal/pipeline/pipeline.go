// Package pipeline runs one form submission through schema load, validation
// and persistence, and maps the outcome to a caller-facing result.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wassi-real/lidforms/internal/events"
	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
	"github.com/wassi-real/lidforms/internal/store"
)

// MsgSuccess is returned when a submission has been stored.
const MsgSuccess = "Form submitted successfully!"

// DefaultTimeout bounds each store call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Outcome is the terminal state of a submission.
type Outcome int

const (
	Success Outcome = iota
	NotFound
	BadRequest
	InternalError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NotFound:
		return "not_found"
	case BadRequest:
		return "bad_request"
	default:
		return "internal_error"
	}
}

// Status returns the HTTP status code for the outcome.
func (o Outcome) Status() int {
	switch o {
	case Success:
		return http.StatusOK
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Result is what a submitter sees. Err keeps the internal cause for logging
// and is never rendered.
type Result struct {
	Outcome    Outcome
	Message    string
	Submission *model.Submission
	Err        error
}

// Status returns the HTTP status code for the result.
func (r Result) Status() int { return r.Outcome.Status() }

// Pipeline composes a schema store and a submission writer. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	schemas   store.SchemaStore
	writer    store.SubmissionWriter
	publisher events.Publisher
	log       *zap.Logger
	timeout   time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPublisher sets where submission events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithLogger sets the logger for infrastructure failures.
func WithLogger(l *zap.Logger) Option {
	return func(pl *Pipeline) { pl.log = l }
}

// WithTimeout bounds each store call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(pl *Pipeline) {
		if d > 0 {
			pl.timeout = d
		}
	}
}

// New returns a pipeline reading schemas from schemas and writing through
// writer.
func New(schemas store.SchemaStore, writer store.SubmissionWriter, opts ...Option) *Pipeline {
	p := &Pipeline{
		schemas:   schemas,
		writer:    writer,
		publisher: events.NoopPublisher{},
		log:       zap.NewNop(),
		timeout:   DefaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit loads the form schema, validates raw against it and, if valid,
// stores the submission. Nothing is written unless validation passes.
func (p *Pipeline) Submit(ctx context.Context, formID string, raw map[string]string) Result {
	log := p.log.With(zap.String("form_id", formID))

	form, fields, err := p.load(ctx, formID)
	if err != nil {
		return p.fail(log, err)
	}
	// The store may canonicalize the id; everything after the load uses its
	// spelling.
	log = p.log.With(zap.String("form_id", form.ID))

	values, err := model.ValidateSubmission(fields, raw)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			err = fault.New(fault.ValidationFailed, model.RequiredMessage(ve.First().Field), ve)
		}
		return p.fail(log, err)
	}

	// The write is detached from the caller so a client disconnect cannot
	// abandon the transaction midway.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	sub, err := p.writer.WriteSubmission(wctx, form.ID, values)
	if err != nil {
		if fault.KindOf(err) == 0 {
			err = fault.New(fault.HeaderWriteFailed, "write submission", err)
		}
		return p.fail(log, err)
	}

	log.Debug("submission stored",
		zap.String("submission_id", sub.ID),
		zap.Int("responses", len(values)))
	p.publish(wctx, log, sub, values)

	return Result{Outcome: Success, Message: MsgSuccess, Submission: sub}
}

// Fetch returns an active form with its ordered fields. Errors are faults:
// FormUnavailable or SchemaLoadFailed.
func (p *Pipeline) Fetch(ctx context.Context, formID string) (*model.FormSchema, error) {
	form, fields, err := p.load(ctx, formID)
	if err != nil {
		if !fault.KindOf(err).IsClient() {
			p.log.Error("load form", zap.String("form_id", formID), zap.Error(err))
		}
		return nil, err
	}
	return &model.FormSchema{Form: form, Fields: fields}, nil
}

func (p *Pipeline) load(ctx context.Context, formID string) (*model.Form, []*model.FieldDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	form, fields, err := p.schemas.GetActiveForm(ctx, formID)
	if err != nil {
		if fault.KindOf(err) == 0 {
			err = fault.New(fault.SchemaLoadFailed, "load schema", err)
		}
		return nil, nil, err
	}
	return form, fields, nil
}

// fail maps err to a result. Infrastructure detail is logged here and
// replaced by the generic message for its kind.
func (p *Pipeline) fail(log *zap.Logger, err error) Result {
	kind := fault.KindOf(err)
	res := Result{Message: fault.PublicMessage(err), Err: err}

	switch kind {
	case fault.FormUnavailable:
		res.Outcome = NotFound
	case fault.ValidationFailed:
		res.Outcome = BadRequest
	default:
		res.Outcome = InternalError
		log.Error("submission failed", zap.Stringer("kind", kind), zap.Error(err))
	}
	return res
}

func (p *Pipeline) publish(ctx context.Context, log *zap.Logger, sub *model.Submission, values model.Values) {
	if err := p.publisher.Publish(ctx, events.TopicSubmissionCreated, events.NewSubmissionCreated(sub, values)); err != nil {
		log.Warn("publish submission event", zap.String("submission_id", sub.ID), zap.Error(err))
	}
}
