package store

import (
	"context"

	"github.com/wassi-real/lidforms/internal/model"
)

// SchemaStore is the read path for form and field definitions.
type SchemaStore interface {
	// GetActiveForm returns an active form and its fields ordered by
	// position. Missing and inactive forms both return a
	// fault.FormUnavailable error; any other failure is fault.SchemaLoadFailed.
	GetActiveForm(ctx context.Context, formID string) (*model.Form, []*model.FieldDefinition, error)
}

// SubmissionWriter is the write path for submissions.
type SubmissionWriter interface {
	// WriteSubmission persists one submission header and the given responses
	// as a single unit. Either both are visible afterwards or neither is.
	WriteSubmission(ctx context.Context, formID string, values model.Values) (*model.Submission, error)
}

// Store is the full persistence interface used by the server.
type Store interface {
	SchemaStore
	SubmissionWriter

	// Owner-facing reads. Unlike GetActiveForm these include inactive forms.
	ListOwnerForms(ctx context.Context, ownerID string) ([]*model.FormSummary, error)
	GetOwnerForm(ctx context.Context, ownerID, formID string) (*model.Form, []*model.FieldDefinition, error)

	// ListFormSchemas returns every form with its fields, for snapshots.
	ListFormSchemas(ctx context.Context) ([]*model.FormSchema, error)

	// CreateForm stores an operator-defined form and its fields in one
	// transaction, assigning ids to both.
	CreateForm(ctx context.Context, form *model.Form, fields []*model.FieldDefinition) error

	Ping(ctx context.Context) error
	Close() error
}
