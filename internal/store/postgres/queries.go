package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
)

// formColumns is the column list used for SELECT statements on the forms table.
const formColumns = `id, owner_id, title, is_active, created_at`

// fieldColumns is the column list used for SELECT statements on form_fields.
const fieldColumns = `id, form_id, label, required, position`

// executor is the interface satisfied by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	sqlx.ExtContext
}

// canonicalID parses a path identifier. Form ids are UUID columns, so
// anything else cannot name a form and is reported as unavailable without
// reaching the database.
func canonicalID(formID string) (string, error) {
	id, err := uuid.Parse(formID)
	if err != nil {
		return "", fault.New(fault.FormUnavailable, "form id is not a uuid", err)
	}
	return id.String(), nil
}

func queryGetActiveForm(ctx context.Context, db executor, formID string) (*model.Form, []*model.FieldDefinition, error) {
	id, err := canonicalID(formID)
	if err != nil {
		return nil, nil, err
	}

	var f model.Form
	err = sqlx.GetContext(ctx, db, &f,
		`SELECT `+formColumns+` FROM forms WHERE id = $1 AND is_active = true`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fault.New(fault.FormUnavailable, "no active form", err)
	}
	if err != nil {
		return nil, nil, fault.New(fault.SchemaLoadFailed, describe("select form", err), err)
	}

	fields, err := queryGetFields(ctx, db, id)
	if err != nil {
		return nil, nil, fault.New(fault.SchemaLoadFailed, describe("select fields", err), err)
	}
	return &f, fields, nil
}

func queryGetOwnerForm(ctx context.Context, db executor, ownerID, formID string) (*model.Form, []*model.FieldDefinition, error) {
	id, err := canonicalID(formID)
	if err != nil {
		return nil, nil, err
	}

	var f model.Form
	err = sqlx.GetContext(ctx, db, &f,
		`SELECT `+formColumns+` FROM forms WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fault.New(fault.FormUnavailable, "no form for owner", err)
	}
	if err != nil {
		return nil, nil, fault.New(fault.SchemaLoadFailed, describe("select owner form", err), err)
	}

	fields, err := queryGetFields(ctx, db, id)
	if err != nil {
		return nil, nil, fault.New(fault.SchemaLoadFailed, describe("select fields", err), err)
	}
	return &f, fields, nil
}

// queryGetFields returns the form's fields by position, ties broken by
// insertion order. The result is never nil.
func queryGetFields(ctx context.Context, db executor, formID string) ([]*model.FieldDefinition, error) {
	fields := []*model.FieldDefinition{}
	err := sqlx.SelectContext(ctx, db, &fields,
		`SELECT `+fieldColumns+` FROM form_fields WHERE form_id = $1 ORDER BY position ASC, seq ASC`, formID)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func queryListOwnerForms(ctx context.Context, db executor, ownerID string) ([]*model.FormSummary, error) {
	forms := []*model.FormSummary{}
	err := sqlx.SelectContext(ctx, db, &forms, `
		SELECT f.id, f.owner_id, f.title, f.is_active, f.created_at,
			COUNT(s.id) AS submission_count
		FROM forms f
		LEFT JOIN submissions s ON s.form_id = f.id
		WHERE f.owner_id = $1
		GROUP BY f.id
		ORDER BY f.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner forms: %w", err)
	}
	return forms, nil
}

func queryListFormSchemas(ctx context.Context, db executor) ([]*model.FormSchema, error) {
	var forms []*model.Form
	if err := sqlx.SelectContext(ctx, db, &forms,
		`SELECT `+formColumns+` FROM forms ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}

	var fields []*model.FieldDefinition
	if err := sqlx.SelectContext(ctx, db, &fields,
		`SELECT `+fieldColumns+` FROM form_fields ORDER BY form_id, position ASC, seq ASC`); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}

	byForm := make(map[string][]*model.FieldDefinition, len(forms))
	for _, f := range fields {
		byForm[f.FormID] = append(byForm[f.FormID], f)
	}

	schemas := make([]*model.FormSchema, 0, len(forms))
	for _, f := range forms {
		fs := byForm[f.ID]
		if fs == nil {
			fs = []*model.FieldDefinition{}
		}
		schemas = append(schemas, &model.FormSchema{Form: f, Fields: fs})
	}
	return schemas, nil
}

func queryInsertSubmission(ctx context.Context, db executor, formID string) (*model.Submission, error) {
	var sub model.Submission
	err := sqlx.GetContext(ctx, db, &sub,
		`INSERT INTO submissions (form_id) VALUES ($1) RETURNING id, form_id, created_at`, formID)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// queryInsertResponses writes all responses with one multi-row INSERT.
func queryInsertResponses(ctx context.Context, db executor, responses []model.FieldResponse) error {
	if len(responses) == 0 {
		return nil
	}

	var (
		rows []string
		args = make([]any, 0, len(responses)*3)
	)
	for i, r := range responses {
		n := i * 3
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
		args = append(args, r.SubmissionID, r.FieldID, r.Value)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO submission_responses (submission_id, field_id, value) VALUES `+strings.Join(rows, ", "),
		args...)
	return err
}

func queryInsertForm(ctx context.Context, db executor, f *model.Form) error {
	return db.QueryRowxContext(ctx,
		`INSERT INTO forms (owner_id, title, is_active) VALUES ($1, $2, $3) RETURNING id, created_at`,
		f.OwnerID, f.Title, f.IsActive,
	).Scan(&f.ID, &f.CreatedAt)
}

func queryInsertField(ctx context.Context, db executor, f *model.FieldDefinition) error {
	return db.QueryRowxContext(ctx,
		`INSERT INTO form_fields (form_id, label, required, position) VALUES ($1, $2, $3, $4) RETURNING id`,
		f.FormID, f.Label, f.Required, f.Position,
	).Scan(&f.ID)
}
