// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/wassi-real/lidforms/internal/fault"
	"github.com/wassi-real/lidforms/internal/model"
	"github.com/wassi-real/lidforms/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database. It
// connects with the service credentials, so it must only be handed to
// server-side components.
type PostgresStore struct {
	db *sqlx.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sqlx.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) GetActiveForm(ctx context.Context, formID string) (*model.Form, []*model.FieldDefinition, error) {
	return queryGetActiveForm(ctx, s.db, formID)
}

func (s *PostgresStore) GetOwnerForm(ctx context.Context, ownerID, formID string) (*model.Form, []*model.FieldDefinition, error) {
	return queryGetOwnerForm(ctx, s.db, ownerID, formID)
}

func (s *PostgresStore) ListOwnerForms(ctx context.Context, ownerID string) ([]*model.FormSummary, error) {
	return queryListOwnerForms(ctx, s.db, ownerID)
}

func (s *PostgresStore) ListFormSchemas(ctx context.Context) ([]*model.FormSchema, error) {
	return queryListFormSchemas(ctx, s.db)
}

// WriteSubmission inserts the submission header and its responses inside one
// transaction. A failed response insert rolls the header back with it, so no
// empty submission is ever visible to readers.
func (s *PostgresStore) WriteSubmission(ctx context.Context, formID string, values model.Values) (*model.Submission, error) {
	var sub *model.Submission
	err := s.runInTransaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		sub, err = queryInsertSubmission(ctx, tx, formID)
		if err != nil {
			return fault.New(fault.HeaderWriteFailed, describe("insert submission", err), err)
		}
		// No batch is sent for an empty value set.
		if len(values) == 0 {
			return nil
		}
		if err := queryInsertResponses(ctx, tx, values.Responses(sub.ID)); err != nil {
			return fault.New(fault.ResponseWriteFailed, describe("insert responses", err), err)
		}
		return nil
	})
	if err == nil {
		return sub, nil
	}
	if fault.KindOf(err) != 0 {
		return nil, err
	}
	// Begin or commit failed.
	kind := fault.HeaderWriteFailed
	if sub != nil && len(values) > 0 {
		kind = fault.ResponseWriteFailed
	}
	return nil, fault.New(kind, describe("submission transaction", err), err)
}

// CreateForm stores a form and its fields in one transaction and fills in
// the generated ids.
func (s *PostgresStore) CreateForm(ctx context.Context, form *model.Form, fields []*model.FieldDefinition) error {
	return s.runInTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := queryInsertForm(ctx, tx, form); err != nil {
			return fmt.Errorf("insert form: %w", err)
		}
		for _, f := range fields {
			f.FormID = form.ID
			if err := queryInsertField(ctx, tx, f); err != nil {
				return fmt.Errorf("insert field %q: %w", f.Label, err)
			}
		}
		return nil
	})
}

// runInTransaction begins a database transaction, calls fn, and commits on
// success or rolls back on error.
func (s *PostgresStore) runInTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
