// Package client talks to the lidforms HTTP API. It is used by the CLI and
// by anything that needs to submit forms programmatically.
package client

import (
	"context"
	"fmt"

	"github.com/wassi-real/lidforms/internal/model"
	"github.com/wassi-real/lidforms/internal/session"
)

// FormsClient is the interface the CLI commands use to reach the server.
type FormsClient interface {
	// Public
	GetForm(ctx context.Context, formID string) (*model.FormSchema, error)
	Submit(ctx context.Context, formID string, values map[string]string) (string, error)

	// Owner-facing; require a token.
	Me(ctx context.Context) (*session.Session, error)
	ListOwnerForms(ctx context.Context) ([]*model.FormSummary, error)

	Health(ctx context.Context) (string, error)
	Close() error
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// LoginRequiredError is returned when an owner route redirects to login.
type LoginRequiredError struct {
	Location string
}

func (e *LoginRequiredError) Error() string {
	return "login required: " + e.Location
}
