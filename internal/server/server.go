// Package server exposes the submission pipeline and the owner dashboard
// over HTTP, and a gRPC health service for orchestrators.
package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wassi-real/lidforms/internal/pipeline"
	"github.com/wassi-real/lidforms/internal/session"
	"github.com/wassi-real/lidforms/internal/store"
)

// FormsServer holds the dependencies shared by all handlers.
type FormsServer struct {
	store    store.Store
	pipeline *pipeline.Pipeline
	guard    *session.Guard
	log      *zap.Logger

	storeTimeout time.Duration
	maxBodyBytes int64
}

// Options are the tunables for a FormsServer. Zero values take defaults.
type Options struct {
	StoreTimeout time.Duration
	MaxBodyBytes int64
}

// NewFormsServer returns a server backed by st. Public routes go through p;
// owner routes are checked by guard.
func NewFormsServer(st store.Store, p *pipeline.Pipeline, guard *session.Guard, log *zap.Logger, opts Options) *FormsServer {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = pipeline.DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &FormsServer{
		store:        st,
		pipeline:     p,
		guard:        guard,
		log:          log,
		storeTimeout: opts.StoreTimeout,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

func (s *FormsServer) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
