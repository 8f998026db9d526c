// Package snapshot periodically exports form definitions (never submitted
// values) as JSONL to one or more destinations.
package snapshot

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wassi-real/lidforms/internal/idgen"
	"github.com/wassi-real/lidforms/internal/model"
)

// Source lists every form with its fields.
type Source interface {
	ListFormSchemas(ctx context.Context) ([]*model.FormSchema, error)
}

// Destination is a snapshot target.
type Destination interface {
	// Write stores the JSONL payload.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic snapshots to one or more destinations.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	log          *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from source to the given
// destinations at the specified interval.
func NewScheduler(source Source, destinations []Destination, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		source:       source,
		destinations: destinations,
		interval:     interval,
		log:          log,
	}
}

// Start runs one snapshot immediately and then one per interval until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for an in-flight snapshot to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	_ = s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// RunOnce exports once and writes to every destination. A failing
// destination does not stop the others; the last error is returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	log := s.log.With(zap.String("snapshot_id", idgen.SnapshotID()))

	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, s.source, &buf)
	if err != nil {
		log.Error("snapshot export failed", zap.Error(err))
		return err
	}
	data := buf.Bytes()

	var (
		lastErr error
		failed  int
	)
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			log.Error("snapshot destination write failed", zap.Int("destination", i), zap.Error(err))
			lastErr = err
			failed++
		}
	}

	fields := []zap.Field{
		zap.Int("forms", n),
		zap.Int("destinations", len(s.destinations)),
		zap.Int("failed", failed),
		zap.Int("bytes", len(data)),
	}
	if lastErr != nil {
		log.Warn("snapshot completed with failures", fields...)
		return lastErr
	}
	log.Info("snapshot completed", fields...)
	return nil
}
