package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wassi-real/lidforms/internal/config"
	"github.com/wassi-real/lidforms/internal/events"
	"github.com/wassi-real/lidforms/internal/logging"
	"github.com/wassi-real/lidforms/internal/pipeline"
	"github.com/wassi-real/lidforms/internal/server"
	"github.com/wassi-real/lidforms/internal/session"
	"github.com/wassi-real/lidforms/internal/snapshot"
	"github.com/wassi-real/lidforms/internal/store/postgres"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the HTTP and gRPC servers",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("error closing store", zap.Error(err))
			}
		}()

		publisher := newPublisher(cfg.NATSURL, log)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("error closing publisher", zap.Error(err))
			}
		}()

		p := pipeline.New(store, store,
			pipeline.WithPublisher(publisher),
			pipeline.WithLogger(log),
			pipeline.WithTimeout(cfg.StoreTimeout),
		)
		guard := session.NewGuard(session.NewJWTGate(cfg.SessionSecret, cfg.SessionCookie), cfg.LoginURL, log)
		if cfg.SessionSecret == "" {
			log.Warn("owner routes disabled (LIDFORMS_SESSION_SECRET not set)")
		}

		formsServer := server.NewFormsServer(store, p, guard, log, server.Options{
			StoreTimeout: cfg.StoreTimeout,
			MaxBodyBytes: cfg.MaxBodyBytes,
		})
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           formsServer.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		grpcServer, health := server.NewGRPCServer(log)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}

		scheduler := startSnapshots(cmd.Context(), cfg, store, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down")
			health.Shutdown()

			if scheduler != nil {
				scheduler.Stop()
				log.Info("snapshot scheduler stopped")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err := httpServer.Shutdown(shutdownCtx)
			log.Info("HTTP server stopped")

			grpcServer.GracefulStop()
			log.Info("gRPC server stopped")
			return err
		})

		if err := g.Wait(); err != nil {
			return err
		}
		log.Info("shutdown complete")
		return nil
	},
}

// newPublisher connects to NATS when a URL is configured. Connection
// failures leave events disabled rather than blocking startup.
func newPublisher(natsURL string, log *zap.Logger) events.Publisher {
	if natsURL == "" {
		log.Info("events disabled (LIDFORMS_NATS_URL not set)")
		return events.NoopPublisher{}
	}
	pub, err := events.NewNATSPublisher(natsURL)
	if err != nil {
		log.Error("events disabled", zap.Error(err))
		return events.NoopPublisher{}
	}
	log.Info("events enabled", zap.String("nats_url", natsURL))
	return pub
}

func startSnapshots(ctx context.Context, cfg *config.Config, src snapshot.Source, log *zap.Logger) *snapshot.Scheduler {
	if !cfg.SnapshotsEnabled() {
		return nil
	}
	dest, err := snapshot.NewS3Destination(ctx, cfg.SnapshotS3Bucket, cfg.SnapshotS3Key, cfg.SnapshotS3Region, cfg.SnapshotS3Endpoint)
	if err != nil {
		log.Error("failed to create S3 snapshot destination", zap.Error(err))
		return nil
	}
	s := snapshot.NewScheduler(src, []snapshot.Destination{dest}, cfg.SnapshotInterval, log)
	s.Start()
	log.Info("snapshot scheduler started",
		zap.Duration("interval", cfg.SnapshotInterval),
		zap.String("bucket", cfg.SnapshotS3Bucket),
		zap.String("key", cfg.SnapshotS3Key))
	return s
}
