// Package server orchestrates all components: NATS transport, HTTP
// transport, registry, dispatcher, metrics and optional audit storage.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/methodbus/methodbus/internal/config"
	"github.com/methodbus/methodbus/pkg/api"
	"github.com/methodbus/methodbus/pkg/audit"
	"github.com/methodbus/methodbus/pkg/events"
	"github.com/methodbus/methodbus/pkg/httprpc"
	"github.com/methodbus/methodbus/pkg/manifest"
	"github.com/methodbus/methodbus/pkg/metrics"
	"github.com/methodbus/methodbus/pkg/natsrpc"
)

const logPrefix = "server:server"

// Server is the methodbus orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *nats.Conn
	pool       *pgxpool.Pool
	transport  *natsrpc.Transport
	httpServer *http.Server
	reg        *api.Registry
}

// Run starts the bus, merges the given collections on top of the
// built-in system collection, blocks until a shutdown signal, then
// cleans up.
func Run(collections ...*api.Collection) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}

	// Setup structured logging
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting methodbus", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}
	startedAt := time.Now()

	// Step 1: Load the service manifest
	man, err := manifest.Load(cfg.ManifestFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Manifest %s@%s", logPrefix, man.Name, man.Version))

	// Step 2: Connect to NATS
	nc, err := natsrpc.Connect(cfg.NATSURL, cfg.NATSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	s.nc = nc
	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.NATSURL))

	// Step 3: Optional audit database
	if cfg.AuditEnabled() {
		pool, err := audit.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			nc.Close()
			return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool

		if cfg.RunMigrations {
			if err := audit.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
	}

	// Step 4: Registry with change events over NATS
	publisherOpts := &events.NatsPublisherOpts{}
	if cfg.ChangeEventSubject != "" {
		publisherOpts.GlobalSubject = cfg.ChangeEventSubject
	}
	reg := api.NewRegistry(api.NewRegistryParams{
		Publisher: events.NewNatsPublisher(nc, publisherOpts),
	})
	s.reg = reg

	if err := reg.Merge(NewSystemCollection(reg, startedAt)); err != nil {
		s.close()
		return fmt.Errorf("%s - failed to merge system collection: %w", logPrefix, err)
	}
	for _, c := range collections {
		if err := reg.Merge(c); err != nil {
			s.close()
			return fmt.Errorf("%s - failed to merge collection: %w", logPrefix, err)
		}
	}

	// Step 4b: Audit recorder observes every method
	if s.pool != nil {
		recorder := audit.NewRecorder(audit.RecorderParams{Sink: audit.NewStore(s.pool)})
		if err := recorder.Attach(reg); err != nil {
			s.close()
			return fmt.Errorf("%s - failed to attach audit recorder: %w", logPrefix, err)
		}
	}

	// Step 5: Manifest minimum-methods check
	if err := man.VerifyMinimumMethods(reg); err != nil {
		s.close()
		return err
	}

	// Step 6: Dispatcher with Prometheus instrumentation
	m := metrics.New()
	disp := api.NewDispatcher(api.NewDispatcherParams{
		Registry: reg,
		Recorder: m,
	})

	// Step 7: NATS transport
	transport := natsrpc.NewTransport(natsrpc.TransportParams{
		Conn:       nc,
		Dispatcher: disp,
		Prefix:     cfg.SubjectPrefix,
		Queue:      cfg.QueueGroup,
		Timeout:    cfg.RequestTimeout,
	})
	if err := transport.Start(); err != nil {
		s.close()
		return err
	}
	s.transport = transport

	// Step 8: HTTP transport with metrics scrape endpoint
	httpSrv := httprpc.NewServer(httprpc.ServerParams{
		Registry:   reg,
		Dispatcher: disp,
		Timeout:    cfg.RequestTimeout,
		Metrics:    m.Handler(),
	})
	addr := cfg.ListenAddr()
	s.httpServer = &http.Server{Addr: addr, Handler: httpSrv.Handler()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, addr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Methodbus is ready (%d methods)", logPrefix, len(reg.MethodNames())))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	transport.Stop()
	s.httpServer.Shutdown(ctx)
	nc.Drain()
	if s.pool != nil {
		s.pool.Close()
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func (s *Server) close() {
	if s.transport != nil {
		s.transport.Stop()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
