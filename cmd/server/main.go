package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"medgate/internal/alert/locator"
	alertModels "medgate/internal/alert/models"
	"medgate/internal/alert/scheduler"
	alertservice "medgate/internal/alert/service"
	alertstore "medgate/internal/alert/store"
	"medgate/internal/authz"
	"medgate/internal/directory"
	"medgate/internal/guard"
	"medgate/internal/jwttoken"
	"medgate/internal/notification"
	"medgate/internal/platform/config"
	"medgate/internal/platform/httpserver"
	"medgate/internal/platform/logger"
	"medgate/internal/platform/metrics"
	sessionservice "medgate/internal/session/service"
	httptransport "medgate/internal/transport/http"
	audit "medgate/pkg/platform/audit"
	auditpublisher "medgate/pkg/platform/audit/publisher"
	auditmemory "medgate/pkg/platform/audit/store/memory"
)

const (
	auditBufferSize = 1024
	shutdownTimeout = 10 * time.Second

	sessionSweepInterval = time.Minute
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("medgate exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mt := metrics.New(reg)

	auditLog := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(),
		auditpublisher.WithAsyncBuffer(auditBufferSize),
		auditpublisher.WithErrorHandler(func(ev audit.Event, err error) {
			log.Error("failed to persist audit event", "action", ev.Action, "error", err)
		}),
	)
	defer auditLog.Close()

	dir := directory.New(
		directory.WithLatency(cfg.Directory.Latency),
		directory.WithLogger(log),
	)
	if err := dir.Seed(directory.DemoUsers(), cfg.Directory.DemoPassword); err != nil {
		return fmt.Errorf("seed directory: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.Session.JWTSigningKey, "medgate")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	sessions := sessionservice.NewStore(func() *sessionservice.Manager {
		return sessionservice.NewManager(dir,
			sessionservice.WithLogger(log),
			sessionservice.WithMetrics(mt),
			sessionservice.WithAuditPublisher(auditLog),
			sessionservice.WithTracer(otel.Tracer("medgate/session")),
			sessionservice.WithLoginTimeout(cfg.Session.LoginTimeout),
		)
	}, sessionservice.WithSessionTTL(cfg.Session.TokenTTL))

	routes := authz.NewRouteTable(authz.DefaultRoutes())
	pageGuard := guard.New(routes,
		guard.WithLogger(log),
		guard.WithMetrics(mt),
		guard.WithAuditPublisher(auditLog),
	)
	inboxes := notification.NewInboxes(
		notification.WithLogger(log),
		notification.WithMetrics(mt),
	)

	engine, err := alertservice.New(alertstore.New(), scheduler.New(), alertservice.Config{
		DispatchDelay: cfg.Alert.DispatchDelay,
		OnSceneDelay:  cfg.Alert.OnSceneDelay,
		LocateTimeout: cfg.Alert.LocateTimeout,
		Fallback: alertModels.Location{
			Latitude:  cfg.Alert.FallbackLat,
			Longitude: cfg.Alert.FallbackLng,
			Address:   cfg.Alert.FallbackAddress,
		},
	},
		// No positioning provider is configured server-side; alerts fall back
		// unless the client reports a location.
		alertservice.WithLocator(locator.Unavailable{}),
		alertservice.WithObserver(notification.NewAlertObserver(inboxes)),
		alertservice.WithLogger(log),
		alertservice.WithMetrics(mt),
		alertservice.WithAuditPublisher(auditLog),
		alertservice.WithTracer(otel.Tracer("medgate/alert")),
	)
	if err != nil {
		return fmt.Errorf("build alert engine: %w", err)
	}

	router := httptransport.NewRouter(log, validator, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		httptransport.NewAuthHandler(sessions, jwtService, cfg.Session.TokenTTL, false, log),
		httptransport.NewNavigationHandler(sessions, routes),
		httptransport.NewNotificationHandler(sessions, inboxes, validator, log),
		httptransport.NewAlertHandler(sessions, engine, validator, log),
		httptransport.NewPageHandler(sessions, routes, pageGuard, inboxes),
	)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting medgate", "addr", cfg.Addr, "demo_users", dir.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, log, shutdownTimeout)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Pending lifecycle timers are dropped; open alerts keep their last status.
		engine.Close()
		return nil
	})
	g.Go(func() error {
		sweepSessions(gctx, sessions, sessionSweepInterval, log)
		return nil
	})
	return g.Wait()
}

// sweepSessions drops expired sessions every interval until ctx is done.
func sweepSessions(ctx context.Context, sessions *sessionservice.Store, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.DeleteExpired(now); n > 0 {
				log.Info("expired sessions removed", "count", n, "remaining", sessions.Len())
			}
		}
	}
}
