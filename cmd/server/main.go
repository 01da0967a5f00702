package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	authsvc "oilcert/internal/auth"
	certhandler "oilcert/internal/certificate/handler"
	certmetrics "oilcert/internal/certificate/metrics"
	certservice "oilcert/internal/certificate/service"
	certstore "oilcert/internal/certificate/store"
	jwttoken "oilcert/internal/jwt_token"
	"oilcert/internal/platform/config"
	"oilcert/internal/platform/httpserver"
	"oilcert/internal/platform/kafka"
	"oilcert/internal/platform/logger"
	"oilcert/internal/platform/metrics"
	"oilcert/internal/platform/postgres"
	platformredis "oilcert/internal/platform/redis"
	"oilcert/internal/rbac"
	httptransport "oilcert/internal/transport/http"
	"oilcert/internal/verification"
	id "oilcert/pkg/domain"
	audit "oilcert/pkg/platform/audit"
	kafkasink "oilcert/pkg/platform/audit/sink/kafka"
	auditmemory "oilcert/pkg/platform/audit/store/memory"
	auditpostgres "oilcert/pkg/platform/audit/store/postgres"
	auditworker "oilcert/pkg/platform/audit/worker"
)

const auditBufferSize = 1024

// main wires the stores, services, and background workers. Business logic
// lives in the internal packages; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		certs      certstore.Store
		roles      rbac.RoleStore
		auditStore audit.Store
	)
	pgCfg := config.PostgresFromEnv()
	if pgCfg.DSN != "" {
		db, err := postgres.Open(ctx, pgCfg)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		certs = certstore.NewPostgres(db)
		roles = rbac.NewPostgresRoleStore(db)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		certs = certstore.NewInMemory()
		roles = rbac.NewInMemoryRoleStore()
		auditStore = auditmemory.NewInMemoryStore()
	}

	// Verification cache, when Redis is configured.
	redisClient, err := platformredis.New(config.RedisFromEnv())
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var verifyCache *verification.Cache
	if redisClient != nil {
		defer redisClient.Close()
		verifyCache = verification.NewCache(redisClient.Client, config.RedisFromEnv().CacheTTL)
		certs = verification.NewInvalidatingStore(certs, verifyCache)
	}

	// Audit pipeline: services emit into a buffered channel, the worker
	// persists and optionally streams to Kafka.
	inbox := make(chan audit.Event, auditBufferSize)
	auditPublisher := audit.NewPublisher(inbox, log)

	var workerOpts []auditworker.Option
	producer, err := kafka.NewProducer(config.KafkaFromEnv())
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
		workerOpts = append(workerOpts, auditworker.WithSink(kafkasink.New(producer)))
	}
	worker := auditworker.NewWorker(auditStore, inbox, log, workerOpts...)

	// Access control and authentication.
	rbacService := rbac.New(roles, rbac.WithLogger(log), rbac.WithAuditPublisher(auditPublisher))
	if err := rbac.Seed(ctx, roles, id.Identity(cfg.BootstrapAdmin)); err != nil {
		log.Error("failed to seed bootstrap admin", "error", err)
		os.Exit(1)
	}
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	authService := authsvc.New(jwtService)
	if err := authService.RegisterWithSecret(id.Identity(cfg.BootstrapAdmin), cfg.BootstrapAdminSecret); err != nil {
		log.Error("failed to register bootstrap admin account", "error", err)
		os.Exit(1)
	}

	// Certificate lifecycle services.
	domainMetrics := certmetrics.New()
	svcOpts := []certservice.Option{
		certservice.WithLogger(log),
		certservice.WithAuditPublisher(auditPublisher),
		certservice.WithMetrics(domainMetrics),
	}
	registry := certservice.NewRegistry(certs, rbacService, svcOpts...)
	monitor := certservice.NewMonitor(certs, rbacService, svcOpts...)
	renewer := certservice.NewRenewer(certs, rbacService, svcOpts...)
	expirer := certservice.NewExpirer(certs, cfg.ExpirySweepInterval, svcOpts...)

	verifier := verification.New(certs,
		verification.WithLogger(log),
		verification.WithCache(verifyCache),
	)

	// HTTP surface.
	httpMetrics := metrics.NewHTTP()
	router := httptransport.NewRouter(log, httpMetrics,
		authsvc.NewHandler(authService, log),
		certhandler.New(registry, monitor, renewer, auditStore, log, jwtService),
		verification.NewHandler(verifier),
		rbac.NewHandler(rbacService, log, jwtService),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting oilcert registry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		return expirer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
