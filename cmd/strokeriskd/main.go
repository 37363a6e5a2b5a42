package main

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
	"github.com/redis/go-redis/v9"

	"github.com/bibhealth/strokerisk/internal/application/usecase"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
	"github.com/bibhealth/strokerisk/internal/domain/service"
	"github.com/bibhealth/strokerisk/internal/infrastructure/artifact"
	"github.com/bibhealth/strokerisk/internal/infrastructure/config"
	kafkapublisher "github.com/bibhealth/strokerisk/internal/infrastructure/kafka"
	"github.com/bibhealth/strokerisk/internal/infrastructure/metrics"
	outboxrelay "github.com/bibhealth/strokerisk/internal/infrastructure/outbox"
	"github.com/bibhealth/strokerisk/internal/infrastructure/postgres"
	grpcpresentation "github.com/bibhealth/strokerisk/internal/presentation/grpc"
	"github.com/bibhealth/strokerisk/internal/presentation/rest"
	"github.com/bibhealth/strokerisk/migrations"
	"github.com/bibhealth/strokerisk/pkg/auth"
	pkgkafka "github.com/bibhealth/strokerisk/pkg/kafka"
	"github.com/bibhealth/strokerisk/pkg/observability"
	pgutil "github.com/bibhealth/strokerisk/pkg/postgres"
	"github.com/bibhealth/strokerisk/pkg/tlsutil"
)

// modelSearchDirs are tried for relative model references not found as given.
var modelSearchDirs = []string{"models"}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Service:     cfg.ServiceName,
		Environment: cfg.Environment,
		RedactKeys:  model.PatientAttributeKeys(),
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	thresholds, _ := cfg.Thresholds()

	logger.Info("starting strokerisk",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"model", cfg.ModelPath,
		"band_policy", cfg.BandPolicy,
		"audit_enabled", cfg.AuditEnabled,
	)

	// Initialize tracing.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	recorder, err := metrics.NewRecorder(meterProvider)
	if err != nil {
		logger.Error("failed to create metric instruments", "error", err)
		os.Exit(1)
	}

	// Classifier cache, backed by files and optionally Redis.
	source := artifact.RefSource{Files: artifact.FileSource{SearchDirs: modelSearchDirs}}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = artifact.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		source.Redis = artifact.NewRedisSource(redisClient)
		logger.Info("redis artifact store enabled", "addr", cfg.RedisAddr)
	}
	loader := artifact.NewLoader(source, &http.Client{})
	classifiers := artifact.NewCache(loader.Load, logger)

	// Audit trail.
	readiness := map[string]rest.CheckFunc{
		"model": func(ctx context.Context) error {
			_, err := classifiers.Get(ctx, cfg.ModelPath)
			return err
		},
	}
	if redisClient != nil {
		readiness["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	var (
		repo   port.AssessmentRepository
		outbox bool
	)
	if cfg.AuditEnabled {
		pool, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to open audit database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = postgres.NewAssessmentRepository(pool)
		readiness["database"] = func(ctx context.Context) error {
			return pgutil.HealthCheck(ctx, pool)
		}

		if cfg.KafkaEnabled() {
			producer, err := pkgkafka.NewProducer(pkgkafka.Config{
				ClientID:      cfg.ServiceName,
				Brokers:       cfg.KafkaBrokers,
				TLS:           cfg.KafkaTLS,
				SASLEnabled:   cfg.KafkaSASL != "",
				SASLMechanism: cfg.KafkaSASL,
				SASLUsername:  cfg.KafkaUsername,
				SASLPassword:  cfg.KafkaPassword,
			})
			if err != nil {
				logger.Error("failed to create kafka producer", "error", err)
				os.Exit(1)
			}
			defer producer.Close()
			publisher := kafkapublisher.NewPublisher(producer, cfg.KafkaTopic, logger)
			relay := outboxrelay.NewRelay(postgres.NewOutboxRepository(pool), publisher, outboxrelay.Config{
				Interval:  cfg.OutboxInterval,
				BatchSize: cfg.OutboxBatchSize,
			}, logger)
			go relay.Run(ctx)
			outbox = true
			logger.Info("relaying assessment events", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
		}
	}

	// Wire use cases.
	assessOpts := []usecase.Option{usecase.WithMetrics(recorder), usecase.WithLogger(logger)}
	if repo != nil {
		assessOpts = append(assessOpts, usecase.WithAuditTrail(repo))
	}
	if outbox {
		assessOpts = append(assessOpts, usecase.WithEventOutbox())
	}
	assessRiskUC := usecase.NewAssessRisk(
		classifiers,
		service.NewRiskScorer(),
		usecase.PolicyConfig{Default: cfg.BandPolicy, Thresholds: thresholds},
		cfg.ModelPath,
		assessOpts...,
	)
	getAssessmentUC := usecase.NewGetAssessment(repo)
	listAssessmentsUC := usecase.NewListAssessments(repo)
	invalidateModelUC := usecase.NewInvalidateModel(classifiers, cfg.ModelPath, logger)

	var jwtService *auth.JWTService
	if cfg.JWTSecret != "" {
		jwtService, err = auth.NewJWTService(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
		if err != nil {
			logger.Error("failed to create JWT service", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("JWT_SECRET not set, API and gRPC are unauthenticated")
	}

	// gRPC server.
	grpcHandler := grpcpresentation.NewStrokeRiskHandler(assessRiskUC, getAssessmentUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		JWT:         jwtService,
		Address:     cfg.GRPCAddress(),
		TLSCertFile: cfg.GRPCTLSCert,
		TLSKeyFile:  cfg.GRPCTLSKey,
		Reflection:  cfg.GRPCReflection,
	}, logger)
	if err != nil {
		logger.Error("failed to create gRPC server", "error", err)
		os.Exit(1)
	}

	// HTTP server.
	router := rest.NewRouter(rest.RouterConfig{
		Form:           rest.NewFormHandler(assessRiskUC, cfg.BandPolicy, thresholds, logger),
		Assessments:    rest.NewAssessmentHandler(assessRiskUC, getAssessmentUC, listAssessmentsUC, invalidateModelUC, logger),
		Health:         rest.NewHealthHandler(cfg.ServiceName, readiness, logger),
		Metrics:        metricsHandler,
		JWT:            jwtService,
		Logger:         logger,
		RateLimitPerIP: int(cfg.RateLimit),
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if cfg.GRPCTLSCert != "" {
		tlsConfig, err := tlsutil.LoadServerConfig(cfg.GRPCTLSCert, cfg.GRPCTLSKey)
		if err != nil {
			logger.Error("failed to load HTTP TLS config", "error", err)
			os.Exit(1)
		}
		httpServer.TLSConfig = tlsConfig
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress(), "tls", httpServer.TLSConfig != nil)
		var err error
		if httpServer.TLSConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("strokerisk started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down strokerisk")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("strokerisk stopped")
}

// openDatabase connects to PostgreSQL and applies pending migrations when
// MIGRATE_ON_START is set.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.MigrateOnStart {
		if err := pgutil.RunMigrations(cfg.DatabaseURL, migrations.FS, "."); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pgutil.NewPool(dbCtx, pgutil.Config{URL: cfg.DatabaseURL, MaxConns: 10})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")
	return pool, nil
}
