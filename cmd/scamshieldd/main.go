package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibbank/scamshield/internal/application/usecase"
	"github.com/bibbank/scamshield/internal/domain/port"
	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/infrastructure/config"
	"github.com/bibbank/scamshield/internal/infrastructure/messaging"
	"github.com/bibbank/scamshield/internal/infrastructure/scoring"
	grpcpresentation "github.com/bibbank/scamshield/internal/presentation/grpc"
	"github.com/bibbank/scamshield/internal/presentation/rest"
	"github.com/bibbank/scamshield/pkg/kafka"
	"github.com/bibbank/scamshield/pkg/observability"
)

const serviceName = "scamshield"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
		Version: version,
	})

	logger.Info("starting scamshield",
		"strategy", cfg.Scorer.Strategy,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing.
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Version:     version,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer shutdown(context.Background()) //nolint:errcheck
		}
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer meterProvider.Shutdown(context.Background()) //nolint:errcheck

	// Wire event publishing.
	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	// Wire domain services.
	scorer, initializeScorer, err := scoring.NewScorer(cfg.Scorer, logger)
	if err != nil {
		logger.Error("failed to create scorer", "error", err)
		os.Exit(1)
	}
	classifier := service.NewClassifier(scorer, logger)

	// Wire use cases.
	classifyTextUC, err := usecase.NewClassifyText(classifier, publisher, logger, usecase.ClassifyTextConfig{
		Timeout:       cfg.ClassifyTimeout,
		FlagThreshold: cfg.RiskFlagThreshold,
	})
	if err != nil {
		logger.Error("failed to create classify use case", "error", err)
		os.Exit(1)
	}
	getScorerStatusUC := usecase.NewGetScorerStatus(classifier)

	// gRPC server.
	grpcHandler := grpcpresentation.NewScamShieldServiceHandler(classifyTextUC, getScorerStatusUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, cfg.GRPCAddress(), logger, grpcpresentation.ServerOptions{
		TLSCertFile: cfg.GRPCTLSCertFile,
		TLSKeyFile:  cfg.GRPCTLSKeyFile,
	})
	if err != nil {
		logger.Error("failed to create gRPC server", "error", err)
		os.Exit(1)
	}

	// HTTP server (health, classification, metrics).
	httpMux := http.NewServeMux()
	rest.NewHealthHandler(getScorerStatusUC, logger).RegisterRoutes(httpMux)
	rest.NewClassifyHandler(classifyTextUC, logger).RegisterRoutes(httpMux)
	httpMux.Handle("GET /metrics", metricsHandler)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      httpMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start servers. Readiness stays false until the scorer is initialized.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Load the scorer's resources.
	scorerCloser, err := initializeScorer()
	if err != nil {
		logger.Error("failed to initialize scorer", "strategy", cfg.Scorer.Strategy, "error", err)
		grpcServer.Stop()
		httpServer.Close() //nolint:errcheck
		closePublisher()
		os.Exit(1)
	}
	defer scorerCloser.Close() //nolint:errcheck
	grpcServer.SetServing(true)

	logger.Info("scamshield started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"kafka", cfg.PublishesToKafka(),
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down scamshield")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("scamshield stopped")
}

// newPublisher returns the Kafka publisher when brokers are configured and the
// log publisher otherwise. The returned func releases its resources.
func newPublisher(cfg *config.Config, logger *slog.Logger) (port.EventPublisher, func(), error) {
	if !cfg.PublishesToKafka() {
		logger.Info("no Kafka brokers configured, logging domain events")
		return messaging.NewLogPublisher(logger), func() {}, nil
	}

	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: serviceName,
		TLS:      cfg.Kafka.TLS,
		SASL: kafka.SASLConfig{
			Mechanism: cfg.Kafka.SASLMechanism,
			Username:  cfg.Kafka.SASLUsername,
			Password:  cfg.Kafka.SASLPassword,
		},
		WriteTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	closed := false
	return messaging.NewKafkaPublisher(producer, cfg.Kafka.Topic, logger), func() {
		if closed {
			return
		}
		closed = true
		if err := producer.Close(); err != nil {
			logger.Error("failed to close Kafka producer", "error", err)
		}
	}, nil
}
