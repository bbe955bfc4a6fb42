package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"contractkit/config"
	"contractkit/host"
	"contractkit/native/common"
	"contractkit/observability"
	"contractkit/observability/logging"
	telemetry "contractkit/observability/otel"
	"contractkit/rpc"
	"contractkit/storage"
)

const envOverride = "CONTRACTKIT_ENV"

func main() {
	configFile := flag.String("config", "./contractd.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env := strings.TrimSpace(os.Getenv(envOverride)); env != "" {
		cfg.Environment = env
	}
	logger := logging.SetupWithFile("contractd", cfg.Environment, cfg.LogFile)

	if err := run(cfg, logger); err != nil {
		logger.Error("contractd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "contractd",
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     cfg.Telemetry.Headers,
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	if cfg.StoreBackend != "memory" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.StoreBackend, cfg.StorePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	h := newHost(cfg, db, logger)
	if err := deployAll(ctx, h, cfg, logger); err != nil {
		return err
	}

	go deliverLoop(ctx, h, cfg.DeferredDeliveryInterval.Duration, cfg.DeferredBatchLimit, logger)

	return rpc.NewServer(h, logger).Serve(ctx, cfg.ListenAddress)
}

func newHost(cfg *config.Config, db storage.Database, logger *slog.Logger) *host.Host {
	opts := []host.Option{
		host.WithLogger(logger),
		host.WithMetrics(observability.Host()),
		host.WithTracer(telemetry.Tracer()),
		host.WithLedgerID(cfg.LedgerContractID),
		host.WithRateLimit(cfg.InvocationsPerSecond, cfg.InvocationBurst),
		host.WithPauses(common.NewPauses(cfg.PausedContracts...)),
	}
	if cfg.RedactSenders {
		opts = append(opts, host.WithRedactedSenders())
	}
	return host.New(db, opts...)
}
