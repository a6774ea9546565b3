package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pdfcraft-gateway/config"
	"pdfcraft-gateway/document"
	"pdfcraft-gateway/logging"
	"pdfcraft-gateway/middleware/quota"
	"pdfcraft-gateway/middleware/quota/domain"
	"pdfcraft-gateway/middleware/quota/infra"
	"pdfcraft-gateway/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting pdfcraft gateway")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		reg     *prometheus.Registry
		metrics http.Handler
	)
	if cfg.Server.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	b, err := openBackends(ctx, cfg, registerer, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Str("stats", cfg.Stats.Type).
		Int("daily_limit", cfg.Quota.DailyLimit).
		Str("timezone", cfg.Location().String()).
		Msg("Quota initialized")

	q := quota.New(quota.Options{
		Records:            b.records,
		Stats:              b.stats,
		Clock:              infra.SystemClock{Location: cfg.Location()},
		DailyLimit:         cfg.Quota.DailyLimit,
		KeyPrefix:          cfg.Quota.KeyPrefix,
		KeyHeader:          cfg.Quota.KeyHeader,
		TrustXForwardedFor: cfg.Quota.TrustXFF,
		AddQuotaHeaders:    cfg.Quota.AddHeaders,
		UpgradeToken:       cfg.Quota.UpgradeToken,
		Logger:             &logger,
	})

	// interface nil desliga o middleware de rajada
	var burst domain.LimiterStore
	if cfg.Burst.Enabled {
		bs := infra.NewBurstStore(cfg.Burst.RPS, cfg.Burst.Burst)
		bs.StartJanitor(ctx)
		burst = bs
	}

	h := server.NewRouter(server.Options{
		Quota:           q,
		Documents:       document.NewProcessor(logger),
		Burst:           burst,
		BurstRetryAfter: cfg.Burst.RetryAfter,
		Concurrency: quota.ConcurrencyOptions{
			Max:            cfg.Concurrency.Max,
			AcquireTimeout: cfg.Concurrency.Timeout,
		},
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Metrics:        metrics,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.Server.ListenAddr).
		Bool("burst", cfg.Burst.Enabled).
		Float64("burst_rps", cfg.Burst.RPS).
		Int("burst_size", cfg.Burst.Burst).
		Int("concurrency_max", cfg.Concurrency.Max).
		Dur("concurrency_timeout", cfg.Concurrency.Timeout).
		Msg("Gateway listening")

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.ListenAddr, err)
	}
	// storage só fecha (defer acima) depois que as requisições em andamento terminam
	if err := serveUntilDone(ctx, srv, ln, cfg.Server.ShutdownTimeout, logger); err != nil {
		return err
	}

	if b.memory != nil {
		logStats(logger, b.memory)
	}
	logger.Info().Msg("Gateway stopped")
	return nil
}

// serveUntilDone atende em ln até ctx encerrar e só retorna depois do Shutdown,
// com as requisições em andamento drenadas (ou o timeout esgotado).
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger zerolog.Logger) error {
	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutdown signal received, gracefully stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		shutdownDone <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	if err := <-shutdownDone; err != nil {
		logger.Warn().Err(err).Msg("Shutdown did not drain all requests")
	}
	return nil
}

func logStats(logger zerolog.Logger, s *infra.MemoryStatsStore) {
	total := s.Total()
	logger.Info().
		Int64("allowed", total.Allowed).
		Int64("denied", total.Denied).
		Int64("premium", total.Premium).
		Msg("Quota decisions")
	for op, c := range s.ByOperation() {
		logger.Info().
			Str("operation", op).
			Int64("allowed", c.Allowed).
			Int64("denied", c.Denied).
			Int64("premium", c.Premium).
			Msg("Quota decisions by operation")
	}
}
