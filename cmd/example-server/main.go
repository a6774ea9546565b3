package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfcraft-gateway/logging"
	"pdfcraft-gateway/middleware/quota"
	"pdfcraft-gateway/middleware/quota/infra"
)

func main() {
	// Exemplo: cota diária direto no seu webserver, sem o gateway nem PDF
	logger := logging.New(os.Getenv("LOG_LEVEL"), "text")

	q := quota.New(quota.Options{
		Records:         infra.NewMemoryRecordStore(),
		DailyLimit:      3,
		KeyHeader:       "X-Api-Key", // vazio usa X-User-Id, sem header cai no IP
		AddQuotaHeaders: true,
		Logger:          &logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/work", q.Middleware("work")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, _ := quota.RecordFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ok: %d used on %s\n", rec.Count, rec.Date)
	})))
	mux.Handle("/usage", q.UsageHandler())

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("example server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
	// ListenAndServe volta assim que o Shutdown começa; espera a drenagem
	<-shutdownDone
	logger.Info().Msg("example server stopped")
}
