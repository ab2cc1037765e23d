package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/envprobe/internal/app"
	"github.com/hamed0406/envprobe/internal/config"
	"github.com/hamed0406/envprobe/internal/httpapi"
	apimw "github.com/hamed0406/envprobe/internal/httpapi/middleware"
	"github.com/hamed0406/envprobe/internal/logging"
	"github.com/hamed0406/envprobe/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(logging.Options{Dir: cfg.LogDir, File: "api.log", Level: cfg.LogLevel})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "envprobe-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing_disabled", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	c := app.NewCollector(cfg, logger, app.Sink(cfg))
	api := httpapi.NewServer(logger, c, app.ServerSources(cfg))
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      app.Timeout(cfg) + 5*time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_failed", zap.Error(err))
	}
}
