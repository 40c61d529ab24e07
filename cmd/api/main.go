package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/google/uuid"
	"github.com/marcelsud/webhook-relay/config"
	"github.com/marcelsud/webhook-relay/forward"
	"github.com/marcelsud/webhook-relay/internal/http/chi"
	"github.com/marcelsud/webhook-relay/metrics"
	"github.com/marcelsud/webhook-relay/site"
	"github.com/marcelsud/webhook-relay/webhook"
	relayredis "github.com/marcelsud/webhook-relay/webhook/redis"
	"github.com/rs/zerolog"
)

/*
 * Wires every package together. Imports only go downwards:
 * the binary imports the business packages, which import storage and transport.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := httplog.NewLogger("webhook-relay", httplog.Options{
		JSON: cfg.LogJSON,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	page, err := site.LoadOrDefault(cfg.SiteFile)
	if err != nil {
		logger.Error().Err(err).Msg("loading site page")
		return
	}

	var (
		recorders forward.Recorders
		collector metrics.Collector
		store     *relayredis.Store
	)
	if cfg.RedisEnabled() {
		store, err = relayredis.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Error().Err(err).Msg("connecting telemetry store")
			return
		}
		defer store.Close()
		recorders = append(recorders, store)
		collector = metrics.NewRedisCollector(store.Client())
	}

	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())
	recorders = append(recorders, exporter)

	fwd := forward.New(cfg.Forward(),
		forward.WithLogger(logger),
		forward.WithRecorder(recorders),
	)
	logStartup(logger, cfg, fwd.Config())

	service := webhook.NewService(fwd, webhook.NewAckMode(cfg.AckMode), logger)

	heartbeatDone := make(chan struct{})
	if store != nil {
		go func() {
			defer close(heartbeatDone)
			store.RunHeartbeat(ctx, relayredis.InstanceHeartbeat{
				InstanceID:  uuid.New().String(),
				Destination: cfg.DestinationHost(),
			}, relayredis.HeartbeatInterval)
		}()
	} else {
		close(heartbeatDone)
	}

	r := chi.Handlers(ctx, chi.Deps{
		Service:        service,
		Logger:         logger,
		VerifyToken:    cfg.VerifyToken,
		Page:           page,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: cfg.RequestTimeout(),
		Collector:      collector,
		Metrics:        exporter.ServeHTTP(),
	})
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout() + 5*time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, service, ctx, cfg.ShutdownTimeout(), errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("serving HTTP")
		return
	}
	err = <-errShutdown
	<-heartbeatDone
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
		return
	}
	logger.Info().Msg("stopped")
}

// shutdown stops accepting requests, then drains background forwards within timeout
func shutdown(server *http.Server, service webhook.UseCase, ctxShutdown context.Context, timeout time.Duration, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()

	if err := server.Shutdown(ctxTimeout); err != nil {
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
		return
	}
	if err := service.Shutdown(ctxTimeout); err != nil {
		errShutdown <- fmt.Errorf("draining forwards: %w", err)
		return
	}
	errShutdown <- nil
}

func logStartup(logger zerolog.Logger, cfg *config.Config, fc forward.Config) {
	if !fc.Enabled() {
		logger.Warn().Msg("SOAR_WEBHOOK_URL is not set; webhooks will be acknowledged but not forwarded")
	}
	logger.Info().
		Str("destination", cfg.DestinationHost()).
		Str("auth_scheme", fc.AuthScheme.String()).
		Str("token", cfg.MaskedToken()).
		Dur("timeout", fc.Timeout).
		Int("max_attempts", fc.MaxAttempts).
		Dur("base_delay", fc.BaseDelay).
		Dur("request_timeout", cfg.RequestTimeout()).
		Bool("stop_on_client_error", fc.StopOnClientError).
		Str("ack_mode", cfg.AckMode).
		Bool("redis", cfg.RedisEnabled()).
		Msg("relay configured")
}
