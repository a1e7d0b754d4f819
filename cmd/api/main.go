package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paydesk/api/internal/app"
	"github.com/paydesk/api/internal/clock"
	"github.com/paydesk/api/internal/config"
	"github.com/paydesk/api/internal/logger"
	"github.com/paydesk/api/internal/notify"
	"github.com/paydesk/api/internal/storage/postgres"
	transporthttp "github.com/paydesk/api/internal/transport/http"
	"github.com/paydesk/api/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New("info")
		l.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	var notifier app.Notifier
	if cfg.TelegramToken != "" {
		notifier = notify.NewTelegram(cfg.TelegramToken, cfg.OperatorChatID)
	} else {
		log.Warn().Msg("telegram_token not set, notifications go to the log")
		notifier = notify.NewLog(log)
	}

	clk := clock.NewSystem()
	orderRepo := postgres.NewOrderRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	orderSvc := app.NewOrderService(orderRepo, settingsRepo, notifier, clk, cfg.USDToRUBRate, log)
	adminSvc := app.NewAdminService(orderRepo, clk, log)
	drafts := app.NewDraftStore(cfg.DraftTTL, clk)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go drafts.Run(stopCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/orders", transporthttp.HandleCreateOrder(orderSvc))
	mux.Handle("/orders/", transporthttp.HandleOrder(orderSvc))
	mux.Handle("/users/", transporthttp.HandleUsers(orderSvc))
	mux.Handle("/drafts/", transporthttp.HandleDrafts(drafts, orderSvc))

	adminMux := http.NewServeMux()
	adminMux.Handle("/admin/orders", transporthttp.HandleAdminOrders(adminSvc, orderSvc))
	adminMux.Handle("/admin/orders/", transporthttp.HandleAdminOrders(adminSvc, orderSvc))
	adminMux.Handle("/admin/stats", transporthttp.HandleAdminStats(adminSvc))
	adminMux.Handle("/admin/settings/", transporthttp.HandleAdminSettings(settingsRepo))
	adminMux.Handle("/", transporthttp.NotFoundHandler())
	mux.Handle("/admin/", transporthttp.OperatorOnly(cfg.OperatorIDs, adminMux))

	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), log)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Info().Str("port", cfg.Port).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		log.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
