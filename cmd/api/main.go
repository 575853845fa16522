package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/orderchat/orderchat-backend/api/controllers"
	"github.com/orderchat/orderchat-backend/api/routes"
	"github.com/orderchat/orderchat-backend/internal/aiorders"
	"github.com/orderchat/orderchat-backend/internal/gateway"
	"github.com/orderchat/orderchat-backend/internal/orders"
	"github.com/orderchat/orderchat-backend/internal/products"
	"github.com/orderchat/orderchat-backend/internal/shipping"
	"github.com/orderchat/orderchat-backend/internal/signature"
	"github.com/orderchat/orderchat-backend/internal/wms"
	"github.com/orderchat/orderchat-backend/pkg/config"
	"github.com/orderchat/orderchat-backend/pkg/db"
	"github.com/orderchat/orderchat-backend/pkg/env"
	"github.com/orderchat/orderchat-backend/pkg/logger"
	"github.com/orderchat/orderchat-backend/pkg/migrate"
	"github.com/orderchat/orderchat-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	orderRepo := orders.NewRepository(dbClient.DB())

	shippingService, err := shipping.NewService(
		shipping.NewSettingsRepository(dbClient.DB()),
		products.NewRepository(dbClient.DB()),
		redisClient,
		cfg.Shipping,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	aiOrderService, err := aiorders.NewService(aiorders.NewRepository(dbClient.DB()), orderRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ai order service", err)
		os.Exit(1)
	}

	wmsClient, err := wms.NewClient(cfg.WMS.BaseURL, cfg.WMS.APIKey,
		wms.WithHTTPClient(&http.Client{Timeout: cfg.WMS.Timeout}),
		wms.WithRetryPolicy(cfg.WMS.MaxRetries, cfg.WMS.RetryDelay),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create wms client", err)
		os.Exit(1)
	}

	wmsService, err := wms.NewService(wmsClient, orderRepo, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wms service", err)
		os.Exit(1)
	}

	forwarder, err := gateway.NewForwarder(cfg.Webhook.WorkerURL, cfg.Webhook.ForwardTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event forwarder", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	id := env.Get("DYNO", "local")
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			Verifier:  signature.NewVerifier(cfg.Webhook.AppSecret),
			Forwarder: forwarder,
			AIOrders:  aiOrderService,
			Shipping:  shippingService,
			Warehouse: wmsService,
			Readiness: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
