package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orderchat/orderchat-backend/internal/cron"
	"github.com/orderchat/orderchat-backend/internal/flow"
	"github.com/orderchat/orderchat-backend/internal/notify"
	"github.com/orderchat/orderchat-backend/internal/session"
	"github.com/orderchat/orderchat-backend/internal/signature"
	"github.com/orderchat/orderchat-backend/internal/worker"
	"github.com/orderchat/orderchat-backend/pkg/config"
	"github.com/orderchat/orderchat-backend/pkg/env"
	"github.com/orderchat/orderchat-backend/pkg/logger"
	"github.com/orderchat/orderchat-backend/pkg/metrics"
	"github.com/orderchat/orderchat-backend/pkg/redis"
)

const dedupScope = "webhook"

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	sessions, err := session.NewStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	engine, err := buildEngine(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create flow engine", err)
		os.Exit(1)
	}

	guard, err := worker.NewIdempotencyGuard(redisClient, cfg.Webhook.DedupTTL, dedupScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create dedup guard", err)
		os.Exit(1)
	}

	processor, err := worker.NewProcessor(signature.NewVerifier(cfg.Webhook.AppSecret), engine, guard, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event processor", err)
		os.Exit(1)
	}

	handler, err := worker.NewHandler(worker.HandlerParams{
		Logger:    logg,
		Processor: processor,
		Sessions:  sessions,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker handler", err)
		os.Exit(1)
	}

	scheduler, err := buildScheduler(cfg, logg, redisClient, sessions)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	addr := ":" + cfg.Worker.Port
	id := env.Get("DYNO", "local")
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting worker")

	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error shutting down worker server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

// buildEngine wires the extraction client and, when operators are
// configured, the failure-alert decorator around it.
func buildEngine(cfg *config.Config, logg *logger.Logger) (flow.Engine, error) {
	client, err := flow.NewClient(cfg.Flow.BaseURL, cfg.Flow.APIKey, flow.WithTimeout(cfg.Flow.Timeout))
	if err != nil {
		return nil, err
	}

	var channels []notify.Channel
	if cfg.SMS.BaseURL != "" {
		sms, err := notify.NewSMSChannel(cfg.SMS.BaseURL, cfg.SMS.APIKey, cfg.SMS.Sender)
		if err != nil {
			return nil, err
		}
		channels = append(channels, sms)
	}
	if cfg.Line.ChannelToken != "" {
		line, err := notify.NewLineChannel(cfg.Line.PushURL, cfg.Line.ChannelToken)
		if err != nil {
			return nil, err
		}
		channels = append(channels, line)
	}

	var recipients []notify.Recipient
	for _, phone := range cfg.Alerts.SMSRecipients {
		recipients = append(recipients, notify.Recipient{PhoneNumber: phone})
	}
	for _, userID := range cfg.Alerts.LineRecipients {
		recipients = append(recipients, notify.Recipient{LineUserID: userID})
	}

	if len(channels) == 0 || len(recipients) == 0 {
		logg.Warn(context.Background(), "no alert channels or recipients configured, turn failures are log-only")
		return client, nil
	}

	dispatcher, err := notify.NewDispatcher(logg, channels...)
	if err != nil {
		return nil, err
	}
	return notify.NewTurnAlerter(client, dispatcher, recipients, logg)
}

func buildScheduler(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, sessions *session.Store) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}

	cartClear, err := cron.NewCartClearJob(cron.CartClearJobParams{
		Logger:   logg,
		Sessions: sessions,
		Hour:     cfg.Cron.CartClearHour,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:       logg,
		Registry:     cron.NewRegistry(cartClear),
		Lock:         lock,
		Metrics:      metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		TickInterval: cfg.Cron.TickInterval,
	})
}
