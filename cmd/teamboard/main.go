package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/teamboard-dev/teamboard/db"
	"github.com/teamboard-dev/teamboard/internal/auth"
	"github.com/teamboard-dev/teamboard/internal/config"
	"github.com/teamboard-dev/teamboard/internal/health"
	"github.com/teamboard-dev/teamboard/internal/logger"
	"github.com/teamboard-dev/teamboard/internal/metrics"
	"github.com/teamboard-dev/teamboard/internal/realtime"
	"github.com/teamboard-dev/teamboard/internal/repository"
	"github.com/teamboard-dev/teamboard/internal/router"
	"github.com/teamboard-dev/teamboard/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("teamboard exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Setup(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker(health.DefaultTimeout)

	store, err := openStore(cfg, checker, log)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	broker, err := openBroker(ctx, cfg, checker, log)
	if err != nil {
		return err
	}
	defer broker.Close()

	hub := realtime.NewHub(broker, realtime.Options{
		QueueSize:      cfg.EventQueueSize,
		AllowedOrigins: cfg.Origins(),
		Metrics:        collector,
		Logger:         log,
	})

	publishers := services.Publishers{hub}
	var notifier *services.WebhookNotifier
	if cfg.NotifyWebhookURL != "" {
		notifier = services.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyWebhookKind, log)
		publishers = append(publishers, notifier)
		log.Info("webhook notifications enabled", slog.String("kind", cfg.NotifyWebhookKind))
	}

	users := services.NewUserService(store.Users, tokens, cfg.BcryptCost, log)
	projects := services.NewProjectService(store, publishers, log)
	tasks := services.NewTaskService(store, publishers, log)

	r := router.NewRouter(router.Deps{
		Users:          users,
		Projects:       projects,
		Tasks:          tasks,
		Hub:            hub,
		Health:         checker,
		AllowedOrigins: cfg.Origins(),
		Metrics:        collector,
		Gatherer:       reg,
		Logger:         log,
	})

	hubDone := make(chan error, 1)
	go func() {
		hubDone <- hub.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr), slog.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-hubDone:
		if err != nil {
			return err
		}
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if notifier != nil {
		notifier.Wait()
	}
	return nil
}

func openStore(cfg *config.Config, checker *health.Checker, log *slog.Logger) (*repository.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), nil
	}

	conn, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn, log); err != nil {
		return nil, err
	}
	checker.Add("database", health.DatabaseCheck(conn))
	return repository.NewGormStore(conn), nil
}

func openBroker(ctx context.Context, cfg *config.Config, checker *health.Checker, log *slog.Logger) (realtime.Broker, error) {
	if cfg.RedisAddr == "" {
		return realtime.NewLocalBroker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	checker.Add("redis", health.RedisCheck(client))

	log.Info("redis broker connected", slog.String("addr", cfg.RedisAddr), slog.String("channel", cfg.RedisChannel))
	return realtime.NewRedisBroker(client, cfg.RedisChannel, log), nil
}
