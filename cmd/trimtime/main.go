package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/LikkleOra/TrimTime/internal/api"
	"github.com/LikkleOra/TrimTime/internal/config"
	"github.com/LikkleOra/TrimTime/internal/events"
	"github.com/LikkleOra/TrimTime/internal/flow"
	"github.com/LikkleOra/TrimTime/internal/google"
	"github.com/LikkleOra/TrimTime/internal/handoff"
	"github.com/LikkleOra/TrimTime/internal/metrics"
	"github.com/LikkleOra/TrimTime/internal/operator"
	"github.com/LikkleOra/TrimTime/internal/storage"
	"github.com/LikkleOra/TrimTime/internal/store"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// .env is optional; real env always wins.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TRIMTIME_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	catalog, err := config.LoadServicesConfig(cfg.ServicesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load service catalog")
	}
	logger.Info().Int("services", len(catalog.Services)).Msg("service catalog loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port, rdb := openPort(ctx, cfg, &logger)
	defer port.Close()

	bus := events.NewBus()
	st := store.New(port, bus, &logger, store.WithConflictCheck(cfg.ConflictCheckEnabled()))

	dispatcher := buildDispatcher(cfg, &logger)

	sessions := flow.NewSessions(flow.Options{
		Catalog:    catalog,
		Hours:      cfg.WorkingHours,
		BarberName: cfg.Shop.Name,
		Recipient:  cfg.Shop.Recipient,
		Store:      st,
		Dispatcher: dispatcher,
		Logger:     &logger,
	}, time.Duration(cfg.Server.SessionTTLMins)*time.Minute)
	go sessions.Run(ctx.Done(), 5*time.Minute)

	view := operator.New(st, catalog, nil)

	if cfg.Sheets.Enabled {
		mirror, err := google.NewMirror(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsFile, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create sheets mirror error")
		}
		mirror.Bind(bus, st)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, port, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(sessions, view, st, catalog, &logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("shop", cfg.Shop.ShopName).Int("port", cfg.Server.Port).Msg("booking server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// openPort picks the persistence medium: Redis when configured, otherwise
// SQLite. The returned redis client, if any, feeds the readiness probe.
func openPort(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (storage.Port, *redis.Client) {
	if cfg.Redis.Address != "" {
		opts := &redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		port, err := storage.NewRedisPort(ctx, opts, cfg.Database.Key, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis error")
		}
		logger.Info().Str("addr", cfg.Redis.Address).Msg("using redis storage")
		return port, redis.NewClient(opts)
	}

	port, err := storage.NewSQLitePort(cfg.Database.Path, cfg.Database.Key, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	logger.Info().Str("path", cfg.Database.Path).Msg("using sqlite storage")

	if cfg.Backup.Enabled {
		backup := storage.NewBackup(cfg.Database.Path, storage.BackupPolicy{
			Dir:           cfg.Backup.Dir,
			RetentionDays: cfg.Backup.RetentionDays,
			Interval:      time.Duration(cfg.Backup.IntervalHours) * time.Hour,
		}, logger)
		go backup.Run(ctx.Done())
	}

	return port, nil
}

func buildDispatcher(cfg *config.Config, logger *zerolog.Logger) handoff.Dispatcher {
	dispatchers := handoff.Multi{handoff.NewLinkDispatcher(cfg.Shop.Recipient, logger)}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.BotToken != "YOUR_BOT_TOKEN_HERE" {
		notifier, err := handoff.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram notifier error")
		}
		// One message per second keeps the bot inside Telegram's limits.
		dispatchers = append(dispatchers, handoff.WithRateLimit(notifier, rate.Limit(1), 5))
	}

	return dispatchers
}

type pinger interface {
	Ping(ctx context.Context) error
}

func startHealthServer(ctx context.Context, port int, storagePort storage.Port, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if p, ok := storagePort.(pinger); ok {
			if err := p.Ping(ctxPing); err != nil {
				http.Error(w, "storage not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
