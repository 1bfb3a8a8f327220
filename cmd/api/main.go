// Package main is the entrypoint for the smartnotes web server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/smartnotes/smartnotes/internal/cache"
	"github.com/smartnotes/smartnotes/internal/config"
	"github.com/smartnotes/smartnotes/internal/handler"
	"github.com/smartnotes/smartnotes/internal/metrics"
	"github.com/smartnotes/smartnotes/internal/notify"
	"github.com/smartnotes/smartnotes/internal/repository"
	"github.com/smartnotes/smartnotes/internal/server"
	"github.com/smartnotes/smartnotes/internal/service"
	"github.com/smartnotes/smartnotes/internal/web"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Schema
	if cfg.RunMigrations {
		if err := repository.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	metricsRecorder := metrics.NewInMemory()

	// Notifications are delivered off the request path.
	sender, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		logger.Error("invalid notification target", slog.String("error", err.Error()))
		os.Exit(1)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.NotifyQueueSize, logger, metricsRecorder)

	// Initialize services
	noteService := service.NewNoteService(repo, cacheClient, dispatcher, logger, metricsRecorder, service.NoteServiceConfig{
		PublicCacheTTL: cfg.PublicNoteCacheTTL,
	})
	userService := service.NewUserService(repo, cacheClient, logger, metricsRecorder, service.UserServiceConfig{
		SessionTTL: cfg.SessionTTL,
	})

	// Initialize handlers
	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Error("failed to parse templates", slog.String("error", err.Error()))
		os.Exit(1)
	}
	h := handler.New(renderer, noteService, userService, logger, handler.Config{
		LoginURL:          cfg.LoginURL,
		AdminLoginURL:     cfg.AdminLoginURL,
		SessionCookieName: cfg.SessionCookieName,
		SecureCookies:     !cfg.IsDevelopment(),
	})

	health := handler.NewHealthHandler(logger,
		handler.Check{Name: "postgres", Checker: repo},
		handler.Check{Name: "redis", Checker: cacheClient},
	)

	r := handler.NewRouter(handler.RouterConfig{
		Handler:            h,
		Health:             health,
		Metrics:            handler.NewMetricsHandler(metricsRecorder),
		Sessions:           userService,
		Limiter:            cacheClient,
		Recorder:           metricsRecorder,
		Logger:             logger,
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RateLimitEnabled:   cfg.RateLimitLoginEnabled,
		RateLimitPerMinute: cfg.RateLimitLoginPerMinute,
		RateLimitBurst:     cfg.RateLimitLoginBurst,
	})

	// Create and run server
	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Shut down in reverse: notifications drain before the stores close.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("notify-dispatcher", dispatcher.Close)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"webhook_notifications", cfg.NotifyWebhookURL != "",
	)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newNotifier builds the note notification sender: always the log, plus a
// signed webhook when one is configured.
func newNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Sender, error) {
	senders := notify.MultiSender{notify.NewLogSender(logger)}

	if cfg.NotifyWebhookURL != "" {
		if !cfg.IsDevelopment() {
			if err := notify.ValidateTargetURL(ctx, cfg.NotifyWebhookURL, nil); err != nil {
				return nil, err
			}
		}
		senders = append(senders, notify.NewWebhookSender(cfg.NotifyWebhookURL, cfg.NotifyWebhookSecret))
		logger.Info("webhook notifications enabled", "host", notify.ExtractHost(cfg.NotifyWebhookURL))
	}

	return senders, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
