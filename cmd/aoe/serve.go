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

	"github.com/abogadosonline/aoe-api/internal/audit"
	"github.com/abogadosonline/aoe-api/internal/auth"
	"github.com/abogadosonline/aoe-api/internal/bot"
	"github.com/abogadosonline/aoe-api/internal/document"
	"github.com/abogadosonline/aoe-api/internal/handler"
	"github.com/abogadosonline/aoe-api/internal/middleware"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/notify"
	"github.com/abogadosonline/aoe-api/internal/payment"
	"github.com/abogadosonline/aoe-api/internal/payphone"
	"github.com/abogadosonline/aoe-api/internal/ratelimit"
	"github.com/abogadosonline/aoe-api/internal/reconcile"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/internal/storage"
	"github.com/abogadosonline/aoe-api/internal/validation"
	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/abogadosonline/aoe-api/pkg/database"
	"github.com/abogadosonline/aoe-api/pkg/jwtutil"
	"github.com/abogadosonline/aoe-api/pkg/logger"
	"github.com/abogadosonline/aoe-api/pkg/metrics"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "run the schema migration before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting "+serviceName, cfg.LogConfig()...)

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if serveMigrate {
		if err := database.MigrateModels(db, model.AllModels()...); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	repos := repository.New(db)
	jwt := jwtutil.NewJWTUtil(&cfg.JWT)

	store, err := storage.New(cfg.Storage, log)
	if err != nil {
		return err
	}
	mailer := notify.NewMailer(cfg.Email, log)
	rec := audit.NewRecorder(repos.Audit, log)
	docs := document.NewGenerator(repos.Contracts, store, mailer, rec, cfg.Server.AppURL, log)

	gateway := payphone.NewClient(cfg.PayPhone, log)
	if !gateway.Configured() {
		log.Warn("PayPhone credentials not configured, payments will fail")
	}
	payments := payment.NewService(repos.Contracts, gateway, docs, rec, cfg.Server.AppURL, log)

	v := validation.New()
	h := handler.New(handler.Deps{
		Repos:          repos,
		Auth:           auth.NewService(repos.Profiles, jwt, mailer, v, cfg.Server.AppURL, auth.NewGoogle(cfg.Google), log),
		Payments:       payments,
		Docs:           docs,
		Bot:            bot.NewService(repos.Blog, repos.Contracts, cfg.Server.AppURL, log),
		Mailer:         mailer,
		N8N:            notify.NewN8N(cfg.N8N, log),
		Audit:          rec,
		Validate:       v,
		AppURL:         cfg.Server.AppURL,
		ContactTo:      cfg.Email.ContactTo,
		Production:     cfg.Server.IsProduction(),
		WebhookSecrets: payphone.ConfiguredSecrets(cfg.PayPhone, cfg.N8N),
		N8NSecret:      cfg.N8N.WebhookSecret,
	})

	scheduler := cron.New()
	if _, err := reconcile.Schedule(scheduler, payments, cfg.Reconcile, log); err != nil {
		return fmt.Errorf("invalid reconcile schedule: %w", err)
	}

	botLimiter, closeLimiter, err := newBotLimiter(cfg.Bot, scheduler, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	formLimiter := middleware.NewIPRateLimiter(middleware.DefaultIPRate, middleware.DefaultIPBurst)
	if _, err := scheduler.AddFunc(ratelimit.CleanupSchedule, func() { formLimiter.Cleanup() }); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = v

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	if cfg.Metrics.Enabled {
		e.Use(metrics.NewHTTPMetrics(serviceName).Middleware())
		e.GET(cfg.Metrics.Path, echo.WrapHandler(metrics.GetPrometheusHandler()))
	}

	h.Mount(e, handler.Routes{
		JWT:         jwt,
		BotSecret:   cfg.Bot.APISecret,
		BotLimiter:  botLimiter,
		FormLimiter: formLimiter,
	})
	if cfg.Bot.APISecret == "" {
		log.Warn("BOT_API_SECRET not configured, bot API disabled")
	}

	scheduler.Start()

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newBotLimiter returns the shared Redis window when REDIS_URL is set and
// reachable, otherwise the per-process window swept by the scheduler
func newBotLimiter(cfg config.BotConfig, c *cron.Cron, log *zap.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL != "" {
		rw, err := ratelimit.NewRedisWindow(cfg.RedisURL, cfg.Window, cfg.RateLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rw.Ping(ctx); err != nil {
			log.Warn("Redis unreachable, using in-memory bot rate limiter", zap.Error(err))
			_ = rw.Close()
		} else {
			log.Info("Bot rate limiter backed by redis")
			return rw, func() { _ = rw.Close() }, nil
		}
	}

	sw := ratelimit.NewSlidingWindow(cfg.Window, cfg.RateLimit)
	if _, err := ratelimit.ScheduleCleanup(c, sw, log); err != nil {
		return nil, nil, err
	}
	return sw, func() {}, nil
}
