package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/kita-magazine-reservation/internal/config"
	"github.com/iliyamo/kita-magazine-reservation/internal/database"
	"github.com/iliyamo/kita-magazine-reservation/internal/handler"
	"github.com/iliyamo/kita-magazine-reservation/internal/logger"
	"github.com/iliyamo/kita-magazine-reservation/internal/mail"
	"github.com/iliyamo/kita-magazine-reservation/internal/metrics"
	"github.com/iliyamo/kita-magazine-reservation/internal/middleware"
	"github.com/iliyamo/kita-magazine-reservation/internal/queue"
	"github.com/iliyamo/kita-magazine-reservation/internal/ratelimit"
	"github.com/iliyamo/kita-magazine-reservation/internal/repository"
	"github.com/iliyamo/kita-magazine-reservation/internal/router"
	"github.com/iliyamo/kita-magazine-reservation/internal/service"
	"github.com/iliyamo/kita-magazine-reservation/internal/utils"
)

const shutdownGrace = 10 * time.Second

func main() {
	// `server hash-password <plain>` prints a bcrypt hash for ADMIN_PASSWORD_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := utils.HashPassword(os.Args[2], config.BcryptCost())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg := config.Load() // Load environment config
	log := logger.Setup(cfg.Env, cfg.LogLevel)

	db, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		Path:   cfg.DBPath,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database connection failed")
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil && config.RedisConfigured() {
		log.Warn().Msg("redis configured but unreachable, using in-memory rate limiting and no cache")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	mailCfg, err := config.LoadMailConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SMTP configuration")
	}
	sender, err := mail.New(mailCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("mail setup failed")
	}

	m := metrics.New()
	publisher := queue.NewPublisher(cfg.RabbitURL)
	notifier := service.NewNotifier(publisher, sender, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if publisher != nil {
		consumer := &queue.MailConsumer{URL: cfg.RabbitURL, Sender: sender, Log: log, Metrics: m}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("mail consumer stopped")
			}
		}()
	}

	rlCfg := config.LoadRateLimitConfig()
	limiter := newLimiter(rlCfg, rdb, log)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	magazines := repository.NewMagazineRepo(db)
	users := repository.NewUserRepo(db)
	reservations := repository.NewReservationRepo(db)
	consents := repository.NewConsentRepo(db)
	audit := repository.NewAuditRepo(db)

	e := router.New(log, m, cfg.CORSOrigins, cfg.TrustedProxies)
	router.RegisterRoutes(e, &handler.HealthHandler{
		DB:                 db,
		Redis:              rdb,
		DatabaseConfigured: cfg.DatabaseConfigured(),
		RedisConfigured:    config.RedisConfigured(),
		SMTPConfigured:     mailCfg.Enabled(),
		RabbitConfigured:   cfg.RabbitURL != "",
	}, m)
	router.RegisterPublic(e, router.Public{
		Magazines: &handler.MagazineHandler{Magazines: magazines},
		Reservations: &handler.ReservationHandler{
			DB: db, Magazines: magazines, Users: users, Reservations: reservations, Consents: consents,
			Audit: audit, Notifier: notifier, Cache: cache, Metrics: m, ConsentVersion: cfg.ConsentVersion,
		},
		GDPR: &handler.GDPRHandler{
			DB: db, Users: users, Reservations: reservations, Consents: consents, Audit: audit,
			Notifier: notifier, Metrics: m, ConsentVersion: cfg.ConsentVersion,
		},
		Cache:        cache,
		ReserveLimit: middleware.RateLimit(limiter, "reservations", m),
		GDPRLimit:    middleware.RateLimit(limiter, "gdpr", m),
	})
	router.RegisterAdmin(e, handler.NewAuthHandler(cfg), &handler.AdminHandler{
		DB: db, Magazines: magazines, Reservations: reservations, Audit: audit, Cache: cache,
	}, cfg.JWTSecret, middleware.RateLimit(limiter, "admin-login", m))

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("db", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newLimiter picks the Redis limiter when Redis is reachable and the
// backend is not forced to memory; otherwise counters stay in process.
func newLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) ratelimit.Limiter {
	if !cfg.Enabled {
		log.Warn().Msg("rate limiting disabled")
		return nil
	}
	if cfg.Backend == "redis" && rdb != nil {
		return ratelimit.NewRedis(rdb, cfg.Prefix, cfg.Limit, cfg.Window)
	}
	return ratelimit.NewMemory(cfg.Limit, cfg.Window, cfg.MaxKeys)
}
