package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/jackyYam/mybooklist/internal/config"
	"github.com/jackyYam/mybooklist/internal/database"
	"github.com/jackyYam/mybooklist/internal/handler"
	"github.com/jackyYam/mybooklist/internal/logger"
	"github.com/jackyYam/mybooklist/internal/middleware"
	"github.com/jackyYam/mybooklist/internal/queue"
	"github.com/jackyYam/mybooklist/internal/repository"
	"github.com/jackyYam/mybooklist/internal/router"
	"github.com/jackyYam/mybooklist/internal/service"
	"github.com/jackyYam/mybooklist/internal/validation"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	logg := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient(logg)
	if rdb != nil {
		defer rdb.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	var blacklist service.Blacklist
	switch cfg.BlacklistBackend {
	case config.BlacklistRedis:
		if rdb == nil {
			log.Fatal("BLACKLIST_BACKEND=redis but redis is unavailable")
		}
		blacklist = repository.NewRedisBlacklist(rdb)
	default:
		sqlBlacklist := repository.NewBlacklistRepo(db)
		blacklist = sqlBlacklist
		g.Go(func() error {
			service.RunBlacklistGC(ctx, sqlBlacklist, cfg.BlacklistGCInterval, logg)
			return nil
		})
	}
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), blacklist)

	var events handler.EventPublisher
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL, logg)
	}

	e := router.New(router.Deps{
		Log:             logg,
		Validator:       validation.New(),
		AccessValidator: tokens,
		Limiter:         middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logg),
		DB:              db,
		Auth:            handler.NewAuthHandler(repository.NewUserRepo(db), tokens, cfg.BcryptCost, logg),
		Books:           handler.NewBookHandler(repository.NewBookRepo(db), events, cfg.PageSize, logg),
	})

	addr := ":" + cfg.Port
	g.Go(func() error {
		logg.Info("listening", "addr", addr, "env", cfg.Env, "blacklist", cfg.BlacklistBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
