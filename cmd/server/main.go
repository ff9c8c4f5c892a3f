package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]handler.Pinger{}
	store, db, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		health["mysql"] = db
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, seat map cache and rate limiter disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
		health["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var seatMaps service.SeatMaps
	if cfg.Cache.Enabled && rdb != nil {
		seatMaps = repository.NewSeatMapCache(rdb, store, cfg.Cache.TTL, cfg.Cache.Prefix, log)
	}

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL, log)
		defer pub.Close()
		events = pub
	} else {
		log.Info("RABBITMQ_URL not set, booking events are not published")
	}

	svc := service.NewBookingService(store, seatMaps, events, log, service.Options{
		RequireApproval:    cfg.RequireApproval,
		CancellationWindow: cfg.CancellationWindow,
		Location:           cfg.Location,
		BookingIDAttempts:  cfg.BookingIDAttempts,
		MaxSeatsPerBooking: cfg.MaxSeatsPerBooking,
	})

	e := router.New(router.Deps{
		Bookings:  handler.NewBookingHandler(svc, log),
		JWTSecret: cfg.JWTSecret,
		RateLimit: rateLimiter(cfg, rdb, log),
		Health:    health,
		Log:       log,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("require_approval", cfg.RequireApproval))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

func newLogger(cfg config.Config) *zap.Logger {
	build := zap.NewDevelopment
	if cfg.IsProd() {
		build = zap.NewProduction
	}
	log, err := build()
	if err != nil {
		return zap.NewExample()
	}
	return log.With(zap.String("service", "cinema-booking"))
}

// openStore returns the configured store.  db is nil for the memory driver.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.Store, *sql.DB, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		return seedDemo(ctx, cfg), nil, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store := repository.NewMySQLStore(db,
		repository.WithTxTimeout(cfg.TxTimeout),
		repository.WithLogger(log),
	)
	return store, db, nil
}

func rateLimiter(cfg config.Config, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if rdb == nil || !cfg.RateLimit.Enabled {
		return nil
	}
	return middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
}
