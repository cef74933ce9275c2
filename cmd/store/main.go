package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/text/language"

	"github.com/tesotunes/storefront/internal/config"
	"github.com/tesotunes/storefront/internal/httpserver"
	"github.com/tesotunes/storefront/internal/metrics"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/notify"
	"github.com/tesotunes/storefront/internal/outbox"
	"github.com/tesotunes/storefront/internal/payment"
	"github.com/tesotunes/storefront/internal/repo"
	"github.com/tesotunes/storefront/internal/search"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/internal/session"
	"github.com/tesotunes/storefront/pkg/db"
	"github.com/tesotunes/storefront/pkg/logging"
	loggingmw "github.com/tesotunes/storefront/pkg/middleware/logging"
)

func main() {
	cfg := config.LoadConfig()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		fatal(logger, "db_init_error", err)
	}
	if err := repo.Migrate(gdb); err != nil {
		fatal(logger, "db_migrate_error", err)
	}
	r := repo.New(gdb)
	checks := map[string]httpserver.Pinger{"db": r}

	var carts session.Store = session.NewMemoryStore()
	if cfg.RedisURL != "" {
		rdb, err := session.Dial(ctx, cfg.RedisURL)
		if err != nil {
			fatal(logger, "redis_init_error", err)
		}
		defer rdb.Close()
		rs := session.NewRedisStore(rdb, cfg.CartTTL)
		carts = rs
		checks["redis"] = rs
	} else {
		logger.Warn("redis_not_configured", "fallback", "memory cart sessions")
	}

	catalog := &service.CatalogService{Repo: r}
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			fatal(logger, "es_init_error", err)
		}
		catalog.Index = search.NewProductIndex(es, cfg.ESIndex)
	}

	gateways := payment.NewManager(cfg.PaymentTimeout).Register(models.MethodMobileMoney, payment.MobileMoney{})
	if cfg.StripeAPIKey != "" {
		st, err := payment.NewStripe(cfg.StripeAPIKey)
		if err != nil {
			fatal(logger, "stripe_init_error", err)
		}
		gateways.Register(models.MethodCard, st)
	} else {
		logger.Warn("stripe_not_configured", "effect", "card refunds will fail")
	}

	promotions := &service.PromotionService{Repo: r}
	orders := &service.OrderService{
		Repo:       r,
		Promotions: promotions,
		Payments:   gateways,
		Notifier:   notify.NewFormatter(language.English, cfg.Currency),
		TaxRate:    cfg.TaxRate,
		Currency:   cfg.Currency,
	}

	relay, closeSinks := newRelay(ctx, logger, cfg, r)
	defer closeSinks()
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Run(ctx)
	}()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.PrometheusMiddleware())

	cart := &httpserver.CartHTTP{
		Svc: &service.CartService{Repo: r, Sessions: carts},
		TTL: cfg.CartTTL,
	}
	httpserver.Register(e, &httpserver.Deps{
		CartHandler:      cart,
		OrderHandler:     &httpserver.OrderHTTP{Svc: orders, Cart: cart},
		PromotionHandler: &httpserver.PromotionHTTP{Svc: promotions},
		CatalogHandler:   &httpserver.CatalogHTTP{Svc: catalog},
		StatsHandler:     &httpserver.StatsHTTP{Svc: &service.StatsService{Repo: r}},
		HealthHandler:    &httpserver.HealthHTTP{Checks: checks},
		JWTSecret:        cfg.JWTAccessSecret,
	})

	go func() {
		addr := ":" + strconv.Itoa(cfg.ServerPort)
		logger.Info("server_starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "echo_start_error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("server_shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_error", "error", err)
	}
	<-relayDone

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server_stopped")
}

// newRelay wires the outbox to Kafka and RabbitMQ when they are configured
// and to the log otherwise.
func newRelay(ctx context.Context, logger *slog.Logger, cfg *config.Config, r *repo.GormRepo) (*outbox.Relay, func()) {
	relay := &outbox.Relay{
		Repo:     r,
		Sinks:    map[string]outbox.Sink{},
		Fallback: outbox.LogSink{},
		Interval: cfg.OutboxInterval,
		Batch:    cfg.OutboxBatch,
	}
	var closers []func() error

	if len(cfg.KafkaBrokers) > 0 {
		k := outbox.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		relay.Sinks[models.TopicOrderEvents] = k
		closers = append(closers, k.Close)
	}
	if cfg.RabbitMQURL != "" {
		a, err := outbox.DialAMQP(cfg.RabbitMQURL, cfg.NotifyExchange)
		if err != nil {
			fatal(logger, "rabbitmq_init_error", err)
		}
		relay.Sinks[models.TopicNotifications] = a
		closers = append(closers, a.Close)
	}

	if r.Dialect() == db.DriverPostgres {
		wake, err := outbox.ListenPQ(ctx, cfg.DatabaseURL, repo.OutboxChannel)
		if err != nil {
			logger.Warn("outbox_listen_error", "error", err, "fallback", "polling")
		} else {
			relay.Wake = wake
		}
	}

	return relay, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("outbox_sink_close_error", "error", err)
			}
		}
	}
}

func fatal(l *slog.Logger, event string, err error) {
	l.Error(event, "error", err)
	os.Exit(1)
}
