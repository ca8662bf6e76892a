package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/dhaqane/shop-backend/internal/config"
	"github.com/dhaqane/shop-backend/internal/database"
	"github.com/dhaqane/shop-backend/internal/handler"
	"github.com/dhaqane/shop-backend/internal/logging"
	"github.com/dhaqane/shop-backend/internal/mail"
	"github.com/dhaqane/shop-backend/internal/metrics"
	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/payment"
	"github.com/dhaqane/shop-backend/internal/queue"
	"github.com/dhaqane/shop-backend/internal/repository"
	"github.com/dhaqane/shop-backend/internal/router"
	"github.com/dhaqane/shop-backend/internal/service"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.NewLogger("shop-backend", cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Storage ----
	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	client, db, err := database.Open(openCtx, cfg.MongoURI, cfg.DBName)
	if err == nil {
		err = database.EnsureIndexes(openCtx, db)
	}
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	methods := repository.NewPaymentMethodRepo(db)
	orders := repository.NewOrderRepo(db)
	cart := repository.NewCartRepo(db)
	banners := repository.NewBannerRepo(db)
	titles := repository.NewTitleRepo(db)

	// ---- Metrics ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ---- Payment gateway ----
	var gateway payment.Gateway = payment.NewWaafiClient(cfg.Payment, nil)
	if cfg.Payment.Sandbox() {
		logger.Warn("payment gateway in sandbox mode; every charge is approved")
		gateway = payment.Sandbox{}
	}

	deps := service.WorkflowDeps{
		Products:       products,
		Categories:     categories,
		PaymentMethods: methods,
		Orders:         orders,
		Gateway:        gateway,
		Metrics:        m,
		GatewayTimeout: cfg.Payment.Timeout,
	}

	// ---- Order events ----
	if cfg.Events.Enabled {
		deps.Publisher = service.NewEventPublisher(cfg.Events.URL)
		go func() {
			err := queue.StartOrderConsumer(ctx, cfg.Events.URL, "logs", logger.Named("consumer"))
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("order consumer stopped", zap.Error(err))
			}
		}()
	}
	workflow := service.NewOrderWorkflow(deps)

	// ---- Redis (cache + rate limit) ----
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unreachable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestContext(logger))
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Tracing("shop-backend"))
	e.Use(middleware.HTTPMetrics(m))
	e.Use(echomw.BodyLimit(cfg.RequestLimit))
	e.Use(echomw.CORS())

	router.RegisterRoutes(e, router.Handlers{
		Health:   &handler.HealthHandler{DB: mongoPinger{client}},
		Users:    handler.NewUserHandler(cfg, users, mail.New(cfg.SMTP, logger.Named("mail"))),
		Catalog:  handler.NewCatalogHandler(categories, products, cfg.ImageBaseURL),
		Payments: handler.NewPaymentMethodHandler(methods),
		Content:  handler.NewContentHandler(banners, titles, cfg.ImageBaseURL),
		Cart:     handler.NewCartHandler(cart, products),
		Orders:   handler.NewOrderHandler(workflow, orders),
	}, router.Options{
		Guards:     middleware.NewGuards(cfg.JWTSecret),
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.NewCacheInvalidator(cacheCfg, rdb),
		RateLimit:  middleware.NewTokenBucket(rlCfg, rdb),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = e.Shutdown(sctx)
	workflow.Wait()
	return err
}

// mongoPinger adapts the client to the health handler.
type mongoPinger struct{ c *mongo.Client }

func (p mongoPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx, readpref.Primary()) }
