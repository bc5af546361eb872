package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/paygate"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	if err := repo.Migrate(database); err != nil {
		log.Fatalf("migrate error: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
		publisher = producer
	} else {
		logger.Warn("kafka brokers not configured, events disabled")
	}

	Repo := &repo.GormRepo{DB: database}

	gateway := paygate.NewClient(paygate.Options{
		BaseURL:     cfg.PayGate.URL,
		TerminalKey: cfg.PayGate.TerminalKey,
		Password:    cfg.PayGate.Password,
		Timeout:     cfg.PayGate.Timeout,
	})

	cartService := &service.CartService{Repo: Repo, Events: publisher, Topic: cfg.KafkaCartTopic}
	orderService := &service.OrderService{Repo: Repo, Events: publisher, Topic: cfg.KafkaOrderTopic}
	paymentService := &service.PaymentService{
		Repo:            Repo,
		Orders:          orderService,
		Gateway:         gateway,
		NotificationURL: cfg.PayGate.NotificationURL,
		SuccessURL:      cfg.PayGate.SuccessURL,
		FailURL:         cfg.PayGate.FailURL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())
	e.Use(csrf.Middleware(csrf.Config{
		Secure:       cfg.CookieSecure,
		SkipPrefixes: []string{"/payments/notify", "/health"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		DB:             database,
		CartHandler:    &httpserver.CartHTTP{Svc: cartService},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderService},
		PaymentHandler: &httpserver.PaymentHTTP{Svc: paymentService},
		JWTSecret:      cfg.JWTAccessSecret,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("starting http server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := db.Close(database); err != nil {
		logger.Error("db close error", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
