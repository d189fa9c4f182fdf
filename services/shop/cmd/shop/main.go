package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mkravets/shop-system/pkg/authclient"
	"github.com/mkravets/shop-system/pkg/config"
	"github.com/mkravets/shop-system/pkg/db"
	"github.com/mkravets/shop-system/pkg/logging"
	loggingmw "github.com/mkravets/shop-system/pkg/middleware/logging"
	"github.com/mkravets/shop-system/pkg/mykafka"
	"github.com/mkravets/shop-system/pkg/rabbit"
	"github.com/mkravets/shop-system/pkg/validate"
	"github.com/mkravets/shop-system/services/shop/internal/es"
	"github.com/mkravets/shop-system/services/shop/internal/httpserver"
	"github.com/mkravets/shop-system/services/shop/internal/models"
	"github.com/mkravets/shop-system/services/shop/internal/repo"
	"github.com/mkravets/shop-system/services/shop/internal/sender"
	"github.com/mkravets/shop-system/services/shop/internal/service"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	config.MustNonEmpty(cfg.RabbitURL, "RABBIT_URL")
	config.MustNonEmpty(cfg.InternalToken, "INTERNAL_TOKEN")

	logger := logging.New("shop", cfg.LogLevel)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := database.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderProduct{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	mq, err := rabbit.Connect(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit connect error: %v", err)
	}
	if err := rabbit.DeclareOrderTopology(mq.Ch, cfg.OrderExchange, "", cfg.OrderRoutingKey); err != nil {
		log.Fatalf("rabbit topology error: %v", err)
	}

	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	gormRepo := &repo.GormRepo{DB: database}
	orderSvc := &service.OrderService{
		Repo: gormRepo,
		Publisher: &sender.RabbitSender{
			Pub: rabbit.NewPublisher(mq.Ch, cfg.OrderExchange, cfg.OrderRoutingKey),
		},
	}
	productSvc := &service.ProductService{
		Repo:     gormRepo,
		Producer: prod,
		ES:       esClient,
		Index:    "product",
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Validator = validate.New()

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc},
		ProductHandler: &httpserver.ProductHTTP{Svc: productSvc},
		Validator:      authclient.NewClient(cfg.AuthURL),
		InternalToken:  cfg.InternalToken,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := mq.Close(); err != nil {
		log.Printf("rabbit close error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
