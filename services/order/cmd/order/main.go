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
	"github.com/mkravets/shop-system/pkg/rabbit"
	"github.com/mkravets/shop-system/pkg/validate"
	"github.com/mkravets/shop-system/services/order/internal/httpserver"
	"github.com/mkravets/shop-system/services/order/internal/models"
	"github.com/mkravets/shop-system/services/order/internal/repo"
	"github.com/mkravets/shop-system/services/order/internal/service"
	"github.com/mkravets/shop-system/services/order/internal/shopclient"
	"github.com/mkravets/shop-system/services/order/internal/worker"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	config.MustNonEmpty(cfg.ShopURL, "SHOP_URL")
	config.MustNonEmpty(cfg.RabbitURL, "RABBIT_URL")
	config.MustNonEmpty(cfg.InternalToken, "INTERNAL_TOKEN")

	logger := logging.New("order", cfg.LogLevel)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := database.AutoMigrate(&models.Bill{}, &models.Item{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	mq, err := rabbit.Connect(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit connect error: %v", err)
	}
	if err := rabbit.DeclareOrderTopology(mq.Ch, cfg.OrderExchange, cfg.BillingQueue, cfg.OrderRoutingKey); err != nil {
		log.Fatalf("rabbit topology error: %v", err)
	}

	billSvc := &service.BillService{Repo: &repo.GormRepo{DB: database}}

	deliveries, err := rabbit.NewConsumer(mq.Ch).Consume(cfg.BillingQueue, 10)
	if err != nil {
		log.Fatalf("rabbit consume error: %v", err)
	}

	consumerCtx, stopConsumer := context.WithCancel(logging.IntoContext(context.Background(), logger))
	consumer := &worker.Consumer{
		Log:   logger,
		Bills: billSvc,
		Shop:  shopclient.NewClient(cfg.ShopURL, cfg.InternalToken),
	}
	go consumer.Run(consumerCtx, deliveries)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Validator = validate.New()

	httpserver.Register(e, &httpserver.Deps{
		BillHandler: &httpserver.BillHTTP{Svc: billSvc},
		Validator:   authclient.NewClient(cfg.AuthURL),
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

	stopConsumer()

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

	log.Println("shutdown complete")
}
