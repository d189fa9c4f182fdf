// Package worker drains the billing queue. It runs on its own goroutine,
// fully decoupled from the HTTP handlers.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mkravets/shop-system/pkg/contracts"
	"github.com/mkravets/shop-system/services/order/internal/models"
	"github.com/mkravets/shop-system/services/order/internal/service"
)

type Biller interface {
	CreateFromOrderDetails(ctx context.Context, details contracts.OrderDetails) (*models.Bill, error)
}

type Finisher interface {
	Finish(ctx context.Context, orderNumber uint) error
}

type Consumer struct {
	Log   *slog.Logger
	Bills Biller
	Shop  Finisher
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info("billing consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("billing consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info("deliveries channel closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var details contracts.OrderDetails
	if err := json.Unmarshal(d.Body, &details); err != nil {
		c.Log.Error("bad order message, dropping", "error", err)
		_ = d.Ack(false)
		return
	}
	if details.OrderNumber == 0 || details.User == "" {
		c.Log.Error("order message missing user or order number, dropping")
		_ = d.Ack(false)
		return
	}

	bill, err := c.Bills.CreateFromOrderDetails(ctx, details)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			_ = d.Ack(false)
			return
		}
		// One requeue per delivery, then drop: a poison message must not
		// wedge the queue.
		c.Log.Error("bill persistence failed", "order_number", details.OrderNumber, "error", err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	// Finish is best-effort: the bill exists either way, and the order
	// staying IN_PROGRESS is visible for reconciliation.
	if err := c.Shop.Finish(ctx, details.OrderNumber); err != nil {
		c.Log.Error("finish callback failed", "order_number", details.OrderNumber, "error", err)
	}

	_ = d.Ack(false)
	c.Log.Info("order billed", "order_number", details.OrderNumber, "bill_id", bill.ID)
}
