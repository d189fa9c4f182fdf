// Package sender adapts the rabbit publisher to the order service port.
package sender

import (
	"context"

	"github.com/mkravets/shop-system/pkg/contracts"
	"github.com/mkravets/shop-system/pkg/rabbit"
)

type RabbitSender struct {
	Pub *rabbit.Publisher
}

func (s *RabbitSender) PublishOrderDetails(ctx context.Context, details contracts.OrderDetails) error {
	pubCtx, cancel := rabbit.WithTimeout(ctx)
	defer cancel()
	return s.Pub.PublishJSON(pubCtx, details)
}
