package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkravets/shop-system/pkg/contracts"
	"github.com/mkravets/shop-system/pkg/logging"
	"github.com/mkravets/shop-system/pkg/metrics"
	"github.com/mkravets/shop-system/services/shop/internal/models"
	"github.com/mkravets/shop-system/services/shop/internal/repo"
)

// OrderPublisher hands the OrderDetails message to the broker. The rabbit
// implementation lives in cmd wiring; tests plug in fakes.
type OrderPublisher interface {
	PublishOrderDetails(ctx context.Context, details contracts.OrderDetails) error
}

type OrderService struct {
	Repo      *repo.GormRepo
	Publisher OrderPublisher
}

func (svc *OrderService) CreateOrder(ctx context.Context, username, address string, productIDs []uint) (*models.Order, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("%w: product_ids required", ErrValidation)
	}
	if _, err := svc.Repo.ProductsByIDs(ctx, productIDs); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: product does not exist", ErrNotFound)
		}
		return nil, err
	}

	products := make([]models.OrderProduct, 0, len(productIDs))
	for _, pid := range productIDs {
		products = append(products, models.OrderProduct{ProductID: pid})
	}

	order := &models.Order{
		Username: username,
		Address:  address,
		Status:   models.OrderStatusCreated,
		Products: products,
	}
	if err := svc.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (svc *OrderService) GetOrder(ctx context.Context, orderID uint, caller string) (*models.Order, error) {
	order, err := svc.loadOwned(ctx, orderID, caller)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (svc *OrderService) ListOrders(ctx context.Context, username string) ([]models.Order, error) {
	return svc.Repo.ListOrdersByUser(ctx, username)
}

func (svc *OrderService) UpdateOrder(ctx context.Context, orderID uint, caller, address string, productIDs []uint) error {
	order, err := svc.loadMutable(ctx, orderID, caller)
	if err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return fmt.Errorf("%w: product_ids required", ErrValidation)
	}
	if _, err := svc.Repo.ProductsByIDs(ctx, productIDs); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return fmt.Errorf("%w: product does not exist", ErrNotFound)
		}
		return err
	}
	return svc.Repo.ReplaceOrderContents(ctx, order.ID, address, productIDs)
}

func (svc *OrderService) DeleteOrder(ctx context.Context, orderID uint, caller string) error {
	order, err := svc.loadMutable(ctx, orderID, caller)
	if err != nil {
		return err
	}
	return svc.Repo.DeleteOrder(ctx, order.ID)
}

// PlaceOrder transitions CREATED -> IN_PROGRESS and publishes the
// OrderDetails message synchronously. The state change is committed before
// the publish; a broker outage surfaces to the caller as ErrPublish and the
// order stays IN_PROGRESS without a bill until reconciled by hand.
func (svc *OrderService) PlaceOrder(ctx context.Context, orderID uint, caller string) error {
	l := logging.FromContext(ctx).With("svc", "shop.place_order", "order_id", orderID)

	order, err := svc.loadMutable(ctx, orderID, caller)
	if err != nil {
		return err
	}

	ids := make([]uint, 0, len(order.Products))
	for _, op := range order.Products {
		ids = append(ids, op.ProductID)
	}
	products, err := svc.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return fmt.Errorf("%w: product does not exist", ErrNotFound)
		}
		return err
	}

	entries := make([]contracts.ProductEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, contracts.ProductEntry{Name: p.Name, Price: p.Price})
	}
	details := contracts.OrderDetails{
		User:        order.Username,
		Address:     order.Address,
		Products:    entries,
		OrderNumber: order.ID,
	}

	if err := svc.Repo.UpdateOrderStatus(ctx, order.ID, models.OrderStatusInProgress); err != nil {
		return err
	}

	if err := svc.Publisher.PublishOrderDetails(ctx, details); err != nil {
		l.Error("order details publish failed", "error", err)
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	metrics.OrdersPlacedTotal.Inc()
	l.Info("order placed", "products", len(entries))
	return nil
}

// FinishOrder is the trusted callback from the order service once billing
// completes. No ownership check, and no status guard: any existing order is
// moved to FINISHED.
func (svc *OrderService) FinishOrder(ctx context.Context, orderID uint) error {
	if _, err := svc.Repo.OrderByID(ctx, orderID); err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return err
	}
	return svc.Repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusFinished)
}

// loadOwned fetches the order and enforces ownership.
func (svc *OrderService) loadOwned(ctx context.Context, orderID uint, caller string) (*models.Order, error) {
	order, err := svc.Repo.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.Username != caller {
		return nil, fmt.Errorf("%w: order %d", ErrNotOwned, orderID)
	}
	return order, nil
}

// loadMutable additionally requires the CREATED state. Ownership is checked
// before state so a foreign caller never learns an order's lifecycle stage.
func (svc *OrderService) loadMutable(ctx context.Context, orderID uint, caller string) (*models.Order, error) {
	order, err := svc.loadOwned(ctx, orderID, caller)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusCreated {
		return nil, fmt.Errorf("%w: order is %s", ErrNotSupported, order.Status)
	}
	return order, nil
}
