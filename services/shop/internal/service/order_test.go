package service

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkravets/shop-system/pkg/contracts"
	"github.com/mkravets/shop-system/services/shop/internal/models"
	"github.com/mkravets/shop-system/services/shop/internal/repo"
)

type fakePublisher struct {
	published []contracts.OrderDetails
	err       error
}

func (f *fakePublisher) PublishOrderDetails(_ context.Context, details contracts.OrderDetails) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, details)
	return nil
}

func newTestOrderService(t *testing.T) (*OrderService, *fakePublisher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderProduct{}))

	pub := &fakePublisher{}
	return &OrderService{Repo: &repo.GormRepo{DB: db}, Publisher: pub}, pub
}

func seedProduct(t *testing.T, svc *OrderService, name string, price float64) uint {
	t.Helper()

	p := &models.Product{Name: name, Description: name + " description", Price: price, Count: 10}
	require.NoError(t, svc.Repo.CreateProduct(context.Background(), p))
	return p.ID
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)

	order, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID, beerID})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
	assert.Equal(t, "alice", order.Username)
	assert.Len(t, order.Products, 2, "same product twice means two rows")
}

func TestOrderService_CreateOrder_MissingProduct(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)

	_, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID, beerID + 100})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateOrder(ctx, "alice", "Main St 1", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestOrderService_OwnershipBeforeState(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)

	order, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID})
	require.NoError(t, err)
	require.NoError(t, svc.PlaceOrder(ctx, order.ID, "alice"))

	// A foreign caller gets the ownership error even though the order is
	// also in a non-mutable state.
	_, err = svc.GetOrder(ctx, order.ID, "mallory")
	require.ErrorIs(t, err, ErrNotOwned)

	err = svc.UpdateOrder(ctx, order.ID, "mallory", "Elsewhere 2", []uint{beerID})
	require.ErrorIs(t, err, ErrNotOwned)

	err = svc.DeleteOrder(ctx, order.ID, "mallory")
	require.ErrorIs(t, err, ErrNotOwned)

	err = svc.PlaceOrder(ctx, order.ID, "mallory")
	require.ErrorIs(t, err, ErrNotOwned)
}

func TestOrderService_MutationsRequireCreatedState(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)

	order, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID})
	require.NoError(t, err)
	require.NoError(t, svc.PlaceOrder(ctx, order.ID, "alice"))

	err = svc.UpdateOrder(ctx, order.ID, "alice", "Elsewhere 2", []uint{beerID})
	require.ErrorIs(t, err, ErrNotSupported)

	err = svc.DeleteOrder(ctx, order.ID, "alice")
	require.ErrorIs(t, err, ErrNotSupported)

	err = svc.PlaceOrder(ctx, order.ID, "alice")
	require.ErrorIs(t, err, ErrNotSupported)

	// Reads stay available in every state.
	got, err := svc.GetOrder(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, got.Status)
}

func TestOrderService_PlaceOrder_PublishesDetails(t *testing.T) {
	t.Parallel()

	svc, pub := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)
	chipsID := seedProduct(t, svc, "chips", 2.25)

	order, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID, chipsID, beerID})
	require.NoError(t, err)

	require.NoError(t, svc.PlaceOrder(ctx, order.ID, "alice"))

	got, err := svc.GetOrder(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, got.Status)

	require.Len(t, pub.published, 1)
	details := pub.published[0]
	assert.Equal(t, "alice", details.User)
	assert.Equal(t, "Main St 1", details.Address)
	assert.Equal(t, order.ID, details.OrderNumber)
	assert.Equal(t, []contracts.ProductEntry{
		{Name: "beer", Price: 4.50},
		{Name: "chips", Price: 2.25},
		{Name: "beer", Price: 4.50},
	}, details.Products)
}

func TestOrderService_PlaceOrder_PublishFailure(t *testing.T) {
	t.Parallel()

	svc, pub := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)

	order, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID})
	require.NoError(t, err)

	pub.err = errors.New("broker unreachable")
	err = svc.PlaceOrder(ctx, order.ID, "alice")
	require.ErrorIs(t, err, ErrPublish)

	// The state change is committed before the publish attempt.
	got, err := svc.GetOrder(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, got.Status)
}

func TestOrderService_FinishOrder(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)

	order, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID})
	require.NoError(t, err)
	require.NoError(t, svc.PlaceOrder(ctx, order.ID, "alice"))

	require.NoError(t, svc.FinishOrder(ctx, order.ID))

	got, err := svc.GetOrder(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFinished, got.Status)

	// Finishing again is a no-op transition, not an error.
	require.NoError(t, svc.FinishOrder(ctx, order.ID))

	require.ErrorIs(t, svc.FinishOrder(ctx, order.ID+100), ErrNotFound)
}

func TestOrderService_UpdateOrder_ReplacesContents(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	ctx := context.Background()
	beerID := seedProduct(t, svc, "beer", 4.50)
	chipsID := seedProduct(t, svc, "chips", 2.25)

	order, err := svc.CreateOrder(ctx, "alice", "Main St 1", []uint{beerID})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateOrder(ctx, order.ID, "alice", "Elsewhere 2", []uint{chipsID, chipsID}))

	got, err := svc.GetOrder(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Elsewhere 2", got.Address)
	require.Len(t, got.Products, 2)
	for _, op := range got.Products {
		assert.Equal(t, chipsID, op.ProductID)
	}

	err = svc.UpdateOrder(ctx, order.ID, "alice", "Elsewhere 2", []uint{chipsID + 100})
	require.ErrorIs(t, err, ErrNotFound)
}
