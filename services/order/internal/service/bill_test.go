package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkravets/shop-system/pkg/contracts"
	"github.com/mkravets/shop-system/services/order/internal/models"
	"github.com/mkravets/shop-system/services/order/internal/repo"
)

func newTestBillService(t *testing.T) *BillService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Bill{}, &models.Item{}))

	return &BillService{Repo: &repo.GormRepo{DB: db}}
}

func sampleDetails(orderNumber uint) contracts.OrderDetails {
	return contracts.OrderDetails{
		User:    "alice",
		Address: "Main St 1",
		Products: []contracts.ProductEntry{
			{Name: "beer", Price: 4.50},
			{Name: "beer", Price: 4.50},
			{Name: "chips", Price: 2.25},
		},
		OrderNumber: orderNumber,
	}
}

func TestBillService_CreateFromOrderDetails(t *testing.T) {
	t.Parallel()

	svc := newTestBillService(t)
	ctx := context.Background()

	before := time.Now().UTC()
	bill, err := svc.CreateFromOrderDetails(ctx, sampleDetails(42))
	require.NoError(t, err)

	assert.Equal(t, "alice", bill.Username)
	assert.Equal(t, uint(42), bill.OrderNumber)
	assert.False(t, bill.Paid)
	assert.False(t, bill.DateTime.Before(before), "bill is dated at consumption time")
	require.Len(t, bill.Items, 3, "equal products stay separate items")
	assert.Equal(t, "beer", bill.Items[0].Name)
	assert.Equal(t, 4.50, bill.Items[0].Price)
}

func TestBillService_CreateFromOrderDetails_Redelivery(t *testing.T) {
	t.Parallel()

	svc := newTestBillService(t)
	ctx := context.Background()

	_, err := svc.CreateFromOrderDetails(ctx, sampleDetails(7))
	require.NoError(t, err)

	_, err = svc.CreateFromOrderDetails(ctx, sampleDetails(7))
	require.ErrorIs(t, err, ErrDuplicate)

	bills, err := svc.ListUserBills(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, bills, 1, "one bill per order number")

	// A different order number is not a duplicate.
	_, err = svc.CreateFromOrderDetails(ctx, sampleDetails(8))
	require.NoError(t, err)
}

func TestBillService_PayBill(t *testing.T) {
	t.Parallel()

	svc := newTestBillService(t)
	ctx := context.Background()

	bill, err := svc.CreateFromOrderDetails(ctx, sampleDetails(11))
	require.NoError(t, err)

	require.ErrorIs(t, svc.PayBill(ctx, bill.ID, "mallory"), ErrNotOwned)
	require.ErrorIs(t, svc.PayBill(ctx, bill.ID+100, "alice"), ErrNotFound)

	require.NoError(t, svc.PayBill(ctx, bill.ID, "alice"))

	bills, err := svc.ListUserBills(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Paid)
}

func TestBillService_ListBills(t *testing.T) {
	t.Parallel()

	svc := newTestBillService(t)
	ctx := context.Background()

	_, err := svc.CreateFromOrderDetails(ctx, sampleDetails(1))
	require.NoError(t, err)

	other := sampleDetails(2)
	other.User = "bob"
	_, err = svc.CreateFromOrderDetails(ctx, other)
	require.NoError(t, err)

	aliceBills, err := svc.ListUserBills(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceBills, 1)
	assert.Equal(t, "alice", aliceBills[0].Username)

	all, err := svc.ListAllBills(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
