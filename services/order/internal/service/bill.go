package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkravets/shop-system/pkg/contracts"
	"github.com/mkravets/shop-system/pkg/logging"
	"github.com/mkravets/shop-system/pkg/metrics"
	"github.com/mkravets/shop-system/services/order/internal/models"
	"github.com/mkravets/shop-system/services/order/internal/repo"
)

var (
	ErrNotFound  = errors.New("not found")          // 404
	ErrNotOwned  = errors.New("resource not owned") // 400
	ErrDuplicate = errors.New("duplicate delivery")
)

type BillService struct {
	Repo *repo.GormRepo
}

// CreateFromOrderDetails materializes one bill per order number. DateTime is
// the consumption time, not the placement time. Returns ErrDuplicate for a
// redelivered message so the consumer can ack without a second bill.
func (svc *BillService) CreateFromOrderDetails(ctx context.Context, details contracts.OrderDetails) (*models.Bill, error) {
	l := logging.FromContext(ctx).With("svc", "order.create_bill", "order_number", details.OrderNumber)

	items := make([]models.Item, 0, len(details.Products))
	for _, entry := range details.Products {
		items = append(items, models.Item{Name: entry.Name, Price: entry.Price})
	}

	bill := &models.Bill{
		Username:    details.User,
		DateTime:    time.Now().UTC(),
		OrderNumber: details.OrderNumber,
		Items:       items,
	}

	if err := svc.Repo.CreateBill(ctx, bill); err != nil {
		if errors.Is(err, repo.ErrDuplicateBill) {
			metrics.DuplicateDeliveriesTotal.Inc()
			l.Info("duplicate order message, bill already exists")
			return nil, ErrDuplicate
		}
		return nil, err
	}

	metrics.BillsCreatedTotal.Inc()
	l.Info("bill created", "bill_id", bill.ID, "items", len(items))
	return bill, nil
}

func (svc *BillService) ListUserBills(ctx context.Context, username string) ([]models.Bill, error) {
	return svc.Repo.ListBillsByUser(ctx, username)
}

func (svc *BillService) ListAllBills(ctx context.Context) ([]models.Bill, error) {
	return svc.Repo.ListBills(ctx)
}

func (svc *BillService) PayBill(ctx context.Context, billID uint, caller string) error {
	bill, err := svc.Repo.BillByID(ctx, billID)
	if err != nil {
		if errors.Is(err, repo.ErrBillNotFound) {
			return fmt.Errorf("%w: bill %d", ErrNotFound, billID)
		}
		return err
	}
	if bill.Username != caller {
		return fmt.Errorf("%w: bill %d", ErrNotOwned, billID)
	}
	return svc.Repo.MarkPaid(ctx, billID)
}
