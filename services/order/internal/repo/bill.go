package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mkravets/shop-system/services/order/internal/models"
)

var ErrBillNotFound = errors.New("bill not found")
var ErrDuplicateBill = errors.New("bill already exists for order number")

type GormRepo struct {
	DB *gorm.DB
}

// CreateBill inserts the bill and its item rows in one transaction, keyed by
// order number. A message redelivered after a successful insert fails the
// in-transaction existence check; a concurrent redelivery loses the race on
// the unique index instead.
func (r *GormRepo) CreateBill(ctx context.Context, bill *models.Bill) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Bill{}).
			Where("order_number = ?", bill.OrderNumber).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateBill
		}
		return tx.Create(bill).Error
	})
}

func (r *GormRepo) BillByID(ctx context.Context, id uint) (*models.Bill, error) {
	var bill models.Bill
	if err := r.DB.WithContext(ctx).Preload("Items").First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return &bill, nil
}

func (r *GormRepo) ListBillsByUser(ctx context.Context, username string) ([]models.Bill, error) {
	var bills []models.Bill
	if err := r.DB.WithContext(ctx).Preload("Items").
		Where("username = ?", username).Order("id ASC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *GormRepo) ListBills(ctx context.Context) ([]models.Bill, error) {
	var bills []models.Bill
	if err := r.DB.WithContext(ctx).Preload("Items").Order("id ASC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *GormRepo) MarkPaid(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.Bill{}).
		Where("id = ?", id).Update("paid", true).Error
}
