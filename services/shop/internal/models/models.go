package models

const (
	OrderStatusCreated    = "CREATED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusFinished   = "FINISHED"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	Description string  `gorm:"not null"                 json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Count       uint    `json:"count"`
}

type Order struct {
	ID       uint           `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username string         `gorm:"index;not null"            json:"username"`
	Address  string         `gorm:"not null"                  json:"address"`
	Status   string         `gorm:"not null;default:CREATED"  json:"status"`
	Products []OrderProduct `gorm:"constraint:OnDelete:CASCADE" json:"products"`
}

// OrderProduct keeps one row per product occurrence. Ordering the same
// product twice means two rows, and later two bill items.
type OrderProduct struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint `gorm:"index;not null"           json:"order_id"`
	ProductID uint `gorm:"not null"                 json:"product_id"`
}
