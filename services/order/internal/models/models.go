package models

import "time"

// Bill is materialized exactly once per consumed order message; the unique
// index on OrderNumber is what makes redelivery harmless.
type Bill struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string    `gorm:"index;not null"           json:"username"`
	DateTime    time.Time `gorm:"not null"                 json:"date_time"`
	OrderNumber uint      `gorm:"uniqueIndex;not null"     json:"order_number"`
	Paid        bool      `gorm:"default:false"            json:"paid"`
	Items       []Item    `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// Item rows belong to exactly one bill; equal products on different bills
// stay separate rows.
type Item struct {
	ID     uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	BillID uint    `gorm:"index;not null"           json:"bill_id"`
	Name   string  `gorm:"not null"                 json:"name"`
	Price  float64 `gorm:"not null"                 json:"price"`
}
