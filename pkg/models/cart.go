package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive  CartStatus = "ACTIVE"
	CartStatusOrdered CartStatus = "ORDERED"
)

type Cart struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CustomerID string     `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Status     CartStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID                string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CartID            string          `gorm:"type:varchar(36);not null;index" json:"cart_id"`
	ProductID         string          `gorm:"type:varchar(36);not null" json:"product_id"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"unit_price_snapshot"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
