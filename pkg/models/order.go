package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
)

type Order struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CustomerID      string          `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	CartID          string          `gorm:"type:varchar(36);not null" json:"cart_id"`
	Status          OrderStatus     `gorm:"type:varchar(30);not null" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"total_amount"`
	DeliveryAddress string          `gorm:"type:varchar(500);not null" json:"delivery_address"`
	TokenID         string          `gorm:"type:varchar(36);not null" json:"token_id"`
	TxID            string          `gorm:"type:varchar(36)" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID                string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID           string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID         string          `gorm:"type:varchar(36);not null" json:"product_id"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"unit_price_snapshot"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
