package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is one row per settlement attempt. Attempt 0 is the sentinel row
// written when the retry budget is exhausted.
type Payment struct {
	ID        string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID   string        `gorm:"type:varchar(36);not null;index" json:"order_id"`
	TokenID   string        `gorm:"type:varchar(36);not null" json:"token_id"`
	Status    PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	Attempt   int           `gorm:"not null" json:"attempt"`
	LastError string        `gorm:"type:varchar(1000)" json:"last_error,omitempty"`
	TxID      string        `gorm:"type:varchar(36)" json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
