package models

import (
	"time"
)

type Customer struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Address   string    `gorm:"type:varchar(500)" json:"address"`
	TxID      string    `gorm:"type:varchar(36)" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Customer) TableName() string {
	return "customers"
}
