package models

import (
	"time"
)

// CardToken stores the encrypted card number. Ciphertext, IV and auth tag are
// base64-encoded and kept in separate columns; downstream flows only ever
// check that the token id exists, the card number is never decrypted.
type CardToken struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Ciphertext string    `gorm:"type:varchar(500);not null" json:"-"`
	IV         string    `gorm:"type:varchar(100);not null" json:"-"`
	AuthTag    string    `gorm:"type:varchar(100);not null" json:"-"`
	MaskedPan  string    `gorm:"type:varchar(30);not null" json:"masked_pan"`
	TxID       string    `gorm:"type:varchar(36)" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CardToken) TableName() string {
	return "card_tokens"
}
