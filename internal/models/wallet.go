package models

import (
	"github.com/google/uuid"
)

// Currency represents supported currencies
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyNGN Currency = "NGN"
	CurrencyGHS Currency = "GHS"
)

// Wallet is a participant's commission balance record.
//
// Invariant: TotalEarned == Pending + Available, within one smallest
// currency unit per contributing commission. All balance mutations are
// additive increments issued through the store's atomic-increment
// expression; fields are never overwritten from a read value.
type Wallet struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Currency    Currency  `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	TotalEarned float64   `gorm:"type:decimal(20,2);default:0" json:"total_earned"`
	Pending     float64   `gorm:"type:decimal(20,2);default:0" json:"pending"`
	Available   float64   `gorm:"type:decimal(20,2);default:0" json:"available"`
	Tier        Tier      `gorm:"type:varchar(20);not null;default:'basic'" json:"tier"`
}
