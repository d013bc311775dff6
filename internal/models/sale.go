package models

import (
	"time"

	"github.com/google/uuid"
)

// SaleStatusPaid is the only sale status; a recorded sale is terminal.
const SaleStatusPaid = "paid"

// Sale represents a paid purchase event delivered by the payment provider.
//
// Reference is the idempotency key: a given reference produces exactly one
// Sale row and is processed for commission distribution at most once. The
// row is created inside the same transaction that writes the commission
// entries, so "sale exists" and "commissions distributed" become true
// together.
type Sale struct {
	Base
	Reference     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"reference"`
	BuyerRef      string     `gorm:"type:varchar(255)" json:"buyer_ref"`
	GrossAmount   float64    `gorm:"type:decimal(20,2);not null" json:"gross_amount"`
	GrossCurrency Currency   `gorm:"type:varchar(3);not null" json:"gross_currency"`
	Amount        float64    `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency      Currency   `gorm:"type:varchar(3);not null" json:"currency"`
	ReferrerID    *uuid.UUID `gorm:"type:uuid;index" json:"referrer_id"`
	Status        string     `gorm:"type:varchar(20);not null;default:'paid'" json:"status"`
	HoldReleaseAt time.Time  `json:"hold_release_at"`

	// Relationships
	Commissions []CommissionEntry `gorm:"foreignKey:SaleID" json:"commissions,omitempty"`
}
