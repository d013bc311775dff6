package models

import (
	"time"

	"github.com/google/uuid"
)

// Commission entry statuses
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
)

// CommissionEntry records a single beneficiary's share of a sale.
//
// Entries are created in pending status atomically with the sale's
// distribution and transition to approved exactly once, when the hold
// window has elapsed and the beneficiary's balance is settled.
type CommissionEntry struct {
	Base
	SaleID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"sale_id"`
	Sale          Sale       `gorm:"foreignKey:SaleID" json:"-"`
	BeneficiaryID uuid.UUID  `gorm:"type:uuid;index;not null" json:"beneficiary_id"`
	Beneficiary   User       `gorm:"foreignKey:BeneficiaryID" json:"-"`
	Level         int        `gorm:"not null" json:"level"`
	Percent       float64    `gorm:"type:decimal(10,2);not null" json:"percent"`
	Amount        float64    `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency      Currency   `gorm:"type:varchar(3);not null" json:"currency"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	HoldReleaseAt time.Time  `gorm:"index" json:"hold_release_at"`
	ReleasedAt    *time.Time `json:"released_at"`
}

// ReleasableAt reports whether the entry's hold window has elapsed at ts
func (e *CommissionEntry) ReleasableAt(ts time.Time) bool {
	return e.Status == CommissionStatusPending && !ts.Before(e.HoldReleaseAt)
}
