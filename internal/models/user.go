package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a participant in the referral program.
//
// ReferredBy is set once at signup from the referral code used and is never
// mutated afterward. The relation is a parent-pointer forest: each user has
// at most one referrer and can never be its own ancestor.
type User struct {
	Base
	Username     string     `gorm:"uniqueIndex" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"not null" json:"-"`
	DisplayName  string     `json:"display_name"`
	Tier         Tier       `gorm:"type:varchar(20);not null;default:'basic'" json:"tier"`
	ReferralCode string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *uuid.UUID `gorm:"type:uuid" json:"referred_by"`
	Disabled     bool       `gorm:"default:false" json:"disabled"`
	IsAdmin      bool       `gorm:"default:false" json:"is_admin"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Wallet Wallet `json:"wallet,omitempty"`
}

// PublicSummary is the subset of user fields exposed in network views
type PublicSummary struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Tier        string    `json:"tier"`
	MemberSince time.Time `json:"member_since"`
}

// Summary returns the user's public summary
func (u *User) Summary() PublicSummary {
	return PublicSummary{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Tier:        u.Tier.Label(),
		MemberSince: u.CreatedAt,
	}
}
