package models

import (
	"time"

	"github.com/google/uuid"
)

// NetworkEdge is a denormalized recruit row kept per referrer for fast
// tree rendering. It is a read cache, not a source of truth: the referrer
// relation on User is authoritative. Edges are written best-effort at
// signup for each ancestor within reach.
type NetworkEdge struct {
	Base
	ReferrerID  uuid.UUID `gorm:"type:uuid;index:idx_network_edges_referrer" json:"referrer_id"`
	MemberID    uuid.UUID `gorm:"type:uuid;index" json:"member_id"`
	DisplayName string    `json:"display_name"`
	Tier        string    `gorm:"type:varchar(20)" json:"tier"`
	Level       int       `gorm:"not null" json:"level"`
	MemberSince time.Time `json:"member_since"`
}

// Activity is a read-side note shown on a participant's dashboard.
// Writing one is a UI convenience, never part of the ledger's atomicity
// guarantee.
type Activity struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Type     string    `gorm:"type:varchar(50);not null" json:"type"`
	Message  string    `gorm:"type:text" json:"message"`
	MetaData JSON      `gorm:"type:jsonb" json:"metadata"`
}
