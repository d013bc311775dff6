package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/models"
	"gorm.io/gorm"
)

// DefaultMaxLevel is the deepest chain level traversals reach
const DefaultMaxLevel = 4

// ChainEntry is one ancestor in a participant's upline, level 1 being the
// direct referrer
type ChainEntry struct {
	Level int
	User  models.User
}

// UplineWalker follows the referrer relation upward
type UplineWalker struct {
	db *gorm.DB
}

// NewUplineWalker creates a new upline walker
func NewUplineWalker(db *gorm.DB) *UplineWalker {
	return &UplineWalker{db: db}
}

// GetImmediateUpline returns the public summary of a participant's direct
// referrer, or nil if the participant has none
func (w *UplineWalker) GetImmediateUpline(ctx context.Context, id uuid.UUID) (*models.PublicSummary, error) {
	chain, err := w.WalkUplineChain(ctx, id, 1)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, nil
	}
	summary := chain[0].User.Summary()
	return &summary, nil
}

// WalkUplineChain walks the referrer chain upward starting from the direct
// referrer of startID (level 1) through maxLevel hops, or until a
// participant with no referrer is reached. A missing referrer document
// truncates the walk; it is not an error.
func (w *UplineWalker) WalkUplineChain(ctx context.Context, startID uuid.UUID, maxLevel int) ([]ChainEntry, error) {
	if maxLevel <= 0 {
		maxLevel = DefaultMaxLevel
	}

	var start models.User
	if err := w.db.WithContext(ctx).First(&start, "id = ?", startID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading participant: %w", err)
	}

	chain := make([]ChainEntry, 0, maxLevel)
	next := start.ReferredBy
	for level := 1; level <= maxLevel && next != nil; level++ {
		var ancestor models.User
		err := w.db.WithContext(ctx).First(&ancestor, "id = ?", *next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, fmt.Errorf("error walking upline at level %d: %w", level, err)
		}

		chain = append(chain, ChainEntry{Level: level, User: ancestor})
		next = ancestor.ReferredBy
	}

	return chain, nil
}

// ChainFrom returns the beneficiary chain for a sale attributed to the
// given referrer: the referrer itself at level 1 followed by its own
// upline shifted one level down, up to maxLevel entries.
func (w *UplineWalker) ChainFrom(ctx context.Context, referrerID uuid.UUID, maxLevel int) ([]ChainEntry, error) {
	if maxLevel <= 0 {
		maxLevel = DefaultMaxLevel
	}

	var referrer models.User
	if err := w.db.WithContext(ctx).First(&referrer, "id = ?", referrerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading referrer: %w", err)
	}

	chain := []ChainEntry{{Level: 1, User: referrer}}
	upline, err := w.WalkUplineChain(ctx, referrerID, maxLevel-1)
	if err != nil {
		return nil, err
	}
	for _, entry := range upline {
		chain = append(chain, ChainEntry{Level: entry.Level + 1, User: entry.User})
	}
	return chain, nil
}
