package commission

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/models"
	"github.com/tierpay/backend/internal/services/network"
	"gorm.io/gorm"
)

// Ledger computes and persists multi-level commissions for paid sales
type Ledger struct {
	db     *gorm.DB
	walker *network.UplineWalker
	cfg    config.CommissionConfig
}

// NewLedger creates a new commission ledger
func NewLedger(db *gorm.DB, cfg config.CommissionConfig) *Ledger {
	return &Ledger{
		db:     db,
		walker: network.NewUplineWalker(db),
		cfg:    cfg,
	}
}

// Allocation is one beneficiary's staged share of a sale
type Allocation struct {
	Beneficiary models.User
	Level       int
	Percent     float64
	Amount      float64
}

// DistributeSale persists the sale and distributes commissions up the
// referrer chain. The sale row, every commission entry and every balance
// increment commit as a single transaction: either the sale is recorded
// with its full distribution or nothing is written.
func (l *Ledger) DistributeSale(ctx context.Context, sale *models.Sale) error {
	now := time.Now()
	sale.Status = models.SaleStatusPaid
	sale.HoldReleaseAt = now.Add(time.Duration(l.cfg.HoldWindowDays) * 24 * time.Hour)

	var allocations []Allocation
	if sale.ReferrerID != nil {
		chain, err := l.walker.ChainFrom(ctx, *sale.ReferrerID, l.cfg.MaxDepth)
		if err != nil {
			return fmt.Errorf("failed to resolve beneficiary chain: %w", err)
		}
		allocations = l.PlanAllocations(sale.Amount, chain)
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		for _, alloc := range allocations {
			entry := models.CommissionEntry{
				SaleID:        sale.ID,
				BeneficiaryID: alloc.Beneficiary.ID,
				Level:         alloc.Level,
				Percent:       alloc.Percent,
				Amount:        alloc.Amount,
				Currency:      sale.Currency,
				Status:        models.CommissionStatusPending,
				HoldReleaseAt: sale.HoldReleaseAt,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to create commission entry: %w", err)
			}

			if err := creditPending(tx, alloc.Beneficiary, sale.Currency, alloc.Amount); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Read-side note for the direct referrer. A UI convenience, not a
	// ledger fact: failure here never unwinds the distribution.
	if len(allocations) > 0 && allocations[0].Level == 1 {
		l.recordActivity(ctx, sale, allocations[0])
	}

	return nil
}

// PlanAllocations computes the per-level shares for a sale amount against
// a beneficiary chain. A beneficiary whose own tier caps out above its
// chain level is skipped entirely; the tiers of participants between the
// buyer and the beneficiary play no part.
func (l *Ledger) PlanAllocations(amount float64, chain []network.ChainEntry) []Allocation {
	var allocations []Allocation
	for _, entry := range chain {
		if entry.User.Disabled {
			continue
		}
		if entry.Level > entry.User.Tier.MaxCommissionLevel() {
			continue
		}

		percent := l.levelPercent(entry.Level)
		if percent <= 0 {
			continue
		}

		// Rounded per level, not once on the total. The distributed sum may
		// differ from the unrounded shares by one cent per level.
		share := Round2(amount * percent / 100)
		if share <= 0 {
			continue
		}

		allocations = append(allocations, Allocation{
			Beneficiary: entry.User,
			Level:       entry.Level,
			Percent:     percent,
			Amount:      share,
		})
	}
	return allocations
}

// levelPercent returns the configured share for a chain level, zero when
// the level is beyond the table
func (l *Ledger) levelPercent(level int) float64 {
	if level < 1 || level > len(l.cfg.LevelPercents) {
		return 0
	}
	return l.cfg.LevelPercents[level-1]
}

// creditPending applies the additive increment for a staged commission.
// Increments go through the store's expression arithmetic so concurrent
// sales crediting the same beneficiary never lose updates.
func creditPending(tx *gorm.DB, beneficiary models.User, currency models.Currency, amount float64) error {
	res := tx.Model(&models.Wallet{}).
		Where("user_id = ?", beneficiary.ID).
		Updates(map[string]interface{}{
			"total_earned": gorm.Expr("total_earned + ?", amount),
			"pending":      gorm.Expr("pending + ?", amount),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to credit wallet: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No wallet yet for this beneficiary
	wallet := models.Wallet{
		UserID:      beneficiary.ID,
		Currency:    currency,
		TotalEarned: amount,
		Pending:     amount,
		Tier:        beneficiary.Tier,
	}
	if err := tx.Create(&wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// recordActivity appends a dashboard note for the direct referrer
func (l *Ledger) recordActivity(ctx context.Context, sale *models.Sale, direct Allocation) {
	activity := models.Activity{
		UserID:  direct.Beneficiary.ID,
		Type:    "commission_earned",
		Message: fmt.Sprintf("You earned %.2f %s from a referred sale", direct.Amount, sale.Currency),
		MetaData: models.JSON{
			"sale_id": sale.ID.String(),
			"level":   direct.Level,
			"amount":  direct.Amount,
		},
	}
	if err := l.db.WithContext(ctx).Create(&activity).Error; err != nil {
		log.Printf("Failed to record activity for user %s: %v", direct.Beneficiary.ID, err)
	}
}

// Round2 rounds half-up to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
