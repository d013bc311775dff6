package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/models"
	"gorm.io/gorm"
)

// SettlementResult summarizes one lazy settlement pass
type SettlementResult struct {
	Released int     `json:"released"`
	Amount   float64 `json:"amount"`
}

// SettlePending promotes a participant's matured commissions from pending
// to available balance. Entries whose hold window has elapsed flip to
// approved and their summed amount moves pending -> available in the same
// transaction.
//
// Settlement is reader-triggered only: it runs when a dashboard or network
// view is requested, never from a background sweep. A participant who
// never revisits the product keeps matured funds in pending until the next
// read; the amounts stay consistent, just visibly stale.
func (l *Ledger) SettlePending(ctx context.Context, participantID uuid.UUID) (*SettlementResult, error) {
	now := time.Now()

	var matured []models.CommissionEntry
	err := l.db.WithContext(ctx).
		Where("beneficiary_id = ? AND status = ? AND hold_release_at <= ?",
			participantID, models.CommissionStatusPending, now).
		Find(&matured).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query pending commissions: %w", err)
	}

	if len(matured) == 0 {
		return &SettlementResult{}, nil
	}

	var total float64
	ids := make([]uuid.UUID, 0, len(matured))
	for _, entry := range matured {
		total += entry.Amount
		ids = append(ids, entry.ID)
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guard the status in the WHERE clause so a concurrent settlement
		// of the same participant cannot release an entry twice.
		res := tx.Model(&models.CommissionEntry{}).
			Where("id IN ? AND status = ?", ids, models.CommissionStatusPending).
			Updates(map[string]interface{}{
				"status":      models.CommissionStatusApproved,
				"released_at": now,
				"updated_at":  now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to approve commissions: %w", res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return gorm.ErrInvalidTransaction
		}

		balRes := tx.Model(&models.Wallet{}).
			Where("user_id = ?", participantID).
			Updates(map[string]interface{}{
				"pending":    gorm.Expr("pending - ?", total),
				"available":  gorm.Expr("available + ?", total),
				"updated_at": now,
			})
		if balRes.Error != nil {
			return fmt.Errorf("failed to release balance: %w", balRes.Error)
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrInvalidTransaction {
			// Lost the race to another reader; their pass did the work
			return &SettlementResult{}, nil
		}
		return nil, err
	}

	return &SettlementResult{Released: len(matured), Amount: total}, nil
}
