package commission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierpay/backend/internal/models"
	"gorm.io/gorm"
)

func seedEntry(t *testing.T, db *gorm.DB, user *models.User, amount float64, releaseAt time.Time) *models.CommissionEntry {
	t.Helper()
	sale := newSale(nil, amount, "SALE_SEED_"+user.Username+releaseAt.String())
	require.NoError(t, db.Create(sale).Error)

	entry := &models.CommissionEntry{
		SaleID:        sale.ID,
		BeneficiaryID: user.ID,
		Level:         1,
		Percent:       50,
		Amount:        amount,
		Currency:      models.CurrencyUSD,
		Status:        models.CommissionStatusPending,
		HoldReleaseAt: releaseAt,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func seedWallet(t *testing.T, db *gorm.DB, user *models.User, pending float64) {
	t.Helper()
	wallet := &models.Wallet{
		UserID:      user.ID,
		Currency:    models.CurrencyUSD,
		TotalEarned: pending,
		Pending:     pending,
		Tier:        user.Tier,
	}
	require.NoError(t, db.Create(wallet).Error)
}

func TestSettlePendingReleasesMatured(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, testConfig())

	user := newUser(t, db, "earner", models.TierPro, nil)
	seedWallet(t, db, user, 70)
	matured := seedEntry(t, db, user, 50, time.Now().Add(-time.Hour))
	seedEntry(t, db, user, 20, time.Now().Add(24*time.Hour))

	result, err := ledger.SettlePending(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Released)
	assert.Equal(t, 50.0, result.Amount)

	wallet := loadWallet(t, db, user.ID)
	assert.Equal(t, 70.0, wallet.TotalEarned)
	assert.Equal(t, 20.0, wallet.Pending)
	assert.Equal(t, 50.0, wallet.Available)

	var reloaded models.CommissionEntry
	require.NoError(t, db.First(&reloaded, "id = ?", matured.ID).Error)
	assert.Equal(t, models.CommissionStatusApproved, reloaded.Status)
	assert.NotNil(t, reloaded.ReleasedAt)
}

func TestSettlePendingBeforeHoldExpiry(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, testConfig())

	user := newUser(t, db, "waiting", models.TierBasic, nil)
	seedWallet(t, db, user, 30)
	seedEntry(t, db, user, 30, time.Now().Add(time.Hour))

	result, err := ledger.SettlePending(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Released)

	wallet := loadWallet(t, db, user.ID)
	assert.Equal(t, 30.0, wallet.Pending)
	assert.Equal(t, 0.0, wallet.Available)
}

func TestSettlePendingIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, testConfig())

	user := newUser(t, db, "repeat", models.TierElite, nil)
	seedWallet(t, db, user, 40)
	seedEntry(t, db, user, 40, time.Now().Add(-time.Minute))

	first, err := ledger.SettlePending(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Released)

	second, err := ledger.SettlePending(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Released)
	assert.Equal(t, 0.0, second.Amount)

	wallet := loadWallet(t, db, user.ID)
	assert.Equal(t, 0.0, wallet.Pending)
	assert.Equal(t, 40.0, wallet.Available)
	assert.InDelta(t, wallet.TotalEarned, wallet.Pending+wallet.Available, 0.001)
}

func TestSettlePendingNoEntries(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, testConfig())

	user := newUser(t, db, "fresh", models.TierBasic, nil)

	result, err := ledger.SettlePending(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Released)
	assert.Equal(t, 0.0, result.Amount)
}
