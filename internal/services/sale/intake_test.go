package sale

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/database"
	"github.com/tierpay/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() config.CommissionConfig {
	return config.CommissionConfig{
		LevelPercents:      []float64{50, 20, 10, 5},
		MaxDepth:           4,
		HoldWindowDays:     14,
		SettlementCurrency: models.CurrencyUSD,
		SourceCurrency:     models.CurrencyNGN,
		ExchangeRate:       0.0012,
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newUser(t *testing.T, db *gorm.DB, name, code string, tier models.Tier, referrer *models.User) *models.User {
	t.Helper()
	user := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		Password:     "secret",
		DisplayName:  name,
		Tier:         tier,
		ReferralCode: code,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// The sale is attributed to the code owner's upline: the owner's own
// referrer collects level 1.
func TestRecordSaleCreditsCodeOwnersUpline(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	elite := newUser(t, db, "elite", "REFAAAA2222", models.TierElite, nil)
	pro := newUser(t, db, "pro", "REFBBBB3333", models.TierPro, elite)
	newUser(t, db, "basic", "REFQWERTY23", models.TierBasic, pro)

	outcome, err := intake.RecordSale(context.Background(), Input{
		Reference:    "PAY_001",
		BuyerRef:     "buyer@example.com",
		GrossAmount:  100,
		Currency:     models.CurrencyUSD,
		ReferralCode: "REFQWERTY23",
	})
	require.NoError(t, err)
	require.False(t, outcome.Duplicate)
	require.NotNil(t, outcome.Sale.ReferrerID)
	assert.Equal(t, pro.ID, *outcome.Sale.ReferrerID)

	var entries []models.CommissionEntry
	require.NoError(t, db.Order("level ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, pro.ID, entries[0].BeneficiaryID)
	assert.Equal(t, 50.0, entries[0].Amount)
	assert.Equal(t, elite.ID, entries[1].BeneficiaryID)
	assert.Equal(t, 20.0, entries[1].Amount)
}

// Replayed provider deliveries with the same reference record exactly one
// sale and credit balances exactly once.
func TestRecordSaleDuplicateReference(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	anchor := newUser(t, db, "anchor", "REFAAAA2222", models.TierElite, nil)
	newUser(t, db, "seller", "REFQWERTY23", models.TierBasic, anchor)

	input := Input{
		Reference:    "PAY_DUP",
		BuyerRef:     "buyer@example.com",
		GrossAmount:  100,
		Currency:     models.CurrencyUSD,
		ReferralCode: "REFQWERTY23",
	}

	first, err := intake.RecordSale(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := intake.RecordSale(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)

	var saleCount, entryCount int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&saleCount).Error)
	require.NoError(t, db.Model(&models.CommissionEntry{}).Count(&entryCount).Error)
	assert.Equal(t, int64(1), saleCount)
	assert.Equal(t, int64(1), entryCount)

	var wallet models.Wallet
	require.NoError(t, db.Where("user_id = ?", anchor.ID).First(&wallet).Error)
	assert.Equal(t, 50.0, wallet.Pending)
}

// Malformed or unknown codes do not fail the sale; it is simply recorded
// without attribution.
func TestRecordSaleInvalidReferralCode(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	for _, code := range []string{"not-a-code", "REFOOOOOOOO", "REFZZZZ9999", ""} {
		outcome, err := intake.RecordSale(context.Background(), Input{
			Reference:    "PAY_" + code,
			BuyerRef:     "buyer@example.com",
			GrossAmount:  50,
			Currency:     models.CurrencyUSD,
			ReferralCode: code,
		})
		require.NoError(t, err)
		assert.Nil(t, outcome.Sale.ReferrerID)
	}

	var entryCount int64
	require.NoError(t, db.Model(&models.CommissionEntry{}).Count(&entryCount).Error)
	assert.Equal(t, int64(0), entryCount)
}

// A code owner with no referrer of their own yields an unattributed sale.
func TestRecordSaleRootOwnerCode(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	newUser(t, db, "founder", "REFQWERTY23", models.TierElite, nil)

	outcome, err := intake.RecordSale(context.Background(), Input{
		Reference:    "PAY_ROOT",
		GrossAmount:  100,
		Currency:     models.CurrencyUSD,
		ReferralCode: "REFQWERTY23",
	})
	require.NoError(t, err)
	assert.Nil(t, outcome.Sale.ReferrerID)
}

func TestRecordSaleConvertsSourceCurrency(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	outcome, err := intake.RecordSale(context.Background(), Input{
		Reference:   "PAY_FX",
		GrossAmount: 100000,
		Currency:    models.CurrencyNGN,
	})
	require.NoError(t, err)
	assert.Equal(t, 100000.0, outcome.Sale.GrossAmount)
	assert.Equal(t, models.CurrencyNGN, outcome.Sale.GrossCurrency)
	assert.Equal(t, 120.0, outcome.Sale.Amount)
	assert.Equal(t, models.CurrencyUSD, outcome.Sale.Currency)
}

func TestRecordSaleUnknownCurrency(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	_, err := intake.RecordSale(context.Background(), Input{
		Reference:   "PAY_BAD_CCY",
		GrossAmount: 100,
		Currency:    models.Currency("XXX"),
	})
	require.Error(t, err)

	var saleCount int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&saleCount).Error)
	assert.Equal(t, int64(0), saleCount)
}

func TestRecordSaleRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	_, err := intake.RecordSale(context.Background(), Input{
		Reference:   "PAY_ZERO",
		GrossAmount: 0,
		Currency:    models.CurrencyUSD,
	})
	require.Error(t, err)
}

func TestRecordSaleGeneratesReference(t *testing.T) {
	db := setupTestDB(t)
	intake := NewIntake(db, nil, testConfig())

	outcome, err := intake.RecordSale(context.Background(), Input{
		GrossAmount: 25,
		Currency:    models.CurrencyUSD,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Sale.Reference)
	assert.Contains(t, outcome.Sale.Reference, "SALE_")
}
