package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/database"
	"github.com/tierpay/backend/internal/models"
	"github.com/tierpay/backend/internal/services/sale"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.CommissionConfig{
		LevelPercents:      []float64{50, 20, 10, 5},
		MaxDepth:           4,
		HoldWindowDays:     14,
		SettlementCurrency: models.CurrencyUSD,
		SourceCurrency:     models.CurrencyUSD,
		ExchangeRate:       1,
	}

	handler := NewWebhookHandler(sale.NewIntake(db, nil, cfg), "test-webhook-key")
	router := gin.New()
	router.POST("/webhooks/payment", handler.PaymentWebhook)
	return router, db
}

func postWebhook(router *gin.Engine, apiKey string, payload map[string]interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPaymentWebhookRequiresAPIKey(t *testing.T) {
	router, _ := setupWebhookRouter(t)

	w := postWebhook(router, "", map[string]interface{}{"reference": "PAY_1", "amount": 10, "currency": "USD"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postWebhook(router, "wrong-key", map[string]interface{}{"reference": "PAY_1", "amount": 10, "currency": "USD"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentWebhookRecordsSale(t *testing.T) {
	router, db := setupWebhookRouter(t)

	w := postWebhook(router, "test-webhook-key", map[string]interface{}{
		"reference": "PAY_OK",
		"buyer_ref": "buyer@example.com",
		"amount":    100,
		"currency":  "USD",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "recorded", resp["status"])

	var count int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaymentWebhookDuplicateDelivery(t *testing.T) {
	router, db := setupWebhookRouter(t)

	payload := map[string]interface{}{
		"reference": "PAY_RETRY",
		"amount":    100,
		"currency":  "USD",
	}

	first := postWebhook(router, "test-webhook-key", payload)
	require.Equal(t, http.StatusOK, first.Code)

	second := postWebhook(router, "test-webhook-key", payload)
	require.Equal(t, http.StatusOK, second.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate", resp["status"])

	var count int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaymentWebhookRejectsBadPayload(t *testing.T) {
	router, _ := setupWebhookRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader([]byte("{not json")))
	req.Header.Set("X-API-Key", "test-webhook-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
