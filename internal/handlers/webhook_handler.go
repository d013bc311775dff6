package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tierpay/backend/internal/models"
	"github.com/tierpay/backend/internal/services/sale"
)

// WebhookHandler handles purchase notifications from the payment provider.
// Signature verification happens upstream at the provider; this endpoint
// authenticates deliveries with a shared API key.
type WebhookHandler struct {
	intake *sale.Intake
	apiKey string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(intake *sale.Intake, apiKey string) *WebhookHandler {
	return &WebhookHandler{intake: intake, apiKey: apiKey}
}

// PaymentWebhook records a paid sale and triggers commission distribution.
// Deliveries are idempotent on the reference: a retried webhook returns the
// stored outcome without crediting anyone twice.
func (h *WebhookHandler) PaymentWebhook(c *gin.Context) {
	apiKey := c.GetHeader("X-API-Key")
	if apiKey == "" || (h.apiKey != "" && apiKey != h.apiKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var payload struct {
		Reference    string  `json:"reference"`
		BuyerRef     string  `json:"buyer_ref"`
		Amount       float64 `json:"amount"`
		Currency     string  `json:"currency"`
		ReferralCode string  `json:"referral_code"`
	}

	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	log.Printf("Received payment webhook for reference: %s", payload.Reference)

	outcome, err := h.intake.RecordSale(c.Request.Context(), sale.Input{
		Reference:    payload.Reference,
		BuyerRef:     payload.BuyerRef,
		GrossAmount:  payload.Amount,
		Currency:     models.Currency(payload.Currency),
		ReferralCode: payload.ReferralCode,
	})
	if err != nil {
		if errors.Is(err, sale.ErrInFlight) {
			// Concurrent duplicate delivery; the provider will retry
			c.JSON(http.StatusConflict, gin.H{"error": "Sale is being processed"})
			return
		}
		log.Printf("Failed to record sale %s: %v", payload.Reference, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record sale"})
		return
	}

	status := "recorded"
	if outcome.Duplicate {
		status = "duplicate"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"sale_id": outcome.Sale.ID,
	})
}
