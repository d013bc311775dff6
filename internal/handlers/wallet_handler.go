package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/models"
	"github.com/tierpay/backend/internal/services/commission"
	"gorm.io/gorm"
)

// WalletHandler serves balance and activity views
type WalletHandler struct {
	db     *gorm.DB
	ledger *commission.Ledger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(db *gorm.DB, ledger *commission.Ledger) *WalletHandler {
	return &WalletHandler{db: db, ledger: ledger}
}

// GetWallet returns the caller's balance record. Matured pending
// commissions are settled first so the split the caller sees is current.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	settlement, err := h.ledger.SettlePending(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle commissions"})
		return
	}

	var wallet models.Wallet
	if err := h.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"wallet": nil, "released": settlement})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":   wallet,
		"released": settlement,
	})
}

// GetCommissions returns the caller's commission entries, newest first
func (h *WalletHandler) GetCommissions(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var entries []models.CommissionEntry
	err := h.db.Where("beneficiary_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&entries).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load commissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"commissions": entries})
}

// GetActivity returns the caller's recent dashboard notes
func (h *WalletHandler) GetActivity(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var activities []models.Activity
	err := h.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&activities).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": activities})
}
