package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/models"
	"gorm.io/gorm"
)

// UserHandler handles account management
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetMe returns the caller's own account
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpgradeTierRequest represents the request body for a tier change
type UpgradeTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// UpgradeTier changes the caller's subscription tier. The new tier applies
// to future sales only: already-distributed commissions keep the levels
// they were gated at.
func (h *UserHandler) UpgradeTier(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpgradeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tier, ok := models.ParseTier(req.Tier)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tier"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("tier", tier).Error; err != nil {
			return err
		}
		return tx.Model(&models.Wallet{}).Where("user_id = ?", userID).Update("tier", tier).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tier":                 tier,
		"max_commission_level": tier.MaxCommissionLevel(),
	})
}

// SetParticipantStatusRequest represents an admin enable/disable request
type SetParticipantStatusRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// SetParticipantStatus disables or re-enables a participant. Disabled
// participants are skipped in future distributions; balances they already
// hold are untouched.
func (h *UserHandler) SetParticipantStatus(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant id"})
		return
	}

	var req SetParticipantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.db.Model(&models.User{}).Where("id = ?", participantID).Update("disabled", *req.Disabled)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update participant"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": participantID, "disabled": *req.Disabled})
}
