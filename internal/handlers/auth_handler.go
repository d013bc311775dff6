package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/models"
	"github.com/tierpay/backend/internal/services/network"
	"github.com/tierpay/backend/internal/services/referral"
	"github.com/tierpay/backend/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles signup and login
type AuthHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	directory *referral.Directory
	walker    *network.UplineWalker
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:        db,
		cfg:       cfg,
		directory: referral.NewDirectory(db),
		walker:    network.NewUplineWalker(db),
	}
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	DisplayName  string `json:"display_name"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the response for token requests
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
	TokenType   string `json:"token_type"`
}

// Signup registers a participant. Referral attribution happens here and
// only here: the referrer resolved from the supplied code is fixed for the
// lifetime of the account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existingUser models.User
	if result := h.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existingUser); result.RowsAffected > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email or username already in use"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	code, err := h.directory.GenerateCode(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate referral code"})
		return
	}

	var referrerID *uuid.UUID
	if req.ReferralCode != "" && h.directory.Validate(req.ReferralCode) {
		referrer, err := h.directory.Lookup(c.Request.Context(), req.ReferralCode)
		if err == nil {
			referrerID = &referrer.ID
		} else if !errors.Is(err, referral.ErrCodeNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve referral code"})
			return
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		Password:     hashedPassword,
		DisplayName:  displayName,
		Tier:         models.TierBasic,
		ReferralCode: code,
		ReferredBy:   referrerID,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		wallet := models.Wallet{
			UserID:   user.ID,
			Currency: h.cfg.Commission.SettlementCurrency,
			Tier:     user.Tier,
		}
		return tx.Create(&wallet).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	// Network edges are a read cache; failing to write them never fails
	// signup.
	if referrerID != nil {
		chain, err := h.walker.ChainFrom(c.Request.Context(), *referrerID, network.DefaultMaxLevel)
		if err == nil {
			err = network.RecordEdges(c.Request.Context(), h.db, &user, chain)
		}
		if err != nil {
			log.Printf("Failed to record network edges for user %s: %v", user.ID, err)
		}
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin, time.Duration(h.cfg.JWT.Expiration)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": user,
		"token": TokenResponse{
			AccessToken: token,
			ExpiresIn:   int64(h.cfg.JWT.Expiration) * 3600,
			TokenType:   "Bearer",
		},
	})
}

// Login authenticates a participant and issues a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if user.Disabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login_at", now)

	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin, time.Duration(h.cfg.JWT.Expiration)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"token": TokenResponse{
			AccessToken: token,
			ExpiresIn:   int64(h.cfg.JWT.Expiration) * 3600,
			TokenType:   "Bearer",
		},
	})
}
