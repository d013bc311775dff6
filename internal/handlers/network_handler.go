package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/services/commission"
	"github.com/tierpay/backend/internal/services/network"
	"gorm.io/gorm"
)

// NetworkHandler serves the downline, upline and dashboard views. Viewing
// any of them settles the viewer's matured commissions as a side effect;
// there is no background sweep.
type NetworkHandler struct {
	db       *gorm.DB
	builder  *network.DownlineBuilder
	walker   *network.UplineWalker
	ledger   *commission.Ledger
	maxLevel int
}

// NewNetworkHandler creates a new network handler
func NewNetworkHandler(db *gorm.DB, ledger *commission.Ledger, maxLevel int) *NetworkHandler {
	return &NetworkHandler{
		db:       db,
		builder:  network.NewDownlineBuilder(db),
		walker:   network.NewUplineWalker(db),
		ledger:   ledger,
		maxLevel: maxLevel,
	}
}

// GetNetwork returns the caller's downline tree with per-level counts
func (h *NetworkHandler) GetNetwork(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	h.settle(c, userID)

	downline, err := h.builder.BuildDownline(c.Request.Context(), userID, h.maxLevel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build network view"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members":      downline.Members,
		"level_counts": downline.LevelCounts,
	})
}

// GetUpline returns the caller's direct referrer, if any
func (h *NetworkHandler) GetUpline(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	upline, err := h.walker.GetImmediateUpline(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load upline"})
		return
	}

	if upline == nil {
		c.JSON(http.StatusOK, gin.H{"referrer": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrer": upline})
}

// settle runs the lazy hold-release pass for the viewer
func (h *NetworkHandler) settle(c *gin.Context, userID uuid.UUID) {
	result, err := h.ledger.SettlePending(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Failed to settle pending commissions for %s: %v", userID, err)
		return
	}
	if result.Released > 0 {
		log.Printf("Released %d commissions (%.2f) for user %s", result.Released, result.Amount, userID)
	}
}

// currentUserID extracts the authenticated user id set by the auth middleware
func currentUserID(c *gin.Context) uuid.UUID {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
