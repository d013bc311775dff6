package network

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/models"
	"gorm.io/gorm"
)

// inQueryBatchSize caps the number of ids per membership query. Batches are
// unioned sequentially so total work stays proportional to the tree size.
const inQueryBatchSize = 30

// DownlineMember is one recruit in a participant's downline
type DownlineMember struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Tier        string    `json:"tier"`
	Level       int       `json:"level"`
	Earnings    float64   `json:"earnings"`
}

// Downline is a flat, level-ordered view of a participant's recruits
type Downline struct {
	Members     []DownlineMember `json:"members"`
	LevelCounts map[int]int      `json:"level_counts"`
}

// DownlineBuilder expands the referrer relation breadth-first
type DownlineBuilder struct {
	db *gorm.DB
}

// NewDownlineBuilder creates a new downline builder
func NewDownlineBuilder(db *gorm.DB) *DownlineBuilder {
	return &DownlineBuilder{db: db}
}

// BuildDownline expands rootID's recruits level by level up to maxLevel,
// terminating early on the first empty level
func (b *DownlineBuilder) BuildDownline(ctx context.Context, rootID uuid.UUID, maxLevel int) (*Downline, error) {
	if maxLevel <= 0 {
		maxLevel = DefaultMaxLevel
	}

	result := &Downline{
		Members:     []DownlineMember{},
		LevelCounts: make(map[int]int),
	}

	frontier := []uuid.UUID{rootID}
	for level := 1; level <= maxLevel; level++ {
		recruits, err := b.fetchRecruits(ctx, frontier)
		if err != nil {
			return nil, err
		}
		if len(recruits) == 0 {
			break
		}

		frontier = frontier[:0]
		for _, u := range recruits {
			frontier = append(frontier, u.ID)
		}

		earnings, err := b.fetchEarnings(ctx, frontier)
		if err != nil {
			return nil, err
		}

		for _, u := range recruits {
			result.Members = append(result.Members, DownlineMember{
				ID:          u.ID,
				DisplayName: u.DisplayName,
				Tier:        u.Tier.Label(),
				Level:       level,
				Earnings:    earnings[u.ID],
			})
		}
		result.LevelCounts[level] = len(recruits)
	}

	return result, nil
}

// fetchEarnings maps each member id to its wallet's lifetime earnings,
// batched the same way as the recruit queries
func (b *DownlineBuilder) fetchEarnings(ctx context.Context, members []uuid.UUID) (map[uuid.UUID]float64, error) {
	earnings := make(map[uuid.UUID]float64, len(members))
	for start := 0; start < len(members); start += inQueryBatchSize {
		end := start + inQueryBatchSize
		if end > len(members) {
			end = len(members)
		}

		var wallets []models.Wallet
		err := b.db.WithContext(ctx).
			Select("user_id", "total_earned").
			Where("user_id IN ?", members[start:end]).
			Find(&wallets).Error
		if err != nil {
			return nil, fmt.Errorf("error fetching wallet totals: %w", err)
		}
		for _, w := range wallets {
			earnings[w.UserID] = w.TotalEarned
		}
	}
	return earnings, nil
}

// fetchRecruits loads all users whose referrer is in the given id set,
// querying in batches of inQueryBatchSize
func (b *DownlineBuilder) fetchRecruits(ctx context.Context, parents []uuid.UUID) ([]models.User, error) {
	var recruits []models.User
	for start := 0; start < len(parents); start += inQueryBatchSize {
		end := start + inQueryBatchSize
		if end > len(parents) {
			end = len(parents)
		}

		var batch []models.User
		err := b.db.WithContext(ctx).
			Where("referred_by IN ?", parents[start:end]).
			Order("created_at ASC").
			Find(&batch).Error
		if err != nil {
			return nil, fmt.Errorf("error fetching recruits: %w", err)
		}
		recruits = append(recruits, batch...)
	}
	return recruits, nil
}

// RecordEdges writes denormalized recruit rows for each of the new
// member's ancestors. The edge table is a read cache; failures here must
// not fail signup.
func RecordEdges(ctx context.Context, db *gorm.DB, member *models.User, upline []ChainEntry) error {
	for _, entry := range upline {
		edge := models.NetworkEdge{
			ReferrerID:  entry.User.ID,
			MemberID:    member.ID,
			DisplayName: member.DisplayName,
			Tier:        string(member.Tier),
			Level:       entry.Level,
			MemberSince: member.CreatedAt,
		}
		if err := db.WithContext(ctx).Create(&edge).Error; err != nil {
			return fmt.Errorf("error recording network edge: %w", err)
		}
	}
	return nil
}
