package sale

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/models"
	"github.com/tierpay/backend/internal/services/commission"
	"github.com/tierpay/backend/internal/services/exchange"
	"github.com/tierpay/backend/internal/services/referral"
	"github.com/tierpay/backend/internal/utils"
	"gorm.io/gorm"
)

// opTimeout bounds every store round trip triggered by one intake call
const opTimeout = 10 * time.Second

// inflightTTL is how long the best-effort duplicate guard holds a reference
const inflightTTL = time.Minute

// ErrInFlight is returned when the same reference is being processed by a
// concurrent delivery. Safe to retry: the idempotency key guarantees the
// retry replays the stored outcome.
var ErrInFlight = errors.New("sale is already being processed")

// Input is one purchase notification from the payment provider
type Input struct {
	Reference    string
	BuyerRef     string
	GrossAmount  float64
	Currency     models.Currency
	ReferralCode string
}

// Outcome reports the recorded sale and whether this call created it
type Outcome struct {
	Sale      *models.Sale
	Duplicate bool
}

// Intake deduplicates purchase notifications and hands them to the ledger
type Intake struct {
	db        *gorm.DB
	redis     *redis.Client
	ledger    *commission.Ledger
	directory *referral.Directory
	exchange  *exchange.Service
}

// NewIntake creates a new sale intake. The redis client is optional; when
// nil the database unique index alone handles duplicate deliveries.
func NewIntake(db *gorm.DB, redisClient *redis.Client, cfg config.CommissionConfig) *Intake {
	return &Intake{
		db:        db,
		redis:     redisClient,
		ledger:    commission.NewLedger(db, cfg),
		directory: referral.NewDirectory(db),
		exchange:  exchange.NewService(cfg),
	}
}

// Ledger exposes the underlying commission ledger for read-side callers
func (s *Intake) Ledger() *commission.Ledger {
	return s.ledger
}

// RecordSale records a purchase event exactly once per reference. A repeat
// delivery returns the stored outcome without re-running distribution.
func (s *Intake) RecordSale(ctx context.Context, input Input) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if input.GrossAmount <= 0 {
		return nil, fmt.Errorf("invalid sale amount: %.2f", input.GrossAmount)
	}

	reference := input.Reference
	if reference == "" {
		reference = utils.GenerateReference("SALE")
	}

	if existing, err := s.findExisting(ctx, reference); err != nil {
		return nil, err
	} else if existing != nil {
		return &Outcome{Sale: existing, Duplicate: true}, nil
	}

	release, err := s.acquireInflight(ctx, reference)
	if err != nil {
		// Another delivery holds the reference. Re-check before giving up:
		// it may have finished already.
		if existing, lookupErr := s.findExisting(ctx, reference); lookupErr == nil && existing != nil {
			return &Outcome{Sale: existing, Duplicate: true}, nil
		}
		return nil, err
	}
	defer release()

	referrerID := s.resolveReferrer(ctx, input.ReferralCode)

	amount, err := s.exchange.Convert(input.GrossAmount, input.Currency)
	if err != nil {
		return nil, err
	}

	record := &models.Sale{
		Reference:     reference,
		BuyerRef:      input.BuyerRef,
		GrossAmount:   input.GrossAmount,
		GrossCurrency: input.Currency,
		Amount:        commission.Round2(amount),
		Currency:      s.exchange.SettlementCurrency(),
		ReferrerID:    referrerID,
	}

	if err := s.ledger.DistributeSale(ctx, record); err != nil {
		// A concurrent delivery may have won the unique index race; the
		// stored sale is the authoritative outcome either way.
		if existing, lookupErr := s.findExisting(ctx, reference); lookupErr == nil && existing != nil {
			return &Outcome{Sale: existing, Duplicate: true}, nil
		}
		return nil, err
	}

	return &Outcome{Sale: record}, nil
}

// findExisting returns the stored sale for a reference, if any
func (s *Intake) findExisting(ctx context.Context, reference string) (*models.Sale, error) {
	var existing models.Sale
	err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to check existing sale: %w", err)
}

// acquireInflight takes the best-effort duplicate guard for a reference.
// Redis being down degrades to the unique index alone, it never blocks
// intake.
func (s *Intake) acquireInflight(ctx context.Context, reference string) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	key := "sale:inflight:" + reference
	ok, err := s.redis.SetNX(ctx, key, 1, inflightTTL).Result()
	if err != nil {
		log.Printf("Inflight guard unavailable for %s: %v", reference, err)
		return func() {}, nil
	}
	if !ok {
		return nil, ErrInFlight
	}
	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			log.Printf("Failed to release inflight guard for %s: %v", reference, err)
		}
	}, nil
}

// resolveReferrer maps a sale's referral code to the beneficiary chain's
// root: the code owner's own referrer. The owner marks the buyer's place
// in the tree; their upline earns. Codes that fail the syntax check never
// touch the store; unknown codes and ownerless referrers resolve to no
// referrer. None of these are errors.
func (s *Intake) resolveReferrer(ctx context.Context, code string) *uuid.UUID {
	if code == "" || !s.directory.Validate(code) {
		return nil
	}

	owner, err := s.directory.Lookup(ctx, code)
	if err != nil {
		if !errors.Is(err, referral.ErrCodeNotFound) {
			log.Printf("Referral lookup failed for code %s: %v", code, err)
		}
		return nil
	}
	return owner.ReferredBy
}
