package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/tierpay/backend/internal/models"
	"gorm.io/gorm"
)

const (
	// CodePrefix tags every referral code issued by this system
	CodePrefix = "REF"
	// codeLength is the number of random characters after the prefix
	codeLength = 8
	// codeCharset excludes visually ambiguous characters (0/O, 1/I/L)
	codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	// maxGenerateAttempts bounds the collision-check retry loop
	maxGenerateAttempts = 5
)

// ErrCodeNotFound is returned when a referral code has no owner
var ErrCodeNotFound = errors.New("referral code not found")

// ErrCodeExhausted is returned when code generation keeps colliding
var ErrCodeExhausted = errors.New("could not generate a unique referral code")

// Directory maps referral codes to participants and issues new codes
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a new referral directory
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// GenerateCode produces a fresh referral code. Each candidate is checked
// against the unique code index before being handed out, with a bounded
// number of retries on collision.
func (d *Directory) GenerateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := randomCode()

		var count int64
		if err := d.db.WithContext(ctx).Model(&models.User{}).
			Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("error checking referral code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

// Validate performs a syntactic check only: prefix, minimum length and
// allowed character set. It does not guarantee the code exists.
func (d *Directory) Validate(code string) bool {
	code = Normalize(code)
	if !strings.HasPrefix(code, CodePrefix) {
		return false
	}
	body := code[len(CodePrefix):]
	if len(body) < codeLength {
		return false
	}
	for _, c := range body {
		if !strings.ContainsRune(codeCharset, c) {
			return false
		}
	}
	return true
}

// Lookup resolves a referral code to its owning participant. Returns
// ErrCodeNotFound when no participant owns the code.
func (d *Directory) Lookup(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("referral_code = ?", Normalize(code)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("error looking up referral code: %w", err)
	}
	return &user, nil
}

// Normalize upper-cases and trims a referral code for comparison
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// randomCode draws codeLength characters from the restricted alphabet
func randomCode() string {
	result := make([]byte, codeLength)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		result[i] = codeCharset[n.Int64()]
	}
	return CodePrefix + string(result)
}
