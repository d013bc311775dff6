package exchange

import (
	"fmt"

	"github.com/tierpay/backend/internal/config"
	"github.com/tierpay/backend/internal/models"
)

// Service converts gross sale amounts into the settlement currency using
// the statically configured rate
type Service struct {
	cfg config.CommissionConfig
}

// NewService creates a new exchange service
func NewService(cfg config.CommissionConfig) *Service {
	return &Service{cfg: cfg}
}

// Convert converts an amount from the given currency into the settlement
// currency. Amounts already in the settlement currency pass through.
func (s *Service) Convert(amount float64, from models.Currency) (float64, error) {
	if from == s.cfg.SettlementCurrency {
		return amount, nil
	}
	if from != s.cfg.SourceCurrency {
		return 0, fmt.Errorf("no exchange rate configured for currency %s", from)
	}
	return amount * s.cfg.ExchangeRate, nil
}

// SettlementCurrency returns the currency commissions are paid in
func (s *Service) SettlementCurrency() models.Currency {
	return s.cfg.SettlementCurrency
}
