package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate represents one observed rate in the exchange rate history
// UnitsPerBase is how many units of Currency buy one unit of the base currency
type ExchangeRate struct {
	ID           uuid.UUID
	Currency     string
	Date         time.Time
	UnitsPerBase decimal.Decimal
}
