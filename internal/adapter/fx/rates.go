// Package fx holds the last-known exchange rates used to convert transfer legs.
package fx

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// RateTable converts amounts through a base currency using the last-known
// rates. Rates are expressed as units of a currency per one unit of base.
// It is safe for concurrent use.
type RateTable struct {
	mu    sync.RWMutex
	base  string
	rates map[string]decimal.Decimal
}

// NewRateTable creates a RateTable. Non-positive rates are ignored.
func NewRateTable(base string, rates map[string]decimal.Decimal) *RateTable {
	t := &RateTable{
		base:  domain.NormalizeCurrency(base),
		rates: make(map[string]decimal.Decimal),
	}
	t.Replace(rates)
	return t
}

// Base returns the base currency code
func (t *RateTable) Base() string {
	return t.base
}

// Convert converts amount from one currency to another.
// The amount is returned unchanged when the currencies are equal or either rate is unknown.
func (t *RateTable) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	from = domain.NormalizeCurrency(from)
	to = domain.NormalizeCurrency(to)
	if from == to {
		return amount
	}

	t.mu.RLock()
	fromRate, fromOK := t.rate(from)
	toRate, toOK := t.rate(to)
	t.mu.RUnlock()

	if !fromOK || !toOK {
		return amount
	}
	return amount.Div(fromRate).Mul(toRate)
}

// Replace swaps the whole rate set for rates, so currencies missing from
// rates become unknown. Non-positive rates are ignored.
func (t *RateTable) Replace(rates map[string]decimal.Decimal) {
	next := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		if !rate.IsPositive() {
			continue
		}
		next[domain.NormalizeCurrency(code)] = rate
	}

	t.mu.Lock()
	t.rates = next
	t.mu.Unlock()
}

// Rates returns a copy of the known rates, excluding the base currency
func (t *RateTable) Rates() map[string]decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(t.rates))
	for code, rate := range t.rates {
		out[code] = rate
	}
	return out
}

// rate must be called with t.mu held
func (t *RateTable) rate(code string) (decimal.Decimal, bool) {
	if code == t.base {
		return decimal.NewFromInt(1), true
	}
	rate, ok := t.rates[code]
	return rate, ok
}

// ParseRates parses a rate list such as "EUR=0.92,JPY=150"
func ParseRates(raw string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid rate %q: expected CODE=RATE", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("invalid rate for %s: must be positive", code)
		}
		rates[domain.NormalizeCurrency(code)] = rate
	}
	return rates, nil
}
