package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// rateRepository implements domain.RateRepository
type rateRepository struct {
	db *DB
}

// NewRateRepository creates a new exchange rate repository
func NewRateRepository(db *DB) domain.RateRepository {
	return &rateRepository{db: db}
}

// Add creates a new exchange rate history entry
func (r *rateRepository) Add(ctx context.Context, rate *domain.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (id, currency, date, units_per_base)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		rate.ID,
		domain.NormalizeCurrency(rate.Currency),
		rate.Date,
		rate.UnitsPerBase.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert exchange rate: %w", err)
	}

	return nil
}

// Latest retrieves the most recent exchange rate of every currency
func (r *rateRepository) Latest(ctx context.Context) ([]*domain.ExchangeRate, error) {
	query := `
		SELECT DISTINCT ON (currency) id, currency, date, units_per_base
		FROM exchange_rates
		ORDER BY currency, date DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest exchange rates: %w", err)
	}
	defer rows.Close()

	rates := make([]*domain.ExchangeRate, 0)
	for rows.Next() {
		var rate domain.ExchangeRate
		var unitsStr string
		if err := rows.Scan(&rate.ID, &rate.Currency, &rate.Date, &unitsStr); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}

		// Parse units_per_base (DECIMAL)
		units, err := decimal.NewFromString(unitsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse units_per_base: %w", err)
		}
		rate.UnitsPerBase = units

		rates = append(rates, &rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchange rates: %w", err)
	}

	return rates, nil
}
