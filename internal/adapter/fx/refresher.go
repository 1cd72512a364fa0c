package fx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// Refresher loads the latest stored exchange rates into a RateTable and
// notifies listeners once the table has changed
type Refresher struct {
	repo     domain.RateRepository
	table    *RateTable
	logger   *slog.Logger
	attempts uint
	delay    time.Duration
	onUpdate []func()
}

// NewRefresher creates a Refresher. A nil logger uses slog.Default().
func NewRefresher(repo domain.RateRepository, table *RateTable, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		repo:     repo,
		table:    table,
		logger:   logger,
		attempts: 3,
		delay:    time.Second,
	}
}

// WithRetry overrides the number of load attempts and the delay between them
func (r *Refresher) WithRetry(attempts uint, delay time.Duration) *Refresher {
	r.attempts = attempts
	r.delay = delay
	return r
}

// OnUpdate registers fn to be called after every refresh that loaded rates
func (r *Refresher) OnUpdate(fn func()) {
	r.onUpdate = append(r.onUpdate, fn)
}

// Refresh loads the latest rates and replaces the table's rates with them.
// When no rates are stored the table is left untouched.
func (r *Refresher) Refresh(ctx context.Context) error {
	var latest []*domain.ExchangeRate
	err := retry.Do(
		func() error {
			var err error
			latest, err = r.repo.Latest(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("loading exchange rates failed, will retry", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to load exchange rates: %w", err)
	}

	if len(latest) == 0 {
		r.logger.Warn("no stored exchange rates, keeping last-known rates")
		return nil
	}

	rates := make(map[string]decimal.Decimal, len(latest))
	for _, rate := range latest {
		rates[rate.Currency] = rate.UnitsPerBase
	}
	r.table.Replace(rates)
	r.logger.Info("exchange rates refreshed", "currencies", len(rates), "base", r.table.Base())

	for _, fn := range r.onUpdate {
		fn()
	}
	return nil
}

// Run refreshes every interval until ctx is done
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Error("exchange rate refresh failed", "error", err)
			}
		}
	}
}
