package seeder

import (
	"context"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// SystemAccount defines the structure for a system account to be seeded
type SystemAccount struct {
	ID   uuid.UUID
	Name string
}

// SystemAccounts are the accounts transfers post fees and currency exchanges into
var SystemAccounts = []SystemAccount{
	{
		ID:   domain.SystemTransferFeesAccountID,
		Name: "System Transfer Fees",
	},
	{
		ID:   domain.SystemFXClearingAccountID,
		Name: "System FX Clearing",
	},
}

// SystemSeeder handles seeding of required system accounts
type SystemSeeder struct {
	repo domain.AccountRepository
}

// NewSystemSeeder creates a new SystemSeeder instance
func NewSystemSeeder(repo domain.AccountRepository) *SystemSeeder {
	return &SystemSeeder{
		repo: repo,
	}
}

// Seed ensures all required system accounts exist in the database
// If an account doesn't exist, it creates it
func (s *SystemSeeder) Seed(ctx context.Context) error {
	for _, sysAccount := range SystemAccounts {
		if _, err := s.repo.GetByID(ctx, sysAccount.ID); err == nil {
			continue
		}

		// System accounts are multi-currency, so no currency is set
		account := &domain.Account{
			ID:   sysAccount.ID,
			Name: sysAccount.Name,
			Kind: domain.AccountKindSystem,
		}

		if err := account.Validate(); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, account); err != nil {
			return err
		}
	}

	return nil
}
