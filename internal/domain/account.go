package domain

import (
	"errors"

	"github.com/google/uuid"
)

// AccountKind represents the kind of account in the ledger
type AccountKind string

const (
	AccountKindAsset  AccountKind = "ASSET"
	AccountKindSystem AccountKind = "SYSTEM"
)

// Fixed IDs of the system accounts that transfers post into
var (
	SystemTransferFeesAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000101")
	SystemFXClearingAccountID   = uuid.MustParse("00000000-0000-0000-0000-000000000102")
)

// Account represents a ledger account that money can be moved between
type Account struct {
	ID       uuid.UUID
	Name     string
	Kind     AccountKind
	Currency string // ISO 4217 code. Empty for multi-currency system accounts.
}

// Validate ensures the account adheres to domain rules
func (a *Account) Validate() error {
	if a.Name == "" {
		return errors.New("account name cannot be empty")
	}

	switch a.Kind {
	case AccountKindAsset:
		if len(NormalizeCurrency(a.Currency)) != 3 {
			return errors.New("asset account must have a 3-letter currency code")
		}
	case AccountKindSystem:
		// System accounts may hold entries in any currency
	default:
		return errors.New("account kind must be ASSET or SYSTEM")
	}

	return nil
}

// SameAccount reports whether a and b are both selected and refer to the same account
func SameAccount(a, b *Account) bool {
	return a != nil && b != nil && a.ID == b.ID
}
