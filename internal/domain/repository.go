package domain

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence operations
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// List retrieves accounts, optionally filtered by kind
	// If kindFilter is empty, returns all accounts
	List(ctx context.Context, kindFilter AccountKind) ([]*Account, error)
}

// TransactionRepository defines the interface for transaction persistence operations
type TransactionRepository interface {
	// Create creates a new transaction together with its entries
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction and its entries
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
}

// RateRepository defines the interface for exchange rate history persistence operations
type RateRepository interface {
	// Add creates a new exchange rate history entry
	Add(ctx context.Context, rate *ExchangeRate) error

	// Latest retrieves the most recent rate for every known currency
	Latest(ctx context.Context) ([]*ExchangeRate, error)
}
