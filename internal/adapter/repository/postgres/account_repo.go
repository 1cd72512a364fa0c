package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, name, kind, currency
		FROM accounts
		WHERE id = $1
	`

	var account domain.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Kind,
		&account.Currency,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	return &account, nil
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, kind, currency)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Name,
		string(account.Kind),
		domain.NormalizeCurrency(account.Currency),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// List retrieves accounts ordered by name, optionally filtered by kind
func (r *accountRepository) List(ctx context.Context, kindFilter domain.AccountKind) ([]*domain.Account, error) {
	query := `
		SELECT id, name, kind, currency
		FROM accounts
		WHERE ($1 = '' OR kind = $1)
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, string(kindFilter))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.ID, &account.Name, &account.Kind, &account.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
