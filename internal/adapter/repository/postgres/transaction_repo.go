package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create creates a new transaction with all its entries in a database transaction
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	// Start a database transaction
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Insert the transaction header
	insertTxQuery := `
		INSERT INTO transactions (id, description, date, is_internal_transfer)
		VALUES ($1, $2, $3, $4)
	`

	_, err = dbTx.ExecContext(ctx, insertTxQuery,
		tx.ID,
		tx.Description,
		tx.Date,
		tx.IsInternalTransfer,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	// Insert all transaction entries
	insertEntryQuery := `
		INSERT INTO transaction_entries (id, transaction_id, account_id, amount, type, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, entry := range tx.Entries {
		_, err = dbTx.ExecContext(ctx, insertEntryQuery,
			entry.ID,
			entry.TransactionID,
			entry.AccountID,
			entry.Amount.String(),
			string(entry.Type),
			entry.Currency,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction entry: %w", err)
		}
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction together with its entries
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	headerQuery := `
		SELECT id, description, date, is_internal_transfer
		FROM transactions
		WHERE id = $1
	`

	var tx domain.Transaction
	err := r.db.QueryRowContext(ctx, headerQuery, id).Scan(
		&tx.ID,
		&tx.Description,
		&tx.Date,
		&tx.IsInternalTransfer,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}

	entriesQuery := `
		SELECT id, transaction_id, account_id, amount, type, currency
		FROM transaction_entries
		WHERE transaction_id = $1
		ORDER BY type, id
	`

	rows, err := r.db.QueryContext(ctx, entriesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.TransactionEntry
		var amountStr string
		if err := rows.Scan(
			&entry.ID,
			&entry.TransactionID,
			&entry.AccountID,
			&amountStr,
			&entry.Type,
			&entry.Currency,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction entry: %w", err)
		}

		// Parse amount (DECIMAL)
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry amount: %w", err)
		}
		entry.Amount = amount

		tx.Entries = append(tx.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction entries: %w", err)
	}

	return &tx, nil
}
