package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the type of transaction entry
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Transaction represents a ledger transaction in the domain layer
type Transaction struct {
	ID                 uuid.UUID
	Description        string
	Date               time.Time
	IsInternalTransfer bool
	Entries            []TransactionEntry
}

// TransactionEntry represents a single entry in a transaction
type TransactionEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Amount        decimal.Decimal // ABSOLUTE VALUE (Always Positive)
	Type          EntryType       // 'DEBIT' or 'CREDIT'
	Currency      string
}

// Validate ensures the transaction adheres to domain rules
// Returns an error if validation fails
// CRITICAL: Ensures sum of debits equals sum of credits separately for every currency
func (t *Transaction) Validate() error {
	if len(t.Entries) == 0 {
		return errors.New("transaction must have at least one entry")
	}

	byCurrency := make(map[string][]TransactionEntry)
	for _, entry := range t.Entries {
		if entry.Currency == "" {
			return errors.New("entry currency must be set")
		}

		// Validate entry amount is positive (absolute value)
		if entry.Amount.LessThanOrEqual(decimal.Zero) {
			return errors.New("entry amount must be positive (absolute value)")
		}

		// Validate entry type
		if entry.Type != EntryTypeDebit && entry.Type != EntryTypeCredit {
			return errors.New("entry type must be DEBIT or CREDIT")
		}

		byCurrency[entry.Currency] = append(byCurrency[entry.Currency], entry)
	}

	// Deterministic order so the first failing currency is always reported
	currencies := make([]string, 0, len(byCurrency))
	for currency := range byCurrency {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	for _, currency := range currencies {
		if err := validateCurrencyBalance(byCurrency[currency], currency); err != nil {
			return err
		}
	}

	return nil
}

// validateCurrencyBalance ensures that the sum of debits equals the sum of credits for a given currency
func validateCurrencyBalance(entries []TransactionEntry, currency string) error {
	var totalDebits decimal.Decimal
	var totalCredits decimal.Decimal

	for _, entry := range entries {
		if entry.Type == EntryTypeDebit {
			totalDebits = totalDebits.Add(entry.Amount)
		} else {
			totalCredits = totalCredits.Add(entry.Amount)
		}
	}

	if !totalDebits.Equal(totalCredits) {
		return errors.New("sum of debits must equal sum of credits for " + currency)
	}

	return nil
}
