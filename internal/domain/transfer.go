package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer is a finished movement of money between two accounts, ready to be
// committed to the ledger. SourceAmount leaves the source account in its
// currency, TargetAmount arrives in the target account's currency and Fee is
// charged in the source currency.
type Transfer struct {
	SourceAccountID uuid.UUID
	TargetAccountID uuid.UUID
	SourceAmount    decimal.Decimal
	TargetAmount    decimal.Decimal
	Fee             decimal.Decimal
	Date            time.Time
	Note            string
}

// Validate ensures the transfer adheres to domain rules
func (t *Transfer) Validate() error {
	if t.SourceAccountID == uuid.Nil || t.TargetAccountID == uuid.Nil {
		return errors.New("transfer must have both accounts selected")
	}
	if t.SourceAccountID == t.TargetAccountID {
		return errors.New("transfer source and target must be different accounts")
	}
	if t.SourceAmount.LessThanOrEqual(decimal.Zero) || t.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return errors.New("transfer amounts must be positive")
	}
	if t.Fee.LessThan(decimal.Zero) {
		return errors.New("transfer fee must not be negative")
	}
	if t.Fee.GreaterThanOrEqual(t.SourceAmount) {
		return errors.New("transfer fee must be less than the source amount")
	}
	return nil
}

// ToTransaction builds the balanced ledger transaction for the transfer.
// Same-currency transfers post directly between the two accounts. Cross-currency
// transfers route through the FX clearing account so that each currency balances
// on its own. A non-zero fee is posted to the transfer fees account.
func (t *Transfer) ToTransaction(source, target *Account) (*Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if source == nil || target == nil || source.ID != t.SourceAccountID || target.ID != t.TargetAccountID {
		return nil, errors.New("transfer accounts do not match the given accounts")
	}

	sourceCurrency := NormalizeCurrency(source.Currency)
	targetCurrency := NormalizeCurrency(target.Currency)

	txID := uuid.New()
	entry := func(accountID uuid.UUID, amount decimal.Decimal, entryType EntryType, currency string) TransactionEntry {
		return TransactionEntry{
			ID:            uuid.New(),
			TransactionID: txID,
			AccountID:     accountID,
			Amount:        amount,
			Type:          entryType,
			Currency:      currency,
		}
	}

	entries := []TransactionEntry{
		entry(t.SourceAccountID, t.SourceAmount, EntryTypeCredit, sourceCurrency),
	}
	if t.Fee.GreaterThan(decimal.Zero) {
		entries = append(entries, entry(SystemTransferFeesAccountID, t.Fee, EntryTypeDebit, sourceCurrency))
	}

	if sourceCurrency == targetCurrency {
		entries = append(entries, entry(t.TargetAccountID, t.TargetAmount, EntryTypeDebit, targetCurrency))
	} else {
		entries = append(entries,
			entry(SystemFXClearingAccountID, t.SourceAmount.Sub(t.Fee), EntryTypeDebit, sourceCurrency),
			entry(SystemFXClearingAccountID, t.TargetAmount, EntryTypeCredit, targetCurrency),
			entry(t.TargetAccountID, t.TargetAmount, EntryTypeDebit, targetCurrency),
		)
	}

	tx := &Transaction{
		ID:                 txID,
		Description:        t.Note,
		Date:               t.Date,
		IsInternalTransfer: true,
		Entries:            entries,
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	return tx, nil
}

// TransferFromTransaction reconstructs a transfer from its ledger entries.
// The source is the credited non-system account, the target the debited
// non-system account and the fee the debit on the transfer fees account (zero
// when absent).
func TransferFromTransaction(tx *Transaction) (*Transfer, error) {
	if !tx.IsInternalTransfer {
		return nil, errors.New("transaction is not an internal transfer")
	}

	t := &Transfer{
		Date: tx.Date,
		Note: tx.Description,
		Fee:  decimal.Zero,
	}

	for _, entry := range tx.Entries {
		switch {
		case entry.AccountID == SystemTransferFeesAccountID && entry.Type == EntryTypeDebit:
			t.Fee = t.Fee.Add(entry.Amount)
		case entry.AccountID == SystemFXClearingAccountID || entry.AccountID == SystemTransferFeesAccountID:
			// Clearing legs carry no information beyond the two account legs
		case entry.Type == EntryTypeCredit:
			t.SourceAccountID = entry.AccountID
			t.SourceAmount = entry.Amount
		case entry.Type == EntryTypeDebit:
			t.TargetAccountID = entry.AccountID
			t.TargetAmount = entry.Amount
		}
	}

	if t.SourceAccountID == uuid.Nil || t.TargetAccountID == uuid.Nil {
		return nil, errors.New("transaction is missing a transfer leg")
	}

	return t, nil
}
