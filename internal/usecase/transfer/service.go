package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// Command is a UI event addressed by account ID rather than by account
type Command struct {
	Kind      EventKind
	Key       string
	Field     Field
	AccountID *uuid.UUID // ACCOUNT_PICKED; nil clears the selection
}

// TransferService handles transfer entry sessions and commits finished transfers to the ledger
type TransferService struct {
	AccountRepo     domain.AccountRepository
	TransactionRepo domain.TransactionRepository
	Converter       domain.Converter
	Options         Options
	Sessions        *SessionStore

	logger *slog.Logger
	now    func() time.Time
}

// NewTransferService creates a new TransferService instance
func NewTransferService(
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	converter domain.Converter,
	opts Options,
	logger *slog.Logger,
) *TransferService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TransferService{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		Converter:       converter,
		Options:         opts,
		Sessions:        NewSessionStore(),
		logger:          logger,
		now:             time.Now,
	}
}

// Open starts a fresh transfer form, optionally preselecting accounts
func (s *TransferService) Open(ctx context.Context, sourceID, targetID *uuid.UUID) (uuid.UUID, Snapshot, error) {
	resolver := NewResolver(s.Converter, s.Options)

	for _, pick := range []struct {
		field Field
		id    *uuid.UUID
	}{
		{FieldSource, sourceID},
		{FieldTarget, targetID},
	} {
		if pick.id == nil {
			continue
		}
		account, err := s.assetAccount(ctx, *pick.id)
		if err != nil {
			return uuid.Nil, Snapshot{}, err
		}
		resolver.SelectAccount(pick.field, account)
	}

	id := s.Sessions.Open(NewRouter(resolver))
	s.logger.Debug("transfer session opened", "session_id", id)

	return id, resolver.Snapshot(), nil
}

// Reopen starts a transfer form holding a previously committed transfer.
// Logic:
//  1. Fetch the transaction and infer source, target and fee from its entries
//  2. Fetch both accounts
//  3. Rehydrate a resolver with the stored amounts
func (s *TransferService) Reopen(ctx context.Context, transactionID uuid.UUID) (uuid.UUID, Snapshot, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return uuid.Nil, Snapshot{}, err
	}

	stored, err := domain.TransferFromTransaction(tx)
	if err != nil {
		return uuid.Nil, Snapshot{}, err
	}

	source, err := s.AccountRepo.GetByID(ctx, stored.SourceAccountID)
	if err != nil {
		return uuid.Nil, Snapshot{}, err
	}
	target, err := s.AccountRepo.GetByID(ctx, stored.TargetAccountID)
	if err != nil {
		return uuid.Nil, Snapshot{}, err
	}

	resolver := RehydrateResolver(s.Converter, s.Options, source, target, stored)
	id := s.Sessions.Open(NewRouter(resolver))
	s.logger.Debug("transfer session reopened",
		"session_id", id,
		"transaction_id", transactionID,
		"manual_override", resolver.State().ManualOverride,
	)

	return id, resolver.Snapshot(), nil
}

// Dispatch applies one UI command to an open session
func (s *TransferService) Dispatch(ctx context.Context, sessionID uuid.UUID, cmd Command) (Snapshot, error) {
	ev := Event{Kind: cmd.Kind, Key: cmd.Key, Field: cmd.Field}
	if cmd.Kind == EventAccountPicked && cmd.AccountID != nil {
		account, err := s.assetAccount(ctx, *cmd.AccountID)
		if err != nil {
			return Snapshot{}, err
		}
		ev.Account = account
	}

	var snap Snapshot
	err := s.Sessions.Do(sessionID, func(rt *Router) error {
		if err := rt.Dispatch(ev); err != nil {
			return err
		}
		snap = rt.Resolver().Snapshot()
		return nil
	})
	return snap, err
}

// Snapshot returns the current view of an open session
func (s *TransferService) Snapshot(sessionID uuid.UUID) (Snapshot, error) {
	var snap Snapshot
	err := s.Sessions.Do(sessionID, func(rt *Router) error {
		snap = rt.Resolver().Snapshot()
		return nil
	})
	return snap, err
}

// Commit saves the session's transfer to the ledger and closes the session.
// It fails with ErrNotReadyToSave while the transfer is incomplete; a session
// can be committed at most once.
func (s *TransferService) Commit(ctx context.Context, sessionID uuid.UUID, note string) (*domain.Transaction, error) {
	var tx *domain.Transaction
	err := s.Sessions.Finish(sessionID, func(rt *Router) error {
		t, err := rt.Resolver().Transfer(note, s.now())
		if err != nil {
			return err
		}
		tx, err = s.CommitTransfer(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer committed", "session_id", sessionID, "transaction_id", tx.ID)
	return tx, nil
}

// Close discards an open session without committing it
func (s *TransferService) Close(sessionID uuid.UUID) error {
	if err := s.Sessions.Close(sessionID); err != nil {
		return err
	}
	s.logger.Debug("transfer session closed", "session_id", sessionID)
	return nil
}

// CommitTransfer writes a finished transfer to the ledger
// Logic:
//  1. Fetch both accounts (they must be distinct asset accounts)
//  2. Build the balanced transaction for the transfer
//  3. Save using TransactionRepo.Create
func (s *TransferService) CommitTransfer(ctx context.Context, t *domain.Transfer) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	source, err := s.assetAccount(ctx, t.SourceAccountID)
	if err != nil {
		return nil, err
	}
	target, err := s.assetAccount(ctx, t.TargetAccountID)
	if err != nil {
		return nil, err
	}

	tx, err := t.ToTransaction(source, target)
	if err != nil {
		return nil, err
	}

	if err := s.TransactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// RatesUpdated re-derives every open session after an exchange rate refresh
func (s *TransferService) RatesUpdated() {
	n := s.Sessions.Broadcast(Event{Kind: EventRatesUpdated})
	s.logger.Debug("exchange rates applied to open transfer sessions", "sessions", n)
}

func (s *TransferService) assetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.AccountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Kind != domain.AccountKindAsset {
		return nil, errors.New("transfer account must reference an asset account")
	}
	return account, nil
}
