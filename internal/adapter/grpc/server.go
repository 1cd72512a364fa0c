package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/wealthflow-transfer/internal/domain"
	"github.com/simaogato/wealthflow-transfer/internal/usecase/transfer"
)

// Server implements the TransferSessionService gRPC server
type Server struct {
	TransferService *transfer.TransferService
}

// NewServer creates a new gRPC server instance
func NewServer(transferService *transfer.TransferService) *Server {
	return &Server{
		TransferService: transferService,
	}
}

// ListAccounts handles the ListAccounts RPC
// It returns the asset accounts a transfer can use.
func (s *Server) ListAccounts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	accounts, err := s.TransferService.AccountRepo.List(ctx, domain.AccountKindAsset)
	if err != nil {
		return nil, mapError(err)
	}

	list := make([]interface{}, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, map[string]interface{}{
			"id":       account.ID.String(),
			"name":     account.Name,
			"currency": account.Currency,
		})
	}

	return newResponse(map[string]interface{}{"accounts": list})
}

// OpenSession handles the OpenSession RPC
func (s *Server) OpenSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sourceID, err := optionalUUID(req, "source_account_id")
	if err != nil {
		return nil, err
	}
	targetID, err := optionalUUID(req, "target_account_id")
	if err != nil {
		return nil, err
	}

	id, snap, err := s.TransferService.Open(ctx, sourceID, targetID)
	if err != nil {
		return nil, mapError(err)
	}

	return sessionResponse(id, snap)
}

// ReopenSession handles the ReopenSession RPC
func (s *Server) ReopenSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	txID, err := requiredUUID(req, "transaction_id")
	if err != nil {
		return nil, err
	}

	id, snap, err := s.TransferService.Reopen(ctx, txID)
	if err != nil {
		return nil, mapError(err)
	}

	return sessionResponse(id, snap)
}

// Dispatch handles the Dispatch RPC
func (s *Server) Dispatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sessionID, err := requiredUUID(req, "session_id")
	if err != nil {
		return nil, err
	}

	cmd := transfer.Command{
		Kind: transfer.EventKind(strings.ToUpper(stringField(req, "kind"))),
		Key:  stringField(req, "key"),
	}

	if cmd.Kind == transfer.EventFocus || cmd.Kind == transfer.EventAccountPicked {
		field, err := transfer.ParseField(stringField(req, "field"))
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%v", err)
		}
		cmd.Field = field
	}

	if cmd.Kind == transfer.EventAccountPicked {
		accountID, err := optionalUUID(req, "account_id")
		if err != nil {
			return nil, err
		}
		cmd.AccountID = accountID
	}

	snap, err := s.TransferService.Dispatch(ctx, sessionID, cmd)
	if err != nil {
		return nil, mapError(err)
	}

	return sessionResponse(sessionID, snap)
}

// GetSession handles the GetSession RPC
func (s *Server) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sessionID, err := requiredUUID(req, "session_id")
	if err != nil {
		return nil, err
	}

	snap, err := s.TransferService.Snapshot(sessionID)
	if err != nil {
		return nil, mapError(err)
	}

	return sessionResponse(sessionID, snap)
}

// CommitSession handles the CommitSession RPC
func (s *Server) CommitSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sessionID, err := requiredUUID(req, "session_id")
	if err != nil {
		return nil, err
	}

	tx, err := s.TransferService.Commit(ctx, sessionID, stringField(req, "note"))
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]interface{}{
		"transaction_id": tx.ID.String(),
		"created_at":     tx.Date.UTC().Format(time.RFC3339),
	})
}

// CloseSession handles the CloseSession RPC
func (s *Server) CloseSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sessionID, err := requiredUUID(req, "session_id")
	if err != nil {
		return nil, err
	}

	if err := s.TransferService.Close(sessionID); err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]interface{}{})
}

// sessionResponse converts a session snapshot to a response message
func sessionResponse(id uuid.UUID, snap transfer.Snapshot) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"session_id":          id.String(),
		"source":              snap.Source,
		"target":              snap.Target,
		"fee":                 snap.Fee,
		"source_currency":     snap.SourceCurrency,
		"target_currency":     snap.TargetCurrency,
		"focus":               snap.Focus.String(),
		"anchor":              snap.Anchor.String(),
		"manual_override":     snap.ManualOverride,
		"can_toggle_override": snap.CanToggleOverride,
		"ready_to_save":       snap.ReadyToSave,
	}

	// Set account IDs if they are selected
	if snap.SourceAccountID != nil {
		fields["source_account_id"] = snap.SourceAccountID.String()
	}
	if snap.TargetAccountID != nil {
		fields["target_account_id"] = snap.TargetAccountID.String()
	}

	return newResponse(fields)
}

func newResponse(fields map[string]interface{}) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// optionalUUID parses an optional ID field; an absent or empty field yields nil
func optionalUUID(req *structpb.Struct, name string) (*uuid.UUID, error) {
	raw := stringField(req, name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return &id, nil
}

func requiredUUID(req *structpb.Struct, name string) (uuid.UUID, error) {
	id, err := optionalUUID(req, name)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return *id, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, transfer.ErrSessionNotFound):
		return status.Errorf(codes.NotFound, "%v", err)
	case errors.Is(err, transfer.ErrNotReadyToSave):
		return status.Errorf(codes.FailedPrecondition, "%v", err)
	case errors.Is(err, transfer.ErrUnknownEvent), errors.Is(err, transfer.ErrInvalidKey):
		return status.Errorf(codes.InvalidArgument, "%v", err)
	}

	errorMsg := err.Error()

	// Map common validation errors to InvalidArgument
	if strings.Contains(errorMsg, "must be") ||
		strings.Contains(errorMsg, "invalid") ||
		strings.Contains(errorMsg, "must reference") ||
		strings.Contains(errorMsg, "must have") ||
		strings.Contains(errorMsg, "not an internal transfer") {
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	// Map "not found" errors to NotFound
	if strings.Contains(errorMsg, "not found") {
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
