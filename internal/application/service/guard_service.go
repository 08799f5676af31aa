package service

import (
	"context"
	"fmt"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/guard"
	"github.com/garyjia/escrow-portal/internal/domain/status"
)

// AgreementActions is the action table for one agreement
type AgreementActions struct {
	Agreement *entity.AgreementState `json:"agreement"`
	Actions   map[guard.Action]bool  `json:"actions"`
}

// GuardService evaluates lifecycle guards against supplied or fetched state
type GuardService interface {
	// Check decides one action. Raw records are normalized first; a nil
	// agreement or entity record is passed through as missing state.
	Check(action guard.Action, agreement entity.Record, kind entity.Kind, rec entity.Record) bool

	// AgreementActions fetches an agreement and evaluates every action
	AgreementActions(ctx context.Context, agreementID string) (*AgreementActions, error)
}

type guardServiceImpl struct {
	backend    port.PortalBackend
	normalizer *status.Normalizer
	logger     Logger
}

// NewGuardService creates a GuardService
func NewGuardService(backend port.PortalBackend, n *status.Normalizer, logger Logger) GuardService {
	if n == nil {
		n = status.NewNormalizer()
	}
	return &guardServiceImpl{backend: backend, normalizer: n, logger: loggerOrNop(logger)}
}

// Check decides one action from raw records
func (s *guardServiceImpl) Check(action guard.Action, agreement entity.Record, kind entity.Kind, rec entity.Record) bool {
	var ent *guard.EntityState
	if rec != nil && kind.IsValid() {
		ent = guard.NewEntityState(kind, rec, s.normalizer)
	}
	return guard.CanPerform(action, entity.AgreementStateFromRecord(agreement), ent)
}

// AgreementActions fetches an agreement and evaluates every action
func (s *guardServiceImpl) AgreementActions(ctx context.Context, agreementID string) (*AgreementActions, error) {
	rec, err := s.backend.GetAgreement(ctx, agreementID)
	if err != nil {
		s.logger.Error("Failed to load agreement", "agreement_id", agreementID, "error", err)
		return nil, fmt.Errorf("load agreement: %w", err)
	}

	state := entity.AgreementStateFromRecord(rec)
	if state == nil {
		return nil, fmt.Errorf("load agreement %s: %w", agreementID, port.ErrNotFound)
	}
	if state.ID == "" {
		state.ID = agreementID
	}
	return &AgreementActions{
		Agreement: state,
		Actions:   guard.Evaluate(state, nil),
	}, nil
}
