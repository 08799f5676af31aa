package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/guard"
)

func TestGuardService_Check(t *testing.T) {
	svc := NewGuardService(&mockBackend{}, fixedNormalizer(), nil)
	funded := entity.Record{"signed_by_contractor": true, "signed_by_homeowner": true, "escrow_funded": true, "status": "active"}

	assert.True(t, svc.Check(guard.ActionMarkMilestoneComplete, funded, entity.KindMilestone, entity.Record{"amount": 10}))
	assert.False(t, svc.Check(guard.ActionMarkMilestoneComplete, funded, entity.KindMilestone, entity.Record{"completed": true}))
	assert.True(t, svc.Check(guard.ActionPayInvoice, funded, entity.KindInvoice, entity.Record{"status": "pending"}))
	assert.False(t, svc.Check(guard.ActionFundEscrow, nil, "", nil))
	assert.False(t, svc.Check(guard.ActionPayInvoice, funded, entity.Kind("bogus"), entity.Record{"status": "pending"}))
}

func TestGuardService_AgreementActions(t *testing.T) {
	backend := &mockBackend{agreements: map[string]entity.Record{
		"42": {"signed_by_contractor": true, "signed_by_homeowner": false},
	}}
	svc := NewGuardService(backend, nil, nil)

	actions, err := svc.AgreementActions(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", actions.Agreement.ID)
	assert.True(t, actions.Actions[guard.ActionSendInvite])
	assert.False(t, actions.Actions[guard.ActionEdit])
	assert.False(t, actions.Actions[guard.ActionFundEscrow])
	assert.Len(t, actions.Actions, len(guard.Actions()))

	_, err = svc.AgreementActions(context.Background(), "7")
	assert.ErrorIs(t, err, port.ErrNotFound)
}
