package incidents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

func setupActions(t *testing.T) (*testEnv, *ActionService) {
	t.Helper()
	env := setupService(t)
	svc := NewActionService(store.NewActionsStore(env.db), env.incidents, nil, utils.NewLogger())
	return env, svc
}

func TestActionCreateRequiresKind(t *testing.T) {
	env, svc := setupActions(t)

	err := svc.Create(env.ctx, &store.Action{}, "tester")
	assert.ErrorIs(t, err, ErrActionKindRequired)

	err = svc.Create(env.ctx, &store.Action{Proactive: true}, "tester")
	assert.ErrorIs(t, err, ErrActionCategoryRequired)
}

func TestActionCreatePopulatesFromIncident(t *testing.T) {
	env, svc := setupActions(t)

	inc := &store.Incident{
		Category:       "INC",
		OccurredAt:     time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Site:           "North Plant",
		LocationOnSite: "Crusher bay",
	}
	_, err := env.svc.Create(env.ctx, inc, "tester")
	require.NoError(t, err)

	act := &store.Action{Reactive: true, IncidentNumber: inc.Number, Description: "replace guard"}
	require.NoError(t, svc.Create(env.ctx, act, "tester"))

	assert.Equal(t, int64(1), act.Number)
	assert.Equal(t, "North Plant", act.Site)
	assert.Equal(t, "Crusher bay", act.Area)
	assert.Equal(t, "Incident (INC)", act.NonConformance)
	assert.Equal(t, "March", act.Month)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), act.ActionDate)
}

func TestActionCreateMissingIncidentIsNoOp(t *testing.T) {
	env, svc := setupActions(t)

	act := &store.Action{Reactive: true, IncidentNumber: "2030-01/IS/INC/99999", Site: "typed in"}
	require.NoError(t, svc.Create(env.ctx, act, "tester"))
	assert.Equal(t, "typed in", act.Site)
}

func TestActionOverdueEnforcement(t *testing.T) {
	env, svc := setupActions(t)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }

	past := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	open := &store.Action{Proactive: true, ActionCategory: "Housekeeping", TargetDate: &past, Status: "In progress"}
	require.NoError(t, svc.Create(env.ctx, open, "tester"))
	assert.Equal(t, StatusOverdue, open.Status)

	done := &store.Action{Proactive: true, ActionCategory: "Housekeeping", TargetDate: &past, Status: StatusComplete}
	require.NoError(t, svc.Create(env.ctx, done, "tester"))
	assert.Equal(t, StatusComplete, done.Status)

	future := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	pending := &store.Action{Proactive: true, ActionCategory: "Housekeeping", TargetDate: &future, Status: "In progress"}
	require.NoError(t, svc.Create(env.ctx, pending, "tester"))
	assert.Equal(t, "In progress", pending.Status)
}

func TestActionListEnforcesOverdueOnRead(t *testing.T) {
	env, svc := setupActions(t)

	future := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	act := &store.Action{Proactive: true, ActionCategory: "Housekeeping", TargetDate: &future, Status: "In progress"}
	require.NoError(t, svc.Create(env.ctx, act, "tester"))

	// Time passes; the stored status is stale by the next read.
	svc.now = func() time.Time { return time.Date(2099, 6, 1, 0, 0, 0, 0, time.UTC) }
	list, err := svc.List(env.ctx, store.ActionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusOverdue, list[0].Status)
}
