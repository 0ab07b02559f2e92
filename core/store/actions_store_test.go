package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateActionNumbersPerIncident(t *testing.T) {
	db := setupDB(t)
	actions := NewActionsStore(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		act := &Action{Reactive: true, IncidentNumber: "2025-03/IS/INC/00001", Description: "fix guard rail"}
		require.NoError(t, actions.CreateAction(ctx, act))
		assert.Equal(t, int64(i), act.Number)
	}

	// A different incident gets its own run.
	other := &Action{Reactive: true, IncidentNumber: "2025-03/IS/INC/00002"}
	require.NoError(t, actions.CreateAction(ctx, other))
	assert.Equal(t, int64(1), other.Number)
}

func TestCreateActionNumbersPerCategoryWhenProactive(t *testing.T) {
	db := setupDB(t)
	actions := NewActionsStore(db)
	ctx := context.Background()

	first := &Action{Proactive: true, ActionCategory: "Housekeeping"}
	require.NoError(t, actions.CreateAction(ctx, first))
	assert.Equal(t, int64(1), first.Number)

	second := &Action{Proactive: true, ActionCategory: "Housekeeping"}
	require.NoError(t, actions.CreateAction(ctx, second))
	assert.Equal(t, int64(2), second.Number)

	// No resolvable scope means no number.
	bare := &Action{}
	require.NoError(t, actions.CreateAction(ctx, bare))
	assert.Zero(t, bare.Number)
}

func TestUpdateActionVersionConflict(t *testing.T) {
	db := setupDB(t)
	actions := NewActionsStore(db)
	ctx := context.Background()

	act := &Action{Reactive: true, IncidentNumber: "2025-03/IS/INC/00001", Status: "Open"}
	require.NoError(t, actions.CreateAction(ctx, act))

	act.Status = "Complete"
	require.NoError(t, actions.UpdateAction(ctx, act))

	stale := *act
	stale.Version = 1
	err := actions.UpdateAction(ctx, &stale)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestListActionsByIncident(t *testing.T) {
	db := setupDB(t)
	actions := NewActionsStore(db)
	ctx := context.Background()

	target := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	a := &Action{Reactive: true, IncidentNumber: "2025-03/IS/INC/00001", TargetDate: &target, Status: "Open"}
	require.NoError(t, actions.CreateAction(ctx, a))
	b := &Action{Reactive: true, IncidentNumber: "2025-03/IS/INC/00002"}
	require.NoError(t, actions.CreateAction(ctx, b))

	list, err := actions.ListActions(ctx, ActionFilter{IncidentNumber: "2025-03/IS/INC/00001"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
	require.NotNil(t, list[0].TargetDate)
	assert.True(t, list[0].TargetDate.Equal(target))
}

func TestEmployeeAndAssetLookups(t *testing.T) {
	db := setupDB(t)
	employees := NewEmployeesStore(db)
	assets := NewAssetsStore(db)
	ctx := context.Background()

	dob := time.Date(1988, 11, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, employees.Upsert(ctx, &Employee{ID: "EMP-9", FullName: "K. Dlamini", IDNumber: "8811025", DateOfBirth: &dob}))
	emp, err := employees.Get(ctx, "EMP-9")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "K. Dlamini", emp.FullName)
	require.NotNil(t, emp.DateOfBirth)
	assert.True(t, emp.DateOfBirth.Equal(dob))

	missing, err := employees.Get(ctx, "EMP-404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, assets.Upsert(ctx, &Asset{ID: "DT-14", Name: "Dump truck 14", CompanyOwned: true, Operational: true}))
	asset, err := assets.Get(ctx, "DT-14")
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.True(t, asset.CompanyOwned)

	gone, err := assets.Get(ctx, "DT-99")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
