package alerts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sentinel-ehs/config"
	"sentinel-ehs/core/incidents"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []Message
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.messages = append(s.messages, msg)
	return nil
}

type sweeperEnv struct {
	ctx     context.Context
	actions store.ActionsStore
	svc     *incidents.ActionService
	audits  store.AuditStore
}

func setupSweeper(t *testing.T) *sweeperEnv {
	t.Helper()
	cfg := &config.AppConfig{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "test.db")}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, store.ApplyMigrations(ctx, db, "sqlite", logger))

	actions := store.NewActionsStore(db)
	audits := store.NewAuditStore(db)
	return &sweeperEnv{
		ctx:     ctx,
		actions: actions,
		svc:     incidents.NewActionService(actions, store.NewIncidentsStore(db), audits, logger),
		audits:  audits,
	}
}

func pastDate() *time.Time {
	d := time.Now().UTC().AddDate(0, 0, -3)
	return &d
}

func TestSweepPersistsOverdueAndSendsDigest(t *testing.T) {
	env := setupSweeper(t)

	stale := &store.Action{
		Proactive:      true,
		ActionCategory: "Inspection",
		ActionDate:     time.Now().UTC(),
		TargetDate:     pastDate(),
		Status:         "Open",
		Site:           "North Plant",
	}
	require.NoError(t, env.actions.CreateAction(env.ctx, stale))

	closed := &store.Action{
		Proactive:      true,
		ActionCategory: "Inspection",
		ActionDate:     time.Now().UTC(),
		TargetDate:     pastDate(),
		Status:         incidents.StatusComplete,
		Site:           "North Plant",
	}
	require.NoError(t, env.actions.CreateAction(env.ctx, closed))

	sender := &recordingSender{}
	sweeper := NewSweeper(config.AlertsConfig{Enabled: true, WebhookURL: "http://hook.local"}, env.svc, sender, utils.NewLogger())
	require.NoError(t, sweeper.RunOnce(env.ctx))

	stored, err := env.actions.GetAction(env.ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, incidents.StatusOverdue, stored.Status)

	untouched, err := env.actions.GetAction(env.ctx, closed.ID)
	require.NoError(t, err)
	require.Equal(t, incidents.StatusComplete, untouched.Status)

	require.Len(t, sender.messages, 1)
	require.Len(t, sender.messages[0].Lines, 1)
	require.Contains(t, sender.messages[0].Lines[0], "North Plant")

	audited, err := env.audits.List(env.ctx, "action.overdue", 10)
	require.NoError(t, err)
	require.Len(t, audited, 1)
}

func TestSweepNothingFlippedSkipsDelivery(t *testing.T) {
	env := setupSweeper(t)

	future := time.Now().UTC().AddDate(0, 0, 7)
	open := &store.Action{
		Proactive:      true,
		ActionCategory: "Inspection",
		ActionDate:     time.Now().UTC(),
		TargetDate:     &future,
		Status:         "Open",
		Site:           "South Plant",
	}
	require.NoError(t, env.actions.CreateAction(env.ctx, open))

	sender := &recordingSender{}
	sweeper := NewSweeper(config.AlertsConfig{Enabled: true, WebhookURL: "http://hook.local"}, env.svc, sender, utils.NewLogger())
	require.NoError(t, sweeper.RunOnce(env.ctx))
	require.Empty(t, sender.messages)
}

func TestSweeperDisabledStartIsNoop(t *testing.T) {
	env := setupSweeper(t)
	sweeper := NewSweeper(config.AlertsConfig{Enabled: false}, env.svc, nil, utils.NewLogger())
	sweeper.StartWithContext(env.ctx)
	require.NoError(t, sweeper.StopWithContext(env.ctx))
}
