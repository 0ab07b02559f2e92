package backups

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sentinel-ehs/config"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"

	"github.com/stretchr/testify/require"
)

func setupBackups(t *testing.T, keep int) (*Service, context.Context) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(dir, "register.db"),
		Backups: config.BackupsConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "backups"),
			Keep:    keep,
		},
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, store.ApplyMigrations(ctx, db, "sqlite", logger))

	svc := NewService(cfg, db, store.NewAuditStore(db), logger)
	return svc, ctx
}

func TestRunSnapshotsRegister(t *testing.T) {
	svc, ctx := setupBackups(t, 14)

	_, err := svc.db.ExecContext(ctx, `
		INSERT INTO incidents(number, category, occurred_at, site, created_at, updated_at, version)
		VALUES('2025-03/IS/INC/00001', 'INC', ?, 'North', ?, ?, 1)`,
		time.Now().UTC(), time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	snap, err := svc.Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, snap.Checksum)
	require.Greater(t, snap.SizeBytes, int64(0))
	require.Equal(t, int64(1), snap.Counts["incidents"])
	require.Equal(t, int64(0), snap.Counts["actions"])

	info, err := os.Stat(snap.Path)
	require.NoError(t, err)
	require.Equal(t, snap.SizeBytes, info.Size())

	audits, err := store.NewAuditStore(svc.db).List(ctx, AuditRunSuccess, 10)
	require.NoError(t, err)
	require.Len(t, audits, 1)
}

func TestRetentionPrunesOldest(t *testing.T) {
	svc, ctx := setupBackups(t, 2)

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		offset := i
		svc.now = func() time.Time { return base.Add(time.Duration(offset) * time.Hour) }
		_, err := svc.Run(ctx)
		require.NoError(t, err)
	}

	snaps, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, "register_2025-03-10_11-00-00.db", snaps[0].Filename)
	require.Equal(t, "register_2025-03-10_10-00-00.db", snaps[1].Filename)
}

func TestListEmptyDirectory(t *testing.T) {
	svc, ctx := setupBackups(t, 5)
	snaps, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, snaps)
}
