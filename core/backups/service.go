package backups

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"sentinel-ehs/config"
	"sentinel-ehs/core/backups/pgdump"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

const (
	AuditRunSuccess       = "backups.run.success"
	AuditRunFailed        = "backups.run.failed"
	AuditRetentionDeleted = "backups.retention.deleted"

	snapshotPrefix = "register_"
)

// Snapshot describes one completed register copy on disk.
type Snapshot struct {
	Filename  string           `json:"filename"`
	Path      string           `json:"path"`
	SizeBytes int64            `json:"size_bytes"`
	Checksum  string           `json:"checksum"`
	Counts    map[string]int64 `json:"counts"`
	CreatedAt time.Time        `json:"created_at"`
}

// Service copies the incident register to the backup directory. SQLite
// snapshots go through VACUUM INTO on the live handle; postgres goes through
// pg_dump.
type Service struct {
	cfg    config.BackupsConfig
	driver string
	dbURL  string
	db     *sql.DB
	dumper pgdump.Runner
	audits store.AuditStore
	logger *utils.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewService(cfg *config.AppConfig, db *sql.DB, audits store.AuditStore, logger *utils.Logger) *Service {
	return &Service{
		cfg:    cfg.Backups,
		driver: strings.ToLower(strings.TrimSpace(cfg.DBDriver)),
		dbURL:  cfg.DBURL,
		db:     db,
		dumper: pgdump.NewRunner(),
		audits: audits,
		logger: logger,
		now:    time.Now,
	}
}

// Run takes one snapshot and applies retention. Only one snapshot runs at a
// time; a second caller blocks until the first finishes.
func (s *Service) Run(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		s.audit(ctx, AuditRunFailed, err.Error())
		return nil, err
	}
	s.prune(ctx)
	s.audit(ctx, AuditRunSuccess, fmt.Sprintf("file=%s size=%d sha256=%s", snap.Filename, snap.SizeBytes, snap.Checksum))
	return snap, nil
}

func (s *Service) snapshot(ctx context.Context) (*Snapshot, error) {
	outDir := strings.TrimSpace(s.cfg.Path)
	if outDir == "" {
		return nil, fmt.Errorf("backup path is not configured")
	}
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	now := s.now().UTC()
	ts := now.Format("2006-01-02_15-04-05")
	var filename string
	switch s.driver {
	case "postgres", "pgx":
		filename = snapshotPrefix + ts + ".dump"
		dumpCtx, cancel := context.WithTimeout(ctx, 20*time.Minute)
		defer cancel()
		err := s.dumper.Dump(dumpCtx, pgdump.Options{
			BinaryPath: s.cfg.PGDumpBin,
			DBURL:      s.dbURL,
			OutputPath: filepath.Join(outDir, filename),
		})
		if err != nil {
			return nil, fmt.Errorf("pg_dump: %w", err)
		}
	default:
		filename = snapshotPrefix + ts + ".db"
		target := filepath.Join(outDir, filename)
		quoted := strings.ReplaceAll(target, "'", "''")
		if _, err := s.db.ExecContext(ctx, "VACUUM INTO '"+quoted+"'"); err != nil {
			return nil, fmt.Errorf("vacuum into: %w", err)
		}
	}

	path := filepath.Join(outDir, filename)
	checksum, size, err := fileSHA256(path)
	if err != nil {
		return nil, fmt.Errorf("checksum: %w", err)
	}
	return &Snapshot{
		Filename:  filename,
		Path:      path,
		SizeBytes: size,
		Checksum:  checksum,
		Counts:    s.entityCounts(ctx),
		CreatedAt: now,
	}, nil
}

// List returns the snapshots currently on disk, newest first.
func (s *Service) List(ctx context.Context) ([]Snapshot, error) {
	entries, err := os.ReadDir(strings.TrimSpace(s.cfg.Path))
	if err != nil {
		if os.IsNotExist(err) {
			return []Snapshot{}, nil
		}
		return nil, err
	}
	var out []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Snapshot{
			Filename:  entry.Name(),
			Path:      filepath.Join(s.cfg.Path, entry.Name()),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename > out[j].Filename })
	return out, nil
}

// prune removes snapshots beyond the configured retention count. The
// timestamped names sort lexicographically, newest last.
func (s *Service) prune(ctx context.Context) {
	keep := s.cfg.Keep
	if keep <= 0 {
		return
	}
	snaps, err := s.List(ctx)
	if err != nil {
		s.logger.Printf("backup retention listing failed: %v", err)
		return
	}
	for _, stale := range snaps[min(keep, len(snaps)):] {
		if err := os.Remove(stale.Path); err != nil {
			s.logger.Printf("backup retention remove %s: %v", stale.Filename, err)
			continue
		}
		s.audit(ctx, AuditRetentionDeleted, "file="+stale.Filename)
	}
}

func (s *Service) entityCounts(ctx context.Context) map[string]int64 {
	out := map[string]int64{}
	for key, query := range map[string]string{
		"incidents": "SELECT COUNT(*) FROM incidents",
		"actions":   "SELECT COUNT(*) FROM actions",
		"employees": "SELECT COUNT(*) FROM employees",
		"assets":    "SELECT COUNT(*) FROM assets",
		"sites":     "SELECT COUNT(*) FROM site_configs",
	} {
		var n int64
		if err := s.db.QueryRowContext(ctx, query).Scan(&n); err == nil {
			out[key] = n
		}
	}
	return out
}

func (s *Service) audit(ctx context.Context, action, details string) {
	if s.audits == nil {
		return
	}
	rec := &store.AuditRecord{Actor: "system", Action: action, Details: details}
	if err := s.audits.Append(ctx, rec); err != nil {
		s.logger.Printf("backup audit append failed: %v", err)
	}
}

func fileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
