package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type AuditRecord struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditStore interface {
	Append(ctx context.Context, rec *AuditRecord) error
	List(ctx context.Context, action string, limit int) ([]AuditRecord, error)
}

type auditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) Append(ctx context.Context, rec *AuditRecord) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log(actor, action, details, request_id, created_at)
		VALUES(?,?,?,?,?)`,
		strings.TrimSpace(rec.Actor), strings.TrimSpace(rec.Action), rec.Details, rec.RequestID, now)
	if err != nil {
		return err
	}
	rec.ID, _ = res.LastInsertId()
	rec.CreatedAt = now
	return nil
}

func (s *auditStore) List(ctx context.Context, action string, limit int) ([]AuditRecord, error) {
	query := `SELECT id, actor, action, details, request_id, created_at FROM audit_log`
	var args []any
	if strings.TrimSpace(action) != "" {
		query += " WHERE action=?"
		args = append(args, strings.TrimSpace(action))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Actor, &rec.Action, &rec.Details, &rec.RequestID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
