package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Action struct {
	ID                int64      `json:"id"`
	Number            int64      `json:"number"`
	IncidentNumber    string     `json:"incident_number,omitempty"`
	ActionCategory    string     `json:"action_category,omitempty"`
	Reactive          bool       `json:"reactive"`
	Proactive         bool       `json:"proactive"`
	ActionDate        time.Time  `json:"action_date,omitempty"`
	Month             string     `json:"month,omitempty"`
	TargetDate        *time.Time `json:"target_date,omitempty"`
	Status            string     `json:"status,omitempty"`
	Site              string     `json:"site,omitempty"`
	NonConformance    string     `json:"non_conformance,omitempty"`
	Area              string     `json:"area,omitempty"`
	Department        string     `json:"department,omitempty"`
	Description       string     `json:"description,omitempty"`
	ResponsiblePerson string     `json:"responsible_person,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Version           int64      `json:"version"`
}

type ActionFilter struct {
	IncidentNumber string
	Status         string
	Site           string
	Limit          int
}

type ActionsStore interface {
	CreateAction(ctx context.Context, act *Action) error
	UpdateAction(ctx context.Context, act *Action) error
	GetAction(ctx context.Context, id int64) (*Action, error)
	ListActions(ctx context.Context, filter ActionFilter) ([]Action, error)
	NextActionSeq(ctx context.Context, scope string) (int64, error)
}

type actionsStore struct {
	db *sql.DB
}

func NewActionsStore(db *sql.DB) ActionsStore {
	return &actionsStore{db: db}
}

// CreateAction allocates the per-scope number inside the insert transaction
// when the caller has resolved a scope and left Number at zero.
func (s *actionsStore) CreateAction(ctx context.Context, act *Action) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if act.Number == 0 {
		scope := actionScope(act)
		if scope != "" {
			seq, err := nextActionSeqTx(ctx, tx, scope)
			if err != nil {
				return err
			}
			act.Number = seq
		}
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO actions(
			number, incident_number, action_category, reactive, proactive,
			action_date, month, target_date, status, site,
			non_conformance, area, department, description, responsible_person,
			created_at, updated_at, version
		) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,1)`,
		act.Number, strings.TrimSpace(act.IncidentNumber), act.ActionCategory,
		boolToInt(act.Reactive), boolToInt(act.Proactive),
		zeroableTime(act.ActionDate), act.Month, nullableTime(act.TargetDate),
		act.Status, act.Site, act.NonConformance, act.Area, act.Department,
		act.Description, act.ResponsiblePerson, now, now)
	if err != nil {
		return err
	}
	act.ID, _ = res.LastInsertId()
	act.CreatedAt = now
	act.UpdatedAt = now
	act.Version = 1
	return tx.Commit()
}

func (s *actionsStore) UpdateAction(ctx context.Context, act *Action) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE actions SET
			action_category=?, reactive=?, proactive=?,
			action_date=?, month=?, target_date=?, status=?, site=?,
			non_conformance=?, area=?, department=?, description=?, responsible_person=?,
			updated_at=?, version=version+1
		WHERE id=? AND version=?`,
		act.ActionCategory, boolToInt(act.Reactive), boolToInt(act.Proactive),
		zeroableTime(act.ActionDate), act.Month, nullableTime(act.TargetDate),
		act.Status, act.Site, act.NonConformance, act.Area, act.Department,
		act.Description, act.ResponsiblePerson, now, act.ID, act.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	act.UpdatedAt = now
	act.Version++
	return nil
}

func (s *actionsStore) GetAction(ctx context.Context, id int64) (*Action, error) {
	row := s.db.QueryRowContext(ctx, actionSelect+" WHERE id=?", id)
	act, err := scanAction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return act, err
}

func (s *actionsStore) ListActions(ctx context.Context, filter ActionFilter) ([]Action, error) {
	query := actionSelect
	var conds []string
	var args []any
	if filter.IncidentNumber != "" {
		conds = append(conds, "incident_number=?")
		args = append(args, filter.IncidentNumber)
	}
	if filter.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, filter.Status)
	}
	if filter.Site != "" {
		conds = append(conds, "site=?")
		args = append(args, filter.Site)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Action
	for rows.Next() {
		act, err := scanAction(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *act)
	}
	return res, rows.Err()
}

func (s *actionsStore) NextActionSeq(ctx context.Context, scope string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	seq, err := nextActionSeqTx(ctx, tx, scope)
	if err != nil {
		return 0, err
	}
	return seq, tx.Commit()
}

func nextActionSeqTx(ctx context.Context, tx *sql.Tx, scope string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO action_counters(scope, seq) VALUES(?, 1)
		ON CONFLICT (scope) DO UPDATE SET seq = action_counters.seq + 1
		RETURNING seq`, scope).Scan(&seq)
	return seq, err
}

// Reactive actions number within their incident; proactive ones within
// their action category.
func actionScope(act *Action) string {
	switch {
	case act.Reactive && act.IncidentNumber != "":
		return "incident:" + act.IncidentNumber
	case act.Proactive && act.ActionCategory != "":
		return "category:" + act.ActionCategory
	}
	return ""
}

const actionSelect = `
	SELECT id, number, incident_number, action_category, reactive, proactive,
		action_date, month, target_date, status, site,
		non_conformance, area, department, description, responsible_person,
		created_at, updated_at, version
	FROM actions`

func scanAction(scan func(dest ...any) error) (*Action, error) {
	var act Action
	var reactive, proactive int
	var actionDate, targetDate sql.NullTime
	if err := scan(
		&act.ID, &act.Number, &act.IncidentNumber, &act.ActionCategory, &reactive, &proactive,
		&actionDate, &act.Month, &targetDate, &act.Status, &act.Site,
		&act.NonConformance, &act.Area, &act.Department, &act.Description, &act.ResponsiblePerson,
		&act.CreatedAt, &act.UpdatedAt, &act.Version,
	); err != nil {
		return nil, err
	}
	act.Reactive = reactive == 1
	act.Proactive = proactive == 1
	act.ActionDate = timeFromNull(actionDate)
	if targetDate.Valid {
		t := targetDate.Time
		act.TargetDate = &t
	}
	return &act, nil
}
