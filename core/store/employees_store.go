package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type Employee struct {
	ID          string     `json:"id"`
	FullName    string     `json:"full_name,omitempty"`
	IDNumber    string     `json:"id_number,omitempty"`
	Department  string     `json:"department,omitempty"`
	Section     string     `json:"section,omitempty"`
	Company     string     `json:"company,omitempty"`
	Designation string     `json:"designation,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// EmployeesStore is the read collaborator for fetch-and-copy population.
// Get returns nil (not an error) when the employee does not exist; callers
// treat every copied field as optional.
type EmployeesStore interface {
	Get(ctx context.Context, id string) (*Employee, error)
	Upsert(ctx context.Context, emp *Employee) error
}

type employeesStore struct {
	db *sql.DB
}

func NewEmployeesStore(db *sql.DB) EmployeesStore {
	return &employeesStore{db: db}
}

func (s *employeesStore) Get(ctx context.Context, id string) (*Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, id_number, department, section, company, designation, date_of_birth
		FROM employees WHERE id=?`, strings.TrimSpace(id))
	var emp Employee
	var dob sql.NullTime
	if err := row.Scan(&emp.ID, &emp.FullName, &emp.IDNumber, &emp.Department, &emp.Section, &emp.Company, &emp.Designation, &dob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		emp.DateOfBirth = &t
	}
	return &emp, nil
}

func (s *employeesStore) Upsert(ctx context.Context, emp *Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees(id, full_name, id_number, department, section, company, designation, date_of_birth)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			full_name=excluded.full_name, id_number=excluded.id_number, department=excluded.department,
			section=excluded.section, company=excluded.company, designation=excluded.designation,
			date_of_birth=excluded.date_of_birth`,
		strings.TrimSpace(emp.ID), emp.FullName, emp.IDNumber, emp.Department, emp.Section, emp.Company, emp.Designation, nullableTime(emp.DateOfBirth))
	return err
}
