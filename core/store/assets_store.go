package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type Asset struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Category      string `json:"category,omitempty"`
	Manufacturer  string `json:"manufacturer,omitempty"`
	Model         string `json:"model,omitempty"`
	LicensePlate  string `json:"license_plate,omitempty"`
	PlantLocation string `json:"plant_location,omitempty"`
	CompanyOwned  bool   `json:"company_owned,omitempty"`
	Operational   bool   `json:"operational,omitempty"`
}

// AssetsStore mirrors EmployeesStore: nil result on not-found.
type AssetsStore interface {
	Get(ctx context.Context, id string) (*Asset, error)
	Upsert(ctx context.Context, asset *Asset) error
}

type assetsStore struct {
	db *sql.DB
}

func NewAssetsStore(db *sql.DB) AssetsStore {
	return &assetsStore{db: db}
}

func (s *assetsStore) Get(ctx context.Context, id string) (*Asset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, manufacturer, model, license_plate, plant_location, company_owned, operational
		FROM assets WHERE id=?`, strings.TrimSpace(id))
	var a Asset
	var owned, operational int
	if err := row.Scan(&a.ID, &a.Name, &a.Category, &a.Manufacturer, &a.Model, &a.LicensePlate, &a.PlantLocation, &owned, &operational); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.CompanyOwned = owned == 1
	a.Operational = operational == 1
	return &a, nil
}

func (s *assetsStore) Upsert(ctx context.Context, asset *Asset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets(id, name, category, manufacturer, model, license_plate, plant_location, company_owned, operational)
		VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			name=excluded.name, category=excluded.category, manufacturer=excluded.manufacturer,
			model=excluded.model, license_plate=excluded.license_plate, plant_location=excluded.plant_location,
			company_owned=excluded.company_owned, operational=excluded.operational`,
		strings.TrimSpace(asset.ID), asset.Name, asset.Category, asset.Manufacturer, asset.Model,
		asset.LicensePlate, asset.PlantLocation, boolToInt(asset.CompanyOwned), boolToInt(asset.Operational))
	return err
}
