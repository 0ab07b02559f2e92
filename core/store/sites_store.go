package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type SiteConfig struct {
	Site        string    `json:"site"`
	Complex     string    `json:"complex"`
	Colour      string    `json:"colour,omitempty"`
	StartDate   time.Time `json:"start_date"`
	LTIFRTarget *float64  `json:"ltifr_target,omitempty"`
	LTIFRActual *float64  `json:"ltifr_actual,omitempty"`
}

type ReportSettings struct {
	CompanyLTIFRTarget *float64 `json:"company_ltifr_target,omitempty"`
	CompanyLTIFRActual *float64 `json:"company_ltifr_actual,omitempty"`
	CompanyColour      string   `json:"company_colour,omitempty"`
}

type SitesStore interface {
	Get(ctx context.Context, site string) (*SiteConfig, error)
	List(ctx context.Context) ([]SiteConfig, error)
	Upsert(ctx context.Context, cfg *SiteConfig) error
	GetReportSettings(ctx context.Context) (*ReportSettings, error)
	SaveReportSettings(ctx context.Context, settings *ReportSettings) error
}

type sitesStore struct {
	db *sql.DB
}

func NewSitesStore(db *sql.DB) SitesStore {
	return &sitesStore{db: db}
}

func (s *sitesStore) Get(ctx context.Context, site string) (*SiteConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT site, complex, colour, start_date, ltifr_target, ltifr_actual
		FROM site_configs WHERE site=?`, strings.TrimSpace(site))
	cfg, err := scanSiteConfig(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cfg, err
}

func (s *sitesStore) List(ctx context.Context) ([]SiteConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT site, complex, colour, start_date, ltifr_target, ltifr_actual
		FROM site_configs ORDER BY complex, site`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SiteConfig
	for rows.Next() {
		cfg, err := scanSiteConfig(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *cfg)
	}
	return res, rows.Err()
}

func (s *sitesStore) Upsert(ctx context.Context, cfg *SiteConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_configs(site, complex, colour, start_date, ltifr_target, ltifr_actual)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT (site) DO UPDATE SET
			complex=excluded.complex, colour=excluded.colour, start_date=excluded.start_date,
			ltifr_target=excluded.ltifr_target, ltifr_actual=excluded.ltifr_actual`,
		strings.TrimSpace(cfg.Site), cfg.Complex, cfg.Colour, cfg.StartDate.UTC(), cfg.LTIFRTarget, cfg.LTIFRActual)
	return err
}

func (s *sitesStore) GetReportSettings(ctx context.Context) (*ReportSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT company_ltifr_target, company_ltifr_actual, company_colour
		FROM report_settings WHERE id=1`)
	var settings ReportSettings
	var target, actual sql.NullFloat64
	if err := row.Scan(&target, &actual, &settings.CompanyColour); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ReportSettings{}, nil
		}
		return nil, err
	}
	if target.Valid {
		settings.CompanyLTIFRTarget = &target.Float64
	}
	if actual.Valid {
		settings.CompanyLTIFRActual = &actual.Float64
	}
	return &settings, nil
}

func (s *sitesStore) SaveReportSettings(ctx context.Context, settings *ReportSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_settings(id, company_ltifr_target, company_ltifr_actual, company_colour)
		VALUES(1,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			company_ltifr_target=excluded.company_ltifr_target,
			company_ltifr_actual=excluded.company_ltifr_actual,
			company_colour=excluded.company_colour`,
		settings.CompanyLTIFRTarget, settings.CompanyLTIFRActual, settings.CompanyColour)
	return err
}

func scanSiteConfig(scan func(dest ...any) error) (*SiteConfig, error) {
	var cfg SiteConfig
	var target, actual sql.NullFloat64
	if err := scan(&cfg.Site, &cfg.Complex, &cfg.Colour, &cfg.StartDate, &target, &actual); err != nil {
		return nil, err
	}
	if target.Valid {
		cfg.LTIFRTarget = &target.Float64
	}
	if actual.Valid {
		cfg.LTIFRActual = &actual.Float64
	}
	return &cfg, nil
}
