package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentinel-ehs/core/classify"
	"sentinel-ehs/core/numbering"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

type Incident struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	Category   string    `json:"category"`
	OccurredAt time.Time `json:"occurred_at"`

	Region            string `json:"region,omitempty"`
	Site              string `json:"site,omitempty"`
	LocationOnSite    string `json:"location_on_site,omitempty"`
	ReporterName      string `json:"reporter_name,omitempty"`
	ReporterCoyNumber string `json:"reporter_coy_number,omitempty"`
	EmployeeID        string `json:"employee_id,omitempty"`
	Employer          string `json:"employer,omitempty"`
	Description       string `json:"description,omitempty"`

	IncidentType   string `json:"incident_type,omitempty"`
	NatureOfInjury string `json:"nature_of_injury,omitempty"`
	Shift          string `json:"shift,omitempty"`

	Consequence       int                  `json:"consequence,omitempty"`
	Likelihood        int                  `json:"likelihood,omitempty"`
	RiskRating        int                  `json:"risk_rating,omitempty"`
	RiskLevel         string               `json:"risk_level,omitempty"`
	Impact            classify.ImpactFlags `json:"impact"`
	ImpactDescription string               `json:"impact_description,omitempty"`

	LTI                  bool `json:"lti,omitempty"`
	MedicalTreatmentCase bool `json:"medical_treatment_case,omitempty"`
	FirstAidCase         bool `json:"first_aid_case,omitempty"`
	PropertyDamage       bool `json:"property_damage,omitempty"`
	TMM                  bool `json:"tmm,omitempty"`

	Fatality            bool              `json:"fatality,omitempty"`
	FatalityDetail      FatalityDetail    `json:"fatality_detail,omitempty"`
	MobileEquipment     bool              `json:"mobile_equipment,omitempty"`
	Equipment           EquipmentDetail   `json:"equipment,omitempty"`
	Investigation       bool              `json:"investigation,omitempty"`
	Investigator        InvestigatorInfo  `json:"investigator,omitempty"`
	InvestigationMethod string            `json:"investigation_method,omitempty"`
	SustainedInjuries   bool              `json:"sustained_injuries,omitempty"`
	InjuryDescription   string            `json:"injury_description,omitempty"`
	People              []PersonRow       `json:"people,omitempty"`
	Evidence            map[string][]string `json:"evidence,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type FatalityDetail struct {
	LocationDescription string     `json:"location_description,omitempty"`
	InjuredOnSite       bool       `json:"injured_on_site,omitempty"`
	InjuredOnDuty       bool       `json:"injured_on_duty,omitempty"`
	OccurredAt          *time.Time `json:"occurred_at,omitempty"`
	CauseOfDeath        string     `json:"cause_of_death,omitempty"`
}

type EquipmentDetail struct {
	DamageDescription string `json:"damage_description,omitempty"`
	VehicleID         string `json:"vehicle_id,omitempty"`
	VehicleCategory   string `json:"vehicle_category,omitempty"`
	AssetName         string `json:"asset_name,omitempty"`
	Manufacturer      string `json:"manufacturer,omitempty"`
	Model             string `json:"model,omitempty"`
	LicensePlate      string `json:"license_plate,omitempty"`
	PlantLocation     string `json:"plant_location,omitempty"`
	CompanyOwned      bool   `json:"company_owned,omitempty"`
	Operational       bool   `json:"operational,omitempty"`
}

type InvestigatorInfo struct {
	PersonID   string `json:"person_id,omitempty"`
	Department string `json:"department,omitempty"`
	FullName   string `json:"full_name,omitempty"`
}

// PersonRow is a child-table row: injured person, damage responsible, or VFL
// team member, discriminated by Kind.
type PersonRow struct {
	ID         int64      `json:"id,omitempty"`
	Kind       string     `json:"kind"`
	EmployeeID string     `json:"employee_id,omitempty"`
	FullName   string     `json:"full_name,omitempty"`
	CoyNumber  string     `json:"coy_number,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	AgeText    string     `json:"age_text,omitempty"`
}

const (
	PersonKindInjured   = "injured"
	PersonKindDamagedBy = "damaged_by"
	PersonKindVFLTeam   = "vfl_team"
)

type IncidentFilter struct {
	Category       string
	Site           string
	NumberContains string
	Search         string
	From           time.Time
	To             time.Time
	Limit          int
	Offset         int
}

// ClassFlagRow is the lightweight projection the safe-days report consumes.
type ClassFlagRow struct {
	Number     string
	Site       string
	OccurredAt time.Time
	LTI        bool
	MTC        bool
	FAC        bool
	PDI        bool
	ENV        bool
}

// NatureCount aggregates injury incidents by nature and calendar bucket.
type NatureCount struct {
	Nature string
	Year   int
	Month  int
	Total  int
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, inc *Incident, numberFormat string) (int64, error)
	UpdateIncident(ctx context.Context, inc *Incident, expectedVersion int) error
	GetIncident(ctx context.Context, id int64) (*Incident, error)
	GetIncidentByNumber(ctx context.Context, number string) (*Incident, error)
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error)

	// NextNumberSeq atomically advances and returns the counter for the scope.
	NextNumberSeq(ctx context.Context, category, period string) (int64, error)

	ListClassFlags(ctx context.Context, sites []string, from, to time.Time) ([]ClassFlagRow, error)
	ListInjuryNatureCounts(ctx context.Context, site string, from, to time.Time) ([]NatureCount, error)
}

type incidentsStore struct {
	db *sql.DB
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `id, number, category, occurred_at, region, site, location_on_site,
	reporter_name, reporter_coy_number, employee_id, employer, description,
	incident_type, nature_of_injury, shift,
	consequence, likelihood, risk_rating, risk_level,
	harm_to_people, environmental_impact, business_interruption, legal_and_regulatory, impact_on_community,
	impact_description, lti, medical_treatment_case, first_aid_case, property_damage, tmm,
	fatality, fatality_json, mobile_equipment, equipment_json,
	investigation, investigator_json, investigation_method,
	sustained_injuries, injury_description, evidence_json,
	created_at, updated_at, version`

func (s *incidentsStore) CreateIncident(ctx context.Context, inc *Incident, numberFormat string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(inc.Number) == "" && inc.Category != "" && !inc.OccurredAt.IsZero() {
		cat, _ := classify.ParseCategory(inc.Category)
		scope := numbering.MonthScope(cat, inc.OccurredAt)
		seq, err := nextSeqTx(ctx, tx, scope.Category.Code(), scope.Period)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		inc.Number = numbering.Render(numberFormat, scope, seq)
	}
	if inc.Version <= 0 {
		inc.Version = 1
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO incidents(number, category, occurred_at, region, site, location_on_site,
			reporter_name, reporter_coy_number, employee_id, employer, description,
			incident_type, nature_of_injury, shift,
			consequence, likelihood, risk_rating, risk_level,
			harm_to_people, environmental_impact, business_interruption, legal_and_regulatory, impact_on_community,
			impact_description, lti, medical_treatment_case, first_aid_case, property_damage, tmm,
			fatality, fatality_json, mobile_equipment, equipment_json,
			investigation, investigator_json, investigation_method,
			sustained_injuries, injury_description, evidence_json,
			created_at, updated_at, version)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		inc.Number, inc.Category, zeroableTime(inc.OccurredAt), inc.Region, inc.Site, inc.LocationOnSite,
		inc.ReporterName, inc.ReporterCoyNumber, inc.EmployeeID, inc.Employer, inc.Description,
		inc.IncidentType, inc.NatureOfInjury, inc.Shift,
		inc.Consequence, inc.Likelihood, inc.RiskRating, inc.RiskLevel,
		boolToInt(inc.Impact.HarmToPeople), boolToInt(inc.Impact.EnvironmentalImpact), boolToInt(inc.Impact.BusinessInterruption), boolToInt(inc.Impact.LegalAndRegulatory), boolToInt(inc.Impact.ImpactOnCommunity),
		inc.ImpactDescription, boolToInt(inc.LTI), boolToInt(inc.MedicalTreatmentCase), boolToInt(inc.FirstAidCase), boolToInt(inc.PropertyDamage), boolToInt(inc.TMM),
		boolToInt(inc.Fatality), toJSON(inc.FatalityDetail), boolToInt(inc.MobileEquipment), toJSON(inc.Equipment),
		boolToInt(inc.Investigation), toJSON(inc.Investigator), inc.InvestigationMethod,
		boolToInt(inc.SustainedInjuries), inc.InjuryDescription, toJSON(inc.Evidence),
		now, now, inc.Version)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	id, _ := res.LastInsertId()
	inc.ID = id
	if err := replacePeopleTx(ctx, tx, id, inc.People); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	inc.CreatedAt = now
	inc.UpdatedAt = now
	return id, nil
}

// UpdateIncident never touches the number column: once assigned, the sequence
// number stays fixed even when category or occurrence time change.
func (s *incidentsStore) UpdateIncident(ctx context.Context, inc *Incident, expectedVersion int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE incidents SET category=?, occurred_at=?, region=?, site=?, location_on_site=?,
			reporter_name=?, reporter_coy_number=?, employee_id=?, employer=?, description=?,
			incident_type=?, nature_of_injury=?, shift=?,
			consequence=?, likelihood=?, risk_rating=?, risk_level=?,
			harm_to_people=?, environmental_impact=?, business_interruption=?, legal_and_regulatory=?, impact_on_community=?,
			impact_description=?, lti=?, medical_treatment_case=?, first_aid_case=?, property_damage=?, tmm=?,
			fatality=?, fatality_json=?, mobile_equipment=?, equipment_json=?,
			investigation=?, investigator_json=?, investigation_method=?,
			sustained_injuries=?, injury_description=?, evidence_json=?,
			updated_at=?, version=version+1
		WHERE id=? AND version=?`,
		inc.Category, zeroableTime(inc.OccurredAt), inc.Region, inc.Site, inc.LocationOnSite,
		inc.ReporterName, inc.ReporterCoyNumber, inc.EmployeeID, inc.Employer, inc.Description,
		inc.IncidentType, inc.NatureOfInjury, inc.Shift,
		inc.Consequence, inc.Likelihood, inc.RiskRating, inc.RiskLevel,
		boolToInt(inc.Impact.HarmToPeople), boolToInt(inc.Impact.EnvironmentalImpact), boolToInt(inc.Impact.BusinessInterruption), boolToInt(inc.Impact.LegalAndRegulatory), boolToInt(inc.Impact.ImpactOnCommunity),
		inc.ImpactDescription, boolToInt(inc.LTI), boolToInt(inc.MedicalTreatmentCase), boolToInt(inc.FirstAidCase), boolToInt(inc.PropertyDamage), boolToInt(inc.TMM),
		boolToInt(inc.Fatality), toJSON(inc.FatalityDetail), boolToInt(inc.MobileEquipment), toJSON(inc.Equipment),
		boolToInt(inc.Investigation), toJSON(inc.Investigator), inc.InvestigationMethod,
		boolToInt(inc.SustainedInjuries), inc.InjuryDescription, toJSON(inc.Evidence),
		now, inc.ID, expectedVersion)
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		tx.Rollback()
		return ErrConflict
	}
	if err := replacePeopleTx(ctx, tx, inc.ID, inc.People); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	inc.Version = expectedVersion + 1
	inc.UpdatedAt = now
	return nil
}

func (s *incidentsStore) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	inc, err := scanIncident(row.Scan)
	if err != nil || inc == nil {
		return inc, err
	}
	inc.People, err = s.loadPeople(ctx, inc.ID)
	return inc, err
}

func (s *incidentsStore) GetIncidentByNumber(ctx context.Context, number string) (*Incident, error) {
	if strings.TrimSpace(number) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE number=?`, number)
	inc, err := scanIncident(row.Scan)
	if err != nil || inc == nil {
		return inc, err
	}
	inc.People, err = s.loadPeople(ctx, inc.ID)
	return inc, err
}

func (s *incidentsStore) ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	var clauses []string
	var args []any
	if filter.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, filter.Category)
	}
	if filter.Site != "" {
		clauses = append(clauses, "site=?")
		args = append(args, filter.Site)
	}
	if filter.NumberContains != "" {
		clauses = append(clauses, "number LIKE ?")
		args = append(args, "%"+filter.NumberContains+"%")
	}
	if filter.Search != "" {
		clauses = append(clauses, "(description LIKE ? OR number LIKE ? OR reporter_name LIKE ?)")
		q := "%" + filter.Search + "%"
		args = append(args, q, q, q)
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "occurred_at <= ?")
		args = append(args, filter.To.UTC())
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		inc, err := scanIncident(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *inc)
	}
	return res, rows.Err()
}

func (s *incidentsStore) NextNumberSeq(ctx context.Context, category, period string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	seq, err := nextSeqTx(ctx, tx, category, period)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return seq, nil
}

// nextSeqTx is the atomic increment-and-read: the upsert serializes concurrent
// allocations for the same (category, period) row while leaving other scopes
// free to proceed.
func nextSeqTx(ctx context.Context, tx *sql.Tx, category, period string) (int64, error) {
	var seq int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO number_counters(category, period, seq)
		VALUES(?,?,1)
		ON CONFLICT (category, period)
		DO UPDATE SET seq = number_counters.seq + 1
		RETURNING seq
	`, category, period).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func replacePeopleTx(ctx context.Context, tx *sql.Tx, incidentID int64, people []PersonRow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM incident_people WHERE incident_id=?`, incidentID); err != nil {
		return err
	}
	for i := range people {
		p := &people[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO incident_people(incident_id, kind, employee_id, full_name, coy_number, date_of_birth, age_text)
			VALUES(?,?,?,?,?,?,?)`,
			incidentID, p.Kind, p.EmployeeID, p.FullName, p.CoyNumber, nullableTime(p.DateOfBirth), p.AgeText)
		if err != nil {
			return err
		}
		p.ID, _ = res.LastInsertId()
	}
	return nil
}

func (s *incidentsStore) loadPeople(ctx context.Context, incidentID int64) ([]PersonRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, employee_id, full_name, coy_number, date_of_birth, age_text
		FROM incident_people WHERE incident_id=? ORDER BY id ASC`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []PersonRow
	for rows.Next() {
		var p PersonRow
		var dob sql.NullTime
		if err := rows.Scan(&p.ID, &p.Kind, &p.EmployeeID, &p.FullName, &p.CoyNumber, &dob, &p.AgeText); err != nil {
			return nil, err
		}
		if dob.Valid {
			t := dob.Time
			p.DateOfBirth = &t
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func scanIncident(scan func(dest ...any) error) (*Incident, error) {
	var inc Incident
	var occurred sql.NullTime
	var harm, env, biz, legal, community int
	var lti, mtc, fac, pdi, tmm int
	var fatality, equipment, investigation, injuries int
	var fatalityRaw, equipmentRaw, investigatorRaw, evidenceRaw string
	if err := scan(&inc.ID, &inc.Number, &inc.Category, &occurred, &inc.Region, &inc.Site, &inc.LocationOnSite,
		&inc.ReporterName, &inc.ReporterCoyNumber, &inc.EmployeeID, &inc.Employer, &inc.Description,
		&inc.IncidentType, &inc.NatureOfInjury, &inc.Shift,
		&inc.Consequence, &inc.Likelihood, &inc.RiskRating, &inc.RiskLevel,
		&harm, &env, &biz, &legal, &community,
		&inc.ImpactDescription, &lti, &mtc, &fac, &pdi, &tmm,
		&fatality, &fatalityRaw, &equipment, &equipmentRaw,
		&investigation, &investigatorRaw, &inc.InvestigationMethod,
		&injuries, &inc.InjuryDescription, &evidenceRaw,
		&inc.CreatedAt, &inc.UpdatedAt, &inc.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	inc.OccurredAt = timeFromNull(occurred)
	inc.Impact = classify.ImpactFlags{
		HarmToPeople:         harm == 1,
		EnvironmentalImpact:  env == 1,
		BusinessInterruption: biz == 1,
		LegalAndRegulatory:   legal == 1,
		ImpactOnCommunity:    community == 1,
	}
	inc.LTI = lti == 1
	inc.MedicalTreatmentCase = mtc == 1
	inc.FirstAidCase = fac == 1
	inc.PropertyDamage = pdi == 1
	inc.TMM = tmm == 1
	inc.Fatality = fatality == 1
	inc.MobileEquipment = equipment == 1
	inc.Investigation = investigation == 1
	inc.SustainedInjuries = injuries == 1
	inc.FatalityDetail = fromJSON[FatalityDetail](fatalityRaw)
	inc.Equipment = fromJSON[EquipmentDetail](equipmentRaw)
	inc.Investigator = fromJSON[InvestigatorInfo](investigatorRaw)
	inc.Evidence = fromJSON[map[string][]string](evidenceRaw)
	return &inc, nil
}

func (s *incidentsStore) ListClassFlags(ctx context.Context, sites []string, from, to time.Time) ([]ClassFlagRow, error) {
	var clauses []string
	var args []any
	clauses = append(clauses, "category=?")
	args = append(args, string(classify.CategoryIncident))
	if len(sites) > 0 {
		placeholders := strings.TrimRight(strings.Repeat("?,", len(sites)), ",")
		clauses = append(clauses, fmt.Sprintf("site IN (%s)", placeholders))
		for _, site := range sites {
			args = append(args, site)
		}
	}
	if !from.IsZero() {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		clauses = append(clauses, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	query := `SELECT number, site, occurred_at, lti, medical_treatment_case, first_aid_case,
			property_damage, tmm, environmental_impact
		FROM incidents WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY occurred_at ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ClassFlagRow
	for rows.Next() {
		var r ClassFlagRow
		var occurred sql.NullTime
		var lti, mtc, fac, pdi, tmm, env int
		if err := rows.Scan(&r.Number, &r.Site, &occurred, &lti, &mtc, &fac, &pdi, &tmm, &env); err != nil {
			return nil, err
		}
		r.OccurredAt = timeFromNull(occurred)
		r.LTI = lti == 1
		r.MTC = mtc == 1
		r.FAC = fac == 1
		// Property damage and trackless mobile machinery incidents roll into
		// the same damage column on the report.
		r.PDI = pdi == 1 || tmm == 1
		r.ENV = env == 1
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *incidentsStore) ListInjuryNatureCounts(ctx context.Context, site string, from, to time.Time) ([]NatureCount, error) {
	clauses := []string{
		"incident_type = 'Injury'",
		"nature_of_injury != ''",
		"occurred_at >= ?",
		"occurred_at <= ?",
	}
	args := []any{from.UTC(), to.UTC()}
	if site != "" {
		clauses = append(clauses, "site=?")
		args = append(args, site)
	}
	query := `SELECT nature_of_injury, occurred_at
		FROM incidents WHERE ` + strings.Join(clauses, " AND ")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	// Bucket in Go; date functions diverge between sqlite and postgres.
	counts := map[NatureCount]int{}
	for rows.Next() {
		var nature string
		var occurred sql.NullTime
		if err := rows.Scan(&nature, &occurred); err != nil {
			return nil, err
		}
		if !occurred.Valid {
			continue
		}
		at := occurred.Time.UTC()
		key := NatureCount{Nature: strings.TrimSpace(nature), Year: at.Year(), Month: int(at.Month())}
		counts[key]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res := make([]NatureCount, 0, len(counts))
	for key, total := range counts {
		key.Total = total
		res = append(res, key)
	}
	return res, nil
}
