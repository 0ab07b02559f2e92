package incidents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentinel-ehs/core/classify"
	"sentinel-ehs/core/numbering"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
	"sentinel-ehs/core/visibility"
)

// ErrUnissuedNumber rejects a create that carries a number the allocator never
// handed out (or one that another record already attached).
var ErrUnissuedNumber = errors.New("incident number was not issued by the allocator")

// Service owns the incident lifecycle: the single recompute pass over derived
// fields, aggregate attachment validation, numbering, and cross-record
// population from the employee and asset registries.
type Service struct {
	incidents store.IncidentsStore
	employees store.EmployeesStore
	assets    store.AssetsStore
	audits    store.AuditStore
	numbers   *numbering.Service
	registers *numbering.Service
	logger    *utils.Logger

	numberFormat string
	now          func() time.Time
}

func NewService(
	incidents store.IncidentsStore,
	employees store.EmployeesStore,
	assets store.AssetsStore,
	audits store.AuditStore,
	numberFormat string,
	logger *utils.Logger,
) *Service {
	if strings.TrimSpace(numberFormat) == "" {
		numberFormat = numbering.DefaultFormat
	}
	return &Service{
		incidents:    incidents,
		employees:    employees,
		assets:       assets,
		audits:       audits,
		numbers:      numbering.NewService(incidents, numberFormat),
		registers:    numbering.NewService(incidents, numbering.RegisterFormat),
		logger:       logger,
		numberFormat: numberFormat,
		now:          time.Now,
	}
}

// ConfigureRegisterFormat overrides the day-scoped register number template.
func (s *Service) ConfigureRegisterFormat(format string) {
	if strings.TrimSpace(format) != "" {
		s.registers = numbering.NewService(s.incidents, format)
	}
}

// Recompute runs the one derivation pass every save goes through: risk score,
// impact description, child-row ages, then clearing of every field the current
// discriminants hide. Derived values are never trusted from the caller.
func (s *Service) Recompute(inc *store.Incident) {
	score := classify.EvaluateRisk(inc.Consequence, inc.Likelihood)
	if score.Valid {
		inc.RiskRating = score.Rating
		inc.RiskLevel = string(score.Level)
	} else {
		inc.RiskRating = 0
		inc.RiskLevel = ""
	}

	inc.ImpactDescription = classify.ComposeImpactDescription(inc.Consequence, inc.Impact)

	today := s.now().UTC()
	for i := range inc.People {
		inc.People[i].AgeText = AgeText(today, inc.People[i].DateOfBirth)
	}

	for _, field := range visibility.FieldsToClear(s.discriminants(inc)) {
		clearField(inc, field)
	}
	normalizeEvidence(inc)
}

func (s *Service) discriminants(inc *store.Incident) visibility.Discriminants {
	cat, _ := classify.ParseCategory(inc.Category)
	return visibility.Discriminants{
		Category:            cat,
		Fatality:            inc.Fatality,
		MobileEquipment:     inc.MobileEquipment,
		Investigation:       inc.Investigation,
		SustainedInjuries:   inc.SustainedInjuries,
		InvestigationMethod: visibility.InvestigationMethod(inc.InvestigationMethod),
	}
}

// clearField blanks the record slot behind a hidden form field so a collapsed
// section never persists stale data.
func clearField(inc *store.Incident, field visibility.FieldID) {
	switch field {
	case visibility.FieldVFLTeamTable:
		inc.People = dropPeople(inc.People, store.PersonKindVFLTeam)
	case visibility.FieldInjuryTable:
		inc.People = dropPeople(inc.People, store.PersonKindInjured)
	case visibility.FieldInjuryDescription:
		inc.InjuryDescription = ""
	case visibility.FieldFatalityLocation:
		inc.FatalityDetail.LocationDescription = ""
	case visibility.FieldInjuredOnSite:
		inc.FatalityDetail.InjuredOnSite = false
	case visibility.FieldInjuredOnDuty:
		inc.FatalityDetail.InjuredOnDuty = false
	case visibility.FieldFatalityDatetime:
		inc.FatalityDetail.OccurredAt = nil
	case visibility.FieldCauseOfDeath:
		inc.FatalityDetail.CauseOfDeath = ""
	case visibility.FieldDamageDescription:
		inc.Equipment.DamageDescription = ""
	case visibility.FieldVehicleID:
		inc.Equipment.VehicleID = ""
	case visibility.FieldVehicleDescription:
		inc.Equipment.VehicleCategory = ""
	case visibility.FieldAssetName:
		inc.Equipment.AssetName = ""
	case visibility.FieldVehicleMake:
		inc.Equipment.Manufacturer = ""
	case visibility.FieldVehicleModel:
		inc.Equipment.Model = ""
	case visibility.FieldLicensePlate:
		inc.Equipment.LicensePlate = ""
	case visibility.FieldPlantLocation:
		inc.Equipment.PlantLocation = ""
	case visibility.FieldCompanyOwned:
		inc.Equipment.CompanyOwned = false
	case visibility.FieldAssetOperational:
		inc.Equipment.Operational = false
	case visibility.FieldInvestigatorID:
		inc.Investigator.PersonID = ""
	case visibility.FieldInvestigatorDept:
		inc.Investigator.Department = ""
	case visibility.FieldInvestigatorName:
		inc.Investigator.FullName = ""
	case visibility.FieldFiveWhy, visibility.FieldFishbone, visibility.FieldICAM:
		delete(inc.Evidence, string(field))
	}
}

func dropPeople(people []store.PersonRow, kind string) []store.PersonRow {
	out := people[:0]
	for _, p := range people {
		if p.Kind != kind {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Create recomputes, validates, and persists a new incident. The number is
// allocated inside the store transaction when category and occurrence time are
// both present; otherwise the record saves unnumbered.
func (s *Service) Create(ctx context.Context, inc *store.Incident, actor string) (int64, error) {
	s.Recompute(inc)
	if err := ValidateAttachments(inc); err != nil {
		return 0, err
	}
	// A number handed out by the allocator RPC before first save is kept;
	// anything else non-empty is rejected so callers cannot mint numbers.
	if inc.Number != "" && !s.numbers.Claim(inc.Number) {
		return 0, ErrUnissuedNumber
	}
	id, err := s.incidents.CreateIncident(ctx, inc, s.numberFormat)
	if err != nil {
		return 0, fmt.Errorf("create incident: %w", err)
	}
	s.audit(ctx, actor, "incident.create", inc.Number)
	return id, nil
}

// Update recomputes and persists under optimistic versioning. The stored
// number is never replaced, whatever the payload carries.
func (s *Service) Update(ctx context.Context, inc *store.Incident, expectedVersion int, actor string) error {
	s.Recompute(inc)
	if err := ValidateAttachments(inc); err != nil {
		return err
	}
	if err := s.incidents.UpdateIncident(ctx, inc, expectedVersion); err != nil {
		return err
	}
	s.audit(ctx, actor, "incident.update", inc.Number)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*store.Incident, error) {
	return s.incidents.GetIncident(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*store.Incident, error) {
	return s.incidents.GetIncidentByNumber(ctx, number)
}

func (s *Service) List(ctx context.Context, filter store.IncidentFilter) ([]store.Incident, error) {
	return s.incidents.ListIncidents(ctx, filter)
}

// Preview runs the derivation pass without persisting, for form previews.
func (s *Service) Preview(inc *store.Incident) *store.Incident {
	s.Recompute(inc)
	return inc
}

// AllocateNumber is the explicit allocator RPC. recordKey identifies the
// requesting form instance; a second call for the same key while one is in
// flight fails with numbering.ErrAllocationInFlight instead of consuming
// another sequence slot.
func (s *Service) AllocateNumber(ctx context.Context, recordKey, category string, occurredAt time.Time) (string, error) {
	cat, _ := classify.ParseCategory(category)
	if occurredAt.IsZero() {
		return "", fmt.Errorf("occurrence time is required for number allocation")
	}
	number, err := s.numbers.Allocate(ctx, recordKey, numbering.MonthScope(cat, occurredAt))
	if err != nil {
		return "", err
	}
	s.audit(ctx, "", "incident.number.allocate", number)
	return number, nil
}

// AllocateRegisterNumber issues the day-scoped safety register number. The
// counter runs per calendar day under the GEN code, so the rendered value only
// carries the date and the sequence.
func (s *Service) AllocateRegisterNumber(ctx context.Context, recordKey string, occurredAt time.Time) (string, error) {
	if occurredAt.IsZero() {
		return "", fmt.Errorf("occurrence time is required for register number allocation")
	}
	number, err := s.registers.Allocate(ctx, recordKey, numbering.DayScope(classify.CategoryGeneral, occurredAt))
	if err != nil {
		return "", err
	}
	s.audit(ctx, "", "incident.register.allocate", number)
	return number, nil
}

// NumberFilter builds the substring pattern pickers use to narrow incident
// numbers to one category, e.g. "%/INC/%".
func NumberFilter(category string) string {
	cat, ok := classify.ParseCategory(category)
	if !ok {
		return ""
	}
	return "%/" + string(cat.Code()) + "/%"
}

func (s *Service) audit(ctx context.Context, actor, action, details string) {
	if s.audits == nil {
		return
	}
	rec := store.AuditRecord{Actor: actor, Action: action, Details: details}
	if err := s.audits.Append(ctx, &rec); err != nil {
		s.logger.Printf("audit append failed for %s: %v", action, err)
	}
}

// AgeText renders an age as "N years M months", counting whole months and
// borrowing a year when the month delta goes negative. Empty when the date of
// birth is unknown.
func AgeText(today time.Time, dob *time.Time) string {
	if dob == nil || dob.IsZero() {
		return ""
	}
	years := today.Year() - dob.Year()
	months := int(today.Month()) - int(dob.Month())
	if today.Day() < dob.Day() {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}
	return fmt.Sprintf("%d years %d months", years, months)
}
