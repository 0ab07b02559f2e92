package visibility

import (
	"sort"

	"sentinel-ehs/core/classify"
)

// InvestigationMethod selects which analysis attachment slot is relevant.
type InvestigationMethod string

const (
	MethodNone     InvestigationMethod = ""
	MethodFiveWhy  InvestigationMethod = "5 Why"
	MethodFishbone InvestigationMethod = "Fishbone"
	MethodICAM     InvestigationMethod = "ICAM"
)

// Discriminants are the field values that decide which other fields are
// relevant. Visibility is a pure function of this struct; recomputing it after
// any change yields the complete set in one pass.
type Discriminants struct {
	Category            classify.Category
	Fatality            bool
	MobileEquipment     bool
	Investigation       bool
	SustainedInjuries   bool
	InvestigationMethod InvestigationMethod
}

// observationFields is the minimal set shown for restricted observation
// categories (PTO, VFL, INS, AUD).
var observationFields = []FieldID{
	FieldEventCategory,
	FieldRegion,
	FieldSite,
	FieldLocationOnSite,
	FieldOccurredAt,
	FieldReporterCoyNumber,
	FieldReporterName,
	FieldEmployeeID,
	FieldIncidentNumber,
	FieldEventDescription,
	FieldEmployer,
}

// standardFields is everything always visible on a full incident form,
// including the discriminant selectors themselves.
var standardFields = append(append([]FieldID{}, observationFields...),
	FieldIncidentType,
	FieldConsequence,
	FieldLikelihood,
	FieldRiskRating,
	FieldRiskLevel,
	FieldImpactDescription,
	FieldHarmToPeople,
	FieldEnvironmental,
	FieldBusinessInterrupt,
	FieldLegalRegulatory,
	FieldCommunityImpact,
	FieldFatality,
	FieldEquipmentInvolved,
	FieldToBeInvestigated,
	FieldSustainedInjuries,
	FieldInvestigationType,
)

var fatalityFields = []FieldID{
	FieldFatalityLocation,
	FieldInjuredOnSite,
	FieldInjuredOnDuty,
	FieldFatalityDatetime,
	FieldCauseOfDeath,
}

var equipmentFields = []FieldID{
	FieldDamageDescription,
	FieldVehicleID,
	FieldVehicleDescription,
	FieldAssetName,
	FieldVehicleMake,
	FieldVehicleModel,
	FieldLicensePlate,
	FieldPlantLocation,
	FieldCompanyOwned,
	FieldAssetOperational,
}

var investigationFields = []FieldID{
	FieldInvestigatorID,
	FieldInvestigatorDept,
	FieldInvestigatorName,
}

var injuryFields = []FieldID{
	FieldInjuryDescription,
	FieldInjuryTable,
}

var methodAttachments = map[InvestigationMethod]FieldID{
	MethodFiveWhy:  FieldFiveWhy,
	MethodFishbone: FieldFishbone,
	MethodICAM:     FieldICAM,
}

// governedFields are all fields any rule can hide; the clearing pass operates
// only on this set so ungoverned data is never touched.
var governedFields = func() []FieldID {
	out := append([]FieldID{}, fatalityFields...)
	out = append(out, equipmentFields...)
	out = append(out, investigationFields...)
	out = append(out, injuryFields...)
	out = append(out, FieldVFLTeamTable, FieldFiveWhy, FieldFishbone, FieldICAM)
	return out
}()

// Visible computes the full visible-field set for the given discriminants.
// Rules compose independently; a restricted observation category collapses the
// form to the minimal set regardless of the other flags. An unspecified or
// unknown category falls back to the most permissive standard form.
func Visible(d Discriminants) FieldSet {
	if d.Category.Restricted() {
		set := newFieldSet(observationFields...)
		if d.Category == classify.CategoryVFL {
			set.add(FieldVFLTeamTable)
		}
		return set
	}

	set := newFieldSet(standardFields...)
	if d.Fatality {
		set.add(fatalityFields...)
	}
	if d.MobileEquipment {
		set.add(equipmentFields...)
	}
	if d.Investigation {
		set.add(investigationFields...)
	}
	if d.SustainedInjuries {
		set.add(injuryFields...)
	}
	if field, ok := methodAttachments[d.InvestigationMethod]; ok {
		set.add(field)
	}
	return set
}

// FieldsToClear lists governed fields hidden under the given discriminants.
// Persisting a record must blank these so a hidden section never submits
// stale data. The result is sorted for deterministic application.
func FieldsToClear(d Discriminants) []FieldID {
	visible := Visible(d)
	var out []FieldID
	for _, id := range governedFields {
		if !visible.Has(id) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
