package visibility

// FieldID identifies a form field governed by the visibility rules. Using a
// typed constant set keeps rule tables checkable at compile time instead of
// keying on free-form strings.
type FieldID string

const (
	FieldEventCategory      FieldID = "event_category"
	FieldRegion             FieldID = "region"
	FieldSite               FieldID = "site"
	FieldLocationOnSite     FieldID = "location_on_site"
	FieldOccurredAt         FieldID = "datetime_incident"
	FieldReporterCoyNumber  FieldID = "reporting_person_coy_number"
	FieldReporterName       FieldID = "reporting_person_name"
	FieldEmployeeID         FieldID = "employee_id"
	FieldIncidentNumber     FieldID = "incident_number"
	FieldEventDescription   FieldID = "description_of_the_event"
	FieldEmployer           FieldID = "employer"
	FieldVFLTeamTable       FieldID = "vfl_team_member_details"
	FieldIncidentType       FieldID = "incident_type"
	FieldConsequence        FieldID = "hazard_consequence"
	FieldLikelihood         FieldID = "likelyhood"
	FieldRiskRating         FieldID = "risk_rating"
	FieldRiskLevel          FieldID = "risk_level"
	FieldImpactDescription  FieldID = "description"
	FieldHarmToPeople       FieldID = "harm_to_people"
	FieldEnvironmental      FieldID = "environmental_impact"
	FieldBusinessInterrupt  FieldID = "business_interruption"
	FieldLegalRegulatory    FieldID = "legal_and_regulatory"
	FieldCommunityImpact    FieldID = "impact_on_community"
	FieldFatality           FieldID = "fatality"
	FieldFatalityLocation   FieldID = "location_description"
	FieldInjuredOnSite      FieldID = "injured_on_site"
	FieldInjuredOnDuty      FieldID = "injured_on_duty"
	FieldFatalityDatetime   FieldID = "date_and_time_of_fatality"
	FieldCauseOfDeath       FieldID = "cause_of_death"
	FieldEquipmentInvolved  FieldID = "was_mobile_equipment_involved"
	FieldDamageDescription  FieldID = "description_of_damage_if_applicable"
	FieldVehicleID          FieldID = "vehicle_nameid"
	FieldVehicleDescription FieldID = "vehicle_description"
	FieldAssetName          FieldID = "asset_name"
	FieldVehicleMake        FieldID = "vehicle_manufacture"
	FieldVehicleModel       FieldID = "vehicle_model"
	FieldLicensePlate       FieldID = "license_plate_number"
	FieldPlantLocation      FieldID = "plant_nameid"
	FieldCompanyOwned       FieldID = "company_owned"
	FieldAssetOperational   FieldID = "is_the_asset_still_operational"
	FieldToBeInvestigated   FieldID = "incident_to_be_investigated"
	FieldInvestigatorID     FieldID = "person_responsable_for_investigation"
	FieldInvestigatorDept   FieldID = "department_of_investigator"
	FieldInvestigatorName   FieldID = "full_name_of_person_responsable_for_investigation"
	FieldSustainedInjuries  FieldID = "did_the_person_sustain_any_injuries"
	FieldInjuryDescription  FieldID = "description_of_injury"
	FieldInjuryTable        FieldID = "classifying_injuries"
	FieldInvestigationType  FieldID = "specify_type"
	FieldFiveWhy            FieldID = "five_why"
	FieldFishbone           FieldID = "fishbone"
	FieldICAM               FieldID = "icam"
)

// FieldSet is an unordered set of visible fields.
type FieldSet map[FieldID]struct{}

func (s FieldSet) Has(id FieldID) bool {
	_, ok := s[id]
	return ok
}

func (s FieldSet) add(ids ...FieldID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func newFieldSet(ids ...FieldID) FieldSet {
	out := make(FieldSet, len(ids))
	out.add(ids...)
	return out
}
