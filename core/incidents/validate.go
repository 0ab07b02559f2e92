package incidents

import (
	"strings"

	"sentinel-ehs/core/store"
	"sentinel-ehs/core/visibility"
)

// evidenceKinds are the documentary evidence categories an investigator can
// tick on a record. Each checked category must carry at least one attachment
// reference before the record is accepted.
var evidenceKinds = []string{
	"storyline",
	"investigation_report",
	"affected_person_statement",
	"incident_notification",
	"induction_records",
	"training_records",
	"issue_based_risk_assessment",
	"mini_hira",
	"applicable_procedure",
	"planned_task_observation",
	"safety_caucus",
	"investigation_register",
	"tmm_records",
	"alcohol_and_drug_test",
	"action_list",
	"evidence_of_actions",
	"medical_certificate_of_fitness",
	"license_authorisation",
	"other_supporting_documents",
}

var evidenceLabels = map[string]string{
	"storyline":                      "Storyline",
	"investigation_report":           "Investigation report",
	"affected_person_statement":      "Affected person statement",
	"incident_notification":          "Incident notification",
	"induction_records":              "Induction records",
	"training_records":               "Training records",
	"issue_based_risk_assessment":    "Issue based risk assessment",
	"mini_hira":                      "Mini HIRA",
	"applicable_procedure":           "Applicable procedure",
	"planned_task_observation":       "Planned task observation",
	"safety_caucus":                  "Safety caucus",
	"investigation_register":         "Investigation register",
	"tmm_records":                    "TMM records",
	"alcohol_and_drug_test":          "Alcohol and drug test",
	"action_list":                    "Action list",
	"evidence_of_actions":            "Evidence of actions",
	"medical_certificate_of_fitness": "Medical certificate of fitness",
	"license_authorisation":          "License authorisation",
	"other_supporting_documents":     "Other supporting documents",
}

// methodSlots hold analysis attachments keyed by investigation method; they
// live in the same evidence map but are governed by visibility, not by the
// checklist validation.
var methodSlots = map[string]struct{}{
	string(visibility.FieldFiveWhy):  {},
	string(visibility.FieldFishbone): {},
	string(visibility.FieldICAM):     {},
}

// ValidationError carries every attachment violation found in one pass so the
// user sees the complete list rather than one failure at a time.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "attachment validation failed: " + strings.Join(e.Violations, "; ")
}

// ValidateAttachments checks that every ticked evidence category carries at
// least one attachment reference. All violations are collected; nil means the
// record is acceptable.
func ValidateAttachments(inc *store.Incident) error {
	var violations []string
	for _, kind := range evidenceKinds {
		refs, checked := inc.Evidence[kind]
		if !checked {
			continue
		}
		if !hasAttachment(refs) {
			violations = append(violations, evidenceLabels[kind]+": at least one attachment is required")
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func hasAttachment(refs []string) bool {
	for _, ref := range refs {
		if strings.TrimSpace(ref) != "" {
			return true
		}
	}
	return false
}

// normalizeEvidence drops blank references and unknown keys so the stored map
// holds only recognised categories and method slots.
func normalizeEvidence(inc *store.Incident) {
	if len(inc.Evidence) == 0 {
		return
	}
	known := make(map[string]struct{}, len(evidenceKinds)+len(methodSlots))
	for _, kind := range evidenceKinds {
		known[kind] = struct{}{}
	}
	for slot := range methodSlots {
		known[slot] = struct{}{}
	}
	for key, refs := range inc.Evidence {
		if _, ok := known[key]; !ok {
			delete(inc.Evidence, key)
			continue
		}
		var kept []string
		for _, ref := range refs {
			if strings.TrimSpace(ref) != "" {
				kept = append(kept, ref)
			}
		}
		inc.Evidence[key] = kept
	}
}
