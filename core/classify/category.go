package classify

import "strings"

// Category is the event category discriminant. The short code is embedded in
// rendered incident numbers and drives numbering scope and form visibility.
type Category string

const (
	CategoryIncident    Category = "INC"
	CategoryInspection  Category = "INS"
	CategoryPTO         Category = "PTO"
	CategoryVFL         Category = "VFL"
	CategoryAudit       Category = "AUD"
	CategoryUnspecified Category = ""
)

// CategoryGeneral is the fallback code used when an unknown category label
// still needs a number prefix.
const CategoryGeneral Category = "GEN"

var categoryLabels = map[Category]string{
	CategoryIncident:   "Incident (INC)",
	CategoryInspection: "Inspection (INS)",
	CategoryPTO:        "Planned Task Observation (PTO)",
	CategoryVFL:        "Visible Field Leadership (VFL)",
	CategoryAudit:      "Audit (AUD)",
}

// ParseCategory accepts either the short code or the full select label.
func ParseCategory(raw string) (Category, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CategoryUnspecified, false
	}
	upper := Category(strings.ToUpper(trimmed))
	if _, ok := categoryLabels[upper]; ok {
		return upper, true
	}
	for code, label := range categoryLabels {
		if strings.EqualFold(trimmed, label) {
			return code, true
		}
	}
	return CategoryUnspecified, false
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Code() string {
	if c.Valid() {
		return string(c)
	}
	return string(CategoryGeneral)
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Restricted reports whether the category reduces the form to the minimal
// observation field set. Full incident capture applies only to INC.
func (c Category) Restricted() bool {
	switch c {
	case CategoryPTO, CategoryVFL, CategoryInspection, CategoryAudit:
		return true
	}
	return false
}
