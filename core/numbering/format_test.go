package numbering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sentinel-ehs/core/classify"
)

func TestRenderDefaultFormat(t *testing.T) {
	at := time.Date(2026, time.August, 14, 9, 30, 0, 0, time.UTC)
	scope := MonthScope(classify.CategoryIncident, at)
	assert.Equal(t, "2026-08/IS/INC/00042", Render(DefaultFormat, scope, 42))
	assert.Equal(t, "2026-08/IS/INC/00042", Render("", scope, 42))
}

func TestRenderWidthVariants(t *testing.T) {
	scope := ScopeKey{Category: classify.CategoryAudit, Period: "2026-01"}
	assert.Equal(t, "AUD-7", Render("{category}-{seq}", scope, 7))
	assert.Equal(t, "AUD-0007", Render("{category}-{seq:04}", scope, 7))
	assert.Equal(t, "2026-01/7", Render("{period}/{seq}", scope, 7))
}

func TestRenderRegisterVariant(t *testing.T) {
	at := time.Date(2026, time.August, 14, 23, 45, 0, 0, time.UTC)
	scope := DayScope(classify.CategoryIncident, at)
	assert.Equal(t, "26/08/14-3", Render("{period}-{seq}", scope, 3))
}

func TestRenderUnknownCategoryUsesGeneralCode(t *testing.T) {
	scope := ScopeKey{Category: classify.Category("BOGUS"), Period: "2026-02"}
	assert.Equal(t, "2026-02/IS/GEN/00001", Render(DefaultFormat, scope, 1))
}

func TestMonthScopeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	at := time.Date(2026, time.September, 1, 5, 0, 0, 0, loc) // Aug 31 19:00 UTC
	scope := MonthScope(classify.CategoryVFL, at)
	assert.Equal(t, "2026-08", scope.Period)
}
