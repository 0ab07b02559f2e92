package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeImpactDescriptionOrderIsFixed(t *testing.T) {
	all := ImpactFlags{
		HarmToPeople:         true,
		EnvironmentalImpact:  true,
		BusinessInterruption: true,
		LegalAndRegulatory:   true,
		ImpactOnCommunity:    true,
	}
	got := ComposeImpactDescription(2, all)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Medical treatment case / Exposure to major health risk", lines[0])
	assert.Equal(t, "Material environmental harm – L2 incident remediable short term", lines[1])
	assert.Equal(t, "Brief disruption to operation / US$100k to US$1.0M", lines[2])
	assert.Equal(t, "Minor legal issue; non compliance and breaches of the law", lines[3])
	assert.Equal(t, "Limited impact - local public concern", lines[4])
}

func TestComposeImpactDescriptionTierThree(t *testing.T) {
	got := ComposeImpactDescription(3, ImpactFlags{HarmToPeople: true, EnvironmentalImpact: true})
	want := "Lost time injury / Reversible impact on health\n" +
		"Serious environmental harm – L2 incident remediable within LOM"
	assert.Equal(t, want, got)
}

func TestComposeImpactDescriptionEmptyCases(t *testing.T) {
	assert.Empty(t, ComposeImpactDescription(0, ImpactFlags{HarmToPeople: true}))
	assert.Empty(t, ComposeImpactDescription(6, ImpactFlags{HarmToPeople: true}))
	assert.Empty(t, ComposeImpactDescription(3, ImpactFlags{}))
}

func TestComposeImpactDescriptionSingleCategoryTiers(t *testing.T) {
	// Spot check the extremes of two categories.
	assert.Equal(t, "Low level legal issue",
		ComposeImpactDescription(1, ImpactFlags{LegalAndRegulatory: true}))
	assert.Equal(t, "International impact - international public attention",
		ComposeImpactDescription(5, ImpactFlags{ImpactOnCommunity: true}))
}
