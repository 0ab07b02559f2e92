package classify

import "strings"

// ImpactFlags marks which impact categories an incident touches.
type ImpactFlags struct {
	HarmToPeople         bool `json:"harm_to_people"`
	EnvironmentalImpact  bool `json:"environmental_impact"`
	BusinessInterruption bool `json:"business_interruption"`
	LegalAndRegulatory   bool `json:"legal_and_regulatory"`
	ImpactOnCommunity    bool `json:"impact_on_community"`
}

func (f ImpactFlags) Any() bool {
	return f.HarmToPeople || f.EnvironmentalImpact || f.BusinessInterruption ||
		f.LegalAndRegulatory || f.ImpactOnCommunity
}

// Severity-tier sentences per impact category, indexed by consequence-1.
// The wording is fixed; downstream records compare these strings verbatim.
var (
	harmTiers = [5]string{
		"First aid case / Exposure to minor health risk",
		"Medical treatment case / Exposure to major health risk",
		"Lost time injury / Reversible impact on health",
		"Single fatality or loss of quality of life / Irreversible impact on health",
		"Multiple fatalities / Impact on health ultimately fatal",
	}
	environmentTiers = [5]string{
		"Minimal environmental harm – L1 incident",
		"Material environmental harm – L2 incident remediable short term",
		"Serious environmental harm – L2 incident remediable within LOM",
		"Major environmental harm – L2 incident remediable post LOM",
		"Extreme environmental harm – L3 incident irreversible",
	}
	businessTiers = [5]string{
		"No disruption to operation / US$20k to US$100k",
		"Brief disruption to operation / US$100k to US$1.0M",
		"Partial shutdown / US$1.0M to US$10.0M",
		"Partial loss of operation / US$10M to US$75.0M",
		"Substantial or total loss of operation / >US$75.0M",
	}
	legalTiers = [5]string{
		"Low level legal issue",
		"Minor legal issue; non compliance and breaches of the law",
		"Serious breach of law; investigation/report to authority, prosecution and/or moderate penalty possible",
		"Major breach of the law; considerable prosecution and penalties",
		"Very considerable penalties & prosecutions. Multiple law suits & jail terms",
	}
	communityTiers = [5]string{
		"Slight impact - public awareness may exist but no public concern",
		"Limited impact - local public concern",
		"Considerable impact - regional public concern",
		"National impact - national public concern",
		"International impact - international public attention",
	}
)

// ComposeImpactDescription joins the tier sentence of every set flag at the
// given consequence level, in the fixed category order harm, environment,
// business interruption, legal/regulatory, community. Missing consequence or
// no set flags yields the empty string.
func ComposeImpactDescription(consequence int, flags ImpactFlags) string {
	if consequence < 1 || consequence > 5 {
		return ""
	}
	var lines []string
	if flags.HarmToPeople {
		lines = append(lines, harmTiers[consequence-1])
	}
	if flags.EnvironmentalImpact {
		lines = append(lines, environmentTiers[consequence-1])
	}
	if flags.BusinessInterruption {
		lines = append(lines, businessTiers[consequence-1])
	}
	if flags.LegalAndRegulatory {
		lines = append(lines, legalTiers[consequence-1])
	}
	if flags.ImpactOnCommunity {
		lines = append(lines, communityTiers[consequence-1])
	}
	return strings.Join(lines, "\n")
}
