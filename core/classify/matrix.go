package classify

// Level is the qualitative risk band derived from a matrix rating.
type Level string

const (
	LevelUnset   Level = ""
	LevelLow     Level = "Low"
	LevelMedium  Level = "Medium"
	LevelHigh    Level = "High"
	LevelExtreme Level = "Extreme"
)

// riskMatrix is indexed [consequence-1][likelihood-1]. The zero at (2,4) is a
// deliberate hole in the source matrix, not a missing value: that combination
// has no defined rating and evaluates to unset.
var riskMatrix = [5][5]int{
	{1, 3, 4, 7, 11},
	{3, 5, 8, 0, 16},
	{6, 9, 13, 17, 20},
	{10, 14, 18, 21, 23},
	{15, 19, 22, 24, 25},
}

// RiskScore is the outcome of a matrix lookup. The zero value means the
// inputs were missing, out of domain, or hit the undefined cell.
type RiskScore struct {
	Rating int   `json:"rating,omitempty"`
	Level  Level `json:"level,omitempty"`
	Valid  bool  `json:"valid"`
}

// EvaluateRisk maps two ordinal 1..5 inputs to a numeric rating and band.
// It is total: anything outside the domain yields the zero RiskScore.
func EvaluateRisk(consequence, likelihood int) RiskScore {
	if consequence < 1 || consequence > 5 || likelihood < 1 || likelihood > 5 {
		return RiskScore{}
	}
	rating := riskMatrix[consequence-1][likelihood-1]
	if rating == 0 {
		return RiskScore{}
	}
	return RiskScore{Rating: rating, Level: LevelForRating(rating), Valid: true}
}

// LevelForRating applies the closed-interval band thresholds.
func LevelForRating(rating int) Level {
	switch {
	case rating >= 21 && rating <= 25:
		return LevelExtreme
	case rating >= 13 && rating <= 20:
		return LevelHigh
	case rating >= 6 && rating <= 12:
		return LevelMedium
	case rating >= 1 && rating <= 5:
		return LevelLow
	}
	return LevelUnset
}
