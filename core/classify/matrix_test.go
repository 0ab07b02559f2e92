package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRiskFullMatrix(t *testing.T) {
	expected := map[[2]int]int{
		{1, 1}: 1, {1, 2}: 3, {1, 3}: 4, {1, 4}: 7, {1, 5}: 11,
		{2, 1}: 3, {2, 2}: 5, {2, 3}: 8, {2, 5}: 16,
		{3, 1}: 6, {3, 2}: 9, {3, 3}: 13, {3, 4}: 17, {3, 5}: 20,
		{4, 1}: 10, {4, 2}: 14, {4, 3}: 18, {4, 4}: 21, {4, 5}: 23,
		{5, 1}: 15, {5, 2}: 19, {5, 3}: 22, {5, 4}: 24, {5, 5}: 25,
	}
	for consequence := 1; consequence <= 5; consequence++ {
		for likelihood := 1; likelihood <= 5; likelihood++ {
			got := EvaluateRisk(consequence, likelihood)
			want, defined := expected[[2]int{consequence, likelihood}]
			if !defined {
				assert.False(t, got.Valid, "cell (%d,%d) should be undefined", consequence, likelihood)
				assert.Zero(t, got.Rating)
				assert.Equal(t, LevelUnset, got.Level)
				continue
			}
			require.True(t, got.Valid, "cell (%d,%d)", consequence, likelihood)
			assert.Equal(t, want, got.Rating, "cell (%d,%d)", consequence, likelihood)
		}
	}
}

func TestEvaluateRiskUndefinedCell(t *testing.T) {
	got := EvaluateRisk(2, 4)
	assert.False(t, got.Valid)
	assert.Zero(t, got.Rating)
	assert.Equal(t, LevelUnset, got.Level)
}

func TestEvaluateRiskOutOfDomain(t *testing.T) {
	for _, pair := range [][2]int{{0, 1}, {1, 0}, {6, 1}, {1, 6}, {0, 0}, {-1, 3}} {
		got := EvaluateRisk(pair[0], pair[1])
		assert.False(t, got.Valid, "inputs %v", pair)
	}
}

func TestLevelThresholdsAreClosedIntervals(t *testing.T) {
	cases := map[int]Level{
		1:  LevelLow,
		5:  LevelLow,
		6:  LevelMedium,
		12: LevelMedium,
		13: LevelHigh,
		20: LevelHigh,
		21: LevelExtreme,
		25: LevelExtreme,
		0:  LevelUnset,
		26: LevelUnset,
	}
	for rating, want := range cases {
		assert.Equal(t, want, LevelForRating(rating), "rating %d", rating)
	}
}

func TestEvaluateRiskScenarios(t *testing.T) {
	low := EvaluateRisk(1, 1)
	require.True(t, low.Valid)
	assert.Equal(t, 1, low.Rating)
	assert.Equal(t, LevelLow, low.Level)

	border := EvaluateRisk(2, 2)
	require.True(t, border.Valid)
	assert.Equal(t, 5, border.Rating)
	assert.Equal(t, LevelLow, border.Level)

	extreme := EvaluateRisk(5, 5)
	require.True(t, extreme.Valid)
	assert.Equal(t, 25, extreme.Rating)
	assert.Equal(t, LevelExtreme, extreme.Level)
}
