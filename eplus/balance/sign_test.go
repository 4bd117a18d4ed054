package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eplus-sim/eplus-sim/internal/testutil"
)

func TestModeMask_ZeroCarriesPreviousSign(t *testing.T) {
	// GIVEN an HVAC series that cools, idles, heats and cools again
	values := []float64{-5, -3, 0, 4, 6, -2}

	// WHEN the mode mask is derived
	heating, cooling := ModeMask(values)

	// THEN the idle step stays in the cooling period
	assert.Equal(t, []bool{false, false, false, true, true, false}, heating)
	assert.Equal(t, []bool{true, true, true, false, false, true}, cooling)
}

func TestModeMask_Partitions(t *testing.T) {
	for _, values := range [][]float64{
		{3, 0, 0, -2},
		{0, 0, -1},
		{0, 0, 0},
		{1, -1, 1, -1, 0},
		{},
	} {
		heating, cooling := ModeMask(values)
		assert.Len(t, heating, len(values))
		for i := range values {
			assert.NotEqual(t, heating[i], cooling[i], "step %d of %v", i, values)
		}
	}
}

func TestRollingSign_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"zeros held after heating", []float64{3, 0, 0, -2}, []float64{1, 1, 1, -1}},
		{"leading zeros take first sign", []float64{0, 0, -1}, []float64{-1, -1, -1}},
		{"all zero is heating", []float64{0, 0, 0}, []float64{1, 1, 1}},
		{"single value", []float64{-4}, []float64{-1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertSliceEqual(t, "sign", tt.want, RollingSign(tt.values), 0)
		})
	}
}

func TestSignChanges_NoFlickerOnIdleSteps(t *testing.T) {
	// GIVEN a heating series interrupted by idle steps
	values := []float64{2, 0, 3, 0, 0, 1, -1}

	// WHEN sign changes are located
	changes := SignChanges(values)

	// THEN the only change is the switch to cooling
	assert.Equal(t, []bool{false, false, false, false, false, true, false}, changes)
}

func TestSplitGainLoss_SumsBackToValue(t *testing.T) {
	values := []float64{-2.5, 0, 4, -0.1, 7}

	gl := SplitGainLoss(values)

	for i, v := range values {
		assert.Equal(t, v, gl.Gain[i]+gl.Loss[i])
		assert.GreaterOrEqual(t, gl.Gain[i], 0.0)
		assert.LessOrEqual(t, gl.Loss[i], 0.0)
	}
	assert.Equal(t, []float64{0, 0, 4, 0, 7}, gl.Gain)
}
