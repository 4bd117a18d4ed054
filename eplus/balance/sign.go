package balance

import "math"

// RollingSign returns +1 or -1 for every timestep of values.
//
// The raw sign of each value is taken with zero (and NaN) carrying the
// previous sign; leading zeros take the first known sign and a series with
// no non-zero value is +1. A change is recorded at t when the sign at t
// differs from the sign at t+1 (the last timestep always records), and the
// held sign at t is the sign recorded at the next change at or after t.
func RollingSign(values []float64) []float64 {
	n := len(values)
	sign := make([]float64, n)
	for i, v := range values {
		switch {
		case v > 0:
			sign[i] = 1
		case v < 0:
			sign[i] = -1
		default:
			sign[i] = math.NaN()
		}
	}
	fillForward(sign)
	fillBackward(sign)
	for i := range sign {
		if math.IsNaN(sign[i]) {
			sign[i] = 1
		}
	}

	rolling := make([]float64, n)
	for i := range rolling {
		if i == n-1 || sign[i] != sign[i+1] {
			rolling[i] = sign[i]
		} else {
			rolling[i] = math.NaN()
		}
	}
	fillBackward(rolling)
	fillForward(rolling)
	return rolling
}

// SignChanges reports, per timestep, whether a sign change is recorded
// there (the last timestep excluded).
func SignChanges(values []float64) []bool {
	sign := RollingSign(values)
	changes := make([]bool, len(sign))
	for i := 0; i+1 < len(sign); i++ {
		changes[i] = sign[i] != sign[i+1]
	}
	return changes
}

func fillForward(s []float64) {
	for i := 1; i < len(s); i++ {
		if math.IsNaN(s[i]) {
			s[i] = s[i-1]
		}
	}
}

func fillBackward(s []float64) {
	for i := len(s) - 2; i >= 0; i-- {
		if math.IsNaN(s[i]) {
			s[i] = s[i+1]
		}
	}
}

// ModeMask splits the timeline of values into heating (held sign positive)
// and cooling (held sign negative) periods. Exactly one of the two is true
// at every timestep.
func ModeMask(values []float64) (heating, cooling []bool) {
	rolling := RollingSign(values)
	heating = make([]bool, len(rolling))
	cooling = make([]bool, len(rolling))
	for i, s := range rolling {
		heating[i] = s > 0
		cooling[i] = !heating[i]
	}
	return heating, cooling
}

// GainLoss is a series split by sign: Gain[t] + Loss[t] == value[t], with
// Gain >= 0 and Loss <= 0.
type GainLoss struct {
	Gain []float64
	Loss []float64
}

// SplitGainLoss splits values by sign. Zero is a gain.
func SplitGainLoss(values []float64) GainLoss {
	gl := GainLoss{Gain: make([]float64, len(values)), Loss: make([]float64, len(values))}
	for i, v := range values {
		if v >= 0 {
			gl.Gain[i] = v
		} else {
			gl.Loss[i] = v
		}
	}
	return gl
}
