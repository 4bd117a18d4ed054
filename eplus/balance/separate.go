package balance

import (
	"fmt"
	"math"
	"sort"
)

// Level selects how columns are grouped before separation.
type Level int

const (
	ByKey Level = iota
	ByZone
	ByZoneAndSurfaceType
)

// Group identifies the columns summed into one Split. Fields not used by
// the level are empty.
type Group struct {
	Key         string
	Zone        string
	SurfaceType string
}

func (l Level) group(c Column) Group {
	switch l {
	case ByZone:
		return Group{Zone: c.Zone}
	case ByZoneAndSurfaceType:
		return Group{Zone: c.Zone, SurfaceType: c.SurfaceType}
	default:
		return Group{Key: c.Key, Zone: c.Zone}
	}
}

// Period and direction labels used in reports.
const (
	CoolingPeriods = "Cooling Periods"
	HeatingPeriods = "Heating Periods"
	HeatGain       = "Heat Gain"
	HeatLoss       = "Heat Loss"
)

// Split is one grouped series separated by sign and by HVAC mode.
// Gain[t]+Loss[t] == Values[t] at every timestep.
type Split struct {
	Component Component
	Group     Group
	Values    []float64
	Gain      []float64
	Loss      []float64
	Cooling   []bool
}

// PeriodTotals sums a Split per period and direction. Losses are reported
// as magnitudes. A period with no timesteps totals zero.
type PeriodTotals struct {
	CoolingGain float64
	CoolingLoss float64
	HeatingGain float64
	HeatingLoss float64
}

// Totals sums s per period and direction.
func (s Split) Totals() PeriodTotals {
	var p PeriodTotals
	for t := range s.Values {
		if s.Cooling[t] {
			p.CoolingGain += s.Gain[t]
			p.CoolingLoss -= s.Loss[t]
		} else {
			p.HeatingGain += s.Gain[t]
			p.HeatingLoss -= s.Loss[t]
		}
	}
	return p
}

// Add returns the element-wise sum of p and o.
func (p PeriodTotals) Add(o PeriodTotals) PeriodTotals {
	return PeriodTotals{
		CoolingGain: p.CoolingGain + o.CoolingGain,
		CoolingLoss: p.CoolingLoss + o.CoolingLoss,
		HeatingGain: p.HeatingGain + o.HeatingGain,
		HeatingLoss: p.HeatingLoss + o.HeatingLoss,
	}
}

// Get returns the total for a period and direction label.
func (p PeriodTotals) Get(period, direction string) (float64, error) {
	switch {
	case period == CoolingPeriods && direction == HeatGain:
		return p.CoolingGain, nil
	case period == CoolingPeriods && direction == HeatLoss:
		return p.CoolingLoss, nil
	case period == HeatingPeriods && direction == HeatGain:
		return p.HeatingGain, nil
	case period == HeatingPeriods && direction == HeatLoss:
		return p.HeatingLoss, nil
	}
	return 0, fmt.Errorf("unknown period/direction %q/%q", period, direction)
}

// SeparateGainsAndLosses groups f by level and splits every group into
// gains and losses. mask returns the cooling-period mask of a zone; a nil
// or short mask treats the timestep as heating.
func SeparateGainsAndLosses(c Component, f *Frame, level Level, mask func(zone string) []bool) []Split {
	if f.Empty() {
		return nil
	}
	order := make(map[Group]int)
	var splits []Split
	for i, col := range f.Columns {
		g := level.group(col)
		j, ok := order[g]
		if !ok {
			j = len(splits)
			order[g] = j
			splits = append(splits, Split{Component: c, Group: g, Values: make([]float64, f.Len())})
		}
		for t, v := range f.Data[i] {
			if !math.IsNaN(v) {
				splits[j].Values[t] += v
			}
		}
	}
	for j := range splits {
		s := &splits[j]
		gl := SplitGainLoss(s.Values)
		s.Gain, s.Loss = gl.Gain, gl.Loss
		s.Cooling = make([]bool, len(s.Values))
		if mask != nil {
			m := mask(s.Group.Zone)
			for t := range s.Cooling {
				s.Cooling[t] = t < len(m) && m[t]
			}
		}
	}
	sort.SliceStable(splits, func(a, b int) bool {
		ga, gb := splits[a].Group, splits[b].Group
		if ga.Zone != gb.Zone {
			return ga.Zone < gb.Zone
		}
		if ga.SurfaceType != gb.SurfaceType {
			return ga.SurfaceType < gb.SurfaceType
		}
		return ga.Key < gb.Key
	})
	return splits
}

// Separate splits component c of the balance at level using the balance's
// cooling masks.
func (b *Balance) Separate(c Component, level Level) ([]Split, error) {
	f, ok := b.components[c]
	if !ok {
		reason := b.Unavailable[c]
		if reason == "" {
			reason = "not computed"
		}
		return nil, fmt.Errorf("component %s unavailable: %s", c, reason)
	}
	return SeparateGainsAndLosses(c, f, level, b.CoolingMask), nil
}
