package balance

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// joules per unit
var energyUnits = map[string]float64{
	"J": 1, "kJ": 1e3, "MJ": 1e6, "GJ": 1e9,
	"Wh": 3600, "kWh": 3.6e6, "MWh": 3.6e9,
}

// watts per unit
var powerUnits = map[string]float64{"W": 1, "kW": 1e3, "MW": 1e6}

func lookupUnit(table map[string]float64, unit string) (float64, bool) {
	if f, ok := table[unit]; ok {
		return f, true
	}
	for name, f := range table {
		if strings.EqualFold(name, unit) {
			return f, true
		}
	}
	return 0, false
}

// IsEnergyUnit reports whether unit is a supported energy unit.
func IsEnergyUnit(unit string) bool {
	_, ok := lookupUnit(energyUnits, unit)
	return ok
}

// IsPowerUnit reports whether unit is a supported power unit.
func IsPowerUnit(unit string) bool {
	_, ok := lookupUnit(powerUnits, unit)
	return ok
}

// ConversionFactor returns the multiplier taking values in from to values in
// to. Both must be energy units or both power units.
func ConversionFactor(from, to string) (float64, error) {
	if f, ok := lookupUnit(energyUnits, from); ok {
		if t, ok := lookupUnit(energyUnits, to); ok {
			return f / t, nil
		}
	}
	if f, ok := lookupUnit(powerUnits, from); ok {
		if t, ok := lookupUnit(powerUnits, to); ok {
			return f / t, nil
		}
	}
	return 0, fmt.Errorf("cannot convert %q to %q", from, to)
}

// PowerToEnergyFactor returns the multiplier taking an average power in
// power over one interval of step to an energy in energy.
func PowerToEnergyFactor(power string, step time.Duration, energy string) (float64, error) {
	w, ok := lookupUnit(powerUnits, power)
	if !ok {
		return 0, fmt.Errorf("unsupported power unit %q", power)
	}
	j, ok := lookupUnit(energyUnits, energy)
	if !ok {
		return 0, fmt.Errorf("unsupported energy unit %q", energy)
	}
	return w * step.Seconds() / j, nil
}

func scaled(values []float64, factor float64) []float64 {
	out := append([]float64(nil), values...)
	floats.Scale(factor, out)
	return out
}
