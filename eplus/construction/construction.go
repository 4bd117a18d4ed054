// Package construction models layered envelope constructions and the
// heat-transfer coefficients derived from them.
//
// A Construction is an ordered list of layers from outside to inside. Each
// layer is one of three variants (SolidLayer, NoMassLayer, GasLayer);
// thermal properties are free functions over the layer sequence.
//
// Film coefficients follow ISO 10292 (simple, used for opaque R-factors)
// and ISO 15099 (detailed, wind and temperature dependent).
package construction

import (
	"fmt"
	"math"
)

const (
	// MaxLayers is the most layers a construction may have.
	MaxLayers = 10
	// stefanBoltzmann in W/m2-K4.
	stefanBoltzmann = 5.6697e-8
	// defaultEmittance applies to no-mass layers without an explicit value.
	defaultEmittance = 0.9
)

// Material is an opaque material with mass.
type Material struct {
	Name               string  `yaml:"name"`
	Conductivity       float64 `yaml:"conductivity"`  // W/m-K
	Density            float64 `yaml:"density"`       // kg/m3
	SpecificHeat       float64 `yaml:"specific_heat"` // J/kg-K
	SolarAbsorptance   float64 `yaml:"solar_absorptance"`
	ThermalEmittance   float64 `yaml:"thermal_emittance"`
	VisibleAbsorptance float64 `yaml:"visible_absorptance"`
	Roughness          string  `yaml:"roughness"`
}

// Validate checks the ranges a material must respect.
func (m Material) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("material has no name")
	case m.Conductivity <= 0:
		return fmt.Errorf("material %q: conductivity must be positive, got %g", m.Name, m.Conductivity)
	case m.SpecificHeat != 0 && m.SpecificHeat < 100:
		return fmt.Errorf("material %q: specific heat must be at least 100 J/kg-K, got %g", m.Name, m.SpecificHeat)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"solar absorptance", m.SolarAbsorptance},
		{"thermal emittance", m.ThermalEmittance},
		{"visible absorptance", m.VisibleAbsorptance},
	} {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("material %q: %s must be between 0 and 1, got %g", m.Name, f.name, f.v)
		}
	}
	return nil
}

// Layer is one layer of a construction.
type Layer interface {
	// RValue is the thermal resistance of the layer in m2-K/W.
	RValue() float64
	isLayer()
}

// SolidLayer is a thickness of a material with mass.
type SolidLayer struct {
	Material  Material
	Thickness float64 // m
}

func (l SolidLayer) RValue() float64 { return l.Thickness / l.Material.Conductivity }
func (SolidLayer) isLayer()          {}

// NoMassLayer is a layer given directly by its resistance.
type NoMassLayer struct {
	Name             string
	Resistance       float64 // m2-K/W
	ThermalEmittance float64
}

func (l NoMassLayer) RValue() float64 { return l.Resistance }
func (NoMassLayer) isLayer()          {}

// GasLayer is a gas-filled gap. Its resistance is conduction only, with
// the gas conductivity taken at 20C.
type GasLayer struct {
	Gas       Gas
	Thickness float64 // m
}

func (l GasLayer) RValue() float64 {
	return l.Thickness / l.Gas.ConductivityAt(293.15)
}
func (GasLayer) isLayer() {}

// Construction is a named sequence of layers from outside to inside.
type Construction struct {
	Name   string
	Layers []Layer
}

// New builds and validates a construction.
func New(name string, layers ...Layer) (*Construction, error) {
	c := &Construction{Name: name, Layers: layers}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the layer count, that the faces are not gas, and that
// every layer has a positive resistance.
func (c *Construction) Validate() error {
	n := len(c.Layers)
	if n < 1 || n > MaxLayers {
		return fmt.Errorf("construction %q: has %d layers, want 1 to %d", c.Name, n, MaxLayers)
	}
	if _, ok := c.Layers[0].(GasLayer); ok {
		return fmt.Errorf("construction %q: the outside layer cannot be a gas layer", c.Name)
	}
	if _, ok := c.Layers[n-1].(GasLayer); ok {
		return fmt.Errorf("construction %q: the inside layer cannot be a gas layer", c.Name)
	}
	for i, l := range c.Layers {
		if r := l.RValue(); !(r > 0) || math.IsInf(r, 0) {
			return fmt.Errorf("construction %q: layer %d has resistance %g", c.Name, i+1, r)
		}
	}
	return nil
}

// emittance returns the thermal emittance of a face layer.
func emittance(l Layer) float64 {
	switch v := l.(type) {
	case SolidLayer:
		return v.Material.ThermalEmittance
	case NoMassLayer:
		if v.ThermalEmittance == 0 {
			return defaultEmittance
		}
		return v.ThermalEmittance
	}
	return 0
}

// OutsideEmissivity is the emittance of the outside face.
func OutsideEmissivity(c *Construction) float64 { return emittance(c.Layers[0]) }

// InsideEmissivity is the emittance of the inside face.
func InsideEmissivity(c *Construction) float64 { return emittance(c.Layers[len(c.Layers)-1]) }

// RValue is the resistance of the layers, excluding air films, in m2-K/W.
func RValue(c *Construction) float64 {
	var r float64
	for _, l := range c.Layers {
		r += l.RValue()
	}
	return r
}

// UValue is the conductance of the layers, excluding air films, in W/m2-K.
func UValue(c *Construction) float64 { return 1 / RValue(c) }

// RFactor is the resistance including simple air films, in m2-K/W.
func RFactor(c *Construction) float64 {
	return 1/OutHSimple() + RValue(c) + 1/InHSimple(c)
}

// UFactor is the conductance including simple air films, in W/m2-K.
func UFactor(c *Construction) float64 { return 1 / RFactor(c) }

// OutHSimple is the ISO 10292 outdoor film coefficient.
func OutHSimple() float64 { return 23 }

// InHSimple is the ISO 10292 indoor film coefficient, which depends on the
// emissivity of the inside face.
func InHSimple(c *Construction) float64 {
	return 3.6 + 4.4*InsideEmissivity(c)/0.84
}

// OutH is the ISO 15099 outdoor film coefficient for a wind speed in m/s and
// the mean of outdoor air and surface temperature in K.
func OutH(c *Construction, windSpeed, tKelvin float64) float64 {
	conv := 4 + 4*windSpeed
	rad := 4 * stefanBoltzmann * OutsideEmissivity(c) * math.Pow(tKelvin, 3)
	return conv + rad
}

// Indoor describes the conditions of an indoor film.
type Indoor struct {
	TKelvin  float64 // mean of room air and surface temperature
	DeltaT   float64 // room air minus surface temperature, K
	Height   float64 // m
	Angle    float64 // degrees; 0 downward heat flow, 90 vertical, 180 upward
	Pressure float64 // Pa
}

// DefaultIndoor returns 20C, a 15K difference over a 1 m vertical surface
// at sea-level pressure.
func DefaultIndoor() Indoor {
	return Indoor{TKelvin: 293.15, DeltaT: 15, Height: 1, Angle: 90, Pressure: 101325}
}

// InH is the ISO 15099 indoor film coefficient.
func InH(c *Construction, in Indoor) float64 {
	rad := 4 * stefanBoltzmann * InsideEmissivity(c) * math.Pow(in.TKelvin, 3)
	return InHC(in) + rad
}

// InHC is the ISO 15099 indoor convective coefficient for air.
func InHC(in Indoor) float64 {
	gas := Air
	k := gas.ConductivityAt(in.TKelvin)
	num := math.Pow(gas.DensityAt(in.TKelvin, in.Pressure), 2) * math.Pow(in.Height, 3) *
		9.81 * gas.SpecificHeatAt(in.TKelvin) * in.DeltaT
	den := in.TKelvin * gas.ViscosityAt(in.TKelvin) * k
	rayleigh := math.Abs(num / den)

	var nusselt float64
	switch {
	case in.Angle < 15:
		nusselt = 0.13 * math.Cbrt(rayleigh)
	case in.Angle <= 90:
		sinA := math.Sin(in.Angle * math.Pi / 180)
		critical := 2.5e5 * math.Pow(math.Exp(0.72*in.Angle)/sinA, 0.2)
		if rayleigh < critical {
			nusselt = 0.56 * math.Pow(rayleigh*sinA, 0.25)
		} else {
			nusselt = 0.56*math.Pow(critical*sinA, 0.25) + 0.13*(math.Cbrt(rayleigh)-math.Cbrt(critical))
		}
	case in.Angle <= 179:
		sinA := math.Sin(in.Angle * math.Pi / 180)
		nusselt = 0.56 * math.Pow(rayleigh*sinA, 0.25)
	default:
		nusselt = 0.58 * math.Pow(rayleigh, 0.2)
	}
	return nusselt * k / in.Height
}
