package construction

import (
	"fmt"
	"strings"
)

// universal gas constant, J/mol-K
const gasConstant = 8.314

// Gas holds the temperature coefficients (a + b*T + c*T^2) of a fill gas.
type Gas struct {
	Name            string
	Conductivity    [3]float64 // W/m-K
	Viscosity       [3]float64 // kg/m-s
	SpecificHeat    [3]float64 // J/kg-K
	MolecularWeight float64    // g/mol
}

var (
	Air = Gas{
		Name:            "Air",
		Conductivity:    [3]float64{2.873e-3, 7.760e-5, 0},
		Viscosity:       [3]float64{3.723e-6, 4.940e-8, 0},
		SpecificHeat:    [3]float64{1002.737, 1.2324e-2, 0},
		MolecularWeight: 28.97,
	}
	Argon = Gas{
		Name:            "Argon",
		Conductivity:    [3]float64{2.285e-3, 5.149e-5, 0},
		Viscosity:       [3]float64{3.379e-6, 6.451e-8, 0},
		SpecificHeat:    [3]float64{521.929, 0, 0},
		MolecularWeight: 39.948,
	}
	Krypton = Gas{
		Name:            "Krypton",
		Conductivity:    [3]float64{9.443e-4, 2.826e-5, 0},
		Viscosity:       [3]float64{2.213e-6, 7.777e-8, 0},
		SpecificHeat:    [3]float64{248.091, 0, 0},
		MolecularWeight: 83.8,
	}
	Xenon = Gas{
		Name:            "Xenon",
		Conductivity:    [3]float64{4.538e-4, 1.723e-5, 0},
		Viscosity:       [3]float64{1.069e-6, 7.414e-8, 0},
		SpecificHeat:    [3]float64{158.340, 0, 0},
		MolecularWeight: 131.3,
	}
)

var gases = []Gas{Air, Argon, Krypton, Xenon}

// LookupGas finds a gas by case-insensitive name.
func LookupGas(name string) (Gas, error) {
	for _, g := range gases {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return Gas{}, fmt.Errorf("unknown gas %q", name)
}

func poly(c [3]float64, t float64) float64 { return c[0] + c[1]*t + c[2]*t*t }

// ConductivityAt returns W/m-K at tKelvin.
func (g Gas) ConductivityAt(tKelvin float64) float64 { return poly(g.Conductivity, tKelvin) }

// ViscosityAt returns kg/m-s at tKelvin.
func (g Gas) ViscosityAt(tKelvin float64) float64 { return poly(g.Viscosity, tKelvin) }

// SpecificHeatAt returns J/kg-K at tKelvin.
func (g Gas) SpecificHeatAt(tKelvin float64) float64 { return poly(g.SpecificHeat, tKelvin) }

// DensityAt returns kg/m3 at tKelvin and pressure in Pa, as an ideal gas.
func (g Gas) DensityAt(tKelvin, pressure float64) float64 {
	return pressure * g.MolecularWeight * 0.001 / (gasConstant * tKelvin)
}
