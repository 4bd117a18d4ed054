package balance

import "github.com/eplus-sim/eplus-sim/eplus/idf"

// Output variables read by the balance, grouped by physical quantity.
var (
	HVACInputSensible = []string{
		"Zone Air Heat Balance System Air Transfer Rate",
		"Zone Air Heat Balance System Convective Heat Gain Rate",
	}
	HVACInputHeatedSurface = []string{
		"Zone Radiant HVAC Heating Energy",
		"Zone Ventilated Slab Radiant Heating Energy",
	}
	HVACInputCooledSurface = []string{
		"Zone Radiant HVAC Cooling Energy",
		"Zone Ventilated Slab Radiant Cooling Energy",
	}
	Lighting = []string{"Zone Lights Total Heating Energy"}
	EquipGains = []string{
		"Zone Electric Equipment Radiant Heating Energy",
		"Zone Gas Equipment Radiant Heating Energy",
		"Zone Steam Equipment Radiant Heating Energy",
		"Zone Hot Water Equipment Radiant Heating Energy",
		"Zone Other Equipment Radiant Heating Energy",
		"Zone Electric Equipment Convective Heating Energy",
		"Zone Gas Equipment Convective Heating Energy",
		"Zone Steam Equipment Convective Heating Energy",
		"Zone Hot Water Equipment Convective Heating Energy",
		"Zone Other Equipment Convective Heating Energy",
	}
	PeopleGain = []string{"Zone People Sensible Heating Energy"}
	SolarGain  = []string{"Zone Windows Total Transmitted Solar Radiation Energy"}
	InfilGain  = []string{
		"Zone Infiltration Sensible Heat Gain Energy",
		"AFN Zone Infiltration Sensible Heat Gain Energy",
	}
	InfilLoss = []string{
		"Zone Infiltration Sensible Heat Loss Energy",
		"AFN Zone Infiltration Sensible Heat Loss Energy",
	}
	VentilationLoss = []string{"Zone Air System Sensible Heating Energy"}
	VentilationGain = []string{"Zone Air System Sensible Cooling Energy"}
	NatVentGain     = []string{
		"Zone Ventilation Sensible Heat Gain Energy",
		"AFN Zone Ventilation Sensible Heat Gain Energy",
	}
	NatVentLoss = []string{
		"Zone Ventilation Sensible Heat Loss Energy",
		"AFN Zone Ventilation Sensible Heat Loss Energy",
	}
	MechVentLoss = []string{
		"Zone Mechanical Ventilation No Load Heat Removal Energy",
		"Zone Mechanical Ventilation Heating Load Increase Energy",
		"Zone Mechanical Ventilation Cooling Load Decrease Energy",
	}
	MechVentGain = []string{
		"Zone Mechanical Ventilation No Load Heat Addition Energy",
		"Zone Mechanical Ventilation Heating Load Decrease Energy",
		"Zone Mechanical Ventilation Cooling Load Increase Energy",
	}
	OpaqueEnergyFlow = []string{"Surface Average Face Conduction Heat Transfer Energy"}
	WindowLoss       = []string{"Zone Windows Total Heat Loss Energy"}
	WindowGain       = []string{"Zone Windows Total Heat Gain Energy"}
)

// RequiredVariables lists every output variable the balance reads.
func RequiredVariables() []string {
	var all []string
	for _, group := range [][]string{
		HVACInputSensible, HVACInputHeatedSurface, HVACInputCooledSurface,
		Lighting, EquipGains, PeopleGain, SolarGain,
		InfilGain, InfilLoss, VentilationLoss, VentilationGain,
		NatVentGain, NatVentLoss, MechVentLoss, MechVentGain,
		OpaqueEnergyFlow, WindowLoss, WindowGain,
	} {
		all = append(all, group...)
	}
	return all
}

// RequestOutputs adds the balance variables to cfg, together with the
// SQLite store and the end-use summary the Sankey source tier reads.
func RequestOutputs(cfg *idf.OutputConfig) *idf.OutputConfig {
	return cfg.AddVariables(RequiredVariables()...).
		AddSQL("SimpleAndTabular").
		AddSummaryReport("AllSummary")
}
