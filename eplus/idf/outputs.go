package idf

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Frequency is an engine reporting frequency.
type Frequency string

const (
	Annual   Frequency = "Annual"
	Monthly  Frequency = "Monthly"
	Daily    Frequency = "Daily"
	Hourly   Frequency = "Hourly"
	Timestep Frequency = "Timestep"
)

var frequencies = []Frequency{Annual, Monthly, Daily, Hourly, Timestep}

// ParseFrequency accepts any capitalization of a reporting frequency.
func ParseFrequency(s string) (Frequency, error) {
	for _, f := range frequencies {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("reporting frequency %q is not recognized; choose from %v", s, frequencies)
}

// Step returns the fixed duration of one reporting interval. Only Hourly has
// one; the other frequencies are calendar-dependent or model-dependent.
func (f Frequency) Step() (time.Duration, bool) {
	if f == Hourly {
		return time.Hour, true
	}
	return 0, false
}

var tableStyles = []string{"Comma", "Tab", "Fixed", "HTML", "XML", "CommaAndHTML", "TabAndHTML", "XMLAndHTML", "All"}

// OutputConfig is an owned set of output requests for one model: output
// variables, meters and other reporting objects, emitted at one reporting
// frequency. Builders chain; the first invalid argument is kept and
// reported by Err, Apply and WriteIDF.
//
// A config created from a store remembers the requests the store already
// had; Reset returns to exactly that set.
type OutputConfig struct {
	Frequency Frequency

	variables []string
	meters    []string
	others    []*Record
	err       error

	seedVariables []string
	seedMeters    []string
}

// NewOutputConfig returns an empty config reporting at freq.
func NewOutputConfig(freq Frequency) *OutputConfig {
	return &OutputConfig{Frequency: freq}
}

// NewOutputConfigFromStore seeds a config with the Output:Variable and
// Output:Meter requests already present in s.
func NewOutputConfigFromStore(s *Store, freq Frequency) *OutputConfig {
	c := NewOutputConfig(freq)
	for _, r := range s.Objects(TypeVariable) {
		if v, ok := r.Get("Variable_Name"); ok {
			c.seedVariables = appendUnique(c.seedVariables, v)
		}
	}
	for _, r := range s.Objects(TypeMeter) {
		if v, ok := r.Get("Key_Name"); ok {
			c.seedMeters = appendUnique(c.seedMeters, v)
		}
	}
	c.Reset()
	return c
}

func appendUnique(list []string, items ...string) []string {
outer:
	for _, it := range items {
		for _, have := range list {
			if strings.EqualFold(have, it) {
				continue outer
			}
		}
		list = append(list, it)
	}
	return list
}

// Reset discards every request added since construction.
func (c *OutputConfig) Reset() {
	c.variables = append([]string(nil), c.seedVariables...)
	c.meters = append([]string(nil), c.seedMeters...)
	c.others = nil
	c.err = nil
}

// Err returns the first builder error, if any.
func (c *OutputConfig) Err() error { return c.err }

func (c *OutputConfig) Variables() []string { return append([]string(nil), c.variables...) }
func (c *OutputConfig) Meters() []string    { return append([]string(nil), c.meters...) }
func (c *OutputConfig) Others() []*Record   { return append([]*Record(nil), c.others...) }

// AddVariables requests output variables (duplicates are ignored).
func (c *OutputConfig) AddVariables(names ...string) *OutputConfig {
	c.variables = appendUnique(c.variables, names...)
	return c
}

// AddMeters requests meters (duplicates are ignored).
func (c *OutputConfig) AddMeters(names ...string) *OutputConfig {
	c.meters = appendUnique(c.meters, names...)
	return c
}

// AddCustom routes records by type: meters and variables join their sets,
// everything else is kept as an extra reporting object.
func (c *OutputConfig) AddCustom(recs ...*Record) *OutputConfig {
	for _, r := range recs {
		t := strings.ToLower(r.Type)
		switch {
		case strings.Contains(t, "meter"):
			if v, ok := r.Get("Key_Name"); ok {
				c.AddMeters(v)
			}
		case strings.Contains(t, "variable") && !strings.Contains(t, "dictionary"):
			if v, ok := r.Get("Variable_Name"); ok {
				c.AddVariables(v)
			}
		default:
			c.others = append(c.others, r)
		}
	}
	return c
}

// AddBasics adds the summary report, table style, schedules and the
// variable dictionary.
func (c *OutputConfig) AddBasics() *OutputConfig {
	return c.AddSummaryReport("AllSummary").
		AddOutputControl("CommaAndHTML").
		AddSchedules().
		AddMeterVariables("IDF")
}

func (c *OutputConfig) AddSchedules() *OutputConfig {
	return c.AddCustom(NewRecord("Output:Schedules", "Key_Field", "Hourly"))
}

// AddMeterVariables requests the .mdd/.rdd dictionaries ("IDF" or "regular").
func (c *OutputConfig) AddMeterVariables(format string) *OutputConfig {
	return c.AddCustom(NewRecord("Output:VariableDictionary", "Key_Field", format))
}

func (c *OutputConfig) AddSummaryReport(summary string) *OutputConfig {
	return c.AddCustom(NewRecord("Output:Table:SummaryReports", "Report_1_Name", summary))
}

// AddSQL requests the SQLite result store ("Simple" or "SimpleAndTabular").
func (c *OutputConfig) AddSQL(style string) *OutputConfig {
	return c.AddCustom(NewRecord("Output:SQLite", "Option_Type", style))
}

// AddOutputControl sets the tabular report style.
func (c *OutputConfig) AddOutputControl(style string) *OutputConfig {
	for _, s := range tableStyles {
		if s == style {
			return c.AddCustom(NewRecord("OutputControl:Table:Style", "Column_Separator", style))
		}
	}
	if c.err == nil {
		c.err = fmt.Errorf("table style %q is not recognized; choose from %v", style, tableStyles)
	}
	return c
}

func (c *OutputConfig) AddDXF() *OutputConfig {
	return c.AddCustom(NewRecord("Output:Surfaces:Drawing",
		"Report_Type", "DXF", "Report_Specifications_1", "ThickPolyline"))
}

// AddUmiTemplateOutputs adds what is needed to derive a building template.
func (c *OutputConfig) AddUmiTemplateOutputs() *OutputConfig {
	c.AddVariables(
		"Air System Outdoor Air Minimum Flow Fraction",
		"Air System Total Cooling Energy",
		"Air System Total Heating Energy",
		"Heat Exchanger Latent Effectiveness",
		"Heat Exchanger Sensible Effectiveness",
		"Heat Exchanger Total Heating Rate",
		"Water Heater Heating Energy",
		"Zone Ideal Loads Zone Total Cooling Energy",
		"Zone Ideal Loads Zone Total Heating Energy",
		"Zone Thermostat Cooling Setpoint Temperature",
		"Zone Thermostat Heating Setpoint Temperature",
	)
	return c.AddMeters(
		"Baseboard:EnergyTransfer",
		"Cooling:DistrictCooling",
		"Cooling:Electricity",
		"Cooling:EnergyTransfer",
		"Cooling:Gas",
		"CoolingCoils:EnergyTransfer",
		"Fans:Electricity",
		"HeatRejection:Electricity",
		"HeatRejection:EnergyTransfer",
		"Heating:DistrictHeating",
		"Heating:Electricity",
		"Heating:EnergyTransfer",
		"Heating:Gas",
		"HeatingCoils:EnergyTransfer",
		"Pumps:Electricity",
		"Refrigeration:Electricity",
		"Refrigeration:EnergyTransfer",
		"WaterSystems:EnergyTransfer",
	)
}

func (c *OutputConfig) AddUmiOutputs() *OutputConfig {
	return c.AddVariables(
		"Air System Total Heating Energy",
		"Air System Total Cooling Energy",
		"Zone Ideal Loads Zone Total Cooling Energy",
		"Zone Ideal Loads Zone Total Heating Energy",
		"Water Heater Heating Energy",
	)
}

func (c *OutputConfig) AddProfileGasElectOutputs() *OutputConfig {
	return c.AddMeters(
		"Electricity:Facility",
		"Gas:Facility",
		"WaterSystems:Electricity",
		"Heating:Electricity",
		"Cooling:Electricity",
	)
}

// AddHVACEnergyUse covers the energy-consuming parts of detailed systems.
func (c *OutputConfig) AddHVACEnergyUse() *OutputConfig {
	return c.AddVariables(
		"Baseboard Electricity Energy",
		"Boiler NaturalGas Energy",
		"Chiller Electricity Energy",
		"Chiller Heater System Cooling Electricity Energy",
		"Chiller Heater System Heating Electricity Energy",
		"Cooling Coil Electricity Energy",
		"Cooling Tower Fan Electricity Energy",
		"District Cooling Chilled Water Energy",
		"District Heating Hot Water Energy",
		"Evaporative Cooler Electricity Energy",
		"Fan Electricity Energy",
		"Heating Coil Electricity Energy",
		"Heating Coil NaturalGas Energy",
		"Heating Coil Total Heating Energy",
		"Humidifier Electricity Energy",
		"Pump Electricity Energy",
		"VRF Heat Pump Cooling Electricity Energy",
		"VRF Heat Pump Crankcase Heater Electricity Energy",
		"VRF Heat Pump Defrost Electricity Energy",
		"VRF Heat Pump Heating Electricity Energy",
		"Zone VRF Air Terminal Cooling Electricity Energy",
		"Zone VRF Air Terminal Heating Electricity Energy",
	)
}

// Records renders the config as model records.
func (c *OutputConfig) Records() []*Record {
	var recs []*Record
	for _, v := range c.variables {
		recs = append(recs, NewRecord(TypeVariable,
			"Key_Value", "*", "Variable_Name", v, "Reporting_Frequency", string(c.Frequency)))
	}
	for _, m := range c.meters {
		recs = append(recs, NewRecord(TypeMeter,
			"Key_Name", m, "Reporting_Frequency", string(c.Frequency)))
	}
	return append(recs, c.others...)
}

// Apply adds every request to s, skipping variables and meters the store
// already requests. It returns the number of records added.
func (c *OutputConfig) Apply(s *Store) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if _, err := ParseFrequency(string(c.Frequency)); err != nil {
		return 0, err
	}
	added := 0
	for _, r := range c.Records() {
		if c.alreadyRequested(s, r) {
			continue
		}
		s.Add(r)
		added++
	}
	return added, nil
}

func (c *OutputConfig) alreadyRequested(s *Store, r *Record) bool {
	var field string
	switch {
	case strings.EqualFold(r.Type, TypeVariable):
		field = "Variable_Name"
	case strings.EqualFold(r.Type, TypeMeter):
		field = "Key_Name"
	default:
		return false
	}
	want, _ := r.Get(field)
	for _, have := range s.Objects(r.Type) {
		v, _ := have.Get(field)
		f, _ := have.Get("Reporting_Frequency")
		if strings.EqualFold(v, want) && strings.EqualFold(f, string(c.Frequency)) {
			return true
		}
	}
	return false
}

// WriteIDF writes the requests in model text form.
func (c *OutputConfig) WriteIDF(w io.Writer) error {
	if c.err != nil {
		return c.err
	}
	for _, r := range c.Records() {
		if err := WriteRecord(w, r); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecord writes one record in model text form:
//
//	Output:Meter,
//	    Electricity:Facility,    !- Key Name
//	    Hourly;                  !- Reporting Frequency
func WriteRecord(w io.Writer, r *Record) error {
	if _, err := fmt.Fprintf(w, "%s,\n", r.Type); err != nil {
		return err
	}
	for i, f := range r.Fields {
		sep := ","
		if i == len(r.Fields)-1 {
			sep = ";"
		}
		if _, err := fmt.Fprintf(w, "    %-28s !- %s\n", f.Value+sep, strings.ReplaceAll(f.Name, "_", " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
