package balance

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eplus-sim/eplus-sim/eplus"
	"github.com/eplus-sim/eplus-sim/eplus/idf"
	"github.com/eplus-sim/eplus-sim/internal/testutil"
)

const convective = "Zone Air Heat Balance System Convective Heat Gain Rate"

func hourly(n int) []time.Time {
	start := time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return index
}

func twoZoneModel() *idf.Store {
	s := idf.NewStore()
	s.Add(
		idf.NewRecord(idf.TypeZone, "Name", "Z1", "Multiplier", "2"),
		idf.NewRecord(idf.TypeZone, "Name", "Z2"),
	)
	return s
}

func addSurface(s *idf.Store, name, typ, boundary, zone, multiplier string) {
	s.Add(idf.NewRecord(idf.TypeSurface,
		"Name", name,
		"Surface Type", typ,
		"Outside Boundary Condition", boundary,
		"Zone Name", zone,
		"Multiplier", multiplier,
	))
}

// hvacCollector returns a collector where Z1 heats for two hours then cools
// for two, and Z2 heats throughout.
func hvacCollector() *MemoryCollector {
	idx := hourly(4)
	c := NewMemoryCollector()
	c.Add(idf.Hourly, convective, "Z1", "kW", idx, []float64{1, 2, -1, -2})
	c.Add(idf.Hourly, convective, "Z2", "kW", idx, []float64{0.5, 0.5, 0.5, 0.5})
	return c
}

func findSplit(t *testing.T, splits []Split, key string) Split {
	t.Helper()
	for _, s := range splits {
		if s.Group.Key == key {
			return s
		}
	}
	t.Fatalf("no split for key %s in %d splits", key, len(splits))
	return Split{}
}

func TestCompute_HeatingCoolingAndMultipliers(t *testing.T) {
	// GIVEN hourly HVAC input in kW for two zones, Z1 with multiplier 2
	c := hvacCollector()

	// WHEN the balance is computed in kWh
	b, err := Compute(c, twoZoneModel(), Options{})
	require.NoError(t, err)

	// THEN heating and cooling are split by the held sign and weighted by the zone multiplier
	heating, ok := b.Component(Heating)
	require.True(t, ok)
	testutil.AssertSliceEqual(t, "Z1 heating", []float64{2, 4, 0, 0}, heating.column("Z1"), 1e-9)
	testutil.AssertSliceEqual(t, "Z2 heating", []float64{0.5, 0.5, 0.5, 0.5}, heating.column("Z2"), 1e-9)
	cooling, ok := b.Component(Cooling)
	require.True(t, ok)
	testutil.AssertSliceEqual(t, "Z1 cooling", []float64{0, 0, -2, -4}, cooling.column("Z1"), 1e-9)

	// AND masks are per zone, with the building mask for unknown keys
	assert.Equal(t, []bool{false, false, true, true}, b.CoolingMask("z1"))
	assert.Equal(t, []bool{false, false, false, false}, b.CoolingMask("Z2"))
	assert.Equal(t, []bool{false, false, true, true}, b.CoolingMask("ATTIC"))
	assert.Equal(t, "kWh", b.Units)
	assert.Len(t, b.Index, 4)
}

func TestCompute_PowerUnitsConvertedPerStep(t *testing.T) {
	// GIVEN HVAC input in W
	idx := hourly(2)
	c := NewMemoryCollector()
	c.Add(idf.Hourly, convective, "Z2", "W", idx, []float64{1000, 2000})

	// WHEN collected with W as power units and kWh as energy units
	b, err := Compute(c, twoZoneModel(), Options{PowerUnits: "W"})

	// THEN one hour of 1000 W is 1 kWh
	require.NoError(t, err)
	heating, _ := b.Component(Heating)
	testutil.AssertSliceEqual(t, "heating", []float64{1, 2}, heating.column("Z2"), 1e-9)
}

func TestCompute_GainLossPerPeriod(t *testing.T) {
	// GIVEN lighting and infiltration series alongside the HVAC input
	c := hvacCollector()
	idx := hourly(4)
	c.Add(idf.Hourly, "Zone Lights Total Heating Energy", "Z1", "kWh", idx, []float64{1, 1, 1, 1})
	c.Add(idf.Hourly, "Zone Infiltration Sensible Heat Gain Energy", "Z1", "kWh", idx, []float64{1, 0, 0, 0})
	c.Add(idf.Hourly, "Zone Infiltration Sensible Heat Loss Energy", "Z1", "kWh", idx, []float64{0, 2, 0, 0})

	// WHEN the balance is computed and separated
	b, err := Compute(c, twoZoneModel(), Options{})
	require.NoError(t, err)
	lighting, err := b.Separate(LightingGain, ByKey)
	require.NoError(t, err)
	infil, err := b.Separate(Infiltration, ByKey)
	require.NoError(t, err)

	// THEN lighting splits evenly between the periods
	lt := findSplit(t, lighting, "Z1").Totals()
	assert.Equal(t, PeriodTotals{HeatingGain: 4, CoolingGain: 4}, lt)

	// AND infiltration is netted, with empty cooling totals reported as zero
	s := findSplit(t, infil, "Z1")
	testutil.AssertSliceEqual(t, "net", []float64{2, -4, 0, 0}, s.Values, 1e-9)
	for i := range s.Values {
		assert.Equal(t, s.Values[i], s.Gain[i]+s.Loss[i])
	}
	assert.Equal(t, PeriodTotals{HeatingGain: 2, HeatingLoss: 4}, s.Totals())

	// AND components without series are listed as unavailable
	assert.Contains(t, b.Unavailable, MechVent)
	assert.Contains(t, b.Unavailable, NatVent)
	_, err = b.Separate(MechVent, ByKey)
	assert.Error(t, err)
}

func TestCompute_MisalignedPairIsUnavailable(t *testing.T) {
	// GIVEN infiltration gain and loss of equal length but shifted by one hour
	c := hvacCollector()
	c.Add(idf.Hourly, "Zone Infiltration Sensible Heat Gain Energy", "Z1", "kWh", hourly(4), []float64{1, 1, 1, 1})
	c.Add(idf.Hourly, "Zone Infiltration Sensible Heat Loss Energy", "Z1", "kWh", hourly(5)[1:], []float64{1, 1, 1, 1})

	// WHEN the balance is computed
	b, err := Compute(c, twoZoneModel(), Options{})

	// THEN infiltration is unavailable rather than netted across different hours
	require.NoError(t, err)
	_, ok := b.Component(Infiltration)
	assert.False(t, ok)
	assert.Contains(t, b.Unavailable[Infiltration], "misaligned at timestep 0")
}

func TestCompute_MismatchedPairIsUnavailable(t *testing.T) {
	// GIVEN infiltration gain for Z1 but loss for Z2
	c := hvacCollector()
	idx := hourly(4)
	c.Add(idf.Hourly, "Zone Infiltration Sensible Heat Gain Energy", "Z1", "kWh", idx, []float64{1, 1, 1, 1})
	c.Add(idf.Hourly, "Zone Infiltration Sensible Heat Loss Energy", "Z2", "kWh", idx, []float64{1, 1, 1, 1})
	c.Add(idf.Hourly, "Zone People Sensible Heating Energy", "Z2", "kWh", idx, []float64{1, 1, 1, 1})

	// WHEN the balance is computed
	b, err := Compute(c, twoZoneModel(), Options{})

	// THEN only infiltration is unavailable
	require.NoError(t, err)
	_, ok := b.Component(Infiltration)
	assert.False(t, ok)
	assert.Contains(t, b.Unavailable[Infiltration], "different objects")
	_, ok = b.Component(People)
	assert.True(t, ok)
}

func TestCompute_MechanicalVentilationNeedsAirSystem(t *testing.T) {
	idx := hourly(4)
	mech := func(c *MemoryCollector) {
		c.Add(idf.Hourly, "Zone Mechanical Ventilation No Load Heat Addition Energy", "Z2", "kWh", idx, []float64{3, 3, 3, 3})
		c.Add(idf.Hourly, "Zone Mechanical Ventilation No Load Heat Removal Energy", "Z2", "kWh", idx, []float64{1, 1, 1, 1})
	}

	// GIVEN mechanical ventilation series without air system series
	c := hvacCollector()
	mech(c)
	b, err := Compute(c, twoZoneModel(), Options{})
	require.NoError(t, err)
	// THEN the component is unavailable
	assert.Contains(t, b.Unavailable, MechVent)

	// GIVEN the air system series as well
	c = hvacCollector()
	mech(c)
	c.Add(idf.Hourly, "Zone Air System Sensible Heating Energy", "Z2", "kWh", idx, []float64{1, 1, 1, 1})
	c.Add(idf.Hourly, "Zone Air System Sensible Cooling Energy", "Z2", "kWh", idx, []float64{0, 0, 0, 0})
	b, err = Compute(c, twoZoneModel(), Options{})
	require.NoError(t, err)
	// THEN it is the net of addition and removal
	f, ok := b.Component(MechVent)
	require.True(t, ok)
	testutil.AssertSliceEqual(t, "mech vent", []float64{2, 2, 2, 2}, f.column("Z2"), 1e-9)
}

func TestCompute_WindowsExcludeTransmittedSolar(t *testing.T) {
	// GIVEN window gain, loss and transmitted solar for Z2 and solar only for Z1
	c := hvacCollector()
	idx := hourly(4)
	c.Add(idf.Hourly, "Zone Windows Total Heat Gain Energy", "Z2", "kWh", idx, []float64{5, 5, 1, 0})
	c.Add(idf.Hourly, "Zone Windows Total Heat Loss Energy", "Z2", "kWh", idx, []float64{1, 1, 0, 3})
	c.Add(idf.Hourly, "Zone Windows Total Transmitted Solar Radiation Energy", "Z2", "kWh", idx, []float64{2, 2, 1, 0})
	c.Add(idf.Hourly, "Zone Windows Total Transmitted Solar Radiation Energy", "Z1", "kWh", idx, []float64{1, 1, 1, 1})

	// WHEN the balance is computed
	b, err := Compute(c, twoZoneModel(), Options{})
	require.NoError(t, err)

	// THEN window flow is conduction only, for zones that have windows
	f, ok := b.Component(Windows)
	require.True(t, ok)
	assert.Equal(t, []string{"Z2"}, f.Keys())
	testutil.AssertSliceEqual(t, "conduction", []float64{2, 2, 0, -3}, f.column("Z2"), 1e-9)
}

func TestCompute_SurfaceMultiplierWeighting(t *testing.T) {
	// GIVEN a roof with multiplier 3 in a zone with multiplier 2
	model := twoZoneModel()
	addSurface(model, "Z1_Roof", "ROOF", "Outdoors", "z1", "3")
	idx := hourly(2)
	newCollector := func() *MemoryCollector {
		c := NewMemoryCollector()
		c.Add(idf.Hourly, "Surface Average Face Conduction Heat Transfer Energy", "Z1_Roof", "kWh", idx, []float64{1, -1})
		return c
	}

	tests := []struct {
		mode MultiplierMode
		want []float64
	}{
		{SurfaceAndZone, []float64{6, -6}},
		{SurfaceOnly, []float64{3, -3}},
	}
	for _, tt := range tests {
		// WHEN the balance is computed in each multiplier mode
		b, err := Compute(newCollector(), model, Options{Multipliers: tt.mode})
		require.NoError(t, err)

		// THEN the surface is attributed to its zone with the expected weighting
		f, ok := b.Component(Opaque)
		require.True(t, ok)
		require.Len(t, f.Columns, 1)
		assert.Equal(t, Column{
			Variable: "Surface Average Face Conduction Heat Transfer Energy",
			Key:      "Z1_ROOF", Zone: "Z1", SurfaceType: "Roof", Boundary: "Outdoors",
		}, f.Columns[0])
		testutil.AssertSliceEqual(t, "roof", tt.want, f.Data[0], 1e-9)
	}
}

func TestCompute_OutdoorSurfacesOnly(t *testing.T) {
	// GIVEN an exterior wall, an interzone floor and an unknown surface
	model := twoZoneModel()
	addSurface(model, "Z2_Wall", "Wall", "Outdoors", "Z2", "")
	addSurface(model, "Z2_Floor", "Floor", "Surface", "Z2", "")
	idx := hourly(2)
	newCollector := func() *MemoryCollector {
		c := NewMemoryCollector()
		for _, key := range []string{"Z2_Wall", "Z2_Floor", "Ghost"} {
			c.Add(idf.Hourly, "Surface Average Face Conduction Heat Transfer Energy", key, "kWh", idx, []float64{1, 1})
		}
		return c
	}

	// WHEN computed with and without the outdoor filter
	all, err := Compute(newCollector(), model, Options{})
	require.NoError(t, err)
	outdoor, err := Compute(newCollector(), model, Options{OutdoorSurfacesOnly: true})
	require.NoError(t, err)

	// THEN the unknown surface is always dropped and the interzone floor only when filtering
	f, _ := all.Component(Opaque)
	assert.Equal(t, []string{"Z2_FLOOR", "Z2_WALL"}, f.Keys())
	f, _ = outdoor.Component(Opaque)
	assert.Equal(t, []string{"Z2_WALL"}, f.Keys())
}

func TestCompute_UnsupportedFrequency(t *testing.T) {
	// GIVEN a daily reporting frequency
	_, err := Compute(hvacCollector(), twoZoneModel(), Options{Frequency: idf.Daily})

	// THEN the balance is refused with an input error
	ie, ok := AsInputError(err)
	require.True(t, ok)
	assert.Contains(t, ie.Reason, "Daily")
}

func TestCompute_IrregularTimestepRejected(t *testing.T) {
	// GIVEN series tagged hourly whose timestamps are 30 minutes apart
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := []time.Time{start, start.Add(30 * time.Minute), start.Add(time.Hour)}
	c := NewMemoryCollector()
	c.Add(idf.Hourly, convective, "Z1", "kW", idx, []float64{1, 1, 1})

	// WHEN computed
	_, err := Compute(c, twoZoneModel(), Options{})

	// THEN the spacing is reported
	var ie *eplus.BalanceInputError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, ie.Reason, "timestep")
}

func TestCompute_ModelFieldErrorPropagates(t *testing.T) {
	model := idf.NewStore()
	model.Add(idf.NewRecord(idf.TypeZone, "Name", "Z1", "Multiplier", "two"))

	_, err := Compute(hvacCollector(), model, Options{})

	var fe *eplus.FieldError
	assert.True(t, errors.As(err, &fe))
}

func TestSummary_RowsAndComponentSummary(t *testing.T) {
	// GIVEN a balance with lighting, natural ventilation and a roof
	model := twoZoneModel()
	addSurface(model, "Z2_Roof", "Roof", "Outdoors", "Z2", "")
	c := hvacCollector()
	idx := hourly(4)
	c.Add(idf.Hourly, "Zone Lights Total Heating Energy", "Z2", "kWh", idx, []float64{1, 1, 1, 1})
	c.Add(idf.Hourly, "Zone Ventilation Sensible Heat Gain Energy", "Z2", "kWh", idx, []float64{1, 1, 1, 1})
	c.Add(idf.Hourly, "Zone Ventilation Sensible Heat Loss Energy", "Z2", "kWh", idx, []float64{0, 0, 0, 0})
	c.Add(idf.Hourly, "Surface Average Face Conduction Heat Transfer Energy", "Z2_Roof", "kWh", idx, []float64{-1, -1, -1, -1})
	b, err := Compute(c, model, Options{})
	require.NoError(t, err)

	// WHEN summarized
	rows := b.Summary()

	// THEN natural ventilation is not reported and the roof row is named by surface type
	var components []string
	for _, r := range rows {
		components = append(components, r.Component)
	}
	assert.NotContains(t, components, string(NatVent))
	assert.Contains(t, components, "Roof")
	assert.Equal(t, "Roof", rows[len(rows)-1].Component)
	assert.Equal(t, PeriodTotals{HeatingLoss: 4}, rows[len(rows)-1].PeriodTotals)

	// AND annual totals merge zones of one component
	for _, a := range b.Annual() {
		if a.Component == string(Heating) {
			assert.InDelta(t, 6+2, a.HeatingGain, 1e-9)
		}
	}

	// AND the component summary uses display names for available components
	var names []string
	for _, cs := range b.ComponentSummary() {
		names = append(names, cs.Component)
	}
	assert.Equal(t, []string{"Opaque Conduction", "Lighting"}, names)

	// AND zone totals are net annual sums
	var roofTotal float64
	for _, z := range b.ZoneTotals() {
		if z.Component == "Roof" {
			roofTotal = z.Total
			assert.Equal(t, "Z2", z.Key)
		}
	}
	assert.Equal(t, -4.0, roofTotal)
}

func TestPeriodTotals_Get(t *testing.T) {
	p := PeriodTotals{CoolingGain: 1, CoolingLoss: 2, HeatingGain: 3, HeatingLoss: 4}

	v, err := p.Get(HeatingPeriods, HeatLoss)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
	_, err = p.Get("Summer", HeatGain)
	assert.Error(t, err)
}

func TestCSVCollector_RoundTripWithUnits(t *testing.T) {
	// GIVEN a long-format export in Wh
	src := strings.Join([]string{
		"timestamp,frequency,variable,key,units,value",
		"2020-01-01T01:00:00Z,Hourly,Zone Lights Total Heating Energy,z1,Wh,1500",
		"2020-01-01 02:00:00,Hourly,Zone Lights Total Heating Energy,Z1,Wh,500",
		"2020-01-01T01:00:00Z,Daily,Zone Lights Total Heating Energy,Z1,Wh,9",
	}, "\n")

	// WHEN read and collected in kWh
	c, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	f, err := c.CollectByOutputName(Lighting, idf.Hourly, "kWh")
	require.NoError(t, err)

	// THEN keys are merged case-insensitively and values converted
	require.Len(t, f.Columns, 1)
	testutil.AssertSliceEqual(t, "lights", []float64{1.5, 0.5}, f.Data[0], 1e-12)

	// AND writing and re-reading preserves the series
	var buf bytes.Buffer
	require.NoError(t, c.WriteCSV(&buf))
	again, err := ReadCSV(&buf)
	require.NoError(t, err)
	g, err := again.CollectByOutputName(Lighting, idf.Hourly, "Wh")
	require.NoError(t, err)
	testutil.AssertSliceEqual(t, "lights", []float64{1500, 500}, g.Data[0], 1e-9)
}

func TestCSVCollector_Errors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"bad header", "time,frequency,variable,key,units,value\n", "header"},
		{"bad units", "timestamp,frequency,variable,key,units,value\n2020-01-01T01:00:00Z,Hourly,X,Z1,furlongs,1\n", "units"},
		{"bad value", "timestamp,frequency,variable,key,units,value\n2020-01-01T01:00:00Z,Hourly,X,Z1,J,abc\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConcat_LengthMismatch(t *testing.T) {
	a := NewFrame(hourly(2))
	require.NoError(t, a.Add(Column{Key: "A"}, []float64{1, 2}))
	b := NewFrame(hourly(3))
	require.NoError(t, b.Add(Column{Key: "B"}, []float64{1, 2, 3}))

	_, err := Concat(a, b)
	assert.Error(t, err)
	empty, err := Concat(NewFrame(nil), nil)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}
