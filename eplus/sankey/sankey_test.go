package sankey

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eplus-sim/eplus-sim/eplus/balance"
)

const endUseCSV = `,Electricity [kWh],Natural Gas [kWh],Water [m3]
Heating,0,120,0
Cooling,80,0,0
Interior Lighting,40,0,0
Fans,0,0,0
Water Systems,0,0,12
Total End Uses,120,120,12
`

func sampleAnnual() []balance.ComponentTotals {
	return []balance.ComponentTotals{
		{Component: "heating", PeriodTotals: balance.PeriodTotals{HeatingGain: 100}},
		{Component: "cooling", PeriodTotals: balance.PeriodTotals{CoolingLoss: 60}},
		{Component: "people_gain", PeriodTotals: balance.PeriodTotals{HeatingGain: 10, CoolingGain: 5}},
		{Component: "window_energy_flow", PeriodTotals: balance.PeriodTotals{HeatingLoss: 30, CoolingLoss: 4}},
		{Component: "Wall", PeriodTotals: balance.PeriodTotals{HeatingLoss: 20}},
		{Component: "Roof", PeriodTotals: balance.PeriodTotals{HeatingLoss: 5}},
	}
}

func edgeMap(edges []Edge) map[[2]string]float64 {
	m := make(map[[2]string]float64)
	for _, e := range edges {
		m[[2]string{e.Source, e.Target}] = e.Value
	}
	return m
}

func TestReadEndUses_FilteredDropsZeroRowsAndColumns(t *testing.T) {
	// GIVEN an end-use table with a water column and an all-zero row
	table, err := ReadEndUses(strings.NewReader(endUseCSV))
	require.NoError(t, err)

	// WHEN filtered
	f := table.Filtered()

	// THEN only energy sources and non-zero known end uses remain
	assert.Equal(t, []string{"Electricity [kWh]", "Natural Gas [kWh]"}, f.Sources)
	assert.Equal(t, []string{"Heating", "Cooling", "Interior Lighting"}, f.EndUses)
	assert.Equal(t, 120.0, f.Total("Heating"))
	assert.Equal(t, 0.0, f.Total("Pumps"))
}

func TestBuild_Tiers(t *testing.T) {
	// GIVEN annual balance totals and an end-use table
	table, err := ReadEndUses(strings.NewReader(endUseCSV))
	require.NoError(t, err)

	// WHEN the diagram is built
	edges := Build(sampleAnnual(), table)
	m := edgeMap(edges)

	// THEN energy sources feed end uses
	assert.Equal(t, 120.0, m[[2]string{"Natural Gas [kWh]", "Heating"}])
	assert.Equal(t, 40.0, m[[2]string{"Electricity [kWh]", "Interior Lighting"}])

	// AND end uses feed the systems
	assert.Equal(t, 120.0, m[[2]string{"Heating", "Heating System"}])
	assert.Equal(t, 80.0, m[[2]string{"Cooling", "Cooling System"}])

	// AND heating load is balanced against named gains and losses
	assert.Equal(t, 100.0, m[[2]string{"Heating System", "Heating Load"}])
	assert.Equal(t, 10.0, m[[2]string{"Occupants Gain", "Heating Load"}])
	assert.Equal(t, 30.0, m[[2]string{"Heating Load", "Windows Heat Losses"}])
	assert.Equal(t, 20.0, m[[2]string{"Heating Load", "Walls Heat Losses"}])
	assert.Equal(t, NominalLink, m[[2]string{"Heating", "Occupants Gain"}])
	assert.NotContains(t, m, [2]string{"Heating", "Heating Gain"})

	// AND cooling load mirrors it with its own labels
	assert.Equal(t, 60.0, m[[2]string{"Cooling System", "Cooling Load"}])
	assert.Equal(t, 4.0, m[[2]string{"Windows Losses", "Cooling Load"}])
	assert.Equal(t, 5.0, m[[2]string{"Cooling Load", "Occupants"}])
	assert.Equal(t, NominalLink, m[[2]string{"Cooling", "Windows Losses"}])
	assert.NotContains(t, m, [2]string{"Cooling", "Cooling System Losses"})

	// AND the source tier comes first
	assert.Equal(t, "Electricity [kWh]", edges[0].Source)
}

func TestBuild_NoNegativeOrNaNAndDuplicatesMerged(t *testing.T) {
	// GIVEN totals with NaN, negative values and two components sharing a label
	annual := []balance.ComponentTotals{
		{Component: "electric_equip", PeriodTotals: balance.PeriodTotals{HeatingGain: 3}},
		{Component: "interior_equipment", PeriodTotals: balance.PeriodTotals{HeatingGain: 4}},
		{Component: "lighting", PeriodTotals: balance.PeriodTotals{HeatingGain: math.NaN(), HeatingLoss: -2}},
	}

	// WHEN built without an end-use table
	edges := Build(annual, nil)

	// THEN every value is a finite magnitude and shared labels are summed
	seen := make(map[[2]string]bool)
	for _, e := range edges {
		assert.False(t, math.IsNaN(e.Value), "%v", e)
		assert.GreaterOrEqual(t, e.Value, 0.0, "%v", e)
		key := [2]string{e.Source, e.Target}
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
	}
	m := edgeMap(edges)
	assert.Equal(t, 7.0, m[[2]string{"Equipment Gain", "Heating Load"}])
	assert.Equal(t, 2*NominalLink, m[[2]string{"Heating", "Equipment Gain"}])
	assert.Equal(t, 2.0, m[[2]string{"Heating Load", "Lighting Heat Losses"}])
	assert.NotContains(t, m, [2]string{"Lighting Gain", "Heating Load"})
	assert.NotContains(t, m, [2]string{"Heating", "Heating System"})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, []Edge{{Source: "A", Target: "B, C", Value: 1.5}}))

	assert.Equal(t, "source,target,value\nA,\"B, C\",1.5\n", buf.String())
}

func TestReadEndUses_Errors(t *testing.T) {
	_, err := ReadEndUses(strings.NewReader("Heating\n"))
	assert.Error(t, err)
	_, err = ReadEndUses(strings.NewReader(",Electricity\nHeating,lots\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
