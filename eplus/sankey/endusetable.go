package sankey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EndUses are the end-use rows kept from an end-use table.
var EndUses = []string{
	"Heating", "Cooling", "Interior Lighting", "Exterior Lighting",
	"Interior Equipment", "Exterior Equipment", "Fans", "Pumps",
	"Heat Rejection", "Humidification", "Heat Recovery", "Water Systems",
	"Refrigeration", "Generators",
}

// EnergySources are the energy-source columns kept from an end-use table.
// Columns are matched by substring so unit suffixes ("Electricity [kWh]")
// are accepted and non-energy columns ("Water [m3]") are not.
var EnergySources = []string{
	"Electricity", "Natural Gas", "Additional Fuel", "District Cooling", "District Heating",
}

// EndUseTable is the whole-building end-use summary: one row per end use,
// one column per energy source.
type EndUseTable struct {
	EndUses []string
	Sources []string
	Values  [][]float64 // Values[row][col]
}

func matchesAny(label string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(label, p) {
			return true
		}
	}
	return false
}

// Filtered keeps the known end uses and energy sources and drops rows and
// columns that are zero throughout.
func (t *EndUseTable) Filtered() *EndUseTable {
	var rows, cols []int
	for j, s := range t.Sources {
		if matchesAny(s, EnergySources) {
			cols = append(cols, j)
		}
	}
	for i, e := range t.EndUses {
		if matchesAny(e, EndUses) {
			rows = append(rows, i)
		}
	}
	nonZero := func(v float64) bool { return v != 0 && !isNaN(v) }

	var keptRows []int
	for _, i := range rows {
		for _, j := range cols {
			if nonZero(t.Values[i][j]) {
				keptRows = append(keptRows, i)
				break
			}
		}
	}
	var keptCols []int
	for _, j := range cols {
		for _, i := range keptRows {
			if nonZero(t.Values[i][j]) {
				keptCols = append(keptCols, j)
				break
			}
		}
	}

	out := &EndUseTable{}
	for _, j := range keptCols {
		out.Sources = append(out.Sources, t.Sources[j])
	}
	for _, i := range keptRows {
		out.EndUses = append(out.EndUses, t.EndUses[i])
		row := make([]float64, len(keptCols))
		for k, j := range keptCols {
			row[k] = t.Values[i][j]
		}
		out.Values = append(out.Values, row)
	}
	return out
}

// Total sums an end-use row over every source; zero when the row is absent.
func (t *EndUseTable) Total(endUse string) float64 {
	var total float64
	for i, e := range t.EndUses {
		if e != endUse {
			continue
		}
		for _, v := range t.Values[i] {
			if !isNaN(v) {
				total += v
			}
		}
	}
	return total
}

// LoadEndUses reads an end-use table; see ReadEndUses.
func LoadEndUses(path string) (*EndUseTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening end-use table: %w", err)
	}
	defer f.Close()
	t, err := ReadEndUses(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// ReadEndUses reads a CSV whose header names the energy sources after a
// leading end-use column and whose rows are end uses. Blank cells are zero.
func ReadEndUses(r io.Reader) (*EndUseTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header has %d columns, want an end-use column and at least one source", len(header))
	}
	t := &EndUseTable{}
	for _, h := range header[1:] {
		t.Sources = append(t.Sources, strings.TrimSpace(h))
	}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(t.Sources))
		for j, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, %s: %w", line, t.Sources[j], err)
			}
			row[j] = v
		}
		t.EndUses = append(t.EndUses, strings.TrimSpace(rec[0]))
		t.Values = append(t.Values, row)
	}
	return t, nil
}
