// Package sankey turns an energy balance and a whole-building end-use table
// into the weighted edges of a Sankey diagram.
//
// Three tiers are emitted: energy source to end use, end use to delivered
// load (a nominal link that only forces the diagram to connect the two), and
// delivered load to the component gains and losses of the balance.
package sankey

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/eplus-sim/eplus-sim/eplus/balance"
)

// NominalLink is the weight of edges that only connect diagram nodes.
const NominalLink = 0.01

// Edge is one directed flow. Value is never negative or NaN.
type Edge struct {
	Source string
	Target string
	Value  float64
}

var displayNames = map[string]string{
	"people_gain":        "Occupants",
	"solar_gain":         "Passive Solar",
	"lighting":           "Lighting",
	"infiltration":       "Infiltration",
	"electric_equip":     "Equipment",
	"interior_equipment": "Equipment",
	"window_energy_flow": "Windows",
	"Wall":               "Walls",
}

// DisplayName returns the diagram label of a balance component.
func DisplayName(component string) string {
	if n, ok := displayNames[component]; ok {
		return n
	}
	return component
}

func isNaN(v float64) bool { return math.IsNaN(v) }

func present(v float64) bool { return v != 0 && !isNaN(v) && !math.IsInf(v, 0) }

// graph accumulates edges, merging duplicates by summation in first-seen
// order.
type graph struct {
	edges []Edge
	pos   map[[2]string]int
}

func newGraph() *graph {
	return &graph{pos: make(map[[2]string]int)}
}

func (g *graph) add(source, target string, value float64) {
	if !present(value) {
		return
	}
	value = math.Abs(value)
	key := [2]string{source, target}
	if i, ok := g.pos[key]; ok {
		g.edges[i].Value += value
		return
	}
	g.pos[key] = len(g.edges)
	g.edges = append(g.edges, Edge{Source: source, Target: target, Value: value})
}

type flow struct {
	name  string
	value float64
}

// Build assembles the diagram from annual component totals and an end-use
// table. endUses may be nil, in which case only the load tiers are emitted.
func Build(annual []balance.ComponentTotals, endUses *EndUseTable) []Edge {
	g := newGraph()
	var heatingTotal, coolingTotal float64
	if endUses != nil {
		t := endUses.Filtered()
		for j, source := range t.Sources {
			for i, endUse := range t.EndUses {
				g.add(source, endUse, t.Values[i][j])
			}
		}
		heatingTotal = t.Total("Heating")
		coolingTotal = t.Total("Cooling")
	}

	var heatGains, heatLosses, coolLosses, coolGains []flow
	for _, a := range annual {
		name := DisplayName(a.Component)
		if present(a.HeatingGain) {
			src := name + " Gain"
			if a.Component == string(balance.Heating) {
				src = "Heating System"
			}
			heatGains = append(heatGains, flow{src, a.HeatingGain})
		}
		if present(a.HeatingLoss) {
			heatLosses = append(heatLosses, flow{name + " Heat Losses", a.HeatingLoss})
		}
		if present(a.CoolingLoss) {
			src := name + " Losses"
			if a.Component == string(balance.Cooling) {
				src = "Cooling System"
			}
			coolLosses = append(coolLosses, flow{src, a.CoolingLoss})
		}
		if present(a.CoolingGain) {
			coolGains = append(coolGains, flow{name, a.CoolingGain})
		}
	}

	for _, f := range heatGains {
		if f.name != "Heating System" {
			g.add("Heating", f.name, NominalLink)
		}
	}
	g.add("Heating", "Heating System", heatingTotal)
	for _, f := range heatGains {
		g.add(f.name, "Heating Load", f.value)
	}
	for _, f := range heatLosses {
		g.add("Heating Load", f.name, f.value)
	}
	g.add("Cooling", "Cooling System", coolingTotal)
	for _, f := range coolLosses {
		g.add(f.name, "Cooling Load", f.value)
	}
	for _, f := range coolGains {
		g.add("Cooling Load", f.name, f.value)
	}
	for _, f := range coolLosses {
		if f.name != "Cooling System" {
			g.add("Cooling", f.name, NominalLink)
		}
	}
	return g.edges
}

// FromBalance builds the diagram from a computed balance.
func FromBalance(b *balance.Balance, endUses *EndUseTable) []Edge {
	return Build(b.Annual(), endUses)
}

// WriteCSV writes edges with a source,target,value header.
func WriteCSV(w io.Writer, edges []Edge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target", "value"}); err != nil {
		return err
	}
	for _, e := range edges {
		if err := cw.Write([]string{e.Source, e.Target, strconv.FormatFloat(e.Value, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
