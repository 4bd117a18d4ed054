package balance

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SummaryRow is the annual gain/loss split of one component in one zone.
// Opaque surface rows are named by surface type ("Wall", "Roof", ...).
type SummaryRow struct {
	Component string
	Zone      string
	PeriodTotals
}

// ComponentTotals is the annual gain/loss split of one component over the
// whole building.
type ComponentTotals struct {
	Component string
	PeriodTotals
}

// summaryComponents are the zone-keyed components reported by Summary.
// Natural ventilation is folded into the zone air balance and not reported.
var summaryComponents = []Component{
	Cooling, Heating, LightingGain, Equipment, People, Solar,
	Infiltration, Windows, MechVent,
}

// Summary reports every available component per zone, period and direction.
func (b *Balance) Summary() []SummaryRow {
	var rows []SummaryRow
	for _, c := range summaryComponents {
		splits, err := b.Separate(c, ByKey)
		if err != nil {
			continue
		}
		for _, s := range splits {
			rows = append(rows, SummaryRow{Component: string(c), Zone: s.Group.Key, PeriodTotals: s.Totals()})
		}
	}
	opaque, err := b.Separate(Opaque, ByZoneAndSurfaceType)
	if err == nil {
		sort.SliceStable(opaque, func(i, j int) bool {
			return opaque[i].Group.SurfaceType < opaque[j].Group.SurfaceType
		})
		for _, s := range opaque {
			rows = append(rows, SummaryRow{Component: s.Group.SurfaceType, Zone: s.Group.Zone, PeriodTotals: s.Totals()})
		}
	}
	return rows
}

// Annual sums Summary over zones, keeping component order.
func (b *Balance) Annual() []ComponentTotals {
	var out []ComponentTotals
	pos := make(map[string]int)
	for _, r := range b.Summary() {
		i, ok := pos[r.Component]
		if !ok {
			pos[r.Component] = len(out)
			out = append(out, ComponentTotals{Component: r.Component, PeriodTotals: r.PeriodTotals})
			continue
		}
		out[i].PeriodTotals = out[i].PeriodTotals.Add(r.PeriodTotals)
	}
	return out
}

var componentSummaryNames = []struct {
	c     Component
	name  string
	level Level
}{
	{Opaque, "Opaque Conduction", ByZone},
	{Windows, "Window Conduction", ByZone},
	{Solar, "Window Solar Gains", ByKey},
	{LightingGain, "Lighting", ByKey},
	{Infiltration, "Infiltration", ByKey},
	{People, "Occupants (Sensible + Latent)", ByKey},
}

// ComponentSummary reports the envelope and internal-gain components
// annually under their display names. Unavailable components are skipped.
func (b *Balance) ComponentSummary() []ComponentTotals {
	var out []ComponentTotals
	for _, n := range componentSummaryNames {
		splits, err := b.Separate(n.c, n.level)
		if err != nil {
			continue
		}
		var total PeriodTotals
		for _, s := range splits {
			total = total.Add(s.Totals())
		}
		out = append(out, ComponentTotals{Component: n.name, PeriodTotals: total})
	}
	return out
}

// ZoneTotal is the annual net of one component for one key.
type ZoneTotal struct {
	Component string
	Key       string
	Total     float64
}

// ZoneTotals reports annual net totals without separating gains from
// losses. Opaque surfaces are summed per zone under their surface type.
func (b *Balance) ZoneTotals() []ZoneTotal {
	var out []ZoneTotal
	for _, c := range []Component{Cooling, Heating, LightingGain, Equipment, People, Solar, Infiltration, Windows} {
		f, ok := b.components[c]
		if !ok {
			continue
		}
		summed := f.SumByKey(string(c))
		for i, col := range summed.Columns {
			out = append(out, ZoneTotal{Component: string(c), Key: col.Key, Total: floats.Sum(summed.Data[i])})
		}
	}
	if f, ok := b.components[Opaque]; ok {
		grouped := f.GroupBy(func(c Column) Column {
			return Column{Zone: c.Zone, SurfaceType: c.SurfaceType}
		})
		order := make([]int, len(grouped.Columns))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			ca, cb := grouped.Columns[order[a]], grouped.Columns[order[b]]
			if ca.SurfaceType != cb.SurfaceType {
				return ca.SurfaceType < cb.SurfaceType
			}
			return ca.Zone < cb.Zone
		})
		for _, i := range order {
			col := grouped.Columns[i]
			out = append(out, ZoneTotal{Component: col.SurfaceType, Key: col.Zone, Total: floats.Sum(grouped.Data[i])})
		}
	}
	return out
}
