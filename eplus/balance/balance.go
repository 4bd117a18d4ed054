package balance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/eplus-sim/eplus-sim/eplus"
	"github.com/eplus-sim/eplus-sim/eplus/idf"
)

// Component names one attributable energy flow of the balance.
type Component string

const (
	Cooling      Component = "cooling"
	Heating      Component = "heating"
	LightingGain Component = "lighting"
	Equipment    Component = "electric_equip"
	People       Component = "people_gain"
	Solar        Component = "solar_gain"
	Infiltration Component = "infiltration"
	Windows      Component = "window_energy_flow"
	MechVent     Component = "mech_vent"
	NatVent      Component = "nat_vent"
	Opaque       Component = "face_energy_flow"
)

// Components lists every component in reporting order.
var Components = []Component{
	Cooling, Heating, LightingGain, Equipment, People, Solar,
	Infiltration, Windows, MechVent, NatVent, Opaque,
}

// MultiplierMode controls how often a zone multiplier weights surface flows.
type MultiplierMode int

const (
	// SurfaceAndZone scales a surface series by its own multiplier and again
	// by its zone's multiplier when the surface is attributed to the zone.
	SurfaceAndZone MultiplierMode = iota
	// SurfaceOnly skips the zone multiplier at attribution.
	SurfaceOnly
)

// Options configures Compute.
type Options struct {
	Units               string        // energy units of the result, default kWh
	PowerUnits          string        // units HVAC power series are collected in, default kW
	Frequency           idf.Frequency // default Hourly; the only supported frequency
	OutdoorSurfacesOnly bool          // drop interzone ("Surface") and unmatched surfaces
	Multipliers         MultiplierMode
}

func (o Options) withDefaults() Options {
	if o.Units == "" {
		o.Units = "kWh"
	}
	if o.PowerUnits == "" {
		o.PowerUnits = "kW"
	}
	if o.Frequency == "" {
		o.Frequency = idf.Hourly
	}
	return o
}

// Balance is the sign-corrected decomposition of one simulation's output
// into components. Components whose inputs were missing or inconsistent
// are absent and listed in Unavailable with the reason.
type Balance struct {
	Units       string
	Index       []time.Time
	Unavailable map[Component]string

	components      map[Component]*Frame
	zoneCooling     map[string][]bool
	buildingCooling []bool
}

// Component returns the frame of c, or false when it is unavailable.
func (b *Balance) Component(c Component) (*Frame, bool) {
	f, ok := b.components[c]
	return f, ok
}

// Available lists the computed components in reporting order.
func (b *Balance) Available() []Component {
	var out []Component
	for _, c := range Components {
		if _, ok := b.components[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// CoolingMask returns the cooling-period mask used for zone: the zone's own
// mask when HVAC series exist for it, otherwise the building mask (cooling
// when any zone cools).
func (b *Balance) CoolingMask(zone string) []bool {
	if m, ok := b.zoneCooling[strings.ToUpper(zone)]; ok {
		return m
	}
	return b.buildingCooling
}

type builder struct {
	c        Collector
	opts     Options
	zoneMult map[string]float64
	b        *Balance
}

// Compute collects every series the balance needs from c and decomposes
// them. model supplies zone multipliers and surface metadata. An error is
// returned only when nothing can be computed (unsupported frequency or
// units, unreadable model objects, collector failure); missing or
// inconsistent inputs for a single component are recorded in Unavailable.
func Compute(c Collector, model *idf.Store, opts Options) (*Balance, error) {
	opts = opts.withDefaults()
	step, ok := opts.Frequency.Step()
	if !ok {
		return nil, &eplus.BalanceInputError{Reason: fmt.Sprintf("unsupported reporting frequency %s", opts.Frequency)}
	}
	if !IsEnergyUnit(opts.Units) {
		return nil, &eplus.BalanceInputError{Reason: fmt.Sprintf("unsupported energy unit %q", opts.Units)}
	}
	powerFactor, err := PowerToEnergyFactor(opts.PowerUnits, step, opts.Units)
	if err != nil {
		return nil, &eplus.BalanceInputError{Reason: err.Error()}
	}
	zoneMult, err := idf.ZoneMultipliers(model)
	if err != nil {
		return nil, err
	}
	surfaces, err := idf.Surfaces(model)
	if err != nil {
		return nil, err
	}

	bld := &builder{c: c, opts: opts, zoneMult: zoneMult, b: &Balance{
		Units:       opts.Units,
		Unavailable: make(map[Component]string),
		components:  make(map[Component]*Frame),
		zoneCooling: make(map[string][]bool),
	}}

	hvac, err := bld.hvacInput(powerFactor, step)
	if err != nil {
		return nil, err
	}
	bld.splitHVAC(hvac)

	simple := []struct {
		c     Component
		names []string
	}{
		{LightingGain, Lighting}, {Equipment, EquipGains}, {People, PeopleGain}, {Solar, SolarGain},
	}
	for _, s := range simple {
		f, err := bld.collect(s.names)
		if err != nil {
			return nil, err
		}
		bld.set(s.c, f, nil)
	}

	for _, p := range []struct {
		c          Component
		gain, loss []string
	}{
		{Infiltration, InfilGain, InfilLoss},
		{NatVent, NatVentGain, NatVentLoss},
	} {
		net, ierr, err := bld.netPair(p.c, p.gain, p.loss)
		if err != nil {
			return nil, err
		}
		bld.set(p.c, net, ierr)
	}

	mech, ierr, err := bld.mechanicalVentilation()
	if err != nil {
		return nil, err
	}
	bld.set(MechVent, mech, ierr)

	win, ierr, err := bld.windows()
	if err != nil {
		return nil, err
	}
	bld.set(Windows, win, ierr)

	opaque, err := bld.opaque(surfaces)
	if err != nil {
		return nil, err
	}
	bld.set(Opaque, opaque, nil)

	if len(bld.b.Unavailable) > 0 {
		for _, c := range Components {
			if reason, ok := bld.b.Unavailable[c]; ok {
				logrus.Warnf("energy balance: %s unavailable: %s", c, reason)
			}
		}
	}
	return bld.b, nil
}

// collect reads names in the result units with zone multipliers applied.
func (bld *builder) collect(names []string) (*Frame, error) {
	f, err := bld.c.CollectByOutputName(names, bld.opts.Frequency, bld.opts.Units)
	if err != nil {
		return nil, fmt.Errorf("collecting %s: %w", strings.Join(names, ", "), err)
	}
	return bld.applyZoneMultipliers(f), nil
}

func (bld *builder) zoneMultiplier(zone string) float64 {
	if m, ok := bld.zoneMult[strings.ToUpper(zone)]; ok {
		return m
	}
	return 1
}

func (bld *builder) applyZoneMultipliers(f *Frame) *Frame {
	return f.Scale(func(c Column) float64 { return bld.zoneMultiplier(c.Key) })
}

// set records f under c, or marks c unavailable. The first non-empty frame
// fixes the balance index; a frame of another length is unavailable.
func (bld *builder) set(c Component, f *Frame, inputErr *eplus.BalanceInputError) {
	b := bld.b
	switch {
	case inputErr != nil:
		b.Unavailable[c] = inputErr.Reason
		return
	case f.Empty():
		b.Unavailable[c] = "no series collected"
		return
	}
	if b.Index == nil {
		b.Index = f.Index
	}
	if f.Len() != len(b.Index) {
		b.Unavailable[c] = fmt.Sprintf("series has %d timesteps, expected %d", f.Len(), len(b.Index))
		return
	}
	b.components[c] = f
}

// hvacInput returns the sensible HVAC input converted from power to energy
// joined with the net radiant surface input (heated minus cooled).
func (bld *builder) hvacInput(powerFactor float64, step time.Duration) (*Frame, error) {
	sensible, err := bld.c.CollectByOutputName(HVACInputSensible, bld.opts.Frequency, bld.opts.PowerUnits)
	if err != nil {
		return nil, fmt.Errorf("collecting HVAC input: %w", err)
	}
	if err := checkSpacing(sensible.Index, step); err != nil {
		return nil, err
	}
	sensible = sensible.Scale(func(Column) float64 { return powerFactor })

	heated, err := bld.c.CollectByOutputName(HVACInputHeatedSurface, bld.opts.Frequency, bld.opts.Units)
	if err != nil {
		return nil, fmt.Errorf("collecting radiant heating: %w", err)
	}
	cooled, err := bld.c.CollectByOutputName(HVACInputCooledSurface, bld.opts.Frequency, bld.opts.Units)
	if err != nil {
		return nil, fmt.Errorf("collecting radiant cooling: %w", err)
	}
	radiant, rerr := subtractByKey("Zone Radiant HVAC Energy", heated, cooled, true)
	if rerr != nil {
		logrus.Warnf("energy balance: radiant HVAC input ignored: %s", rerr.Reason)
		radiant = NewFrame(nil)
	}

	hvac, err := Concat(sensible, radiant)
	if err != nil {
		logrus.Warnf("energy balance: radiant HVAC input ignored: %v", err)
		hvac = sensible
	}
	return bld.applyZoneMultipliers(hvac), nil
}

// checkSpacing verifies index advances by exactly step.
func checkSpacing(index []time.Time, step time.Duration) error {
	for i := 1; i < len(index); i++ {
		if d := index[i].Sub(index[i-1]); d != step {
			return &eplus.BalanceInputError{Reason: fmt.Sprintf(
				"unsupported reporting frequency: timestep %d is %s after the previous one, want %s", i, d, step)}
		}
	}
	return nil
}

// splitHVAC derives heating and cooling from the HVAC input and the
// per-zone cooling masks used to classify every other component.
func (bld *builder) splitHVAC(hvac *Frame) {
	b := bld.b
	if hvac.Empty() {
		bld.set(Heating, hvac, nil)
		bld.set(Cooling, hvac, nil)
		return
	}
	heating := NewFrame(hvac.Index)
	cooling := NewFrame(hvac.Index)
	for i, col := range hvac.Columns {
		values := hvac.Data[i]
		sign := RollingSign(values)
		h := make([]float64, len(values))
		c := make([]float64, len(values))
		zone := strings.ToUpper(col.Key)
		mask, ok := b.zoneCooling[zone]
		if !ok {
			mask = make([]bool, len(values))
			b.zoneCooling[zone] = mask
		}
		for t, v := range values {
			if sign[t] > 0 {
				h[t] = v
			} else {
				c[t] = v
				mask[t] = true
			}
		}
		_ = heating.Add(col, h)
		_ = cooling.Add(col, c)
	}
	building := make([]bool, hvac.Len())
	for _, mask := range b.zoneCooling {
		for t, cool := range mask {
			building[t] = building[t] || cool
		}
	}
	b.buildingCooling = building
	bld.set(Heating, heating, nil)
	bld.set(Cooling, cooling, nil)
}

// subtractByKey nets a minus b per key. Keys present in only one frame are
// an input error unless allowMissing, in which case the absent side is zero.
func subtractByKey(variable string, a, b *Frame, allowMissing bool) (*Frame, *eplus.BalanceInputError) {
	if a.Empty() && b.Empty() {
		return NewFrame(nil), nil
	}
	if !a.Empty() && !b.Empty() && a.Len() != b.Len() {
		return nil, &eplus.BalanceInputError{Reason: fmt.Sprintf(
			"paired series have %d and %d timesteps", a.Len(), b.Len())}
	}
	if !a.Empty() && !b.Empty() {
		for i := range a.Index {
			if !a.Index[i].Equal(b.Index[i]) {
				return nil, &eplus.BalanceInputError{Reason: fmt.Sprintf(
					"paired series are misaligned at timestep %d (%s vs %s)", i,
					a.Index[i].Format(time.RFC3339), b.Index[i].Format(time.RFC3339))}
			}
		}
	}
	as, bs := a.SumByKey(variable), b.SumByKey(variable)
	if !allowMissing && !sameKeys(as, bs) {
		return nil, &eplus.BalanceInputError{Reason: fmt.Sprintf(
			"paired series cover different objects (%d vs %d keys)", len(as.Keys()), len(bs.Keys()))}
	}
	index := as.Index
	if as.Empty() {
		index = bs.Index
	}
	out := NewFrame(index)
	keys := unionKeys(as, bs)
	for _, k := range keys {
		values := make([]float64, len(index))
		if v := as.column(k); v != nil {
			copy(values, v)
		}
		if v := bs.column(k); v != nil {
			floats.Sub(values, v)
		}
		_ = out.Add(Column{Variable: variable, Key: k, Zone: k}, values)
	}
	return out, nil
}

func sameKeys(a, b *Frame) bool {
	ka, kb := a.Keys(), b.Keys()
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func unionKeys(a, b *Frame) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, k := range append(a.Keys(), b.Keys()...) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// netName drops the " Gain" marker from a gain variable name.
func netName(gainVariable string) string {
	return strings.Replace(gainVariable, " Gain", "", 1)
}

// netPair collects a gain/loss pair and nets it per key. Both sides empty,
// or sides that disagree in shape, make the component unavailable.
func (bld *builder) netPair(c Component, gainNames, lossNames []string) (*Frame, *eplus.BalanceInputError, error) {
	gain, err := bld.collect(gainNames)
	if err != nil {
		return nil, nil, err
	}
	loss, err := bld.collect(lossNames)
	if err != nil {
		return nil, nil, err
	}
	if gain.Empty() && loss.Empty() {
		return nil, &eplus.BalanceInputError{Component: string(c), Reason: "no series collected"}, nil
	}
	if gain.Empty() != loss.Empty() {
		return nil, &eplus.BalanceInputError{Component: string(c), Reason: "gain and loss series must both be present"}, nil
	}
	net, ierr := subtractByKey(netName(gainNames[0]), gain, loss, false)
	if ierr != nil {
		ierr.Component = string(c)
		return nil, ierr, nil
	}
	return net, nil, nil
}

// mechanicalVentilation is only attributable when the air system sensible
// series and both HVAC modes are present.
func (bld *builder) mechanicalVentilation() (*Frame, *eplus.BalanceInputError, error) {
	ventGain, err := bld.collect(VentilationGain)
	if err != nil {
		return nil, nil, err
	}
	ventLoss, err := bld.collect(VentilationLoss)
	if err != nil {
		return nil, nil, err
	}
	_, hasHeating := bld.b.components[Heating]
	_, hasCooling := bld.b.components[Cooling]
	if ventGain.Empty() || ventLoss.Empty() || !hasHeating || !hasCooling {
		return nil, &eplus.BalanceInputError{Component: string(MechVent),
			Reason: "requires air system sensible heating and cooling series and HVAC input"}, nil
	}
	return bld.netPair(MechVent, MechVentGain, MechVentLoss)
}

// windows nets window gain and loss per zone and removes transmitted solar
// so that only conduction remains.
func (bld *builder) windows() (*Frame, *eplus.BalanceInputError, error) {
	net, ierr, err := bld.netPair(Windows, WindowGain, WindowLoss)
	if err != nil || ierr != nil {
		return nil, ierr, err
	}
	solar, ok := bld.b.components[Solar]
	if !ok {
		logrus.Warnf("energy balance: no transmitted solar series; window flow is not solar corrected")
		return net, nil, nil
	}
	conduction, ierr := subtractByKey(net.Columns[0].Variable, net, solar, true)
	if ierr != nil {
		ierr.Component = string(Windows)
		return nil, ierr, nil
	}
	// solar for zones without windows carries no conduction
	out := NewFrame(conduction.Index)
	for i, col := range conduction.Columns {
		if net.column(col.Key) != nil {
			_ = out.Add(col, conduction.Data[i])
		}
	}
	return out, nil, nil
}

// opaque attributes surface conduction to zones: each series is scaled by
// the surface multiplier, tagged with zone, surface type and boundary
// condition, and scaled by the zone multiplier.
func (bld *builder) opaque(surfaces []idf.Surface) (*Frame, error) {
	raw, err := bld.c.CollectByOutputName(OpaqueEnergyFlow, bld.opts.Frequency, bld.opts.Units)
	if err != nil {
		return nil, fmt.Errorf("collecting surface conduction: %w", err)
	}
	byName := make(map[string]idf.Surface, len(surfaces))
	for _, s := range surfaces {
		byName[strings.ToUpper(s.Name)] = s
	}
	out := NewFrame(raw.Index)
	var unmatched []string
	for i, col := range raw.Columns {
		s, ok := byName[col.Key]
		if !ok {
			unmatched = append(unmatched, col.Key)
			continue
		}
		if bld.opts.OutdoorSurfacesOnly && s.Boundary == "Surface" {
			continue
		}
		factor := s.Multiplier
		if bld.opts.Multipliers == SurfaceAndZone {
			factor *= bld.zoneMultiplier(s.Zone)
		}
		attributed := Column{Variable: col.Variable, Key: col.Key, Zone: s.Zone, SurfaceType: s.Type, Boundary: s.Boundary}
		_ = out.Add(attributed, scaled(raw.Data[i], factor))
	}
	if len(unmatched) > 0 {
		logrus.Warnf("energy balance: %d surfaces not found in the model were dropped (e.g. %s)", len(unmatched), unmatched[0])
	}
	return out, nil
}

// AsInputError reports whether err is a *eplus.BalanceInputError.
func AsInputError(err error) (*eplus.BalanceInputError, bool) {
	var ie *eplus.BalanceInputError
	ok := errors.As(err, &ie)
	return ie, ok
}
