package idf

import "strings"

const (
	TypeZone     = "Zone"
	TypeSurface  = "BuildingSurface:Detailed"
	TypeVersion  = "Version"
	TypeVariable = "Output:Variable"
	TypeMeter    = "Output:Meter"
)

// Zone is the subset of a Zone object used for energy balances.
type Zone struct {
	Name       string
	Multiplier float64
}

// Zones returns every zone with its multiplier (1 when blank or unset).
func Zones(s *Store) ([]Zone, error) {
	var zones []Zone
	for _, r := range s.Objects(TypeZone) {
		name, err := r.String("Name")
		if err != nil {
			return nil, err
		}
		m, err := r.FloatOr("Multiplier", 1)
		if err != nil {
			return nil, err
		}
		zones = append(zones, Zone{Name: name, Multiplier: m})
	}
	return zones, nil
}

// ZoneMultipliers maps upper-cased zone names to multipliers.
func ZoneMultipliers(s *Store) (map[string]float64, error) {
	zones, err := Zones(s)
	if err != nil {
		return nil, err
	}
	m := make(map[string]float64, len(zones))
	for _, z := range zones {
		m[strings.ToUpper(z.Name)] = z.Multiplier
	}
	return m, nil
}

// Surface is an opaque building surface and the zone it bounds.
type Surface struct {
	Name       string
	Type       string // title case, e.g. "Wall", "Roof"
	Boundary   string // title case, e.g. "Outdoors", "Surface", "Ground"
	Zone       string // upper case
	Multiplier float64
}

// Surfaces returns every BuildingSurface:Detailed object.
func Surfaces(s *Store) ([]Surface, error) {
	var out []Surface
	for _, r := range s.Objects(TypeSurface) {
		name, err := r.String("Name")
		if err != nil {
			return nil, err
		}
		typ, err := r.String("Surface_Type")
		if err != nil {
			return nil, err
		}
		bc, err := r.String("Outside_Boundary_Condition")
		if err != nil {
			return nil, err
		}
		zone, err := r.String("Zone_Name")
		if err != nil {
			return nil, err
		}
		m, err := r.FloatOr("Multiplier", 1)
		if err != nil {
			return nil, err
		}
		out = append(out, Surface{
			Name:       name,
			Type:       Title(typ),
			Boundary:   Title(bc),
			Zone:       strings.ToUpper(zone),
			Multiplier: m,
		})
	}
	return out, nil
}

// Title upper-cases the first letter of every alphabetic run and lower-cases
// the rest ("ROOFCEILING" -> "Roofceiling", "outdoors" -> "Outdoors").
func Title(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		switch {
		case isLetter && !prevLetter:
			b.WriteString(strings.ToUpper(string(r)))
		case isLetter:
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}
