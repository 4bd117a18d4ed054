package construction

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a construction library. Unknown fields are
// rejected.
type File struct {
	Materials     []Material        `yaml:"materials"`
	Constructions []ConstructionDef `yaml:"constructions"`
}

// ConstructionDef names its layers from outside to inside.
type ConstructionDef struct {
	Name   string     `yaml:"name"`
	Layers []LayerDef `yaml:"layers"`
}

// LayerDef sets exactly one of Material, Gas or Resistance.
type LayerDef struct {
	Material         string  `yaml:"material"`
	Gas              string  `yaml:"gas"`
	Thickness        float64 `yaml:"thickness"`
	Name             string  `yaml:"name"`
	Resistance       float64 `yaml:"r_value"`
	ThermalEmittance float64 `yaml:"thermal_emittance"`
}

// Load reads a construction library from path.
func Load(path string) ([]*Construction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading construction file: %w", err)
	}
	cs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cs, nil
}

// Parse decodes and validates a construction library.
func Parse(data []byte) ([]*Construction, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing construction YAML: %w", err)
	}

	materials := make(map[string]Material, len(f.Materials))
	for _, m := range f.Materials {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToUpper(m.Name)
		if _, dup := materials[key]; dup {
			return nil, fmt.Errorf("material %q is defined twice", m.Name)
		}
		materials[key] = m
	}

	var out []*Construction
	for _, def := range f.Constructions {
		layers := make([]Layer, 0, len(def.Layers))
		for i, ld := range def.Layers {
			l, err := ld.build(materials)
			if err != nil {
				return nil, fmt.Errorf("construction %q layer %d: %w", def.Name, i+1, err)
			}
			layers = append(layers, l)
		}
		c, err := New(def.Name, layers...)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (ld LayerDef) build(materials map[string]Material) (Layer, error) {
	set := 0
	for _, ok := range []bool{ld.Material != "", ld.Gas != "", ld.Resistance != 0} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of material, gas or r_value must be set")
	}
	switch {
	case ld.Material != "":
		m, ok := materials[strings.ToUpper(ld.Material)]
		if !ok {
			return nil, fmt.Errorf("unknown material %q", ld.Material)
		}
		if ld.Thickness <= 0 {
			return nil, fmt.Errorf("thickness must be positive, got %g", ld.Thickness)
		}
		return SolidLayer{Material: m, Thickness: ld.Thickness}, nil
	case ld.Gas != "":
		g, err := LookupGas(ld.Gas)
		if err != nil {
			return nil, err
		}
		if ld.Thickness <= 0 {
			return nil, fmt.Errorf("thickness must be positive, got %g", ld.Thickness)
		}
		return GasLayer{Gas: g, Thickness: ld.Thickness}, nil
	default:
		return NoMassLayer{Name: ld.Name, Resistance: ld.Resistance, ThermalEmittance: ld.ThermalEmittance}, nil
	}
}
