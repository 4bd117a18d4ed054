package balance

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Column identifies one series of a Frame. Zone, SurfaceType and Boundary
// are filled in by surface attribution; for zone-keyed series Zone equals Key.
type Column struct {
	Variable    string
	Key         string // object key, upper case
	Zone        string
	SurfaceType string
	Boundary    string
}

// Frame is a rectangular time-indexed table: Data[i] holds the values of
// Columns[i], one per entry of Index.
type Frame struct {
	Index   []time.Time
	Columns []Column
	Data    [][]float64
}

// NewFrame returns an empty frame over index.
func NewFrame(index []time.Time) *Frame {
	return &Frame{Index: index}
}

// Empty reports whether the frame has no columns.
func (f *Frame) Empty() bool { return f == nil || len(f.Columns) == 0 }

// Len returns the number of timesteps.
func (f *Frame) Len() int { return len(f.Index) }

// Add appends a column. values must have one entry per timestep.
func (f *Frame) Add(col Column, values []float64) error {
	if len(values) != len(f.Index) {
		return fmt.Errorf("column %s/%s has %d values, index has %d", col.Variable, col.Key, len(values), len(f.Index))
	}
	f.Columns = append(f.Columns, col)
	f.Data = append(f.Data, values)
	return nil
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{Index: f.Index, Columns: append([]Column(nil), f.Columns...)}
	for _, d := range f.Data {
		out.Data = append(out.Data, append([]float64(nil), d...))
	}
	return out
}

// Scale returns a copy with every column multiplied by factor(col).
func (f *Frame) Scale(factor func(Column) float64) *Frame {
	out := f.Clone()
	for i, col := range out.Columns {
		floats.Scale(factor(col), out.Data[i])
	}
	return out
}

// GroupBy sums columns that map to the same group column, keeping the order
// in which groups are first seen.
func (f *Frame) GroupBy(group func(Column) Column) *Frame {
	out := NewFrame(f.Index)
	pos := make(map[Column]int)
	for i, col := range f.Columns {
		g := group(col)
		j, ok := pos[g]
		if !ok {
			pos[g] = len(out.Columns)
			out.Columns = append(out.Columns, g)
			out.Data = append(out.Data, append([]float64(nil), f.Data[i]...))
			continue
		}
		floats.Add(out.Data[j], f.Data[i])
	}
	return out
}

// SumByKey sums columns sharing a key and names the result variable.
func (f *Frame) SumByKey(variable string) *Frame {
	return f.GroupBy(func(c Column) Column {
		return Column{Variable: variable, Key: c.Key, Zone: c.Zone}
	})
}

// Keys returns the distinct keys, sorted.
func (f *Frame) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, c := range f.Columns {
		if !seen[c.Key] {
			seen[c.Key] = true
			keys = append(keys, c.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// column returns the values of the first column with key, or nil.
func (f *Frame) column(key string) []float64 {
	for i, c := range f.Columns {
		if c.Key == key {
			return f.Data[i]
		}
	}
	return nil
}

// Total returns the sum of every value in the frame.
func (f *Frame) Total() float64 {
	var total float64
	for _, d := range f.Data {
		total += floats.Sum(d)
	}
	return total
}

// Concat joins frames column-wise. Every non-empty frame must share the
// same index length.
func Concat(frames ...*Frame) (*Frame, error) {
	var out *Frame
	for _, f := range frames {
		if f.Empty() {
			continue
		}
		if out == nil {
			out = NewFrame(f.Index)
		}
		if f.Len() != out.Len() {
			return nil, fmt.Errorf("cannot join series of %d and %d timesteps", out.Len(), f.Len())
		}
		for i, c := range f.Columns {
			out.Columns = append(out.Columns, c)
			out.Data = append(out.Data, append([]float64(nil), f.Data[i]...))
		}
	}
	if out == nil {
		return NewFrame(nil), nil
	}
	return out, nil
}
