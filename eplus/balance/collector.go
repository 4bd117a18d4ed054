package balance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eplus-sim/eplus-sim/eplus/idf"
)

// Collector extracts output series from a simulation result store. Values
// are returned converted to units.
type Collector interface {
	CollectByOutputName(names []string, freq idf.Frequency, units string) (*Frame, error)
}

type series struct {
	variable string
	key      string
	units    string
	freq     idf.Frequency
	points   map[time.Time]float64
}

// MemoryCollector holds series in memory. It is filled programmatically
// or from a long-format CSV export.
type MemoryCollector struct {
	series []*series
	byID   map[string]*series
}

func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{byID: make(map[string]*series)}
}

// Set records one value. Keys are case-insensitive.
func (m *MemoryCollector) Set(ts time.Time, freq idf.Frequency, variable, key, units string, value float64) {
	key = strings.ToUpper(strings.TrimSpace(key))
	id := strings.ToUpper(variable) + "\x00" + key + "\x00" + string(freq)
	s, ok := m.byID[id]
	if !ok {
		s = &series{variable: variable, key: key, units: units, freq: freq, points: make(map[time.Time]float64)}
		m.byID[id] = s
		m.series = append(m.series, s)
	}
	s.points[ts] = value
}

// Add records a whole series over index.
func (m *MemoryCollector) Add(freq idf.Frequency, variable, key, units string, index []time.Time, values []float64) {
	for i, ts := range index {
		m.Set(ts, freq, variable, key, units, values[i])
	}
}

// CollectByOutputName returns every series whose variable is one of names
// at freq. Timestamps missing from a series read as zero.
func (m *MemoryCollector) CollectByOutputName(names []string, freq idf.Frequency, units string) (*Frame, error) {
	var picked []*series
	for _, name := range names {
		for _, s := range m.series {
			if strings.EqualFold(s.variable, name) && s.freq == freq {
				picked = append(picked, s)
			}
		}
	}
	stamps := make(map[time.Time]bool)
	for _, s := range picked {
		for ts := range s.points {
			stamps[ts] = true
		}
	}
	index := make([]time.Time, 0, len(stamps))
	for ts := range stamps {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	f := NewFrame(index)
	for _, s := range picked {
		factor, err := ConversionFactor(s.units, units)
		if err != nil {
			return nil, fmt.Errorf("%s for %s: %w", s.variable, s.key, err)
		}
		values := make([]float64, len(index))
		for i, ts := range index {
			values[i] = s.points[ts] * factor
		}
		if err := f.Add(Column{Variable: s.variable, Key: s.key, Zone: s.key}, values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

var csvHeader = []string{"timestamp", "frequency", "variable", "key", "units", "value"}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04"}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// LoadCSV reads a long-format series export; see ReadCSV.
func LoadCSV(path string) (*MemoryCollector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening series file: %w", err)
	}
	defer f.Close()
	m, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, nil
}

// ReadCSV reads rows of timestamp,frequency,variable,key,units,value with a
// header row.
func ReadCSV(r io.Reader) (*MemoryCollector, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, h := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), h) {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, header[i], h)
		}
	}

	m := NewMemoryCollector()
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		freq, err := idf.ParseFrequency(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !IsEnergyUnit(rec[4]) && !IsPowerUnit(rec[4]) {
			return nil, fmt.Errorf("line %d: unsupported units %q", line, rec[4])
		}
		v, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value %q: %w", line, rec[5], err)
		}
		m.Set(ts, freq, rec[2], rec[3], rec[4], v)
	}
	return m, nil
}

// WriteCSV writes every series in the same long format ReadCSV accepts.
func (m *MemoryCollector) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range m.series {
		stamps := make([]time.Time, 0, len(s.points))
		for ts := range s.points {
			stamps = append(stamps, ts)
		}
		sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
		for _, ts := range stamps {
			row := []string{ts.Format(time.RFC3339), string(s.freq), s.variable, s.key, s.units,
				strconv.FormatFloat(s.points[ts], 'g', -1, 64)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
