package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eplus-sim/eplus-sim/eplus/construction"
	"github.com/eplus-sim/eplus-sim/eplus/idf"
)

func TestBuildOutputs(t *testing.T) {
	// GIVEN the balance bundle with an SQL request
	c, err := buildOutputs("hourly", []string{"balance"}, "Simple", "", "", nil)
	require.NoError(t, err)

	// WHEN rendered
	var buf bytes.Buffer
	require.NoError(t, writeOutputs(&buf, c))

	// THEN every balance variable is requested at the frequency
	assert.Contains(t, buf.String(), "Zone Windows Total Heat Gain Energy,")
	assert.Contains(t, buf.String(), "Hourly;")
	assert.Contains(t, buf.String(), "Output:SQLite,")
}

func TestBuildOutputs_SeedsFromModel(t *testing.T) {
	s := idf.NewStore()
	s.Add(idf.NewRecord(idf.TypeMeter, "Key_Name", "Electricity:Facility", "Reporting_Frequency", "Hourly"))

	c, err := buildOutputs("Hourly", nil, "", "", "", s)

	require.NoError(t, err)
	assert.Equal(t, []string{"Electricity:Facility"}, c.Meters())
}

func TestBuildOutputs_Errors(t *testing.T) {
	_, err := buildOutputs("Hourly", []string{"everything"}, "", "", "", nil)
	assert.ErrorContains(t, err, "everything")
	_, err = buildOutputs("Weekly", nil, "", "", "", nil)
	assert.Error(t, err)
	_, err = buildOutputs("Hourly", nil, "", "", "Pipe", nil)
	assert.Error(t, err)
}

func TestWriteConstructions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
materials:
  - {name: Concrete, conductivity: 1.0, thermal_emittance: 0.9}
constructions:
  - name: Slab
    layers:
      - {material: Concrete, thickness: 0.2}
`), 0o644))
	cs, err := construction.Load(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeConstructions(&buf, cs))

	assert.Contains(t, buf.String(), "Slab")
	assert.Contains(t, buf.String(), "0.200")
	assert.Contains(t, buf.String(), "5.000")
}
