package idf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eplus-sim/eplus-sim/eplus"
)

func TestParseVersionObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want eplus.Version
	}{
		{"one line", "Version,9.2;\n", eplus.Version{Major: 9, Minor: 2}},
		{"spans lines with comment", "! header\nBuilding,B,0;\n  VERSION,\n    8.9.0;  !- Version Identifier\n", eplus.Version{Major: 8, Minor: 9}},
		{"dashed", "Version, 22-1-0;", eplus.Version{Major: 22, Minor: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersionObject(strings.NewReader(tt.text))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVersionObject_Missing(t *testing.T) {
	_, err := ParseVersionObject(strings.NewReader("Building,B,0;\n! Version,9.2;\n"))
	var fe *eplus.FieldError
	assert.True(t, errors.As(err, &fe))
}

func TestParseVersionObject_Malformed(t *testing.T) {
	_, err := ParseVersionObject(strings.NewReader("Version,nine;"))
	var ve *eplus.VersionError
	assert.True(t, errors.As(err, &ve))
}

func TestReadVersion_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "m.idf")
	require.NoError(t, os.WriteFile(p, []byte("Version,8.0;\n"), 0o644))
	v, err := ReadVersion(p)
	require.NoError(t, err)
	assert.Equal(t, eplus.MustParseVersion("8-0-0"), v)
}
