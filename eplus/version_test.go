package eplus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion_AcceptedForms(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"9-0-1", Version{9, 0, 1}},
		{"9.0.1", Version{9, 0, 1}},
		{"V8-9-0", Version{8, 9, 0}},
		{"9.2", Version{9, 2, 0}},
		{" 22-1-0 ", Version{22, 1, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseVersion(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseVersion_Malformed_ReturnsVersionError(t *testing.T) {
	for _, in := range []string{"", "9", "a-b-c", "9-0-1-2", "9--1", "9-0.1", "9.0-1", "V9.0-1"} {
		_, err := ParseVersion(in)
		var verr *VersionError
		if !errors.As(err, &verr) {
			t.Errorf("ParseVersion(%q) error = %v, want *VersionError", in, err)
		}
	}
}

func TestVersion_Compare_IsLexicographicOnTriple(t *testing.T) {
	a := MustParseVersion("8-9-0")
	b := MustParseVersion("9-0-1")
	c := MustParseVersion("9-0-1")
	d := MustParseVersion("10-0-0")

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, b.Compare(c))
	assert.True(t, b.Less(d), "10-0-0 must sort after 9-0-1 numerically, not lexically")
	assert.False(t, b.Less(c))
}

func TestVersion_StringForms(t *testing.T) {
	v := Version{9, 0, 1}
	assert.Equal(t, "9.0.1", v.String())
	assert.Equal(t, "9-0-1", v.Dash())
}

func TestMissingToolError_NamesStepAndDirectory(t *testing.T) {
	err := &MissingToolError{Step: Version{8, 9, 0}, Dir: "/opt/updater"}
	assert.Contains(t, err.Error(), "8.9.0")
	assert.Contains(t, err.Error(), "/opt/updater")
	assert.Contains(t, err.Error(), "--updater-dir")
}
