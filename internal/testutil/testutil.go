// Package testutil provides shared test infrastructure for the eplus
// packages: float assertions and fake transition tools that behave like the
// real IDFVersionUpdater programs.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/eplus-sim/eplus-sim/eplus"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertSliceEqual compares two float slices element-wise with absolute
// tolerance.
func AssertSliceEqual(t *testing.T, name string, want, got []float64, absTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d (got %v)", name, len(got), len(want), got)
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > absTol {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}

// SkipOnWindows skips tests that rely on POSIX shell scripts as fake tools.
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake transition tools are POSIX shell scripts")
	}
}

// ToolName returns the canonical transition tool file name for one rung.
func ToolName(from, to eplus.Version) string {
	return fmt.Sprintf("Transition-V%s-to-V%s", from.Dash(), to.Dash())
}

// ToolBehavior selects how a fake transition tool misbehaves.
type ToolBehavior int

const (
	// ToolOK writes <model>.idfnew with the Version object bumped.
	ToolOK ToolBehavior = iota
	// ToolFail prints to stderr and exits 3.
	ToolFail
	// ToolNoOutput exits 0 without writing anything.
	ToolNoOutput
	// ToolTwoOutputs exits 0 after writing two .idfnew files.
	ToolTwoOutputs
)

// WriteFakeTool writes an executable shell script named like a real
// transition tool into dir. The script logs two progress lines on stdout.
func WriteFakeTool(t *testing.T, dir string, from, to eplus.Version, behavior ToolBehavior) string {
	t.Helper()
	var body string
	switch behavior {
	case ToolOK:
		body = fmt.Sprintf(`in="$1"
echo "Processing IDF -- $in"
sed -e 's/^ *Version,.*;/Version,%[1]s;/' "$in" > "${in%%.*}.idfnew"
echo "Conversion to %[1]s complete"
`, to)
	case ToolFail:
		body = `echo "Processing IDF -- $1"
echo "Error: unrecognized object" >&2
exit 3
`
	case ToolNoOutput:
		body = `echo "nothing to do"
`
	case ToolTwoOutputs:
		body = `in="$1"
cp "$in" "${in%.*}.idfnew"
cp "$in" "extra.idfnew"
`
	}
	path := filepath.Join(dir, ToolName(from, to))
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing fake tool: %v", err)
	}
	return path
}

// WriteModel writes a minimal model file declaring version v.
func WriteModel(t *testing.T, dir, name string, v eplus.Version) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := fmt.Sprintf("Version,%d.%d;\n\nBuilding,\n  Demo,  !- Name\n  0;     !- North Axis\n", v.Major, v.Minor)
	if v.Patch != 0 {
		content = fmt.Sprintf("Version,%s;\n\nBuilding,\n  Demo,  !- Name\n  0;     !- North Axis\n", v)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing model: %v", err)
	}
	return path
}
