package transition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eplus-sim/eplus-sim/eplus"
	"github.com/eplus-sim/eplus-sim/internal/testutil"
)

func TestDiscover_MapsTargetsAndIgnoresOtherFiles(t *testing.T) {
	testutil.SkipOnWindows(t)
	// GIVEN a tool directory with two tools and unrelated support files
	dir := t.TempDir()
	testutil.WriteFakeTool(t, dir, v800, v850, testutil.ToolOK)
	testutil.WriteFakeTool(t, dir, v850, v890, testutil.ToolOK)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "V8-5-0-Energy+.idd"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Transition-V9-0-0-to-V9-1-0"), 0o755))

	// WHEN discovered
	r, err := Discover(dir)

	// THEN both tools resolve and every mentioned version feeds the ladder
	require.NoError(t, err)
	assert.Equal(t, []eplus.Version{v800, v850, v890}, r.Versions())
	tool, err := r.Resolve(v890)
	require.NoError(t, err)
	assert.Equal(t, v850, tool.From)
	assert.Len(t, r.Tools(), 2)
}

func TestDiscover_MissingDirectory_EmptyResolver(t *testing.T) {
	r, err := Discover(filepath.Join(t.TempDir(), "not-installed"))
	require.NoError(t, err)
	assert.Empty(t, r.Versions())

	_, err = r.Resolve(v850)
	var mt *eplus.MissingToolError
	require.True(t, errors.As(err, &mt))
	assert.Equal(t, v850, mt.Step)
}

func TestResolve_ToolRemovedAfterDiscovery(t *testing.T) {
	testutil.SkipOnWindows(t)
	// GIVEN a discovered tool that is then deleted
	dir := t.TempDir()
	path := testutil.WriteFakeTool(t, dir, v800, v850, testutil.ToolOK)
	r, err := Discover(dir)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	// WHEN resolved
	_, err = r.Resolve(v850)

	// THEN the error names the rung, the directory and the vanished file
	var mt *eplus.MissingToolError
	require.True(t, errors.As(err, &mt))
	assert.Equal(t, dir, mt.Dir)
	assert.Equal(t, path, mt.Path)
	assert.Contains(t, mt.Error(), "8.5.0")
}

func TestResolve_NotExecutable(t *testing.T) {
	testutil.SkipOnWindows(t)
	dir := t.TempDir()
	path := testutil.WriteFakeTool(t, dir, v800, v850, testutil.ToolOK)
	require.NoError(t, os.Chmod(path, 0o644))
	r, err := Discover(dir)
	require.NoError(t, err)

	_, err = r.Resolve(v850)
	var mt *eplus.MissingToolError
	assert.True(t, errors.As(err, &mt))
}

func TestCommandPath_PlatformForms(t *testing.T) {
	assert.Equal(t, "./Transition-V8-0-0-to-V8-5-0", commandPath("linux", "/tmp/stage", "/tmp/stage/Transition-V8-0-0-to-V8-5-0"))
	assert.Equal(t, "./Transition-V8-0-0-to-V8-5-0", commandPath("darwin", "/tmp/stage", "/tmp/stage/Transition-V8-0-0-to-V8-5-0"))
	assert.Equal(t, `.\Transition-V8-0-0-to-V8-5-0.exe`, commandPath("windows", "/tmp/stage", "/tmp/stage/Transition-V8-0-0-to-V8-5-0.exe"))
}

func TestUpdaterDir_Convention(t *testing.T) {
	got := UpdaterDir("/usr/local", v901)
	assert.Equal(t, filepath.Join("/usr/local", "EnergyPlus-9-0-1", "PreProcess", "IDFVersionUpdater"), got)
}
