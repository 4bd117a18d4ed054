package transition

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/eplus-sim/eplus-sim/eplus"
)

var toolPattern = regexp.MustCompile(`^Transition-V(\d+-\d+-\d+)-to-V(\d+-\d+-\d+)(.*)$`)

// Tool is one discovered transition program.
type Tool struct {
	From eplus.Version
	To   eplus.Version
	Path string
}

// Resolver maps each ladder rung (a target version) to the tool that
// produces it. It is built once per directory scan.
type Resolver struct {
	dir   string
	tools map[eplus.Version]Tool
}

// UpdaterDir returns the conventional tool directory of an installation:
// <root>/EnergyPlus-<maj>-<min>-<patch>/PreProcess/IDFVersionUpdater.
func UpdaterDir(installRoot string, v eplus.Version) string {
	return filepath.Join(installRoot, "EnergyPlus-"+v.Dash(), "PreProcess", "IDFVersionUpdater")
}

// Discover scans dir for files named
// Transition-V<maj>-<min>-<patch>-to-V<maj>-<min>-<patch>[suffix].
// A directory that does not exist yields an empty resolver, so a missing
// installation surfaces as a MissingToolError at the first step.
func Discover(dir string) (*Resolver, error) {
	r := &Resolver{dir: dir, tools: make(map[eplus.Version]Tool)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("scanning transition tools in %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := toolPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		from, err := eplus.ParseVersion(m[1])
		if err != nil {
			continue
		}
		to, err := eplus.ParseVersion(m[2])
		if err != nil {
			continue
		}
		tool := Tool{From: from, To: to, Path: filepath.Join(dir, e.Name())}
		if prev, ok := r.tools[to]; ok && !preferred(tool.Path, prev.Path) {
			continue
		}
		r.tools[to] = tool
	}
	return r, nil
}

// preferred reports whether candidate should replace current when two files
// produce the same version: the platform's executable form wins.
func preferred(candidate, current string) bool {
	want := ""
	if runtime.GOOS == "windows" {
		want = ".exe"
	}
	cExt := strings.ToLower(filepath.Ext(toolPattern.FindStringSubmatch(filepath.Base(candidate))[3]))
	pExt := strings.ToLower(filepath.Ext(toolPattern.FindStringSubmatch(filepath.Base(current))[3]))
	if (cExt == want) != (pExt == want) {
		return cExt == want
	}
	return candidate < current
}

// Dir returns the scanned directory.
func (r *Resolver) Dir() string { return r.dir }

// Tools returns every discovered tool ordered by target version.
func (r *Resolver) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To.Less(out[j].To) })
	return out
}

// Versions lists every version any tool upgrades from or to.
func (r *Resolver) Versions() []eplus.Version {
	var vs []eplus.Version
	for _, t := range r.tools {
		vs = append(vs, t.From, t.To)
	}
	return NewLadder(vs...).Versions()
}

// Resolve returns the tool producing step. The file is checked again at
// call time since tools may be removed after discovery.
func (r *Resolver) Resolve(step eplus.Version) (Tool, error) {
	tool, ok := r.tools[step]
	if !ok {
		return Tool{}, &eplus.MissingToolError{Step: step, Dir: r.dir}
	}
	if err := checkExecutable(tool.Path); err != nil {
		return Tool{}, &eplus.MissingToolError{Step: step, Dir: r.dir, Path: tool.Path}
	}
	return tool, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

// commandPath expresses exe relative to workDir the way the tools expect to
// be launched: ".\<rel>" on Windows and "./<base>" elsewhere.
func commandPath(goos, workDir, exe string) string {
	if goos == "windows" {
		rel, err := filepath.Rel(workDir, exe)
		if err != nil {
			return exe
		}
		return `.\` + strings.ReplaceAll(rel, "/", `\`)
	}
	return "./" + filepath.Base(exe)
}
