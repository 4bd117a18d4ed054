package eplus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is an engine release identified by (major, minor, patch).
// Versions are totally ordered lexicographically on the triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Separators are all dashes or all dots.
var versionPattern = regexp.MustCompile(`^[Vv]?(?:(\d+)-(\d+)(?:-(\d+))?|(\d+)\.(\d+)(?:\.(\d+))?)$`)

// ParseVersion parses "9-0-1", "9.0.1", "V9-0-1" or the two-part forms
// "9-2" and "9.2" (patch defaults to 0).
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, &VersionError{Input: s, Reason: "expected major-minor-patch or major.minor.patch"}
	}
	parts := m[1:4]
	if m[4] != "" {
		parts = m[4:7]
	}
	var nums [3]int
	for i, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, &VersionError{Input: s, Reason: fmt.Sprintf("component %q: %v", p, err)}
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParseVersion is ParseVersion for constants; it panics on malformed input.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or +1 as v is earlier than, equal to, or later than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Patch, o.Patch)
	}
}

// Less reports whether v is strictly earlier than o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// IsZero reports whether v is the zero Version (never a real release).
func (v Version) IsZero() bool { return v == Version{} }

// String returns the dotted form, e.g. "9.0.1".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Dash returns the dashed form used in install and tool names, e.g. "9-0-1".
func (v Version) Dash() string {
	return fmt.Sprintf("%d-%d-%d", v.Major, v.Minor, v.Patch)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
