package transition

import (
	"sort"

	"github.com/eplus-sim/eplus-sim/eplus"
)

// Ladder is the ascending set of engine versions reachable with the
// installed transition tools.
type Ladder struct {
	versions []eplus.Version
}

// NewLadder builds a ladder from versions in any order; duplicates collapse.
func NewLadder(versions ...eplus.Version) *Ladder {
	seen := make(map[eplus.Version]bool, len(versions))
	l := &Ladder{}
	for _, v := range versions {
		if seen[v] {
			continue
		}
		seen[v] = true
		l.versions = append(l.versions, v)
	}
	sort.Slice(l.versions, func(i, j int) bool { return l.versions[i].Less(l.versions[j]) })
	return l
}

// Versions returns the rungs in ascending order.
func (l *Ladder) Versions() []eplus.Version {
	return append([]eplus.Version(nil), l.versions...)
}

// StepsBetween returns every rung strictly above current and at or below
// target, ascending. An empty result means the model is already current.
// A target below current is a *eplus.VersionError.
func (l *Ladder) StepsBetween(current, target eplus.Version) ([]eplus.Version, error) {
	if target.Less(current) {
		return nil, &eplus.VersionError{Current: current, Target: target, Reason: "cannot downgrade"}
	}
	var steps []eplus.Version
	for _, v := range l.versions {
		if current.Less(v) && !target.Less(v) {
			steps = append(steps, v)
		}
	}
	return steps, nil
}
