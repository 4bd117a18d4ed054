package transition

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Batch upgrades many models in parallel with one Pipeline. Runs share
// nothing but the pipeline's progress sink.
type Batch struct {
	Pipeline *Pipeline
	// Workers bounds concurrent runs (GOMAXPROCS when <= 0).
	Workers int
}

// Run upgrades every model and returns the runs keyed by model path. One
// run's failure never affects its siblings and is never returned as an
// error: callers inspect each run's Outcome.
//
// A path given twice is upgraded once. A model whose upgraded file would land
// where an earlier model's does fails without running.
func (b *Batch) Run(ctx context.Context, models []Model) map[string]*PipelineRun {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make(map[string]*PipelineRun, len(models))

	seen := make(map[string]bool)
	dests := make(map[string]string)
	var todo []Model
	for _, m := range models {
		abs := absPath(m.Path)
		if seen[abs] {
			logrus.Warnf("%s: listed more than once, upgrading it once", m.Path)
			continue
		}
		seen[abs] = true
		dst := absPath(b.Pipeline.Destination(m.Path))
		if first, ok := dests[dst]; ok {
			out[m.Path] = b.Pipeline.Reject(m, fmt.Errorf(
				"upgraded model would be written to %s, which already receives %s; give the models distinct file names or overwrite in place", dst, first))
			logrus.Warnf("%s: %s: %v", m.Name(), out[m.Path].Outcome, out[m.Path].Err)
			continue
		}
		dests[dst] = m.Path
		todo = append(todo, m)
	}

	runs := make([]*PipelineRun, len(todo))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, m := range todo {
		g.Go(func() error {
			runs[i] = b.Pipeline.Upgrade(ctx, m)
			if runs[i].Err != nil {
				logrus.Warnf("%s: %s: %v", m.Name(), runs[i].Outcome, runs[i].Err)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range todo {
		out[m.Path] = runs[i]
	}
	return out
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
