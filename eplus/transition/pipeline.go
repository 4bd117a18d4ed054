package transition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eplus-sim/eplus-sim/eplus"
	"github.com/eplus-sim/eplus-sim/eplus/archive"
	"github.com/eplus-sim/eplus-sim/eplus/idf"
	"github.com/eplus-sim/eplus-sim/eplus/process"
	"github.com/eplus-sim/eplus-sim/eplus/progress"
	"github.com/eplus-sim/eplus-sim/internal/fsutil"
)

// OutputSuffix is the extension transition tools give the upgraded model.
const OutputSuffix = ".idfnew"

// ToolRunner launches one transition tool. *process.Runner implements it.
type ToolRunner interface {
	Run(ctx context.Context, command string, args []string, workDir string, onLine process.LineFunc) (*process.Outcome, error)
}

// Options configures a Pipeline. Target and UpdaterDir are required.
type Options struct {
	Target     eplus.Version
	UpdaterDir string

	// IDDPath is the schema file copied next to the model, when set.
	IDDPath string
	// StagingRoot is the parent of per-run staging directories
	// (os.TempDir() when empty).
	StagingRoot string
	// OutputDir receives the upgraded model when Overwrite is false
	// (<model dir>/upgraded when empty).
	OutputDir string
	Overwrite bool
	// KeepStaging retains staging directories for debugging.
	KeepStaging bool

	Runner   ToolRunner        // defaults to process.NewRunner()
	Sink     progress.Sink     // defaults to progress.Discard
	Archiver archive.Archiver // archives the original before overwrite; optional
}

// Model is a model file and the engine version it is believed to declare.
type Model struct {
	Path    string
	Version eplus.Version
}

// Name identifies the model in progress reports.
func (m Model) Name() string { return filepath.Base(m.Path) }

// AppliedStep records one completed rung.
type AppliedStep struct {
	Version  eplus.Version
	Tool     string
	Duration time.Duration
}

// PipelineRun is one upgrade of one model. It owns its staging directory
// exclusively. After a failure or cancellation Model.Path points at the
// partially upgraded file inside the staging directory, which is kept until
// Close.
type PipelineRun struct {
	ID         string
	Original   string
	Model      Model
	Target     eplus.Version
	StagingDir string
	Steps      []eplus.Version
	Next       int // index into Steps of the next rung to apply
	Applied    []AppliedStep
	State      State
	Outcome    Outcome
	Err        error
	Archived   string // archive location of the original, when overwritten

	keepStaging bool
}

// Close removes the staging directory unless it is being retained.
func (r *PipelineRun) Close() error {
	if r.StagingDir == "" || r.keepStaging {
		return nil
	}
	err := os.RemoveAll(r.StagingDir)
	r.StagingDir = ""
	return err
}

// Pipeline upgrades models to one target version with one set of tools.
type Pipeline struct {
	opts     Options
	resolver *Resolver
}

// NewPipeline discovers the tools in opts.UpdaterDir. The discovery is
// shared by every run of the pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Target.IsZero() {
		return nil, &eplus.VersionError{Input: "", Reason: "target version is required"}
	}
	if opts.UpdaterDir == "" {
		return nil, fmt.Errorf("updater directory is required")
	}
	if opts.Runner == nil {
		opts.Runner = process.NewRunner()
	}
	if opts.Sink == nil {
		opts.Sink = progress.Discard
	}
	resolver, err := Discover(opts.UpdaterDir)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("discovered %d transition tools in %s", len(resolver.tools), opts.UpdaterDir)
	return &Pipeline{opts: opts, resolver: resolver}, nil
}

// Resolver returns the tools discovered for this pipeline.
func (p *Pipeline) Resolver() *Resolver { return p.resolver }

// Upgrade walks model up the ladder to the pipeline target. It never
// returns an error: the outcome and any failure are recorded on the run.
// ctx is observed between steps; a running tool is left to finish.
func (p *Pipeline) Upgrade(ctx context.Context, model Model) *PipelineRun {
	run := p.newRun(model)
	p.finish(run, p.execute(ctx, run))
	return run
}

// Reject records a run that fails with err before anything is staged.
func (p *Pipeline) Reject(model Model, err error) *PipelineRun {
	run := p.newRun(model)
	p.finish(run, err)
	return run
}

func (p *Pipeline) newRun(model Model) *PipelineRun {
	return &PipelineRun{
		ID:          uuid.NewString(),
		Original:    model.Path,
		Model:       model,
		Target:      p.opts.Target,
		State:       StateIdle,
		Outcome:     OutcomePending,
		keepStaging: p.opts.KeepStaging,
	}
}

func (p *Pipeline) finish(run *PipelineRun, err error) {
	if err != nil {
		run.Err = err
		if !IsTerminal(run.State) {
			final := StateFailed
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				final = StateCancelled
			}
			if run.State == StateRunning {
				_ = run.transition(StateStepFailed)
			}
			if terr := run.transition(final); terr != nil {
				logrus.Errorf("%v", terr)
				run.State, run.Outcome = StateFailed, OutcomeFailed
			}
		}
	}
	p.emit(run, progress.Event{Kind: progress.KindRunDone, Total: len(run.Steps), Version: run.Model.Version.String(),
		Line: string(run.Outcome)})
}

// Destination is where a successful upgrade of original is written: the
// original itself when overwriting, else the output directory.
func (p *Pipeline) Destination(original string) string {
	if p.opts.Overwrite {
		return original
	}
	outDir := p.opts.OutputDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(original), "upgraded")
	}
	return filepath.Join(outDir, filepath.Base(original))
}

func (p *Pipeline) execute(ctx context.Context, run *PipelineRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.Model.Version.IsZero() {
		v, err := idf.ReadVersion(run.Model.Path)
		if err != nil {
			return err
		}
		run.Model.Version = v
	}

	ladder := NewLadder(append(p.resolver.Versions(), p.opts.Target)...)
	steps, err := ladder.StepsBetween(run.Model.Version, p.opts.Target)
	if err != nil {
		return err
	}
	run.Steps = steps
	if len(steps) == 0 {
		logrus.Infof("%s is already at %s", run.Model.Name(), run.Model.Version)
		return run.transition(StateSucceeded)
	}

	if err := p.stage(run); err != nil {
		return err
	}

	for run.Next < len(run.Steps) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if run.State == StateStepSucceeded {
			if err := run.transition(StateStaged); err != nil {
				return err
			}
		}
		if err := run.transition(StateRunning); err != nil {
			return err
		}
		if err := p.applyStep(ctx, run); err != nil {
			return err
		}
		if err := run.transition(StateStepSucceeded); err != nil {
			return err
		}
	}

	if err := p.deliver(ctx, run); err != nil {
		return err
	}
	if err := run.transition(StateSucceeded); err != nil {
		return err
	}
	if !p.opts.KeepStaging {
		if err := run.Close(); err != nil {
			logrus.Warnf("removing staging directory: %v", err)
		}
	}
	return nil
}

// stage creates the run's staging directory holding the model, the schema
// file and a copy of the tool directory.
func (p *Pipeline) stage(run *PipelineRun) error {
	root := p.opts.StagingRoot
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("creating staging root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(root, "eplus-upgrade-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	run.StagingDir = dir

	if err := fsutil.CopyTree(p.opts.UpdaterDir, dir); err != nil {
		return fmt.Errorf("staging transition tools: %w", err)
	}
	if p.opts.IDDPath != "" {
		if err := fsutil.CopyFile(p.opts.IDDPath, filepath.Join(dir, filepath.Base(p.opts.IDDPath))); err != nil {
			return fmt.Errorf("staging schema file: %w", err)
		}
	}
	staged := filepath.Join(dir, run.Model.Name())
	if err := fsutil.CopyFile(run.Original, staged); err != nil {
		return fmt.Errorf("staging model: %w", err)
	}
	run.Model.Path = staged
	logrus.Debugf("staged %s in %s", run.Model.Name(), dir)
	return run.transition(StateStaged)
}

func (p *Pipeline) applyStep(ctx context.Context, run *PipelineRun) error {
	step := run.Steps[run.Next]
	ev := progress.Event{Step: run.Next + 1, Total: len(run.Steps), Version: step.String()}

	tool, err := p.resolver.Resolve(step)
	if err != nil {
		return err
	}
	staged := filepath.Join(run.StagingDir, filepath.Base(tool.Path))
	if err := checkExecutable(staged); err != nil {
		return &eplus.MissingToolError{Step: step, Dir: p.resolver.Dir(), Path: staged}
	}

	before, err := listOutputs(run.StagingDir)
	if err != nil {
		return err
	}

	start := ev
	start.Kind = progress.KindStepStart
	p.emit(run, start)

	command := commandPath(runtime.GOOS, run.StagingDir, staged)
	outcome, err := p.opts.Runner.Run(ctx, command, []string{run.Model.Name()}, run.StagingDir, func(line string) {
		out := ev
		out.Kind = progress.KindOutput
		out.Line = line
		p.emit(run, out)
	})
	if err != nil {
		return err
	}
	if !outcome.Success() {
		return &eplus.ProcessError{Command: filepath.Base(tool.Path), ExitCode: outcome.ExitCode,
			Stderr: outcome.Stderr, Reason: fmt.Sprintf("upgrade to %s failed", step)}
	}

	after, err := listOutputs(run.StagingDir)
	if err != nil {
		return err
	}
	var produced []string
	for name := range after {
		if !before[name] {
			produced = append(produced, name)
		}
	}
	if len(produced) != 1 {
		reason := fmt.Sprintf("expected exactly one new *%s file, found %d", OutputSuffix, len(produced))
		return &eplus.ProcessError{Command: filepath.Base(tool.Path), ExitCode: outcome.ExitCode,
			Stderr: outcome.Stderr, Reason: reason}
	}

	// the upgraded file replaces the superseded one under the model's name
	if err := os.Rename(filepath.Join(run.StagingDir, produced[0]), run.Model.Path); err != nil {
		return fmt.Errorf("adopting %s: %w", produced[0], err)
	}
	run.Model.Version = step
	run.Applied = append(run.Applied, AppliedStep{Version: step, Tool: tool.Path, Duration: outcome.Duration})
	run.Next++

	done := ev
	done.Kind = progress.KindStepDone
	p.emit(run, done)
	return nil
}

// deliver copies the final model out of staging: over the original when
// overwriting (archiving the original first), else into the output dir.
func (p *Pipeline) deliver(ctx context.Context, run *PipelineRun) error {
	dst := p.Destination(run.Original)
	if p.opts.Overwrite {
		if p.opts.Archiver != nil {
			version := ""
			if from, err := idf.ReadVersion(run.Original); err == nil {
				version = from.String()
			}
			loc, err := p.opts.Archiver.Archive(ctx, run.Original, version)
			if err != nil {
				return fmt.Errorf("archiving original: %w", err)
			}
			run.Archived = loc
		}
	} else if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := fsutil.CopyFile(run.Model.Path, dst); err != nil {
		return fmt.Errorf("writing upgraded model: %w", err)
	}
	run.Model.Path = dst
	logrus.Infof("%s upgraded to %s in %d steps: %s", filepath.Base(run.Original), run.Model.Version, len(run.Applied), dst)
	return nil
}

func (p *Pipeline) emit(run *PipelineRun, ev progress.Event) {
	ev.RunID = run.ID
	ev.Model = filepath.Base(run.Original)
	p.opts.Sink.Emit(ev)
}

func listOutputs(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing staging directory: %w", err)
	}
	out := make(map[string]bool)
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), OutputSuffix) {
			out[e.Name()] = true
		}
	}
	return out, nil
}
