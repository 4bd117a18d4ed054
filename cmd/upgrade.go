package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eplus-sim/eplus-sim/eplus"
	"github.com/eplus-sim/eplus-sim/eplus/archive"
	"github.com/eplus-sim/eplus-sim/eplus/process"
	"github.com/eplus-sim/eplus-sim/eplus/progress"
	"github.com/eplus-sim/eplus-sim/eplus/transition"
)

var (
	// CLI flags for the upgrade command
	toVersion   string        // Target engine version
	fromVersion string        // Current engine version of every model (read from the model when empty)
	updaterDir  string        // Directory holding the transition tools
	iddPath     string        // Schema file staged next to the model
	outputDir   string        // Destination of upgraded models
	stagingRoot string        // Parent of per-run staging directories
	overwrite   bool          // Replace the original model
	keepStaging bool          // Retain staging directories
	workers     int           // Concurrent upgrades
	toolTimeout time.Duration // Per-tool time limit
)

// upgradeSettings is the merged view of config and flags.
type upgradeSettings struct {
	From    eplus.Version
	Options transition.Options
	Workers int
	Timeout time.Duration
}

// resolveUpgrade merges flags over cfg. A flag only overrides the config
// when it was set on the command line.
func resolveUpgrade(cmd *cobra.Command, c Config) (upgradeSettings, error) {
	var s upgradeSettings
	flags := cmd.Flags()

	if toVersion == "" {
		return s, fmt.Errorf("--to is required")
	}
	target, err := eplus.ParseVersion(toVersion)
	if err != nil {
		return s, err
	}
	if fromVersion != "" {
		if s.From, err = eplus.ParseVersion(fromVersion); err != nil {
			return s, err
		}
	}

	t := c.Transition
	if flags.Changed("output-dir") {
		t.OutputDir = outputDir
	}
	if flags.Changed("staging-root") {
		t.StagingRoot = stagingRoot
	}
	if flags.Changed("overwrite") {
		t.Overwrite = overwrite
	}
	if flags.Changed("keep-staging") {
		t.KeepStaging = keepStaging
	}
	if flags.Changed("workers") {
		t.Workers = workers
	}
	if flags.Changed("timeout") {
		t.Timeout = toolTimeout
	}
	idd := c.EnergyPlus.IDD
	if flags.Changed("idd") {
		idd = iddPath
	}

	dir := c.EnergyPlus.UpdaterDir
	switch {
	case flags.Changed("updater-dir"):
		dir = updaterDir
	case dir == "" && c.EnergyPlus.InstallRoot != "":
		dir = transition.UpdaterDir(c.EnergyPlus.InstallRoot, target)
	}
	if dir == "" {
		return s, fmt.Errorf("no transition tool directory: pass --updater-dir or set energyplus.install_root")
	}

	s.Workers = t.Workers
	s.Timeout = t.Timeout
	s.Options = transition.Options{
		Target:      target,
		UpdaterDir:  dir,
		IDDPath:     idd,
		StagingRoot: t.StagingRoot,
		OutputDir:   t.OutputDir,
		Overwrite:   t.Overwrite,
		KeepStaging: t.KeepStaging,
	}
	return s, nil
}

// progressSink logs every event and publishes to Kafka when configured.
// The returned close function flushes the Kafka writer.
func progressSink(c ProgressConfig) (progress.Sink, func(), error) {
	logSink := progress.NewLogSink()
	if !c.Kafka.Enabled() {
		return logSink, func() {}, nil
	}
	k, err := progress.NewKafkaSink(c.Kafka)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := k.Close(); err != nil {
			logrus.Warnf("closing kafka progress sink: %v", err)
		}
	}
	return progress.MultiSink{logSink, k}, closeFn, nil
}

// runUpgrade upgrades every model and returns the batch summary.
func runUpgrade(ctx context.Context, s upgradeSettings, c Config, paths []string) (*transition.BatchSummary, error) {
	sink, closeSink, err := progressSink(c.Progress)
	if err != nil {
		return nil, err
	}
	defer closeSink()

	opts := s.Options
	opts.Sink = sink
	opts.Runner = &process.Runner{Timeout: s.Timeout}
	if opts.Overwrite {
		a, err := archive.New(ctx, c.Archive)
		if err != nil {
			return nil, err
		}
		opts.Archiver = a
	}

	p, err := transition.NewPipeline(opts)
	if err != nil {
		return nil, err
	}
	models := make([]transition.Model, len(paths))
	for i, path := range paths {
		models[i] = transition.Model{Path: path, Version: s.From}
	}

	batch := &transition.Batch{Pipeline: p, Workers: s.Workers}
	runs := batch.Run(ctx, models)

	keys := make([]string, 0, len(runs))
	for k := range runs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		run := runs[k]
		if run.Outcome == transition.OutcomeSucceeded {
			logrus.Infof("%s: %s, %d steps applied", run.Model.Name(), run.Outcome, len(run.Applied))
		} else {
			logrus.Errorf("%s: %s: %v", run.Model.Name(), run.Outcome, run.Err)
			if opts.KeepStaging {
				logrus.Infof("%s: staging kept in %s", run.Model.Name(), run.StagingDir)
			}
		}
		if err := run.Close(); err != nil {
			logrus.Warnf("%s: removing staging directory: %v", run.Model.Name(), err)
		}
	}
	return transition.Summarize(runs), nil
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [flags] model.idf...",
	Short: "Upgrade models to a newer engine version with the installed transition tools",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := resolveUpgrade(cmd, cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := runUpgrade(ctx, s, cfg, args)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Upgrade complete: %d succeeded, %d failed, %d cancelled, %d steps applied",
			summary.Succeeded, summary.Failed, summary.Cancelled, summary.StepsApplied)
		if !summary.OK() {
			stop()
			logrus.Fatalf("%d of %d models were not upgraded: %v", summary.Total-summary.Succeeded, summary.Total, summary.FailedModels)
		}
	},
}

func addUpgradeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&toVersion, "to", "", "Target engine version (e.g. 9-0-1)")
	cmd.Flags().StringVar(&fromVersion, "from", "", "Current engine version of the models (read from each model when empty)")
	cmd.Flags().StringVar(&updaterDir, "updater-dir", "", "Directory holding the Transition-V*-to-V* programs")
	cmd.Flags().StringVar(&iddPath, "idd", "", "Energy+.idd schema file staged next to each model")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory receiving upgraded models (default <model dir>/upgraded)")
	cmd.Flags().StringVar(&stagingRoot, "staging-root", "", "Parent of per-run staging directories (default system temp)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the original model with the upgraded one")
	cmd.Flags().BoolVar(&keepStaging, "keep-staging", false, "Keep staging directories for debugging")
	cmd.Flags().IntVar(&workers, "workers", 0, "Models upgraded concurrently (default GOMAXPROCS)")
	cmd.Flags().DurationVar(&toolTimeout, "timeout", 0, "Kill a transition tool after this long (0 = no limit)")
}

func init() {
	addUpgradeFlags(upgradeCmd)
	rootCmd.AddCommand(upgradeCmd)
}
