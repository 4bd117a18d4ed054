package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eplus-sim/eplus-sim/eplus/transition"
)

// listTransitions prints the tools discovered in dir, one ladder rung per line.
func listTransitions(w io.Writer, dir string) error {
	r, err := transition.Discover(dir)
	if err != nil {
		return err
	}
	tools := r.Tools()
	if len(tools) == 0 {
		fmt.Fprintf(w, "no transition tools in %s\n", dir)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tTOOL")
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.From, t.To, t.Path)
	}
	return tw.Flush()
}

var transitionsCmd = &cobra.Command{
	Use:   "transitions",
	Short: "List the transition tools found in the updater directory",
	Run: func(cmd *cobra.Command, args []string) {
		dir := cfg.EnergyPlus.UpdaterDir
		if cmd.Flags().Changed("updater-dir") {
			dir = updaterDir
		}
		if dir == "" {
			logrus.Fatalf("no transition tool directory: pass --updater-dir or set energyplus.updater_dir")
		}
		if err := listTransitions(os.Stdout, dir); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	transitionsCmd.Flags().StringVar(&updaterDir, "updater-dir", "", "Directory holding the Transition-V*-to-V* programs")
	rootCmd.AddCommand(transitionsCmd)
}
