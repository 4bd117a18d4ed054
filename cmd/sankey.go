package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eplus-sim/eplus-sim/eplus/sankey"
)

var endUsesPath string // End-use table CSV

var sankeyCmd = &cobra.Command{
	Use:   "sankey",
	Short: "Write the energy flow graph of a simulation as source,target,value CSV",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveBalance(cmd, cfg.Balance)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		b, err := computeBalance(seriesPath, modelPath, opts)
		if err != nil {
			logrus.Fatalf("Energy balance failed: %v", err)
		}
		var table *sankey.EndUseTable
		if endUsesPath != "" {
			if table, err = sankey.LoadEndUses(endUsesPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		} else {
			logrus.Warnf("no --end-uses table; energy source tier omitted")
		}
		edges := sankey.FromBalance(b, table)

		out, err := openOutput(outputPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer out.Close()
		if err := sankey.WriteCSV(out, edges); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Wrote %d flows", len(edges))
	},
}

func init() {
	addBalanceFlags(sankeyCmd)
	sankeyCmd.Flags().StringVar(&endUsesPath, "end-uses", "", "End-use table CSV (rows are end uses, columns energy sources)")
	rootCmd.AddCommand(sankeyCmd)
}
