package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eplus-sim/eplus-sim/eplus/construction"
)

var constructionFile string // Construction library YAML

// writeConstructions prints the thermal properties of each construction.
func writeConstructions(w io.Writer, cs []*construction.Construction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLAYERS\tR-VALUE\tU-VALUE\tR-FACTOR\tU-FACTOR")
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\n", c.Name, len(c.Layers),
			construction.RValue(c), construction.UValue(c), construction.RFactor(c), construction.UFactor(c))
	}
	return tw.Flush()
}

var constructionCmd = &cobra.Command{
	Use:   "construction",
	Short: "Report R-values and U-factors of layered constructions",
	Run: func(cmd *cobra.Command, args []string) {
		if constructionFile == "" {
			logrus.Fatalf("--file is required")
		}
		cs, err := construction.Load(constructionFile)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeConstructions(os.Stdout, cs); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	constructionCmd.Flags().StringVar(&constructionFile, "file", "", "Construction library YAML")
	rootCmd.AddCommand(constructionCmd)
}
