package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eplus-sim/eplus-sim/eplus/balance"
	"github.com/eplus-sim/eplus-sim/eplus/idf"
)

var (
	// CLI flags for the outputs command
	outputsFrequency string   // Reporting frequency of the requests
	outputBundles    []string // Named bundles of requests
	sqlStyle         string   // Output:SQLite option, empty for none
	summaryReport    string   // Output:Table:SummaryReports report, empty for none
	controlStyle     string   // OutputControl:Table:Style column separator, empty for none
	outputsModel     string   // Record store whose existing requests seed the set
)

// bundles maps bundle names to the builders that add them.
var bundles = map[string]func(*idf.OutputConfig) *idf.OutputConfig{
	"balance":      balance.RequestOutputs,
	"basics":       (*idf.OutputConfig).AddBasics,
	"schedules":    (*idf.OutputConfig).AddSchedules,
	"dxf":          (*idf.OutputConfig).AddDXF,
	"umi":          (*idf.OutputConfig).AddUmiOutputs,
	"umi-template": (*idf.OutputConfig).AddUmiTemplateOutputs,
	"profile":      (*idf.OutputConfig).AddProfileGasElectOutputs,
	"hvac":         (*idf.OutputConfig).AddHVACEnergyUse,
}

// buildOutputs assembles the requested output set.
func buildOutputs(freq string, names []string, sql, summary, control string, seed *idf.Store) (*idf.OutputConfig, error) {
	f, err := idf.ParseFrequency(freq)
	if err != nil {
		return nil, err
	}
	c := idf.NewOutputConfig(f)
	if seed != nil {
		c = idf.NewOutputConfigFromStore(seed, f)
	}
	for _, name := range names {
		add, ok := bundles[name]
		if !ok {
			return nil, fmt.Errorf("unknown output bundle %q", name)
		}
		c = add(c)
	}
	if sql != "" {
		c.AddSQL(sql)
	}
	if summary != "" {
		c.AddSummaryReport(summary)
	}
	if control != "" {
		c.AddOutputControl(control)
	}
	return c, c.Err()
}

func writeOutputs(w io.Writer, c *idf.OutputConfig) error {
	return c.WriteIDF(w)
}

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "Print the output requests a simulation needs, in model text form",
	Run: func(cmd *cobra.Command, args []string) {
		var seed *idf.Store
		if outputsModel != "" {
			s, err := idf.LoadStore(outputsModel)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			seed = s
		}
		c, err := buildOutputs(outputsFrequency, outputBundles, sqlStyle, summaryReport, controlStyle, seed)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeOutputs(os.Stdout, c); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	outputsCmd.Flags().StringVar(&outputsFrequency, "frequency", "Hourly", "Reporting frequency (Annual, Monthly, Daily, Hourly, Timestep)")
	outputsCmd.Flags().StringSliceVar(&outputBundles, "bundle", []string{"balance"}, "Output bundles (balance, basics, schedules, dxf, umi, umi-template, profile, hvac)")
	outputsCmd.Flags().StringVar(&sqlStyle, "sql", "", "Add Output:SQLite with this option (Simple, SimpleAndTabular)")
	outputsCmd.Flags().StringVar(&summaryReport, "summary-report", "", "Add a summary report (e.g. AllSummary)")
	outputsCmd.Flags().StringVar(&controlStyle, "table-style", "", "Add OutputControl:Table:Style with this separator (Comma, HTML, ...)")
	outputsCmd.Flags().StringVar(&outputsModel, "model", "", "YAML record store whose existing requests are kept")
	rootCmd.AddCommand(outputsCmd)
}
