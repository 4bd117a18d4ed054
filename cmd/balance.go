package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eplus-sim/eplus-sim/eplus/balance"
	"github.com/eplus-sim/eplus-sim/eplus/idf"
)

var (
	// CLI flags shared by the balance and sankey commands
	seriesPath    string // Long-format series CSV
	modelPath     string // YAML record store of the model
	units         string // Energy units of the result
	powerUnits    string // Units of HVAC power series
	frequency     string // Reporting frequency
	outdoorOnly   bool   // Drop interzone surfaces
	multipliers   string // surface_and_zone or surface_only
	outputPath    string // Output file (stdout when empty)
	summaryFormat string // Summary table written by the balance command
)

// resolveBalance merges balance flags over c; flags only win when set.
func resolveBalance(cmd *cobra.Command, c BalanceConfig) (balance.Options, error) {
	flags := cmd.Flags()
	if flags.Changed("units") {
		c.Units = units
	}
	if flags.Changed("power-units") {
		c.PowerUnits = powerUnits
	}
	if flags.Changed("frequency") {
		c.Frequency = frequency
	}
	if flags.Changed("outdoor-only") {
		c.OutdoorSurfacesOnly = outdoorOnly
	}
	if flags.Changed("multipliers") {
		c.Multipliers = multipliers
	}

	opts := balance.Options{
		Units:               c.Units,
		PowerUnits:          c.PowerUnits,
		OutdoorSurfacesOnly: c.OutdoorSurfacesOnly,
	}
	if c.Frequency != "" {
		f, err := idf.ParseFrequency(c.Frequency)
		if err != nil {
			return opts, err
		}
		opts.Frequency = f
	}
	switch c.Multipliers {
	case "", "surface_and_zone":
		opts.Multipliers = balance.SurfaceAndZone
	case "surface_only":
		opts.Multipliers = balance.SurfaceOnly
	default:
		return opts, fmt.Errorf("unknown multiplier mode %q (want surface_and_zone or surface_only)", c.Multipliers)
	}
	return opts, nil
}

// computeBalance loads the series and the model and computes the balance.
func computeBalance(series, model string, opts balance.Options) (*balance.Balance, error) {
	if series == "" || model == "" {
		return nil, fmt.Errorf("--series and --model are required")
	}
	collector, err := balance.LoadCSV(series)
	if err != nil {
		return nil, err
	}
	store, err := idf.LoadStore(model)
	if err != nil {
		return nil, err
	}
	b, err := balance.Compute(collector, store, opts)
	if err != nil {
		return nil, err
	}
	for _, c := range balance.Components {
		if reason, ok := b.Unavailable[c]; ok {
			logrus.Warnf("component %s unavailable: %s", c, reason)
		}
	}
	return b, nil
}

func formatValue(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }

func periodRows(p balance.PeriodTotals) [][3]string {
	return [][3]string{
		{balance.CoolingPeriods, balance.HeatGain, formatValue(p.CoolingGain)},
		{balance.CoolingPeriods, balance.HeatLoss, formatValue(p.CoolingLoss)},
		{balance.HeatingPeriods, balance.HeatGain, formatValue(p.HeatingGain)},
		{balance.HeatingPeriods, balance.HeatLoss, formatValue(p.HeatingLoss)},
	}
}

// Unavailable marks rows for components that could not be computed, so an
// absent component is never read as a zero.
const Unavailable = "unavailable"

// writeUnavailable appends one row per unavailable component: the component,
// the marker in column marker, the reason after it, other columns empty.
func writeUnavailable(cw *csv.Writer, b *balance.Balance, width, marker int) {
	for _, c := range balance.Components {
		reason, ok := b.Unavailable[c]
		if !ok {
			continue
		}
		row := make([]string, width)
		row[0] = string(c)
		row[marker] = Unavailable
		row[marker+1] = reason
		_ = cw.Write(row)
	}
}

// writeBalance writes one of the balance summaries as CSV, followed by a row
// for each component that could not be computed.
func writeBalance(w io.Writer, b *balance.Balance, format string) error {
	cw := csv.NewWriter(w)
	switch format {
	case "zone":
		_ = cw.Write([]string{"component", "zone", "period", "direction", "value"})
		for _, r := range b.Summary() {
			for _, p := range periodRows(r.PeriodTotals) {
				_ = cw.Write([]string{r.Component, r.Zone, p[0], p[1], p[2]})
			}
		}
		writeUnavailable(cw, b, 5, 2)
	case "annual", "component":
		rows := b.Annual()
		if format == "component" {
			rows = b.ComponentSummary()
		}
		_ = cw.Write([]string{"component", "period", "direction", "value"})
		for _, r := range rows {
			for _, p := range periodRows(r.PeriodTotals) {
				_ = cw.Write([]string{r.Component, p[0], p[1], p[2]})
			}
		}
		writeUnavailable(cw, b, 4, 1)
	case "totals":
		_ = cw.Write([]string{"component", "key", "total"})
		for _, z := range b.ZoneTotals() {
			_ = cw.Write([]string{z.Component, z.Key, formatValue(z.Total)})
		}
		writeUnavailable(cw, b, 3, 1)
	default:
		return fmt.Errorf("unknown summary %q (want zone, annual, component or totals)", format)
	}
	cw.Flush()
	return cw.Error()
}

// openOutput returns stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Decompose hourly simulation output into energy balance components",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveBalance(cmd, cfg.Balance)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		b, err := computeBalance(seriesPath, modelPath, opts)
		if err != nil {
			logrus.Fatalf("Energy balance failed: %v", err)
		}
		out, err := openOutput(outputPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer out.Close()
		if err := writeBalance(out, b, summaryFormat); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func addBalanceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&seriesPath, "series", "", "Long-format series CSV (timestamp,frequency,variable,key,units,value)")
	cmd.Flags().StringVar(&modelPath, "model", "", "YAML record store of the model (zones and surfaces)")
	cmd.Flags().StringVar(&units, "units", "kWh", "Energy units of the result")
	cmd.Flags().StringVar(&powerUnits, "power-units", "kW", "Units of the HVAC power series")
	cmd.Flags().StringVar(&frequency, "frequency", "Hourly", "Reporting frequency of the series")
	cmd.Flags().BoolVar(&outdoorOnly, "outdoor-only", true, "Only attribute surfaces that are not interzone")
	cmd.Flags().StringVar(&multipliers, "multipliers", "surface_and_zone", "Surface multiplier mode (surface_and_zone, surface_only)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default stdout)")
}

func init() {
	addBalanceFlags(balanceCmd)
	balanceCmd.Flags().StringVar(&summaryFormat, "summary", "zone", "Summary to write (zone, annual, component, totals)")
	rootCmd.AddCommand(balanceCmd)
}
