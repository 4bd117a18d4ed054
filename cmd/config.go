package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eplus-sim/eplus-sim/eplus/archive"
	"github.com/eplus-sim/eplus-sim/eplus/progress"
)

// defaultConfigPath is read when --config is not given and the file exists.
const defaultConfigPath = "eplus-sim.yaml"

// Config represents the full eplus-sim.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	EnergyPlus EnergyPlusConfig `yaml:"energyplus"`
	Transition TransitionConfig `yaml:"transition"`
	Progress   ProgressConfig   `yaml:"progress"`
	Archive    archive.Config   `yaml:"archive"`
	Balance    BalanceConfig    `yaml:"balance"`
}

// EnergyPlusConfig locates the engine installation.
type EnergyPlusConfig struct {
	// InstallRoot holds one EnergyPlus-<x-y-z> directory per installed version.
	InstallRoot string `yaml:"install_root"`
	// UpdaterDir overrides the transition tool directory derived from InstallRoot.
	UpdaterDir string `yaml:"updater_dir"`
	IDD        string `yaml:"idd"`
}

type TransitionConfig struct {
	Workers     int           `yaml:"workers"`
	StagingRoot string        `yaml:"staging_root"`
	OutputDir   string        `yaml:"output_dir"`
	Overwrite   bool          `yaml:"overwrite"`
	KeepStaging bool          `yaml:"keep_staging"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ProgressConfig struct {
	Kafka progress.KafkaConfig `yaml:"kafka"`
}

type BalanceConfig struct {
	Units               string `yaml:"units"`
	PowerUnits          string `yaml:"power_units"`
	Frequency           string `yaml:"frequency"`
	OutdoorSurfacesOnly bool   `yaml:"outdoor_surfaces_only"`
	// Multipliers is "surface_and_zone" (default) or "surface_only".
	Multipliers string `yaml:"multipliers"`
}

func defaultConfig() Config {
	return Config{
		Transition: TransitionConfig{Workers: 0},
		Balance: BalanceConfig{
			Units:               "kWh",
			PowerUnits:          "kW",
			Frequency:           "Hourly",
			OutdoorSurfacesOnly: true,
			Multipliers:         "surface_and_zone",
		},
	}
}

// parseConfig decodes data over the defaults with strict field checking.
func parseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// loadConfig reads path. A missing file is only an error when required.
func loadConfig(path string, required bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
