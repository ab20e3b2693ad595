/*
Copyright © 2017 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package hydroutil

import (
	"context"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/watershed/hydrorouting/routing"
)

// Cfg holds the command-line and configuration-file driven settings for
// the hydroroute tool, following the same embedded-viper pattern as the
// rest of this model's command surface.
type Cfg struct {
	*viper.Viper

	Root, versionCmd, runCmd *cobra.Command
}

var options []struct {
	name, usage string
	defaultVal  interface{}
	flagsets    []*pflag.FlagSet
}

// Version is the hydroroute tool's version string.
const Version = "0.1.0"

// InitializeConfig builds the hydroroute command tree and binds its flags
// through viper, so that every option can be set via flag, configuration
// file, or HYDROROUTE_-prefixed environment variable.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "hydroroute",
		Short: "A patch-based hydrologic routing engine.",
		Long: `hydroroute advances a basin of hydrologic patches through coupled
subsurface, surface and vertical routing. Use the subcommands below to run
a simulation or check the tool's version.

Configuration can be set with command-line flags, a configuration file
(--config), or environment variables prefixed with HYDROROUTE_.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("hydroroute v%s\n", Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a basin simulation.",
		Long: `run loads a basin from BasinFile, advances it by NumSteps external
time steps of ExternalTimestep seconds each, and writes the resulting
basin state to OutputFile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cfg)
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.versionCmd, cfg.runCmd)

	options = []struct {
		name, usage string
		defaultVal  interface{}
		flagsets    []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "config specifies the configuration file location.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "BasinFile",
			usage:      "BasinFile is the path to the input basin JSON file.",
			defaultVal: "basin.json",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name:       "OutputFile",
			usage:      "OutputFile is the path to write the resulting basin JSON file.",
			defaultVal: "basin_out.json",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name:       "NumSteps",
			usage:      "NumSteps is the number of external time steps to advance the basin.",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name:       "ExternalTimestep",
			usage:      "ExternalTimestep is the duration of one external time step, in seconds.",
			defaultVal: 3600.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name:       "StdScale",
			usage:      "StdScale scales each patch's elevation standard deviation when building the subsurface transmissivity profile.",
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name:       "MaxNeighborSoftBound",
			usage:      "MaxNeighborSoftBound is the inflow-edge count above which a warning is logged for a patch (when Verbose is set), without failing the run.",
			defaultVal: 16,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name:       "Verbose",
			usage:      "Verbose enables per-step debug logging.",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
	}

	cfg.SetEnvPrefix("HYDROROUTE")
	cfg.AutomaticEnv()
	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 {
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.String(option.name, v, option.usage)
			case int:
				set.Int(option.name, v, option.usage)
			case float64:
				set.Float64(option.name, v, option.usage)
			case bool:
				set.Bool(option.name, v, option.usage)
			default:
				panic(fmt.Errorf("hydroutil: invalid default type: %T", v))
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
	return cfg
}

// setConfig reads the configuration file named by the "config" flag, if
// one was given.
func setConfig(cfg *Cfg) error {
	if path := cfg.GetString("config"); path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("hydroutil: reading configuration file: %v", err)
		}
	}
	return nil
}

// Run executes the "run" subcommand: it loads a basin, advances it
// through the configured number of external time steps, logs progress,
// and writes the result.
func Run(cfg *Cfg) error {
	logger := logrus.StandardLogger()

	basin, err := LoadBasin(cfg.GetString("BasinFile"))
	if err != nil {
		return err
	}

	driver := routing.NewDriver(routing.DriverConfig{
		StdScale:             cfg.GetFloat64("StdScale"),
		MaxNeighborSoftBound: cfg.GetInt("MaxNeighborSoftBound"),
		Verbose:              cfg.GetBool("Verbose"),
		Logger:               logger,
	})

	dt := cfg.GetFloat64("ExternalTimestep")
	n := cfg.GetInt("NumSteps")
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if err := driver.Step(ctx, dt, basin); err != nil {
			return fmt.Errorf("hydroutil: stepping basin %q at step %d: %w", basin.Name, i, err)
		}
		logger.Debugf("hydroroute: completed step %d/%d for basin %q", i+1, n, basin.Name)
	}

	return SaveBasin(cfg.GetString("OutputFile"), basin)
}
