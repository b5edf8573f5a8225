// Command navpolicy creates, inspects and runs navigation policies in a
// simulated world.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/idsia-robotics/navground-onnx/behavior"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	v      = viper.New()
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "navpolicy",
	Short: "Neural network navigation policies",
	Long: `navpolicy runs neural network navigation policies on simulated
differential drive robots.

Policy knobs can be set with flags, with a configuration file (--config)
or with NAVPOLICY_* environment variables, e.g. NAVPOLICY_USE_WHEELS=true.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file (yaml, json or toml)")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, "+
		"error)")
	for _, k := range behavior.Knobs() {
		addKnob(flags, k)
	}
	addRobotFlags(flags)

	v.BindPFlags(flags)
	v.SetEnvPrefix("NAVPOLICY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(initModelCmd, runCmd, inspectCmd)
}

// addKnob registers a flag for knob k. Flag names use dashes, viper keys
// use the knob names.
func addKnob(flags *pflag.FlagSet, k behavior.Knob) {
	name := strings.ReplaceAll(k.Name, "_", "-")
	switch d := k.Default.(type) {
	case bool:
		flags.Bool(name, d, k.Description)
	case float64:
		flags.Float64(name, d, k.Description)
	case int:
		flags.Int(name, d, k.Description)
	case string:
		flags.String(name, d, k.Description)
	default:
		panic(fmt.Sprintf("addknob: unsupported type %T for knob %v", d,
			k.Name))
	}
	v.BindPFlag(k.Name, flags.Lookup(name))
}

// setup reads the configuration file and configures the logger
func setup() error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("setup: could not read config: %w", err)
		}
	}

	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
