package main

import (
	"fmt"
	"io"
	"os"

	"github.com/idsia-robotics/navground-onnx/behavior"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/network"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe the tensors of a policy and its model",
	Long: `inspect prints the inputs and outputs a policy with the current
configuration binds when controlling a simulated robot. If the policy
path points to a model, the model is checked against them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := behavior.LoadConfig(v)
		if err != nil {
			return err
		}
		layout, err := sampleLayout(config)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, layout.Describe())

		if config.PolicyPath == "" {
			return nil
		}
		if _, err := os.Stat(config.PolicyPath); err != nil {
			logger.Warn().Str("path", config.PolicyPath).Msg("no model")
			return nil
		}
		model, err := engine.Load(config.PolicyPath)
		if err != nil {
			return err
		}
		if err := printModel(out, config.PolicyPath, model); err != nil {
			return err
		}

		// Opening a session checks that the model can be bound
		session, err := engine.NewGorgonia(engine.WithLogger(logger)).
			Open(config.PolicyPath, layout.Inputs(), layout.Outputs())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "model matches the policy")
		return session.Close()
	},
}

type layerSummary struct {
	Inputs     int                 `yaml:"inputs"`
	Outputs    int                 `yaml:"outputs"`
	Activation *network.Activation `yaml:"activation"`
}

type modelSummary struct {
	Path    string          `yaml:"path"`
	Inputs  []network.Input `yaml:"inputs"`
	Layers  []layerSummary  `yaml:"layers"`
	Output  string          `yaml:"output"`
	Outputs int             `yaml:"outputs"`
}

// printModel writes a YAML summary of model to out
func printModel(out io.Writer, path string, model *engine.Model) error {
	summary := modelSummary{
		Path:    path,
		Inputs:  model.Inputs,
		Output:  model.Output,
		Outputs: model.Outputs(),
	}
	for _, l := range model.Layers {
		summary.Layers = append(summary.Layers, layerSummary{
			Inputs:     l.Inputs,
			Outputs:    l.Outputs,
			Activation: l.Activation,
		})
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]modelSummary{"model": summary}); err != nil {
		return fmt.Errorf("printmodel: %v", err)
	}
	return enc.Close()
}
