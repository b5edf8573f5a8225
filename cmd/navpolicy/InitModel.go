package main

import (
	"fmt"

	"github.com/idsia-robotics/navground-onnx/behavior"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/network"
	"github.com/spf13/cobra"
)

var initModelCmd = &cobra.Command{
	Use:   "init-model",
	Short: "Create an untrained model matching the policy configuration",
	Long: `init-model creates an untrained model whose inputs match the
observations that a policy with the current configuration feeds to a
simulated robot, and saves it at the policy path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := behavior.LoadConfig(v)
		if err != nil {
			return err
		}
		if err := config.Validate(); err != nil {
			return err
		}
		layout, err := sampleLayout(config)
		if err != nil {
			return err
		}
		inputs, err := modelInputs(layout)
		if err != nil {
			return err
		}
		features := 0
		for _, in := range inputs {
			features += in.Width
		}

		hidden := new(network.Activation)
		err = hidden.UnmarshalText([]byte(v.GetString("activation")))
		if err != nil {
			return err
		}
		action, ok := layout.Output().Get(engine.DefaultOutput)
		if !ok {
			return fmt.Errorf("init-model: layout has no output %q",
				engine.DefaultOutput)
		}
		layers, err := network.NewLayers(features, v.GetIntSlice("hidden"),
			action.SlotLen(), v.GetString("init"), hidden, network.TanH())
		if err != nil {
			return err
		}

		model := &engine.Model{
			Inputs: inputs,
			Output: engine.DefaultOutput,
			Layers: layers,
		}
		if err := model.Save(config.PolicyPath); err != nil {
			return err
		}
		logger.Info().
			Str("path", config.PolicyPath).
			Int("features", features).
			Int("layers", len(layers)).
			Msg("saved model")
		return nil
	},
}

func init() {
	flags := initModelCmd.Flags()
	flags.IntSlice("hidden", []int{64, 64}, "Sizes of the hidden layers")
	flags.String("init", "GlorotU", fmt.Sprintf("Weight initialization, "+
		"one of %v", network.InitWFns()))
	flags.String("activation", "relu", "Activation of the hidden layers")
	v.BindPFlags(flags)
}
