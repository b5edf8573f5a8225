package main

import (
	"fmt"

	"github.com/idsia-robotics/navground-onnx/behavior"
	"github.com/idsia-robotics/navground-onnx/motion"
	"github.com/idsia-robotics/navground-onnx/network"
	"github.com/idsia-robotics/navground-onnx/policy"
	"github.com/idsia-robotics/navground-onnx/sim"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/spatial/r2"
)

// addRobotFlags registers the flags configuring simulated robots
func addRobotFlags(flags *pflag.FlagSet) {
	d := sim.DefaultRobotConfig()
	flags.Float64("robot-radius", d.Radius, "Radius of the robots")
	flags.Float64("max-speed", d.MaxSpeed, "Maximal speed of the robots")
	flags.Float64("axis", d.Axis, "Wheel axis of the robots")
	flags.Float64("horizon", d.Horizon, "Sensing horizon of the robots")
	flags.Int("neighbors", d.Neighbors, "Number of sensed neighbors")
	flags.Float64("goal-tolerance", d.GoalTolerance,
		"Distance at which robots have arrived")

	for key, flag := range map[string]string{
		"robot.radius":         "robot-radius",
		"robot.max_speed":      "max-speed",
		"robot.axis":           "axis",
		"robot.horizon":        "horizon",
		"robot.neighbors":      "neighbors",
		"robot.goal_tolerance": "goal-tolerance",
	} {
		v.BindPFlag(key, flags.Lookup(flag))
	}
}

// robotConfig returns the configuration of simulated robots
func robotConfig() (sim.RobotConfig, error) {
	c := sim.DefaultRobotConfig()
	c.Radius = v.GetFloat64("robot.radius")
	c.MaxSpeed = v.GetFloat64("robot.max_speed")
	c.Axis = v.GetFloat64("robot.axis")
	c.Horizon = v.GetFloat64("robot.horizon")
	c.Neighbors = v.GetInt("robot.neighbors")
	c.GoalTolerance = v.GetFloat64("robot.goal_tolerance")
	if err := c.Validate(); err != nil {
		return sim.RobotConfig{}, err
	}
	return c, nil
}

// sampleLayout returns the single sample layout of a policy with config
// that controls a simulated robot
func sampleLayout(config behavior.Config) (*policy.Layout, error) {
	rc, err := robotConfig()
	if err != nil {
		return nil, err
	}
	w := sim.NewWorld(sim.WithLogger(logger))
	r, err := w.Add(rc, motion.Pose{}, r2.Vec{X: 1})
	if err != nil {
		return nil, err
	}
	if err := w.Sense(); err != nil {
		return nil, err
	}
	return policy.NewLayout(config.Action, config.Observation,
		policy.MaximaOf(r), r.Buffers(), 1)
}

// modelInputs returns the inputs a model needs to be bound to layout
func modelInputs(layout *policy.Layout) ([]network.Input, error) {
	bindings := layout.Inputs()
	if len(bindings) == 0 {
		return nil, fmt.Errorf("modelinputs: layout has no inputs")
	}
	inputs := make([]network.Input, len(bindings))
	for i, b := range bindings {
		inputs[i] = network.Input{
			Name:  b.Name,
			Width: b.Tensor.Size() / layout.Batch(),
		}
	}
	return inputs, nil
}
