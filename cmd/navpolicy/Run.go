package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/idsia-robotics/navground-onnx/behavior"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/policy"
	"github.com/idsia-robotics/navground-onnx/sim"
	"github.com/idsia-robotics/navground-onnx/utils/progressbar"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a policy in an antipodal scenario",
	Long: `run places robots on a circle and lets each of them cross to the
opposite side, controlled by the policy at the policy path. Shared
policies are evaluated once per step for all robots.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := behavior.LoadConfig(v)
		if err != nil {
			return err
		}
		scenario, err := antipodal()
		if err != nil {
			return err
		}

		w := sim.NewWorld(sim.WithLogger(logger))
		robots, err := scenario.Init(w)
		if err != nil {
			return err
		}

		var opts []engine.Option
		opts = append(opts, engine.WithLogger(logger))
		if v.GetBool("verbose") {
			opts = append(opts, engine.Verbose())
		}
		eng := engine.NewGorgonia(opts...)
		registry := policy.NewRegistry(eng, policy.WithLogger(logger))
		defer registry.Close()

		behaviors := make([]*behavior.PolicyBehavior, len(robots))
		controllers := make([]sim.Controller, len(robots))
		for i, r := range robots {
			b, err := behavior.New(r, config, eng,
				behavior.WithLogger(logger.With().
					Str("robot", r.ID().String()).Logger()),
				behavior.WithRegistry(registry))
			if err != nil {
				return err
			}
			behaviors[i], controllers[i] = b, b
		}
		defer func() {
			for _, b := range behaviors {
				if err := b.Close(); err != nil {
					logger.Error().Err(err).Msg("could not close behavior")
				}
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		steps := v.GetInt("steps")
		var bar *progressbar.ManualProgressBar
		if v.GetBool("progress") {
			bar = progressbar.NewManualProgressBar(os.Stderr, "steps", 40,
				steps)
		}
		if err := w.Run(ctx, controllers, steps, v.GetFloat64("time-step"),
			bar); err != nil {
			return err
		}

		arrived := 0
		for _, r := range robots {
			if r.Arrived() {
				arrived++
			}
		}
		logger.Info().
			Int("steps", w.Steps()).
			Float64("time", w.Time()).
			Int("arrived", arrived).
			Int("robots", len(robots)).
			Msg("run finished")

		if path := v.GetString("render"); path != "" {
			if err := w.Render(path, v.GetInt("size")); err != nil {
				return err
			}
			logger.Info().Str("path", path).Msg("rendered world")
		}
		return nil
	},
}

// antipodal returns the configured scenario
func antipodal() (sim.Antipodal, error) {
	robot, err := robotConfig()
	if err != nil {
		return sim.Antipodal{}, err
	}
	s := sim.DefaultAntipodal()
	s.Robots = v.GetInt("robots")
	s.Radius = v.GetFloat64("circle")
	s.Noise = v.GetFloat64("noise")
	s.Seed = v.GetUint64("seed")
	s.Robot = robot
	if v.GetInt("steps") < 1 {
		return sim.Antipodal{}, fmt.Errorf("antipodal: number of steps must "+
			"be positive\n\twant(>0)\n\thave(%v)", v.GetInt("steps"))
	}
	if v.GetFloat64("time-step") <= 0 {
		return sim.Antipodal{}, fmt.Errorf("antipodal: time step must be "+
			"positive\n\twant(>0)\n\thave(%v)", v.GetFloat64("time-step"))
	}
	return s, nil
}

func init() {
	d := sim.DefaultAntipodal()
	flags := runCmd.Flags()
	flags.Int("robots", d.Robots, "Number of robots")
	flags.Float64("circle", d.Radius, "Radius of the circle")
	flags.Float64("noise", d.Noise, "Noise added to the initial poses")
	flags.Uint64("seed", d.Seed, "Seed of the initial pose noise")
	flags.Int("steps", 1000, "Maximal number of steps")
	flags.Float64("time-step", 0.1, "Duration of a step in seconds")
	flags.String("render", "", "Render the trajectories as a PNG at this "+
		"path")
	flags.Int("size", 512, "Size of the rendered image in pixels")
	flags.Bool("progress", true, "Display a progress bar")
	flags.Bool("verbose", false, "Do not silence the inference engine")
	v.BindPFlags(flags)
}
