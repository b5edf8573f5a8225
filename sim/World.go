// Package sim implements a small simulated world of differential drive
// robots that navigate to their goals, controlled by policies.
package sim

import (
	"context"
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/idsia-robotics/navground-onnx/motion"
	"github.com/idsia-robotics/navground-onnx/utils/progressbar"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"
)

// Box2d solver iterations per step
const (
	velocityIterations = 6
	positionIterations = 2
)

// Controller computes the commands of a robot
type Controller interface {
	ComputeCmd(time float64) (motion.Twist, error)
}

// Option configures a World
type Option func(*World)

// WithLogger sets the logger of the world
func WithLogger(logger zerolog.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// World is a planar world without gravity in which robots move
type World struct {
	world  box2d.B2World
	robots []*Robot
	time   float64
	steps  int
	logger zerolog.Logger
}

// NewWorld returns a new empty World
func NewWorld(opts ...Option) *World {
	w := &World{
		world:  box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add adds a robot at pose that navigates to goal
func (w *World) Add(config RobotConfig, pose motion.Pose,
	goal r2.Vec) (*Robot, error) {
	r, err := newRobot(&w.world, config, pose, goal)
	if err != nil {
		return nil, fmt.Errorf("add: %v", err)
	}
	w.robots = append(w.robots, r)
	w.logger.Debug().
		Str("robot", r.ID().String()).
		Float64("x", pose.Position.X).
		Float64("y", pose.Position.Y).
		Msg("added robot")
	return r, nil
}

// Robots returns the robots of the world in the order they were added
func (w *World) Robots() []*Robot {
	return w.robots
}

// Time returns the simulated time
func (w *World) Time() float64 {
	return w.time
}

// Steps returns the number of steps simulated
func (w *World) Steps() int {
	return w.steps
}

// Arrived returns whether all robots have arrived
func (w *World) Arrived() bool {
	for _, r := range w.robots {
		if !r.Arrived() {
			return false
		}
	}
	return true
}

// Sense updates the sensing buffers of all robots
func (w *World) Sense() error {
	for _, r := range w.robots {
		if err := r.sense(w.robots); err != nil {
			return err
		}
	}
	return nil
}

// Step computes the commands of all robots, applies them and advances
// the world by time. controllers[i] controls robot i. Controllers are
// called in robot order.
func (w *World) Step(controllers []Controller, time float64) error {
	if len(controllers) != len(w.robots) {
		return fmt.Errorf("step: invalid number of controllers"+
			"\n\twant(%v)\n\thave(%v)", len(w.robots), len(controllers))
	}
	if err := w.Sense(); err != nil {
		return err
	}
	for i, c := range controllers {
		cmd, err := c.ComputeCmd(time)
		if err != nil {
			return fmt.Errorf("step: robot %v: %w", i, err)
		}
		w.robots[i].apply(cmd)
	}

	w.world.Step(time, velocityIterations, positionIterations)
	w.time += time
	w.steps++
	for _, r := range w.robots {
		r.record()
	}
	return nil
}

// Run steps the world until steps steps are simulated, all robots have
// arrived or ctx is done. If bar is not nil, it is updated at every
// step.
func (w *World) Run(ctx context.Context, controllers []Controller,
	steps int, time float64, bar *progressbar.ManualProgressBar) error {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Step(controllers, time); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
			bar.Display()
		}
		if w.Arrived() {
			w.logger.Info().
				Int("steps", w.steps).
				Float64("time", w.time).
				Msg("all robots arrived")
			break
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return nil
}
