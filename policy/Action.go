package policy

import (
	"fmt"

	"github.com/idsia-robotics/navground-onnx/agent"
	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/motion"
	"gonum.org/v1/gonum/spatial/r2"
)

// Action decodes the action tensor into motion commands. Raw values are
// assumed to be normalized in [-1, 1] and are scaled by the configured
// maxima.
//
// The two columns of the action tensor are interpreted depending on the
// configuration:
//
//	use_wheels                (left, right) wheel speeds or accelerations
//	fix_orientation           (longitudinal, transversal) velocity
//	otherwise                 (longitudinal, angular) velocity
type Action struct {
	values *buffer.Buffer
	config ActionConfig
	maxima Maxima
}

func newAction(values *buffer.Buffer, config ActionConfig,
	maxima Maxima) Action {
	return Action{values: values, config: config, maxima: maxima}
}

// raw returns the two raw action values of slot
func (act Action) raw(slot int) (float64, float64, error) {
	if act.values == nil {
		return 0, 0, ErrUninitialized
	}
	first, err := act.values.Float(slot, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("decode: %v", err)
	}
	second, err := act.values.Float(slot, 1)
	if err != nil {
		return 0, 0, fmt.Errorf("decode: %v", err)
	}
	return first, second, nil
}

// Decode returns the relative twist commanded by the action of slot to
// agent a. time is the duration of the control step, used to integrate
// accelerations against the current motion of a.
func (act Action) Decode(a agent.Agent, time float64,
	slot int) (motion.Twist, error) {
	if act.config.UseWheels {
		w, ok := a.(agent.Wheeled)
		if !ok {
			return motion.Twist{}, configError("decode", "wheel actions "+
				"require a wheeled agent, have %T", a)
		}
		speeds, err := act.WheelSpeeds(w, time, slot)
		if err != nil {
			return motion.Twist{}, err
		}
		twist := w.TwistFromWheelSpeeds(speeds)
		twist.Frame = motion.Relative
		return twist, nil
	}

	first, second, err := act.raw(slot)
	if err != nil {
		return motion.Twist{}, err
	}
	var longitudinal, transversal, angular float64
	if act.config.FixOrientation {
		longitudinal, transversal = first, second
	} else {
		longitudinal, angular = first, second
	}

	if !act.config.UseAccelerationAction {
		return motion.NewTwist(
			longitudinal*act.maxima.Speed,
			transversal*act.maxima.Speed,
			angular*act.maxima.AngularSpeed,
			motion.Relative,
		), nil
	}

	current := a.Twist(motion.Relative)
	acc := r2.Vec{
		X: longitudinal * act.config.MaxAcceleration,
		Y: transversal * act.config.MaxAcceleration,
	}
	twist := motion.Twist{
		Velocity: r2.Vec{
			X: current.Velocity.X + time*acc.X,
			Y: current.Velocity.Y + time*acc.Y,
		},
		AngularSpeed: current.AngularSpeed +
			time*angular*act.config.MaxAngularAcceleration,
		Frame: motion.Relative,
	}
	if act.config.FixOrientation {
		twist.AngularSpeed = 0
	}
	return twist, nil
}

// WheelSpeeds returns the (left, right) wheel speeds commanded by the
// action of slot, before they are converted to a twist. Accelerations
// are integrated against the current wheel speeds of a.
func (act Action) WheelSpeeds(a agent.Wheeled, time float64,
	slot int) ([2]float64, error) {
	left, right, err := act.raw(slot)
	if err != nil {
		return [2]float64{}, err
	}
	if !act.config.UseAccelerationAction {
		return [2]float64{
			left * act.maxima.Speed,
			right * act.maxima.Speed,
		}, nil
	}
	speeds := a.WheelSpeeds()
	speeds[0] += left * act.config.MaxAcceleration * time
	speeds[1] += right * act.config.MaxAcceleration * time
	return speeds, nil
}
