// Package agent defines the interfaces that an embedding framework must
// satisfy for its robots to be controlled by a policy.
package agent

import (
	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/motion"
	"gonum.org/v1/gonum/spatial/r2"
)

// Agent is a robot whose control command is computed by a policy.
//
// A policy only ever reads from an Agent. Agents served by the same
// policy must share compatible maxima: the maxima of the first agent a
// policy serves become the policy's scaling constants.
type Agent interface {
	// Pose returns the current position and orientation
	Pose() motion.Pose

	// Velocity returns the current velocity in the world frame
	Velocity() r2.Vec

	// AngularSpeed returns the current angular speed
	AngularSpeed() float64

	// Twist returns the current twist in the given frame
	Twist(frame motion.Frame) motion.Twist

	Radius() float64
	MaxSpeed() float64
	MaxAngularSpeed() float64

	// Horizon is the distance at which the agent senses its environment.
	// It is the default maximal target distance.
	Horizon() float64

	// TargetDistance returns the distance to the current target and
	// whether it is defined
	TargetDistance() (float64, bool)

	// TargetDirection returns the unit vector pointing to the current
	// target in the given frame and whether it is defined
	TargetDirection(frame motion.Frame) (r2.Vec, bool)

	// TargetSpeed returns the desired speed towards the target
	TargetSpeed() float64

	// TargetAngularSpeed returns the desired angular speed
	TargetAngularSpeed() float64
}

// Wheeled is an Agent with differential drive. Policies emitting wheel
// commands can only serve Wheeled agents.
type Wheeled interface {
	Agent

	// WheelSpeeds returns the current (left, right) wheel speeds
	WheelSpeeds() [2]float64

	// TwistFromWheelSpeeds returns the relative twist realised by the
	// given wheel speeds
	TwistFromWheelSpeeds(speeds [2]float64) motion.Twist
}

// Sensing is implemented by agents that expose sensor readings as named
// buffers. The buffers are read, never written, by a policy.
type Sensing interface {
	Buffers() *buffer.Set
}

// SensingOf returns the sensing buffers of a, or an empty set if a does
// not expose any.
func SensingOf(a Agent) *buffer.Set {
	if s, ok := a.(Sensing); ok {
		if set := s.Buffers(); set != nil {
			return set
		}
	}
	return buffer.NewSet()
}
