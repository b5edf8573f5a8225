package motion

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// TwoWheeled converts between the wheel speeds of a differential drive
// robot and twists in the robot's frame. Wheel speeds are ordered
// (left, right).
type TwoWheeled struct {
	// Axis is the distance between the two wheels
	Axis float64
}

// Twist returns the relative twist produced by the given wheel speeds
func (k TwoWheeled) Twist(speeds [2]float64) Twist {
	left, right := speeds[0], speeds[1]
	return Twist{
		Velocity:     r2.Vec{X: (left + right) / 2},
		AngularSpeed: (right - left) / k.Axis,
		Frame:        Relative,
	}
}

// WheelSpeeds returns the wheel speeds that realise the relative twist
// t. Lateral velocity cannot be realised and is ignored.
func (k TwoWheeled) WheelSpeeds(t Twist) [2]float64 {
	v := t.Velocity.X
	d := t.AngularSpeed * k.Axis / 2
	return [2]float64{v - d, v + d}
}

// Feasible clamps the wheel speeds of t so that neither wheel exceeds
// maxSpeed, keeping the ratio between the two wheels.
func (k TwoWheeled) Feasible(t Twist, maxSpeed float64) Twist {
	speeds := k.WheelSpeeds(t)
	m := math.Max(math.Abs(speeds[0]), math.Abs(speeds[1]))
	if m <= maxSpeed || m == 0 {
		return k.Twist(speeds)
	}
	f := maxSpeed / m
	return k.Twist([2]float64{speeds[0] * f, speeds[1] * f})
}
