// Package motion implements planar poses and twists and the conversion
// of vectors between the world frame and an agent's own frame.
package motion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Frame denotes the reference frame a vector is expressed in
type Frame int

const (
	// Relative is the agent's own frame: the first axis points along the
	// agent's orientation
	Relative Frame = iota

	// Absolute is the world frame
	Absolute
)

// String implements the Stringer interface
func (f Frame) String() string {
	if f == Absolute {
		return "absolute"
	}
	return "relative"
}

// Rotate rotates v counter-clockwise by angle radians
func Rotate(v r2.Vec, angle float64) r2.Vec {
	c, s := math.Cos(angle), math.Sin(angle)
	return r2.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

// Pose is a planar position and orientation
type Pose struct {
	Position    r2.Vec
	Orientation float64
}

// ToRelative expresses the world-frame vector v in the pose's frame
func (p Pose) ToRelative(v r2.Vec) r2.Vec {
	return Rotate(v, -p.Orientation)
}

// ToAbsolute expresses the pose-frame vector v in the world frame
func (p Pose) ToAbsolute(v r2.Vec) r2.Vec {
	return Rotate(v, p.Orientation)
}

// Twist is a planar velocity command
type Twist struct {
	Velocity     r2.Vec
	AngularSpeed float64
	Frame        Frame
}

// NewTwist returns a twist in the given frame
func NewTwist(vx, vy, w float64, frame Frame) Twist {
	return Twist{Velocity: r2.Vec{X: vx, Y: vy}, AngularSpeed: w, Frame: frame}
}

// Relative returns the twist expressed in the frame of pose p
func (t Twist) Relative(p Pose) Twist {
	if t.Frame == Relative {
		return t
	}
	return Twist{p.ToRelative(t.Velocity), t.AngularSpeed, Relative}
}

// Absolute returns the twist expressed in the world frame, given the
// pose p of the agent it belongs to
func (t Twist) Absolute(p Pose) Twist {
	if t.Frame == Absolute {
		return t
	}
	return Twist{p.ToAbsolute(t.Velocity), t.AngularSpeed, Absolute}
}

// IsZero returns whether the twist commands no motion
func (t Twist) IsZero() bool {
	return t.Velocity == r2.Vec{} && t.AngularSpeed == 0
}

// String implements the Stringer interface
func (t Twist) String() string {
	return fmt.Sprintf("Twist(velocity=(%.3f, %.3f), angular_speed=%.3f, "+
		"frame=%v)", t.Velocity.X, t.Velocity.Y, t.AngularSpeed, t.Frame)
}
