package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestFrameConversion(t *testing.T) {
	p := Pose{Position: r2.Vec{X: 1, Y: 1}, Orientation: math.Pi / 2}

	// The world +y axis is the forward axis of an agent facing +y
	rel := p.ToRelative(r2.Vec{X: 0, Y: 2})
	assert.InDelta(t, 2, rel.X, 1e-12)
	assert.InDelta(t, 0, rel.Y, 1e-12)

	abs := p.ToAbsolute(rel)
	assert.InDelta(t, 0, abs.X, 1e-12)
	assert.InDelta(t, 2, abs.Y, 1e-12)
}

func TestTwistFrames(t *testing.T) {
	p := Pose{Orientation: math.Pi}
	tw := NewTwist(1, 0, 0.5, Relative)

	abs := tw.Absolute(p)
	assert.Equal(t, Absolute, abs.Frame)
	assert.InDelta(t, -1, abs.Velocity.X, 1e-12)
	assert.Equal(t, 0.5, abs.AngularSpeed)

	back := abs.Relative(p)
	assert.Equal(t, Relative, back.Frame)
	assert.InDelta(t, 1, back.Velocity.X, 1e-12)
	assert.Equal(t, tw, tw.Relative(p))
	assert.True(t, Twist{}.IsZero())
}

func TestTwoWheeled(t *testing.T) {
	k := TwoWheeled{Axis: 0.5}

	tw := k.Twist([2]float64{1, 2})
	assert.InDelta(t, 1.5, tw.Velocity.X, 1e-12)
	assert.InDelta(t, 2, tw.AngularSpeed, 1e-12)
	assert.Equal(t, Relative, tw.Frame)

	speeds := k.WheelSpeeds(tw)
	assert.InDelta(t, 1, speeds[0], 1e-12)
	assert.InDelta(t, 2, speeds[1], 1e-12)

	f := k.Feasible(tw, 1)
	speeds = k.WheelSpeeds(f)
	assert.InDelta(t, 0.5, speeds[0], 1e-12)
	assert.InDelta(t, 1, speeds[1], 1e-12)
}
