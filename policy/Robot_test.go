package policy_test

import (
	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/motion"
	"gonum.org/v1/gonum/spatial/r2"
)

// robot is a minimal agent with settable state
type robot struct {
	pose         motion.Pose
	velocity     r2.Vec
	angularSpeed float64

	radius          float64
	maxSpeed        float64
	maxAngularSpeed float64
	horizon         float64

	distance     float64
	hasDistance  bool
	direction    r2.Vec // absolute
	hasDirection bool

	targetSpeed        float64
	targetAngularSpeed float64

	sensing *buffer.Set
}

func newRobot() *robot {
	return &robot{
		radius:          0.5,
		maxSpeed:        2,
		maxAngularSpeed: 4,
		horizon:         5,
		direction:       r2.Vec{X: 1},
		hasDirection:    true,
	}
}

func (r *robot) Pose() motion.Pose               { return r.pose }
func (r *robot) Velocity() r2.Vec                { return r.velocity }
func (r *robot) AngularSpeed() float64           { return r.angularSpeed }
func (r *robot) Radius() float64                 { return r.radius }
func (r *robot) MaxSpeed() float64               { return r.maxSpeed }
func (r *robot) MaxAngularSpeed() float64        { return r.maxAngularSpeed }
func (r *robot) Horizon() float64                { return r.horizon }
func (r *robot) TargetSpeed() float64            { return r.targetSpeed }
func (r *robot) TargetAngularSpeed() float64     { return r.targetAngularSpeed }
func (r *robot) TargetDistance() (float64, bool) { return r.distance, r.hasDistance }
func (r *robot) Buffers() *buffer.Set            { return r.sensing }

func (r *robot) Twist(frame motion.Frame) motion.Twist {
	t := motion.Twist{
		Velocity:     r.velocity,
		AngularSpeed: r.angularSpeed,
		Frame:        motion.Absolute,
	}
	if frame == motion.Relative {
		return t.Relative(r.pose)
	}
	return t
}

func (r *robot) TargetDirection(frame motion.Frame) (r2.Vec, bool) {
	if !r.hasDirection {
		return r2.Vec{}, false
	}
	if frame == motion.Relative {
		return r.pose.ToRelative(r.direction), true
	}
	return r.direction, true
}

// wheeledRobot is a robot with differential drive
type wheeledRobot struct {
	*robot
	wheels     [2]float64
	kinematics motion.TwoWheeled
}

func newWheeledRobot() *wheeledRobot {
	return &wheeledRobot{
		robot:      newRobot(),
		kinematics: motion.TwoWheeled{Axis: 0.5},
	}
}

func (w *wheeledRobot) WheelSpeeds() [2]float64 { return w.wheels }

func (w *wheeledRobot) TwistFromWheelSpeeds(speeds [2]float64) motion.Twist {
	return w.kinematics.Twist(speeds)
}

// withSensing sets a sensing buffer "lidar" of the given values
func withSensing(r *robot, values ...float64) *robot {
	b, err := buffer.FromFloats(values, len(values))
	if err != nil {
		panic(err)
	}
	r.sensing = buffer.NewSet()
	if err := r.sensing.Put("lidar", b); err != nil {
		panic(err)
	}
	return r
}
