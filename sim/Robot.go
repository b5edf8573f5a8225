package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/ByteArena/box2d"
	"github.com/google/uuid"
	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/motion"
	"gonum.org/v1/gonum/spatial/r2"
)

// Neighbors is the name of the sensing buffer of a Robot
const Neighbors = "neighbors"

// neighborWidth is the number of values sensed per neighbor: relative
// position and radius
const neighborWidth = 3

// RobotConfig configures the body and the sensor of a Robot
type RobotConfig struct {
	Radius          float64 `mapstructure:"radius"`
	MaxSpeed        float64 `mapstructure:"max_speed"`
	Axis            float64 `mapstructure:"axis"`
	Horizon         float64 `mapstructure:"horizon"`
	Neighbors       int     `mapstructure:"neighbors"`
	GoalTolerance   float64 `mapstructure:"goal_tolerance"`
	OptimalSpeedFac float64 `mapstructure:"optimal_speed_factor"`
}

// DefaultRobotConfig returns the default RobotConfig
func DefaultRobotConfig() RobotConfig {
	return RobotConfig{
		Radius:          0.25,
		MaxSpeed:        1,
		Axis:            0.5,
		Horizon:         5,
		Neighbors:       4,
		GoalTolerance:   0.25,
		OptimalSpeedFac: 1,
	}
}

// Validate checks a RobotConfig to ensure it is a valid configuration
func (c RobotConfig) Validate() error {
	if c.Radius <= 0 {
		return fmt.Errorf("validate: radius must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.Radius)
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("validate: max speed must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.MaxSpeed)
	}
	if c.Axis <= 0 {
		return fmt.Errorf("validate: wheel axis must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.Axis)
	}
	if c.Neighbors < 1 {
		return fmt.Errorf("validate: number of sensed neighbors must be "+
			"positive\n\twant(>0)\n\thave(%v)", c.Neighbors)
	}
	if c.GoalTolerance < 0 {
		return fmt.Errorf("validate: invalid goal tolerance %v",
			c.GoalTolerance)
	}
	return nil
}

// Robot is a circular differential drive robot simulated as a box2d
// body. It senses the relative position of its nearest neighbors and
// navigates towards a goal.
type Robot struct {
	id         uuid.UUID
	config     RobotConfig
	body       *box2d.B2Body
	goal       r2.Vec
	kinematics motion.TwoWheeled

	sensing    *buffer.Set
	neighbors  *buffer.Buffer
	trajectory []r2.Vec
	cmd        motion.Twist
}

func newRobot(world *box2d.B2World, config RobotConfig, pose motion.Pose,
	goal r2.Vec) (*Robot, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sensing := buffer.NewSet()
	neighbors, err := sensing.Add(Neighbors, buffer.Float64, config.Neighbors,
		neighborWidth)
	if err != nil {
		return nil, err
	}

	def := box2d.MakeB2BodyDef()
	def.Type = 2 // Dynamic body
	def.Position = box2d.MakeB2Vec2(pose.Position.X, pose.Position.Y)
	def.Angle = pose.Orientation
	def.AllowSleep = false
	body := world.CreateBody(&def)

	shape := box2d.MakeB2CircleShape()
	shape.M_radius = config.Radius
	fixture := box2d.MakeB2FixtureDef()
	fixture.Shape = &shape
	fixture.Density = 1.0
	fixture.Friction = 0.0
	fixture.Restitution = 0.0
	body.CreateFixtureFromDef(&fixture)

	return &Robot{
		id:         uuid.New(),
		config:     config,
		body:       body,
		goal:       goal,
		kinematics: motion.TwoWheeled{Axis: config.Axis},
		sensing:    sensing,
		neighbors:  neighbors,
		trajectory: []r2.Vec{pose.Position},
	}, nil
}

// ID returns the unique identifier of the robot
func (r *Robot) ID() uuid.UUID {
	return r.id
}

// Goal returns the position the robot navigates to
func (r *Robot) Goal() r2.Vec {
	return r.goal
}

// Trajectory returns the positions of the robot after each step
func (r *Robot) Trajectory() []r2.Vec {
	return r.trajectory
}

// Cmd returns the last command applied to the robot
func (r *Robot) Cmd() motion.Twist {
	return r.cmd
}

// Arrived returns whether the robot is within tolerance of its goal
func (r *Robot) Arrived() bool {
	d, _ := r.TargetDistance()
	return d <= r.config.GoalTolerance
}

// Pose implements the agent.Agent interface
func (r *Robot) Pose() motion.Pose {
	p := r.body.GetPosition()
	return motion.Pose{
		Position:    r2.Vec{X: p.X, Y: p.Y},
		Orientation: r.body.GetAngle(),
	}
}

// Velocity implements the agent.Agent interface
func (r *Robot) Velocity() r2.Vec {
	v := r.body.GetLinearVelocity()
	return r2.Vec{X: v.X, Y: v.Y}
}

// AngularSpeed implements the agent.Agent interface
func (r *Robot) AngularSpeed() float64 {
	return r.body.GetAngularVelocity()
}

// Twist implements the agent.Agent interface
func (r *Robot) Twist(frame motion.Frame) motion.Twist {
	t := motion.Twist{
		Velocity:     r.Velocity(),
		AngularSpeed: r.AngularSpeed(),
		Frame:        motion.Absolute,
	}
	if frame == motion.Relative {
		return t.Relative(r.Pose())
	}
	return t
}

// Radius implements the agent.Agent interface
func (r *Robot) Radius() float64 {
	return r.config.Radius
}

// MaxSpeed implements the agent.Agent interface
func (r *Robot) MaxSpeed() float64 {
	return r.config.MaxSpeed
}

// MaxAngularSpeed implements the agent.Agent interface. It is the
// angular speed reached turning in place with both wheels at full speed.
func (r *Robot) MaxAngularSpeed() float64 {
	return 2 * r.config.MaxSpeed / r.config.Axis
}

// Horizon implements the agent.Agent interface
func (r *Robot) Horizon() float64 {
	return r.config.Horizon
}

// TargetDistance implements the agent.Agent interface
func (r *Robot) TargetDistance() (float64, bool) {
	p := r.Pose().Position
	return math.Hypot(r.goal.X-p.X, r.goal.Y-p.Y), true
}

// TargetDirection implements the agent.Agent interface. The direction
// is undefined once the robot is on its goal.
func (r *Robot) TargetDirection(frame motion.Frame) (r2.Vec, bool) {
	pose := r.Pose()
	d := r2.Vec{X: r.goal.X - pose.Position.X, Y: r.goal.Y - pose.Position.Y}
	n := math.Hypot(d.X, d.Y)
	if n < 1e-9 {
		return r2.Vec{}, false
	}
	e := r2.Vec{X: d.X / n, Y: d.Y / n}
	if frame == motion.Relative {
		return pose.ToRelative(e), true
	}
	return e, true
}

// TargetSpeed implements the agent.Agent interface. The robot wants to
// stop once arrived.
func (r *Robot) TargetSpeed() float64 {
	if r.Arrived() {
		return 0
	}
	return r.config.OptimalSpeedFac * r.config.MaxSpeed
}

// TargetAngularSpeed implements the agent.Agent interface
func (r *Robot) TargetAngularSpeed() float64 {
	return r.MaxAngularSpeed()
}

// WheelSpeeds implements the agent.Wheeled interface
func (r *Robot) WheelSpeeds() [2]float64 {
	return r.kinematics.WheelSpeeds(r.Twist(motion.Relative))
}

// TwistFromWheelSpeeds implements the agent.Wheeled interface
func (r *Robot) TwistFromWheelSpeeds(speeds [2]float64) motion.Twist {
	return r.kinematics.Twist(speeds)
}

// Buffers implements the agent.Sensing interface
func (r *Robot) Buffers() *buffer.Set {
	return r.sensing
}

// apply sets the velocity of the body to realise twist, after limiting
// it to what the wheels can do
func (r *Robot) apply(twist motion.Twist) {
	pose := r.Pose()
	twist = r.kinematics.Feasible(twist.Relative(pose), r.config.MaxSpeed)
	r.cmd = twist

	v := twist.Absolute(pose).Velocity
	r.body.SetLinearVelocity(box2d.MakeB2Vec2(v.X, v.Y))
	r.body.SetAngularVelocity(twist.AngularSpeed)
}

// sense writes the relative position and radius of the nearest
// neighbors within the horizon. Missing neighbors are zeroed.
func (r *Robot) sense(others []*Robot) error {
	pose := r.Pose()
	type neighbor struct {
		position r2.Vec
		distance float64
		radius   float64
	}
	var near []neighbor
	for _, o := range others {
		if o == r {
			continue
		}
		p := o.Pose().Position
		d := r2.Vec{X: p.X - pose.Position.X, Y: p.Y - pose.Position.Y}
		distance := math.Hypot(d.X, d.Y)
		if distance > r.config.Horizon {
			continue
		}
		near = append(near, neighbor{pose.ToRelative(d), distance, o.Radius()})
	}
	sort.Slice(near, func(i, j int) bool {
		return near[i].distance < near[j].distance
	})

	r.neighbors.Zero()
	for i, n := range near {
		if i >= r.config.Neighbors {
			break
		}
		for col, v := range []float64{n.position.X, n.position.Y, n.radius} {
			if err := r.neighbors.SetFloat(i, col, v); err != nil {
				return fmt.Errorf("sense: %v", err)
			}
		}
	}
	return nil
}

// record appends the current position to the trajectory
func (r *Robot) record() {
	r.trajectory = append(r.trajectory, r.Pose().Position)
}
