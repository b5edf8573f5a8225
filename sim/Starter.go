package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/idsia-robotics/navground-onnx/motion"
)

// UniformStarter samples vectors uniformly within bounds
type UniformStarter struct {
	features int
	seed     uint64
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling within bounds,
// one interval per feature
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return UniformStarter{len(bounds), seed, rand}
}

// Start samples a new vector
func (u UniformStarter) Start() mat.Vector {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

// Seed returns the seed of the starter
func (u UniformStarter) Seed() uint64 {
	return u.seed
}

// Antipodal is a scenario where robots start on a circle facing its
// center and have to reach the opposite side of the circle
type Antipodal struct {
	Robots int         `mapstructure:"robots"`
	Radius float64     `mapstructure:"radius"`
	Noise  float64     `mapstructure:"noise"`
	Seed   uint64      `mapstructure:"seed"`
	Robot  RobotConfig `mapstructure:"robot"`
}

// DefaultAntipodal returns the default Antipodal scenario
func DefaultAntipodal() Antipodal {
	return Antipodal{
		Robots: 4,
		Radius: 4,
		Noise:  0.1,
		Seed:   0,
		Robot:  DefaultRobotConfig(),
	}
}

// Init adds the robots of the scenario to w, in order of their angle
// on the circle
func (s Antipodal) Init(w *World) ([]*Robot, error) {
	if s.Robots < 1 {
		return nil, fmt.Errorf("init: number of robots must be positive"+
			"\n\twant(>0)\n\thave(%v)", s.Robots)
	}
	if s.Radius <= 0 {
		return nil, fmt.Errorf("init: invalid circle radius %v", s.Radius)
	}

	var noise func() mat.Vector
	if s.Noise > 0 {
		bound := r1.Interval{Min: -s.Noise, Max: s.Noise}
		starter := NewUniformStarter([]r1.Interval{bound, bound, bound},
			s.Seed)
		noise = starter.Start
	} else {
		noise = func() mat.Vector { return mat.NewVecDense(3, nil) }
	}

	robots := make([]*Robot, 0, s.Robots)
	for i := 0; i < s.Robots; i++ {
		angle := 2 * math.Pi * float64(i) / float64(s.Robots)
		n := noise()
		start := r2.Vec{
			X: s.Radius*math.Cos(angle) + n.AtVec(0),
			Y: s.Radius*math.Sin(angle) + n.AtVec(1),
		}
		goal := r2.Vec{X: -s.Radius * math.Cos(angle),
			Y: -s.Radius * math.Sin(angle)}
		pose := motion.Pose{
			Position:    start,
			Orientation: angle + math.Pi + n.AtVec(2),
		}
		r, err := w.Add(s.Robot, pose, goal)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
	}
	return robots, nil
}
