// Package behavior adapts policies to the agents of an embedding
// framework: a PolicyBehavior owns the configuration of an agent's
// policy and computes the agent's commands with it.
package behavior

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/idsia-robotics/navground-onnx/agent"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/motion"
	"github.com/idsia-robotics/navground-onnx/policy"
	"github.com/idsia-robotics/navground-onnx/utils/floatutils"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r2"
)

// Option configures a PolicyBehavior
type Option func(*PolicyBehavior)

// WithLogger sets the logger of the behavior and of the policies it
// creates
func WithLogger(logger zerolog.Logger) Option {
	return func(b *PolicyBehavior) {
		b.logger = logger
	}
}

// WithRegistry sets the registry through which shared behaviors join
// their policy
func WithRegistry(r *policy.Registry) Option {
	return func(b *PolicyBehavior) {
		b.registry = r
	}
}

// PolicyBehavior computes the commands of an agent with a policy.
//
// The policy is created lazily, on Prepare or on the first call to
// ComputeCmd. A shared behavior joins the shared policy of its registry
// instead of creating its own: since the shared policy can only be
// initialized once all its members have joined, the first command of a
// shared behavior is always zero.
type PolicyBehavior struct {
	agent  agent.Agent
	config Config

	engine   engine.Engine
	registry *policy.Registry
	logger   zerolog.Logger

	policy policy.Controller
	shared *policy.SharedPolicy
}

// New returns a new PolicyBehavior for agent a. The policy path of
// config is made absolute. Shared behaviors without a registry set
// through WithRegistry join a registry private to the behavior.
func New(a agent.Agent, config Config, eng engine.Engine,
	opts ...Option) (*PolicyBehavior, error) {
	if a == nil {
		return nil, fmt.Errorf("new: agent is nil")
	}
	b := &PolicyBehavior{
		agent:  a,
		engine: eng,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.SetConfig(config); err != nil {
		return nil, err
	}
	if b.registry == nil {
		b.registry = policy.NewRegistry(eng, policy.WithLogger(b.logger))
	}
	return b, nil
}

// Config returns the configuration of the behavior
func (b *PolicyBehavior) Config() Config {
	return b.config
}

// SetConfig replaces the configuration of the behavior. The
// configuration cannot be changed once the policy is created.
func (b *PolicyBehavior) SetConfig(config Config) error {
	if b.policy != nil {
		return fmt.Errorf("setconfig: policy already created")
	}
	if config.PolicyPath != "" {
		path, err := filepath.Abs(config.PolicyPath)
		if err != nil {
			return fmt.Errorf("setconfig: %w", err)
		}
		config.PolicyPath = path
	}
	b.config = config
	return nil
}

// PolicyPath returns the path to the model file, relative to the
// working directory if relative is true and possible
func (b *PolicyBehavior) PolicyPath(relative bool) string {
	if !relative {
		return b.config.PolicyPath
	}
	base, err := filepath.Abs(".")
	if err != nil {
		return b.config.PolicyPath
	}
	rel, err := filepath.Rel(base, b.config.PolicyPath)
	if err != nil {
		return b.config.PolicyPath
	}
	return rel
}

// Policy returns the policy of the behavior, or nil if it has not been
// created
func (b *PolicyBehavior) Policy() policy.Controller {
	return b.policy
}

// Prepare creates the policy of the behavior. Non-shared policies are
// also initialized, shared behaviors join their shared policy.
func (b *PolicyBehavior) Prepare() error {
	if b.policy != nil {
		return nil
	}
	if err := b.config.Validate(); err != nil {
		return &policy.ConfigurationError{Op: "prepare", Err: err}
	}

	if b.config.Shared {
		p, err := b.registry.Join(b.agent, b.config.Action,
			b.config.Observation, b.config.PolicyPath)
		if err != nil {
			return err
		}
		b.policy, b.shared = p, p
		return nil
	}

	p := policy.New(b.config.Action, b.config.Observation,
		b.config.PolicyPath, b.engine, policy.WithLogger(b.logger))
	if err := p.Prepare(b.agent); err != nil {
		return err
	}
	b.policy = p
	return nil
}

// ComputeCmd returns the relative twist the agent should follow during
// the next control step of duration time. The command of the policy is
// clamped to the maximal speed and angular speed of the agent.
func (b *PolicyBehavior) ComputeCmd(time float64) (motion.Twist, error) {
	if b.policy == nil {
		if err := b.Prepare(); err != nil {
			return motion.Twist{}, err
		}
		if b.config.Shared {
			return motion.Twist{Frame: motion.Relative}, nil
		}
	}
	twist, err := b.policy.Step(b.agent, time)
	if err != nil {
		return motion.Twist{}, err
	}
	return feasible(b.agent, twist), nil
}

// feasible scales the velocity of t down to the maximal speed of a and
// clips its angular speed to the maximal angular speed of a
func feasible(a agent.Agent, t motion.Twist) motion.Twist {
	speed := math.Hypot(t.Velocity.X, t.Velocity.Y)
	if speed > 0 {
		f := floatutils.ClipInterval(speed, r1.Interval{Max: a.MaxSpeed()}) /
			speed
		t.Velocity = r2.Vec{X: t.Velocity.X * f, Y: t.Velocity.Y * f}
	}
	w := a.MaxAngularSpeed()
	t.AngularSpeed = floatutils.Clip(t.AngularSpeed, -w, w)
	return t
}

// Close releases the policy: shared behaviors leave their shared
// policy, others close their session
func (b *PolicyBehavior) Close() error {
	if b.policy == nil {
		return nil
	}
	defer func() {
		b.policy, b.shared = nil, nil
	}()

	if b.shared != nil {
		return b.shared.Leave(b.agent)
	}
	if p, ok := b.policy.(*policy.Policy); ok {
		return p.Close()
	}
	return nil
}
