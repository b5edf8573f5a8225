// Package policy implements neural network navigation policies: it
// assembles the observations of agents into named tensors, runs an
// inference engine on them and decodes the resulting actions into
// motion commands.
//
// A Policy serves a single agent. A SharedPolicy batches the agents that
// joined it through a Registry into a single inference call per control
// cycle.
package policy

import (
	"github.com/idsia-robotics/navground-onnx/agent"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/motion"
	"github.com/rs/zerolog"
)

// Controller computes motion commands for agents
type Controller interface {
	// Step returns the command for agent a over a control step of
	// duration time
	Step(a agent.Agent, time float64) (motion.Twist, error)

	// Batches returns the number of agents served per inference call
	Batches() int
}

type options struct {
	logger zerolog.Logger
}

// Option configures policies and registries
type Option func(*options)

// WithLogger sets the logger used to report the lifecycle of policies
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Policy computes the command of a single agent by running a model on
// its observations.
//
// A Policy is initialized lazily, against the first agent it serves:
// the agent's maxima and sensing buffers fix the layout of the policy
// for its whole lifetime. A Policy is not safe for concurrent use.
type Policy struct {
	action      ActionConfig
	observation ObservationConfig
	path        string

	engine engine.Engine
	logger zerolog.Logger

	layout  *Layout
	session engine.Session
}

// New returns a new uninitialized Policy running the model at path on
// engine eng
func New(action ActionConfig, observation ObservationConfig, path string,
	eng engine.Engine, opts ...Option) *Policy {
	o := newOptions(opts)
	return &Policy{
		action:      action,
		observation: observation,
		path:        path,
		engine:      eng,
		logger:      o.logger.With().Str("policy", path).Logger(),
	}
}

// ActionConfig returns the action configuration of the policy
func (p *Policy) ActionConfig() ActionConfig {
	return p.action
}

// ObservationConfig returns the observation configuration of the policy
func (p *Policy) ObservationConfig() ObservationConfig {
	return p.observation
}

// Path returns the path of the model file
func (p *Policy) Path() string {
	return p.path
}

// Layout returns the layout of the policy, or nil if the policy is not
// initialized
func (p *Policy) Layout() *Layout {
	return p.layout
}

// Initialized returns whether the layout is built and the inference
// session opened
func (p *Policy) Initialized() bool {
	return p.session != nil
}

// Batches returns the number of agents served per inference call
func (p *Policy) Batches() int {
	return 1
}

// Prepare initializes the policy against agent a. Preparing an
// initialized policy is a no-op. If Prepare fails, the policy stays
// uninitialized.
func (p *Policy) Prepare(a agent.Agent) error {
	return p.prepare(a, 1)
}

func (p *Policy) prepare(a agent.Agent, batch int) error {
	if p.Initialized() {
		return p.layout.Check(p.action, p.observation, batch)
	}
	layout, err := NewLayout(p.action, p.observation, MaximaOf(a),
		agent.SensingOf(a), batch)
	if err != nil {
		p.logger.Error().Err(err).Msg("could not build layout")
		return err
	}
	session, err := p.engine.Open(p.path, layout.Inputs(), layout.Outputs())
	if err != nil {
		p.logger.Error().Err(err).Msg("could not open inference session")
		return &EngineError{Op: "prepare", Path: p.path, Err: err}
	}
	p.layout, p.session = layout, session

	p.logger.Info().
		Int("batch", batch).
		Int("inputs", len(layout.Inputs())).
		Bool("flat", p.observation.Flat).
		Msg("initialized")
	return nil
}

// Step returns the command of agent a, initializing the policy first if
// needed: the state of a is written to the observation tensors, the
// model is run, and the action is decoded. time is the duration of the
// control step.
func (p *Policy) Step(a agent.Agent, time float64) (motion.Twist, error) {
	if err := p.Prepare(a); err != nil {
		return motion.Twist{}, err
	}
	if err := p.layout.Collect([]agent.Agent{a}); err != nil {
		return motion.Twist{}, err
	}
	if err := p.Run(); err != nil {
		return motion.Twist{}, err
	}
	return p.layout.Action.Decode(a, time, 0)
}

// Run runs the model on the current content of the observation tensors.
// Run returns ErrUninitialized if the policy is not initialized.
func (p *Policy) Run() error {
	if !p.Initialized() {
		p.logger.Warn().Msg("run before initialization")
		return ErrUninitialized
	}
	if err := p.session.Run(); err != nil {
		return &EngineError{Op: "run", Path: p.path, Err: err}
	}
	return nil
}

// Close closes the inference session. A closed policy is uninitialized
// and is initialized again on its next step.
func (p *Policy) Close() error {
	if !p.Initialized() {
		return nil
	}
	err := p.session.Close()
	p.session, p.layout = nil, nil
	p.logger.Debug().Msg("closed")
	if err != nil {
		return &EngineError{Op: "close", Path: p.path, Err: err}
	}
	return nil
}
