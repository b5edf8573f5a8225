package policy

import (
	"fmt"
	"sync"

	"github.com/idsia-robotics/navground-onnx/agent"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/motion"
	"golang.org/x/exp/slices"
)

// Key identifies the shared policies of a Registry. Agents joining with
// equal keys share the same policy.
type Key struct {
	Action      ActionConfig
	Observation ObservationConfig
	Path        string
}

// Validate checks that k is a valid configuration. Keys holding NaN
// would never compare equal and are rejected.
func (k Key) Validate() error {
	if err := k.Action.Validate(); err != nil {
		return err
	}
	return k.Observation.Validate()
}

// SharedPolicy is a Policy that serves a group of agents with a single
// batched inference call per control cycle.
//
// Each member owns the batch slot given by its join position for as
// long as it stays a member; slots of members that left are not reused.
// The leader is the member in the lowest occupied slot: stepping the
// leader writes the observations of all members and runs the model,
// stepping the other members only decodes their slot of the action.
// Members must therefore be stepped leader first in every cycle, which
// is checked: a member stepped twice without an intervening leader step
// gets an *OrderError.
//
// The batch size is fixed when the policy is initialized, at the
// leader's first step. Agents cannot join an initialized SharedPolicy.
type SharedPolicy struct {
	*Policy

	registry *Registry
	key      Key

	slots []agent.Agent
	seen  []uint64
	cycle uint64
}

func newShared(r *Registry, key Key) *SharedPolicy {
	return &SharedPolicy{
		Policy: New(key.Action, key.Observation, key.Path, r.engine,
			r.opts...),
		registry: r,
		key:      key,
	}
}

// Key returns the key the policy is registered with
func (p *SharedPolicy) Key() Key {
	return p.key
}

// Batches returns the number of slots of the policy, including the slots
// of members that left
func (p *SharedPolicy) Batches() int {
	return len(p.slots)
}

// Cycle returns the number of batched inference calls run so far
func (p *SharedPolicy) Cycle() uint64 {
	return p.cycle
}

// Members returns the number of agents currently in the group
func (p *SharedPolicy) Members() int {
	n := 0
	for _, a := range p.slots {
		if a != nil {
			n++
		}
	}
	return n
}

// SlotOf returns the slot of agent a and whether a is a member
func (p *SharedPolicy) SlotOf(a agent.Agent) (int, bool) {
	if a == nil {
		return -1, false
	}
	i := slices.Index(p.slots, a)
	return i, i >= 0
}

// Leader returns the slot of the leader, or -1 if the group is empty
func (p *SharedPolicy) Leader() int {
	return slices.IndexFunc(p.slots, func(a agent.Agent) bool {
		return a != nil
	})
}

// Prepare initializes the policy for all current members, reading the
// maxima and sensing layout of member a
func (p *SharedPolicy) Prepare(a agent.Agent) error {
	if _, ok := p.SlotOf(a); !ok {
		return &MembershipError{Agent: a}
	}
	return p.prepare(a, len(p.slots))
}

// Step returns the command of member a. If a is the leader, the model is
// first run on the observations of all members.
func (p *SharedPolicy) Step(a agent.Agent, time float64) (motion.Twist,
	error) {
	slot, ok := p.SlotOf(a)
	if !ok {
		return motion.Twist{}, &MembershipError{Agent: a}
	}

	if slot == p.Leader() {
		if err := p.Prepare(a); err != nil {
			return motion.Twist{}, err
		}
		if err := p.layout.Collect(p.slots); err != nil {
			return motion.Twist{}, err
		}
		if err := p.Run(); err != nil {
			return motion.Twist{}, err
		}
		p.cycle++
		p.logger.Trace().Uint64("cycle", p.cycle).Msg("batched run")
	} else if p.seen[slot] == p.cycle {
		return motion.Twist{}, &OrderError{Slot: slot, Cycle: p.cycle}
	} else if !p.Initialized() {
		return motion.Twist{}, ErrUninitialized
	}
	p.seen[slot] = p.cycle

	return p.layout.Action.Decode(a, time, slot)
}

// Close closes the inference session and restarts the cycle count. The
// members stay in their slots: the policy is initialized again at the
// next step of the leader.
func (p *SharedPolicy) Close() error {
	err := p.Policy.Close()
	p.cycle = 0
	for i := range p.seen {
		p.seen[i] = 0
	}
	return err
}

// Leave removes agent a from the group. When the last member leaves, the
// policy is closed and removed from its registry.
func (p *SharedPolicy) Leave(a agent.Agent) error {
	return p.registry.Leave(a, p)
}

// leave vacates the slot of a, returning whether the group is now empty
func (p *SharedPolicy) leave(a agent.Agent) (bool, error) {
	slot, ok := p.SlotOf(a)
	if !ok {
		return false, &MembershipError{Agent: a}
	}
	p.slots[slot] = nil
	p.logger.Debug().Int("slot", slot).Msg("member left")
	return p.Members() == 0, nil
}

// Registry deduplicates shared policies by Key. Registries are
// independent: agents only share policies joined through the same
// Registry. A Registry is safe for concurrent use, the policies it
// returns are not.
type Registry struct {
	mu       sync.Mutex
	engine   engine.Engine
	opts     []Option
	policies map[Key]*SharedPolicy
}

// NewRegistry returns a new empty Registry whose policies run on engine
// eng
func NewRegistry(eng engine.Engine, opts ...Option) *Registry {
	return &Registry{
		engine:   eng,
		opts:     opts,
		policies: make(map[Key]*SharedPolicy),
	}
}

// Join adds agent a to the shared policy registered with an equal
// configuration, creating and registering the policy if needed, and
// returns the policy. The slot of a is its join position. Joining a
// policy a is already a member of returns the policy unchanged.
//
// Join fails with a *ConfigurationError if the configuration is invalid
// or if the policy is already initialized; in both cases the registry is
// left unchanged.
func (r *Registry) Join(a agent.Agent, action ActionConfig,
	observation ObservationConfig, path string) (*SharedPolicy, error) {
	const op = "join"
	if a == nil {
		return nil, configError(op, "cannot join a nil agent")
	}
	key := Key{Action: action, Observation: observation, Path: path}
	if err := key.Validate(); err != nil {
		return nil, &ConfigurationError{Op: op, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.policies[key]
	if !ok {
		p = newShared(r, key)
	}
	if _, member := p.SlotOf(a); member {
		return p, nil
	}
	if p.Initialized() {
		return nil, configError(op, "shared policy already initialized "+
			"with batch size %v", p.Batches())
	}

	p.slots = append(p.slots, a)
	p.seen = append(p.seen, p.cycle)
	if !ok {
		r.policies[key] = p
	}
	p.logger.Debug().Int("slot", len(p.slots)-1).Msg("member joined")
	return p, nil
}

// Leave removes agent a from shared policy p. When the last member
// leaves, p is removed from the registry and closed.
func (r *Registry) Leave(a agent.Agent, p *SharedPolicy) error {
	if p.registry != r {
		return fmt.Errorf("leave: policy not owned by this registry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	empty, err := p.leave(a)
	if err != nil || !empty {
		return err
	}
	if r.policies[p.key] == p {
		delete(r.policies, p.key)
	}
	return p.Close()
}

// Lookup returns the shared policy registered with key, if any
func (r *Registry) Lookup(key Key) (*SharedPolicy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[key]
	return p, ok
}

// Len returns the number of registered shared policies
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.policies)
}

// Close closes and unregisters all shared policies
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for key, p := range r.policies {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.policies, key)
	}
	return first
}
