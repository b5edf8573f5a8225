package policy

import (
	"fmt"
	"math"
	"strings"

	"github.com/idsia-robotics/navground-onnx/agent"
	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/utils/floatutils"
	"golang.org/x/exp/slices"
)

// Names of the tensors exchanged with the inference engine
const (
	TargetDirection      = "ego_target_direction"
	TargetDirectionValid = "ego_target_direction_valid"
	TargetDistance       = "ego_target_distance"
	TargetDistanceValid  = "ego_target_distance_valid"
	Velocity             = "ego_velocity"
	AngularSpeed         = "ego_angular_speed"
	Radius               = "ego_radius"
	TargetSpeed          = "ego_target_speed"
	TargetAngularSpeed   = "ego_target_angular_speed"
	Observation          = "observation"
	ActionOutput         = engine.DefaultOutput
	actionWidth          = 2
	directionWidth       = 2
	scalarWidth          = 1
)

// Maxima are the scaling constants a policy reads from the first agent
// it serves
type Maxima struct {
	Speed        float64
	AngularSpeed float64
	Horizon      float64
}

// MaximaOf returns the maxima of a
func MaximaOf(a agent.Agent) Maxima {
	return Maxima{
		Speed:        a.MaxSpeed(),
		AngularSpeed: a.MaxAngularSpeed(),
		Horizon:      a.Horizon(),
	}
}

// Layout is the negotiated set of buffers of a policy: which state
// channels exist, their shapes, and the tensors bound to the inference
// engine. A Layout is fixed once built.
type Layout struct {
	action      ActionConfig
	observation ObservationConfig
	maxima      Maxima
	batch       int

	state   *buffer.Set
	sensing *buffer.Set // batched copies of the sensing buffers
	output  *buffer.Set
	flat    *buffer.Buffer

	sensingNames []string
	sensingSizes []int
	sensingWidth int

	Ego    EgoState
	Target TargetState
	Action Action
}

// NewLayout builds the buffers for a batch of agents observing the
// channels enabled by observation, with the given sensing buffers (as
// exposed by a single agent).
//
// State channels are allocated with shape [batch, width] in a fixed
// order: target direction, its validity, target distance, its validity,
// velocity, angular speed, radius, target speed and target angular
// speed. The action is always allocated as [batch, 2].
func NewLayout(action ActionConfig, observation ObservationConfig,
	maxima Maxima, sensing *buffer.Set, batch int) (*Layout, error) {
	const op = "build"
	if batch < 1 {
		return nil, configError(op, "batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", batch)
	}
	if err := action.Validate(); err != nil {
		return nil, &ConfigurationError{Op: op, Err: err}
	}
	if err := observation.Validate(); err != nil {
		return nil, &ConfigurationError{Op: op, Err: err}
	}

	l := &Layout{
		action:      action,
		observation: observation,
		maxima:      maxima,
		batch:       batch,
		state:       buffer.NewSet(),
		output:      buffer.NewSet(),
	}

	out, err := l.output.Add(ActionOutput, buffer.Float64, batch, actionWidth)
	if err != nil {
		return nil, &ConfigurationError{Op: op, Err: err}
	}
	l.Action = newAction(out, action, maxima)

	if err := l.addChannels(); err != nil {
		return nil, &ConfigurationError{Op: op, Err: err}
	}
	if err := l.addSensing(sensing); err != nil {
		return nil, &ConfigurationError{Op: op, Err: err}
	}
	return l, nil
}

// addChannels allocates the enabled state channels in canonical order
func (l *Layout) addChannels() error {
	c := l.observation
	channels := []struct {
		enabled bool
		name    string
		dtype   buffer.DType
		width   int
		handle  **buffer.Buffer
	}{
		{c.IncludeTargetDirection, TargetDirection, buffer.Float64,
			directionWidth, &l.Target.direction},
		{c.IncludeTargetDirection && c.IncludeTargetDirectionValidity,
			TargetDirectionValid, buffer.Uint8, scalarWidth,
			&l.Target.directionValid},
		{c.IncludeTargetDistance, TargetDistance, buffer.Float64, scalarWidth,
			&l.Target.distance},
		{c.IncludeTargetDistance && c.IncludeTargetDistanceValidity,
			TargetDistanceValid, buffer.Uint8, scalarWidth,
			&l.Target.distanceValid},
		{c.IncludeVelocity, Velocity, buffer.Float64, scalarWidth,
			&l.Ego.longitudinal},
		{c.IncludeAngularSpeed, AngularSpeed, buffer.Float64, scalarWidth,
			&l.Ego.angularSpeed},
		{c.IncludeRadius, Radius, buffer.Float64, scalarWidth, &l.Ego.radius},
		{c.IncludeTargetSpeed, TargetSpeed, buffer.Float64, scalarWidth,
			&l.Target.speed},
		{c.IncludeTargetAngularSpeed, TargetAngularSpeed, buffer.Float64,
			scalarWidth, &l.Target.angularSpeed},
	}
	for _, ch := range channels {
		if !ch.enabled {
			continue
		}
		b, err := l.state.Add(ch.name, ch.dtype, l.batch, ch.width)
		if err != nil {
			return err
		}
		*ch.handle = b
	}

	l.Ego.maxRadius = c.MaxRadius
	l.Target.maxSpeed = l.maxima.Speed
	l.Target.maxAngularSpeed = l.maxima.AngularSpeed
	horizon := math.Inf(1)
	if l.maxima.Horizon > 0 {
		horizon = l.maxima.Horizon
	}
	l.Target.maxDistance = floatutils.Finite(c.MaxTargetDistance, horizon)
	return nil
}

// addSensing allocates either the flat observation buffer or the
// batched copies of the sensing buffers
func (l *Layout) addSensing(sensing *buffer.Set) error {
	l.sensingNames = sensing.Names()
	l.sensingWidth = sensing.Size()
	for _, name := range l.sensingNames {
		b, _ := sensing.Get(name)
		l.sensingSizes = append(l.sensingSizes, b.Size())
	}

	if l.observation.Flat {
		width := l.sensingWidth + l.state.SlotSize()
		if width == 0 {
			return fmt.Errorf("flat observation has no channels")
		}
		flat, err := buffer.New(buffer.Float64, l.batch, width)
		if err != nil {
			return err
		}
		l.flat = flat
		return nil
	}

	l.sensing = buffer.NewSet()
	return sensing.Each(func(name string, b *buffer.Buffer) error {
		if _, ok := l.state.Get(name); ok || name == Observation {
			return fmt.Errorf("sensing buffer %q shadows a state channel",
				name)
		}
		shape := append([]int{l.batch}, b.Shape()...)
		_, err := l.sensing.Add(name, b.DType(), shape...)
		return err
	})
}

// Batch returns the batch size of the layout
func (l *Layout) Batch() int {
	return l.batch
}

// Maxima returns the scaling constants of the layout
func (l *Layout) Maxima() Maxima {
	return l.maxima
}

// State returns the state channel buffers in canonical order
func (l *Layout) State() *buffer.Set {
	return l.state
}

// Output returns the action buffers
func (l *Layout) Output() *buffer.Set {
	return l.output
}

// Flat returns the flat observation buffer, or nil if the layout is not
// flat
func (l *Layout) Flat() *buffer.Buffer {
	return l.flat
}

// Check returns a *ConfigurationError if the layout was built with a
// different configuration or batch size
func (l *Layout) Check(action ActionConfig, observation ObservationConfig,
	batch int) error {
	if l.action != action || l.observation != observation {
		return configError("build", "layout already initialized with a "+
			"different configuration")
	}
	if l.batch != batch {
		return configError("build", "layout already initialized with batch "+
			"size %v\n\twant(%v)\n\thave(%v)", l.batch, l.batch, batch)
	}
	return nil
}

// Inputs returns the tensors to bind as inputs of the inference engine.
// In flat mode the only input is "observation", otherwise the sensing
// buffers followed by the state channels.
func (l *Layout) Inputs() []engine.Binding {
	if l.flat != nil {
		return []engine.Binding{{Name: Observation, Tensor: l.flat.Tensor()}}
	}
	inputs := make([]engine.Binding, 0, l.sensing.Len()+l.state.Len())
	for _, set := range []*buffer.Set{l.sensing, l.state} {
		set.Each(func(name string, b *buffer.Buffer) error {
			inputs = append(inputs, engine.Binding{Name: name,
				Tensor: b.Tensor()})
			return nil
		})
	}
	return inputs
}

// Outputs returns the tensors to bind as outputs of the inference engine
func (l *Layout) Outputs() []engine.Binding {
	b, _ := l.output.Get(ActionOutput)
	return []engine.Binding{{Name: ActionOutput, Tensor: b.Tensor()}}
}

// Collect writes the state of every member into its slot and, in flat
// mode, assembles the observation tensor. members[i] is the agent in
// slot i; nil members are vacant slots whose rows are zeroed in the
// observation tensor.
func (l *Layout) Collect(members []agent.Agent) error {
	if len(members) != l.batch {
		return configError("collect", "invalid number of members"+
			"\n\twant(%v)\n\thave(%v)", l.batch, len(members))
	}

	for slot, a := range members {
		if a == nil {
			continue
		}
		if err := l.Ego.Update(a, slot); err != nil {
			return err
		}
		if err := l.Target.Update(a, slot); err != nil {
			return err
		}
		if l.flat == nil {
			if err := l.copySensing(a, slot); err != nil {
				return err
			}
		}
	}

	if l.flat == nil {
		return nil
	}
	raw := l.flat.Tensor().Data().([]float64)
	cursor := buffer.NewCursor(raw)
	for slot, a := range members {
		if a == nil {
			if err := cursor.Zero(l.flat.SlotLen()); err != nil {
				return err
			}
			continue
		}
		sensing, err := l.sensingOf(a)
		if err != nil {
			return err
		}
		if err := buffer.Flatten(cursor, sensing, buffer.All); err != nil {
			return fmt.Errorf("collect: %v", err)
		}
		if err := buffer.Flatten(cursor, l.state, slot); err != nil {
			return fmt.Errorf("collect: %v", err)
		}
	}
	return nil
}

// sensingOf returns the sensing buffers of a after checking that their
// names, order and sizes match the layout
func (l *Layout) sensingOf(a agent.Agent) (*buffer.Set, error) {
	sensing := agent.SensingOf(a)
	names := sensing.Names()
	if !slices.Equal(names, l.sensingNames) {
		return nil, configError("collect", "agent sensing does not match "+
			"the layout\n\twant(%v)\n\thave(%v)", l.sensingNames, names)
	}
	for i, name := range names {
		b, _ := sensing.Get(name)
		if b.Size() != l.sensingSizes[i] {
			return nil, configError("collect", "invalid size of sensing "+
				"buffer %q\n\twant(%v)\n\thave(%v)", name, l.sensingSizes[i],
				b.Size())
		}
	}
	return sensing, nil
}

// copySensing copies the sensing buffers of a into slot of the batched
// sensing buffers
func (l *Layout) copySensing(a agent.Agent, slot int) error {
	sensing, err := l.sensingOf(a)
	if err != nil {
		return err
	}
	for _, name := range l.sensingNames {
		src, ok := sensing.Get(name)
		if !ok {
			return configError("collect", "agent has no sensing buffer %q",
				name)
		}
		dst, _ := l.sensing.Get(name)
		if err := dst.CopySlot(slot, src); err != nil {
			return fmt.Errorf("collect %v: %v", name, err)
		}
	}
	return nil
}

// Describe returns a human readable description of the tensors bound to
// the inference engine
func (l *Layout) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "batch: %v\n", l.batch)
	sb.WriteString("inputs:\n")
	if l.flat != nil {
		fmt.Fprintf(&sb, "  %v: %v\n", Observation, l.flat)
		sb.WriteString("  content:\n")
		for _, name := range l.sensingNames {
			fmt.Fprintf(&sb, "    %v (sensing)\n", name)
		}
		for _, name := range l.state.Names() {
			b, _ := l.state.Get(name)
			fmt.Fprintf(&sb, "    %v: %v\n", name, b)
		}
	} else {
		for _, set := range []*buffer.Set{l.sensing, l.state} {
			set.Each(func(name string, b *buffer.Buffer) error {
				fmt.Fprintf(&sb, "  %v: %v\n", name, b)
				return nil
			})
		}
	}
	sb.WriteString("outputs:\n")
	l.output.Each(func(name string, b *buffer.Buffer) error {
		fmt.Fprintf(&sb, "  %v: %v\n", name, b)
		return nil
	})
	return sb.String()
}
