package engine

import (
	"fmt"
	"io"
	"log"

	"github.com/idsia-robotics/navground-onnx/network"
	"github.com/rs/zerolog"
	G "gorgonia.org/gorgonia"
)

// Option configures a Gorgonia engine
type Option func(*Gorgonia)

// WithLogger sets the logger used to report session lifecycle events
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Gorgonia) {
		e.logger = logger
	}
}

// Verbose disables the suppression of standard output and standard
// error while models are loaded
func Verbose() Option {
	return func(e *Gorgonia) {
		e.verbose = true
	}
}

// Gorgonia is an Engine that loads gob model files and runs them as
// Gorgonia expression graphs on a TapeMachine
type Gorgonia struct {
	logger  zerolog.Logger
	verbose bool
}

// NewGorgonia returns a new Gorgonia engine
func NewGorgonia(opts ...Option) *Gorgonia {
	e := &Gorgonia{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open implements the Engine interface. The model's named inputs must
// all be bound and the model's output must be the single bound output.
func (e *Gorgonia) Open(path string, inputs,
	outputs []Binding) (Session, error) {
	var s *session
	load := func() error {
		var err error
		s, err = e.open(path, inputs, outputs)
		return err
	}

	var err error
	if e.verbose {
		err = load()
	} else {
		err = Quietly(load)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("path", path).
		Int("batch", s.net.BatchSize()).
		Strs("inputs", s.net.InputNames()).
		Msg("opened session")
	return s, nil
}

func (e *Gorgonia) open(path string, inputs,
	outputs []Binding) (*session, error) {
	model, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("open: %v", err)
	}

	if len(outputs) != 1 {
		return nil, fmt.Errorf("open: invalid number of outputs\n\twant(1)"+
			"\n\thave(%v)", len(outputs))
	}
	output := outputs[0]
	if output.Name != model.Output {
		return nil, fmt.Errorf("open: model has no output %q", output.Name)
	}
	outShape := output.Tensor.Shape()
	if len(outShape) != 2 || outShape[1] != model.Outputs() {
		return nil, fmt.Errorf("open: invalid shape for output %q"+
			"\n\twant([batch %v])\n\thave(%v)", output.Name, model.Outputs(),
			outShape)
	}
	if _, ok := output.Tensor.Data().([]float64); !ok {
		return nil, fmt.Errorf("open: output %q must be float64", output.Name)
	}
	batch := outShape[0]

	bound := make(map[string]Binding, len(inputs))
	for _, in := range inputs {
		if _, ok := bound[in.Name]; ok {
			return nil, fmt.Errorf("open: input %q bound twice", in.Name)
		}
		bound[in.Name] = in
	}

	s := &session{
		output:  output,
		scratch: make(map[string][]float64),
	}
	for _, in := range model.Inputs {
		b, ok := bound[in.Name]
		if !ok {
			return nil, fmt.Errorf("open: model input %q is not bound",
				in.Name)
		}
		delete(bound, in.Name)

		shape := b.Tensor.Shape()
		if len(shape) == 0 || shape[0] != batch {
			return nil, fmt.Errorf("open: input %q has shape %v, output "+
				"has batch size %v", in.Name, shape, batch)
		}
		if width := b.Tensor.Size() / batch; width != in.Width {
			return nil, fmt.Errorf("open: invalid width for input %q"+
				"\n\twant(%v)\n\thave(%v)", in.Name, in.Width, width)
		}
		s.inputs = append(s.inputs, b)
	}
	for name := range bound {
		return nil, fmt.Errorf("open: model has no input %q", name)
	}

	s.net, err = network.NewMLP(batch, model.Inputs, model.Layers)
	if err != nil {
		return nil, fmt.Errorf("open: could not build graph: %v", err)
	}

	// Single threaded, silent tape machine
	s.vm = G.NewTapeMachine(s.net.Graph(),
		G.WithLogger(log.New(io.Discard, "", 0)))
	return s, nil
}

// session runs an MLP on the bound tensors
type session struct {
	net     *network.MLP
	vm      G.VM
	inputs  []Binding
	output  Binding
	scratch map[string][]float64
}

// values returns the contents of b as float64s, converting them if the
// tensor stores another type
func (s *session) values(b Binding) ([]float64, error) {
	switch data := b.Tensor.Data().(type) {
	case []float64:
		return data, nil
	case []uint8:
		out := s.scratch[b.Name]
		if len(out) != len(data) {
			out = make([]float64, len(data))
			s.scratch[b.Name] = out
		}
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported dtype %v for input %q",
			b.Tensor.Dtype(), b.Name)
	}
}

// Run implements the Session interface
func (s *session) Run() error {
	defer s.vm.Reset()

	for _, b := range s.inputs {
		values, err := s.values(b)
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if err := s.net.SetInput(b.Name, values); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}
	if err := s.vm.RunAll(); err != nil {
		return fmt.Errorf("run: %v", err)
	}

	out := s.output.Tensor.Data().([]float64)
	prediction := s.net.Output()
	if len(prediction) != len(out) {
		return fmt.Errorf("run: invalid output size\n\twant(%v)\n\thave(%v)",
			len(out), len(prediction))
	}
	copy(out, prediction)
	return nil
}

// Close implements the Session interface
func (s *session) Close() error {
	return s.vm.Close()
}
