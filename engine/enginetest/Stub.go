// Package enginetest provides an inference engine stub for testing
// policies without model files.
package enginetest

import (
	"fmt"

	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/engine"
)

// Stub is an Engine whose sessions record their inputs and write a
// fixed output.
type Stub struct {
	// Output is copied into the bound output tensor on every run. If it
	// is shorter than the output tensor, the remaining elements are left
	// untouched.
	Output []float64

	// Fill, if set, is called after Output is copied with the output
	// storage and the 1-based number of the run
	Fill func(out []float64, run int)

	OpenErr error
	RunErr  error

	// Recorded by the stub
	Path    string
	Opened  int
	Closed  int
	Runs    int
	Inputs  []string
	Shapes  map[string][]int
	Last    map[string][]float64
	Outputs []string
}

// Open implements the engine.Engine interface
func (s *Stub) Open(path string, inputs,
	outputs []engine.Binding) (engine.Session, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("open: stub supports a single output, have %v",
			len(outputs))
	}
	s.Path = path
	s.Opened++
	s.Inputs = nil
	s.Outputs = []string{outputs[0].Name}
	s.Shapes = make(map[string][]int)
	for _, in := range inputs {
		s.Inputs = append(s.Inputs, in.Name)
		s.Shapes[in.Name] = []int(in.Tensor.Shape().Clone())
	}
	s.Shapes[outputs[0].Name] = []int(outputs[0].Tensor.Shape().Clone())
	return &session{stub: s, inputs: inputs, output: outputs[0]}, nil
}

type session struct {
	stub   *Stub
	inputs []engine.Binding
	output engine.Binding
	closed bool
}

func (s *session) Run() error {
	if s.closed {
		return fmt.Errorf("run: session closed")
	}
	if s.stub.RunErr != nil {
		return s.stub.RunErr
	}
	s.stub.Runs++

	s.stub.Last = make(map[string][]float64, len(s.inputs))
	for _, in := range s.inputs {
		s.stub.Last[in.Name] = values(in)
	}

	out := s.output.Tensor.Data().([]float64)
	copy(out, s.stub.Output)
	if s.stub.Fill != nil {
		s.stub.Fill(out, s.stub.Runs)
	}
	return nil
}

func (s *session) Close() error {
	if !s.closed {
		s.stub.Closed++
	}
	s.closed = true
	return nil
}

// values copies the contents of a bound tensor as float64s
func values(b engine.Binding) []float64 {
	switch data := b.Tensor.Data().(type) {
	case []float64:
		return append([]float64(nil), data...)
	case []uint8:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out
	}
	return nil
}

// Binding returns a binding of the named buffer, for tests that open
// sessions directly
func Binding(name string, b *buffer.Buffer) engine.Binding {
	return engine.Binding{Name: name, Tensor: b.Tensor()}
}
