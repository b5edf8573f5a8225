package engine

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/idsia-robotics/navground-onnx/network"
)

// DefaultOutput is the name of the output of policy models
const DefaultOutput = "action"

// Model is a trained feed forward policy as stored in a model file.
// Inputs are concatenated in order before the first layer.
type Model struct {
	Inputs []network.Input
	Output string
	Layers []network.Layer
}

// Validate checks that the model's layers are consistent with its inputs
func (m *Model) Validate() error {
	if len(m.Inputs) == 0 {
		return fmt.Errorf("validate: model has no inputs")
	}
	if m.Output == "" {
		return fmt.Errorf("validate: model has no output name")
	}
	if len(m.Layers) == 0 {
		return fmt.Errorf("validate: model has no layers")
	}
	features := 0
	for _, in := range m.Inputs {
		features += in.Width
	}
	for i, l := range m.Layers {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("validate: layer %v: %v", i, err)
		}
		if l.Inputs != features {
			return fmt.Errorf("validate: layer %v: invalid number of inputs"+
				"\n\twant(%v)\n\thave(%v)", i, features, l.Inputs)
		}
		features = l.Outputs
	}
	return nil
}

// Outputs returns the number of outputs per sample
func (m *Model) Outputs() int {
	if len(m.Layers) == 0 {
		return 0
	}
	return m.Layers[len(m.Layers)-1].Outputs
}

// Save writes the model to path
func (m *Model) Save(path string) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create model file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(m); err != nil {
		return fmt.Errorf("save: could not encode model: %v", err)
	}
	return file.Close()
}

// Load reads and validates the model stored at path
func Load(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open model file: %v", err)
	}
	defer file.Close()

	var m Model
	if err := gob.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("load: could not decode model %v: %v", path,
			err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	return &m, nil
}
