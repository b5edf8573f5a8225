// Package engine defines the boundary between policies and the
// inference engine that runs trained models, and implements an engine
// backed by Gorgonia.
//
// Tensors are bound once, when a session is opened: the session reads
// its inputs from, and writes its outputs into, the storage of the bound
// tensors on every Run.
package engine

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Binding binds a named model input or output to a tensor whose leading
// dimension is the batch size.
type Binding struct {
	Name   string
	Tensor *tensor.Dense
}

// String implements the Stringer interface
func (b Binding) String() string {
	return fmt.Sprintf("%v%v", b.Name, b.Tensor.Shape())
}

// Engine opens inference sessions on model files
type Engine interface {
	// Open loads the model at path and binds its inputs and outputs.
	// Opening a session is a one-shot operation: a failed Open must be
	// retried with a new call.
	Open(path string, inputs, outputs []Binding) (Session, error)
}

// Session is an inference session bound to fixed input and output
// tensors
type Session interface {
	// Run runs the model synchronously on the current contents of the
	// input tensors and overwrites the output tensors
	Run() error

	// Close releases the session's resources
	Close() error
}
