// Package network builds inference graphs of trained feed forward
// neural networks with Gorgonia.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Input describes a named input of a network. Each sample of the input
// has Width features.
type Input struct {
	Name  string
	Width int
}

// MLP implements a multi-layered perceptron with one or more named
// input nodes. If multiple inputs are given, they are concatenated along
// the feature (column) dimension, in order, before the first layer.
//
// MLP simply populates a gorgonia.ExprGraph. An external VM should be
// used to run the graph after the inputs have been set:
//
//	Set the inputs:		net.SetInput(name, values)
//	Run the graph:		vm.RunAll()
//	Read the output:	net.Output()
type MLP struct {
	g          *G.ExprGraph
	names      []string
	inputs     map[string]*G.Node
	widths     map[string]int
	layers     []*fcLayer
	batchSize  int
	numOutputs int

	prediction *G.Node
	predVal    G.Value
}

// NewMLP returns a new MLP with the given batch size, inputs and
// trained layers.
func NewMLP(batch int, inputs []Input, layers []Layer) (*MLP, error) {
	if batch < 1 {
		return nil, fmt.Errorf("newmlp: batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", batch)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("newmlp: network must have at least one input")
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("newmlp: network must have at least one layer")
	}

	g := G.NewGraph()
	net := &MLP{
		g:         g,
		inputs:    make(map[string]*G.Node, len(inputs)),
		widths:    make(map[string]int, len(inputs)),
		batchSize: batch,
	}

	features := 0
	nodes := make([]*G.Node, 0, len(inputs))
	for _, in := range inputs {
		if in.Width < 1 {
			return nil, fmt.Errorf("newmlp: input %q has invalid width %v",
				in.Name, in.Width)
		}
		if _, ok := net.inputs[in.Name]; ok {
			return nil, fmt.Errorf("newmlp: duplicate input %q", in.Name)
		}
		node := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, in.Width),
			G.WithName(in.Name), G.WithInit(G.Zeroes()))
		net.names = append(net.names, in.Name)
		net.inputs[in.Name] = node
		net.widths[in.Name] = in.Width
		nodes = append(nodes, node)
		features += in.Width
	}

	// Concatenate inputs if necessary
	input := nodes[0]
	if len(nodes) > 1 {
		var err error
		if input, err = G.Concat(1, nodes...); err != nil {
			return nil, fmt.Errorf("newmlp: could not concatenate inputs: %v",
				err)
		}
	}

	for i, l := range layers {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("newmlp: layer %v: %v", i, err)
		}
		if l.Inputs != features {
			return nil, fmt.Errorf("newmlp: layer %v: invalid number of "+
				"inputs\n\twant(%v)\n\thave(%v)", i, features, l.Inputs)
		}
		net.layers = append(net.layers, newFCLayer(g, l, i))
		features = l.Outputs
	}
	net.numOutputs = features

	if _, err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}
	return net, nil
}

// fwd performs the forward pass of the MLP on the input node
func (m *MLP) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)
	return pred, nil
}

// Graph returns the computational graph of the MLP
func (m *MLP) Graph() *G.ExprGraph {
	return m.g
}

// BatchSize returns the batch size of inputs to the network
func (m *MLP) BatchSize() int {
	return m.batchSize
}

// Outputs returns the number of outputs per sample
func (m *MLP) Outputs() int {
	return m.numOutputs
}

// InputNames returns the names of the network's inputs in
// concatenation order
func (m *MLP) InputNames() []string {
	return append([]string(nil), m.names...)
}

// Width returns the number of features of the named input
func (m *MLP) Width(name string) (int, bool) {
	w, ok := m.widths[name]
	return w, ok
}

// SetInput sets the value of the named input node before running the
// forward pass. The values are laid out row major with shape
// (BatchSize(), Width(name)).
func (m *MLP) SetInput(name string, input []float64) error {
	node, ok := m.inputs[name]
	if !ok {
		return fmt.Errorf("setinput: no input %q", name)
	}
	if want := m.widths[name] * m.batchSize; len(input) != want {
		return fmt.Errorf("setinput: invalid number of inputs for %q"+
			"\n\twant(%v)\n\thave(%v)", name, want, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(node.Shape()...),
	)
	return G.Let(node, inputTensor)
}

// Output returns the output of the last run of the graph, laid out row
// major with shape (BatchSize(), Outputs()). It returns nil if the graph
// has not been run.
func (m *MLP) Output() []float64 {
	if m.predVal == nil {
		return nil
	}
	out, ok := m.predVal.Data().([]float64)
	if !ok {
		return nil
	}
	return out
}
