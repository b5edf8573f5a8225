package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer describes a trained fully connected layer. Weights are stored
// row major with shape (Inputs, Outputs); Bias is either empty or has
// length Outputs.
type Layer struct {
	Inputs     int
	Outputs    int
	Weights    []float64
	Bias       []float64
	Activation *Activation
}

// Validate checks that the layer's parameters match its shape
func (l Layer) Validate() error {
	if l.Inputs < 1 || l.Outputs < 1 {
		return fmt.Errorf("validate: invalid layer shape (%v, %v)", l.Inputs,
			l.Outputs)
	}
	if len(l.Weights) != l.Inputs*l.Outputs {
		return fmt.Errorf("validate: invalid number of weights\n\twant(%v)"+
			"\n\thave(%v)", l.Inputs*l.Outputs, len(l.Weights))
	}
	if len(l.Bias) != 0 && len(l.Bias) != l.Outputs {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", l.Outputs, len(l.Bias))
	}
	return nil
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds the parameters of l to the graph g
func newFCLayer(g *G.ExprGraph, l Layer, index int) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(l.Inputs, l.Outputs),
		G.WithName(fmt.Sprintf("W%v", index)),
		G.WithValue(tensor.New(
			tensor.WithShape(l.Inputs, l.Outputs),
			tensor.WithBacking(append([]float64(nil), l.Weights...)),
		)),
	)

	var bias *G.Node
	if len(l.Bias) > 0 {
		bias = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, l.Outputs),
			G.WithName(fmt.Sprintf("b%v", index)),
			G.WithValue(tensor.New(
				tensor.WithShape(1, l.Outputs),
				tensor.WithBacking(append([]float64(nil), l.Bias...)),
			)),
		)
	}

	return &fcLayer{weights: weights, bias: bias, act: l.Activation}
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		if x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0}); err != nil {
			return nil, err
		}
	}
	if f.act.IsIdentity() {
		return x, nil
	}
	return f.act.fwd(x)
}
