package network

import (
	"fmt"
	"sort"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Weight initialization algorithms available by name, used to create
// untrained networks.
var initWFns = map[string]func() G.InitWFn{
	"GlorotU": func() G.InitWFn { return G.GlorotU(1.0) },
	"GlorotN": func() G.InitWFn { return G.GlorotN(1.0) },
	"HeU":     func() G.InitWFn { return G.HeU(1.0) },
	"HeN":     func() G.InitWFn { return G.HeN(1.0) },
	"Zeroes":  G.Zeroes,
	"Ones":    G.Ones,
}

// InitWFns returns the names of the available initialization algorithms
func InitWFns() []string {
	names := make([]string, 0, len(initWFns))
	for name := range initWFns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewLayers returns untrained layers mapping features inputs to outputs
// through the given hidden layer sizes. Hidden layers use the hidden
// activation and the last layer uses the out activation. Weights are
// initialized with the named algorithm and biases with zeros.
func NewLayers(features int, hiddenSizes []int, outputs int, init string,
	hidden, out *Activation) ([]Layer, error) {
	newInit, ok := initWFns[init]
	if !ok {
		return nil, fmt.Errorf("newlayers: unknown initialization %q", init)
	}
	initWFn := newInit()

	sizes := append(append([]int(nil), hiddenSizes...), outputs)
	layers := make([]Layer, 0, len(sizes))
	in := features
	for i, size := range sizes {
		if size < 1 {
			return nil, fmt.Errorf("newlayers: layer %v has invalid size %v",
				i, size)
		}
		weights, ok := initWFn(tensor.Float64, in, size).([]float64)
		if !ok {
			return nil, fmt.Errorf("newlayers: initialization %q did not "+
				"produce float64 weights", init)
		}
		act := hidden
		if i == len(sizes)-1 {
			act = out
		}
		layers = append(layers, Layer{
			Inputs:     in,
			Outputs:    size,
			Weights:    weights,
			Bias:       make([]float64, size),
			Activation: act,
		})
		in = size
	}
	return layers, nil
}
