package engine_test

import (
	"path/filepath"
	"testing"

	"github.com/idsia-robotics/navground-onnx/buffer"
	"github.com/idsia-robotics/navground-onnx/engine"
	"github.com/idsia-robotics/navground-onnx/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityModel returns a model whose action equals its concatenated
// inputs "direction" (width 2)
func identityModel() *engine.Model {
	return &engine.Model{
		Inputs: []network.Input{{Name: "direction", Width: 2}},
		Output: engine.DefaultOutput,
		Layers: []network.Layer{{
			Inputs:     2,
			Outputs:    2,
			Weights:    []float64{1, 0, 0, 1},
			Activation: network.Identity(),
		}},
	}
}

func save(t *testing.T, m *engine.Model) string {
	path := filepath.Join(t.TempDir(), "policy.gob")
	require.NoError(t, m.Save(path))
	return path
}

func TestModelRoundTrip(t *testing.T) {
	path := save(t, identityModel())
	m, err := engine.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Outputs())
	assert.Equal(t, "identity", m.Layers[0].Activation.String())

	_, err = engine.Load(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}

func TestModelValidate(t *testing.T) {
	m := identityModel()
	m.Inputs[0].Width = 3
	assert.Error(t, m.Validate())
	assert.Error(t, m.Save(filepath.Join(t.TempDir(), "bad.gob")))

	assert.Error(t, (&engine.Model{}).Validate())
}

func TestGorgoniaRun(t *testing.T) {
	path := save(t, identityModel())

	in, err := buffer.New(buffer.Float64, 2, 2)
	require.NoError(t, err)
	out, err := buffer.New(buffer.Float64, 2, 2)
	require.NoError(t, err)

	e := engine.NewGorgonia()
	s, err := e.Open(path,
		[]engine.Binding{{Name: "direction", Tensor: in.Tensor()}},
		[]engine.Binding{{Name: "action", Tensor: out.Tensor()}})
	require.NoError(t, err)
	defer s.Close()

	for run, values := range [][]float64{{0.5, -0.25, 1, 0}, {0, 1, -1, 0.5}} {
		for i, v := range values {
			require.NoError(t, in.SetFloat(i/2, i%2, v))
		}
		require.NoError(t, s.Run())
		assert.InDeltaSlice(t, values, out.Float64s(), 1e-9, "run %v", run)
	}
}

func TestGorgoniaUint8Input(t *testing.T) {
	m := &engine.Model{
		Inputs: []network.Input{
			{Name: "speed", Width: 1},
			{Name: "valid", Width: 1},
		},
		Output: engine.DefaultOutput,
		Layers: []network.Layer{{
			Inputs:  2,
			Outputs: 2,
			Weights: []float64{2, 0, 0, 3},
		}},
	}
	path := save(t, m)

	speed, err := buffer.FromFloats([]float64{0.5}, 1, 1)
	require.NoError(t, err)
	valid, err := buffer.New(buffer.Uint8, 1, 1)
	require.NoError(t, err)
	require.NoError(t, valid.SetByte(0, 0, 1))
	out, err := buffer.New(buffer.Float64, 1, 2)
	require.NoError(t, err)

	s, err := engine.NewGorgonia(engine.Verbose()).Open(path,
		[]engine.Binding{
			{Name: "valid", Tensor: valid.Tensor()},
			{Name: "speed", Tensor: speed.Tensor()},
		},
		[]engine.Binding{{Name: "action", Tensor: out.Tensor()}})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Run())
	assert.InDeltaSlice(t, []float64{1, 3}, out.Float64s(), 1e-9)
}

func TestGorgoniaOpenErrors(t *testing.T) {
	path := save(t, identityModel())
	e := engine.NewGorgonia()

	in, _ := buffer.New(buffer.Float64, 1, 2)
	wide, _ := buffer.New(buffer.Float64, 1, 3)
	out, _ := buffer.New(buffer.Float64, 1, 2)
	outs := []engine.Binding{{Name: "action", Tensor: out.Tensor()}}

	cases := map[string]struct {
		path    string
		inputs  []engine.Binding
		outputs []engine.Binding
	}{
		"missing file": {
			filepath.Join(t.TempDir(), "none.gob"),
			[]engine.Binding{{Name: "direction", Tensor: in.Tensor()}},
			outs,
		},
		"unbound input": {path, nil, outs},
		"unknown input": {
			path,
			[]engine.Binding{
				{Name: "direction", Tensor: in.Tensor()},
				{Name: "extra", Tensor: in.Tensor()},
			},
			outs,
		},
		"wrong width": {
			path,
			[]engine.Binding{{Name: "direction", Tensor: wide.Tensor()}},
			outs,
		},
		"wrong output": {
			path,
			[]engine.Binding{{Name: "direction", Tensor: in.Tensor()}},
			[]engine.Binding{{Name: "command", Tensor: out.Tensor()}},
		},
	}
	for name, c := range cases {
		_, err := e.Open(c.path, c.inputs, c.outputs)
		assert.Error(t, err, name)
	}
}

func TestQuietlyReturnsError(t *testing.T) {
	called := false
	err := engine.Quietly(func() error {
		called = true
		return assert.AnError
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, assert.AnError)
}
