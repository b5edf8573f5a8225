package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
	tanh     activationType = "tanh"
	sigmoid  activationType = "sigmoid"
)

var activations = map[activationType]func(x *G.Node) (*G.Node, error){
	relu:     G.Rectify,
	tanh:     G.Tanh,
	sigmoid:  G.Sigmoid,
	identity: func(x *G.Node) (*G.Node, error) { return x, nil },
}

// Activation is the element-wise activation function applied to the
// output of a layer. Activations are serialized by name.
type Activation struct {
	activationType
}

// Identity returns an identity *Activation
func Identity() *Activation { return &Activation{identity} }

// ReLU returns a ReLU *Activation
func ReLU() *Activation { return &Activation{relu} }

// TanH returns a tanh *Activation
func TanH() *Activation { return &Activation{tanh} }

// Sigmoid returns a sigmoid *Activation
func Sigmoid() *Activation { return &Activation{sigmoid} }

// ParseActivation returns the activation with the given name
func ParseActivation(name string) (*Activation, error) {
	a := activationType(name)
	if _, ok := activations[a]; !ok {
		return nil, fmt.Errorf("parseactivation: illegal activation %q", name)
	}
	return &Activation{a}, nil
}

// fwd adds the activation to the graph. A nil activation is the
// identity.
func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	if a == nil || a.activationType == "" {
		return x, nil
	}
	f, ok := activations[a.activationType]
	if !ok {
		return nil, fmt.Errorf("fwd: illegal activation %q", a.activationType)
	}
	return f(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	if a == nil || a.activationType == "" {
		return string(identity)
	}
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.String() == string(identity)
}

// GobEncode implements the GobEncoder interface
func (a *Activation) GobEncode() ([]byte, error) {
	return []byte(a.String()), nil
}

// GobDecode implements the GobDecoder interface
func (a *Activation) GobDecode(encoded []byte) error {
	decoded, err := ParseActivation(string(encoded))
	if err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}
	*a = *decoded
	return nil
}

// MarshalText implements the encoding.TextMarshaler interface
func (a *Activation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (a *Activation) UnmarshalText(text []byte) error {
	return a.GobDecode(text)
}
