package nnue

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Activation selects a layer's transfer function.
type Activation uint8

const (
	Sigmoid Activation = iota
	ReLU
	LeakyReLU
	Tanh
	numActivations
)

// LeakySlope is the gradient of LeakyReLU for negative inputs.
const LeakySlope = 0.01

// activationFuncs pairs each function with its derivative. Derivatives take
// the function's output, not its input, since that is what the forward pass
// leaves behind in each layer.
var activationFuncs = [numActivations]struct {
	name  string
	apply func(x float64) float64
	deriv func(y float64) float64
}{
	Sigmoid: {
		name:  "sigmoid",
		apply: func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
		deriv: func(y float64) float64 { return y * (1 - y) },
	},
	ReLU: {
		name: "relu",
		apply: func(x float64) float64 {
			if x < 0 {
				return 0
			}
			return x
		},
		deriv: func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return 0
		},
	},
	LeakyReLU: {
		name: "leaky-relu",
		apply: func(x float64) float64 {
			if x < 0 {
				return LeakySlope * x
			}
			return x
		},
		deriv: func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return LeakySlope
		},
	},
	Tanh: {
		name:  "tanh",
		apply: math.Tanh,
		deriv: func(y float64) float64 { return 1 - y*y },
	},
}

// Apply evaluates the activation at x.
func (a Activation) Apply(x float64) float64 {
	return activationFuncs[a].apply(x)
}

// Derivative evaluates the activation's derivative given its output y.
func (a Activation) Derivative(y float64) float64 {
	return activationFuncs[a].deriv(y)
}

// IsValid reports whether a names a known activation.
func (a Activation) IsValid() bool {
	return a < numActivations
}

func (a Activation) String() string {
	if !a.IsValid() {
		return "unknown"
	}
	return activationFuncs[a].name
}

// ParseActivation maps a name such as "tanh" back to its Activation.
func ParseActivation(s string) (Activation, error) {
	for a := Activation(0); a < numActivations; a++ {
		if strings.EqualFold(s, activationFuncs[a].name) {
			return a, nil
		}
	}
	return 0, errors.Errorf("unknown activation %q", s)
}
