package nnue

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"lukechampine.com/frand"
)

// Settings describes the shape and training hyperparameters of a Network.
type Settings struct {
	InputWidth   int
	HiddenWidth  int
	OutputWidth  int
	HiddenLayers int

	HiddenActivation Activation
	OutputActivation Activation

	LearningRate float64
	// Momentum in [0, 1). Zero disables momentum and its buffers.
	Momentum float64

	// Seed for weight initialisation. Zero draws a fresh seed.
	Seed uint64
}

// DefaultSettings returns the standard trainer network: the board encoding
// feeding three tanh layers of 900 units and a single sigmoid output.
func DefaultSettings() Settings {
	return Settings{
		InputWidth:       InputSize,
		HiddenWidth:      900,
		OutputWidth:      1,
		HiddenLayers:     3,
		HiddenActivation: Tanh,
		OutputActivation: Sigmoid,
		LearningRate:     0.1,
		Momentum:         0,
	}
}

// Validate checks the settings describe a network that can be built.
func (s Settings) Validate() error {
	switch {
	case s.InputWidth <= 0:
		return errors.Errorf("input width must be positive, got %d", s.InputWidth)
	case s.HiddenWidth <= 0:
		return errors.Errorf("hidden width must be positive, got %d", s.HiddenWidth)
	case s.OutputWidth != 1:
		return errors.Errorf("output width must be 1, got %d", s.OutputWidth)
	case s.HiddenLayers < 1:
		return errors.Errorf("need at least one hidden layer, got %d", s.HiddenLayers)
	case !s.HiddenActivation.IsValid() || !s.OutputActivation.IsValid():
		return errors.New("unknown activation")
	case s.LearningRate <= 0 || math.IsNaN(s.LearningRate):
		return errors.Errorf("learning rate must be positive, got %v", s.LearningRate)
	case s.Momentum < 0 || s.Momentum >= 1 || math.IsNaN(s.Momentum):
		return errors.Errorf("momentum must be in [0, 1), got %v", s.Momentum)
	}
	return nil
}

// Layer is one stage of the network. Weights are row-major: row i holds the
// incoming weights of unit i, one per unit of the previous layer.
type Layer struct {
	Width      int
	Activation Activation

	Weights []float64
	Bias    []float64
	Output  []float64
	Error   []float64

	// Accumulated gradients since the last Update.
	DeltaWeights []float64
	DeltaBias    []float64

	// Previous update steps; nil when momentum is off.
	MomentumWeights []float64
	MomentumBias    []float64
}

// Network is a dense feed-forward network: an input layer, one or more
// hidden layers and a single-unit output layer. It is not safe for
// concurrent use; give each goroutine its own Clone.
type Network struct {
	settings Settings
	layers   []Layer
}

// New builds a network with randomly initialised weights.
func New(s Settings) (*Network, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid network settings")
	}

	widths := make([]int, 0, s.HiddenLayers+2)
	widths = append(widths, s.InputWidth)
	for i := 0; i < s.HiddenLayers; i++ {
		widths = append(widths, s.HiddenWidth)
	}
	widths = append(widths, s.OutputWidth)

	n := &Network{settings: s, layers: make([]Layer, len(widths))}
	n.layers[0] = Layer{Width: s.InputWidth, Output: make([]float64, s.InputWidth)}
	for i := 1; i < len(widths); i++ {
		act := s.HiddenActivation
		if i == len(widths)-1 {
			act = s.OutputActivation
		}
		n.layers[i] = newLayer(widths[i], widths[i-1], act, s.Momentum > 0)
	}

	n.initWeights(newRNG(s.Seed))
	return n, nil
}

func newLayer(width, prevWidth int, act Activation, momentum bool) Layer {
	l := Layer{
		Width:        width,
		Activation:   act,
		Weights:      make([]float64, width*prevWidth),
		Bias:         make([]float64, width),
		Output:       make([]float64, width),
		Error:        make([]float64, width),
		DeltaWeights: make([]float64, width*prevWidth),
		DeltaBias:    make([]float64, width),
	}
	if momentum {
		l.MomentumWeights = make([]float64, width*prevWidth)
		l.MomentumBias = make([]float64, width)
	}
	return l
}

func newRNG(seed uint64) *frand.RNG {
	if seed == 0 {
		return frand.New()
	}
	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, seed)
	return frand.NewCustom(key, 1024, 12)
}

// initWeights draws every weight uniformly from ±1/sqrt(fan-in). Biases
// start at zero.
func (n *Network) initWeights(rng *frand.RNG) {
	for i := 1; i < len(n.layers); i++ {
		l := &n.layers[i]
		limit := 1 / math.Sqrt(float64(n.layers[i-1].Width))
		for j := range l.Weights {
			l.Weights[j] = (2*rng.Float64() - 1) * limit
		}
	}
}

// Settings returns the settings the network was built with.
func (n *Network) Settings() Settings {
	return n.settings
}

// Layers exposes the layer chain, input layer first.
func (n *Network) Layers() []Layer {
	return n.layers
}

// Input returns the input layer's buffer. Callers write an encoding into it
// and then call Propagate.
func (n *Network) Input() []float64 {
	return n.layers[0].Output
}

// Output returns the output unit's value from the last forward pass.
func (n *Network) Output() float64 {
	return n.layers[len(n.layers)-1].Output[0]
}

// Forward copies input into the input layer and runs the forward pass.
func (n *Network) Forward(input []float64) float64 {
	copy(n.layers[0].Output, input)
	return n.Propagate()
}

// Propagate runs the forward pass over whatever the input layer holds.
func (n *Network) Propagate() float64 {
	for i := 1; i < len(n.layers); i++ {
		prev := n.layers[i-1].Output
		l := &n.layers[i]
		cols := len(prev)
		for u := 0; u < l.Width; u++ {
			row := l.Weights[u*cols : (u+1)*cols]
			sum := l.Bias[u]
			for j, x := range prev {
				if x != 0 {
					sum += row[j] * x
				}
			}
			l.Output[u] = l.Activation.Apply(sum)
		}
	}
	return n.Output()
}

// Backward accumulates the gradients for one sample whose target is label.
// The network must hold the forward pass for that sample. Weights are not
// touched until Update.
func (n *Network) Backward(label float64) {
	last := len(n.layers) - 1
	out := &n.layers[last]
	for u := range out.Output {
		y := out.Output[u]
		out.Error[u] = (y - label) * out.Activation.Derivative(y)
	}

	for i := last; i >= 1; i-- {
		l := &n.layers[i]
		prev := n.layers[i-1].Output
		cols := len(prev)

		for u := 0; u < l.Width; u++ {
			delta := l.Error[u]
			if delta == 0 {
				continue
			}
			l.DeltaBias[u] += delta
			row := l.DeltaWeights[u*cols : (u+1)*cols]
			for j, x := range prev {
				row[j] += delta * x
			}
		}

		if i == 1 {
			break
		}

		// Pass the error back through this layer's weights.
		below := &n.layers[i-1]
		for j := range below.Error {
			sum := 0.0
			for u := 0; u < l.Width; u++ {
				sum += l.Weights[u*cols+j] * l.Error[u]
			}
			below.Error[j] = sum * below.Activation.Derivative(below.Output[j])
		}
	}
}

// Update applies the gradients accumulated over batch samples and clears
// them. Each step is learningRate * gradient / batch, blended with the
// previous step when momentum is on.
func (n *Network) Update(batch int) {
	if batch <= 0 {
		return
	}
	scale := n.settings.LearningRate / float64(batch)
	m := n.settings.Momentum

	for i := 1; i < len(n.layers); i++ {
		l := &n.layers[i]
		applySteps(l.Weights, l.DeltaWeights, l.MomentumWeights, scale, m)
		applySteps(l.Bias, l.DeltaBias, l.MomentumBias, scale, m)
	}
}

func applySteps(params, grads, prev []float64, scale, momentum float64) {
	for j, g := range grads {
		step := scale * g
		if prev != nil {
			step = momentum*prev[j] + (1-momentum)*step
			prev[j] = step
		}
		params[j] -= step
		grads[j] = 0
	}
}

// Cost returns the squared-error cost of the last forward pass against label.
func (n *Network) Cost(label float64) float64 {
	d := n.Output() - label
	return 0.5 * d * d
}

// Clone returns a deep copy, including accumulated gradients and momentum.
func (n *Network) Clone() *Network {
	c := &Network{settings: n.settings, layers: make([]Layer, len(n.layers))}
	for i, l := range n.layers {
		c.layers[i] = Layer{
			Width:           l.Width,
			Activation:      l.Activation,
			Weights:         cloneFloats(l.Weights),
			Bias:            cloneFloats(l.Bias),
			Output:          cloneFloats(l.Output),
			Error:           cloneFloats(l.Error),
			DeltaWeights:    cloneFloats(l.DeltaWeights),
			DeltaBias:       cloneFloats(l.DeltaBias),
			MomentumWeights: cloneFloats(l.MomentumWeights),
			MomentumBias:    cloneFloats(l.MomentumBias),
		}
	}
	return c
}

func cloneFloats(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}
