// Package nnue implements the learned position evaluator: a dense
// feed-forward network trained by backpropagation, the board encoding it
// reads and a plain-text weight format.
package nnue

import "github.com/hailam/selfchess/internal/board"

// Evaluate encodes pos into the input layer and returns the network output.
// Values near 1 favour Black and values near 0 favour White.
func (n *Network) Evaluate(pos *board.Position) float64 {
	if n.settings.InputWidth != InputSize {
		panic(board.InvariantViolation{Reason: "network input width does not match the board encoding"})
	}
	Encode(pos, n.Input())
	return n.Propagate()
}
