// Package engine implements the depth-limited alpha-beta search, its
// transposition cache and a classical baseline evaluator.
package engine

import (
	"math"

	"github.com/hailam/selfchess/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
)

// Piece values indexed by PieceType.Index(); kings carry no material.
var pieceValues = [6]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 0}

// Piece-Square Tables (PST) for positional evaluation.
// Laid out as seen from White: first row is rank 8. Mirrored for Black.

// Pawn PST - encourages central control and advancement
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// Knight PST - encourages central positioning
var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

// Bishop PST - encourages central diagonals
var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

// Rook PST - encourages 7th rank and open files
var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

// Queen PST - slight central preference
var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King PST - encourages castling
var kingPST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

// All PSTs combined for easy lookup
var psts = [6][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST, kingPST,
}

// pstIndex maps a square to its table slot for the given color.
func pstIndex(sq board.Square, c board.Color) int {
	if c == board.White {
		return int(sq) ^ 56
	}
	return int(sq)
}

// Evaluate returns the static evaluation in centipawns from White's
// perspective: material plus piece-square bonuses.
func Evaluate(pos *board.Position) int {
	score := 0
	for sq := board.A1; sq <= board.H8; sq++ {
		piece := pos.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		idx := piece.Type().Index()
		v := pieceValues[idx] + psts[idx][pstIndex(sq, piece.Color())]
		if piece.Color() == board.Black {
			v = -v
		}
		score += v
	}
	return score
}

// EvaluateMaterial returns just the material balance from White's perspective.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for sq := board.A1; sq <= board.H8; sq++ {
		piece := pos.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		if piece.Color() == board.White {
			score += pieceValues[piece.Type().Index()]
		} else {
			score -= pieceValues[piece.Type().Index()]
		}
	}
	return score
}

// MaterialEvaluator squashes the classical centipawn evaluation onto the
// search scale, where Black is the maximizing side.
type MaterialEvaluator struct {
	// Scale is the centipawn advantage that maps to roughly 0.73 or 0.27.
	Scale float64
}

// NewMaterialEvaluator returns a MaterialEvaluator with a 400 centipawn scale.
func NewMaterialEvaluator() *MaterialEvaluator {
	return &MaterialEvaluator{Scale: 400}
}

// Evaluate implements Evaluator.
func (m *MaterialEvaluator) Evaluate(pos *board.Position) float64 {
	cp := float64(-Evaluate(pos))
	return 1 / (1 + math.Exp(-cp/m.Scale))
}
