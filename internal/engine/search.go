package engine

import (
	"math"

	"github.com/hailam/selfchess/internal/board"
)

// Evaluator scores a position on the search scale: values near 1 favour
// Black, values near 0 favour White.
type Evaluator interface {
	Evaluate(pos *board.Position) float64
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(pos *board.Position) float64

// Evaluate calls f(pos).
func (f EvaluatorFunc) Evaluate(pos *board.Position) float64 {
	return f(pos)
}

// Scores holds the values search assigns to finished games.
// White minimizes and Black maximizes, so a mated White king scores +Mate.
type Scores struct {
	Mate float64
	Draw float64
}

// DefaultScores returns a mate magnitude well outside the evaluator's [0, 1]
// range and a draw at the neutral midpoint.
func DefaultScores() Scores {
	return Scores{Mate: 1000, Draw: 0.5}
}

// Searcher performs a depth-limited alpha-beta search over legal moves,
// calling an Evaluator at the leaves.
type Searcher struct {
	eval   Evaluator
	scores Scores
	nodes  uint64
}

// NewSearcher creates a new searcher.
func NewSearcher(eval Evaluator, scores Scores) *Searcher {
	return &Searcher{eval: eval, scores: scores}
}

// Reset resets the node counter for a new search.
func (s *Searcher) Reset() {
	s.nodes = 0
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search performs the search at the given depth with a full window.
func (s *Searcher) Search(tc *TranspositionCache, pos *board.Position, depth int) (board.Move, float64) {
	return s.SearchWithBounds(tc, pos, depth, math.Inf(-1), math.Inf(1))
}

// SearchWithBounds searches pos with the given alpha/beta window. A cached
// root entry without a move is ignored while the position still has legal
// moves, so the caller always gets a move to play when one exists.
func (s *Searcher) SearchWithBounds(tc *TranspositionCache, pos *board.Position, depth int, alpha, beta float64) (board.Move, float64) {
	if entry, ok := tc.Probe(pos.Hash()); ok && !entry.Move.IsNull() {
		s.nodes++
		return entry.Move, entry.Value
	}
	return s.expand(tc, pos, depth, alpha, beta)
}

// search returns the cached result for pos if there is one, otherwise it
// searches the node and caches the outcome.
func (s *Searcher) search(tc *TranspositionCache, pos *board.Position, depth int, alpha, beta float64) (board.Move, float64) {
	if entry, ok := tc.Probe(pos.Hash()); ok {
		s.nodes++
		return entry.Move, entry.Value
	}
	return s.expand(tc, pos, depth, alpha, beta)
}

func (s *Searcher) expand(tc *TranspositionCache, pos *board.Position, depth int, alpha, beta float64) (board.Move, float64) {
	s.nodes++
	hash := pos.Hash()

	moves, children := pos.LegalMovesWithPositions()
	if len(moves) == 0 {
		value := s.terminalValue(pos)
		tc.Store(hash, board.NoMove, value)
		return board.NoMove, value
	}

	if depth <= 0 {
		value := s.eval.Evaluate(pos)
		tc.Store(hash, board.NoMove, value)
		return board.NoMove, value
	}

	maximizing := pos.SideToMove == board.Black
	bestMove := board.NoMove
	bestValue := math.Inf(1)
	if maximizing {
		bestValue = math.Inf(-1)
	}

	for i, child := range children {
		_, value := s.search(tc, child, depth-1, alpha, beta)

		if maximizing {
			// Strict comparison: the first move reaching the best value keeps it.
			if value > bestValue {
				bestMove, bestValue = moves[i], value
			}
			alpha = math.Max(alpha, bestValue)
		} else {
			if value < bestValue {
				bestMove, bestValue = moves[i], value
			}
			beta = math.Min(beta, bestValue)
		}

		if alpha >= beta {
			break
		}
	}

	// NaN from a diverged evaluator never compares better.
	if bestMove.IsNull() {
		bestMove = moves[0]
	}

	tc.Store(hash, bestMove, bestValue)
	return bestMove, bestValue
}

// terminalValue scores a position with no legal moves. The side to move is
// either mated or stalemated.
func (s *Searcher) terminalValue(pos *board.Position) float64 {
	if pos.TerminalStatus() == board.Stalemate {
		return s.scores.Draw
	}
	if pos.SideToMove == board.White {
		return s.scores.Mate
	}
	return -s.scores.Mate
}
