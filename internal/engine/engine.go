package engine

import (
	"strconv"
	"time"

	"github.com/hailam/selfchess/internal/board"
)

// SearchInfo contains information about the last search.
type SearchInfo struct {
	Depth     int
	Move      board.Move
	Value     float64
	Nodes     uint64
	Time      time.Duration
	CacheSize int
	HitRate   float64
}

// Engine bundles a Searcher with its own per-game transposition cache.
type Engine struct {
	searcher *Searcher
	tc       *TranspositionCache
	depth    int

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine that searches to depth plies with eval at the
// leaves.
func NewEngine(eval Evaluator, scores Scores, depth int) *Engine {
	return &Engine{
		searcher: NewSearcher(eval, scores),
		tc:       NewTranspositionCache(),
		depth:    depth,
	}
}

// Cache returns the engine's transposition cache.
func (e *Engine) Cache() *TranspositionCache {
	return e.tc
}

// Search finds the best move for the given position at the configured depth.
func (e *Engine) Search(pos *board.Position) board.Move {
	m, _ := e.SearchDepth(pos, e.depth)
	return m
}

// SearchDepth finds the best move and its value at an explicit depth.
func (e *Engine) SearchDepth(pos *board.Position, depth int) (board.Move, float64) {
	e.searcher.Reset()
	start := time.Now()

	m, v := e.searcher.Search(e.tc, pos, depth)

	if e.OnInfo != nil {
		e.OnInfo(SearchInfo{
			Depth:     depth,
			Move:      m,
			Value:     v,
			Nodes:     e.searcher.Nodes(),
			Time:      time.Since(start),
			CacheSize: e.tc.Len(),
			HitRate:   e.tc.HitRate(),
		})
	}
	return m, v
}

// Clear clears the transposition cache and repetition counts.
func (e *Engine) Clear() {
	e.tc.Clear()
}

// NewGame prepares the engine for a new game. Cached values and repetition
// counts never carry over from one game to the next.
func (e *Engine) NewGame() {
	e.Clear()
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves, children := pos.LegalMovesWithPositions()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, child := range children {
		nodes += e.Perft(child, depth-1)
	}

	return nodes
}

// Evaluate returns the leaf evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) float64 {
	return e.searcher.eval.Evaluate(pos)
}

// ScoreToString converts a search value to a human-readable string.
func ScoreToString(value float64, scores Scores) string {
	switch {
	case value >= scores.Mate:
		return "Black mates"
	case value <= -scores.Mate:
		return "White mates"
	}
	return strconv.FormatFloat(value, 'f', 4, 64)
}
