package train

import "github.com/hailam/selfchess/internal/board"

// Outcome is the result of a finished game.
type Outcome uint8

const (
	Draw Outcome = iota
	WhiteWin
	BlackWin
)

func (o Outcome) String() string {
	switch o {
	case WhiteWin:
		return "1-0"
	case BlackWin:
		return "0-1"
	default:
		return "1/2-1/2"
	}
}

// Reason records why a game ended.
type Reason uint8

const (
	Checkmate Reason = iota
	Stalemate
	Repetition
	MoveCap
)

func (r Reason) String() string {
	switch r {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Repetition:
		return "threefold repetition"
	case MoveCap:
		return "move cap"
	default:
		return "unknown"
	}
}

// Ply is one played move and the position it was played from.
type Ply struct {
	Position *board.Position
	Move     board.Move
}

// History is the sequence of plies of one game in the order they were
// played.
type History struct {
	plies []Ply
}

// Push records a played move. pos must not be mutated afterwards.
func (h *History) Push(pos *board.Position, m board.Move) {
	h.plies = append(h.plies, Ply{Position: pos, Move: m})
}

// Len returns the number of recorded plies.
func (h *History) Len() int {
	return len(h.plies)
}

// Plies returns the recorded plies, oldest first.
func (h *History) Plies() []Ply {
	return h.plies
}

// Moves returns the played moves in coordinate notation.
func (h *History) Moves() []string {
	out := make([]string, len(h.plies))
	for i, p := range h.plies {
		out[i] = p.Move.String()
	}
	return out
}

// SAN returns the played moves in standard algebraic notation.
func (h *History) SAN() []string {
	out := make([]string, len(h.plies))
	for i, p := range h.plies {
		out[i] = p.Move.ToSAN(p.Position)
	}
	return out
}
