package board

import "github.com/pkg/errors"

// ErrIllegalMove is returned when a caller asks to play a move that is not in
// the legal move set of the position.
var ErrIllegalMove = errors.New("illegal move")

// Status describes whether the side to move can still play.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// FilterLegal drops every move that leaves the mover's king attacked. The
// surviving moves are returned together with the positions they lead to,
// index for index.
func (p *Position) FilterLegal(moves []Move) ([]Move, []*Position) {
	us := p.SideToMove
	legal := make([]Move, 0, len(moves))
	children := make([]*Position, 0, len(moves))

	for _, m := range moves {
		child := p.Copy()
		child.ApplyMove(m)
		// The king may have been the piece that moved.
		if child.IsSquareThreatened(us.Other(), child.KingSquare(us)) {
			continue
		}
		legal = append(legal, m)
		children = append(children, child)
	}

	return legal, children
}

// GenerateLegalMoves returns all legal moves for the side to move.
func (p *Position) GenerateLegalMoves() []Move {
	legal, _ := p.FilterLegal(p.GeneratePseudoLegalMoves())
	return legal
}

// LegalMovesWithPositions returns the legal moves and the position each one
// produces.
func (p *Position) LegalMovesWithPositions() ([]Move, []*Position) {
	return p.FilterLegal(p.GeneratePseudoLegalMoves())
}

// Status reports checkmate or stalemate when the side to move has no legal
// move, Ongoing otherwise.
func (p *Position) Status() Status {
	if len(p.GenerateLegalMoves()) > 0 {
		return Ongoing
	}
	return p.TerminalStatus()
}

// TerminalStatus classifies a position already known to have no legal move
// without regenerating them.
func (p *Position) TerminalStatus() Status {
	if p.InCheck() {
		return Checkmate
	}
	return Stalemate
}

// IsCheckmate returns true if the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.Status() == Checkmate
}

// IsStalemate returns true if the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return p.Status() == Stalemate
}

// ApplyLegalMove plays m only if it matches one of the legal moves of the
// position. Flags missing from m (castle, double push, en passant) are taken
// from the matching generated move. The position is left untouched on error.
func (p *Position) ApplyLegalMove(m Move) error {
	for _, legal := range p.GenerateLegalMoves() {
		if legal.From == m.From && legal.To == m.To && legal.Promotion == m.Promotion {
			p.ApplyMove(legal)
			return nil
		}
	}
	return errors.Wrapf(ErrIllegalMove, "%s", m)
}
