package board

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// NoFile marks the absence of an en passant target file.
const NoFile int8 = -1

// InvariantViolation is the panic value raised when the board reaches a state
// legal move generation can never produce, such as a missing king.
type InvariantViolation struct {
	Reason string
}

func (v InvariantViolation) Error() string {
	return "board invariant violated: " + v.Reason
}

// Position represents a complete chess position as an 8x8 array of piece
// codes plus the side to move, castling history and en passant file.
type Position struct {
	Squares [64]Piece

	SideToMove Color

	// Castling history per color. A right is lost as soon as the king or
	// the matching rook leaves its home square.
	KingMoved      [2]bool
	KingRookMoved  [2]bool
	QueenRookMoved [2]bool

	// EnPassantFile is the file of a pawn that just advanced two squares,
	// NoFile otherwise.
	EnPassantFile int8
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	p := &Position{EnPassantFile: NoFile}
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file := 0; file < 8; file++ {
		p.Squares[NewSquare(file, 0)] = NewPiece(back[file], White)
		p.Squares[NewSquare(file, 1)] = WhitePawn
		p.Squares[NewSquare(file, 6)] = BlackPawn
		p.Squares[NewSquare(file, 7)] = NewPiece(back[file], Black)
	}
	return p
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Squares[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Squares[sq] == NoPiece
}

// CanCastle reports whether c still holds the structural right to castle
// in the given direction.
func (p *Position) CanCastle(c Color, kingSide bool) bool {
	if p.KingMoved[c] {
		return false
	}
	if kingSide {
		return !p.KingRookMoved[c]
	}
	return !p.QueenRookMoved[c]
}

// KingSquare locates the king of color c. A missing king is an invariant
// violation and panics.
func (p *Position) KingSquare(c Color) Square {
	king := NewPiece(King, c)
	for sq := A1; sq <= H8; sq++ {
		if p.Squares[sq] == king {
			return sq
		}
	}
	panic(InvariantViolation{Reason: fmt.Sprintf("%s king not found", c)})
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	us := p.SideToMove
	return p.IsSquareThreatened(us.Other(), p.KingSquare(us))
}

// ApplyMove plays m on the board. No legality checking is done: castling
// also relocates the rook, promotion replaces the pawn, en passant removes
// the bypassed pawn, and the castling flags record any king or rook leaving
// (or being captured on) its home square.
func (p *Position) ApplyMove(m Move) {
	us := p.SideToMove
	piece := p.Squares[m.From]

	p.EnPassantFile = NoFile

	switch {
	case m.ShortCastle, m.LongCastle:
		rank := backRank(us)
		rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
		if m.LongCastle {
			rookFrom, rookTo = NewSquare(0, rank), NewSquare(3, rank)
		}
		p.Squares[rookTo] = p.Squares[rookFrom]
		p.Squares[rookFrom] = NoPiece
	case m.EnPassant:
		p.Squares[NewSquare(m.To.File(), m.From.Rank())] = NoPiece
	case m.DoublePush:
		p.EnPassantFile = int8(m.From.File())
	}

	p.updateCastlingFlags(m.From, m.To)

	p.Squares[m.To] = piece
	p.Squares[m.From] = NoPiece
	if m.IsPromotion() {
		p.Squares[m.To] = NewPiece(m.Promotion, us)
	}

	p.SideToMove = us.Other()
}

// updateCastlingFlags marks kings and rooks that leave their home squares,
// and rooks captured on them.
func (p *Position) updateCastlingFlags(from, to Square) {
	for _, sq := range [2]Square{from, to} {
		switch sq {
		case E1:
			if sq == from {
				p.KingMoved[White] = true
			}
		case E8:
			if sq == from {
				p.KingMoved[Black] = true
			}
		case A1:
			p.QueenRookMoved[White] = true
		case H1:
			p.KingRookMoved[White] = true
		case A8:
			p.QueenRookMoved[Black] = true
		case H8:
			p.KingRookMoved[Black] = true
		}
	}
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.Squares[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.castlingString())
	fmt.Fprintf(&sb, "En passant: %s\n", p.enPassantString())
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash())
	return sb.String()
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{EnPassantFile: NoFile}
}

// Validate checks that each side has exactly one king and no pawn stands on
// a back rank.
func (p *Position) Validate() error {
	var kings [2]int
	for sq := A1; sq <= H8; sq++ {
		piece := p.Squares[sq]
		switch piece.Type() {
		case King:
			kings[piece.Color()]++
		case Pawn:
			if sq.Rank() == 0 || sq.Rank() == 7 {
				return errors.Errorf("pawn on back rank at %s", sq)
			}
		}
	}
	if kings[White] != 1 {
		return errors.New("white must have exactly one king")
	}
	if kings[Black] != 1 {
		return errors.New("black must have exactly one king")
	}
	return nil
}
