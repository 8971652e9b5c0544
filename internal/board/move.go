package board

import "github.com/pkg/errors"

// Move describes one ply. Castling moves carry the king's start and end
// squares; the matching rook relocation is implied by the flag.
type Move struct {
	From Square
	To   Square

	ShortCastle bool
	LongCastle  bool
	DoublePush  bool
	EnPassant   bool

	// Promotion is NoPieceType, Knight or Queen.
	Promotion PieceType
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare}

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move{From: from, To: to}
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move{From: from, To: to, Promotion: promo}
}

// NewDoublePush creates a two-square pawn advance.
func NewDoublePush(from, to Square) Move {
	return Move{From: from, To: to, DoublePush: true}
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return Move{From: from, To: to, EnPassant: true}
}

// NewShortCastle creates the king-side castle for color c.
func NewShortCastle(c Color) Move {
	r := backRank(c)
	return Move{From: NewSquare(4, r), To: NewSquare(6, r), ShortCastle: true}
}

// NewLongCastle creates the queen-side castle for color c.
func NewLongCastle(c Color) Move {
	r := backRank(c)
	return Move{From: NewSquare(4, r), To: NewSquare(2, r), LongCastle: true}
}

// IsNull reports whether m is NoMove.
func (m Move) IsNull() bool {
	return m.From == NoSquare
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.ShortCastle || m.LongCastle
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture(pos *Position) bool {
	return m.EnPassant || pos.Squares[m.To] != NoPiece
}

// String returns the coordinate format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}

	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// ParseMove parses a coordinate format move string against pos, filling in
// the castle, double push and en passant flags from the board.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, errors.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		switch s[4] {
		case 'n':
			return NewPromotion(from, to, Knight), nil
		case 'q':
			return NewPromotion(from, to, Queen), nil
		default:
			return NoMove, errors.Errorf("invalid promotion piece: %c", s[4])
		}
	}

	piece := pos.Squares[from]
	if piece == NoPiece {
		return NoMove, errors.Errorf("no piece at %s", from)
	}

	switch piece.Type() {
	case King:
		if from.File() == 4 && to.Rank() == from.Rank() {
			switch to.File() {
			case 6:
				return Move{From: from, To: to, ShortCastle: true}, nil
			case 2:
				return Move{From: from, To: to, LongCastle: true}, nil
			}
		}
	case Pawn:
		if abs(to.Rank()-from.Rank()) == 2 {
			return NewDoublePush(from, to), nil
		}
		if to.File() != from.File() && pos.Squares[to] == NoPiece {
			return NewEnPassant(from, to), nil
		}
	}

	return NewMove(from, to), nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
