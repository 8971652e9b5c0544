package board

import "math/bits"

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType is one of the six piece kinds, stored as a single set bit so a
// piece code reads as a one-hot kind pattern.
type PieceType uint8

const (
	Pawn PieceType = 1 << iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 0
)

// Index returns the dense 0-5 index of the piece type.
func (pt PieceType) Index() int {
	return bits.TrailingZeros8(uint8(pt))
}

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	if pt == NoPieceType || pt > King {
		return ' '
	}
	return "pnbrqk"[pt.Index()]
}

// PieceCodeBits is the width of a piece code: six kind bits plus the color bit.
const PieceCodeBits = 7

const colorBit = 1 << (PieceCodeBits - 1)

// Piece combines PieceType and Color into a 7-bit code.
// Encoded as: kind bit | color<<6, with 0 meaning an empty square.
type Piece uint8

const (
	NoPiece     Piece = 0
	WhitePawn   Piece = Piece(Pawn)
	WhiteKnight Piece = Piece(Knight)
	WhiteBishop Piece = Piece(Bishop)
	WhiteRook   Piece = Piece(Rook)
	WhiteQueen  Piece = Piece(Queen)
	WhiteKing   Piece = Piece(King)
	BlackPawn   Piece = Piece(Pawn) | colorBit
	BlackKnight Piece = Piece(Knight) | colorBit
	BlackBishop Piece = Piece(Bishop) | colorBit
	BlackRook   Piece = Piece(Rook) | colorBit
	BlackQueen  Piece = Piece(Queen) | colorBit
	BlackKing   Piece = Piece(King) | colorBit
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) | Piece(c)<<(PieceCodeBits-1)
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	return PieceType(p &^ colorBit)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p == NoPiece {
		return NoColor
	}
	return Color(p >> (PieceCodeBits - 1))
}

// Index returns a dense 0-11 index (kind + 6*color), used for hashing.
func (p Piece) Index() int {
	return p.Type().Index() + 6*int(p.Color())
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p == NoPiece {
		return " "
	}
	c := p.Type().Char()
	if p.Color() == White {
		c -= 'a' - 'A'
	}
	return string(c)
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	switch c {
	case 'P':
		return NewPiece(Pawn, color)
	case 'N':
		return NewPiece(Knight, color)
	case 'B':
		return NewPiece(Bishop, color)
	case 'R':
		return NewPiece(Rook, color)
	case 'Q':
		return NewPiece(Queen, color)
	case 'K':
		return NewPiece(King, color)
	default:
		return NoPiece
	}
}
