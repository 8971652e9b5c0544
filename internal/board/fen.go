package board

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string and returns a Position. The move clocks are
// accepted but not tracked.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, errors.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	pos := &Position{EnPassantFile: NoFile}

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, errors.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2)
	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	// Parse en passant square (field 3)
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, errors.Errorf("invalid en passant square: %s", parts[3])
		}
		if err := checkEnPassantTarget(pos, sq); err != nil {
			return nil, err
		}
		pos.EnPassantFile = int8(sq.File())
	}

	if len(parts) > 4 {
		if _, err := strconv.Atoi(parts[4]); err != nil {
			return nil, errors.Errorf("invalid half-move clock: %s", parts[4])
		}
	}
	if len(parts) > 5 {
		if _, err := strconv.Atoi(parts[5]); err != nil {
			return nil, errors.Errorf("invalid full-move number: %s", parts[5])
		}
	}

	if err := pos.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid FEN")
	}

	return pos, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return errors.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return errors.Errorf("too many squares in rank %d", rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}

			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return errors.Errorf("invalid piece character: %c", c)
			}
			pos.Squares[NewSquare(file, rank)] = piece
			file++
		}

		if file != 8 {
			return errors.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

// checkEnPassantTarget accepts target only if a double push could have just
// produced it: it lies on the third rank from the mover's side, it is empty,
// and the enemy pawn stands directly beyond it.
func checkEnPassantTarget(pos *Position, target Square) error {
	them := pos.SideToMove.Other()
	if target.RelativeRank(them) != 2 {
		return errors.Errorf("en passant square %s does not match side to move", target)
	}
	pawn, _ := target.Offset(0, pawnForward(them))
	if pos.Squares[target] != NoPiece || pos.Squares[pawn] != NewPiece(Pawn, them) {
		return errors.Errorf("en passant square %s has no pawn that just double-pushed", target)
	}
	return nil
}

// parseCastlingRights maps the FEN castling field onto the moved flags. A
// right that is absent marks its rook as moved; a king off its home square
// is marked as moved.
func parseCastlingRights(pos *Position, castling string) error {
	var rights [2][2]bool // [color][kingSide]
	if castling != "-" {
		for _, c := range castling {
			switch c {
			case 'K':
				rights[White][1] = true
			case 'Q':
				rights[White][0] = true
			case 'k':
				rights[Black][1] = true
			case 'q':
				rights[Black][0] = true
			default:
				return errors.Errorf("invalid castling character: %c", c)
			}
		}
	}

	for _, c := range [2]Color{White, Black} {
		rank := backRank(c)
		pos.KingMoved[c] = pos.Squares[NewSquare(4, rank)] != NewPiece(King, c)
		pos.KingRookMoved[c] = !rights[c][1] || pos.Squares[NewSquare(7, rank)] != NewPiece(Rook, c)
		pos.QueenRookMoved[c] = !rights[c][0] || pos.Squares[NewSquare(0, rank)] != NewPiece(Rook, c)
	}
	return nil
}

// ToFEN returns the FEN representation of the position. Move clocks are
// written as "0 1".
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.Squares[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.castlingString())
	sb.WriteByte(' ')
	sb.WriteString(p.enPassantString())
	sb.WriteString(" 0 1")

	return sb.String()
}

// castlingString renders the structural castling rights in FEN form.
func (p *Position) castlingString() string {
	var sb strings.Builder
	if p.CanCastle(White, true) {
		sb.WriteByte('K')
	}
	if p.CanCastle(White, false) {
		sb.WriteByte('Q')
	}
	if p.CanCastle(Black, true) {
		sb.WriteByte('k')
	}
	if p.CanCastle(Black, false) {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// enPassantString renders the en passant target square, "-" when none.
func (p *Position) enPassantString() string {
	if p.EnPassantFile == NoFile {
		return "-"
	}
	// The target square sits behind the pawn that just double-pushed.
	rank := 5
	if p.SideToMove == Black {
		rank = 2
	}
	return NewSquare(int(p.EnPassantFile), rank).String()
}
