package board

import (
	"strings"

	"github.com/pkg/errors"
)

// ToSAN converts a move to Standard Algebraic Notation.
func (m Move) ToSAN(pos *Position) string {
	if m.IsNull() {
		return "-"
	}

	piece := pos.PieceAt(m.From)
	if piece == NoPiece {
		return m.String() // Fallback to coordinates
	}

	var sb strings.Builder

	switch {
	case m.ShortCastle:
		sb.WriteString("O-O")
	case m.LongCastle:
		sb.WriteString("O-O-O")
	default:
		pt := piece.Type()

		// Piece letter and disambiguation (not for pawns)
		if pt != Pawn {
			sb.WriteByte(upperChar(pt))
			sb.WriteString(getDisambiguation(pos, m, pt))
		}

		if m.IsCapture(pos) {
			if pt == Pawn {
				// Pawn captures include the file of origin
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}

		sb.WriteString(m.To.String())

		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(upperChar(m.Promotion))
		}
	}

	// Check/checkmate marker
	newPos := pos.Copy()
	newPos.ApplyMove(m)
	switch {
	case newPos.IsCheckmate():
		sb.WriteByte('#')
	case newPos.InCheck():
		sb.WriteByte('+')
	}

	return sb.String()
}

func upperChar(pt PieceType) byte {
	return pt.Char() - 'a' + 'A'
}

// getDisambiguation returns the disambiguation string needed for a move.
func getDisambiguation(pos *Position, m Move, pt PieceType) string {
	var candidates []Square
	for _, other := range pos.GenerateLegalMoves() {
		if other.To != m.To || other.From == m.From {
			continue
		}
		if pos.PieceAt(other.From).Type() == pt {
			candidates = append(candidates, other.From)
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN parses a SAN string against pos and returns the matching legal
// move.
func ParseSAN(s string, pos *Position) (Move, error) {
	s = strings.TrimSpace(s)
	orig := s

	// Remove check/checkmate markers
	s = strings.TrimRight(s, "+#")

	legal := pos.GenerateLegalMoves()

	switch s {
	case "O-O", "0-0":
		for _, m := range legal {
			if m.ShortCastle {
				return m, nil
			}
		}
		return NoMove, errors.Wrapf(ErrIllegalMove, "%s", orig)
	case "O-O-O", "0-0-0":
		for _, m := range legal {
			if m.LongCastle {
				return m, nil
			}
		}
		return NoMove, errors.Wrapf(ErrIllegalMove, "%s", orig)
	}

	promo := NoPieceType
	if idx := strings.Index(s, "="); idx >= 0 && idx+1 < len(s) {
		switch s[idx+1] {
		case 'N':
			promo = Knight
		case 'Q':
			promo = Queen
		default:
			return NoMove, errors.Errorf("unsupported promotion in %q", orig)
		}
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		switch s[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		default:
			return NoMove, errors.Errorf("invalid piece letter in %q", orig)
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, errors.Errorf("invalid SAN: %q", orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}
	s = s[:len(s)-2]

	// Disambiguation: file, rank or both
	fileHint, rankHint := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			fileHint = int(c - 'a')
		case c >= '1' && c <= '8':
			rankHint = int(c - '1')
		}
	}

	for _, m := range legal {
		if m.To != dest || m.IsCastling() || pos.PieceAt(m.From).Type() != pt {
			continue
		}
		if fileHint >= 0 && m.From.File() != fileHint {
			continue
		}
		if rankHint >= 0 && m.From.Rank() != rankHint {
			continue
		}
		if isCapture && !m.IsCapture(pos) {
			continue
		}
		if m.Promotion != promo {
			continue
		}
		return m, nil
	}

	return NoMove, errors.Wrapf(ErrIllegalMove, "%s", orig)
}

// MovesToSAN converts a sequence of moves played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()

	for i, m := range moves {
		result[i] = m.ToSAN(p)
		p.ApplyMove(m)
	}

	return result
}
