package board

// Direction and jump tables shared by move generation and threat detection.
var (
	knightOffsets = [8][2]int{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
	kingOffsets = [8][2]int{
		{0, 1}, {1, 1}, {1, 0}, {1, -1},
		{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
	}
	rookDirections   = [][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	bishopDirections = [][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	queenDirections  = [][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

// pawnForward returns the rank direction pawns of color c advance in.
func pawnForward(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

// IsSquareThreatened returns true if any piece of color by could reach sq
// under its movement rules, regardless of whose turn it is.
func (p *Position) IsSquareThreatened(by Color, sq Square) bool {
	for from := A1; from <= H8; from++ {
		piece := p.Squares[from]
		if piece == NoPiece || piece.Color() != by {
			continue
		}
		if p.PieceThreatens(from, sq) {
			return true
		}
	}
	return false
}

// PieceThreatens reports whether the piece standing on from attacks to.
// Pawns threaten only their two forward diagonals.
func (p *Position) PieceThreatens(from, to Square) bool {
	if from == to {
		return false
	}
	piece := p.Squares[from]
	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()
	adf, adr := abs(df), abs(dr)

	switch piece.Type() {
	case King:
		return adf <= 1 && adr <= 1
	case Knight:
		return (adf == 1 && adr == 2) || (adf == 2 && adr == 1)
	case Pawn:
		return adf == 1 && dr == pawnForward(piece.Color())
	case Rook:
		return (df == 0 || dr == 0) && p.clearBetween(from, to)
	case Bishop:
		return adf == adr && p.clearBetween(from, to)
	case Queen:
		return (df == 0 || dr == 0 || adf == adr) && p.clearBetween(from, to)
	}
	return false
}

// clearBetween reports whether every square strictly between from and to
// is empty. The squares must share a rank, file or diagonal.
func (p *Position) clearBetween(from, to Square) bool {
	stepF := sign(to.File() - from.File())
	stepR := sign(to.Rank() - from.Rank())
	sq, _ := from.Offset(stepF, stepR)
	for sq != to {
		if p.Squares[sq] != NoPiece {
			return false
		}
		sq, _ = sq.Offset(stepF, stepR)
	}
	return true
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
