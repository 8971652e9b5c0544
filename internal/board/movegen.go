package board

// GeneratePseudoLegalMoves generates all pseudo-legal moves (may leave king in check).
// Moves come out square by square from a1 to h8, which fixes the order search
// visits them in.
func (p *Position) GeneratePseudoLegalMoves() []Move {
	moves := make([]Move, 0, 64)
	us := p.SideToMove

	for from := A1; from <= H8; from++ {
		piece := p.Squares[from]
		if piece == NoPiece || piece.Color() != us {
			continue
		}

		switch piece.Type() {
		case Pawn:
			moves = p.generatePawnMoves(moves, from, us)
		case Knight:
			moves = p.generateJumps(moves, from, us, knightOffsets[:])
		case Bishop:
			moves = p.generateSlides(moves, from, us, bishopDirections)
		case Rook:
			moves = p.generateSlides(moves, from, us, rookDirections)
		case Queen:
			moves = p.generateSlides(moves, from, us, queenDirections)
		case King:
			moves = p.generateJumps(moves, from, us, kingOffsets[:])
			moves = p.generateCastlingMoves(moves, us)
		}
	}

	return moves
}

// generateJumps adds single-step moves (king and knight) to empty or enemy squares.
func (p *Position) generateJumps(moves []Move, from Square, us Color, offsets [][2]int) []Move {
	for _, o := range offsets {
		to, ok := from.Offset(o[0], o[1])
		if !ok {
			continue
		}
		if target := p.Squares[to]; target == NoPiece || target.Color() != us {
			moves = append(moves, NewMove(from, to))
		}
	}
	return moves
}

// generateSlides ray-casts along each direction until the edge, an own piece,
// or the first enemy piece (included as a capture).
func (p *Position) generateSlides(moves []Move, from Square, us Color, dirs [][2]int) []Move {
	for _, d := range dirs {
		to, ok := from.Offset(d[0], d[1])
		for ok {
			target := p.Squares[to]
			if target != NoPiece {
				if target.Color() != us {
					moves = append(moves, NewMove(from, to))
				}
				break
			}
			moves = append(moves, NewMove(from, to))
			to, ok = to.Offset(d[0], d[1])
		}
	}
	return moves
}

// generatePawnMoves generates pushes, double pushes, captures, promotions and
// en passant for the pawn on from.
func (p *Position) generatePawnMoves(moves []Move, from Square, us Color) []Move {
	dir := pawnForward(us)
	promotionRank := 7
	if us == Black {
		promotionRank = 0
	}

	if to, ok := from.Offset(0, dir); ok && p.Squares[to] == NoPiece {
		moves = addPawnMove(moves, from, to, promotionRank)
		if from.RelativeRank(us) == 1 {
			if to2, _ := to.Offset(0, dir); p.Squares[to2] == NoPiece {
				moves = append(moves, NewDoublePush(from, to2))
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to, ok := from.Offset(df, dir)
		if !ok {
			continue
		}
		if target := p.Squares[to]; target != NoPiece && target.Color() != us {
			moves = addPawnMove(moves, from, to, promotionRank)
			continue
		}
		if p.EnPassantFile != NoFile && int(p.EnPassantFile) == to.File() && from.RelativeRank(us) == 4 {
			moves = append(moves, NewEnPassant(from, to))
		}
	}

	return moves
}

// addPawnMove adds a pawn move, expanding arrivals on the last rank into a
// queen and a knight promotion.
func addPawnMove(moves []Move, from, to Square, promotionRank int) []Move {
	if to.Rank() != promotionRank {
		return append(moves, NewMove(from, to))
	}
	return append(moves,
		NewPromotion(from, to, Queen),
		NewPromotion(from, to, Knight),
	)
}

// generateCastlingMoves adds each castle whose king and rook have never moved,
// whose in-between squares are empty, and whose king start, transit and
// destination squares are not attacked.
func (p *Position) generateCastlingMoves(moves []Move, us Color) []Move {
	if p.KingMoved[us] {
		return moves
	}
	them := us.Other()
	rank := backRank(us)
	sq := func(file int) Square { return NewSquare(file, rank) }

	safe := func(files ...int) bool {
		for _, f := range files {
			if p.IsSquareThreatened(them, sq(f)) {
				return false
			}
		}
		return true
	}
	empty := func(files ...int) bool {
		for _, f := range files {
			if p.Squares[sq(f)] != NoPiece {
				return false
			}
		}
		return true
	}

	if !p.KingRookMoved[us] && empty(5, 6) && safe(4, 5, 6) {
		moves = append(moves, NewShortCastle(us))
	}
	if !p.QueenRookMoved[us] && empty(1, 2, 3) && safe(4, 3, 2) {
		moves = append(moves, NewLongCastle(us))
	}
	return moves
}
