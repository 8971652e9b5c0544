package nnue

import "github.com/hailam/selfchess/internal/board"

// Input encoding layout. The header comes first, then seven piece-code bits
// for each square from a1 to h8.
const (
	sideToMoveOffset = 0
	castlingOffset   = 1 // white queen-side, white king-side, black queen-side, black king-side
	enPassantOffset  = 5 // one-hot file a..h
	squaresOffset    = 13

	// InputSize is the width of the position encoding.
	InputSize = squaresOffset + 64*board.PieceCodeBits // 461
)

// Encode writes the network input for pos into dst, which must hold at
// least InputSize values.
func Encode(pos *board.Position, dst []float64) {
	dst = dst[:InputSize]
	clear(dst)

	if pos.SideToMove == board.Black {
		dst[sideToMoveOffset] = 1
	}

	rights := [4]bool{
		pos.CanCastle(board.White, false),
		pos.CanCastle(board.White, true),
		pos.CanCastle(board.Black, false),
		pos.CanCastle(board.Black, true),
	}
	for i, held := range rights {
		if held {
			dst[castlingOffset+i] = 1
		}
	}

	if pos.EnPassantFile != board.NoFile {
		dst[enPassantOffset+int(pos.EnPassantFile)] = 1
	}

	for sq := board.A1; sq <= board.H8; sq++ {
		code := pos.PieceAt(sq)
		if code == board.NoPiece {
			continue
		}
		base := squaresOffset + int(sq)*board.PieceCodeBits
		for bit := 0; bit < board.PieceCodeBits; bit++ {
			if code&(1<<bit) != 0 {
				dst[base+bit] = 1
			}
		}
	}
}

// EncodePosition returns a freshly allocated encoding of pos.
func EncodePosition(pos *board.Position) []float64 {
	dst := make([]float64, InputSize)
	Encode(pos, dst)
	return dst
}
