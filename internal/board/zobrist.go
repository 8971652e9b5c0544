package board

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// Castling right indices into the zobrist castling table.
const (
	whiteKingSide = iota
	whiteQueenSide
	blackKingSide
	blackQueenSide
)

// Zobrist hash keys for position hashing.
// Drawn from a ChaCha8 stream with a fixed seed so hashes are stable across runs.
var (
	zobristPiece      [12][64]uint64 // [Piece.Index()][Square]
	zobristSideToMove [2]uint64      // one key per side
	zobristCastling   [4][2]uint64   // [right][held]
	zobristEnPassant  [9]uint64      // 0 = none, 1..8 = file a..h
)

var zobristSeed = []byte("selfchess zobrist keys, v1 seed!")

func init() {
	initZobrist()
}

// keySource hands out 64-bit keys and never repeats one.
type keySource struct {
	rng  *frand.RNG
	seen map[uint64]struct{}
}

func (k *keySource) next() uint64 {
	for {
		key := binary.LittleEndian.Uint64(k.rng.Bytes(8))
		if _, dup := k.seen[key]; dup || key == 0 {
			continue
		}
		k.seen[key] = struct{}{}
		return key
	}
}

func initZobrist() {
	src := &keySource{
		rng:  frand.NewCustom(zobristSeed, 1024, 8),
		seen: make(map[uint64]struct{}, 12*64+2+8+9),
	}

	for i := range zobristPiece {
		for sq := range zobristPiece[i] {
			zobristPiece[i][sq] = src.next()
		}
	}
	for i := range zobristSideToMove {
		zobristSideToMove[i] = src.next()
	}
	for i := range zobristCastling {
		zobristCastling[i][0] = src.next()
		zobristCastling[i][1] = src.next()
	}
	for i := range zobristEnPassant {
		zobristEnPassant[i] = src.next()
	}
}

// castlingRights returns the four structural castling rights in table order.
func (p *Position) castlingRights() [4]bool {
	return [4]bool{
		whiteKingSide:  p.CanCastle(White, true),
		whiteQueenSide: p.CanCastle(White, false),
		blackKingSide:  p.CanCastle(Black, true),
		blackQueenSide: p.CanCastle(Black, false),
	}
}

// Hash computes the Zobrist hash of the position from scratch. Positions
// with the same placement, side to move, castling rights and en passant file
// hash identically.
func (p *Position) Hash() uint64 {
	var hash uint64

	for sq := A1; sq <= H8; sq++ {
		if piece := p.Squares[sq]; piece != NoPiece {
			hash ^= zobristPiece[piece.Index()][sq]
		}
	}

	hash ^= zobristSideToMove[p.SideToMove]

	for i, held := range p.castlingRights() {
		if held {
			hash ^= zobristCastling[i][1]
		} else {
			hash ^= zobristCastling[i][0]
		}
	}

	hash ^= zobristEnPassant[p.EnPassantFile+1]

	return hash
}
