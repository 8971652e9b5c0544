package board

import "testing"

func TestZobristKeysDistinct(t *testing.T) {
	seen := make(map[uint64]string)
	check := func(key uint64, name string) {
		if prev, dup := seen[key]; dup {
			t.Fatalf("key %016x shared by %s and %s", key, prev, name)
		}
		seen[key] = name
	}

	for i := range zobristPiece {
		for sq := range zobristPiece[i] {
			check(zobristPiece[i][sq], "piece")
		}
	}
	for _, k := range zobristSideToMove {
		check(k, "side")
	}
	for _, pair := range zobristCastling {
		check(pair[0], "castling lost")
		check(pair[1], "castling held")
	}
	for _, k := range zobristEnPassant {
		check(k, "en passant")
	}

	if want := 12*64 + 2 + 8 + 9; len(seen) != want {
		t.Errorf("got %d keys, want %d", len(seen), want)
	}
}

func TestHashDeterministic(t *testing.T) {
	pos := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if pos.Hash() != pos.Hash() {
		t.Error("hash differs between calls")
	}
	if pos.Hash() != pos.Copy().Hash() {
		t.Error("copy hashes differently")
	}
}

func TestHashSideToMove(t *testing.T) {
	pos := NewPosition()
	flipped := pos.Copy()
	flipped.SideToMove = Black
	if pos.Hash() == flipped.Hash() {
		t.Error("side to move does not change the hash")
	}
}

func TestHashTransposition(t *testing.T) {
	a := NewPosition()
	play(t, a, "g1f3", "g8f6", "b1c3", "b8c6")
	b := NewPosition()
	play(t, b, "b1c3", "b8c6", "g1f3", "g8f6")
	if a.Hash() != b.Hash() {
		t.Error("transposed move orders hash differently")
	}

	back := NewPosition()
	play(t, back, "g1f3", "g8f6", "f3g1", "f6g8")
	if back.Hash() != NewPosition().Hash() {
		t.Error("knight shuffle does not return to the starting hash")
	}
}

func TestHashStateComponents(t *testing.T) {
	base := mustFEN(t, "r3k2r/8/8/3pP3/8/8/8/R3K2R w KQkq - 0 1")
	tests := []struct {
		name   string
		mutate func(p *Position)
	}{
		{"en passant file", func(p *Position) { p.EnPassantFile = 3 }},
		{"white king-side right", func(p *Position) { p.KingRookMoved[White] = true }},
		{"black queen-side right", func(p *Position) { p.QueenRookMoved[Black] = true }},
		{"king moved", func(p *Position) { p.KingMoved[Black] = true }},
		{"piece placement", func(p *Position) { p.Squares[D5], p.Squares[D4] = NoPiece, BlackPawn }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base.Copy()
			tc.mutate(p)
			if p.Hash() == base.Hash() {
				t.Error("hash unchanged")
			}
		})
	}
}
