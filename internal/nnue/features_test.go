package nnue

import (
	"testing"

	"github.com/hailam/selfchess/internal/board"
)

func TestInputSize(t *testing.T) {
	if InputSize != 64*7+1+2+2+8 {
		t.Errorf("InputSize = %d", InputSize)
	}
}

func TestEncodeStartPosition(t *testing.T) {
	in := EncodePosition(board.NewPosition())

	if in[sideToMoveOffset] != 0 {
		t.Error("white to move encoded as black")
	}
	for i := 0; i < 4; i++ {
		if in[castlingOffset+i] != 1 {
			t.Errorf("castling bit %d not set", i)
		}
	}
	for f := 0; f < 8; f++ {
		if in[enPassantOffset+f] != 0 {
			t.Errorf("en passant bit %d set", f)
		}
	}

	// a1 white rook: only the rook kind bit.
	a1 := in[squaresOffset : squaresOffset+7]
	want := []float64{0, 0, 0, 1, 0, 0, 0}
	for i := range want {
		if a1[i] != want[i] {
			t.Errorf("a1 bits = %v, want %v", a1, want)
			break
		}
	}

	// e8 black king: king bit and color bit.
	base := squaresOffset + int(board.E8)*7
	e8 := in[base : base+7]
	want = []float64{0, 0, 0, 0, 0, 1, 1}
	for i := range want {
		if e8[i] != want[i] {
			t.Errorf("e8 bits = %v, want %v", e8, want)
			break
		}
	}

	var ones int
	for _, v := range in {
		if v == 1 {
			ones++
		}
	}
	// 32 pieces: 16 white with one bit, 16 black with two; plus four castling bits.
	if ones != 16+32+4 {
		t.Errorf("got %d set bits, want 52", ones)
	}
}

func TestEncodeStateBits(t *testing.T) {
	pos, err := board.ParseFEN("r3k2r/8/8/3pP3/8/8/8/R3K2R w Kq d6 0 1")
	if err != nil {
		t.Fatal(err)
	}
	pos.SideToMove = board.Black
	in := EncodePosition(pos)

	if in[sideToMoveOffset] != 1 {
		t.Error("black to move not encoded")
	}
	wantCastling := []float64{0, 1, 1, 0} // white Q, white K, black q, black k
	for i, w := range wantCastling {
		if in[castlingOffset+i] != w {
			t.Errorf("castling bit %d = %v, want %v", i, in[castlingOffset+i], w)
		}
	}
	for f := 0; f < 8; f++ {
		want := 0.0
		if f == 3 {
			want = 1
		}
		if in[enPassantOffset+f] != want {
			t.Errorf("en passant bit %d = %v, want %v", f, in[enPassantOffset+f], want)
		}
	}
}

func TestEvaluateMatchesForward(t *testing.T) {
	n := mustNew(t, smallSettings())
	pos := board.NewPosition()

	got := n.Evaluate(pos)
	if want := n.Clone().Forward(EncodePosition(pos)); got != want {
		t.Errorf("Evaluate = %v, Forward = %v", got, want)
	}
	if got <= 0 || got >= 1 {
		t.Errorf("sigmoid output %v outside (0, 1)", got)
	}
}
