package board

import (
	"testing"

	"github.com/pkg/errors"
)

func TestToSAN(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want string
	}{
		{"pawn push", StartFEN, "e2e4", "e4"},
		{"knight", StartFEN, "g1f3", "Nf3"},
		{"file disambiguation", "4k3/8/8/8/8/8/8/1N3N1K w - - 0 1", "b1d2", "Nbd2"},
		{"rank disambiguation", "4k3/8/8/8/8/1N6/8/1N2K3 w - - 0 1", "b1d2", "N1d2"},
		{"short castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"long castle", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8c8", "O-O-O"},
		{"promotion", "8/P3k3/8/8/8/8/8/4K3 w - - 0 1", "a7a8q", "a8=Q"},
		{"underpromotion", "8/P3k3/8/8/8/8/8/4K3 w - - 0 1", "a7a8n", "a8=N"},
		{"pawn capture", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", "exd5"},
		{"check", "4k3/8/8/8/8/8/8/R3K3 w - - 0 1", "a1a8", "Ra8+"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustFEN(t, tc.fen)
			m, err := ParseMove(tc.move, pos)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.ToSAN(pos); got != tc.want {
				t.Errorf("ToSAN(%s) = %s, want %s", tc.move, got, tc.want)
			}

			back, err := ParseSAN(tc.want, pos)
			if err != nil {
				t.Fatalf("ParseSAN(%s): %v", tc.want, err)
			}
			if back.String() != tc.move {
				t.Errorf("ParseSAN(%s) = %s, want %s", tc.want, back, tc.move)
			}
		})
	}
}

func TestMovesToSANFoolsMate(t *testing.T) {
	pos := NewPosition()
	var moves []Move
	p := pos.Copy()
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := ParseMove(s, p)
		if err != nil {
			t.Fatal(err)
		}
		moves = append(moves, m)
		p.ApplyMove(m)
	}

	got := MovesToSAN(pos, moves)
	want := []string{"f3", "e5", "g4", "Qh4#"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d = %s, want %s", i, got[i], want[i])
		}
	}
	if pos.ToFEN() != StartFEN {
		t.Error("MovesToSAN modified the starting position")
	}
}

func TestParseSANRejects(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"e5", "O-O", "Nc4", "Ke2"} {
		if _, err := ParseSAN(s, pos); errors.Cause(err) != ErrIllegalMove {
			t.Errorf("ParseSAN(%q) err = %v, want ErrIllegalMove", s, err)
		}
	}
	if _, err := ParseSAN("e8=R", mustFEN(t, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1")); err == nil {
		t.Error("expected error for rook promotion")
	}
}
