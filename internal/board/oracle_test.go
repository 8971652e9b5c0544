package board

import (
	"sort"
	"strings"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/notnil/chess"
	"lukechampine.com/frand"
)

// Random walks checked move by move against two independent generators.
// Both reference libraries also emit rook and bishop promotions, which this
// package never generates, so those are dropped before comparing.

var oracleFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
}

const oracleWalkPlies = 120

func underPromotion(uci string) bool {
	return len(uci) == 5 && (uci[4] == 'r' || uci[4] == 'b')
}

func sortedMoves(moves []Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func notnilUCI(m *chess.Move) string {
	uci := m.S1().String() + m.S2().String()
	switch m.Promo() {
	case chess.Queen:
		uci += "q"
	case chess.Knight:
		uci += "n"
	case chess.Rook:
		uci += "r"
	case chess.Bishop:
		uci += "b"
	}
	return uci
}

func notnilMoves(pos *chess.Position) []string {
	var out []string
	for _, m := range pos.ValidMoves() {
		if uci := notnilUCI(m); !underPromotion(uci) {
			out = append(out, uci)
		}
	}
	sort.Strings(out)
	return out
}

func dragontoothMoves(b *dragontoothmg.Board) []string {
	var out []string
	for _, m := range b.GenerateLegalMoves() {
		uci := m.String()
		if !underPromotion(uci) {
			out = append(out, uci)
		}
	}
	sort.Strings(out)
	return out
}

func sameMoves(t *testing.T, lib, fen string, got, want []string) {
	t.Helper()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("%s disagrees at %s\n got: %v\nwant: %v", lib, fen, got, want)
	}
}

func TestMoveGenerationMatchesNotnil(t *testing.T) {
	rng := frand.NewCustom(make([]byte, 32), 1024, 8)

	for _, fen := range oracleFENs {
		t.Run(fen, func(t *testing.T) {
			pos := mustFEN(t, fen)
			opt, err := chess.FEN(fen)
			if err != nil {
				t.Fatalf("chess.FEN: %v", err)
			}
			ref := chess.NewGame(opt).Position()

			for ply := 0; ply < oracleWalkPlies; ply++ {
				ours := pos.GenerateLegalMoves()
				sameMoves(t, "notnil/chess", pos.ToFEN(), sortedMoves(ours), notnilMoves(ref))
				if len(ours) == 0 {
					return
				}

				m := ours[rng.Intn(len(ours))]
				for _, rm := range ref.ValidMoves() {
					if notnilUCI(rm) == m.String() {
						ref = ref.Update(rm)
						break
					}
				}
				pos.ApplyMove(m)
			}
		})
	}
}

func TestMoveGenerationMatchesDragontooth(t *testing.T) {
	rng := frand.NewCustom(append(make([]byte, 31), 1), 1024, 8)

	for _, fen := range oracleFENs {
		t.Run(fen, func(t *testing.T) {
			pos := mustFEN(t, fen)
			ref := dragontoothmg.ParseFen(fen)

			for ply := 0; ply < oracleWalkPlies; ply++ {
				ours := pos.GenerateLegalMoves()
				sameMoves(t, "dragontoothmg", pos.ToFEN(), sortedMoves(ours), dragontoothMoves(&ref))
				if len(ours) == 0 {
					return
				}

				m := ours[rng.Intn(len(ours))]
				for _, rm := range ref.GenerateLegalMoves() {
					if rm.String() == m.String() {
						ref.Apply(rm)
						break
					}
				}
				pos.ApplyMove(m)
			}
		})
	}
}
