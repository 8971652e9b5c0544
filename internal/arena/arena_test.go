package arena

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/hailam/selfchess/internal/board"
	"github.com/hailam/selfchess/internal/nnue"
	"github.com/hailam/selfchess/internal/train"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Games = 4
	cfg.Concurrency = 2
	cfg.Depth = 1
	cfg.MoveCap = 40
	cfg.RandomPlies = 2
	return cfg
}

func TestMirroredPairsCancelOut(t *testing.T) {
	summary, err := Run(context.Background(), testConfig(), MaterialPlayer(), MaterialPlayer())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Games() != 4 || len(summary.Results) != 4 {
		t.Fatalf("played %d games, %d results", summary.Games(), len(summary.Results))
	}
	if summary.Wins != summary.Losses {
		t.Errorf("identical players scored %s", summary)
	}

	for i, r := range summary.Results {
		if r.Number != i+1 {
			t.Errorf("result %d has number %d", i, r.Number)
		}
		if r.AIsWhite != (i%2 == 0) {
			t.Errorf("game %d: AIsWhite = %v", r.Number, r.AIsWhite)
		}
	}
	// Both games of a pair start from the same opening and, with identical
	// players, play the same moves.
	for i := 0; i < 4; i += 2 {
		a, b := summary.Results[i], summary.Results[i+1]
		if a.Opening != b.Opening || a.Plies != b.Plies || a.Outcome != b.Outcome {
			t.Errorf("pair %d differs: %+v vs %+v", i/2, a, b)
		}
	}
}

func TestNetworkPlayer(t *testing.T) {
	s := nnue.DefaultSettings()
	s.HiddenWidth = 4
	s.HiddenLayers = 1
	s.Seed = 13
	net, err := nnue.New(s)
	if err != nil {
		t.Fatal(err)
	}
	before := net.Evaluate(board.NewPosition())

	cfg := testConfig()
	cfg.Games = 2
	cfg.MoveCap = 10
	summary, err := Run(context.Background(), cfg, NetworkPlayer("net", net), MaterialPlayer())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Games() != 2 {
		t.Errorf("played %d games, want 2", summary.Games())
	}
	for _, r := range summary.Results {
		if r.Plies > cfg.MoveCap {
			t.Errorf("game %d ran %d plies past the cap", r.Number, r.Plies)
		}
	}
	if net.Evaluate(board.NewPosition()) != before {
		t.Error("match changed the source network")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, testConfig(), MaterialPlayer(), MaterialPlayer())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 0
	if _, err := Run(context.Background(), cfg, MaterialPlayer(), MaterialPlayer()); err == nil {
		t.Error("expected error for zero concurrency")
	}
}

func TestOpeningFor(t *testing.T) {
	cfg := testConfig()
	cfg.RandomPlies = 3
	a, err := openingFor(cfg, 5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := openingFor(cfg, 5)
	if err != nil {
		t.Fatal(err)
	}
	if a.ToFEN() != b.ToFEN() {
		t.Errorf("same pair gave %s and %s", a.ToFEN(), b.ToFEN())
	}
	if a.SideToMove != board.Black {
		t.Error("three random plies should leave Black to move")
	}

	cfg.RandomPlies = 0
	cfg.Openings = []string{board.StartFEN, "4k3/8/8/8/8/8/8/4K2R w K - 0 1"}
	c, err := openingFor(cfg, 3)
	if err != nil {
		t.Fatal(err)
	}
	if c.ToFEN() != cfg.Openings[1] {
		t.Errorf("pair 3 opening = %s, want %s", c.ToFEN(), cfg.Openings[1])
	}

	cfg.Openings = []string{"not a fen"}
	if _, err := openingFor(cfg, 0); err == nil {
		t.Error("expected error for bad opening")
	}
}

func TestSummaryStatistics(t *testing.T) {
	s := Summary{Wins: 6, Losses: 2, Draws: 2}
	if got := s.WinningFraction(); math.Abs(got-0.7) > 1e-12 {
		t.Errorf("WinningFraction = %v, want 0.7", got)
	}
	if got := s.EloDifference(); math.Abs(got-147.19) > 0.01 {
		t.Errorf("EloDifference = %v, want 147.19", got)
	}
	if got := s.LOS(); math.Abs(got-0.92135) > 1e-4 {
		t.Errorf("LOS = %v, want 0.92135", got)
	}

	even := Summary{Draws: 3}
	if even.LOS() != 0.5 || even.EloDifference() != 0 {
		t.Errorf("all draws: LOS %v, Elo %v", even.LOS(), even.EloDifference())
	}
}

func TestAScore(t *testing.T) {
	tests := []struct {
		outcome  train.Outcome
		aIsWhite bool
		want     float64
	}{
		{train.WhiteWin, true, 1},
		{train.WhiteWin, false, 0},
		{train.BlackWin, true, 0},
		{train.BlackWin, false, 1},
		{train.Draw, true, 0.5},
	}
	for _, tc := range tests {
		r := GameResult{Outcome: tc.outcome, AIsWhite: tc.aIsWhite}
		if got := r.AScore(); got != tc.want {
			t.Errorf("%v with A white=%v: score %v, want %v", tc.outcome, tc.aIsWhite, got, tc.want)
		}
	}
}
