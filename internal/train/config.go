package train

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config controls a self-play training run.
type Config struct {
	Depth   int // Search depth per played move
	MoveCap int // Plies after which an episode is scored as a draw

	// Training targets on the network's output scale.
	NeutralLabel  float64
	WhiteWinLabel float64
	BlackWinLabel float64

	Logger zerolog.Logger
}

// DefaultConfig returns a depth 2 search, a 1000 ply cap and labels matching
// the search convention: White wins pull toward 0, Black wins toward 1.
func DefaultConfig() Config {
	return Config{
		Depth:         2,
		MoveCap:       1000,
		NeutralLabel:  0.5,
		WhiteWinLabel: 0,
		BlackWinLabel: 1,
		Logger:        zerolog.Nop(),
	}
}

// Validate reports settings that cannot run an episode.
func (c Config) Validate() error {
	switch {
	case c.Depth < 1:
		return errors.Errorf("search depth must be at least 1 to pick a move, got %d", c.Depth)
	case c.MoveCap <= 0:
		return errors.Errorf("move cap must be positive, got %d", c.MoveCap)
	}
	return nil
}

// OutcomeLabel returns the label the final ply of a game with outcome o is
// trained toward.
func (c Config) OutcomeLabel(o Outcome) float64 {
	switch o {
	case WhiteWin:
		return c.WhiteWinLabel
	case BlackWin:
		return c.BlackWinLabel
	default:
		return c.NeutralLabel
	}
}

// Labels assigns a target to each of n recorded plies. Ply i of n gets
// neutral + (outcome - neutral) * (i+1)/n, so the last ply carries the full
// outcome and earlier plies drift back toward neutral.
func (c Config) Labels(n int, o Outcome) []float64 {
	target := c.OutcomeLabel(o)
	labels := make([]float64, n)
	for i := range labels {
		labels[i] = c.NeutralLabel + (target-c.NeutralLabel)*float64(i+1)/float64(n)
	}
	return labels
}
