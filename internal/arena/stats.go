package arena

import (
	"fmt"
	"math"
)

// Summary is the running match score from player A's point of view.
type Summary struct {
	Wins, Losses, Draws int
	Results             []GameResult
}

func (s *Summary) add(r GameResult) {
	switch r.AScore() {
	case 1:
		s.Wins++
	case 0:
		s.Losses++
	default:
		s.Draws++
	}
	s.Results = append(s.Results, r)
}

// Games returns the number of finished games.
func (s Summary) Games() int {
	return s.Wins + s.Losses + s.Draws
}

// WinningFraction returns A's points per game.
func (s Summary) WinningFraction() float64 {
	if s.Games() == 0 {
		return 0.5
	}
	return (float64(s.Wins) + 0.5*float64(s.Draws)) / float64(s.Games())
}

// EloDifference converts the winning fraction to an Elo difference.
// https://www.chessprogramming.org/Match_Statistics
func (s Summary) EloDifference() float64 {
	return -math.Log(1/s.WinningFraction()-1) * 400 / math.Ln10
}

// LOS returns the likelihood of superiority of A over B.
func (s Summary) LOS() float64 {
	decisive := s.Wins + s.Losses
	if decisive == 0 {
		return 0.5
	}
	return 0.5 + 0.5*math.Erf(float64(s.Wins-s.Losses)/math.Sqrt(2*float64(decisive)))
}

func (s Summary) String() string {
	return fmt.Sprintf("%d - %d - %d [%.3f]", s.Wins, s.Losses, s.Draws, s.WinningFraction())
}
