// Package train runs self-play episodes and turns each finished game into
// one batched network update.
package train

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/selfchess/internal/board"
	"github.com/hailam/selfchess/internal/engine"
)

// RepetitionLimit is the number of arrivals at one position, counting the
// starting position, that ends a game as a draw.
const RepetitionLimit = 3

// ErrAborted wraps a panic recovered from an episode. The network has not
// been updated for that episode.
var ErrAborted = errors.New("episode aborted")

// Searcher picks the move to play from pos.
type Searcher interface {
	Search(tc *engine.TranspositionCache, pos *board.Position, depth int) (board.Move, float64)
}

// Learner is the evaluator being trained. Evaluate must leave the forward
// pass for pos in place so that Cost and Backward refer to it.
type Learner interface {
	engine.Evaluator
	Backward(label float64)
	Update(batch int)
	Cost(label float64) float64
}

// Episode is the state of one self-play game.
type Episode struct {
	Number   int
	Position *board.Position
	Cache    *engine.TranspositionCache
	History  History
	Plies    int

	Outcome Outcome
	Reason  Reason
}

// Result summarizes a finished episode.
type Result struct {
	Episode   int
	Outcome   Outcome
	Reason    Reason
	Plies     int
	MeanLoss  float64
	Duration  time.Duration
	CacheSize int
	Moves     []string // Coordinate notation
	SAN       []string
	FinalFEN  string
}

// Supervisor plays episodes with searcher and trains net on each one.
type Supervisor struct {
	cfg      Config
	net      Learner
	searcher Searcher
	cache    *engine.TranspositionCache
	episodes int
	log      zerolog.Logger
}

// NewSupervisor creates a supervisor. The searcher is expected to evaluate
// leaves with net.
func NewSupervisor(cfg Config, net Learner, searcher Searcher) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid training config")
	}
	if net == nil || searcher == nil {
		return nil, errors.New("supervisor needs a network and a searcher")
	}
	return &Supervisor{
		cfg:      cfg,
		net:      net,
		searcher: searcher,
		cache:    engine.NewTranspositionCache(),
		log:      cfg.Logger,
	}, nil
}

// Config returns the supervisor's configuration.
func (s *Supervisor) Config() Config {
	return s.cfg
}

// Episodes returns the number of episodes started so far.
func (s *Supervisor) Episodes() int {
	return s.episodes
}

// SetEpisodes sets the episode counter, used when resuming a run.
func (s *Supervisor) SetEpisodes(n int) {
	s.episodes = n
}

// Run plays episodes until the counter reaches total or ctx is done.
// Cancellation is only observed between episodes. onResult, if not nil, is
// called after every episode; an error from it stops the run.
func (s *Supervisor) Run(ctx context.Context, total int, onResult func(Result) error) error {
	for s.episodes < total {
		if err := ctx.Err(); err != nil {
			s.log.Info().Int("episode", s.episodes).Msg("training interrupted")
			return err
		}
		res, err := s.RunEpisode()
		if err != nil {
			return err
		}
		if onResult != nil {
			if err := onResult(res); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunEpisode plays one game from the initial position, then replays its
// history through the network and applies a single update sized to the
// number of plies. A panic during the episode is returned as ErrAborted.
func (s *Supervisor) RunEpisode() (res Result, err error) {
	s.episodes++
	start := time.Now()

	// The cache and repetition counts must not leak from the previous game.
	s.cache.Clear()
	ep := &Episode{
		Number:   s.episodes,
		Position: board.NewPosition(),
		Cache:    s.cache,
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrAborted, "episode %d after %d plies: %v", ep.Number, ep.Plies, r)
			s.log.Error().Err(err).Int("episode", ep.Number).Msg("episode aborted")
		}
	}()

	s.play(ep)
	loss := s.learn(ep)

	res = Result{
		Episode:   ep.Number,
		Outcome:   ep.Outcome,
		Reason:    ep.Reason,
		Plies:     ep.Plies,
		MeanLoss:  loss,
		Duration:  time.Since(start),
		CacheSize: ep.Cache.Len(),
		Moves:     ep.History.Moves(),
		SAN:       ep.History.SAN(),
		FinalFEN:  ep.Position.ToFEN(),
	}

	s.log.Info().
		Int("episode", res.Episode).
		Str("result", res.Outcome.String()).
		Str("reason", res.Reason.String()).
		Int("plies", res.Plies).
		Float64("loss", res.MeanLoss).
		Int("cache", res.CacheSize).
		Dur("took", res.Duration).
		Msg("episode finished")

	return res, nil
}

// play searches and applies moves until the game ends.
func (s *Supervisor) play(ep *Episode) {
	ep.Cache.RecordPlayed(ep.Position.Hash())

	for {
		switch ep.Position.Status() {
		case board.Checkmate:
			ep.Reason = Checkmate
			ep.Outcome = WhiteWin
			if ep.Position.SideToMove == board.White {
				ep.Outcome = BlackWin
			}
			return
		case board.Stalemate:
			ep.Outcome, ep.Reason = Draw, Stalemate
			return
		}

		if ep.Plies >= s.cfg.MoveCap {
			ep.Outcome, ep.Reason = Draw, MoveCap
			return
		}

		move, _ := s.searcher.Search(ep.Cache, ep.Position, s.cfg.Depth)
		if move.IsNull() {
			panic(board.InvariantViolation{Reason: "search returned no move in a live position"})
		}

		ep.History.Push(ep.Position.Copy(), move)
		ep.Position.ApplyMove(move)
		ep.Plies++

		if ep.Cache.RecordPlayed(ep.Position.Hash()) >= RepetitionLimit {
			ep.Outcome, ep.Reason = Draw, Repetition
			return
		}
	}
}

// learn runs forward and backward over every recorded ply, oldest first,
// applies one update and returns the mean cost before the update.
func (s *Supervisor) learn(ep *Episode) float64 {
	n := ep.History.Len()
	if n == 0 {
		return 0
	}

	labels := s.cfg.Labels(n, ep.Outcome)
	var total float64
	for i, ply := range ep.History.Plies() {
		s.net.Evaluate(ply.Position)
		total += s.net.Cost(labels[i])
		s.net.Backward(labels[i])
	}
	s.net.Update(n)

	return total / float64(n)
}
