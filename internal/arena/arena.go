// Package arena plays evaluation matches between two evaluators.
package arena

import (
	"context"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/selfchess/internal/board"
	"github.com/hailam/selfchess/internal/engine"
	"github.com/hailam/selfchess/internal/nnue"
	"github.com/hailam/selfchess/internal/train"
)

// Player builds the evaluator for one side of a match. NewEvaluator is
// called once per worker, so evaluators are never shared between games
// running concurrently.
type Player struct {
	Name         string
	NewEvaluator func() engine.Evaluator
}

// NetworkPlayer plays with a private copy of net in each worker. net must not
// be trained while the match runs.
func NetworkPlayer(name string, net *nnue.Network) Player {
	return Player{
		Name:         name,
		NewEvaluator: func() engine.Evaluator { return net.Clone() },
	}
}

// MaterialPlayer plays with the material and piece-square evaluator.
func MaterialPlayer() Player {
	return Player{
		Name:         "material",
		NewEvaluator: func() engine.Evaluator { return engine.NewMaterialEvaluator() },
	}
}

// Config controls a match.
type Config struct {
	Games       int // Total games; each opening is played twice with colours swapped
	Concurrency int // Games played in parallel
	Depth       int
	MoveCap     int

	// Openings are FENs cycled over game pairs. Empty means the start position.
	Openings []string
	// RandomPlies random legal moves are played from the opening before the
	// engines take over, so that pairs of deterministic engines do not repeat
	// the same game.
	RandomPlies int
	Seed        uint64

	Scores engine.Scores
	Logger zerolog.Logger
}

// DefaultConfig returns a small match at the training search depth.
func DefaultConfig() Config {
	return Config{
		Games:       20,
		Concurrency: 4,
		Depth:       2,
		MoveCap:     300,
		RandomPlies: 4,
		Seed:        1,
		Scores:      engine.DefaultScores(),
		Logger:      zerolog.Nop(),
	}
}

// GameResult is one finished arena game.
type GameResult struct {
	Number   int // 1-based
	AIsWhite bool
	Outcome  train.Outcome
	Reason   train.Reason
	Plies    int
	Opening  string
	Moves    []string
}

// AScore returns player A's points for the game: 1, 0.5 or 0.
func (r GameResult) AScore() float64 {
	switch {
	case r.Outcome == train.Draw:
		return 0.5
	case (r.Outcome == train.WhiteWin) == r.AIsWhite:
		return 1
	default:
		return 0
	}
}

type gameInfo struct {
	number   int
	aIsWhite bool
	opening  *board.Position
}

// Run plays cfg.Games games between a and b and returns the score from a's
// point of view.
func Run(ctx context.Context, cfg Config, a, b Player) (Summary, error) {
	if cfg.Games <= 0 || cfg.Concurrency <= 0 || cfg.MoveCap <= 0 || cfg.Depth < 1 {
		return Summary{}, errors.Errorf("invalid arena config: games %d, concurrency %d, move cap %d, depth %d",
			cfg.Games, cfg.Concurrency, cfg.MoveCap, cfg.Depth)
	}
	log := cfg.Logger
	log.Info().
		Str("a", a.Name).
		Str("b", b.Name).
		Int("games", cfg.Games).
		Int("concurrency", cfg.Concurrency).
		Int("depth", cfg.Depth).
		Msg("arena started")

	g, ctx := errgroup.WithContext(ctx)

	gameInfos := make(chan gameInfo)
	gameResults := make(chan GameResult)

	g.Go(func() error {
		defer close(gameInfos)
		return scheduleGames(ctx, cfg, gameInfos)
	})

	var summary Summary
	g.Go(func() error {
		for res := range gameResults {
			summary.add(res)
			log.Info().
				Int("game", res.Number).
				Str("result", res.Outcome.String()).
				Str("reason", res.Reason.String()).
				Bool("a_white", res.AIsWhite).
				Int("plies", res.Plies).
				Str("score", summary.String()).
				Msg("game finished")
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, cfg, a, b, gameInfos, gameResults)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(gameResults)
		return nil
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Number < summary.Results[j].Number
	})
	log.Info().
		Int("wins", summary.Wins).
		Int("losses", summary.Losses).
		Int("draws", summary.Draws).
		Float64("elo", summary.EloDifference()).
		Float64("los", summary.LOS()).
		Msg("arena finished")
	return summary, nil
}

func scheduleGames(ctx context.Context, cfg Config, out chan<- gameInfo) error {
	var opening *board.Position
	for i := 0; i < cfg.Games; i++ {
		if i%2 == 0 {
			var err error
			opening, err = openingFor(cfg, i/2)
			if err != nil {
				return err
			}
		}
		info := gameInfo{number: i + 1, aIsWhite: i%2 == 0, opening: opening.Copy()}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- info:
		}
	}
	return nil
}

// openingFor returns the start of game pair p. The random plies depend only
// on the seed and p.
func openingFor(cfg Config, p int) (*board.Position, error) {
	pos := board.NewPosition()
	if len(cfg.Openings) > 0 {
		fen := cfg.Openings[p%len(cfg.Openings)]
		var err error
		if pos, err = board.ParseFEN(fen); err != nil {
			return nil, errors.Wrapf(err, "opening %d", p)
		}
	}

	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, cfg.Seed)
	binary.LittleEndian.PutUint64(key[8:], uint64(p))
	rng := frand.NewCustom(key, 1024, 12)

	for i := 0; i < cfg.RandomPlies; i++ {
		moves := pos.GenerateLegalMoves()
		if len(moves) == 0 {
			break
		}
		pos.ApplyMove(moves[rng.Intn(len(moves))])
	}
	return pos, nil
}

func playGames(
	ctx context.Context,
	cfg Config,
	a, b Player,
	gameInfos <-chan gameInfo,
	gameResults chan<- GameResult,
) error {
	engineA := engine.NewEngine(a.NewEvaluator(), cfg.Scores, cfg.Depth)
	engineB := engine.NewEngine(b.NewEvaluator(), cfg.Scores, cfg.Depth)
	for info := range gameInfos {
		white, black := engineA, engineB
		if !info.aIsWhite {
			white, black = engineB, engineA
		}
		res, err := playGame(ctx, cfg, white, black, info)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case gameResults <- res:
		}
	}
	return nil
}

func playGame(ctx context.Context, cfg Config, white, black *engine.Engine, info gameInfo) (GameResult, error) {
	white.NewGame()
	black.NewGame()

	pos := info.opening
	res := GameResult{Number: info.number, AIsWhite: info.aIsWhite, Opening: pos.ToFEN()}

	reps := engine.NewTranspositionCache()
	reps.RecordPlayed(pos.Hash())

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		switch pos.Status() {
		case board.Checkmate:
			res.Reason = train.Checkmate
			res.Outcome = train.WhiteWin
			if pos.SideToMove == board.White {
				res.Outcome = train.BlackWin
			}
			return res, nil
		case board.Stalemate:
			res.Outcome, res.Reason = train.Draw, train.Stalemate
			return res, nil
		}

		if res.Plies >= cfg.MoveCap {
			res.Outcome, res.Reason = train.Draw, train.MoveCap
			return res, nil
		}

		eng := white
		if pos.SideToMove == board.Black {
			eng = black
		}
		m := eng.Search(pos)
		if m.IsNull() {
			return res, errors.Errorf("game %d: no move returned in %s", info.number, pos.ToFEN())
		}

		res.Moves = append(res.Moves, m.String())
		pos.ApplyMove(m)
		res.Plies++

		if reps.RecordPlayed(pos.Hash()) >= train.RepetitionLimit {
			res.Outcome, res.Reason = train.Draw, train.Repetition
			return res, nil
		}
	}
}
