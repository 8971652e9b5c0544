// Command selfchess-arena plays a match between two evaluators.
//
// A player is "material", "latest" (the stored snapshot), "checkpoint:N"
// (a stored checkpoint) or the path of a weight file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/selfchess/internal/arena"
	"github.com/hailam/selfchess/internal/nnue"
	"github.com/hailam/selfchess/internal/storage"
)

type Config struct {
	PlayerA     string
	PlayerB     string
	Games       int
	Concurrency int
	Depth       int
	MoveCap     int
	RandomPlies int
	Seed        uint64
	Openings    string

	HiddenWidth      int
	HiddenLayers     int
	HiddenActivation string
	OutputActivation string

	DBDir    string
	LogLevel string
}

var config Config

func main() {
	flag.StringVar(&config.PlayerA, "a", "latest", "first player")
	flag.StringVar(&config.PlayerB, "b", "material", "second player")
	flag.IntVar(&config.Games, "games", 20, "number of games")
	flag.IntVar(&config.Concurrency, "concurrency", runtime.NumCPU(), "games played in parallel")
	flag.IntVar(&config.Depth, "depth", 2, "search depth per move")
	flag.IntVar(&config.MoveCap, "movecap", 300, "plies after which a game is drawn")
	flag.IntVar(&config.RandomPlies, "random-plies", 4, "random opening plies per game pair")
	flag.Uint64Var(&config.Seed, "seed", 1, "opening seed")
	flag.StringVar(&config.Openings, "openings", "", "file with one opening FEN per line")
	flag.IntVar(&config.HiddenWidth, "hidden", 900, "units per hidden layer for weight-file players")
	flag.IntVar(&config.HiddenLayers, "layers", 3, "number of hidden layers for weight-file players")
	flag.StringVar(&config.HiddenActivation, "hidden-act", "tanh", "hidden activation")
	flag.StringVar(&config.OutputActivation, "output-act", "sigmoid", "output activation")
	flag.StringVar(&config.DBDir, "db", "", "run database directory (default: data dir)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "log level")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := run(config); err != nil {
		log.Fatal().Err(err).Msg("arena failed")
	}
}

func run(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := nnue.DefaultSettings()
	settings.HiddenWidth = cfg.HiddenWidth
	settings.HiddenLayers = cfg.HiddenLayers
	var err error
	if settings.HiddenActivation, err = nnue.ParseActivation(cfg.HiddenActivation); err != nil {
		return err
	}
	if settings.OutputActivation, err = nnue.ParseActivation(cfg.OutputActivation); err != nil {
		return err
	}

	loader := &playerLoader{settings: settings, dbDir: cfg.DBDir}
	defer loader.close()

	a, err := loader.load(cfg.PlayerA)
	if err != nil {
		return errors.Wrap(err, "player a")
	}
	b, err := loader.load(cfg.PlayerB)
	if err != nil {
		return errors.Wrap(err, "player b")
	}

	acfg := arena.DefaultConfig()
	acfg.Games = cfg.Games
	acfg.Concurrency = cfg.Concurrency
	acfg.Depth = cfg.Depth
	acfg.MoveCap = cfg.MoveCap
	acfg.RandomPlies = cfg.RandomPlies
	acfg.Seed = cfg.Seed
	acfg.Logger = log.Logger
	if cfg.Openings != "" {
		if acfg.Openings, err = readOpenings(cfg.Openings); err != nil {
			return err
		}
	}

	summary, err := arena.Run(ctx, acfg, a, b)
	if err != nil {
		return err
	}
	log.Info().
		Str("a", a.Name).
		Str("b", b.Name).
		Str("score", summary.String()).
		Float64("elo", summary.EloDifference()).
		Float64("los", summary.LOS()*100).
		Msg("match result")
	return nil
}

// playerLoader opens the run store only when a player needs it.
type playerLoader struct {
	settings nnue.Settings
	dbDir    string
	store    *storage.Storage
}

// load resolves a player spec. Stored networks are rebuilt with the shape
// they were saved with; weight files use the shape from the flags.
func (l *playerLoader) load(spec string) (arena.Player, error) {
	if spec == "material" {
		return arena.MaterialPlayer(), nil
	}

	var net *nnue.Network
	switch {
	case spec == "latest":
		store, err := l.open()
		if err != nil {
			return arena.Player{}, err
		}
		var info storage.SnapshotInfo
		if net, info, err = store.SnapshotNetwork(); err != nil {
			return arena.Player{}, errors.Wrap(err, "failed to load snapshot")
		}
		log.Info().
			Int("episode", info.Episode).
			Int("hidden", info.Settings.HiddenWidth).
			Int("layers", info.Settings.HiddenLayers).
			Msg("loaded stored snapshot")

	case strings.HasPrefix(spec, "checkpoint:"):
		episode, err := strconv.Atoi(strings.TrimPrefix(spec, "checkpoint:"))
		if err != nil {
			return arena.Player{}, errors.Errorf("invalid checkpoint %q", spec)
		}
		store, err := l.open()
		if err != nil {
			return arena.Player{}, err
		}
		if net, err = store.CheckpointNetwork(episode); err != nil {
			return arena.Player{}, errors.Wrapf(err, "failed to load checkpoint %d", episode)
		}

	default:
		var err error
		if net, err = nnue.New(l.settings); err != nil {
			return arena.Player{}, err
		}
		if err := net.LoadWeightsFile(spec); err != nil {
			return arena.Player{}, err
		}
	}
	return arena.NetworkPlayer(spec, net), nil
}

func (l *playerLoader) open() (*storage.Storage, error) {
	if l.store != nil {
		return l.store, nil
	}
	var err error
	if l.dbDir == "" {
		l.store, err = storage.NewStorage()
	} else {
		l.store, err = storage.Open(l.dbDir)
	}
	return l.store, err
}

func (l *playerLoader) close() {
	if l.store != nil {
		l.store.Close()
	}
}

func readOpenings(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read openings")
	}
	var fens []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			fens = append(fens, line)
		}
	}
	if len(fens) == 0 {
		return nil, errors.Errorf("no openings in %s", path)
	}
	return fens, nil
}
