// Command selfchess-train trains the evaluation network by self-play.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/selfchess/internal/engine"
	"github.com/hailam/selfchess/internal/nnue"
	"github.com/hailam/selfchess/internal/storage"
	"github.com/hailam/selfchess/internal/train"
)

type Config struct {
	Episodes    int
	Depth       int
	MoveCap     int
	Checkpoints string

	HiddenWidth      int
	HiddenLayers     int
	HiddenActivation string
	OutputActivation string
	LearningRate     float64
	Momentum         float64
	Seed             uint64

	Weights       string
	OutDir        string
	DBDir         string
	Resume        bool
	SnapshotEvery int

	LogLevel   string
	CPUProfile string
}

var config Config

func main() {
	flag.IntVar(&config.Episodes, "episodes", 12500, "total number of self-play episodes")
	flag.IntVar(&config.Depth, "depth", 2, "search depth per move")
	flag.IntVar(&config.MoveCap, "movecap", 1000, "plies after which a game is drawn")
	flag.StringVar(&config.Checkpoints, "checkpoints", "100,500,2500,12500", "episode counts at which weights are exported")
	flag.IntVar(&config.HiddenWidth, "hidden", 900, "units per hidden layer")
	flag.IntVar(&config.HiddenLayers, "layers", 3, "number of hidden layers")
	flag.StringVar(&config.HiddenActivation, "hidden-act", "tanh", "hidden activation (sigmoid, relu, leaky-relu, tanh)")
	flag.StringVar(&config.OutputActivation, "output-act", "sigmoid", "output activation")
	flag.Float64Var(&config.LearningRate, "lr", 0.1, "learning rate")
	flag.Float64Var(&config.Momentum, "momentum", 0, "momentum in [0, 1)")
	flag.Uint64Var(&config.Seed, "seed", 0, "weight initialisation seed, 0 for random")
	flag.StringVar(&config.Weights, "weights", "", "start from this weight file instead of the stored snapshot")
	flag.StringVar(&config.OutDir, "out", "", "directory for exported weight files (default: data dir)")
	flag.StringVar(&config.DBDir, "db", "", "run database directory (default: data dir)")
	flag.BoolVar(&config.Resume, "resume", true, "continue from the stored snapshot")
	flag.IntVar(&config.SnapshotEvery, "snapshot-every", 25, "store a snapshot every n episodes")
	flag.StringVar(&config.LogLevel, "log-level", "info", "log level")
	flag.StringVar(&config.CPUProfile, "cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	setupLogging(config.LogLevel)

	if config.CPUProfile != "" {
		f, err := os.Create(config.CPUProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	if err := run(config); err != nil {
		log.Error().Err(err).Msg("training failed")
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}

func run(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := networkSettings(cfg)
	if err != nil {
		return err
	}
	checkpoints, err := parseCheckpoints(cfg.Checkpoints)
	if err != nil {
		return err
	}
	outDir := cfg.OutDir
	if outDir == "" {
		if outDir, err = storage.GetWeightsDir(); err != nil {
			return err
		}
	} else if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	net, err := nnue.New(settings)
	if err != nil {
		return err
	}

	store, err := openStorage(cfg.DBDir)
	if err != nil {
		return err
	}
	defer store.Close()

	completed, err := restore(cfg, net, store)
	if err != nil {
		return err
	}

	tcfg := train.DefaultConfig()
	tcfg.Depth = cfg.Depth
	tcfg.MoveCap = cfg.MoveCap
	tcfg.Logger = log.Logger

	sup, err := train.NewSupervisor(tcfg, net, engine.NewSearcher(net, engine.DefaultScores()))
	if err != nil {
		return err
	}
	sup.SetEpisodes(completed)

	log.Info().
		Int("from", completed).
		Int("to", cfg.Episodes).
		Int("depth", cfg.Depth).
		Int("hidden", settings.HiddenWidth).
		Int("layers", settings.HiddenLayers).
		Str("out", outDir).
		Msg("training started")

	runErr := sup.Run(ctx, cfg.Episodes, func(res train.Result) error {
		completed = res.Episode
		if err := store.RecordEpisode(episodeRecord(res)); err != nil {
			return err
		}
		if checkpoints[res.Episode] {
			return checkpoint(store, net, outDir, res.Episode)
		}
		if cfg.SnapshotEvery > 0 && res.Episode%cfg.SnapshotEvery == 0 {
			return store.SaveSnapshot(res.Episode, net)
		}
		return nil
	})

	// Whatever happened, keep the weights of every completed episode.
	if err := store.SaveSnapshot(completed, net); err != nil {
		log.Error().Err(err).Msg("failed to store final snapshot")
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		path := filepath.Join(outDir, fmt.Sprintf("ann%d-aborted.ann", completed))
		if err := net.SaveWeightsFile(path); err != nil {
			log.Error().Err(err).Msg("failed to export weights")
		} else {
			log.Warn().Str("file", path).Msg("weights exported after abort")
		}
		return runErr
	}

	if stats, err := store.LoadStats(); err == nil {
		log.Info().
			Int("episodes", stats.Episodes).
			Int("white_wins", stats.WhiteWins).
			Int("black_wins", stats.BlackWins).
			Int("draws", stats.Draws).
			Float64("mean_plies", stats.MeanPlies()).
			Float64("last_loss", stats.LastLoss).
			Msg("training stopped")
	}
	return nil
}

func networkSettings(cfg Config) (nnue.Settings, error) {
	s := nnue.DefaultSettings()
	s.HiddenWidth = cfg.HiddenWidth
	s.HiddenLayers = cfg.HiddenLayers
	s.LearningRate = cfg.LearningRate
	s.Momentum = cfg.Momentum
	s.Seed = cfg.Seed

	var err error
	if s.HiddenActivation, err = nnue.ParseActivation(cfg.HiddenActivation); err != nil {
		return s, err
	}
	if s.OutputActivation, err = nnue.ParseActivation(cfg.OutputActivation); err != nil {
		return s, err
	}
	return s, s.Validate()
}

func parseCheckpoints(list string) (map[int]bool, error) {
	out := make(map[int]bool)
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n <= 0 {
			return nil, errors.Errorf("invalid checkpoint %q", field)
		}
		out[n] = true
	}
	return out, nil
}

func openStorage(dir string) (*storage.Storage, error) {
	if dir == "" {
		return storage.NewStorage()
	}
	return storage.Open(dir)
}

// restore loads the starting weights and returns the number of episodes
// they already include.
func restore(cfg Config, net *nnue.Network, store *storage.Storage) (int, error) {
	if cfg.Weights != "" {
		if err := net.LoadWeightsFile(cfg.Weights); err != nil {
			return 0, err
		}
		log.Info().Str("file", cfg.Weights).Msg("weights loaded")
		return 0, nil
	}
	if !cfg.Resume {
		return 0, nil
	}

	info, err := store.LoadSnapshot(net)
	if errors.Is(err, storage.ErrNotFound) {
		log.Info().Msg("no snapshot stored, starting from random weights")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	log.Info().Int("episode", info.Episode).Time("saved", info.SavedAt).Msg("resumed from snapshot")
	return info.Episode, nil
}

func checkpoint(store *storage.Storage, net *nnue.Network, dir string, episode int) error {
	path := filepath.Join(dir, fmt.Sprintf("ann%d.ann", episode))
	if err := net.SaveWeightsFile(path); err != nil {
		return err
	}
	if err := store.SaveCheckpoint(episode, net); err != nil {
		return err
	}
	if err := store.SaveSnapshot(episode, net); err != nil {
		return err
	}
	log.Info().Int("episode", episode).Str("file", path).Msg("checkpoint exported")
	return nil
}

func episodeRecord(res train.Result) storage.EpisodeRecord {
	return storage.EpisodeRecord{
		Episode:  res.Episode,
		Result:   res.Outcome.String(),
		Reason:   res.Reason.String(),
		Plies:    res.Plies,
		MeanLoss: res.MeanLoss,
		Duration: res.Duration,
		Moves:    res.Moves,
		SAN:      res.SAN,
		FinalFEN: res.FinalFEN,
	}
}
