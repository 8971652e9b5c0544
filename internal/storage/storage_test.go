package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/hailam/selfchess/internal/board"
	"github.com/hailam/selfchess/internal/nnue"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func smallNetwork(t *testing.T, seed uint64) *nnue.Network {
	t.Helper()
	settings := nnue.DefaultSettings()
	settings.HiddenWidth = 4
	settings.HiddenLayers = 1
	settings.Seed = seed
	net, err := nnue.New(settings)
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestSnapshot(t *testing.T) {
	s := openTestStorage(t)

	t.Run("Missing", func(t *testing.T) {
		if _, err := s.LoadSnapshot(smallNetwork(t, 1)); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		src := smallNetwork(t, 1)
		if err := s.SaveSnapshot(42, src); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}

		dst := smallNetwork(t, 2)
		info, err := s.LoadSnapshot(dst)
		if err != nil {
			t.Fatalf("LoadSnapshot: %v", err)
		}
		if info.Episode != 42 {
			t.Errorf("Expected episode 42, got %d", info.Episode)
		}
		if info.Settings.HiddenWidth != 4 {
			t.Errorf("Expected hidden width 4, got %d", info.Settings.HiddenWidth)
		}
		pos := board.NewPosition()
		if src.Evaluate(pos) != dst.Evaluate(pos) {
			t.Error("loaded snapshot evaluates differently")
		}
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		settings := nnue.DefaultSettings()
		settings.HiddenWidth = 5
		settings.HiddenLayers = 1
		wrong, err := nnue.New(settings)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.LoadSnapshot(wrong); !errors.Is(err, nnue.ErrMalformedWeights) {
			t.Errorf("expected ErrMalformedWeights, got %v", err)
		}
	})
}

func TestCheckpoints(t *testing.T) {
	s := openTestStorage(t)
	nets := map[int]*nnue.Network{500: smallNetwork(t, 5), 100: smallNetwork(t, 1)}
	for ep, net := range nets {
		if err := s.SaveCheckpoint(ep, net); err != nil {
			t.Fatalf("SaveCheckpoint(%d): %v", ep, err)
		}
	}

	got, err := s.Checkpoints()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 100 || got[1] != 500 {
		t.Errorf("Checkpoints() = %v, want [100 500]", got)
	}

	dst := smallNetwork(t, 9)
	if err := s.LoadCheckpoint(500, dst); err != nil {
		t.Fatal(err)
	}
	pos := board.NewPosition()
	if dst.Evaluate(pos) != nets[500].Evaluate(pos) {
		t.Error("checkpoint 500 not restored")
	}

	if err := s.LoadCheckpoint(2500, dst); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoredNetworksKeepTheirShape(t *testing.T) {
	s := openTestStorage(t)
	pos := board.NewPosition()

	if _, _, err := s.SnapshotNetwork(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before any snapshot, got %v", err)
	}

	// Both nets differ from the default shape, so building from defaults
	// would fail to load them.
	src := smallNetwork(t, 11)
	if err := s.SaveSnapshot(3, src); err != nil {
		t.Fatal(err)
	}
	net, info, err := s.SnapshotNetwork()
	if err != nil {
		t.Fatalf("SnapshotNetwork: %v", err)
	}
	if info.Episode != 3 || net.Settings().HiddenWidth != 4 || net.Settings().HiddenLayers != 1 {
		t.Errorf("unexpected snapshot %+v with settings %+v", info, net.Settings())
	}
	if net.Evaluate(pos) != src.Evaluate(pos) {
		t.Error("snapshot network evaluates differently")
	}

	settings := nnue.DefaultSettings()
	settings.HiddenWidth = 6
	settings.HiddenLayers = 2
	settings.Seed = 12
	wide, err := nnue.New(settings)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCheckpoint(200, wide); err != nil {
		t.Fatal(err)
	}
	restored, err := s.CheckpointNetwork(200)
	if err != nil {
		t.Fatalf("CheckpointNetwork: %v", err)
	}
	if restored.Settings().HiddenWidth != 6 || restored.Settings().HiddenLayers != 2 {
		t.Errorf("unexpected checkpoint settings %+v", restored.Settings())
	}
	if restored.Evaluate(pos) != wide.Evaluate(pos) {
		t.Error("checkpoint network evaluates differently")
	}

	if _, err := s.CheckpointNetwork(300); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordEpisode(t *testing.T) {
	s := openTestStorage(t)

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Episodes != 0 || stats.DrawRate() != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	records := []EpisodeRecord{
		{Episode: 1, Result: "1/2-1/2", Reason: "threefold repetition", Plies: 8, MeanLoss: 0.01},
		{Episode: 2, Result: "0-1", Reason: "checkmate", Plies: 4, MeanLoss: 0.03, Moves: []string{"f2f3", "e7e5", "g2g4", "d8h4"}},
		{Episode: 3, Result: "1/2-1/2", Reason: "move cap", Plies: 1000, MeanLoss: 0.02},
		{Episode: 4, Result: "1-0", Reason: "checkmate", Plies: 12, MeanLoss: 0.04},
	}
	for _, rec := range records {
		if err := s.RecordEpisode(rec); err != nil {
			t.Fatalf("RecordEpisode(%d): %v", rec.Episode, err)
		}
	}

	stats, err = s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Episodes != 4 || stats.WhiteWins != 1 || stats.BlackWins != 1 || stats.Draws != 2 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.ByReason["checkmate"] != 2 {
		t.Errorf("Expected 2 checkmates, got %d", stats.ByReason["checkmate"])
	}
	if stats.DrawRate() != 50 {
		t.Errorf("Expected 50%% draw rate, got %.2f%%", stats.DrawRate())
	}
	if stats.MeanPlies() != 256 {
		t.Errorf("Expected 256 mean plies, got %v", stats.MeanPlies())
	}
	if stats.LastLoss != 0.04 {
		t.Errorf("Expected last loss 0.04, got %v", stats.LastLoss)
	}

	rec, err := s.Episode(2)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Reason != "checkmate" || len(rec.Moves) != 4 || rec.PlayedAt.IsZero() {
		t.Errorf("unexpected record %+v", rec)
	}
	if _, err := s.Episode(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordEpisodeReplacesEarlierRecord(t *testing.T) {
	s := openTestStorage(t)

	// A fresh run over an existing database numbers its episodes from 1 again.
	first := EpisodeRecord{Episode: 1, Result: "1-0", Reason: "checkmate", Plies: 10, MeanLoss: 0.2}
	second := EpisodeRecord{Episode: 1, Result: "1/2-1/2", Reason: "move cap", Plies: 30, MeanLoss: 0.1}
	for _, rec := range []EpisodeRecord{first, first, second} {
		if err := s.RecordEpisode(rec); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Episodes != 1 || stats.WhiteWins != 0 || stats.Draws != 1 || stats.TotalPlies != 30 {
		t.Errorf("stats do not match the single stored record: %+v", stats)
	}
	if _, ok := stats.ByReason["checkmate"]; ok || stats.ByReason["move cap"] != 1 {
		t.Errorf("unexpected reasons %v", stats.ByReason)
	}
	if stats.LastLoss != 0.1 {
		t.Errorf("Expected last loss 0.1, got %v", stats.LastLoss)
	}

	rec, err := s.Episode(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Reason != "move cap" || rec.Plies != 30 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot(7, smallNetwork(t, 3)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	info, err := s.LoadSnapshot(smallNetwork(t, 4))
	if err != nil {
		t.Fatal(err)
	}
	if info.Episode != 7 {
		t.Errorf("Expected episode 7 after reopen, got %d", info.Episode)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv(HomeEnv, "")
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if filepath.Base(dataDir) != appName {
		t.Errorf("Expected data dir to end in %s, got %s", appName, dataDir)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	weights, err := GetWeightsDir()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(weights); err != nil {
		t.Errorf("Weights directory was not created: %v", err)
	}
}

func TestDataPathsHomeOverride(t *testing.T) {
	home := filepath.Join(t.TempDir(), "run")
	t.Setenv(HomeEnv, home)

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatal(err)
	}
	if dataDir != home {
		t.Errorf("Expected %s, got %s", home, dataDir)
	}

	db, err := GetDatabaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if db != filepath.Join(home, "db") {
		t.Errorf("unexpected database dir %s", db)
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("Database directory was not created: %v", err)
	}
}
