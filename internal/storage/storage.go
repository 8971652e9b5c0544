package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hailam/selfchess/internal/nnue"
)

// ErrNotFound is returned when a requested snapshot or record does not exist.
var ErrNotFound = errors.New("not found")

// Storage keys
const (
	keyStats            = "stats"
	keySnapshotMeta     = "snapshot/meta"
	keySnapshot         = "snapshot/weights"
	prefixCheckpoint    = "checkpoint/"
	prefixEpisode       = "episode/"
	episodeKeyFormat    = prefixEpisode + "%010d"
	checkpointKeyFormat = prefixCheckpoint + "%010d"

	checkpointSettingsKeyFormat = "checkpoint-settings/%010d"
)

// SnapshotInfo describes the stored network snapshot.
type SnapshotInfo struct {
	Episode  int           `json:"episode"`
	Settings nnue.Settings `json:"settings"`
	SavedAt  time.Time     `json:"saved_at"`
}

// EpisodeRecord is the persisted summary of one training episode.
type EpisodeRecord struct {
	Episode  int           `json:"episode"`
	Result   string        `json:"result"` // "1-0", "0-1" or "1/2-1/2"
	Reason   string        `json:"reason"`
	Plies    int           `json:"plies"`
	MeanLoss float64       `json:"mean_loss"`
	Duration time.Duration `json:"duration"`
	Moves    []string      `json:"moves,omitempty"`
	SAN      []string      `json:"san,omitempty"`
	FinalFEN string        `json:"final_fen"`
	PlayedAt time.Time     `json:"played_at"`
}

// Stats aggregates every recorded episode of a run.
type Stats struct {
	Episodes   int            `json:"episodes"`
	WhiteWins  int            `json:"white_wins"`
	BlackWins  int            `json:"black_wins"`
	Draws      int            `json:"draws"`
	ByReason   map[string]int `json:"by_reason"`
	TotalPlies int            `json:"total_plies"`
	TotalTime  time.Duration  `json:"total_time"`
	LastLoss   float64        `json:"last_loss"`
}

// NewStats returns empty run statistics
func NewStats() *Stats {
	return &Stats{ByReason: make(map[string]int)}
}

// Add folds one episode into the statistics.
func (s *Stats) Add(rec EpisodeRecord) {
	s.count(rec, 1)
	s.LastLoss = rec.MeanLoss
}

// Remove takes back an episode previously folded in with Add.
func (s *Stats) Remove(rec EpisodeRecord) {
	s.count(rec, -1)
	if s.ByReason[rec.Reason] == 0 {
		delete(s.ByReason, rec.Reason)
	}
}

func (s *Stats) count(rec EpisodeRecord, sign int) {
	s.Episodes += sign
	switch rec.Result {
	case "1-0":
		s.WhiteWins += sign
	case "0-1":
		s.BlackWins += sign
	default:
		s.Draws += sign
	}
	if s.ByReason == nil {
		s.ByReason = make(map[string]int)
	}
	s.ByReason[rec.Reason] += sign
	s.TotalPlies += sign * rec.Plies
	s.TotalTime += time.Duration(sign) * rec.Duration
}

// DrawRate returns the share of drawn episodes as a percentage (0-100)
func (s *Stats) DrawRate() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.Draws) / float64(s.Episodes) * 100
}

// MeanPlies returns the average game length.
func (s *Stats) MeanPlies() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.Episodes)
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the run store in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve database directory")
	}
	return Open(dbDir)
}

// Open opens or creates a run store in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database in %s", dir)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot replaces the stored network with net's current weights.
func (s *Storage) SaveSnapshot(episode int, net *nnue.Network) error {
	var buf bytes.Buffer
	if err := net.SaveWeights(&buf); err != nil {
		return err
	}

	meta, err := json.Marshal(SnapshotInfo{
		Episode:  episode,
		Settings: net.Settings(),
		SavedAt:  time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot info")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keySnapshot), buf.Bytes()); err != nil {
			return err
		}
		return txn.Set([]byte(keySnapshotMeta), meta)
	})
	if err != nil {
		return errors.Wrap(err, "failed to save snapshot")
	}

	log.Debug().Int("episode", episode).Int("bytes", buf.Len()).Msg("snapshot saved")
	return nil
}

// LoadSnapshot loads the stored weights into net, which must have the
// stored shape. Returns ErrNotFound when no snapshot has been saved.
func (s *Storage) LoadSnapshot(net *nnue.Network) (SnapshotInfo, error) {
	var info SnapshotInfo
	var weights []byte

	err := s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, keySnapshotMeta, &info); err != nil {
			return err
		}
		var err error
		weights, err = getBytes(txn, keySnapshot)
		return err
	})
	if err != nil {
		return SnapshotInfo{}, err
	}

	if err := net.LoadWeights(bytes.NewReader(weights)); err != nil {
		return SnapshotInfo{}, errors.Wrapf(err, "snapshot from episode %d", info.Episode)
	}
	return info, nil
}

// SnapshotNetwork builds a network with the stored snapshot's shape and
// loads its weights.
func (s *Storage) SnapshotNetwork() (*nnue.Network, SnapshotInfo, error) {
	var info SnapshotInfo
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keySnapshotMeta, &info)
	})
	if err != nil {
		return nil, SnapshotInfo{}, err
	}
	net, err := nnue.New(info.Settings)
	if err != nil {
		return nil, SnapshotInfo{}, errors.Wrapf(err, "snapshot from episode %d", info.Episode)
	}
	if info, err = s.LoadSnapshot(net); err != nil {
		return nil, SnapshotInfo{}, err
	}
	return net, info, nil
}

// SaveCheckpoint stores net's weights and shape under the episode number,
// alongside the rolling snapshot.
func (s *Storage) SaveCheckpoint(episode int, net *nnue.Network) error {
	var buf bytes.Buffer
	if err := net.SaveWeights(&buf); err != nil {
		return err
	}
	settings, err := json.Marshal(net.Settings())
	if err != nil {
		return errors.Wrap(err, "failed to encode network settings")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(fmt.Sprintf(checkpointKeyFormat, episode)), buf.Bytes()); err != nil {
			return err
		}
		return txn.Set([]byte(fmt.Sprintf(checkpointSettingsKeyFormat, episode)), settings)
	})
	return errors.Wrapf(err, "failed to save checkpoint %d", episode)
}

// LoadCheckpoint loads the checkpoint taken at episode into net.
func (s *Storage) LoadCheckpoint(episode int, net *nnue.Network) error {
	var weights []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		weights, err = getBytes(txn, fmt.Sprintf(checkpointKeyFormat, episode))
		return err
	})
	if err != nil {
		return err
	}
	return net.LoadWeights(bytes.NewReader(weights))
}

// CheckpointNetwork builds a network with the shape the checkpoint taken at
// episode was saved with and loads its weights.
func (s *Storage) CheckpointNetwork(episode int) (*nnue.Network, error) {
	var settings nnue.Settings
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, fmt.Sprintf(checkpointSettingsKeyFormat, episode), &settings)
	})
	if err != nil {
		return nil, err
	}
	net, err := nnue.New(settings)
	if err != nil {
		return nil, errors.Wrapf(err, "checkpoint %d", episode)
	}
	if err := s.LoadCheckpoint(episode, net); err != nil {
		return nil, err
	}
	return net, nil
}

// Checkpoints lists the episode numbers with a stored checkpoint, in order.
func (s *Storage) Checkpoints() ([]int, error) {
	var episodes []int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixCheckpoint)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), prefixCheckpoint)
			n, err := strconv.Atoi(key)
			if err != nil {
				return errors.Wrapf(err, "bad checkpoint key %q", key)
			}
			episodes = append(episodes, n)
		}
		return nil
	})
	return episodes, err
}

// RecordEpisode stores rec and folds it into the run statistics in one
// transaction. A record already stored under the same episode number is
// replaced and its contribution to the statistics taken back.
func (s *Storage) RecordEpisode(rec EpisodeRecord) error {
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to encode episode record")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stats := NewStats()
		if err := getJSON(txn, keyStats, stats); err != nil && err != ErrNotFound {
			return err
		}
		key := fmt.Sprintf(episodeKeyFormat, rec.Episode)
		var prev EpisodeRecord
		switch err := getJSON(txn, key, &prev); err {
		case nil:
			stats.Remove(prev)
		case ErrNotFound:
		default:
			return err
		}
		stats.Add(rec)

		encoded, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(key), data); err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), encoded)
	})
	return errors.Wrapf(err, "failed to record episode %d", rec.Episode)
}

// Episode returns the record of episode n.
func (s *Storage) Episode(n int) (EpisodeRecord, error) {
	var rec EpisodeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, fmt.Sprintf(episodeKeyFormat, n), &rec)
	})
	return rec, err
}

// LoadStats loads run statistics, returns empty stats if none were recorded
func (s *Storage) LoadStats() (*Stats, error) {
	stats := NewStats()
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyStats, stats)
	})
	if err == ErrNotFound {
		return stats, nil
	}
	return stats, err
}

func getBytes(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", key)
	}
	return item.ValueCopy(nil)
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", key)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
