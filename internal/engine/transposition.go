package engine

import (
	"github.com/hailam/selfchess/internal/board"
)

// TTEntry is the remembered outcome of searching one position.
type TTEntry struct {
	Move  board.Move // Best move found, NoMove for leaves and terminal nodes
	Value float64    // Value the search returned for the position
}

// TranspositionCache memoizes search results by Zobrist hash and counts how
// often each hash has been reached through played moves.
// It belongs to a single game and must be cleared between games.
type TranspositionCache struct {
	entries     map[uint64]TTEntry
	repetitions map[uint64]int

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionCache creates an empty cache.
func NewTranspositionCache() *TranspositionCache {
	return &TranspositionCache{
		entries:     make(map[uint64]TTEntry),
		repetitions: make(map[uint64]int),
	}
}

// Probe looks up a position in the cache.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tc *TranspositionCache) Probe(hash uint64) (TTEntry, bool) {
	tc.probes++
	entry, ok := tc.entries[hash]
	if ok {
		tc.hits++
	}
	return entry, ok
}

// Store saves a search result, replacing any earlier one for the same hash.
func (tc *TranspositionCache) Store(hash uint64, move board.Move, value float64) {
	tc.entries[hash] = TTEntry{Move: move, Value: value}
}

// RecordPlayed counts one more arrival at hash through an actual game move
// and returns the new count.
func (tc *TranspositionCache) RecordPlayed(hash uint64) int {
	tc.repetitions[hash]++
	return tc.repetitions[hash]
}

// Repetitions returns how many times hash has been reached in play.
func (tc *TranspositionCache) Repetitions(hash uint64) int {
	return tc.repetitions[hash]
}

// Clear empties both maps and resets the statistics.
func (tc *TranspositionCache) Clear() {
	clear(tc.entries)
	clear(tc.repetitions)
	tc.hits = 0
	tc.probes = 0
}

// Len returns the number of cached search results.
func (tc *TranspositionCache) Len() int {
	return len(tc.entries)
}

// HitRate returns the cache hit rate as a percentage.
func (tc *TranspositionCache) HitRate() float64 {
	if tc.probes == 0 {
		return 0
	}
	return float64(tc.hits) / float64(tc.probes) * 100
}
