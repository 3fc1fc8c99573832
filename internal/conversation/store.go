package conversation

import (
	"hash/fnv"
	"log/slog"
	"sync"
)

const shardCount = 32

// Store holds bounded conversation histories in memory for the process
// lifetime. Keys are never evicted; this is a documented tradeoff for a
// long-running single-process bot, not something the store papers over.
//
// Appends for the same key are serialized, different keys proceed in
// parallel. Lock striping keys by hash keeps contention low without a lock
// per key.
type Store struct {
	logger *slog.Logger
	shards [shardCount]storeShard
}

type storeShard struct {
	mu        sync.Mutex
	histories map[Key][]Turn
}

// NewStore creates an empty store.
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{logger: log.With(slog.String("service", "conversation_store"))}
	for i := range s.shards {
		s.shards[i].histories = make(map[Key][]Turn)
	}
	return s
}

func (s *Store) shard(key Key) *storeShard {
	h := fnv.New32a()
	h.Write([]byte(key.UserID))
	h.Write([]byte{0})
	h.Write([]byte(key.ChannelID))
	return &s.shards[h.Sum32()%shardCount]
}

// History returns a copy of the stored turns for key, oldest first. An unseen
// key yields an empty history.
func (s *Store) History(key Key) []Turn {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	stored := sh.histories[key]
	if len(stored) == 0 {
		return nil
	}
	out := make([]Turn, len(stored))
	copy(out, stored)
	return out
}

// Append records one completed exchange for key and trims the history to
// MaxTurns, dropping the oldest turns first. Both turns land atomically with
// respect to readers and other appends on the same key.
func (s *Store) Append(key Key, userTurn, assistantTurn Turn) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	history := append(sh.histories[key], userTurn, assistantTurn)
	if len(history) > MaxTurns {
		trimmed := make([]Turn, MaxTurns)
		copy(trimmed, history[len(history)-MaxTurns:])
		history = trimmed
	}
	sh.histories[key] = history

	s.logger.Debug("history appended",
		slog.String("user_id", key.UserID),
		slog.String("channel_id", key.ChannelID),
		slog.Int("turns", len(history)),
	)
}

// Len returns the number of turns currently stored for key.
func (s *Store) Len(key Key) int {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.histories[key])
}

// Keys returns the number of distinct conversation keys seen so far.
func (s *Store) Keys() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		total += len(sh.histories)
		sh.mu.Unlock()
	}
	return total
}
