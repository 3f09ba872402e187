package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pinyinmatch/internal/bulk"
	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/repository"

	"go.uber.org/zap"
)

const wordsKey = "pinyin-english-pairs"

// WordStore owns the ordered list of word pairs and persists it after every
// mutation. When persisting fails the in-memory list keeps its prior state.
type WordStore struct {
	store  repository.KVStore
	logger *zap.Logger

	mu    sync.Mutex
	pairs []domain.WordPair
}

// NewWordStore creates an empty word store backed by store
func NewWordStore(store repository.KVStore, logger *zap.Logger) *WordStore {
	return &WordStore{
		store:  store,
		logger: logger,
		pairs:  []domain.WordPair{},
	}
}

// Load reads the persisted list. Missing or malformed data yields an empty list.
func (s *WordStore) Load(ctx context.Context) ([]domain.WordPair, error) {
	raw, ok, err := s.store.Get(ctx, wordsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load word pairs: %w", err)
	}

	pairs := []domain.WordPair{}
	if ok {
		pairs = s.decode(raw)
	}

	s.mu.Lock()
	s.pairs = pairs
	s.mu.Unlock()

	return clonePairs(pairs), nil
}

// decode keeps entries exactly as stored; only Add validates sides.
func (s *WordStore) decode(raw string) []domain.WordPair {
	var stored []domain.WordPair
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("Discarding malformed word list", zap.Error(err))
		return []domain.WordPair{}
	}
	if stored == nil {
		return []domain.WordPair{}
	}
	return stored
}

// Pairs returns a copy of the current list
func (s *WordStore) Pairs() []domain.WordPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePairs(s.pairs)
}

// Len returns the number of pairs
func (s *WordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairs)
}

// Save replaces the whole list
func (s *WordStore) Save(ctx context.Context, pairs []domain.WordPair) error {
	return s.mutate(ctx, func([]domain.WordPair) ([]domain.WordPair, error) {
		return clonePairs(pairs), nil
	})
}

// Add appends a pair after trimming both sides
func (s *WordStore) Add(ctx context.Context, pair domain.WordPair) error {
	pair, err := domain.NewWordPair(pair.Pinyin, pair.English)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(cur []domain.WordPair) ([]domain.WordPair, error) {
		return append(cur, pair), nil
	})
}

// RemoveAt deletes the pair at index
func (s *WordStore) RemoveAt(ctx context.Context, index int) error {
	return s.mutate(ctx, func(cur []domain.WordPair) ([]domain.WordPair, error) {
		if index < 0 || index >= len(cur) {
			return nil, fmt.Errorf("remove pair %d of %d: %w", index, len(cur), domain.ErrIndexOutOfRange)
		}
		return append(cur[:index], cur[index+1:]...), nil
	})
}

// Clear removes every pair
func (s *WordStore) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]domain.WordPair) ([]domain.WordPair, error) {
		return []domain.WordPair{}, nil
	})
}

// AddBulk parses text and appends every parsed pair. Nothing is persisted
// when no line parses.
func (s *WordStore) AddBulk(ctx context.Context, text string) (bulk.Result, error) {
	res := bulk.Parse(text)
	if res.Added == 0 {
		return res, nil
	}

	err := s.mutate(ctx, func(cur []domain.WordPair) ([]domain.WordPair, error) {
		return append(cur, res.Pairs...), nil
	})
	if err != nil {
		return bulk.Result{}, err
	}
	return res, nil
}

// mutate applies fn to a copy of the list and commits it only once persisted
func (s *WordStore) mutate(ctx context.Context, fn func([]domain.WordPair) ([]domain.WordPair, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(clonePairs(s.pairs))
	if err != nil {
		return err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode word pairs: %w", err)
	}
	if err := s.store.Set(ctx, wordsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save word pairs: %w", err)
	}

	s.pairs = next
	return nil
}

func clonePairs(pairs []domain.WordPair) []domain.WordPair {
	out := make([]domain.WordPair, len(pairs))
	copy(out, pairs)
	return out
}
