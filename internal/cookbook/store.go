// Package cookbook holds the user's saved recipes: an ordered, id-unique
// collection mirrored to durable storage on every change.
package cookbook

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/logging"
	"github.com/hpungsan/larder/internal/recipe"
)

// StorageKey is the durable storage key holding the serialized cookbook.
const StorageKey = "savedRecipes"

// Storage is the durable string key/value store the cookbook persists into.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// Store is the in-memory cookbook. Order is insertion order.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	logger  *zap.Logger
	entries []recipe.Recipe
}

// Open creates a store and loads any previously saved cookbook.
// A missing, unreadable or malformed blob yields an empty cookbook.
func Open(ctx context.Context, storage Storage, logger *zap.Logger) *Store {
	s := &Store{
		storage: storage,
		logger:  logging.OrNop(logger),
		entries: []recipe.Recipe{},
	}
	s.Load(ctx)
	return s
}

// Load replaces the in-memory collection with the durable copy.
// It never fails; problems are logged at debug level and leave the cookbook empty.
func (s *Store) Load(ctx context.Context) {
	entries := s.read(ctx)

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

func (s *Store) read(ctx context.Context) []recipe.Recipe {
	blob, ok, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Debug("cookbook read failed, starting empty", zap.Error(err))
		return []recipe.Recipe{}
	}
	if !ok || blob == "" {
		return []recipe.Recipe{}
	}

	var decoded []recipe.Recipe
	if err := json.Unmarshal([]byte(blob), &decoded); err != nil {
		s.logger.Debug("cookbook blob malformed, starting empty", zap.Error(err))
		return []recipe.Recipe{}
	}

	// Keep the first occurrence of each id; entries without an id are unusable.
	seen := make(map[string]bool, len(decoded))
	entries := make([]recipe.Recipe, 0, len(decoded))
	for _, r := range decoded {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		entries = append(entries, r)
	}
	return entries
}

// Add appends r unless a recipe with the same id is already saved.
// added is false for a duplicate, which is not an error.
func (s *Store) Add(ctx context.Context, r recipe.Recipe) (added bool, err error) {
	if r.ID == "" {
		return false, errors.NewInvalidRequest("recipe id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(r.ID) >= 0 {
		return false, nil
	}

	prev := s.entries
	next := make([]recipe.Recipe, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, r)

	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	s.logger.Debug("recipe saved", zap.String("id", r.ID), zap.Int("count", len(next)))
	return true, nil
}

// Remove deletes the entry with the given id. An unknown id is a no-op
// and does not touch durable storage.
func (s *Store) Remove(ctx context.Context, id string) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	next := make([]recipe.Recipe, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	next = append(next, s.entries[idx+1:]...)

	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	s.logger.Debug("recipe removed", zap.String("id", id), zap.Int("count", len(next)))
	return true, nil
}

// Clear empties the cookbook. It refuses unless confirmed is true.
func (s *Store) Clear(ctx context.Context, confirmed bool) (removed int, err error) {
	if !confirmed {
		return 0, errors.NewConfirmationRequired("clearing the cookbook")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if err := s.commit(ctx, []recipe.Recipe{}); err != nil {
		return 0, err
	}
	s.logger.Debug("cookbook cleared", zap.Int("removed", n))
	return n, nil
}

// Entries returns a copy of the saved recipes in insertion order.
func (s *Store) Entries() []recipe.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]recipe.Recipe, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the saved recipe with the given id.
func (s *Store) Get(id string) (recipe.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.entries[idx], true
	}
	return recipe.Recipe{}, false
}

// Contains reports whether a recipe with the given id is saved.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Len returns the number of saved recipes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// commit writes next to durable storage and, only on success, makes it the
// in-memory collection. Must be called with mu held.
func (s *Store) commit(ctx context.Context, next []recipe.Recipe) error {
	blob, err := json.Marshal(next)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("encode cookbook: %w", err))
	}
	if err := s.storage.Put(ctx, StorageKey, string(blob)); err != nil {
		s.logger.Warn("cookbook persist failed", zap.Error(err))
		return errors.NewStorageFailed(err)
	}
	s.entries = next
	return nil
}
