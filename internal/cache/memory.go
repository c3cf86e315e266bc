package cache

import (
	"context"
	"encoding/json"
	"path"
	"sync"
)

// MemoryStore is a process-local Store backend with the same tagging
// semantics as the redis one. It backs local development without a
// redis instance and the engine's unit tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	tags map[string]map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
		tags: make(map[string]map[string]bool),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}, tags ...string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	for _, tag := range tags {
		if s.tags[tag] == nil {
			s.tags[tag] = make(map[string]bool)
		}
		s.tags[tag][key] = true
	}
	return nil
}

func (s *MemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *MemoryStore) DelPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.data, key)
		}
	}
	return nil
}

func (s *MemoryStore) InvalidateTag(ctx context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.tags[tag] {
		delete(s.data, key)
	}
	delete(s.tags, tag)
	return nil
}

// Has reports whether a key is present, bypassing deserialization.
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}
