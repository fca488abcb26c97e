package cachestore

import (
	"context"
	"sync"
)

// MemoryStorage keeps generations in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	gens  map[string]*memoryGeneration
	order []string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{gens: make(map[string]*memoryGeneration)}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gens[name]; ok {
		return g, nil
	}
	g := &memoryGeneration{name: name, entries: make(map[string]*Entry)}
	s.gens[name] = g
	s.order = append(s.order, name)
	return g, nil
}

func (s *MemoryStorage) Has(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.gens[name]
	return ok, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gens[name]
	if !ok {
		return false, nil
	}
	g.detach()
	delete(s.gens, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

type memoryGeneration struct {
	name     string
	mu       sync.RWMutex
	entries  map[string]*Entry
	order    []string
	detached bool
}

func (g *memoryGeneration) Name() string { return g.name }

func (g *memoryGeneration) Match(_ context.Context, url string) (*Entry, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entries[url]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Clone(), nil
}

func (g *memoryGeneration) Put(_ context.Context, e *Entry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.detached {
		return ErrGenerationDeleted
	}
	if _, ok := g.entries[e.URL]; !ok {
		g.order = append(g.order, e.URL)
	}
	g.entries[e.URL] = e.Clone()
	return nil
}

func (g *memoryGeneration) Delete(_ context.Context, url string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.entries[url]; !ok {
		return false, nil
	}
	delete(g.entries, url)
	for i, u := range g.order {
		if u == url {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (g *memoryGeneration) Keys(_ context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...), nil
}

func (g *memoryGeneration) detach() {
	g.mu.Lock()
	g.detached = true
	g.entries = make(map[string]*Entry)
	g.order = nil
	g.mu.Unlock()
}
