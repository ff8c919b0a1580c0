// Package memory provides an in-process store used by tests and dev mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
)

// New returns an empty in-memory store.
func New() store.Store {
	return &memStore{
		entries: make(map[string]map[model.Date]*model.MoodEntry),
		stats:   make(map[string]*model.UserStats),
	}
}

type memStore struct {
	mu      sync.RWMutex
	entries map[string]map[model.Date]*model.MoodEntry
	stats   map[string]*model.UserStats
}

func (s *memStore) Entries() store.Entries { return &entries{s} }
func (s *memStore) Stats() store.Stats     { return &stats{s} }

// HealthPing implements health.HealthPinger; the in-memory store is always up.
func (s *memStore) HealthPing(ctx context.Context) error { return ctx.Err() }

type entries struct{ p *memStore }

func (e *entries) Get(ctx context.Context, userID string, date model.Date) (*model.MoodEntry, error) {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	if m, ok := e.p.entries[userID]; ok {
		if ent, ok := m[date]; ok {
			cp := *ent
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (e *entries) GetByID(ctx context.Context, userID, entryID string) (*model.MoodEntry, error) {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	for _, ent := range e.p.entries[userID] {
		if ent.EntryID == entryID {
			cp := *ent
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (e *entries) GetAll(ctx context.Context, userID string) ([]*model.MoodEntry, error) {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	res := make([]*model.MoodEntry, 0, len(e.p.entries[userID]))
	for _, ent := range e.p.entries[userID] {
		cp := *ent
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res, nil
}

func (e *entries) Put(ctx context.Context, ent *model.MoodEntry) error {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	m, ok := e.p.entries[ent.UserID]
	if !ok {
		m = make(map[model.Date]*model.MoodEntry)
		e.p.entries[ent.UserID] = m
	}
	cp := *ent
	m[ent.Date] = &cp
	return nil
}

func (e *entries) Delete(ctx context.Context, userID string, date model.Date) error {
	e.p.mu.Lock()
	defer e.p.mu.Unlock()
	m, ok := e.p.entries[userID]
	if !ok {
		return model.ErrNotFound
	}
	if _, ok := m[date]; !ok {
		return model.ErrNotFound
	}
	delete(m, date)
	return nil
}

type stats struct{ p *memStore }

func (s *stats) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	s.p.mu.RLock()
	defer s.p.mu.RUnlock()
	if st, ok := s.p.stats[userID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (s *stats) Put(ctx context.Context, userID string, st *model.UserStats) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	cp := *st
	s.p.stats[userID] = &cp
	return nil
}
