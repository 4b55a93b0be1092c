package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
)

// memoryInterestStore 内存版意向存储，Upsert 在一把锁内完成，等价于唯一索引+单条语句
type memoryInterestStore struct {
	mu      sync.Mutex
	nextID  uint
	byID    map[uint]*model.Interest
	now     func() time.Time
	failErr error
}

func newMemoryInterestStore() *memoryInterestStore {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	return &memoryInterestStore{
		byID: make(map[uint]*model.Interest),
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func (m *memoryInterestStore) findPairLocked(from, to string) *model.Interest {
	for _, it := range m.byID {
		if it.FromProfileID == from && it.ToProfileID == to {
			return it
		}
	}
	return nil
}

func (m *memoryInterestStore) Upsert(_ context.Context, from, to, message string) (*model.Interest, repository.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, 0, m.failErr
	}
	now := m.now()
	if it := m.findPairLocked(from, to); it != nil {
		if it.Status != model.InterestDeclined {
			cp := *it
			return &cp, repository.UpsertUnchanged, nil
		}
		it.Status = model.InterestPending
		it.RequestMessage = message
		it.ResponseMessage = ""
		it.UpdatedAt = now
		cp := *it
		return &cp, repository.UpsertReactivated, nil
	}
	m.nextID++
	it := &model.Interest{
		ID:             m.nextID,
		FromProfileID:  from,
		ToProfileID:    to,
		Status:         model.InterestPending,
		RequestMessage: message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.byID[it.ID] = it
	cp := *it
	return &cp, repository.UpsertCreated, nil
}

func (m *memoryInterestStore) GetByID(_ context.Context, id uint) (*model.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	it, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memoryInterestStore) FindByPair(_ context.Context, from, to string) (*model.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	it := m.findPairLocked(from, to)
	if it == nil {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memoryInterestStore) Respond(_ context.Context, id uint, responder string, status model.InterestStatus, message string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	it, ok := m.byID[id]
	if !ok || it.ToProfileID != responder || it.Status != model.InterestPending {
		return false, nil
	}
	it.Status = status
	it.ResponseMessage = message
	it.UpdatedAt = m.now()
	return true, nil
}

func (m *memoryInterestStore) Delete(_ context.Context, id uint, from string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	it, ok := m.byID[id]
	if !ok || it.FromProfileID != from {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func (m *memoryInterestStore) AcceptedTargets(_ context.Context, from string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, it := range m.byID {
		if it.FromProfileID == from && it.Status == model.InterestAccepted {
			out = append(out, it.ToProfileID)
		}
	}
	return out, nil
}

func (m *memoryInterestStore) AcceptedSenders(_ context.Context, to string, candidates []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		want[c] = true
	}
	var out []string
	for _, it := range m.byID {
		if it.ToProfileID == to && it.Status == model.InterestAccepted && want[it.FromProfileID] {
			out = append(out, it.FromProfileID)
		}
	}
	return out, nil
}

func (m *memoryInterestStore) List(_ context.Context, f repository.InterestFilter) ([]model.Interest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Interest
	for _, it := range m.byID {
		if f.FromProfileID != "" && it.FromProfileID != f.FromProfileID {
			continue
		}
		if f.ToProfileID != "" && it.ToProfileID != f.ToProfileID {
			continue
		}
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		all = append(all, *it)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	page := f.Page.Normalize()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memoryInterestStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// fakeProfiles 资料目录桩
type fakeProfiles struct {
	mu    sync.Mutex
	known map[string]bool
	err   error
}

func newFakeProfiles(ids ...string) *fakeProfiles {
	p := &fakeProfiles{known: make(map[string]bool)}
	for _, id := range ids {
		p.known[id] = true
	}
	return p
}

func (p *fakeProfiles) Exists(_ context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return false, p.err
	}
	return p.known[id], nil
}

var errBoom = errors.New("boom")
