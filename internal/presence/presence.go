// Package presence tracks which users hold a live chat socket on the relay.
package presence

import (
	"context"
	"sort"
	"sync"
)

// Set is the relay-wide set of online users.
type Set interface {
	Add(ctx context.Context, userID int64) error
	Remove(ctx context.Context, userID int64) error
	Members(ctx context.Context) ([]int64, error)
}

// Memory is a process-local Set.
type Memory struct {
	mu    sync.RWMutex
	users map[int64]struct{}
}

// NewMemory returns an empty set.
func NewMemory() *Memory {
	return &Memory{users: make(map[int64]struct{})}
}

func (m *Memory) Add(ctx context.Context, userID int64) error {
	m.mu.Lock()
	m.users[userID] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(ctx context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.users, userID)
	m.mu.Unlock()
	return nil
}

// Members returns the online users in ascending order.
func (m *Memory) Members(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sortIDs(ids)
	return ids, nil
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
