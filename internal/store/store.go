package store

import (
	"sort"
	"sync"

	"supplier-chat/internal/models"
)

// Snapshot is an immutable copy of the store state handed to observers.
type Snapshot struct {
	Messages    []models.Message
	OnlineUsers map[int64]struct{}
}

// IsOnline reports whether userID is in the snapshot's presence set.
func (s Snapshot) IsOnline(userID int64) bool {
	_, ok := s.OnlineUsers[userID]
	return ok
}

// Observer receives a snapshot after every mutation.
type Observer func(Snapshot)

// Store holds the online users and the messages of the open conversation.
// All mutations go through its methods; each one publishes a snapshot to
// every observer, in mutation order. Observers must not mutate the store.
type Store struct {
	mu          sync.RWMutex
	messages    []models.Message
	onlineUsers map[int64]struct{}

	publishMu sync.Mutex
	observers map[uint64]Observer
	nextID    uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		onlineUsers: make(map[int64]struct{}),
		observers:   make(map[uint64]Observer),
	}
}

// Subscribe registers an observer and returns a func that removes it.
func (s *Store) Subscribe(observer Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = observer
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// SetMessages replaces the whole message sequence.
func (s *Store) SetMessages(messages []models.Message) {
	s.mutate(func() {
		s.messages = append([]models.Message(nil), messages...)
	})
}

// AddMessage appends one message. Duplicates are kept.
func (s *Store) AddMessage(message models.Message) {
	s.mutate(func() {
		s.messages = append(s.messages, message)
	})
}

// AddOnlineUser marks userID as online.
func (s *Store) AddOnlineUser(userID int64) {
	s.mutate(func() {
		s.onlineUsers[userID] = struct{}{}
	})
}

// RemoveOnlineUser marks userID as offline. Unknown ids are ignored.
func (s *Store) RemoveOnlineUser(userID int64) {
	s.mutate(func() {
		delete(s.onlineUsers, userID)
	})
}

// Messages returns a copy of the message sequence.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

// OnlineUsers returns the online user ids in ascending order.
func (s *Store) OnlineUsers() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.onlineUsers))
	for id := range s.onlineUsers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsOnline reports whether userID is currently online.
func (s *Store) IsOnline(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.onlineUsers[userID]
	return ok
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	online := make(map[int64]struct{}, len(s.onlineUsers))
	for id := range s.onlineUsers {
		online[id] = struct{}{}
	}
	return Snapshot{
		Messages:    append([]models.Message(nil), s.messages...),
		OnlineUsers: online,
	}
}

// mutate applies fn and publishes the resulting state. publishMu keeps
// publications in the same order as the mutations that produced them.
func (s *Store) mutate(fn func()) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	observers := make([]Observer, 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	s.mu.Unlock()

	for _, observer := range observers {
		observer(snap)
	}
}
