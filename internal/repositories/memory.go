package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"supplier-chat/internal/models"
)

// Memory keeps threads, users and messages in process. The relay uses it
// when no database is configured.
type Memory struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	threads  map[int64]models.ThreadRecord
	messages map[int64][]models.Message
	nextThr  int64
	nextMsg  int64
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]models.User),
		threads:  make(map[int64]models.ThreadRecord),
		messages: make(map[int64][]models.Message),
		now:      time.Now,
	}
}

var (
	_ ThreadRepository  = (*Memory)(nil)
	_ MessageRepository = (*Memory)(nil)
)

func (m *Memory) UpsertUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *Memory) CreateOrGetThread(ctx context.Context, listingID, listingTitle string, buyerID, sellerID int64) (models.ThreadRecord, error) {
	if buyerID == sellerID {
		return models.ThreadRecord{}, ErrSelfThread
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.threads {
		if t.ListingID == listingID && t.BuyerID == buyerID && t.SellerID == sellerID {
			return t, nil
		}
	}
	m.nextThr++
	thread := models.ThreadRecord{
		ID:           m.nextThr,
		ListingID:    listingID,
		ListingTitle: listingTitle,
		BuyerID:      buyerID,
		SellerID:     sellerID,
		CreatedAt:    m.now(),
	}
	m.threads[thread.ID] = thread
	return thread, nil
}

func (m *Memory) GetThread(ctx context.Context, threadID int64) (models.ThreadRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	thread, ok := m.threads[threadID]
	if !ok {
		return models.ThreadRecord{}, ErrThreadNotFound
	}
	return thread, nil
}

func (m *Memory) IsParticipant(ctx context.Context, threadID, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	thread, ok := m.threads[threadID]
	return ok && thread.Has(userID), nil
}

func (m *Memory) ListThreads(ctx context.Context, userID int64) ([]models.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	threads := []models.Thread{}
	for _, t := range m.threads {
		if !t.Has(userID) {
			continue
		}
		peer := m.users[t.Other(userID)]
		summary := models.Thread{
			ThreadID:            t.ID,
			ListingID:           t.ListingID,
			ListingTitle:        t.ListingTitle,
			MessageTimestamp:    t.CreatedAt,
			CorrespondentID:     t.Other(userID),
			CorrespondentName:   peer.Name,
			CorrespondentAvatar: peer.Avatar,
		}
		if msgs := m.messages[t.ID]; len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			summary.LastMessage = last.Content
			summary.LastMessageStatus = last.Status
			summary.SenderID = last.SenderID
			summary.ReceiverID = last.ReceiverID
			if last.CreatedAt != nil {
				summary.MessageTimestamp = *last.CreatedAt
			}
		}
		threads = append(threads, summary)
	}
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].MessageTimestamp.Equal(threads[j].MessageTimestamp) {
			return threads[i].ThreadID > threads[j].ThreadID
		}
		return threads[i].MessageTimestamp.After(threads[j].MessageTimestamp)
	})
	return threads, nil
}

func (m *Memory) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.threads[msg.ThreadID]; !ok {
		return models.Message{}, ErrThreadNotFound
	}
	m.nextMsg++
	created := m.now()
	msg.ID = m.nextMsg
	msg.CreatedAt = &created
	m.messages[msg.ThreadID] = append(m.messages[msg.ThreadID], msg)
	return msg, nil
}

func (m *Memory) ThreadMessages(ctx context.Context, threadID int64) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Message{}, m.messages[threadID]...), nil
}
