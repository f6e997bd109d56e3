package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplier-chat/internal/models"
)

func msg(content string) models.Message {
	return models.Message{ThreadID: 1, Content: content, SenderID: 7, ReceiverID: 1, Status: models.StatusSent}
}

func TestAddOnlineUserIsIdempotent(t *testing.T) {
	s := New()

	s.AddOnlineUser(5)
	s.AddOnlineUser(5)

	assert.Equal(t, []int64{5}, s.OnlineUsers())
	assert.True(t, s.IsOnline(5))
}

func TestRemoveOnlineUserOnEmptySet(t *testing.T) {
	s := New()

	require.NotPanics(t, func() { s.RemoveOnlineUser(5) })
	assert.Empty(t, s.OnlineUsers())

	s.AddOnlineUser(5)
	s.RemoveOnlineUser(5)
	s.RemoveOnlineUser(5)
	assert.False(t, s.IsOnline(5))
}

func TestAddMessagePreservesOrder(t *testing.T) {
	s := New()

	a, b, c := msg("a"), msg("b"), msg("c")
	s.AddMessage(a)
	s.AddMessage(b)
	s.AddMessage(c)

	assert.Equal(t, []models.Message{a, b, c}, s.Messages())
}

func TestAddMessageKeepsDuplicates(t *testing.T) {
	s := New()

	m := msg("dup")
	m.ID = 9
	s.AddMessage(m)
	s.AddMessage(m)

	assert.Len(t, s.Messages(), 2)
}

func TestSetMessagesReplaces(t *testing.T) {
	s := New()
	s.AddMessage(msg("old"))

	history := []models.Message{msg("h1"), msg("h2")}
	s.SetMessages(history)
	assert.Equal(t, history, s.Messages())

	history[0].Content = "changed by caller"
	assert.Equal(t, "h1", s.Messages()[0].Content)

	s.SetMessages(nil)
	assert.Empty(t, s.Messages())
}

func TestObserversSeeEveryMutation(t *testing.T) {
	s := New()

	var snaps []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) { snaps = append(snaps, snap) })

	s.AddOnlineUser(7)
	s.AddMessage(msg("hi"))
	s.RemoveOnlineUser(7)

	require.Len(t, snaps, 3)
	assert.True(t, snaps[0].IsOnline(7))
	assert.Empty(t, snaps[0].Messages)
	assert.Len(t, snaps[1].Messages, 1)
	assert.False(t, snaps[2].IsOnline(7))

	unsubscribe()
	unsubscribe()
	s.AddOnlineUser(8)
	assert.Len(t, snaps, 3)
}

func TestObserverCanReadStore(t *testing.T) {
	s := New()

	var seen []int64
	s.Subscribe(func(Snapshot) { seen = s.OnlineUsers() })

	s.AddOnlineUser(3)
	assert.Equal(t, []int64{3}, seen)
}

func TestIndependentInstances(t *testing.T) {
	a, b := New(), New()
	a.AddOnlineUser(1)

	assert.True(t, a.IsOnline(1))
	assert.False(t, b.IsOnline(1))
}

func TestConcurrentMutations(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.AddOnlineUser(id)
			s.AddMessage(msg("x"))
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, s.OnlineUsers(), 50)
	assert.Len(t, s.Messages(), 50)
}
