package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"supplier-chat/internal/mocks"
	"supplier-chat/internal/models"
	"supplier-chat/internal/store"
	"supplier-chat/internal/ws"
)

var thread = models.Thread{ThreadID: 3, ListingID: "L-1", CorrespondentID: 7}

type fixture struct {
	view       *View
	socket     *mocks.SocketMock
	history    *mocks.HistoryMock
	dispatcher *ws.Dispatcher
	store      *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.New()
	f := &fixture{
		socket:     new(mocks.SocketMock),
		history:    new(mocks.HistoryMock),
		dispatcher: ws.NewDispatcher(s, nil),
		store:      s,
	}
	f.view = New(Config{
		UserID:   1,
		Socket:   f.socket,
		Messages: f.dispatcher,
		History:  f.history,
		Store:    s,
	})
	return f
}

func chatFrame(t *testing.T, msg models.Message) []byte {
	t.Helper()
	frame, err := models.EncodeFrame(models.FrameChat, msg)
	require.NoError(t, err)
	return frame
}

func TestOpenLoadsHistoryAndConnects(t *testing.T) {
	f := newFixture(t)
	history := []models.Message{{ID: 1, ThreadID: 3, Content: "hi", SenderID: 7, ReceiverID: 1, Status: models.StatusRead}}
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return(history, nil).Once()
	f.socket.On("Connect", mock.Anything).Return(nil).Once()

	require.NoError(t, f.view.Open(context.Background(), thread))

	assert.Equal(t, history, f.view.Messages())
	assert.Equal(t, 1, f.dispatcher.HandlerCount())
	f.history.AssertExpectations(t)
	f.socket.AssertExpectations(t)
}

func TestOpenWithHistoryFailureStartsEmpty(t *testing.T) {
	f := newFixture(t)
	f.store.AddMessage(models.Message{ThreadID: 99, Content: "stale"})
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return(nil, assert.AnError).Once()
	f.socket.On("Connect", mock.Anything).Return(nil).Once()

	require.NoError(t, f.view.Open(context.Background(), thread))
	assert.Empty(t, f.view.Messages())
}

func TestOpenReturnsConnectError(t *testing.T) {
	f := newFixture(t)
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return([]models.Message{}, nil).Once()
	f.socket.On("Connect", mock.Anything).Return(ws.ErrNoToken).Once()

	err := f.view.Open(context.Background(), thread)
	assert.ErrorIs(t, err, ws.ErrNoToken)
}

func TestOpenTwiceFails(t *testing.T) {
	f := newFixture(t)
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return([]models.Message{}, nil).Once()
	f.socket.On("Connect", mock.Anything).Return(nil).Once()

	require.NoError(t, f.view.Open(context.Background(), thread))
	assert.ErrorIs(t, f.view.Open(context.Background(), thread), ErrAlreadyOpen)
}

func TestInboundMessagesAreFilteredByThread(t *testing.T) {
	f := newFixture(t)
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return([]models.Message{}, nil).Once()
	f.socket.On("Connect", mock.Anything).Return(nil).Once()
	require.NoError(t, f.view.Open(context.Background(), thread))

	mine := models.Message{ID: 5, ThreadID: 3, Content: "in stock", SenderID: 7, ReceiverID: 1, Status: models.StatusSent}
	other := models.Message{ID: 6, ThreadID: 4, Content: "elsewhere", SenderID: 8, ReceiverID: 1, Status: models.StatusSent}
	f.dispatcher.Dispatch(chatFrame(t, mine))
	f.dispatcher.Dispatch(chatFrame(t, other))

	assert.Equal(t, []models.Message{mine}, f.view.Messages())
}

func TestSendBuildsMessageWithoutLocalAppend(t *testing.T) {
	f := newFixture(t)
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return([]models.Message{}, nil).Once()
	f.socket.On("Connect", mock.Anything).Return(nil).Once()
	require.NoError(t, f.view.Open(context.Background(), thread))

	want := models.Message{ThreadID: 3, Content: "is it available?", Status: models.StatusSent, SenderID: 1, ReceiverID: 7}
	f.socket.On("SendMessage", want).Return().Once()

	f.view.Send("  is it available?  ")
	f.view.Send("   ")

	f.socket.AssertExpectations(t)
	f.socket.AssertNumberOfCalls(t, "SendMessage", 1)
	assert.Empty(t, f.view.Messages())
}

func TestSendWithoutOpenConversationIsDropped(t *testing.T) {
	f := newFixture(t)
	f.view.Send("hello")
	f.socket.AssertNotCalled(t, "SendMessage", mock.Anything)
}

func TestTypingAndPeerPresence(t *testing.T) {
	f := newFixture(t)
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return([]models.Message{}, nil).Once()
	f.socket.On("Connect", mock.Anything).Return(nil).Once()
	f.socket.On("SendTypingStatus", true).Return().Once()
	require.NoError(t, f.view.Open(context.Background(), thread))

	f.view.Typing(true)
	assert.False(t, f.view.PeerOnline())

	f.dispatcher.Dispatch([]byte(`{"type":"presence:online","data":7}`))
	assert.True(t, f.view.PeerOnline())

	f.socket.AssertExpectations(t)
}

func TestCloseUnregistersAndClosesNormally(t *testing.T) {
	f := newFixture(t)
	f.history.On("ThreadMessages", mock.Anything, int64(3)).Return([]models.Message{}, nil).Once()
	f.socket.On("Connect", mock.Anything).Return(nil).Once()
	f.socket.On("Close", 1000, "Normal Closure").Return().Once()
	require.NoError(t, f.view.Open(context.Background(), thread))

	f.view.Close()
	f.view.Close()

	assert.Zero(t, f.dispatcher.HandlerCount())
	f.socket.AssertNumberOfCalls(t, "Close", 1)

	f.dispatcher.Dispatch(chatFrame(t, models.Message{ThreadID: 3, Content: "late"}))
	assert.Empty(t, f.view.Messages())
}
