// Package conversation drives one open chat thread on top of the shared
// chat socket and the conversation store.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"supplier-chat/internal/models"
	"supplier-chat/internal/store"
	"supplier-chat/internal/ws"
)

// ErrAlreadyOpen is returned by Open while another thread is open.
var ErrAlreadyOpen = errors.New("conversation already open")

// Socket is the part of the chat client a view drives.
type Socket interface {
	Connect(ctx context.Context) error
	Close(code int, reason string)
	SendMessage(msg models.Message)
	SendTypingStatus(isTyping bool)
}

// Subscriber registers chat message handlers.
type Subscriber interface {
	OnMessage(handler ws.MessageHandler) (unregister func())
}

// History loads the stored messages of a thread.
type History interface {
	ThreadMessages(ctx context.Context, threadID int64) ([]models.Message, error)
}

// Config wires a View to its collaborators.
type Config struct {
	UserID   int64
	Socket   Socket
	Messages Subscriber
	History  History
	Store    *store.Store
	Logger   *zap.Logger
}

// View is the consumer of the chat socket for one thread at a time.
type View struct {
	userID   int64
	socket   Socket
	messages Subscriber
	history  History
	store    *store.Store
	logger   *zap.Logger

	mu         sync.Mutex
	thread     models.Thread
	open       bool
	unregister func()
}

// New returns a closed view.
func New(cfg Config) *View {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{
		userID:   cfg.UserID,
		socket:   cfg.Socket,
		messages: cfg.Messages,
		history:  cfg.History,
		store:    cfg.Store,
		logger:   logger,
	}
}

// Open loads the thread history into the store, subscribes to chat messages
// of the thread and connects the socket. A history failure leaves the
// conversation empty. The Connect error is returned; after a dial failure
// the socket keeps reconnecting in the background.
func (v *View) Open(ctx context.Context, thread models.Thread) error {
	v.mu.Lock()
	if v.open {
		v.mu.Unlock()
		return ErrAlreadyOpen
	}
	v.open = true
	v.thread = thread
	v.mu.Unlock()

	messages, err := v.history.ThreadMessages(ctx, thread.ThreadID)
	if err != nil {
		v.logger.Error("failed to load thread history", zap.Int64("thread_id", thread.ThreadID), zap.Error(err))
		messages = nil
	}
	v.store.SetMessages(messages)

	unregister := v.messages.OnMessage(func(msg models.Message) {
		if msg.ThreadID != thread.ThreadID {
			return
		}
		v.store.AddMessage(msg)
	})
	v.mu.Lock()
	v.unregister = unregister
	v.mu.Unlock()

	if err := v.socket.Connect(ctx); err != nil {
		return fmt.Errorf("connect chat socket: %w", err)
	}
	return nil
}

// Send posts content to the open thread. Blank content is ignored. The
// message shows up in the store once the server echoes it back.
func (v *View) Send(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	v.mu.Lock()
	thread, open := v.thread, v.open
	v.mu.Unlock()
	if !open {
		v.logger.Warn("send without an open conversation")
		return
	}

	v.socket.SendMessage(models.Message{
		ThreadID:   thread.ThreadID,
		Content:    content,
		Status:     models.StatusSent,
		SenderID:   v.userID,
		ReceiverID: thread.CorrespondentID,
	})
}

// Typing forwards the local typing indicator.
func (v *View) Typing(isTyping bool) {
	v.socket.SendTypingStatus(isTyping)
}

// PeerOnline reports whether the correspondent of the open thread is online.
func (v *View) PeerOnline() bool {
	v.mu.Lock()
	peer := v.thread.CorrespondentID
	v.mu.Unlock()
	return v.store.IsOnline(peer)
}

// Messages returns the messages of the open thread.
func (v *View) Messages() []models.Message {
	return v.store.Messages()
}

// Close unsubscribes and closes the socket normally. Repeated calls are no-ops.
func (v *View) Close() {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	unregister := v.unregister
	v.open = false
	v.unregister = nil
	v.mu.Unlock()

	if unregister != nil {
		unregister()
	}
	v.socket.Close(websocket.CloseNormalClosure, "Normal Closure")
}
