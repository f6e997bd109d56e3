package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"supplier-chat/internal/models"
	"supplier-chat/internal/observability"
)

// PresenceSink receives presence changes announced by the server.
type PresenceSink interface {
	AddOnlineUser(userID int64)
	RemoveOnlineUser(userID int64)
}

// MessageHandler is invoked for every inbound chat message.
type MessageHandler func(models.Message)

// Dispatcher decodes inbound frames and routes them by type.
type Dispatcher struct {
	presence PresenceSink
	logger   *zap.Logger

	mu       sync.RWMutex
	handlers []registration
	nextID   uint64
}

type registration struct {
	id      uint64
	handler MessageHandler
}

// NewDispatcher creates a dispatcher feeding presence frames into presence.
func NewDispatcher(presence PresenceSink, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		presence: presence,
		logger:   logger,
	}
}

// OnMessage registers handler for chat frames. Handlers run in registration
// order. The returned func removes it and is safe to call more than once.
func (d *Dispatcher) OnMessage(handler MessageHandler) (unregister func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.handlers = append(d.handlers, registration{id: id, handler: handler})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, r := range d.handlers {
				if r.id == id {
					d.handlers = append(d.handlers[:i:i], d.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// HandlerCount returns the number of registered message handlers.
func (d *Dispatcher) HandlerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// Dispatch handles one raw inbound frame. Malformed and unknown frames are
// logged and dropped.
func (d *Dispatcher) Dispatch(raw []byte) {
	var frame models.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		d.logger.Error("error processing frame", zap.Error(err), zap.ByteString("frame", raw))
		observability.IncFrameReceived("malformed")
		return
	}

	switch frame.Type {
	case models.FramePresenceOnline, models.FramePresenceOffline:
		var userID int64
		if err := json.Unmarshal(frame.Data, &userID); err != nil {
			d.logger.Error("invalid presence payload", zap.String("type", frame.Type), zap.Error(err))
			return
		}
		d.handlePresence(frame.Type, userID)
	case models.FrameChat:
		var msg models.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			d.logger.Error("invalid chat payload", zap.Error(err))
			return
		}
		d.handleChat(msg)
	case models.FrameTyping:
		var isTyping bool
		if err := json.Unmarshal(frame.Data, &isTyping); err != nil {
			d.logger.Error("invalid typing payload", zap.Error(err))
			return
		}
		d.logger.Debug("peer typing", zap.Bool("typing", isTyping))
	default:
		d.logger.Warn("unknown frame type", zap.String("type", frame.Type))
		observability.IncFrameReceived("unknown")
		return
	}
	observability.IncFrameReceived(frame.Type)
}

func (d *Dispatcher) handlePresence(frameType string, userID int64) {
	if d.presence == nil {
		return
	}
	if frameType == models.FramePresenceOnline {
		d.presence.AddOnlineUser(userID)
		return
	}
	d.presence.RemoveOnlineUser(userID)
}

func (d *Dispatcher) handleChat(msg models.Message) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, r := range handlers {
		d.invoke(r.handler, msg)
	}
}

func (d *Dispatcher) invoke(h MessageHandler, msg models.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("message handler panicked", zap.Any("panic", r), zap.Int64("thread_id", msg.ThreadID))
		}
	}()
	h(msg)
}
