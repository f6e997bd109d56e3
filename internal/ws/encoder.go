package ws

import (
	"go.uber.org/zap"

	"supplier-chat/internal/models"
	"supplier-chat/internal/observability"
)

// SendMessage writes a chat frame. It is dropped with a log line when the
// socket is not open.
func (c *Client) SendMessage(msg models.Message) {
	c.send(models.FrameChat, msg)
}

// SendTypingStatus writes a typing frame. It is dropped with a log line when
// the socket is not open.
func (c *Client) SendTypingStatus(isTyping bool) {
	c.send(models.FrameTyping, isTyping)
}

func (c *Client) sendPresence(status models.PresenceStatus) {
	c.send(models.FramePresence, status)
}

func (c *Client) send(frameType string, data any) {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if conn == nil || state != StateOpen {
		c.logger.Error("cannot send, chat socket is not open",
			zap.String("type", frameType),
			zap.Stringer("state", state),
		)
		observability.IncSendRefused(frameType)
		return
	}

	payload, err := models.EncodeFrame(frameType, data)
	if err != nil {
		c.logger.Error("error encoding frame", zap.String("type", frameType), zap.Error(err))
		return
	}
	if err := conn.write(payload); err != nil {
		c.logger.Error("error sending frame", zap.String("type", frameType), zap.Error(err))
		return
	}
	observability.IncFrameSent(frameType)
	c.logger.Debug("frame sent", zap.ByteString("frame", payload))
}
