package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"supplier-chat/internal/middleware"
	"supplier-chat/internal/models"
	"supplier-chat/internal/observability"
	"supplier-chat/internal/presence"
	"supplier-chat/internal/repositories"
	"supplier-chat/internal/telemetry"
)

const maxFrameSize = 64 << 10

// WebSocketHandler accepts chat sockets and routes their frames.
type WebSocketHandler struct {
	hub       *Hub
	validator middleware.TokenValidator
	threads   repositories.ThreadRepository
	messages  repositories.MessageRepository
	presence  presence.Set
	audit     *telemetry.AuditEmitter
	logger    *zap.Logger
}

// NewWebSocketHandler constructs a WebSocketHandler.
func NewWebSocketHandler(hub *Hub, validator middleware.TokenValidator, threads repositories.ThreadRepository, messages repositories.MessageRepository, set presence.Set, audit *telemetry.AuditEmitter, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		threads:   threads,
		messages:  messages,
		presence:  set,
		audit:     audit,
		logger:    logger,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, upgrades the connection and serves it.
func (h *WebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("supplier-chat/relay").Start(c.Request.Context(), "ws.handshake", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	requestID := observability.RequestIDFromRequest(c.Request)
	userID, err := h.validator.ValidateToken(tokenFromRequest(c))
	if err != nil {
		observability.IncWSEvent("ws_rejected")
		h.audit.Emit(ctx, telemetry.LevelWarn, "websocket handshake rejected: "+err.Error(), requestID, 0)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	span.SetAttributes(attribute.Int64("user.id", userID))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	p := newPeer(conn, info)
	h.hub.add(p)

	observability.IncWSActive()
	publishWSEvent(ctx, info, "ws_connect", "")
	h.logger.Info("chat socket connected", zap.Int64("user_id", userID), zap.String("conn_id", info.ConnID))

	go h.serve(context.WithoutCancel(ctx), p)
}

func (h *WebSocketHandler) serve(ctx context.Context, p *peer) {
	var closeReason string
	defer func() {
		if h.hub.remove(p) {
			h.setOffline(ctx, p.info.UserID)
		}
		observability.DecWSActive()
		publishWSEvent(ctx, p.info, "ws_disconnect", closeReason)
		_ = p.conn.Close()
		h.logger.Info("chat socket disconnected", zap.Int64("user_id", p.info.UserID), zap.String("reason", closeReason))
	}()

	p.conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishWSEvent(ctx, p.info, "ws_error", closeReason)
			}
			return
		}
		h.route(ctx, p, data)
	}
}

func (h *WebSocketHandler) route(ctx context.Context, p *peer, data []byte) {
	var frame models.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Warn("invalid frame", zap.String("conn_id", p.info.ConnID), zap.Error(err))
		return
	}

	switch frame.Type {
	case models.FramePresence:
		var status models.PresenceStatus
		if err := json.Unmarshal(frame.Data, &status); err != nil {
			h.logger.Warn("invalid presence payload", zap.Error(err))
			return
		}
		h.onPresence(ctx, p, status)
	case models.FrameChat:
		var msg models.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			h.logger.Warn("invalid chat payload", zap.Error(err))
			return
		}
		h.onChat(ctx, p, msg)
	case models.FrameTyping:
		var isTyping bool
		if err := json.Unmarshal(frame.Data, &isTyping); err != nil {
			h.logger.Warn("invalid typing payload", zap.Error(err))
			return
		}
		h.onTyping(ctx, p, isTyping)
	default:
		h.logger.Warn("unknown frame type", zap.String("type", frame.Type))
	}
}

func (h *WebSocketHandler) onPresence(ctx context.Context, p *peer, status models.PresenceStatus) {
	userID := p.info.UserID
	switch status {
	case models.PresenceOnline:
		if err := h.presence.Add(ctx, userID); err != nil {
			h.logger.Error("presence add failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		if h.hub.markOnline(userID) {
			h.broadcastPresence(ctx, models.FramePresenceOnline, userID)
		}
		h.sendOnlineSnapshot(ctx, p)
	case models.PresenceOffline:
		h.setOffline(ctx, userID)
	default:
		h.logger.Warn("unknown presence status", zap.String("status", string(status)))
	}
}

func (h *WebSocketHandler) setOffline(ctx context.Context, userID int64) {
	if !h.hub.markOffline(userID) {
		return
	}
	if err := h.presence.Remove(ctx, userID); err != nil {
		h.logger.Error("presence remove failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	h.broadcastPresence(ctx, models.FramePresenceOffline, userID)
}

func (h *WebSocketHandler) broadcastPresence(ctx context.Context, frameType string, userID int64) {
	payload, err := models.EncodeFrame(frameType, userID)
	if err != nil {
		return
	}
	h.hub.Broadcast(ctx, payload, userID)
}

// sendOnlineSnapshot tells a newly online socket who else is online.
func (h *WebSocketHandler) sendOnlineSnapshot(ctx context.Context, p *peer) {
	members, err := h.presence.Members(ctx)
	if err != nil {
		h.logger.Error("presence members failed", zap.Error(err))
		return
	}
	for _, id := range members {
		if id == p.info.UserID {
			continue
		}
		payload, err := models.EncodeFrame(models.FramePresenceOnline, id)
		if err != nil {
			continue
		}
		if err := p.send(payload); err != nil {
			h.logger.Warn("websocket write error", zap.String("conn_id", p.info.ConnID), zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) onChat(ctx context.Context, p *peer, msg models.Message) {
	senderID := p.info.UserID
	if strings.TrimSpace(msg.Content) == "" {
		return
	}

	thread, err := h.threads.GetThread(ctx, msg.ThreadID)
	if err != nil {
		h.logger.Warn("chat for unknown thread", zap.Int64("thread_id", msg.ThreadID), zap.Error(err))
		return
	}
	if !thread.Has(senderID) {
		h.logger.Warn("chat from non participant", zap.Int64("thread_id", msg.ThreadID), zap.Int64("user_id", senderID))
		return
	}

	stored, err := h.messages.CreateMessage(ctx, models.Message{
		ThreadID:   thread.ID,
		Content:    msg.Content,
		SenderID:   senderID,
		ReceiverID: thread.Other(senderID),
		Status:     models.StatusSent,
	})
	if err != nil {
		h.logger.Error("failed to store message", zap.Int64("thread_id", thread.ID), zap.Error(err))
		return
	}

	payload, err := models.EncodeFrame(models.FrameChat, stored)
	if err != nil {
		return
	}
	h.hub.setLastPeer(senderID, stored.ReceiverID)
	h.hub.setLastPeer(stored.ReceiverID, senderID)
	h.hub.SendToUser(ctx, stored.ReceiverID, payload)
	h.hub.SendToUser(ctx, senderID, payload)
	observability.IncWSEvent("chat_message")
}

func (h *WebSocketHandler) onTyping(ctx context.Context, p *peer, isTyping bool) {
	target := h.hub.lastPeerOf(p.info.UserID)
	if target == 0 {
		return
	}
	payload, err := models.EncodeFrame(models.FrameTyping, isTyping)
	if err != nil {
		return
	}
	h.hub.SendToUser(ctx, target, payload)
}
