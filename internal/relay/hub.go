package relay

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// peer is the relay side of one chat socket.
type peer struct {
	conn    *websocket.Conn
	info    ConnInfo
	writeMu sync.Mutex
}

func newPeer(conn *websocket.Conn, info ConnInfo) *peer {
	return &peer{conn: conn, info: info}
}

func (p *peer) send(payload []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, payload)
}

func (p *peer) close(code int, reason string) {
	p.writeMu.Lock()
	_ = p.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	p.writeMu.Unlock()
	_ = p.conn.Close()
}

// Hub maintains the active chat sockets per user.
type Hub struct {
	mu       sync.RWMutex
	users    map[int64]map[*peer]struct{}
	online   map[int64]bool
	lastPeer map[int64]int64
	logger   *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		users:    make(map[int64]map[*peer]struct{}),
		online:   make(map[int64]bool),
		lastPeer: make(map[int64]int64),
		logger:   logger,
	}
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := p.info.UserID
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*peer]struct{})
	}
	h.users[userID][p] = struct{}{}
}

// remove drops p and reports whether it was the user's last socket.
func (h *Hub) remove(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := p.info.UserID
	conns, ok := h.users[userID]
	if !ok {
		return false
	}
	delete(conns, p)
	if len(conns) > 0 {
		return false
	}
	delete(h.users, userID)
	delete(h.lastPeer, userID)
	return true
}

// Connections returns the number of live sockets of userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// markOnline records an online announcement and reports whether it changed
// the user's state.
func (h *Hub) markOnline(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.online[userID] {
		return false
	}
	h.online[userID] = true
	return true
}

func (h *Hub) markOffline(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.online[userID] {
		return false
	}
	delete(h.online, userID)
	return true
}

func (h *Hub) setLastPeer(userID, peerID int64) {
	h.mu.Lock()
	h.lastPeer[userID] = peerID
	h.mu.Unlock()
}

func (h *Hub) lastPeerOf(userID int64) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastPeer[userID]
}

// SendToUser writes payload to every socket of userID.
func (h *Hub) SendToUser(ctx context.Context, userID int64, payload []byte) {
	h.mu.RLock()
	peers := make([]*peer, 0, len(h.users[userID]))
	for p := range h.users[userID] {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	h.write(ctx, peers, payload)
}

// Broadcast writes payload to every socket not owned by except.
func (h *Hub) Broadcast(ctx context.Context, payload []byte, except int64) {
	h.mu.RLock()
	var peers []*peer
	for userID, conns := range h.users {
		if userID == except {
			continue
		}
		for p := range conns {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()

	h.write(ctx, peers, payload)
}

// CloseAll closes every socket with a going-away status.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var peers []*peer
	for _, conns := range h.users {
		for p := range conns {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range peers {
		p.close(websocket.CloseGoingAway, "relay shutting down")
	}
}

// write sends to each peer. A failed peer is closed; its read loop then
// unregisters it.
func (h *Hub) write(ctx context.Context, peers []*peer, payload []byte) {
	for _, p := range peers {
		if err := p.send(payload); err != nil {
			h.logger.Warn("websocket write error", zap.String("conn_id", p.info.ConnID), zap.Error(err))
			_ = p.conn.Close()
			publishWSEvent(ctx, p.info, "ws_error", err.Error())
		}
	}
}
