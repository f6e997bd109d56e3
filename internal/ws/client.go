package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"supplier-chat/internal/models"
	"supplier-chat/internal/observability"
	"supplier-chat/internal/session"
)

const (
	// DefaultMaxReconnectAttempts is the number of reconnects tried after
	// an abnormal close before the client gives up.
	DefaultMaxReconnectAttempts = 6
	// DefaultReconnectDelay is the base of the linear backoff.
	DefaultReconnectDelay = time.Second

	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

var (
	// ErrNoToken is returned by Connect when the session provider fails.
	ErrNoToken = errors.New("no session token")
	// ErrShutdown is returned by Connect after Shutdown.
	ErrShutdown = errors.New("chat client shut down")
)

// State is the lifecycle state of the chat socket.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Options configures a Client.
type Options struct {
	// URL is the socket base address; the client dials URL + "/ws".
	URL        string
	Tokens     session.Provider
	Dispatcher *Dispatcher
	Logger     *zap.Logger
	Dialer     *websocket.Dialer

	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	// PingInterval enables keepalive pings when positive.
	PingInterval time.Duration
}

// Client owns the single chat socket of the process. It reconnects with a
// linear backoff after abnormal closes and feeds inbound frames to its
// dispatcher from one reader goroutine, so frames are handled in arrival order.
type Client struct {
	endpoint     *url.URL
	tokens       session.Provider
	dispatcher   *Dispatcher
	logger       *zap.Logger
	dialer       *websocket.Dialer
	maxAttempts  int
	baseDelay    time.Duration
	pingInterval time.Duration

	mu       sync.Mutex
	conn     *connection
	state    State
	attempts int
	retry    *time.Timer
	shutdown bool
}

// NewClient validates opts and returns a closed client.
func NewClient(opts Options) (*Client, error) {
	if opts.Tokens == nil {
		return nil, errors.New("ws: token provider is required")
	}
	endpoint, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("ws: parse url: %w", err)
	}
	if endpoint.Scheme != "ws" && endpoint.Scheme != "wss" {
		return nil, fmt.Errorf("ws: unsupported scheme %q", endpoint.Scheme)
	}

	c := &Client{
		endpoint:     endpoint.JoinPath("ws"),
		tokens:       opts.Tokens,
		dispatcher:   opts.Dispatcher,
		logger:       opts.Logger,
		dialer:       opts.Dialer,
		maxAttempts:  opts.MaxReconnectAttempts,
		baseDelay:    opts.ReconnectDelay,
		pingInterval: opts.PingInterval,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.dispatcher == nil {
		c.dispatcher = NewDispatcher(nil, c.logger)
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		}
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxReconnectAttempts
	}
	if c.baseDelay <= 0 {
		c.baseDelay = DefaultReconnectDelay
	}
	return c, nil
}

// Dispatcher returns the dispatcher inbound frames are routed to.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of reconnects made since the last open.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Connect opens the socket. It is a no-op while a socket is open or being
// opened. A token failure aborts without dialing and without retrying. A dial
// failure is returned and handled like an abnormal close.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return ErrShutdown
	}
	switch c.state {
	case StateOpen:
		c.mu.Unlock()
		c.logger.Debug("chat socket already connected")
		return nil
	case StateConnecting:
		c.mu.Unlock()
		c.logger.Debug("chat socket connection already in progress")
		return nil
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	ctx, span := otel.Tracer("supplier-chat/ws").Start(ctx, "ws.connect", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Error("failed to initialize chat socket", zap.Error(err))
		span.SetStatus(codes.Error, "token unavailable")
		c.mu.Lock()
		c.setStateLocked(StateClosed)
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrNoToken, err)
	}

	wsConn, resp, err := c.dialer.DialContext(ctx, c.dialURL(token), nil)
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	if err != nil {
		c.logger.Error("chat socket error", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		c.handleClose(nil, websocket.CloseAbnormalClosure, err.Error())
		return fmt.Errorf("dial chat socket: %w", err)
	}

	c.handleOpen(wsConn)
	return nil
}

// Close announces the user offline and closes the socket with code and
// reason. Code 0 means a normal closure. Close is a no-op without an open
// socket. It does not cancel a reconnect that is already scheduled; use
// Shutdown for that.
func (c *Client) Close(code int, reason string) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	c.sendPresence(models.PresenceOffline)

	if code == 0 {
		code = websocket.CloseNormalClosure
	}
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	conn.markClosed(code, reason)
	c.conn = nil
	c.setStateLocked(StateClosed)
	c.mu.Unlock()

	conn.close(code, reason)
	c.logger.Info("chat socket closed by client", zap.Int("code", code), zap.String("reason", reason))
}

// Shutdown cancels any scheduled reconnect, closes the socket normally and
// makes later Connect calls fail.
func (c *Client) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	c.mu.Unlock()

	c.Close(websocket.CloseNormalClosure, "client shutdown")
}

func (c *Client) dialURL(token string) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) handleOpen(wsConn *websocket.Conn) {
	conn := newConnection(wsConn)

	c.mu.Lock()
	if c.shutdown {
		c.setStateLocked(StateClosed)
		c.mu.Unlock()
		wsConn.Close()
		return
	}
	c.conn = conn
	c.attempts = 0
	c.setStateLocked(StateOpen)
	c.mu.Unlock()

	c.logger.Info("chat socket connected", zap.String("url", c.endpoint.String()))

	go c.readLoop(conn)
	if c.pingInterval > 0 {
		go c.pingLoop(conn)
	}
	c.sendPresence(models.PresenceOnline)
}

func (c *Client) readLoop(conn *connection) {
	defer close(conn.done)

	if c.pingInterval > 0 {
		pongWait := 2 * c.pingInterval
		_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		conn.ws.SetPongHandler(func(string) error {
			return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			code, reason := closeStatus(err)
			c.handleClose(conn, code, reason)
			return
		}
		if c.pingInterval > 0 {
			_ = conn.ws.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		}
		c.dispatcher.Dispatch(data)
	}
}

func (c *Client) pingLoop(conn *connection) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			if err := conn.writeControl(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("keepalive ping failed", zap.Error(err))
				return
			}
		}
	}
}

// handleClose runs once per socket, or once per failed dial with conn nil.
func (c *Client) handleClose(conn *connection, code int, reason string) {
	c.mu.Lock()
	if conn != nil {
		if local, localCode, localReason := conn.closedWith(); local {
			code, reason = localCode, localReason
		} else if code == websocket.CloseAbnormalClosure {
			c.logger.Error("chat socket error", zap.String("error", reason))
		}
	}
	if conn == nil || c.conn == conn {
		c.conn = nil
		c.setStateLocked(StateClosed)
	}
	c.mu.Unlock()

	c.logger.Info("chat socket closed", zap.Int("code", code), zap.String("reason", reason))
	if code == websocket.CloseNormalClosure || code == websocket.CloseGoingAway {
		return
	}
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return
	}
	if c.retry != nil {
		c.logger.Debug("reconnect already scheduled")
		return
	}
	if c.attempts >= c.maxAttempts {
		c.logger.Error("max reconnect attempts reached, giving up", zap.Int("attempts", c.attempts))
		return
	}

	c.attempts++
	delay := time.Duration(c.attempts) * c.baseDelay
	c.logger.Info("reconnecting chat socket",
		zap.Int("attempt", c.attempts),
		zap.Int("max_attempts", c.maxAttempts),
		zap.Duration("delay", delay),
	)
	observability.IncReconnectAttempt()

	c.retry = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.retry = nil
		stopped := c.shutdown
		c.mu.Unlock()
		if stopped {
			return
		}
		if err := c.Connect(context.Background()); err != nil {
			c.logger.Warn("reconnect attempt failed", zap.Error(err))
		}
	})
}

func (c *Client) setStateLocked(s State) {
	c.state = s
	observability.SetConnectionState(int(s))
}

// closeStatus maps a read error to a close code. Anything that is not a
// close frame counts as an abnormal closure.
func closeStatus(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, closeErr.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
