package observability

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supplier-chat/internal/config"
)

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

func TestPublishEventWithoutPublisher(t *testing.T) {
	SetPublisher(nil)
	assert.NoError(t, PublishEvent(context.Background(), RoutingKeyWSEvents, EventEnvelope{}, nil))
}

func TestPublishEventDelegates(t *testing.T) {
	publisher := &recordingPublisher{err: assert.AnError}
	SetPublisher(publisher)
	defer SetPublisher(nil)

	err := PublishEvent(context.Background(), RoutingKeyWSEvents, EventEnvelope{}, nil)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{RoutingKeyWSEvents}, publisher.keys)
}

func TestWSEventEnvelope(t *testing.T) {
	env := WSEvent{Event: "ws_connect", ConnID: "c1", UserID: 7, ConnectedAt: time.Now()}.Envelope()

	assert.Equal(t, "ws_events", env.EventType)
	assert.Equal(t, "ws_connect", env.EventName)
	payload := env.Payload.(map[string]interface{})
	identity := payload["identity"].(map[string]interface{})
	assert.Equal(t, int64(7), identity["user_id"])
}

func TestBuildHeaders(t *testing.T) {
	assert.Empty(t, BuildHeaders("", ""))
	assert.Equal(t, map[string]string{"x-request-id": "r", "trace_id": "t"}, BuildHeaders("r", "t"))
}

func TestRequestHelpers(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", IPFromRequest(req))
	assert.NotEmpty(t, RequestIDFromRequest(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	req.Header.Set("X-Request-Id", "req-1")
	assert.Equal(t, "1.2.3.4", IPFromRequest(req))
	assert.Equal(t, "req-1", RequestIDFromRequest(req))
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{}, "test", zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
