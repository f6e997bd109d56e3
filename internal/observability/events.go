package observability

import "time"

// Routing keys for relay websocket events.
const (
	RoutingKeyWSEvents = "ws_events.chat"
	RoutingKeyAudit    = "audit.chat"
)

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// WSEvent describes one websocket lifecycle event on the relay.
type WSEvent struct {
	Event       string
	ConnID      string
	UserID      int64
	DeviceID    string
	IP          string
	ConnectedAt time.Time
	Reason      string
}

// Envelope renders the event in the shape consumers of ws_events expect.
func (e WSEvent) Envelope() EventEnvelope {
	var duration int64
	if !e.ConnectedAt.IsZero() {
		duration = time.Since(e.ConnectedAt).Milliseconds()
	}
	return EventEnvelope{
		EventType: "ws_events",
		EventName: e.Event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "chat",
				"event":       e.Event,
				"conn_id":     e.ConnID,
				"duration_ms": duration,
				"reason":      e.Reason,
			},
			"identity": map[string]interface{}{
				"user_id":   e.UserID,
				"device_id": e.DeviceID,
				"ip":        e.IP,
			},
		},
	}
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
