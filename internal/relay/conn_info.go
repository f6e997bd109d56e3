package relay

import (
	"context"
	"time"

	"supplier-chat/internal/observability"
)

// ConnInfo identifies one relay socket in lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// publishWSEvent counts a lifecycle event and publishes it to ws_events.
func publishWSEvent(ctx context.Context, info ConnInfo, event, reason string) {
	observability.IncWSEvent(event)
	_ = observability.PublishEvent(ctx, observability.RoutingKeyWSEvents, observability.WSEvent{
		Event:       event,
		ConnID:      info.ConnID,
		UserID:      info.UserID,
		DeviceID:    info.DeviceID,
		IP:          info.IP,
		ConnectedAt: info.ConnectedAt,
		Reason:      reason,
	}.Envelope(), observability.BuildHeaders(info.RequestID, info.TraceID))
}
