package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	clientFramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_chat_client_frames_received_total",
			Help: "Total number of inbound frames handled by the chat client.",
		},
		[]string{"type"},
	)
	clientFramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_chat_client_frames_sent_total",
			Help: "Total number of frames written by the chat client.",
		},
		[]string{"type"},
	)
	clientSendsRefused = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_chat_client_sends_refused_total",
			Help: "Total number of sends refused because the connection was not open.",
		},
		[]string{"type"},
	)
	clientReconnectAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supplier_chat_client_reconnect_attempts_total",
			Help: "Total number of scheduled reconnect attempts.",
		},
	)
	clientConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "supplier_chat_client_connection_state",
			Help: "Connection state of the chat client (0 closed, 1 connecting, 2 open).",
		},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the relay.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supplier_chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "supplier_chat_ws_active_connections",
			Help: "Number of active websocket connections on the relay.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_chat_ws_events_total",
			Help: "Total number of websocket lifecycle events on the relay.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supplier_chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		clientFramesReceived,
		clientFramesSent,
		clientSendsRefused,
		clientReconnectAttempts,
		clientConnectionState,
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncFrameReceived(frameType string) {
	clientFramesReceived.WithLabelValues(frameType).Inc()
}

func IncFrameSent(frameType string) {
	clientFramesSent.WithLabelValues(frameType).Inc()
}

func IncSendRefused(frameType string) {
	clientSendsRefused.WithLabelValues(frameType).Inc()
}

func IncReconnectAttempt() {
	clientReconnectAttempts.Inc()
}

func SetConnectionState(state int) {
	clientConnectionState.Set(float64(state))
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
