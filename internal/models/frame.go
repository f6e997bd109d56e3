package models

import "encoding/json"

// Frame types carried over the chat socket.
const (
	FramePresence        = "presence"
	FramePresenceOnline  = "presence:online"
	FramePresenceOffline = "presence:offline"
	FrameChat            = "chat"
	FrameTyping          = "typing"
)

// PresenceStatus is the payload of an outbound presence frame.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

// Frame is the envelope of every message exchanged over the socket.
// Data is kept raw until the type is known.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodeFrame wraps data into a frame of the given type.
func EncodeFrame(frameType string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Type: frameType, Data: payload})
}
