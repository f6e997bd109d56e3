package models

import "time"

// MessageStatus is the delivery status of a chat message.
type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusSent    MessageStatus = "sent"
	StatusRead    MessageStatus = "read"
)

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusRead:
		return true
	}
	return false
}

// Message represents one chat line inside a thread.
// ID and CreatedAt stay empty until the server assigns them.
type Message struct {
	ID         int64         `db:"id" json:"id,omitempty"`
	ThreadID   int64         `db:"thread_id" json:"thread_id"`
	Content    string        `db:"content" json:"content"`
	SenderID   int64         `db:"sender_id" json:"sender_id"`
	ReceiverID int64         `db:"receiver_id" json:"receiver_id"`
	Status     MessageStatus `db:"status" json:"status"`
	CreatedAt  *time.Time    `db:"created_at" json:"created_at,omitempty"`
}

// Peer returns the other participant of the message from userID's point of view.
func (m Message) Peer(userID int64) int64 {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}
