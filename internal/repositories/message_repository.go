package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"supplier-chat/internal/models"
)

// MessageRepository defines interactions for thread messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ThreadMessages(ctx context.Context, threadID int64) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and returns it with id and timestamp set.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var stored models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (thread_id, sender_id, receiver_id, content, status)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, thread_id, sender_id, receiver_id, content, status, created_at`,
		msg.ThreadID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Status).StructScan(&stored)
	return stored, err
}

// ThreadMessages returns the messages of a thread in the order they were sent.
func (r *MessageRepo) ThreadMessages(ctx context.Context, threadID int64) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, thread_id, sender_id, receiver_id, content, status, created_at
        FROM messages WHERE thread_id=$1 ORDER BY created_at ASC, id ASC`, threadID)
	return msgs, err
}
