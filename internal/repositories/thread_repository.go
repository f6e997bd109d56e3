package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"supplier-chat/internal/models"
)

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrSelfThread     = errors.New("cannot start a thread with yourself")
)

// ThreadRepository abstracts thread and participant persistence.
type ThreadRepository interface {
	UpsertUser(ctx context.Context, user models.User) error
	CreateOrGetThread(ctx context.Context, listingID, listingTitle string, buyerID, sellerID int64) (models.ThreadRecord, error)
	GetThread(ctx context.Context, threadID int64) (models.ThreadRecord, error)
	IsParticipant(ctx context.Context, threadID, userID int64) (bool, error)
	ListThreads(ctx context.Context, userID int64) ([]models.Thread, error)
}

// ThreadRepo is a sqlx implementation of ThreadRepository.
type ThreadRepo struct {
	db *sqlx.DB
}

// NewThreadRepo constructs a ThreadRepo.
func NewThreadRepo(db *sqlx.DB) *ThreadRepo {
	return &ThreadRepo{db: db}
}

// UpsertUser stores the display data of a user.
func (r *ThreadRepo) UpsertUser(ctx context.Context, user models.User) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (id, name, avatar) VALUES (:id, :name, :avatar)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, avatar = EXCLUDED.avatar`, user)
	return err
}

// CreateOrGetThread returns the thread of buyer and seller about a listing,
// creating it on first use.
func (r *ThreadRepo) CreateOrGetThread(ctx context.Context, listingID, listingTitle string, buyerID, sellerID int64) (models.ThreadRecord, error) {
	if buyerID == sellerID {
		return models.ThreadRecord{}, ErrSelfThread
	}

	var thread models.ThreadRecord
	err := r.db.GetContext(ctx, &thread, `SELECT id, listing_id, listing_title, buyer_id, seller_id, created_at
        FROM threads WHERE listing_id=$1 AND buyer_id=$2 AND seller_id=$3`, listingID, buyerID, sellerID)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ThreadRecord{}, err
	}

	err = r.db.QueryRowxContext(ctx, `INSERT INTO threads (listing_id, listing_title, buyer_id, seller_id)
        VALUES ($1, $2, $3, $4) RETURNING id, listing_id, listing_title, buyer_id, seller_id, created_at`,
		listingID, listingTitle, buyerID, sellerID).StructScan(&thread)
	return thread, err
}

// GetThread fetches a thread by id.
func (r *ThreadRepo) GetThread(ctx context.Context, threadID int64) (models.ThreadRecord, error) {
	var thread models.ThreadRecord
	err := r.db.GetContext(ctx, &thread, `SELECT id, listing_id, listing_title, buyer_id, seller_id, created_at FROM threads WHERE id=$1`, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ThreadRecord{}, ErrThreadNotFound
	}
	return thread, err
}

// IsParticipant checks whether a user belongs to the thread.
func (r *ThreadRepo) IsParticipant(ctx context.Context, threadID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM threads WHERE id=$1 AND (buyer_id=$2 OR seller_id=$2))`, threadID, userID)
	return exists, err
}

// ListThreads returns the thread summaries of a user, most recent activity first.
func (r *ThreadRepo) ListThreads(ctx context.Context, userID int64) ([]models.Thread, error) {
	query := `SELECT t.id AS thread_id, t.listing_id, t.listing_title,
            COALESCE(m.content, '') AS last_message,
            COALESCE(m.status, '') AS last_message_status,
            COALESCE(m.created_at, t.created_at) AS message_timestamp,
            COALESCE(m.sender_id, 0) AS sender_id,
            COALESCE(m.receiver_id, 0) AS receiver_id,
            c.id AS correspondent_id,
            COALESCE(u.name, '') AS correspondent_name,
            COALESCE(u.avatar, '') AS correspondent_avatar
        FROM threads t
        CROSS JOIN LATERAL (SELECT CASE WHEN t.buyer_id=$1 THEN t.seller_id ELSE t.buyer_id END AS id) c
        LEFT JOIN LATERAL (
            SELECT content, status, created_at, sender_id, receiver_id
            FROM messages WHERE thread_id = t.id
            ORDER BY created_at DESC, id DESC LIMIT 1
        ) m ON TRUE
        LEFT JOIN users u ON u.id = c.id
        WHERE t.buyer_id=$1 OR t.seller_id=$1
        ORDER BY message_timestamp DESC`
	threads := []models.Thread{}
	err := r.db.SelectContext(ctx, &threads, query, userID)
	return threads, err
}
