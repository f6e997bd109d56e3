package presence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const onlineKey = "chat:presence:online"

// Redis stores the online set in a Redis set so several relays share it.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to addr and checks the connection.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, key: onlineKey}, nil
}

func (r *Redis) Add(ctx context.Context, userID int64) error {
	return r.client.SAdd(ctx, r.key, userID).Err()
}

func (r *Redis) Remove(ctx context.Context, userID int64) error {
	return r.client.SRem(ctx, r.key, userID).Err()
}

// Members returns the online users in ascending order. Entries that are not
// user ids are skipped.
func (r *Redis) Members(ctx context.Context) ([]int64, error) {
	raw, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(raw))
	for _, member := range raw {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
