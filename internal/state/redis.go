package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/set-night/relaybot/internal/domain"
)

const (
	loginKeyPrefix = "relaybot:login:"
	draftKeyPrefix = "relaybot:draft:"
)

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between replicas. Keys outlive the session TTLs by retention so the
// expiry can still be reported to the user.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func loginKey(userID int64) string {
	return fmt.Sprintf("%s%d", loginKeyPrefix, userID)
}

func draftKey(userID int64) string {
	return fmt.Sprintf("%s%d", draftKeyPrefix, userID)
}

func (r *RedisStore) SavePendingLogin(ctx context.Context, login domain.PendingLogin) error {
	data, err := json.Marshal(login)
	if err != nil {
		return fmt.Errorf("encode pending login: %w", err)
	}
	return r.client.Set(ctx, loginKey(login.UserID), data, r.retention).Err()
}

func (r *RedisStore) TakePendingLogin(ctx context.Context, userID int64) (*domain.PendingLogin, error) {
	data, err := r.client.GetDel(ctx, loginKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoPendingLogin
	}
	if err != nil {
		return nil, fmt.Errorf("take pending login: %w", err)
	}
	var login domain.PendingLogin
	if err := json.Unmarshal(data, &login); err != nil {
		return nil, fmt.Errorf("decode pending login: %w", err)
	}
	return &login, nil
}

func (r *RedisStore) DeletePendingLogin(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, loginKey(userID)).Err()
}

func (r *RedisStore) SaveDraft(ctx context.Context, draft domain.Draft) error {
	data, err := encodeDraft(draft)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, draftKey(draft.Meta().UserID), data, r.retention).Err()
}

func (r *RedisStore) GetDraft(ctx context.Context, userID int64) (domain.Draft, error) {
	data, err := r.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return decodeDraft(data)
}

func (r *RedisStore) DeleteDraft(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, draftKey(userID)).Err()
}
