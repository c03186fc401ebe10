package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCredentialRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCredentialRepository stores each session's credentials in one hash
// whose expiry is pushed forward on every write.
func NewRedisCredentialRepository(client *redis.Client, prefix string, ttl time.Duration) CredentialRepository {
	return &redisCredentialRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisCredentialRepository) key(sessionID string) string {
	return r.prefix + ":credentials:" + sessionID
}

func (r *redisCredentialRepository) Get(ctx context.Context, sessionID, key string) (string, error) {
	value, err := r.client.HGet(ctx, r.key(sessionID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCredentialNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *redisCredentialRepository) Set(ctx context.Context, sessionID, key, value string) error {
	hashKey := r.key(sessionID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, hashKey, key, value)
	if r.ttl > 0 {
		pipe.Expire(ctx, hashKey, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisCredentialRepository) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.HDel(ctx, r.key(sessionID), keys...).Err()
}
