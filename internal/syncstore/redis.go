package syncstore

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const saveTimeout = 5 * time.Second

// RedisStore implements Store on a Redis server. Blobs live under
// "{prefix}:{key}"; every save publishes on "{prefix}:{key}:changes" so
// sibling instances get a change notification without polling.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		MaxRetries: 3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	if prefix == "" {
		prefix = "cogwatch"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) blobKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisStore) channel(key string) string {
	return fmt.Sprintf("%s:%s:changes", r.prefix, key)
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.blobKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, r.blobKey(key), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	if err := r.client.Publish(ctx, r.channel(key), "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Watch(ctx context.Context, key string) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, r.channel(key))
	// Force the subscription before returning so saves made after Watch
	// are never missed.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe for %s: %w", key, err)
	}

	out := make(chan Change, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- Change{Key: key}:
				default:
					log.Printf("syncstore: dropping change notification for %s (watcher behind)", key)
				}
			}
		}
	}()

	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
