package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultRedisPrefix namespaces cache keys in a shared Redis instance.
const DefaultRedisPrefix = "netstash"

type redisKV struct {
	client *redis.Client
	prefix string
}

var _ KV = (*redisKV)(nil)

// envelope is the msgpack-encoded on-wire form of an Entry. The timestamp is
// kept alongside the payload because freshness is computed at read time, not
// delegated to Redis key expiry.
type envelope struct {
	Payload  []byte `msgpack:"p"`
	StoredAt int64  `msgpack:"s"` // unix millis
}

// NewRedis returns a KV engine backed by Redis. The caller owns the client
// lifecycle; Close does not close it. An empty prefix falls back to
// DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) KV {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &redisKV{client: client, prefix: prefix}
}

func (r *redisKV) key(key string) string {
	return r.prefix + ":" + key
}

func (r *redisKV) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Entry{}, false, err
	}
	return Entry{Key: key, Payload: env.Payload, StoredAt: time.UnixMilli(env.StoredAt)}, true, nil
}

func (r *redisKV) Put(ctx context.Context, e Entry) error {
	data, err := msgpack.Marshal(envelope{
		Payload:  e.Payload,
		StoredAt: e.StoredAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(e.Key), data, 0).Err()
}

func (r *redisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *redisKV) DeleteAll(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *redisKV) Close() error {
	return nil
}
