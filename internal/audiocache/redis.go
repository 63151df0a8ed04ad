package audiocache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajdesai17/agent-pa/internal/fingerprint"
)

const redisKeyPrefix = "audiocache:"

// redisStore keeps the index in Redis for deployments where the cache should
// outlive the host. Artifact files stay on local disk; only the index moves.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func redisKey(key fingerprint.Key) string {
	return redisKeyPrefix + string(key)
}

func (s *redisStore) Lookup(ctx context.Context, key fingerprint.Key) (*Entry, error) {
	val, err := s.client.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, err
	}
	if !entry.Valid() {
		_ = s.client.Del(ctx, redisKey(key)).Err()
		return nil, nil
	}

	// Refresh TTL on hit
	_ = s.client.Expire(ctx, redisKey(key), s.ttl).Err()
	return &entry, nil
}

func (s *redisStore) Insert(ctx context.Context, entry *Entry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(entry.Fingerprint), val, s.ttl).Err()
}

func (s *redisStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		stats.TotalEntries++
		val, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			continue
		}
		if entry.Valid() {
			stats.ValidEntries++
		}
	}
	return stats, iter.Err()
}

func (s *redisStore) EvictInvalid(ctx context.Context) (int, error) {
	evicted := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		val, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(val), &entry); err != nil || !entry.Valid() {
			if delErr := s.client.Del(ctx, iter.Val()).Err(); delErr == nil {
				evicted++
			}
		}
	}
	return evicted, iter.Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
