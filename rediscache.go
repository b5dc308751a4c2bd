package spacetravel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// snapshotTTL bounds how long a stale snapshot is kept in Redis. It is much
// longer than the freshness window on purpose: stale pages keep serving
// while regeneration catches up.
const snapshotTTL = 24 * time.Hour

// RedisStore is a SnapshotStore shared between instances, for deployments
// where more than one replica serves the same site.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisStore creates a RedisStore and verifies the connection.
func NewRedisStore(addr string) (*RedisStore, error) {
	s := &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ctx:    context.Background(),
	}
	if err := s.client.Ping(s.ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return s, nil
}

func snapshotKey(route string) string {
	return "snapshot:" + route
}

// Get returns the snapshot for route, or ErrNoSnapshot on a miss.
func (s *RedisStore) Get(route string) (Snapshot, error) {
	data, err := s.client.Get(s.ctx, snapshotKey(route)).Result()
	if err == redis.Nil {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Put stores a snapshot with the shared TTL.
func (s *RedisStore) Put(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(s.ctx, snapshotKey(snap.Route), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a snapshot by route.
func (s *RedisStore) Delete(route string) error {
	if err := s.client.Del(s.ctx, snapshotKey(route)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
