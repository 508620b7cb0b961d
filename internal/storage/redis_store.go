package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps access tokens and the pending merge job ledger in redis.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func pendingKey(topicID string) string {
	return fmt.Sprintf("consensus:pending:topic:%s", topicID)
}

func resolvedKey(topicID, jobID string) string {
	return fmt.Sprintf("consensus:resolved:%s:%s", topicID, jobID)
}

// PendingJob is a ledger entry for a merge job that has not been applied.
// Orphan marks jobs left behind by a failed quick merge.
type PendingJob struct {
	TopicID   string    `json:"topic_id"`
	JobID     string    `json:"job_id"`
	Summary   string    `json:"summary"`
	Orphan    bool      `json:"orphan"`
	LastError string    `json:"last_error,omitempty"`
	SeenAt    time.Time `json:"seen_at"`
}

// RecordPending stores/updates a pending job under its topic and refreshes the topic key TTL.
func (s *RedisStore) RecordPending(ctx context.Context, job PendingJob, ttl time.Duration) error {
	if job.SeenAt.IsZero() {
		job.SeenAt = time.Now().UTC()
	}
	key := pendingKey(job.TopicID)
	// An orphan flag survives later sightings from the watcher.
	if !job.Orphan {
		if prev, err := s.rdb.HGet(ctx, key, job.JobID).Bytes(); err == nil {
			var old PendingJob
			if json.Unmarshal(prev, &old) == nil && old.Orphan {
				job.Orphan = true
				job.LastError = old.LastError
			}
		} else if err != redis.Nil {
			return err
		}
	}
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, job.JobID, b)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ResolvePending removes a job from the ledger and remembers it was applied.
func (s *RedisStore) ResolvePending(ctx context.Context, topicID, jobID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.HDel(ctx, pendingKey(topicID), jobID)
	pipe.Set(ctx, resolvedKey(topicID, jobID), "1", 7*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// IsResolved returns true if the job was recorded as applied.
func (s *RedisStore) IsResolved(ctx context.Context, topicID, jobID string) (bool, error) {
	_, err := s.rdb.Get(ctx, resolvedKey(topicID, jobID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Pending lists the ledger entries of a topic, oldest first.
func (s *RedisStore) Pending(ctx context.Context, topicID string) ([]PendingJob, error) {
	m, err := s.rdb.HGetAll(ctx, pendingKey(topicID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]PendingJob, 0, len(m))
	for _, v := range m {
		var j PendingJob
		if err := json.Unmarshal([]byte(v), &j); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].SeenAt.Before(out[k].SeenAt) })
	return out, nil
}

// RedisTokenStore keeps the CLI access token under a single key.
type RedisTokenStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisTokenStore(rdb *redis.Client, key string, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, key: key, ttl: ttl}
}

func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	tok, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return tok, err
}

func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	return s.rdb.Set(ctx, s.key, token, s.ttl).Err()
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
