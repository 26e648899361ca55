package consistency

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

const (
	keyPrefix  = "swing:consistency:"
	historyTTL = 30 * 24 * time.Hour
)

type redisStore struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewRedisStore returns a Store backed by a shared redis instance.
func NewRedisStore(rdb *redis.Client, log *logger.Logger) Store {
	return &redisStore{rdb: rdb, log: log.With("service", "ConsistencyStore")}
}

func (s *redisStore) Commit(ctx context.Context, fingerprint string, v scoring.ScoreVector) (scoring.ScoreVector, bool) {
	key := keyPrefix + fingerprint

	history, err := s.load(ctx, key)
	if err != nil {
		s.log.Warn("consistency history read failed; skipping blend", "fingerprint", fingerprint, "error", err)
		return v, false
	}

	out := v
	blended := false
	if len(history) > 0 {
		out, blended = blendAgainst(v, history[len(history)-1])
	}

	history = appendBounded(history, snapshotOf(out, time.Now().UTC()))
	if err := s.save(ctx, key, history); err != nil {
		s.log.Warn("consistency history write failed", "fingerprint", fingerprint, "error", err)
	}
	return out, blended
}

func (s *redisStore) load(ctx context.Context, key string) ([]Snapshot, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []Snapshot
	if err := json.Unmarshal(raw, &history); err != nil {
		// Corrupt cache entry; start over rather than fail the request.
		return nil, nil
	}
	return history, nil
}

func (s *redisStore) save(ctx context.Context, key string, history []Snapshot) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, historyTTL).Err()
}
