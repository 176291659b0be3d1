package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waypoint-agents/server/internal/agent/model"
	errx "github.com/waypoint-agents/server/internal/core/error"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

const (
	recentKey          = "itineraries:recent"
	DefaultRecentLimit = 100
)

type RedisItineraryRepository struct {
	rdb         redis.Cmdable
	ttl         time.Duration
	recentLimit int
}

func NewRedisItineraryRepository(rdb redis.Cmdable, ttl time.Duration, recentLimit int) *RedisItineraryRepository {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &RedisItineraryRepository{rdb: rdb, ttl: ttl, recentLimit: recentLimit}
}

func (r *RedisItineraryRepository) itineraryKey(id string) string {
	return fmt.Sprintf("itinerary:%s", id)
}

func (r *RedisItineraryRepository) Save(ctx context.Context, it *model.Itinerary) error {
	if it == nil || it.ID == "" {
		return fmt.Errorf("itinerary id is required")
	}
	b, err := json.Marshal(it)
	if err != nil {
		logx.Error().Err(err).Str("itineraryID", it.ID).Msg("failed to marshal itinerary")
		return fmt.Errorf("marshal itinerary: %w", err)
	}
	key := r.itineraryKey(it.ID)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, b, r.ttl)
		pipe.LRem(ctx, recentKey, 0, it.ID)
		pipe.LPush(ctx, recentKey, it.ID)
		pipe.LTrim(ctx, recentKey, 0, int64(r.recentLimit-1))
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save itinerary to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisItineraryRepository) Get(ctx context.Context, id string) (*model.Itinerary, error) {
	key := r.itineraryKey(id)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to load itinerary from redis")
		}
		return nil, errx.WrapRedis(err)
	}

	var it model.Itinerary
	if err := json.Unmarshal(raw, &it); err != nil {
		logx.Error().Err(err).Str("itineraryID", id).Msg("failed to unmarshal itinerary")
		return nil, fmt.Errorf("unmarshal itinerary %s: %w", id, err)
	}
	return &it, nil
}

// ListRecent returns up to limit itineraries, newest first. Ids whose payload
// already expired are skipped.
func (r *RedisItineraryRepository) ListRecent(ctx context.Context, limit int) ([]*model.Itinerary, error) {
	if limit <= 0 || limit > r.recentLimit {
		limit = r.recentLimit
	}

	ids, err := r.rdb.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return []*model.Itinerary{}, nil
		}
		logx.Error().Err(err).Str("key", recentKey).Msg("failed to list recent itineraries")
		return nil, errx.WrapRedis(err)
	}
	if len(ids) == 0 {
		return []*model.Itinerary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.itineraryKey(id)
	}
	rows, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logx.Error().Err(err).Msg("failed to load recent itineraries")
		return nil, errx.WrapRedis(err)
	}

	out := make([]*model.Itinerary, 0, len(rows))
	for i, row := range rows {
		s, ok := row.(string)
		if !ok {
			continue
		}
		var it model.Itinerary
		if err := json.Unmarshal([]byte(s), &it); err != nil {
			logx.Warn().Err(err).Str("itineraryID", ids[i]).Msg("skipping unreadable itinerary")
			continue
		}
		out = append(out, &it)
	}
	return out, nil
}

var _ model.ItineraryRepository = (*RedisItineraryRepository)(nil)
