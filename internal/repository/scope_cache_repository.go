package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"wellbeing_dashboard/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const scopeCachePrefix = "dashboard:scope:"

// ScopeCacheRepository stores fetched scope data in redis as JSON.
type ScopeCacheRepository struct {
	Client *redis.Client
}

func NewScopeCacheRepository(client *redis.Client) *ScopeCacheRepository {
	return &ScopeCacheRepository{Client: client}
}

func (r *ScopeCacheRepository) GetScopeData(ctx context.Context, key string) (*model.ScopeData, bool, error) {
	raw, err := r.Client.Get(ctx, scopeCachePrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	var data model.ScopeData
	if err := json.Unmarshal(raw, &data); err != nil {
		// stale layout from an older release; treat as a miss
		r.Client.Del(ctx, scopeCachePrefix+key)
		return nil, false, nil
	}
	return &data, true, nil
}

func (r *ScopeCacheRepository) SetScopeData(ctx context.Context, key string, data *model.ScopeData, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode scope data")
	}
	return errors.Wrap(r.Client.Set(ctx, scopeCachePrefix+key, raw, ttl).Err(), "redis set")
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func (r *ScopeCacheRepository) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := scopeCachePrefix + globEscaper.Replace(prefix) + "*"
	iter := r.Client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis scan")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(r.Client.Del(ctx, keys...).Err(), "redis del")
}

func (r *ScopeCacheRepository) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
