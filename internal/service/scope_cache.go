package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/pkg/logger"
	"wellbeing_dashboard/pkg/monitoring"

	"go.uber.org/zap"
)

// SharedCache is a cross-session tier, implemented over redis.
type SharedCache interface {
	GetScopeData(ctx context.Context, key string) (*model.ScopeData, bool, error)
	SetScopeData(ctx context.Context, key string, data *model.ScopeData, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// CacheKey is "<scope>|<selection>|<filters>"; the first two parts form the
// slot prefix used for invalidation.
func CacheKey(scope model.Scope, sel model.Selection, filters model.Filters) string {
	return slotPrefix(scope, sel) + filters.Key()
}

func slotPrefix(scope model.Scope, sel model.Selection) string {
	return scope.String() + "|" + sel.Key(scope) + "|"
}

// ScopeCache keeps fetched scope data until explicitly invalidated. The
// shared tier, when present, is namespaced per principal and expires by TTL.
type ScopeCache struct {
	mu        sync.Mutex
	entries   map[string]*model.ScopeData
	shared    SharedCache
	namespace string
	ttl       time.Duration
}

func NewScopeCache(shared SharedCache, namespace string, ttl time.Duration) *ScopeCache {
	return &ScopeCache{
		entries:   make(map[string]*model.ScopeData),
		shared:    shared,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (c *ScopeCache) sharedKey(key string) string {
	return c.namespace + ":" + key
}

func (c *ScopeCache) Get(ctx context.Context, key string) (*model.ScopeData, bool) {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		monitoring.CacheEvents.WithLabelValues("memory", "hit").Inc()
		return data, true
	}
	monitoring.CacheEvents.WithLabelValues("memory", "miss").Inc()

	if c.shared == nil {
		return nil, false
	}
	data, ok, err := c.shared.GetScopeData(ctx, c.sharedKey(key))
	if err != nil {
		logger.Log.Warn("Shared scope cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		monitoring.CacheEvents.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}
	monitoring.CacheEvents.WithLabelValues("redis", "hit").Inc()

	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
	return data, true
}

func (c *ScopeCache) Put(ctx context.Context, key string, data *model.ScopeData) {
	if data == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = data
	ttl := c.ttl
	c.mu.Unlock()

	if c.shared == nil {
		return
	}
	if err := c.shared.SetScopeData(ctx, c.sharedKey(key), data, ttl); err != nil {
		logger.Log.Warn("Shared scope cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateSlot drops every filter combination cached for the slot.
func (c *ScopeCache) InvalidateSlot(ctx context.Context, scope model.Scope, sel model.Selection) {
	prefix := slotPrefix(scope, sel)
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
	monitoring.CacheEvents.WithLabelValues("memory", "invalidate").Inc()

	if c.shared == nil {
		return
	}
	if err := c.shared.DeletePrefix(ctx, c.sharedKey(prefix)); err != nil {
		logger.Log.Warn("Shared scope cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		return
	}
	monitoring.CacheEvents.WithLabelValues("redis", "invalidate").Inc()
}

func (c *ScopeCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

func (c *ScopeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
