package services

import (
	"context"
	"errors"
	"strings"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
)

const hintPrefix = "hint:"

// HintCache stores advisory reference-to-id hints. Every failure is logged
// and reported as a miss; callers never see cache errors. A nil *HintCache
// is a valid, always-empty cache.
type HintCache struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewHintCache wraps cache
func NewHintCache(cache providers.CacheProvider, metrics *observability.Metrics) *HintCache {
	return &HintCache{cache: cache, metrics: metrics}
}

// Get returns the hinted id for key
func (h *HintCache) Get(ctx context.Context, key string) (string, bool) {
	if h == nil || h.cache == nil {
		return "", false
	}

	value, err := h.cache.Get(ctx, hintPrefix+key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("hint_key", key).Msg("hint lookup failed")
		}
		observability.RecordCacheMiss(ctx, h.metrics, hintKind(key))
		return "", false
	}

	id := strings.TrimSpace(string(value))
	if id == "" {
		observability.RecordCacheMiss(ctx, h.metrics, hintKind(key))
		return "", false
	}
	observability.RecordCacheHit(ctx, h.metrics, hintKind(key))
	return id, true
}

// Has reports whether a hint is stored under key without counting a cache
// hit or miss. Store errors read as absent.
func (h *HintCache) Has(ctx context.Context, key string) bool {
	if h == nil || h.cache == nil {
		return false
	}
	ok, err := h.cache.Exists(ctx, hintPrefix+key)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("hint_key", key).Msg("hint presence check failed")
		return false
	}
	return ok
}

// Set records id for key without expiry
func (h *HintCache) Set(ctx context.Context, key, id string) {
	if h == nil || h.cache == nil || id == "" {
		return
	}
	if err := h.cache.Set(ctx, hintPrefix+key, []byte(id), 0); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("hint_key", key).Msg("hint write failed")
	}
}

// Evict drops the hint for key
func (h *HintCache) Evict(ctx context.Context, key string) {
	if h == nil || h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, hintPrefix+key); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("hint_key", key).Msg("hint eviction failed")
	}
}

func hintKind(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}
