package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/trend-script-go/internal/domain"
)

const keyPrefix = "scriptgen"

// ResultCache stores finished multi-platform results per trend, platform set,
// mode and options. Every stored key is also indexed under its trend so that
// Invalidate can drop them together.
type ResultCache struct {
	svc    *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

func NewResultCache(svc *CacheService, ttl time.Duration, logger *zap.Logger) *ResultCache {
	return &ResultCache{svc: svc, ttl: ttl, logger: logger}
}

// ResultKey is deterministic for a request: platform order does not matter.
func ResultKey(trendID string, platforms []domain.Platform, supervised bool, opts domain.GenerationOptions) string {
	names := make([]string, 0, len(platforms))
	for _, p := range domain.UniquePlatforms(platforms) {
		names = append(names, p.String())
	}
	slices.Sort(names)

	mode := "direct"
	if supervised {
		mode = "supervised"
	}
	opts = opts.Normalized()
	return fmt.Sprintf("%s:result:%s:%s:%s:%d:%s:%s:%t:%t:%s",
		keyPrefix, trendID, mode, strings.Join(names, ","),
		opts.TargetDurationSeconds, opts.Tone, opts.Language, opts.IncludeHook, opts.IncludeCTA,
		instructionsDigest(opts.AdditionalInstructions))
}

// instructionsDigest keeps free-text instructions out of the key while still
// separating requests that differ only in them.
func instructionsDigest(instructions string) string {
	if instructions == "" {
		return "-"
	}
	sum := sha256.Sum256([]byte(instructions))
	return hex.EncodeToString(sum[:6])
}

func trendIndexKey(trendID string) string {
	return keyPrefix + ":trend:" + trendID
}

// Get returns the cached result, or nil on a miss.
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.MultiPlatformResult, error) {
	var result domain.MultiPlatformResult
	found, err := c.svc.Get(ctx, key, &result)
	if err != nil || !found {
		return nil, err
	}
	c.logger.Debug("Result cache hit", zap.String("key", key))
	return &result, nil
}

// Put stores result only when every platform succeeded; partial runs are
// left for RetryFailed rather than pinned for the TTL.
func (c *ResultCache) Put(ctx context.Context, key string, result *domain.MultiPlatformResult) (bool, error) {
	if result == nil || result.Metadata.FailureCount > 0 || len(result.Results) == 0 {
		return false, nil
	}
	if err := c.svc.Set(ctx, key, result, c.ttl); err != nil {
		return false, err
	}

	index := trendIndexKey(result.TrendID)
	if _, err := c.svc.SAdd(ctx, index, []string{key}); err != nil {
		return true, err
	}
	if c.ttl > 0 {
		if err := c.svc.Expire(ctx, index, c.ttl); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Invalidate removes every cached result for a trend.
func (c *ResultCache) Invalidate(ctx context.Context, trendID string) (int64, error) {
	index := trendIndexKey(trendID)
	keys, err := c.svc.SMembers(ctx, index)
	if err != nil {
		return 0, err
	}
	deleted, err := c.svc.DelMany(ctx, keys)
	if err != nil {
		return 0, err
	}
	if _, err := c.svc.DelMany(ctx, []string{index}); err != nil {
		return deleted, err
	}
	return deleted, nil
}
