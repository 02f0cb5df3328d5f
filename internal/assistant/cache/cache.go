// Package cache memoizes backend answers in Redis for a bounded window.
// Entries are keyed per (backend, normalized question) and expire by TTL
// only. Error results are cached the same way as successes. Concurrent
// callers for one key are not deduplicated; adapter calls are idempotent
// reads, so a duplicate call is harmless.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"migration-assistant/internal/assistant/backend"
	apperrors "migration-assistant/internal/common/errors"
	"migration-assistant/internal/common/logger"
	"migration-assistant/internal/common/metrics"
)

// ComputeFunc produces an AnswerResult when the cache has no live entry.
type ComputeFunc func(ctx context.Context) backend.AnswerResult

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func New(client *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"component": "response-cache",
		}),
	}
}

// GetOrCompute returns the cached answer for (backendID, question) when an
// unexpired entry exists, otherwise invokes compute and stores its result.
// A broken Redis degrades to a direct compute call; the cache is an
// optimization, never a failure source.
func (c *Cache) GetOrCompute(ctx context.Context, backendID, question string, compute ComputeFunc) backend.AnswerResult {
	key := c.key(backendID, question)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached backend.AnswerResult
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			metrics.CacheEvents.WithLabelValues(backendID, "hit").Inc()
			return cached
		}
		// Undecodable entry, treat as a miss and overwrite below.
		metrics.CacheEvents.WithLabelValues(backendID, "corrupt").Inc()
	case err == redis.Nil:
		metrics.CacheEvents.WithLabelValues(backendID, "miss").Inc()
	default:
		metrics.CacheEvents.WithLabelValues(backendID, "error").Inc()
		safe := apperrors.NewCacheUnavailableError(err)
		c.logger.WithError(safe).Warn("cache lookup failed", map[string]interface{}{
			"backend":   backendID,
			"errorCode": string(safe.Code),
		})
	}

	result := compute(ctx)

	// Entries are shared across sessions, so the conversation token must
	// not survive the round trip: a hit would resume another session's
	// multi-turn context. Tokens only flow from live adapter calls.
	stored := result
	stored.ConversationToken = ""

	if data, jsonErr := json.Marshal(stored); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			safe := apperrors.NewCacheUnavailableError(setErr)
			c.logger.WithError(safe).Warn("cache store failed", map[string]interface{}{
				"backend":   backendID,
				"errorCode": string(safe.Code),
			})
		}
	}

	return result
}

func (c *Cache) key(backendID, question string) string {
	return c.prefix + ":" + backendID + ":" + NormalizeQuestion(question)
}

// NormalizeQuestion lower-cases and collapses whitespace so trivially
// reworded repeats of one question share an entry.
func NormalizeQuestion(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}
