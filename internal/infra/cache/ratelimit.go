package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "gumrukcum:ratelimit:"

// tokenBucketScript refills and takes one token atomically.
// Times are in milliseconds; the reply is {allowed, retry_after_ms, tokens}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per millisecond
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])       -- seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RateLimiter is a token bucket shared by every API instance.
type RateLimiter struct {
	cache         *Cache
	burst         int
	ratePerMinute int
	now           func() time.Time
}

// NewRateLimiter allows bursts of burst and ratePerMinute sustained requests
// per key.
func (c *Cache) NewRateLimiter(burst, ratePerMinute int) *RateLimiter {
	return &RateLimiter{cache: c, burst: burst, ratePerMinute: ratePerMinute, now: time.Now}
}

// Allow implements middleware.Limiter. Redis errors are returned; the
// middleware decides to fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.ratePerMinute <= 0 {
		return true, 0, nil
	}
	res, err := tokenBucketScript.Run(ctx, l.cache.client,
		[]string{bucketKey(key)},
		float64(l.ratePerMinute)/60000.0, l.burst, l.now().UnixMilli(), bucketTTL(l.burst, l.ratePerMinute),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) < 2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}

// bucketKey hashes the caller part so raw IPs never land in Redis.
func bucketKey(key string) string {
	kind, id, ok := strings.Cut(key, ":")
	if !ok {
		kind, id = "key", key
	}
	sum := sha256.Sum256([]byte(id))
	return rateLimitPrefix + kind + ":" + hex.EncodeToString(sum[:8])
}

// bucketTTL keeps a bucket until it would be full again, plus slack.
func bucketTTL(burst, ratePerMinute int) int {
	secs := burst * 60 / ratePerMinute
	return secs + 60
}
