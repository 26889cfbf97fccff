package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
	// KeyFunc names the caller a window is counted for. Nil means ClientKey.
	KeyFunc func(*http.Request) string
}

// ClientKey identifies the caller by user id when signed in and by remote
// host otherwise. The port is dropped so reconnecting does not reset the
// window.
func ClientKey(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimitMiddleware implements a fixed-window rate limit backed by Redis.
// A Redis failure lets the request through.
func RateLimitMiddleware(redisClient redis.Cmdable, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientKey
	}
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := keyFunc(r)
			key := fmt.Sprintf("%s:%s", config.KeyPrefix, client)

			count, ttl, err := countHit(r.Context(), redisClient, key, config.Window)
			if err != nil {
				logger.Error("Rate limit counter unavailable",
					zap.Error(err),
					zap.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			if count > int64(config.RequestsPerWindow) {
				logger.Warn("Rate limit exceeded",
					zap.String("client", client),
					zap.Int64("count", count),
					zap.Int("limit", config.RequestsPerWindow),
					zap.String("request_id", w.Header().Get(RequestIDHeader)),
				)

				retry := int(ttl.Round(time.Second).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(retry))

				RespondWithError(w, http.StatusTooManyRequests, "too many attempts, try again later")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(config.RequestsPerWindow)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

// countHit increments the window counter and reads its remaining lifetime in
// one transaction. A counter without an expiry, first hit or left over from
// a failed EXPIRE, is given a fresh window.
func countHit(ctx context.Context, rdb redis.Cmdable, key string, window time.Duration) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		remaining = window
	}
	return incr.Val(), remaining, nil
}
