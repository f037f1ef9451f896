package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"multitenant-rag-platform/internal/config"
	"multitenant-rag-platform/models"
	"multitenant-rag-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ErrDailyQuotaExceeded is returned when a tenant runs out of daily
// queries.
var ErrDailyQuotaExceeded = fmt.Errorf("daily query quota exceeded")

// RateLimitMiddleware throttles by IP and endpoint using a Redis
// counter with a sliding expiry. Redis being down fails open.
func RateLimitMiddleware(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/health" || c.FullPath() == "/ready" {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, time.Duration(cfg.RateLimitWindow)*time.Second)
		}

		if count > int64(cfg.RateLimitReqs) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
			c.Header("X-RateLimit-Remaining", "0")
			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
				gin.H{"retry_after": cfg.RateLimitWindow})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.RateLimitReqs-int(count)))
		c.Next()
	}
}

// CheckDailyQueryQuota enforces the tenant's max_queries_per_day with
// a Redis counter keyed by tenant and UTC date. The key outlives the
// day by an hour so a reset mid-request cannot undercount. Redis
// failures fail open.
func CheckDailyQueryQuota(ctx context.Context, rdb *redis.Client, tenant *models.Tenant) error {
	if rdb == nil || tenant.MaxQueriesPerDay <= 0 {
		return nil
	}

	key := "queries:" + tenant.TenantID + ":" + time.Now().UTC().Format("20060102")
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return nil
	}
	if count == 1 {
		rdb.Expire(ctx, key, 25*time.Hour)
	}
	if count > int64(tenant.MaxQueriesPerDay) {
		return ErrDailyQuotaExceeded
	}
	return nil
}
