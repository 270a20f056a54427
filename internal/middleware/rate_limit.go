// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/media-ledger/internal/i18n"
	"github.com/javajoker/media-ledger/internal/utils"
)

const visitorIdle = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. Buckets idle for longer
// than visitorIdle are dropped on the next sweep.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	keyFunc   func(c *gin.Context) string
	lastSweep time.Time
}

// NewRateLimiter returns a limiter keyed by client IP.
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     limit,
		burst:     burst,
		keyFunc:   func(c *gin.Context) string { return "ip:" + c.ClientIP() },
		lastSweep: time.Now(),
	}
}

// ByAccount keys the limiter on the authenticated account, falling back
// to the client IP for anonymous requests.
func (rl *RateLimiter) ByAccount() *RateLimiter {
	rl.keyFunc = func(c *gin.Context) string {
		if account := c.GetString(ContextAccountID); account != "" {
			return "account:" + account
		}
		return "ip:" + c.ClientIP()
	}
	return rl
}

func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > visitorIdle {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorIdle {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(rl.keyFunc(c), time.Now()) {
			message := i18n.T(utils.GetLangFromContext(c), i18n.KeyRateLimitExceeded)
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RateLimited", message, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Limits groups the limiters the router installs.
type Limits struct {
	General gin.HandlerFunc
	Auth    gin.HandlerFunc
	Write   gin.HandlerFunc
}

// NewLimits returns 10 req/s per IP overall, 5 auth req/min per IP and
// 5 ledger writes/s per account. Disabled limits pass every request.
func NewLimits(enabled bool) Limits {
	if !enabled {
		pass := func(c *gin.Context) { c.Next() }
		return Limits{General: pass, Auth: pass, Write: pass}
	}
	return Limits{
		General: NewRateLimiter(rate.Limit(10), 10).Middleware(),
		Auth:    NewRateLimiter(rate.Every(12*time.Second), 5).Middleware(),
		Write:   NewRateLimiter(rate.Limit(5), 5).ByAccount().Middleware(),
	}
}
