package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/realwrld/forum/config"
	"github.com/realwrld/forum/utils"
)

const clientIdleTTL = 5 * time.Minute

// ipBuckets holds one token bucket per client IP. Buckets idle longer than
// clientIdleTTL are dropped on the next lookup so the map stays bounded.
type ipBuckets struct {
	mu       sync.Mutex
	buckets  map[string]*clientBucket
	limit    rate.Limit
	burst    int
	lastScan time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware rejects requests once a client IP exceeds the
// configured per-minute budget.
func RateLimitMiddleware() gin.HandlerFunc {
	perMinute := config.Get().RateLimitPerMinute
	if perMinute < 1 {
		perMinute = 1
	}
	store := &ipBuckets{
		buckets: make(map[string]*clientBucket),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute/2 + 1,
	}

	return func(ctx *gin.Context) {
		if !store.allow(ctx.ClientIP()) {
			utils.Error(ctx, http.StatusTooManyRequests, 42900, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func (s *ipBuckets) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastScan) > clientIdleTTL {
		for key, b := range s.buckets {
			if now.Sub(b.lastSeen) > clientIdleTTL {
				delete(s.buckets, key)
			}
		}
		s.lastScan = now
	}

	b, ok := s.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}
