package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/itemvault/registry"
	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// limiterSet keeps one token bucket per key. Keys idle for ten minutes are
// dropped by a janitor that runs every five.
type limiterSet struct {
	r       rate.Limit
	b       int
	buckets sync.Map
}

func newLimiterSet(r rate.Limit, b int) *limiterSet {
	s := &limiterSet{r: r, b: b}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.sweep(time.Now().Add(-10 * time.Minute))
		}
	}()
	return s
}

func (s *limiterSet) sweep(cutoff time.Time) {
	s.buckets.Range(func(k, v interface{}) bool {
		if v.(*bucket).lastSeen.Load() < cutoff.UnixNano() {
			s.buckets.Delete(k)
		}
		return true
	})
}

func (s *limiterSet) allow(key string) bool {
	v, _ := s.buckets.LoadOrStore(key, &bucket{limiter: rate.NewLimiter(s.r, s.b)})
	bk := v.(*bucket)
	bk.lastSeen.Store(time.Now().UnixNano())
	return bk.limiter.Allow()
}

func (s *limiterSet) middleware(key func(*gin.Context) string, msg string) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(s.r))))
	return func(c *gin.Context) {
		if !s.allow(key(c)) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

func passThrough(c *gin.Context) { c.Next() }

// RateLimit provides per-IP token-bucket rate limiting across every route.
// r = requests per second, b = burst size. A non-positive r disables limiting.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	if r <= 0 {
		return passThrough
	}
	return newLimiterSet(r, b).middleware(func(c *gin.Context) string {
		return c.ClientIP()
	}, "rate limit exceeded")
}

// WriteLimit bounds mutating requests separately for each client, route and
// item variant, so a client flooding WEAPON creates still gets its ARMOR
// updates through. Short type codes share the bucket of their variant. A
// non-positive r disables limiting.
func WriteLimit(r rate.Limit, b int) gin.HandlerFunc {
	if r <= 0 {
		return passThrough
	}
	return newLimiterSet(r, b).middleware(writeKey, "too many writes")
}

func writeKey(c *gin.Context) string {
	key := c.ClientIP() + " " + c.Request.Method + " " + c.FullPath()
	if raw := c.Param("type"); raw != "" {
		if tag, err := registry.Parse(raw); err == nil {
			raw = string(tag)
		}
		key += " " + raw
	}
	return key
}
