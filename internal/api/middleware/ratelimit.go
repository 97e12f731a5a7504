package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Urdemonlord/atlasproject/internal/auth"
	"github.com/Urdemonlord/atlasproject/internal/config"
)

const (
	cleanupInterval = 10 * time.Minute
	clientIdleTTL   = 30 * time.Minute
)

// clientLimiter stores rate limiters for a specific client.
type clientLimiter struct {
	softLimiter *rate.Limiter
	hardLimiter *rate.Limiter
	lastSeen    time.Time
}

// RateLimiterMiddleware throttles clients with two token buckets. The hard
// bucket applies to everyone; the soft bucket only to anonymous clients, so
// a logged-in user is held to the hard limit alone.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
	log     logrus.FieldLogger
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware. Idle client
// entries are swept until ctx is done.
func NewRateLimiterMiddleware(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		log:     log.WithField("component", "ratelimit"),
	}
	go rm.cleanupClients(ctx)
	return rm
}

// getClientIdentifier keys clients by IP and SPA session id.
func getClientIdentifier(c *gin.Context) string {
	return fmt.Sprintf("%s|%s", c.ClientIP(), c.GetHeader("X-SPA"))
}

func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, exists := rm.clients[identifier]
	if !exists {
		limiter = &clientLimiter{
			softLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitSoftRefillRate), rm.cfg.RateLimitSoftBucketSize),
			hardLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitHardRefillRate), rm.cfg.RateLimitHardBucketSize),
		}
		rm.clients[identifier] = limiter
		rm.log.WithField("client", identifier).Debug("created rate limiter entry")
	}
	limiter.lastSeen = time.Now()
	return limiter
}

func (rm *RateLimiterMiddleware) cleanupClients(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rm.Sweep(clientIdleTTL); n > 0 {
				rm.log.WithField("removed", n).Info("rate limiter cleanup")
			}
		}
	}
}

// Sweep drops clients not seen for idle and returns how many were removed.
func (rm *RateLimiterMiddleware) Sweep(idle time.Duration) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for id, client := range rm.clients {
		if time.Since(client.lastSeen) > idle {
			delete(rm.clients, id)
			count++
		}
	}
	return count
}

// Clients returns the number of tracked clients.
func (rm *RateLimiterMiddleware) Clients() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.clients)
}

func (rm *RateLimiterMiddleware) authenticated(c *gin.Context) bool {
	token, err := BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return false
	}
	_, err = auth.ValidateJWT(token, rm.cfg.JwtSecret)
	return err == nil
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := getClientIdentifier(c)
		limiter := rm.getClientLimiter(clientKey)
		log := rm.log.WithFields(logrus.Fields{"client": clientKey, "path": c.FullPath()})

		if !limiter.hardLimiter.Allow() {
			log.Warn("hard rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		if !rm.authenticated(c) && !limiter.softLimiter.Allow() {
			log.Info("soft rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, log in or slow down"})
			return
		}

		c.Next()
	}
}
