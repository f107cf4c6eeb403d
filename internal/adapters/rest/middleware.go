package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"
	"bidding-platform/internal/syncutils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ContextKeyUser holds the authenticated *shared.User in the gin context
const ContextKeyUser = "user"

const (
	limiterIdleTTL       = 30 * time.Minute
	limiterSweepInterval = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP
type RateLimiter struct {
	mu        syncutils.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	clock     func() time.Time
	logger    zerolog.Logger
}

type RateLimiterParams struct {
	RPS   float64
	Burst int
	// Clock defaults to time.Now
	Clock  func() time.Time
	Logger zerolog.Logger
}

func NewRateLimiter(params RateLimiterParams) *RateLimiter {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Limit(params.RPS),
		burst:     params.Burst,
		lastSweep: clock(),
		clock:     clock,
		logger:    params.Logger.With().Str("component", "rate_limiter").Logger(),
	}
}

// allow reports whether the client may make a request now. Entries idle
// for longer than limiterIdleTTL are swept while the lock is held.
func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	if now.Sub(rl.lastSweep) > limiterSweepInterval {
		removed := 0
		for ip, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(rl.clients, ip)
				removed++
			}
		}
		rl.lastSweep = now
		if removed > 0 {
			rl.logger.Debug().Int("removed", removed).Msg("Rate limiter cleanup removed idle clients")
		}
	}

	cl, ok := rl.clients[clientIP]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Limit creates the gin middleware handler
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.logger.Warn().Str("client_ip", c.ClientIP()).Str("path", c.FullPath()).Msg("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, envelope{
				Status:  "error",
				Message: http.StatusText(http.StatusTooManyRequests),
				Error:   "rate limit exceeded",
				Reason:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

// SessionMiddleware resolves the bearer token to a user
func SessionMiddleware(identity outbound.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondError(c, fmt.Errorf("%w: authorization header required", shared.ErrUnauthenticated))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respondError(c, fmt.Errorf("%w: authorization header format must be Bearer {token}", shared.ErrUnauthenticated))
			return
		}

		user, err := identity.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// AdminMiddleware requires the session user to hold the admin role.
// SessionMiddleware must run first.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondError(c, shared.ErrUnauthenticated)
			return
		}
		if !user.IsAdmin() {
			respondError(c, fmt.Errorf("%w: administrator privileges required", shared.ErrForbidden))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (*shared.User, bool) {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*shared.User)
	return user, ok
}

// RequestLogger logs every request through zerolog
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// CORSMiddleware sets the CORS headers for browser clients
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
