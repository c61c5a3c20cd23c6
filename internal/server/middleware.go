package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"tasktracker/internal/model"
	"tasktracker/internal/service"
)

const (
	userKey  = "user"
	tokenKey = "token"
)

// requireUser resolves the bearer token and stores the user in the request
// context. Handlers behind it can assume currentUser returns non-nil.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Vary", "Authorization")
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortError(c, service.ErrUnauthenticated)
			return
		}
		user, err := s.auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			abortError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Set(tokenKey, parts[1])
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	v, _ := c.Get(userKey)
	user, _ := v.(*model.User)
	return user
}

func currentToken(c *gin.Context) string {
	v, _ := c.Get(tokenKey)
	token, _ := v.(string)
	return token
}

// RateLimit configures the per-IP limiter; zero RPS disables it.
type RateLimit struct {
	RPS   float64
	Burst int
}

func (l RateLimit) Enabled() bool {
	return l.RPS > 0
}

// rateLimit keeps one token bucket per client IP and evicts buckets idle for
// three minutes.
func rateLimit(cfg RateLimit) gin.HandlerFunc {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)
	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) >= 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()
	return func(c *gin.Context) {
		ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			ip = c.Request.RemoteAddr
		}
		mu.Lock()
		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			clients[ip] = cl
		}
		cl.lastSeen = time.Now()
		allowed := cl.limiter.Allow()
		mu.Unlock()
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
