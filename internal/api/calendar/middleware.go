package calendar

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/officecal/internal/auth"
	prommetrics "github.com/aimd54/officecal/internal/metrics"
	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	"github.com/aimd54/officecal/pkg/logger"
)

const actorContextKey = "actor"

// UserProvider resolves the authenticated user behind the X-User-Id header.
type UserProvider interface {
	GetByID(id uint) (*models.User, error)
}

// ActorMiddleware resolves the caller's identity from the X-User-Id header
// and stores it as an explicit auth.Actor in the request context. The header
// stands in for an upstream auth proxy; nothing downstream reads it again.
func ActorMiddleware(users UserProvider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-Id")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-Id header"})
			return
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed X-User-Id header"})
			return
		}
		user, err := users.GetByID(uint(id))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			}
			log.Error().Err(err).Msg("Failed to resolve actor")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve actor"})
			return
		}
		c.Set(actorContextKey, auth.ActorFromUser(user))
		c.Next()
	}
}

// actorFrom extracts the actor placed by ActorMiddleware.
func actorFrom(c *gin.Context) auth.Actor {
	value, _ := c.Get(actorContextKey)
	actor, _ := value.(auth.Actor)
	return actor
}

// MetricsMiddleware records request durations per route and status.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		prommetrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
