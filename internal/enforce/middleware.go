package enforce

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middleware for downstream handlers.
const (
	ContextIdentity     = "identity"
	ContextCapabilities = "capabilities"
)

// Request headers consumed by the filter.
const (
	HeaderMenuToken  = "X-Menu-Token"
	HeaderQuickQuery = "X-Quick-Query"
)

// Middleware gates the four CRUD actions of one business controller. The
// action is derived from the trailing path segment; other segments pass
// through untouched. On denial no handler runs and no side effect occurs.
func Middleware(enforcer *Enforcer, controllerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		action, enforced := ActionForSegment(path.Base(c.Request.URL.Path))
		if !enforced {
			c.Next()
			return
		}

		token, okToken := bearerToken(c)
		if !okToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
			return
		}

		subWindow := c.GetHeader(HeaderQuickQuery) == "1" || c.Query("sub_window") == "1"

		decision, errAuthorize := enforcer.Authorize(
			c.Request.Context(),
			token,
			controllerName,
			action,
			c.GetHeader(HeaderMenuToken),
			subWindow,
		)
		if errAuthorize != nil {
			abortWithEnforcementError(c, errAuthorize)
			return
		}

		c.Set(ContextIdentity, decision.Identity)
		c.Set(ContextCapabilities, decision.Capabilities)
		c.Next()
	}
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// abortWithEnforcementError maps enforcement failures to HTTP responses.
// Token and binding failures stay generic so probing gets no detail.
func abortWithEnforcementError(c *gin.Context, err error) {
	var forbidden *ForbiddenError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
	case errors.Is(err, ErrIllegalRequest):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.As(err, &forbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":  "forbidden",
			"action": string(forbidden.Action),
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
	}
}
