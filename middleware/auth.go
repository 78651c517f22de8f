package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"awazgram-server/apperrors"
	"awazgram-server/logger"
	"awazgram-server/services"
	"awazgram-server/types"
)

const (
	actorKey  = "actor"
	claimsKey = "claims"
)

// AdminAuthMiddleware validates the session token from the Authorization header
// or the session cookie and stores the acting user in the context. Browsers are
// redirected to the login page; API clients get 401.
func AdminAuthMiddleware(auth *services.AuthService, cookieName string) gin.HandlerFunc {
	log := logger.WithComponent("auth")
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c, cookieName)
		if tokenString == "" {
			rejectUnauthenticated(c, "Authentication required")
			return
		}

		actor, claims, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			msg := "Invalid or expired session"
			if appErr := apperrors.GetAppError(err); appErr != nil {
				if appErr.Code >= http.StatusInternalServerError {
					log.Error("session lookup failed", "error", err)
				}
				msg = appErr.Message
			}
			rejectUnauthenticated(c, msg)
			return
		}

		c.Set(actorKey, actor)
		c.Set(claimsKey, claims)
		c.Set("user_id", actor.User.ID)
		c.Next()
	}
}

// TokenFromRequest prefers "Authorization: Bearer <token>" and falls back to the cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != authHeader {
			return strings.TrimSpace(tokenString)
		}
	}
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil {
			return cookie
		}
	}
	return ""
}

// GetActor returns the authenticated actor, or nil outside AdminAuthMiddleware.
func GetActor(c *gin.Context) *services.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(*services.Actor); ok {
			return actor
		}
	}
	return nil
}

func GetClaims(c *gin.Context) *types.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*types.Claims); ok {
			return claims
		}
	}
	return nil
}

// WantsHTML reports whether the client is a browser expecting a page.
func WantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(c.GetHeader("Content-Type"), "application/json")
}

func rejectUnauthenticated(c *gin.Context, message string) {
	if WantsHTML(c) {
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
