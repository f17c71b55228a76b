package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dzivkovi/serverless-app-gemini/internal/session"
)

// SessionKey is the context key carrying the client's session ID.
const SessionKey = "session_id"

// Session resolves the client's session ID from the signed cookie and makes
// it available to handlers. First-time visitors get a fresh ID; only a
// failure to write the cookie rejects the request.
func Session(manager *session.CookieManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := manager.SessionID(c.Writer, c.Request)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to establish session",
			})
			c.Abort()
			return
		}

		c.Set(SessionKey, sid)
		c.Next()
	}
}

// GetSessionID retrieves the session ID set by Session.
// Returns the ID and a boolean indicating if it was found.
func GetSessionID(c *gin.Context) (string, bool) {
	value, exists := c.Get(SessionKey)
	if !exists {
		return "", false
	}
	sid, ok := value.(string)
	return sid, ok && sid != ""
}
