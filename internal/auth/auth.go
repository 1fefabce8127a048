// Package auth is the session collaborator: cookie-backed identity for the
// ticket API. It issues no roles — the policy layer resolves those from
// profiles.
package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	sessionName = "helpdesk_session"
	userIDKey   = "user_id"

	// ContextUserID is where RequireUser places the authenticated user id.
	ContextUserID = "userID"
)

// SessionMiddleware installs the cookie session store.
func SessionMiddleware(secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
	})
	return sessions.Sessions(sessionName, store)
}

// RequireUser rejects unauthenticated callers with 401 before any ticket
// logic runs.
func RequireUser(c *gin.Context) {
	session := sessions.Default(c)
	id, _ := session.Get(userIDKey).(string)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.Set(ContextUserID, id)
	c.Next()
}

// UserID returns the authenticated caller's id from the gin context.
func UserID(c *gin.Context) string {
	id, _ := c.Get(ContextUserID)
	s, _ := id.(string)
	return s
}

// SignIn binds the session cookie to a user id.
func SignIn(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Set(userIDKey, userID)
	return session.Save()
}

// SignOut clears the session.
func SignOut(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
