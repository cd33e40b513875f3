package middleware

import (
	"net/http"

	"github.com/AlessLeS/ism-partners-db/internal/auth"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth sends visitors without a session to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		email, _ := sess.Get(auth.SessionEmail).(string)
		if email == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
