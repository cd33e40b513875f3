package middleware

import (
	"github.com/AlessLeS/ism-partners-db/internal/auth"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// InjectUser exposes the session's user to handlers as "CurrentUser" (*auth.User).
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if email, ok := sess.Get(auth.SessionEmail).(string); ok && email != "" {
			name, _ := sess.Get(auth.SessionName).(string)
			c.Set("CurrentUser", &auth.User{Email: email, Name: name})
		}

		c.Next()
	}
}
