package handlers

import (
	"net/http"

	"github.com/AlessLeS/ism-partners-db/internal/auth"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) ShowLogin(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"title": "Connexion"})
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Données invalides"})
		return
	}

	user, ok := h.Users.Authenticate(form.Email, form.Password)
	if !ok {
		h.Log.Info("login refused", zap.String("email", auth.NormalizeEmail(form.Email)))
		h.render(c, http.StatusUnauthorized, "login.html", gin.H{
			"error": "Adresse e-mail ou mot de passe incorrect",
			"email": form.Email,
		})
		return
	}

	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(auth.SessionEmail, user.Email)
	sess.Set(auth.SessionName, user.Name)
	if err := sess.Save(); err != nil {
		h.fail(c, "Erreur de session", err)
		return
	}

	h.Log.Info("login", zap.String("email", user.Email))
	c.Redirect(http.StatusFound, "/partners")
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/login")
}
