package handlers

import (
	"net/http"
	"strconv"

	"github.com/AlessLeS/ism-partners-db/internal/auth"
	"github.com/AlessLeS/ism-partners-db/internal/importer"
	"github.com/AlessLeS/ism-partners-db/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the web UI. Every page reads and writes through the
// repositories; per-user state lives in the session cookie and the URL.
type Handler struct {
	Partners *repository.PartnerRepository
	Contacts *repository.ContactRepository
	Users    *auth.Store
	Importer *importer.Importer
	Uploads  *importer.Uploads
	Log      *zap.Logger

	// DBPath is the SQLite file offered for download, "" when the
	// database is not a local file.
	DBPath string
}

// render wraps c.HTML and passes the logged-in user and pending flash
// messages to every template.
func (h *Handler) render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if v, ok := c.Get("CurrentUser"); ok {
		if u, ok := v.(*auth.User); ok {
			data["CurrentUser"] = u
			data["CanDownloadDB"] = h.DBPath != ""
		}
	}

	sess := sessions.Default(c)
	if flashes := sess.Flashes(); len(flashes) > 0 {
		data["Flashes"] = flashes
		_ = sess.Save()
	}

	c.HTML(status, tmpl, data)
}

func flash(c *gin.Context, msg string) {
	sess := sessions.Default(c)
	sess.AddFlash(msg)
	_ = sess.Save()
}

// fail logs err with the request and answers a plain 500.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	h.Log.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.String(http.StatusInternalServerError, msg)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.String(http.StatusBadRequest, "Identifiant invalide")
		return 0, false
	}
	return uint(id), true
}
