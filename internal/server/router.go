package server

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/AlessLeS/ism-partners-db/internal/handlers"
	"github.com/AlessLeS/ism-partners-db/internal/logging"
	"github.com/AlessLeS/ism-partners-db/internal/middleware"
	"github.com/AlessLeS/ism-partners-db/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionMaxAge = 8 * 60 * 60

func loadTemplates() (*template.Template, error) {
	return template.New("").ParseFS(web.Templates, "templates/*.html")
}

func NewRouter(sessionSecret string, h *handlers.Handler, log *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(log))
	r.MaxMultipartMemory = 32 << 20

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("ism_session", store))

	r.Use(middleware.InjectUser())

	// AUTH
	r.GET("/login", h.ShowLogin)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.GET("/", h.IndexPage)

	// PARTNERS
	auth.GET("/partners", h.ListPartners)
	auth.GET("/partners/export.csv", h.ExportPartners)
	auth.GET("/partners/new", h.ShowNewPartner)
	auth.POST("/partners/new", h.CreatePartner)
	auth.GET("/partners/:id", h.ShowPartnerDetail)
	auth.GET("/partners/:id/edit", h.ShowEditPartner)
	auth.POST("/partners/:id/edit", h.UpdatePartner)
	auth.POST("/partners/:id/delete", h.DeletePartner)

	// CONTACTS
	auth.POST("/partners/:id/contacts", h.CreateContact)
	auth.GET("/contacts/:id/edit", h.ShowEditContact)
	auth.POST("/contacts/:id/edit", h.UpdateContact)
	auth.POST("/contacts/:id/delete", h.DeleteContact)

	// IMPORT
	auth.GET("/import", h.ShowImport)
	auth.POST("/import", h.UploadImport)
	auth.GET("/import/:token", h.ShowImportMapping)
	auth.POST("/import/:token", h.RunImport)

	auth.GET("/database/download", h.DownloadDatabase)

	return r, nil
}
