package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) IndexPage(c *gin.Context) {
	c.Redirect(http.StatusFound, "/partners")
}

// DownloadDatabase sends the SQLite file as an attachment.
func (h *Handler) DownloadDatabase(c *gin.Context) {
	if h.DBPath == "" {
		c.String(http.StatusNotFound, "Base de données non disponible")
		return
	}
	c.FileAttachment(h.DBPath, "ism_partners.db")
}
