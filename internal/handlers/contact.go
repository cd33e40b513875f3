package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/AlessLeS/ism-partners-db/internal/models"
	"github.com/AlessLeS/ism-partners-db/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func contactFromForm(c *gin.Context) models.Contact {
	field := func(name string) string { return strings.TrimSpace(c.PostForm(name)) }
	return models.Contact{
		FullName: field("full_name"),
		Function: field("function"),
		Email:    field("email"),
		Phone:    field("phone"),
		Mobile:   field("mobile"),
		IsJury:   c.PostForm("is_jury") != "",
		Notes:    field("notes"),
	}
}

func partnerURL(id uint) string {
	return "/partners/" + strconv.FormatUint(uint64(id), 10)
}

// CreateContact adds a contact to the partner in the URL.
func (h *Handler) CreateContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	p, err := h.Partners.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		c.String(http.StatusNotFound, "Partenaire introuvable")
		return
	}
	if err != nil {
		h.fail(c, "Erreur de lecture du partenaire", err)
		return
	}

	ct := contactFromForm(c)
	ct.PartnerID = p.ID
	if err := h.Contacts.Create(&ct); err != nil {
		var ve *repository.ValidationError
		if errors.As(err, &ve) {
			h.renderDetail(c, http.StatusBadRequest, p, ct, "Le nom du contact est obligatoire")
			return
		}
		h.fail(c, "Erreur d’enregistrement du contact", err)
		return
	}

	h.Log.Info("contact created", zap.Uint("id", ct.ID), zap.Uint("partner_id", p.ID))
	flash(c, "Contact ajouté")
	c.Redirect(http.StatusFound, partnerURL(p.ID))
}

func (h *Handler) ShowEditContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ct, err := h.Contacts.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		c.String(http.StatusNotFound, "Contact introuvable")
		return
	}
	if err != nil {
		h.fail(c, "Erreur de lecture du contact", err)
		return
	}

	h.render(c, http.StatusOK, "contact_edit.html", gin.H{
		"title":         "Modifier " + ct.FullName,
		"partnerID":     ct.PartnerID,
		"contact":       ct,
		"contactAction": c.Request.URL.Path,
	})
}

func (h *Handler) UpdateContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	existing, err := h.Contacts.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		c.String(http.StatusNotFound, "Contact introuvable")
		return
	}
	if err != nil {
		h.fail(c, "Erreur de lecture du contact", err)
		return
	}

	ct := contactFromForm(c)
	ct.ID = existing.ID
	ct.PartnerID = existing.PartnerID

	err = h.Contacts.Update(&ct)
	var ve *repository.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		h.render(c, http.StatusBadRequest, "contact_edit.html", gin.H{
			"title":         "Modifier le contact",
			"partnerID":     existing.PartnerID,
			"contact":       ct,
			"contactAction": c.Request.URL.Path,
			"contactError":  "Le nom du contact est obligatoire",
		})
		return
	case errors.Is(err, repository.ErrNotFound):
		c.String(http.StatusNotFound, "Contact introuvable")
		return
	default:
		h.fail(c, "Erreur d’enregistrement du contact", err)
		return
	}

	flash(c, "Contact modifié")
	c.Redirect(http.StatusFound, partnerURL(existing.PartnerID))
}

func (h *Handler) DeleteContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ct, err := h.Contacts.FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		c.String(http.StatusNotFound, "Contact introuvable")
		return
	}
	if err != nil {
		h.fail(c, "Erreur de lecture du contact", err)
		return
	}

	if err := h.Contacts.Delete(ct.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.fail(c, "Erreur de suppression du contact", err)
		return
	}

	flash(c, "Contact supprimé")
	c.Redirect(http.StatusFound, partnerURL(ct.PartnerID))
}
