package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AlessLeS/ism-partners-db/internal/export"
	"github.com/AlessLeS/ism-partners-db/internal/models"
	"github.com/AlessLeS/ism-partners-db/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func filterFromQuery(c *gin.Context) repository.PartnerFilter {
	return repository.PartnerFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		City:   strings.TrimSpace(c.Query("city")),
		Sector: strings.TrimSpace(c.Query("sector")),
	}
}

//
// LIST / EXPORT
//

func (h *Handler) ListPartners(c *gin.Context) {
	f := filterFromQuery(c)
	partners, err := h.Partners.List(f)
	if err != nil {
		h.fail(c, "Erreur de lecture des partenaires", err)
		return
	}

	h.render(c, http.StatusOK, "partners_list.html", gin.H{
		"title":    "Partenaires",
		"partners": partners,
		"filter":   f,
	})
}

// ExportPartners sends the filtered list as a CSV download.
func (h *Handler) ExportPartners(c *gin.Context) {
	partners, err := h.Partners.List(filterFromQuery(c))
	if err != nil {
		h.fail(c, "Erreur de lecture des partenaires", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePartners(&buf, partners); err != nil {
		h.fail(c, "Erreur d’export", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

//
// CREATE / EDIT / DELETE
//

// partnerFromForm reads the partner form. Every value is trimmed.
func partnerFromForm(c *gin.Context) (models.Partner, map[string]string) {
	field := func(name string) string { return strings.TrimSpace(c.PostForm(name)) }
	errs := map[string]string{}

	employees := 0
	if s := field("employees_count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs["employees_count"] = "Nombre entier attendu"
		}
		employees = n
	}

	p := models.Partner{
		CompanyName:    field("company_name"),
		Address:        field("address"),
		Number:         field("number"),
		PostalCode:     field("postal_code"),
		City:           field("city"),
		Phone:          field("phone"),
		EmployeesCount: employees,
		Website:        field("website"),
		Responsible:    field("responsible"),
		Role:           field("role"),
		Email:          field("email"),
		Activity:       field("activity"),
		SectorClass:    field("sector_class"),
		Tags:           field("tags"),
	}
	return p, errs
}

// formErrors turns a validation failure into messages keyed by form field.
func formErrors(ve *repository.ValidationError) map[string]string {
	out := make(map[string]string, len(ve.Fields))
	for field, msg := range ve.Fields {
		switch {
		case msg == "is required":
			out[field] = "Champ obligatoire"
		case strings.HasPrefix(msg, "must be >="):
			out[field] = "Doit être positif"
		default:
			out[field] = "Valeur invalide"
		}
	}
	return out
}

func (h *Handler) ShowNewPartner(c *gin.Context) {
	h.render(c, http.StatusOK, "partner_form.html", gin.H{
		"title":   "Nouveau partenaire",
		"action":  "/partners/new",
		"partner": models.Partner{},
		"errors":  map[string]string{},
	})
}

func (h *Handler) CreatePartner(c *gin.Context) {
	p, errs := partnerFromForm(c)
	form := gin.H{
		"title":   "Nouveau partenaire",
		"action":  "/partners/new",
		"partner": p,
		"errors":  errs,
	}
	if len(errs) > 0 {
		h.render(c, http.StatusBadRequest, "partner_form.html", form)
		return
	}

	if err := h.Partners.Create(&p); err != nil {
		var ve *repository.ValidationError
		if errors.As(err, &ve) {
			form["errors"] = formErrors(ve)
			h.render(c, http.StatusBadRequest, "partner_form.html", form)
			return
		}
		h.fail(c, "Erreur d’enregistrement du partenaire", err)
		return
	}

	h.Log.Info("partner created", zap.Uint("id", p.ID), zap.String("company_name", p.CompanyName))
	flash(c, "Partenaire enregistré")
	c.Redirect(http.StatusFound, partnerURL(p.ID))
}

func (h *Handler) ShowPartnerDetail(c *gin.Context) {
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

	h.renderDetail(c, http.StatusOK, p, models.Contact{}, "")
}

func (h *Handler) renderDetail(c *gin.Context, status int, p *models.Partner, draft models.Contact, contactErr string) {
	contacts, err := h.Contacts.ListByPartner(p.ID)
	if err != nil {
		h.fail(c, "Erreur de lecture des contacts", err)
		return
	}

	h.render(c, status, "partner_detail.html", gin.H{
		"title":         p.CompanyName,
		"partner":       p,
		"contacts":      contacts,
		"contact":       draft,
		"contactAction": partnerURL(p.ID) + "/contacts",
		"contactError":  contactErr,
	})
}

func (h *Handler) ShowEditPartner(c *gin.Context) {
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

	h.render(c, http.StatusOK, "partner_form.html", gin.H{
		"title":   "Modifier " + p.CompanyName,
		"action":  c.Request.URL.Path,
		"partner": p,
		"errors":  map[string]string{},
	})
}

func (h *Handler) UpdatePartner(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	p, errs := partnerFromForm(c)
	p.ID = id
	form := gin.H{
		"title":   "Modifier le partenaire",
		"action":  c.Request.URL.Path,
		"partner": p,
		"errors":  errs,
	}
	if len(errs) > 0 {
		h.render(c, http.StatusBadRequest, "partner_form.html", form)
		return
	}

	err := h.Partners.Update(&p)
	var ve *repository.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		c.String(http.StatusNotFound, "Partenaire introuvable")
		return
	case errors.As(err, &ve):
		form["errors"] = formErrors(ve)
		h.render(c, http.StatusBadRequest, "partner_form.html", form)
		return
	default:
		h.fail(c, "Erreur d’enregistrement du partenaire", err)
		return
	}

	h.Log.Info("partner updated", zap.Uint("id", id))
	flash(c, "Modifications enregistrées")
	c.Redirect(http.StatusFound, partnerURL(id))
}

// DeletePartner removes the partner and its contacts.
func (h *Handler) DeletePartner(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	err := h.Partners.Delete(id)
	if errors.Is(err, repository.ErrNotFound) {
		c.String(http.StatusNotFound, "Partenaire introuvable")
		return
	}
	if err != nil {
		h.fail(c, "Erreur de suppression du partenaire", err)
		return
	}

	h.Log.Info("partner deleted", zap.Uint("id", id))
	flash(c, "Partenaire supprimé")
	c.Redirect(http.StatusFound, "/partners")
}
