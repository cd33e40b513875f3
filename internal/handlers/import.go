package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/AlessLeS/ism-partners-db/internal/importer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxUploadSize = 20 << 20
	previewRows   = 5
)

func (h *Handler) ShowImport(c *gin.Context) {
	h.render(c, http.StatusOK, "import_upload.html", gin.H{"title": "Importer"})
}

func (h *Handler) uploadError(c *gin.Context, msg string) {
	h.render(c, http.StatusBadRequest, "import_upload.html", gin.H{
		"title": "Importer",
		"error": msg,
	})
}

// UploadImport stores the uploaded file and sends the user to the mapping
// form. Files that cannot be opened are refused here.
func (h *Handler) UploadImport(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.uploadError(c, "Aucun fichier reçu")
		return
	}
	if fh.Size > maxUploadSize {
		h.uploadError(c, "Fichier trop volumineux (20 Mo maximum)")
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, "Lecture du fichier impossible", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		h.fail(c, "Lecture du fichier impossible", err)
		return
	}

	if err := checkUpload(fh.Filename, data); err != nil {
		h.Log.Info("upload refused", zap.String("filename", fh.Filename), zap.Error(err))
		h.uploadError(c, readErrorMessage(err))
		return
	}

	token, err := h.Uploads.Save(fh.Filename, data)
	if err != nil {
		h.fail(c, "Enregistrement du fichier impossible", err)
		return
	}
	c.Redirect(http.StatusFound, "/import/"+token)
}

// checkUpload parses a CSV file in full. A workbook only has to open and list
// at least one sheet; its sheets are read once the user picks one.
func checkUpload(filename string, data []byte) error {
	sheets, err := importer.SheetNames(filename, data)
	if err != nil || len(sheets) > 0 {
		return err
	}
	_, err = importer.Read(filename, data, "")
	return err
}

func readErrorMessage(err error) string {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return "Format non pris en charge : utilisez un fichier .csv, .xlsx ou .xls"
	case errors.Is(err, importer.ErrSheetNotFound):
		return "Feuille introuvable dans le classeur"
	case errors.Is(err, importer.ErrEmptyFile):
		return "Aucune ligne d’en-tête : le fichier ou la feuille est vide"
	}
	var re *importer.ReadError
	if errors.As(err, &re) {
		return "Fichier illisible : " + re.Err.Error()
	}
	return "Fichier illisible"
}

type upload struct {
	token    string
	filename string
	sheet    string
	sheets   []string
	// ds is nil when the selected sheet could not be read; readErr says why
	ds      *importer.Dataset
	readErr error
}

// openUpload loads the upload named in the URL and reads sheet, or the first
// readable sheet when sheet is "". It writes the error response itself and
// returns false when the file cannot be used at all.
func (h *Handler) openUpload(c *gin.Context, sheet string) (*upload, bool) {
	token := c.Param("token")
	name, data, err := h.Uploads.Open(token)
	if errors.Is(err, importer.ErrUploadNotFound) {
		c.String(http.StatusNotFound, "Fichier introuvable, veuillez le renvoyer")
		return nil, false
	}
	if err != nil {
		h.fail(c, "Lecture du fichier impossible", err)
		return nil, false
	}

	sheets, err := importer.SheetNames(name, data)
	if err != nil {
		h.uploadError(c, readErrorMessage(err))
		return nil, false
	}

	u := &upload{token: token, filename: name, sheet: sheet, sheets: sheets}
	if sheet != "" || len(sheets) == 0 {
		u.ds, u.readErr = importer.Read(name, data, sheet)
	} else {
		for _, s := range sheets {
			if u.ds, u.readErr = importer.Read(name, data, s); u.readErr == nil {
				u.sheet = s
				break
			}
		}
		if u.readErr != nil {
			u.sheet = sheets[0]
		}
	}

	if u.readErr != nil && len(sheets) == 0 {
		h.uploadError(c, readErrorMessage(u.readErr))
		return nil, false
	}
	return u, true
}

// renderMapping shows the sheet picker, the preview and the mapping form. When
// the selected sheet could not be read only the picker and the error are shown.
func (h *Handler) renderMapping(c *gin.Context, status int, u *upload, m importer.Mapping, msg string) {
	data := gin.H{
		"title":    "Importer " + u.filename,
		"token":    u.token,
		"filename": u.filename,
		"sheet":    u.sheet,
		"sheets":   u.sheets,
		"fields":   importer.Fields,
		"mapping":  m,
		"error":    msg,
	}
	if u.ds == nil {
		if msg == "" {
			data["error"] = readErrorMessage(u.readErr)
		}
		h.render(c, status, "import_mapping.html", data)
		return
	}

	preview := u.ds.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	data["headers"] = u.ds.Headers
	data["rows"] = u.ds.Len()
	data["preview"] = preview
	h.render(c, status, "import_mapping.html", data)
}

// ShowImportMapping previews the selected sheet and proposes a mapping.
func (h *Handler) ShowImportMapping(c *gin.Context) {
	u, ok := h.openUpload(c, c.Query("sheet"))
	if !ok {
		return
	}
	if u.ds == nil {
		h.renderMapping(c, http.StatusBadRequest, u, nil, "")
		return
	}
	h.renderMapping(c, http.StatusOK, u, importer.AutoMap(u.ds.Headers), "")
}

// RunImport inserts the rows with the mapping chosen in the form.
func (h *Handler) RunImport(c *gin.Context) {
	u, ok := h.openUpload(c, c.PostForm("sheet"))
	if !ok {
		return
	}
	if u.ds == nil {
		h.renderMapping(c, http.StatusBadRequest, u, nil, "")
		return
	}

	m := importer.Mapping{}
	for _, f := range importer.Fields {
		_ = m.Set(f.Name, c.PostForm("map_"+f.Name))
	}

	res, err := h.Importer.Run(u.ds, m)
	switch {
	case errors.Is(err, importer.ErrCompanyNameUnmapped):
		h.renderMapping(c, http.StatusBadRequest, u, m, "Choisissez la colonne du nom de l’entreprise")
		return
	case errors.Is(err, importer.ErrUnknownHeader):
		h.renderMapping(c, http.StatusBadRequest, u, m, "Une colonne choisie n’existe pas dans le fichier")
		return
	case err != nil:
		h.fail(c, "Import interrompu", err)
		return
	}

	if err := h.Uploads.Remove(u.token); err != nil {
		h.Log.Warn("upload not removed", zap.String("token", u.token), zap.Error(err))
	}

	h.render(c, http.StatusOK, "import_done.html", gin.H{
		"title":  "Import terminé",
		"result": res,
	})
}
