// Package export writes partner lists as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/AlessLeS/ism-partners-db/internal/models"
)

// Header is the first CSV line: id, the partner fields in form order, created_at.
var Header = []string{
	"id", "company_name", "address", "number", "postal_code", "city", "phone",
	"employees_count", "website", "responsible", "role", "email",
	"activity", "sector_class", "tags", "created_at",
}

const timeLayout = "2006-01-02 15:04:05"

// Filename is the download name for an export made at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("partenaires_%s.csv", t.Format("2006-01-02"))
}

// WritePartners writes partners as UTF-8 CSV, one line per partner.
func WritePartners(w io.Writer, partners []models.Partner) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, p := range partners {
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.UTC().Format(timeLayout)
		}
		rec := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.CompanyName, p.Address, p.Number, p.PostalCode, p.City, p.Phone,
			strconv.Itoa(p.EmployeesCount),
			p.Website, p.Responsible, p.Role, p.Email,
			p.Activity, p.SectorClass, p.Tags,
			created,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
