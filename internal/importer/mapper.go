// Package importer turns uploaded spreadsheets into partner records: it reads
// CSV/XLSX/XLS files, suggests which column feeds which partner field and
// inserts one partner per row.
package importer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonical partner fields, in form order.
const (
	FieldCompanyName    = "company_name"
	FieldAddress        = "address"
	FieldNumber         = "number"
	FieldPostalCode     = "postal_code"
	FieldCity           = "city"
	FieldPhone          = "phone"
	FieldEmployeesCount = "employees_count"
	FieldWebsite        = "website"
	FieldResponsible    = "responsible"
	FieldRole           = "role"
	FieldEmail          = "email"
	FieldActivity       = "activity"
	FieldSectorClass    = "sector_class"
	FieldTags           = "tags"
)

// Unmapped is the mapping value of a field no column feeds.
const Unmapped = ""

var (
	ErrCompanyNameUnmapped = errors.New("the company_name column is required")
	ErrUnknownHeader       = errors.New("mapped column not found in file")
	ErrUnknownField        = errors.New("unknown partner field")
)

// Field is a canonical partner field and the column titles that usually
// carry it in spreadsheets exported by partners and colleagues.
type Field struct {
	Name    string
	Label   string
	Aliases []string // priority order
}

var Fields = []Field{
	{FieldCompanyName, "Nom de l’entreprise", []string{"nom", "nom de l’entreprise", "nom de l'entreprise", "entreprise", "company"}},
	{FieldAddress, "Adresse", []string{"adresse", "rue"}},
	{FieldNumber, "Numéro", []string{"numéro", "numero", "n°", "num"}},
	{FieldPostalCode, "Code postal", []string{"code postal", "cp"}},
	{FieldCity, "Localité", []string{"localité", "ville", "commune", "localite"}},
	{FieldPhone, "Téléphone", []string{"téléphone", "telephone", "tel"}},
	{FieldEmployeesCount, "Personnes employées (nombre)", []string{"personnes employées (nombre)", "effectif", "nb employés", "nb employés (nombre)", "employés"}},
	{FieldWebsite, "Site internet", []string{"site internet", "site web", "site", "url"}},
	{FieldResponsible, "Responsable", []string{"responsable", "nom du contact", "contact"}},
	{FieldRole, "Fonction", []string{"fonction", "titre"}},
	{FieldEmail, "E-mail", []string{"e-mail", "email", "mail", "e-mail 1", "email 1", "mail 1"}},
	{FieldActivity, "Activité", []string{"activité", "activite"}},
	{FieldSectorClass, "Classification sectorielle", []string{"classification sectorielle", "secteur", "categorie"}},
	{FieldTags, "Étiquettes", []string{"étiquettes", "etiquettes", "mots-clés", "mots-cles", "mots clés"}},
}

// FieldNames returns the canonical field names in order.
func FieldNames() []string {
	names := make([]string, len(Fields))
	for i, f := range Fields {
		names[i] = f.Name
	}
	return names
}

func isField(name string) bool {
	for _, f := range Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// NormalizeHeader is the form headers and aliases are compared in.
func NormalizeHeader(h string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(h)))
}

// Mapping maps a canonical field name to the source column feeding it.
// A missing key or Unmapped means the field stays empty.
type Mapping map[string]string

// AutoMap suggests a mapping for headers: a header equal to the field name
// wins, otherwise the first alias present. When two headers normalize to the
// same text the later one is used.
func AutoMap(headers []string) Mapping {
	lookup := make(map[string]string, len(headers))
	for _, h := range headers {
		lookup[NormalizeHeader(h)] = h
	}

	m := Mapping{}
	for _, f := range Fields {
		if h, ok := lookup[f.Name]; ok {
			m[f.Name] = h
			continue
		}
		for _, alias := range f.Aliases {
			if h, ok := lookup[NormalizeHeader(alias)]; ok {
				m[f.Name] = h
				break
			}
		}
	}
	return m
}

// Source returns the column mapped to field, or Unmapped.
func (m Mapping) Source(field string) string {
	return m[field]
}

// Set overrides the column for field. header Unmapped clears it.
func (m Mapping) Set(field, header string) error {
	if !isField(field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if header == Unmapped {
		delete(m, field)
		return nil
	}
	m[field] = header
	return nil
}

// Validate checks the mapping can be imported from a file with headers.
func (m Mapping) Validate(headers []string) error {
	if m.Source(FieldCompanyName) == Unmapped {
		return ErrCompanyNameUnmapped
	}

	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for _, f := range Fields {
		src := m.Source(f.Name)
		if src != Unmapped && !known[src] {
			return fmt.Errorf("%w: %s -> %q", ErrUnknownHeader, f.Name, src)
		}
	}
	return nil
}
