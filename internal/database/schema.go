package database

import (
	"fmt"
	"strings"

	"github.com/AlessLeS/ism-partners-db/internal/models"

	"gorm.io/gorm"
)

// Column is one expected column of a managed table. Def is the definition
// used when the column has to be added to an existing table, so it must stay
// nullable and carry only constant defaults (SQLite refuses anything else in
// ALTER TABLE ... ADD COLUMN).
type Column struct {
	Table string
	Name  string
	Def   string
}

// expectedColumns is the canonical column set of both tables. Older databases
// (first versions had neither tags nor contacts) are upgraded from this list.
var expectedColumns = []Column{
	{"partners", "company_name", "TEXT"},
	{"partners", "address", "TEXT"},
	{"partners", "number", "TEXT"},
	{"partners", "postal_code", "TEXT"},
	{"partners", "city", "TEXT"},
	{"partners", "phone", "TEXT"},
	{"partners", "employees_count", "INTEGER DEFAULT 0"},
	{"partners", "website", "TEXT"},
	{"partners", "responsible", "TEXT"},
	{"partners", "role", "TEXT"},
	{"partners", "email", "TEXT"},
	{"partners", "activity", "TEXT"},
	{"partners", "sector_class", "TEXT"},
	{"partners", "tags", "TEXT"},
	{"partners", "created_at", "TIMESTAMP"},

	{"contacts", "partner_id", "INTEGER"},
	{"contacts", "full_name", "TEXT"},
	{"contacts", "function", "TEXT"},
	{"contacts", "email", "TEXT"},
	{"contacts", "phone", "TEXT"},
	{"contacts", "mobile", "TEXT"},
	{"contacts", "is_jury", "BOOLEAN DEFAULT FALSE"},
	{"contacts", "notes", "TEXT"},
	{"contacts", "created_at", "TIMESTAMP"},
}

// MigrationResult lists what EnsureSchema changed. Both slices are empty on
// an up-to-date database.
type MigrationResult struct {
	CreatedTables []string
	AddedColumns  []string // "table.column"
}

func (r MigrationResult) Changed() bool {
	return len(r.CreatedTables) > 0 || len(r.AddedColumns) > 0
}

// EnsureSchema creates missing tables and adds missing columns. It never
// drops, renames or rewrites anything. partners is handled before contacts
// because the contacts foreign key references it.
//
// Any error leaves the caller with a schema it must not run against.
func EnsureSchema(db *gorm.DB) (MigrationResult, error) {
	var res MigrationResult
	m := db.Migrator()

	tables := []struct {
		name  string
		model interface{}
	}{
		{"partners", &models.Partner{}},
		{"contacts", &models.Contact{}},
	}
	for _, t := range tables {
		if m.HasTable(t.name) {
			continue
		}
		if err := m.CreateTable(t.model); err != nil {
			return res, fmt.Errorf("create table %s: %w", t.name, err)
		}
		res.CreatedTables = append(res.CreatedTables, t.name)
	}

	existing := map[string]map[string]bool{}
	for _, t := range tables {
		cols, err := m.ColumnTypes(t.name)
		if err != nil {
			return res, fmt.Errorf("inspect table %s: %w", t.name, err)
		}
		existing[t.name] = make(map[string]bool, len(cols))
		for _, c := range cols {
			existing[t.name][strings.ToLower(c.Name())] = true
		}
	}

	for _, col := range expectedColumns {
		if existing[col.Table][col.Name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", col.Table, col.Name, col.Def)
		if err := db.Exec(stmt).Error; err != nil {
			return res, fmt.Errorf("add column %s.%s: %w", col.Table, col.Name, err)
		}
		res.AddedColumns = append(res.AddedColumns, col.Table+"."+col.Name)
	}

	return res, nil
}

// ForeignKeysEnforced reports whether deleting a partner will cascade on its
// own. Postgres always enforces declared constraints; SQLite only when the
// connection enabled the pragma.
func ForeignKeysEnforced(db *gorm.DB) bool {
	if db.Dialector.Name() != "sqlite" {
		return true
	}
	var on int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&on).Error; err != nil {
		return false
	}
	return on == 1
}
