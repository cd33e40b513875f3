package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// legacyPartnersDDL is the table as the first release of the app created it:
// no tags column, no contacts table.
const legacyPartnersDDL = `
CREATE TABLE IF NOT EXISTS partners (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_name TEXT NOT NULL,
    address TEXT,
    number TEXT,
    postal_code TEXT,
    city TEXT,
    phone TEXT,
    employees_count INTEGER,
    website TEXT,
    responsible TEXT,
    role TEXT,
    email TEXT,
    activity TEXT,
    sector_class TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func TestEnsureSchema_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	res, err := EnsureSchema(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"partners", "contacts"}, res.CreatedTables)
	assert.Empty(t, res.AddedColumns)

	for _, col := range expectedColumns {
		assert.True(t, db.Migrator().HasColumn(col.Table, col.Name), "%s.%s", col.Table, col.Name)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)

	_, err := EnsureSchema(db)
	require.NoError(t, err)

	require.NoError(t, db.Exec(`INSERT INTO partners (company_name, city, tags) VALUES ('ACME', 'Mons', 'stage')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO contacts (partner_id, full_name) VALUES (1, 'Jeanne Dupont')`).Error)

	res, err := EnsureSchema(db)
	require.NoError(t, err)
	assert.False(t, res.Changed())

	assert.Equal(t, int64(1), countRows(t, db, "partners"))
	assert.Equal(t, int64(1), countRows(t, db, "contacts"))

	var city, tags string
	require.NoError(t, db.Raw(`SELECT city, tags FROM partners WHERE id = 1`).Row().Scan(&city, &tags))
	assert.Equal(t, "Mons", city)
	assert.Equal(t, "stage", tags)
}

func TestEnsureSchema_UpgradesLegacyPartners(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec(legacyPartnersDDL).Error)
	require.NoError(t, db.Exec(`INSERT INTO partners (company_name, employees_count) VALUES ('Garage Dubois', 12)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO partners (company_name) VALUES ('Boulangerie')`).Error)

	res, err := EnsureSchema(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts"}, res.CreatedTables)
	assert.Equal(t, []string{"partners.tags"}, res.AddedColumns)

	assert.True(t, db.Migrator().HasColumn("partners", "tags"))
	assert.Equal(t, int64(2), countRows(t, db, "partners"))

	var name string
	var count int
	var tags *string
	require.NoError(t, db.Raw(`SELECT company_name, employees_count, tags FROM partners WHERE id = 1`).Row().Scan(&name, &count, &tags))
	assert.Equal(t, "Garage Dubois", name)
	assert.Equal(t, 12, count)
	assert.Nil(t, tags, "added column must be nullable with no value for old rows")

	res, err = EnsureSchema(db)
	require.NoError(t, err)
	assert.False(t, res.Changed())
}

func TestEnsureSchema_CascadeDeclared(t *testing.T) {
	db := openTestDB(t)
	_, err := EnsureSchema(db)
	require.NoError(t, err)
	require.True(t, ForeignKeysEnforced(db))

	require.NoError(t, db.Exec(`INSERT INTO partners (company_name) VALUES ('ACME')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO contacts (partner_id, full_name) VALUES (1, 'A'), (1, 'B')`).Error)

	require.NoError(t, db.Exec(`DELETE FROM partners WHERE id = 1`).Error)
	assert.Equal(t, int64(0), countRows(t, db, "contacts"))
}

func TestForeignKeysEnforced_PragmaOff(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec(`PRAGMA foreign_keys = OFF`).Error)
	assert.False(t, ForeignKeysEnforced(db))
}
