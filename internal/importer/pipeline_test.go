package importer

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/AlessLeS/ism-partners-db/internal/database"
	"github.com/AlessLeS/ism-partners-db/internal/models"
	"github.com/AlessLeS/ism-partners-db/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newPartnerRepo(t *testing.T) *repository.PartnerRepository {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "import.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = database.EnsureSchema(db)
	require.NoError(t, err)
	return repository.NewPartnerRepository(db)
}

func mustRead(t *testing.T, csv string) *Dataset {
	t.Helper()
	ds, err := Read("import.csv", []byte(csv), "")
	require.NoError(t, err)
	return ds
}

func TestImporter_Run(t *testing.T) {
	repo := newPartnerRepo(t)
	ds := mustRead(t, "Nom,Ville,Effectif,Remarques\n"+
		"ACME,Mons,12.7,ignored\n"+
		"Boulangerie Martin,Charleroi,beaucoup,\n"+
		"Garage Dubois,Binche,,\n")

	res, err := New(repo, zaptest.NewLogger(t)).Run(ds, AutoMap(ds.Headers))
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 1, res.Fallbacks)
	assert.Zero(t, res.Skipped)

	got, err := repo.List(repository.PartnerFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	byName := map[string]models.Partner{}
	for _, p := range got {
		byName[p.CompanyName] = p
	}
	assert.Equal(t, 12, byName["ACME"].EmployeesCount)
	assert.Equal(t, "Mons", byName["ACME"].City)
	assert.Equal(t, 0, byName["Boulangerie Martin"].EmployeesCount)
	assert.Equal(t, 0, byName["Garage Dubois"].EmployeesCount)
	assert.Empty(t, byName["ACME"].Phone)
	assert.Empty(t, byName["ACME"].Tags)
}

func TestImporter_RunKeepsCellsVerbatim(t *testing.T) {
	repo := newPartnerRepo(t)
	ds := mustRead(t, "company_name,city\n\"  ACME  \",\" Mons\"\n")

	_, err := New(repo, nil).Run(ds, AutoMap(ds.Headers))
	require.NoError(t, err)

	got, err := repo.List(repository.PartnerFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "  ACME  ", got[0].CompanyName)
	assert.Equal(t, " Mons", got[0].City)
}

func TestImporter_RunRefusesWithoutCompanyName(t *testing.T) {
	repo := newPartnerRepo(t)
	ds := mustRead(t, "Ville,Secteur\nMons,Industrie\nBinche,Commerce\n")

	res, err := New(repo, nil).Run(ds, AutoMap(ds.Headers))
	assert.ErrorIs(t, err, ErrCompanyNameUnmapped)
	assert.Zero(t, res.Inserted)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImporter_RunRefusesUnknownHeader(t *testing.T) {
	repo := newPartnerRepo(t)
	ds := mustRead(t, "Nom\nACME\n")

	m := AutoMap(ds.Headers)
	require.NoError(t, m.Set(FieldCity, "Ville"))

	_, err := New(repo, nil).Run(ds, m)
	assert.ErrorIs(t, err, ErrUnknownHeader)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImporter_RunSkipsRowsWithoutName(t *testing.T) {
	repo := newPartnerRepo(t)
	ds := mustRead(t, "Nom,Ville\nACME,Mons\n,Binche\nBeta,Ath\n")

	res, err := New(repo, nil).Run(ds, AutoMap(ds.Headers))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
}

func TestImporter_RunManualMapping(t *testing.T) {
	repo := newPartnerRepo(t)
	ds := mustRead(t, "Raison sociale,Localisation\nACME,Mons\n")

	m := AutoMap(ds.Headers)
	require.NoError(t, m.Set(FieldCompanyName, "Raison sociale"))
	require.NoError(t, m.Set(FieldCity, "Localisation"))

	res, err := New(repo, nil).Run(ds, m)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	got, err := repo.List(repository.PartnerFilter{City: "mons"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ACME", got[0].CompanyName)
}

type failingWriter struct {
	calls  int
	failAt int
}

func (w *failingWriter) Create(*models.Partner) error {
	w.calls++
	if w.calls == w.failAt {
		return errors.New("disk I/O error")
	}
	return nil
}

func TestImporter_RunStopsOnStoreFailure(t *testing.T) {
	ds := mustRead(t, "Nom\nA\nB\nC\n")
	w := &failingWriter{failAt: 2}

	res, err := New(w, nil).Run(ds, AutoMap(ds.Headers))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, w.calls)
}
