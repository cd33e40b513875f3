package importer

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRead_CSV(t *testing.T) {
	data := []byte("\xEF\xBB\xBFNom,Ville,Effectif\n" +
		"ACME,Mons,12.7\n" +
		"\n" +
		"\"Dupont, fils\",Charleroi\n")

	ds, err := Read("partenaires.csv", data, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nom", "Ville", "Effectif"}, ds.Headers)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"ACME", "Mons", "12.7"}, ds.Rows[0])
	assert.Equal(t, []string{"Dupont, fils", "Charleroi", ""}, ds.Rows[1])
	assert.Equal(t, "Charleroi", ds.Cell(1, "Ville"))
	assert.Equal(t, "", ds.Cell(1, "Inconnue"))
}

func TestRead_CSVHeadersMadeUnique(t *testing.T) {
	data := []byte("Nom,,Tel,Tel,Tel.1\nA,b,1,2,3\n")

	ds, err := Read("x.CSV", data, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nom", "Unnamed: 1", "Tel", "Tel.1", "Tel.1.1"}, ds.Headers)
	assert.Equal(t, "2", ds.Cell(0, "Tel.1"))
	assert.Equal(t, "3", ds.Cell(0, "Tel.1.1"))
}

func TestRead_CSVErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"empty", "a.csv", ""},
		{"bare quote", "a.csv", "Nom,Ville\nA\"B,Mons\n"},
		{"too many fields", "a.csv", "Nom,Ville\nACME,Mons,extra\n"},
		{"latin1", "a.csv", "Nom,Ville\nSoci\xe9t\xe9,Mons\n"},
		{"unsupported", "a.txt", "Nom\nACME\n"},
		{"garbage xlsx", "a.xlsx", "not a zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.file, []byte(tt.data), "")
			var re *ReadError
			require.True(t, errors.As(err, &re), "got %v", err)
			assert.Equal(t, tt.file, re.Filename)
		})
	}
}

func TestRead_CSVTrailingEmptyFieldsTolerated(t *testing.T) {
	ds, err := Read("a.csv", []byte("Nom,Ville\nACME,Mons,,\n"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME", "Mons"}, ds.Rows[0])
}

func TestRead_CSVUTF16(t *testing.T) {
	// "Nom\nA\n" encoded as UTF-16LE with a byte order mark.
	data := []byte{0xFF, 0xFE, 'N', 0, 'o', 0, 'm', 0, '\n', 0, 'A', 0, '\n', 0}

	ds, err := Read("a.csv", data, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom"}, ds.Headers)
	assert.Equal(t, "A", ds.Cell(0, "Nom"))
}

func workbook(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRead_XLSX(t *testing.T) {
	data := workbook(t, map[string][][]interface{}{
		"Entreprises": {
			{"Nom de l’entreprise", "Localité", "Personnes employées (nombre)"},
			{"ACME", "Mons", 12},
			{"Boulangerie", nil, "beaucoup"},
		},
		"Contacts": {
			{"Nom", "Fonction"},
			{"Jeanne", "RH"},
		},
	}, "Entreprises", "Contacts")

	names, err := SheetNames("export.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Entreprises", "Contacts"}, names)

	ds, err := Read("export.xlsx", data, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom de l’entreprise", "Localité", "Personnes employées (nombre)"}, ds.Headers)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "12", ds.Cell(0, "Personnes employées (nombre)"))
	assert.Equal(t, []string{"Boulangerie", "", "beaucoup"}, ds.Rows[1])

	ds, err = Read("export.xlsx", data, "Contacts")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom", "Fonction"}, ds.Headers)
	assert.Equal(t, "Jeanne", ds.Cell(0, "Nom"))

	_, err = Read("export.xlsx", data, "Missing")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestSheetNames_CSV(t *testing.T) {
	names, err := SheetNames("a.csv", []byte("Nom\n"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRead_XLSXUsesStoredNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nom", "Effectif"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"ACME", 1234}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Beta", 12.7}))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	require.NoError(t, err)
	integer, err := f.NewStyle(&excelize.Style{NumFmt: 1}) // 0
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B2", thousands))
	require.NoError(t, f.SetCellStyle("Sheet1", "B3", "B3", integer))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := Read("effectifs.xlsx", buf.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, "1234", ds.Cell(0, "Effectif"))
	assert.Equal(t, "12.7", ds.Cell(1, "Effectif"))
	assert.Equal(t, "Beta", ds.Cell(1, "Nom"))

	m := AutoMap(ds.Headers)
	p, emp := BuildPartner(ds, 0, m)
	assert.Equal(t, 1234, p.EmployeesCount)
	assert.False(t, emp.Fallback)

	p, _ = BuildPartner(ds, 1, m)
	assert.Equal(t, 12, p.EmployeesCount)
}

func TestRead_XLSXEmptySheet(t *testing.T) {
	data := workbook(t, map[string][][]interface{}{
		"Data": {
			{"Nom", "Ville"},
			{"ACME", "Mons"},
		},
	}, "Couverture", "Data")

	names, err := SheetNames("classeur.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Couverture", "Data"}, names)

	_, err = Read("classeur.xlsx", data, "")
	assert.ErrorIs(t, err, ErrEmptyFile)

	ds, err := Read("classeur.xlsx", data, "Data")
	require.NoError(t, err)
	assert.Equal(t, "Mons", ds.Cell(0, "Ville"))
}

func TestRead_XLS(t *testing.T) {
	data, err := os.ReadFile("testdata/partenaires.xls")
	require.NoError(t, err)

	names, err := SheetNames("partenaires.xls", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Entreprises", "Contacts"}, names)

	ds, err := Read("partenaires.xls", data, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom de l’entreprise", "Localité", "Effectif"}, ds.Headers)
	// the blank third row is dropped
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"ACME", "Mons", "12.7"}, ds.Rows[0])
	assert.Equal(t, []string{"Boulangerie Dupont", "", "3"}, ds.Rows[1])

	ds, err = Read("partenaires.xls", data, "Contacts")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nom", "Fonction"}, ds.Headers)
	assert.Equal(t, "RH", ds.Cell(0, "Fonction"))

	_, err = Read("partenaires.xls", data, "Missing")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestRead_XLSCorrupt(t *testing.T) {
	fixture, err := os.ReadFile("testdata/partenaires.xls")
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"not a compound file", []byte("definitely not a workbook")},
		{"header only", fixture[:512]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var re *ReadError

			_, err := Read("broken.xls", tt.data, "")
			require.True(t, errors.As(err, &re), "got %v", err)
			assert.Equal(t, "broken.xls", re.Filename)

			_, err = SheetNames("broken.xls", tt.data)
			assert.True(t, errors.As(err, &re), "got %v", err)
		})
	}
}
