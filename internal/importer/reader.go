package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type, expected .csv, .xlsx or .xls")
	ErrEmptyFile         = errors.New("file has no header row")
	ErrSheetNotFound     = errors.New("worksheet not found")
)

// ReadError reports a file that could not be parsed. Nothing is imported.
type ReadError struct {
	Filename string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Filename, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Dataset is a parsed file: the header row and the data rows, every row
// padded to len(Headers).
type Dataset struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

func newDataset(records [][]string) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyFile
	}

	headers := uniqueHeaders(records[0])
	ds := &Dataset{Headers: headers, index: make(map[string]int, len(headers))}
	for i, h := range headers {
		ds.index[h] = i
	}

	for n, rec := range records[1:] {
		if len(rec) > len(headers) {
			if blank(rec[len(headers):]) {
				rec = rec[:len(headers)]
			} else {
				return nil, fmt.Errorf("line %d: expected %d fields, saw %d", n+2, len(headers), len(rec))
			}
		}
		if blank(rec) {
			continue
		}
		row := make([]string, len(headers))
		copy(row, rec)
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// Cell returns the value of column header in row, "" if there is no such column.
func (d *Dataset) Cell(row int, header string) string {
	i, ok := d.index[header]
	if !ok || row < 0 || row >= len(d.Rows) {
		return ""
	}
	return d.Rows[row][i]
}

// Len is the number of data rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// uniqueHeaders names empty headers "Unnamed: <index>" and suffixes repeated
// ones with ".1", ".2", ... so every column can be addressed by its title.
func uniqueHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	counts := make(map[string]int, len(raw))
	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		cur := counts[h]
		for cur > 0 {
			counts[h] = cur + 1
			h = fmt.Sprintf("%s.%d", h, cur)
			cur = counts[h]
		}
		headers[i] = h
		counts[h] = cur + 1
	}
	return headers
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type format int

const (
	formatCSV format = iota
	formatXLSX
	formatXLS
)

func detect(filename string) (format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return formatCSV, nil
	case ".xlsx", ".xlsm":
		return formatXLSX, nil
	case ".xls":
		return formatXLS, nil
	}
	return 0, ErrUnsupportedFormat
}

// Read parses data according to the extension of filename. sheet selects a
// worksheet of a workbook by name, "" meaning the first one; it is ignored
// for CSV. Every failure is a *ReadError.
func Read(filename string, data []byte, sheet string) (*Dataset, error) {
	ds, err := read(filename, data, sheet)
	if err != nil {
		return nil, &ReadError{Filename: filename, Err: err}
	}
	return ds, nil
}

func read(filename string, data []byte, sheet string) (*Dataset, error) {
	f, err := detect(filename)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch f {
	case formatCSV:
		records, err = readCSV(data)
	case formatXLSX:
		records, err = readXLSX(data, sheet)
	case formatXLS:
		records, err = readXLS(data, sheet)
	}
	if err != nil {
		return nil, err
	}
	return newDataset(records)
}

// SheetNames lists the worksheets of a workbook. A CSV file has none.
func SheetNames(filename string, data []byte) ([]string, error) {
	f, err := detect(filename)
	if err != nil {
		return nil, &ReadError{Filename: filename, Err: err}
	}

	var names []string
	switch f {
	case formatXLSX:
		names, err = xlsxSheets(data)
	case formatXLS:
		names, err = xlsSheets(data)
	}
	if err != nil {
		return nil, &ReadError{Filename: filename, Err: err}
	}
	return names, nil
}

func readCSV(data []byte) ([][]string, error) {
	var src io.Reader = bytes.NewReader(data)
	if hasUTF16BOM(data) {
		src = transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	} else {
		if !utf8.Valid(data) {
			return nil, errors.New("file is not valid UTF-8")
		}
		// drops a UTF-8 byte order mark
		src = transform.NewReader(src, unicode.UTF8BOM.NewDecoder())
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

func openXLSX(data []byte) (*excelize.File, error) {
	return excelize.OpenReader(bytes.NewReader(data))
}

func xlsxSheets(data []byte) ([]string, error) {
	file, err := openXLSX(data)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return file.GetSheetList(), nil
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	file, err := openXLSX(data)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrSheetNotFound
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	// stored values, not the number-formatted text ("1234", not "1,234")
	return file.GetRows(sheet, excelize.Options{RawCellValue: true})
}

// openXLS guards against the parser panicking on damaged files.
func openXLS(data []byte) (wb *xls.WorkBook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()
	wb, err = xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err == nil && wb == nil {
		err = errors.New("no workbook stream")
	}
	return wb, err
}

// xlsRow returns nil for rows without cells, which the parser does not store.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func xlsSheets(data []byte) (names []string, err error) {
	wb, err := openXLS(data)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			names, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	names = make([]string, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		if s := wb.GetSheet(i); s != nil {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

func readXLS(data []byte, sheet string) (records [][]string, err error) {
	wb, err := openXLS(data)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		if sheet == "" || s.Name == sheet {
			ws = s
			break
		}
	}
	if ws == nil {
		if sheet == "" {
			return nil, ErrSheetNotFound
		}
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	for i := 0; i <= int(ws.MaxRow); i++ {
		row := xlsRow(ws, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		// LastCol is one past the last cell; it is 0 when the file has no ROW record
		width := row.LastCol()
		if len(records) > 0 && len(records[0]) > width {
			width = len(records[0])
		}
		rec := make([]string, width)
		for j := row.FirstCol(); j < width; j++ {
			rec[j] = row.Col(j)
		}
		records = append(records, rec)
	}
	return records, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
