package extractor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nconklindev/fileuploader/internal/types"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmptyFile         = errors.New("empty file")
	ErrDuplicateHeader   = errors.New("duplicate column header")
)

// xlsCharset is handed to the legacy workbook reader for non-unicode strings.
const xlsCharset = "utf-8"

// xlsMaxCols is the column limit of a BIFF8 sheet.
const xlsMaxCols = 256

// Decoder reads a file into its header record and data records.
type Decoder func(filePath string) (*types.FileData, error)

var decoders = map[string]Decoder{
	".csv":  readCSVData,
	".xls":  readXLSData,
	".xlsx": readXLSXData,
}

// SupportedExtensions lists the extensions ReadRows accepts, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupported reports whether the file extension has a decoder.
func IsSupported(filePath string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(filePath))]
	return ok
}

// ReadFileData picks a decoder by the lower-cased file extension.
func ReadFileData(filePath string) (*types.FileData, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w %q: the valid file types are %s",
			ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions(), ", "))
	}

	slog.Debug("decoding file", "path", filePath, "format", ext)
	return decode(filePath)
}

// ReadRows decodes the file and turns every record after the header into a
// Row keyed by the non-empty header names.
func ReadRows(filePath string) (types.RowSet, error) {
	data, err := ReadFileData(filePath)
	if err != nil {
		return nil, err
	}

	rows, err := BuildRows(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
	}

	slog.Debug("rows extracted", "path", filePath, "rows", len(rows))
	return rows, nil
}

// BuildRows pairs each record with the header positionally. Columns with an
// empty header are dropped and missing cells become empty text.
func BuildRows(data *types.FileData) (types.RowSet, error) {
	columns, err := headerColumns(data.Headers)
	if err != nil {
		return nil, err
	}

	rows := make(types.RowSet, 0, len(data.Rows))
	for _, record := range data.Rows {
		row := make(types.Row, 0, len(columns))
		for _, col := range columns {
			val := ""
			if col.index < len(record) {
				val = record[col.index]
			}
			row = append(row, types.Field{Name: col.name, Value: types.ParseCell(val)})
		}
		rows = append(rows, row)
	}

	return rows, nil
}

type column struct {
	index int
	name  string
}

func headerColumns(headers []string) ([]column, error) {
	seen := make(map[string]bool, len(headers))
	columns := make([]column, 0, len(headers))

	for i, h := range headers {
		if h == "" {
			continue
		}
		if seen[h] {
			return nil, fmt.Errorf("%w %q", ErrDuplicateHeader, h)
		}
		seen[h] = true
		columns = append(columns, column{index: i, name: h})
	}

	return columns, nil
}

func readCSVData(filePath string) (*types.FileData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return decodeCSV(file)
}

func decodeCSV(r io.Reader) (*types.FileData, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	// Spreadsheet exports often lead with a UTF-8 byte order mark.
	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	return &types.FileData{
		Headers: headers,
		Rows:    records[1:],
	}, nil
}

func readXLSXData(filePath string) (*types.FileData, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)

	// Raw values keep numbers free of display formatting such as "1,234.00".
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return &types.FileData{
		Headers: rows[0],
		Rows:    rows[1:],
	}, nil
}

func readXLSData(filePath string) (*types.FileData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return decodeXLS(file)
}

func decodeXLS(r io.ReadSeeker) (data *types.FileData, err error) {
	// The BIFF reader trusts record offsets and panics on corrupt workbooks.
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, fmt.Errorf("read xls: malformed workbook: %v", p)
		}
	}()

	wb, err := xls.OpenReader(r, xlsCharset)
	if err != nil {
		return nil, fmt.Errorf("read xls: %w", err)
	}
	if wb == nil {
		return nil, errors.New("read xls: no workbook stream")
	}

	if wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		records = append(records, xlsRecord(sheetRow(sheet, i)))
	}

	// Trailing rows without any cells are not part of the sheet's data.
	for len(records) > 0 && len(records[len(records)-1]) == 0 {
		records = records[:len(records)-1]
	}

	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	return &types.FileData{
		Headers: records[0],
		Rows:    records[1:],
	}, nil
}

// sheetRow returns nil for a row index the sheet holds no cells for.
// WorkSheet.Row dereferences the missing row instead of returning nil.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// xlsRecord reads a row's cells up to its last non-empty one. Rows written
// without a ROW record report no width, so the whole BIFF8 range is scanned.
func xlsRecord(row *xls.Row) []string {
	if row == nil {
		return nil
	}

	width := row.LastCol()
	if width <= 0 || width > xlsMaxCols {
		width = xlsMaxCols
	}

	record := make([]string, width)
	for c := range record {
		record[c] = row.Col(c)
	}
	for len(record) > 0 && record[len(record)-1] == "" {
		record = record[:len(record)-1]
	}
	return record
}
