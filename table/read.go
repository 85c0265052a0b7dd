// Package table moves tabular data between files and the allocation engine.
//
// Input files are read with every cell kept as text. The header row is
// 1-based and rows above it are ignored.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cloudx-io/openallocation/core"
)

var (
	// ErrHeaderRowOutOfRange is returned when the header row is not inside the sheet.
	ErrHeaderRowOutOfRange = errors.New("header row out of range")

	// ErrUnsupportedFormat is returned for file extensions other than .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ReadOptions tune how a file is interpreted.
type ReadOptions struct {
	// HeaderRow is the 1-based row holding the column names
	HeaderRow int

	// Sheet selects a workbook sheet (empty means the first sheet)
	Sheet string

	// Comma is the CSV delimiter (0 detects ';' or ',' from the header line)
	Comma rune
}

// Read loads path, choosing the reader from the file extension.
func Read(path string, opts ReadOptions) (*core.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".xlsx", ".xlsm":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if ext == ".csv" {
		return ReadCSV(f, opts)
	}
	return ReadXLSX(f, opts)
}

// ReadCSV reads a delimited text table.
func ReadCSV(r io.Reader, opts ReadOptions) (*core.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = opts.Comma
	if cr.Comma == 0 {
		cr.Comma = detectComma(data)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return FromRows(rows, opts.HeaderRow)
}

// detectComma picks ';' when the first line has more semicolons than commas,
// as spreadsheet exports using a decimal comma do.
func detectComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// ReadXLSX reads one sheet of a workbook. Cell values are taken raw, without
// applying number formats.
func ReadXLSX(r io.Reader, opts ReadOptions) (*core.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return FromRows(rows, opts.HeaderRow)
}

// FromRows builds an engine table from raw rows.
//
// Processing flow:
//  1. Take row headerRow (1-based) as the header; earlier rows are ignored
//  2. Drop trailing rows whose cells are all blank
//  3. Widen the header to the longest record and name blank headers "Column N"
//  4. Pad short records with empty cells
func FromRows(rows [][]string, headerRow int) (*core.Table, error) {
	// Step 1: Header
	if headerRow < 1 || headerRow > len(rows) {
		return nil, fmt.Errorf("%w: row %d, sheet has %d rows", ErrHeaderRowOutOfRange, headerRow, len(rows))
	}
	header := rows[headerRow-1]
	body := rows[headerRow:]

	// Step 2: Trailing blank rows
	for len(body) > 0 && isBlank(body[len(body)-1]) {
		body = body[:len(body)-1]
	}

	// Step 3: Column names
	width := len(header)
	for _, record := range body {
		width = max(width, len(record))
	}
	columns := make([]string, width)
	for i := range columns {
		if i < len(header) {
			columns[i] = strings.TrimSpace(header[i])
		}
		if columns[i] == "" {
			columns[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	// Step 4: Records
	records := make([][]string, len(body))
	for i, record := range body {
		padded := make([]string, width)
		copy(padded, record)
		records[i] = padded
	}

	return &core.Table{Columns: columns, Records: records}, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
