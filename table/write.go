package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/cloudx-io/openallocation/core"
)

// numFmtThousands is the built-in Excel number format #,##0.00.
const numFmtThousands = 4

// Labels names the derived output columns.
type Labels struct {
	RemainingStock string
	ChosenBuyers   string
	TotalSale      string
	Rank           string
	Buyer          string
	TotalPayable   string
}

// Sheet is one output table ready for export. Numeric cells hold
// decimal.Decimal values.
type Sheet struct {
	Name    string
	Header  []string
	Rows    [][]any
	Numeric []int // column indices rendered as #,##0.00
}

// DetailedSheet lays out every input row with its original cells followed by
// remaining stock, chosen buyers and total sale. Headers are the resolved
// column names.
func DetailedSheet(name string, table *core.Table, run *core.RunResult, labels Labels) Sheet {
	columns := run.Resolution.Columns
	header := make([]string, 0, len(columns)+3)
	header = append(header, columns...)
	header = append(header, labels.RemainingStock, labels.ChosenBuyers, labels.TotalSale)

	rows := make([][]any, len(table.Records))
	for i, outcome := range run.Result.Outcomes {
		row := make([]any, 0, len(header))
		for col := range columns {
			row = append(row, table.Cell(i, col))
		}
		row = append(row,
			outcome.RemainingStock,
			strings.Join(outcome.Chosen, ", "),
			core.RoundMoney(outcome.Revenue))
		rows[i] = row
	}

	return Sheet{
		Name:    name,
		Header:  header,
		Rows:    rows,
		Numeric: []int{len(columns), len(columns) + 2},
	}
}

// SummarySheet lays out the ranked buyer payment table.
func SummarySheet(name string, summary []core.SummaryEntry, labels Labels) Sheet {
	rows := make([][]any, len(summary))
	for i, entry := range summary {
		rows[i] = []any{entry.Rank, entry.Bidder, core.RoundMoney(entry.Total)}
	}
	return Sheet{
		Name:    name,
		Header:  []string{labels.Rank, labels.Buyer, labels.TotalPayable},
		Rows:    rows,
		Numeric: []int{2},
	}
}

// WriteXLSX writes the sheets, in order, as one workbook.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	style, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return fmt.Errorf("create number style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	seen := make(map[string]bool, len(sheets))
	for i, sheet := range sheets {
		if seen[strings.ToLower(sheet.Name)] {
			return fmt.Errorf("duplicate sheet name %q", sheet.Name)
		}
		seen[strings.ToLower(sheet.Name)] = true

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("name sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}

		if err := writeSheet(f, sheet, style); err != nil {
			return fmt.Errorf("write sheet %q: %w", sheet.Name, err)
		}
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet Sheet, style int) error {
	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = xlsxValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &cells); err != nil {
			return err
		}
	}

	if len(sheet.Rows) == 0 {
		return nil
	}
	for _, col := range sheet.Numeric {
		top, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(col+1, len(sheet.Rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, top, bottom, style); err != nil {
			return err
		}
	}
	return nil
}

func xlsxValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return core.ToFloat(d)
	}
	return v
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, sheets ...Sheet) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteXLSX(out, sheets...)
}

// WriteCSV writes one sheet as comma separated text. Numeric columns are
// written with two decimals.
func WriteCSV(w io.Writer, sheet Sheet) error {
	numeric := make(map[int]bool, len(sheet.Numeric))
	for _, col := range sheet.Numeric {
		numeric[col] = true
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(sheet.Header); err != nil {
		return err
	}
	for _, row := range sheet.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = csvValue(v, numeric[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvValue(v any, numeric bool) string {
	switch val := v.(type) {
	case decimal.Decimal:
		if numeric {
			return val.StringFixed(core.MonetaryPrecision)
		}
		return val.String()
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
