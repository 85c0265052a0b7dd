package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/xuri/excelize/v2"

	"github.com/cloudx-io/openallocation/core"
)

var testLabels = Labels{
	RemainingStock: "Remaining",
	ChosenBuyers:   "Chosen",
	TotalSale:      "Sale",
	Rank:           "Rank",
	Buyer:          "Buyer",
	TotalPayable:   "Payable",
}

func exampleRun(t *testing.T) (*core.Table, *core.RunResult) {
	t.Helper()
	table := &core.Table{
		Columns: []string{"Malzeme", "Stok", "A Adet", "A Fiyat", "B Adet", "B Fiyat", "C Adet", "C Fiyat"},
		Records: [][]string{
			{"P1", "10", "4", "50", "8", "70", "3", "90"},
			{"P2", "5", "", "", "", "", "", ""},
		},
	}
	run, err := core.Run(table, core.DefaultColumnAliases(), core.Options{})
	assert.Nil(t, err)
	return table, run
}

func TestDetailedSheet_Layout(t *testing.T) {
	table, run := exampleRun(t)

	sheet := DetailedSheet("Detailed", table, run, testLabels)

	check.Equal(t, []string{"Malzeme", "Ges.bestand", "A Adet", "A Fiyat", "B Adet", "B Fiyat", "C Adet", "C Fiyat", "Remaining", "Chosen", "Sale"}, sheet.Header)
	check.Equal(t, []int{8, 10}, sheet.Numeric)
	assert.Equal(t, 2, len(sheet.Rows))
	check.Equal(t, "P1", sheet.Rows[0][0].(string))
	check.Equal(t, "C, B", sheet.Rows[0][9].(string))
	check.Equal(t, "", sheet.Rows[1][9].(string))
}

func TestSummarySheet_Layout(t *testing.T) {
	_, run := exampleRun(t)

	sheet := SummarySheet("Summary", run.Summary, testLabels)

	check.Equal(t, []string{"Rank", "Buyer", "Payable"}, sheet.Header)
	assert.Equal(t, 2, len(sheet.Rows))
	check.Equal(t, 1, sheet.Rows[0][0].(int))
	check.Equal(t, "B", sheet.Rows[0][1].(string))
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	table, run := exampleRun(t)
	detailed := DetailedSheet("Detailed", table, run, testLabels)
	summary := SummarySheet("Summary", run.Summary, testLabels)

	var buf bytes.Buffer
	assert.NoError(t, WriteXLSX(&buf, detailed, summary))

	f, err := excelize.OpenReader(&buf)
	assert.Nil(t, err)
	defer f.Close()

	check.Equal(t, []string{"Detailed", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Summary", excelize.Options{RawCellValue: true})
	assert.Nil(t, err)
	check.Equal(t, [][]string{
		{"Rank", "Buyer", "Payable"},
		{"1", "B", "490"},
		{"2", "C", "270"},
	}, rows)

	rows, err = f.GetRows("Detailed", excelize.Options{RawCellValue: true})
	assert.Nil(t, err)
	check.Equal(t, "760", rows[1][10])
	check.Equal(t, "5", rows[2][8])

	styleID, err := f.GetCellStyle("Summary", "C2")
	assert.Nil(t, err)
	style, err := f.GetStyle(styleID)
	assert.Nil(t, err)
	check.Equal(t, numFmtThousands, style.NumFmt)
}

func TestWriteXLSX_Errors(t *testing.T) {
	var buf bytes.Buffer
	check.Error(t, WriteXLSX(&buf))

	sheet := Sheet{Name: "Same", Header: []string{"x"}}
	check.Error(t, WriteXLSX(&buf, sheet, sheet))
}

func TestWriteCSV_FixedDecimals(t *testing.T) {
	_, run := exampleRun(t)
	sheet := SummarySheet("Summary", run.Summary, testLabels)

	var buf bytes.Buffer
	assert.NoError(t, WriteCSV(&buf, sheet))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	check.Equal(t, []string{"Rank,Buyer,Payable", "1,B,490.00", "2,C,270.00"}, lines)
}
