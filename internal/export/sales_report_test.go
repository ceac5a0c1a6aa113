package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() SalesReport {
	return SalesReport{
		Start: "2026-09-14",
		End:   "2026-10-14",
		Summary: Summary{
			TotalRevenue:       decimal.NewFromInt(1250000),
			TotalTransactions:  12,
			UnitsSold:          40,
			AverageTransaction: decimal.RequireFromString("104166.67"),
		},
		Products: []ProductRow{
			{Name: "Kopi Susu", Sold: 25, Revenue: decimal.NewFromInt(375000)},
			{Name: "Roti Bakar", Sold: 15, Revenue: decimal.NewFromInt(300000)},
		},
	}
}

func TestWriteSalesReportLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSalesReport(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	cell := func(name string) string {
		v, err := f.GetCellValue(SheetName, name)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "LAPORAN PENJUALAN", cell("A1"))
	assert.Equal(t, "Periode: 2026-09-14 s/d 2026-10-14", cell("A2"))
	assert.Equal(t, "RINGKASAN", cell("A4"))
	assert.Equal(t, "Total Pendapatan", cell("A5"))
	assert.Equal(t, "1250000", cell("B5"))
	assert.Equal(t, "12", cell("B6"))
	assert.Equal(t, "40", cell("B7"))
	assert.Equal(t, "104167", cell("B8"))
	assert.Equal(t, "DETAIL PRODUK TERLARIS", cell("A10"))
	assert.Equal(t, "Nama Produk", cell("B11"))
	assert.Equal(t, "1", cell("A12"))
	assert.Equal(t, "Kopi Susu", cell("B12"))
	assert.Equal(t, "15", cell("C13"))

	merges, err := f.GetMergeCells(SheetName)
	require.NoError(t, err)
	var ranges []string
	for _, m := range merges {
		ranges = append(ranges, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.ElementsMatch(t, []string{"A1:D1", "A2:D2"}, ranges)

	for col, want := range map[string]float64{"A": 6, "B": 25, "C": 15, "D": 20} {
		got, err := f.GetColWidth(SheetName, col)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 0.01, "column %s", col)
	}
}

func TestWriteSalesReportWithoutProducts(t *testing.T) {
	r := sampleReport()
	r.Products = nil

	var buf bytes.Buffer
	require.NoError(t, WriteSalesReport(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 11)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "laporan-penjualan-2026-09-14.xlsx", sampleReport().Filename())
}
