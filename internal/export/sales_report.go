// Package export renders reports as spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Laporan"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	tableHeaderRow = 11
	firstDataRow   = 12
)

type Summary struct {
	TotalRevenue       decimal.Decimal
	TotalTransactions  int64
	UnitsSold          int64
	AverageTransaction decimal.Decimal
}

type ProductRow struct {
	Name    string
	Sold    int64
	Revenue decimal.Decimal
}

// SalesReport is the content of one workbook. Start and End are YYYY-MM-DD.
type SalesReport struct {
	Start    string
	End      string
	Summary  Summary
	Products []ProductRow
}

func (r SalesReport) Filename() string {
	return fmt.Sprintf("laporan-penjualan-%s.xlsx", r.Start)
}

// WriteSalesReport writes the report as a single-sheet xlsx workbook.
func WriteSalesReport(w io.Writer, r SalesReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"LAPORAN PENJUALAN"},
		{fmt.Sprintf("Periode: %s s/d %s", r.Start, r.End)},
		{},
		{"RINGKASAN"},
		{"Total Pendapatan", r.Summary.TotalRevenue.InexactFloat64()},
		{"Total Transaksi", r.Summary.TotalTransactions},
		{"Produk Terjual", r.Summary.UnitsSold},
		{"Rata-rata Transaksi", r.Summary.AverageTransaction.Round(0).IntPart()},
		{},
		{"DETAIL PRODUK TERLARIS"},
		{"No", "Nama Produk", "Terjual", "Pendapatan"},
	}
	for i, p := range r.Products {
		rows = append(rows, []interface{}{i + 1, p.Name, p.Sold, p.Revenue.InexactFloat64()})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := layout(f, len(rows)); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func layout(f *excelize.File, lastRow int) error {
	for _, merge := range [][2]string{{"A1", "D1"}, {"A2", "D2"}} {
		if err := f.MergeCell(SheetName, merge[0], merge[1]); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 6, "B": 25, "C": 15, "D": 20}
	for col, width := range widths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E5E7EB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	value, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(SheetName, "A1", "D1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, cellName(1, tableHeaderRow), cellName(4, tableHeaderRow), header); err != nil {
		return err
	}
	for _, row := range []int{5, 6, 7, 8} {
		if err := styleRow(f, row, label, value); err != nil {
			return err
		}
	}
	for row := firstDataRow; row <= lastRow; row++ {
		if err := styleRow(f, row, label, value); err != nil {
			return err
		}
	}
	return nil
}

func styleRow(f *excelize.File, row, label, value int) error {
	if err := f.SetCellStyle(SheetName, cellName(1, row), cellName(1, row), label); err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, cellName(2, row), cellName(4, row), value)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
