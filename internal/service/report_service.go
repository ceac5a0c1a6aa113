package service

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"frendo-pos/internal/export"
	"frendo-pos/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	reportDays     = 30
	reportTopLimit = 10
)

var (
	ErrInvalidDate  = errors.New("dates must use the YYYY-MM-DD format")
	ErrInvalidRange = errors.New("start date must not be after end date")
)

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) StartDate() string { return w.Start.Format(dateLayout) }
func (w Window) EndDate() string   { return w.End.Format(dateLayout) }

// until is the last instant of the end day.
func (w Window) until() time.Time {
	return startOfDay(w.End).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ParseWindow reads start/end (YYYY-MM-DD, either may be empty). The default is the
// last 30 days up to today.
func ParseWindow(start, end string, now time.Time) (Window, error) {
	loc := now.Location()
	w := Window{
		Start: startOfDay(now.AddDate(0, 0, -reportDays)),
		End:   startOfDay(now),
	}
	if s := strings.TrimSpace(start); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return Window{}, ErrInvalidDate
		}
		w.Start = t
	}
	if e := strings.TrimSpace(end); e != "" {
		t, err := time.ParseInLocation(dateLayout, e, loc)
		if err != nil {
			return Window{}, ErrInvalidDate
		}
		w.End = t
	}
	if w.Start.After(w.End) {
		return Window{}, ErrInvalidRange
	}
	return w, nil
}

type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ReportStats struct {
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalTransactions  int64           `json:"total_transactions"`
	TotalProducts      int64           `json:"total_products"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
}

type Report struct {
	Start           string                       `json:"start"`
	End             string                       `json:"end"`
	Stats           ReportStats                  `json:"stats"`
	DailyRevenue    []DailyRevenue               `json:"daily_revenue"`
	TopProducts     []repository.TopProduct      `json:"top_products"`
	CategoryRevenue []repository.CategoryRevenue `json:"category_revenue"`
}

type ReportService interface {
	Build(w Window) (*Report, error)
	// Export writes the xlsx workbook and returns its file name.
	Export(w Window, out io.Writer) (string, error)
}

type reportService struct {
	txRepo repository.TransactionRepository
	log    *zap.Logger
}

func NewReportService(txRepo repository.TransactionRepository, log *zap.Logger) ReportService {
	return &reportService{txRepo: txRepo, log: log}
}

func (s *reportService) Build(w Window) (*Report, error) {
	until := w.until()

	// 1. Transactions in window
	transactions, err := s.txRepo.FindSince(w.Start)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	// 2. Daily revenue + totals
	byDay := map[string]decimal.Decimal{}
	stats := ReportStats{TotalRevenue: decimal.Zero, AverageTransaction: decimal.Zero}
	for _, t := range transactions {
		if t.CreatedAt.After(until) {
			continue
		}
		day := t.CreatedAt.In(w.Start.Location()).Format(dateLayout)
		byDay[day] = byDay[day].Add(t.TotalPrice)
		stats.TotalRevenue = stats.TotalRevenue.Add(t.TotalPrice)
		stats.TotalTransactions++
	}
	if stats.TotalTransactions > 0 {
		stats.AverageTransaction = stats.TotalRevenue.Div(decimal.NewFromInt(stats.TotalTransactions)).Round(2)
	}

	daily := make([]DailyRevenue, 0, len(byDay))
	for day, revenue := range byDay {
		daily = append(daily, DailyRevenue{Date: day, Revenue: revenue})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	// 3. Aggregations
	top, err := s.txRepo.TopProducts(reportTopLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	categories, err := s.txRepo.CategoryRevenue()
	if err != nil {
		return nil, fmt.Errorf("category revenue: %w", err)
	}
	stats.TotalProducts, err = s.txRepo.TotalUnitsSold(w.Start, until)
	if err != nil {
		return nil, fmt.Errorf("units sold: %w", err)
	}
	if top == nil {
		top = []repository.TopProduct{}
	}
	if categories == nil {
		categories = []repository.CategoryRevenue{}
	}

	return &Report{
		Start:           w.StartDate(),
		End:             w.EndDate(),
		Stats:           stats,
		DailyRevenue:    daily,
		TopProducts:     top,
		CategoryRevenue: categories,
	}, nil
}

func (s *reportService) Export(w Window, out io.Writer) (string, error) {
	report, err := s.Build(w)
	if err != nil {
		return "", err
	}

	sheet := export.SalesReport{
		Start: report.Start,
		End:   report.End,
		Summary: export.Summary{
			TotalRevenue:       report.Stats.TotalRevenue,
			TotalTransactions:  report.Stats.TotalTransactions,
			UnitsSold:          report.Stats.TotalProducts,
			AverageTransaction: report.Stats.AverageTransaction,
		},
	}
	for _, p := range report.TopProducts {
		sheet.Products = append(sheet.Products, export.ProductRow{Name: p.ProductName, Sold: p.TotalSold, Revenue: p.TotalRevenue})
	}

	if err := export.WriteSalesReport(out, sheet); err != nil {
		s.log.Error("failed to render report workbook", zap.Error(err))
		return "", fmt.Errorf("render report: %w", err)
	}
	return sheet.Filename(), nil
}
