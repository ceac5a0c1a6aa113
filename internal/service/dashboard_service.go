package service

import (
	"fmt"
	"time"

	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	chartDays          = 7
	dashboardTopLimit  = 5
	recentTransactions = 5
	dateLayout         = "2006-01-02"
)

var shortMonths = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

type OwnerStats struct {
	TotalProducts     int64           `json:"total_products"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	ActiveUsers       int64           `json:"active_users"`
	LowStockProducts  int64           `json:"low_stock_products"`
	TodayTransactions int64           `json:"today_transactions"`
	TodayRevenue      decimal.Decimal `json:"today_revenue"`
}

// ChartData is a zero-filled daily series, oldest day first.
type ChartData struct {
	Dates        []string          `json:"dates"`
	Labels       []string          `json:"labels"`
	Revenues     []decimal.Decimal `json:"revenues"`
	Transactions []int             `json:"transactions"`
}

type OwnerDashboard struct {
	Name        string                  `json:"name"`
	Stats       OwnerStats              `json:"stats"`
	Chart       ChartData               `json:"chart"`
	TopProducts []repository.TopProduct `json:"top_products"`
}

type KasirStats struct {
	TodayTransactions int64           `json:"today_transactions"`
	TodayRevenue      decimal.Decimal `json:"today_revenue"`
	LowStockCount     int64           `json:"low_stock_count"`
}

type KasirDashboard struct {
	Name               string                         `json:"name"`
	Stats              KasirStats                     `json:"stats"`
	RecentTransactions []repository.RecentTransaction `json:"recent_transactions"`
}

type DashboardService interface {
	Owner(session *Session) (*OwnerDashboard, error)
	Kasir(session *Session) (*KasirDashboard, error)
}

type dashboardService struct {
	productRepo       repository.ProductRepository
	txRepo            repository.TransactionRepository
	userRepo          repository.UserRepository
	lowStockThreshold int
	now               func() time.Time
}

func NewDashboardService(productRepo repository.ProductRepository, txRepo repository.TransactionRepository, userRepo repository.UserRepository, lowStockThreshold int) DashboardService {
	return &dashboardService{
		productRepo:       productRepo,
		txRepo:            txRepo,
		userRepo:          userRepo,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *dashboardService) Owner(session *Session) (*OwnerDashboard, error) {
	now := s.now()
	today := startOfDay(now)

	totalProducts, err := s.productRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	all, err := s.txRepo.Summary(nil)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	todays, err := s.txRepo.Summary(&today)
	if err != nil {
		return nil, fmt.Errorf("summarize today: %w", err)
	}
	activeUsers, err := s.userRepo.CountActive()
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	lowStock, err := s.productRepo.CountLowStock(s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}

	chartStart := today.AddDate(0, 0, -(chartDays - 1))
	recent, err := s.txRepo.FindSince(chartStart)
	if err != nil {
		return nil, fmt.Errorf("load chart: %w", err)
	}
	top, err := s.txRepo.TopProducts(dashboardTopLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	if top == nil {
		top = []repository.TopProduct{}
	}

	return &OwnerDashboard{
		Name: session.Name,
		Stats: OwnerStats{
			TotalProducts:     totalProducts,
			TotalTransactions: all.Count,
			TotalRevenue:      all.Revenue,
			ActiveUsers:       activeUsers,
			LowStockProducts:  lowStock,
			TodayTransactions: todays.Count,
			TodayRevenue:      todays.Revenue,
		},
		Chart:       buildChart(recent, chartStart, chartDays),
		TopProducts: top,
	}, nil
}

func (s *dashboardService) Kasir(session *Session) (*KasirDashboard, error) {
	today := startOfDay(s.now())

	todays, err := s.txRepo.Summary(&today)
	if err != nil {
		return nil, fmt.Errorf("summarize today: %w", err)
	}
	lowStock, err := s.productRepo.CountLowStock(s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}
	recent, err := s.txRepo.RecentSince(today, recentTransactions)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	if recent == nil {
		recent = []repository.RecentTransaction{}
	}

	return &KasirDashboard{
		Name: session.Name,
		Stats: KasirStats{
			TodayTransactions: todays.Count,
			TodayRevenue:      todays.Revenue,
			LowStockCount:     lowStock,
		},
		RecentTransactions: recent,
	}, nil
}

// buildChart buckets transactions per calendar day starting at start, in start's location.
func buildChart(transactions []model.Transaction, start time.Time, days int) ChartData {
	chart := ChartData{
		Dates:        make([]string, days),
		Labels:       make([]string, days),
		Revenues:     make([]decimal.Decimal, days),
		Transactions: make([]int, days),
	}
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(dateLayout)
		chart.Dates[i] = key
		chart.Labels[i] = fmt.Sprintf("%d %s", day.Day(), shortMonths[day.Month()-1])
		chart.Revenues[i] = decimal.Zero
		index[key] = i
	}
	for _, t := range transactions {
		i, ok := index[t.CreatedAt.In(start.Location()).Format(dateLayout)]
		if !ok {
			continue
		}
		chart.Revenues[i] = chart.Revenues[i].Add(t.TotalPrice)
		chart.Transactions[i]++
	}
	return chart
}
