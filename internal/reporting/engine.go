package reporting

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"kaboyagrovet/backend/internal/cache"
	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/store"
)

const (
	DefaultCOGSRatio         = 0.6
	DefaultLowStockThreshold = 10

	trendDaysDefault = 7
	forecastHistory  = 90
	forecastHorizon  = 30
)

// Engine computes dashboard and analytics payloads from live store queries.
// The stats cache only short-circuits recomputation of DashboardStats; it is
// never written back to the relational store.
type Engine struct {
	repo              store.Repository
	statsCache        cache.StatsCache
	cacheTTL          time.Duration
	cogsRatio         float64
	lowStockThreshold int
}

func NewEngine(repo store.Repository, statsCache cache.StatsCache, cacheTTL time.Duration, cogsRatio float64, lowStockThreshold int) *Engine {
	if statsCache == nil {
		statsCache = cache.NoopStatsCache{}
	}
	if cogsRatio <= 0 || cogsRatio >= 1 {
		cogsRatio = DefaultCOGSRatio
	}
	if lowStockThreshold < 1 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &Engine{
		repo:              repo,
		statsCache:        statsCache,
		cacheTTL:          cacheTTL,
		cogsRatio:         cogsRatio,
		lowStockThreshold: lowStockThreshold,
	}
}

func (e *Engine) LowStockThreshold() int {
	return e.lowStockThreshold
}

// DashboardStats aggregates sales, inventory and simplified accounting
// figures as of the given time. The profit numbers use a flat assumed cost
// ratio; they are estimates for the dashboard, not bookkeeping.
func (e *Engine) DashboardStats(ctx context.Context, asOf time.Time) (domain.DashboardStats, error) {
	cacheKey := fmt.Sprintf("dashboard-stats:%s", asOf.UTC().Format("2006-01-02"))
	if e.cacheTTL > 0 {
		if cached, found, err := e.statsCache.Get(ctx, cacheKey); err != nil {
			log.Printf("[reporting] WARN: stats cache get failed: %v", err)
		} else if found {
			return *cached, nil
		}
	}

	totals, err := e.repo.GetSalesTotals(ctx, asOf)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	inventory, err := e.repo.GetInventorySummary(ctx, e.lowStockThreshold)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	revenue := domain.FloatFromCents(totals.TotalRevenueCents)
	monthlyRevenue := domain.FloatFromCents(totals.MonthlyRevenueCents)
	grossProfit := round2(revenue * (1 - e.cogsRatio))
	monthlyGross := round2(monthlyRevenue * (1 - e.cogsRatio))

	margin := 0.0
	if revenue > 0 {
		margin = round2(grossProfit / revenue * 100)
	}

	stats := domain.DashboardStats{
		Sales: domain.SalesStats{
			TotalOrders:         totals.TotalOrders,
			MonthlyOrders:       totals.MonthlyOrders,
			TotalOfflineSales:   totals.TotalOfflineSales,
			MonthlyOfflineSales: totals.MonthlyOfflineSales,
			TotalRevenue:        revenue,
			MonthlyRevenue:      monthlyRevenue,
		},
		Inventory: domain.InventoryStats{
			TotalProducts:    inventory.Products,
			TotalVariants:    inventory.Variants,
			LowStockVariants: inventory.LowStock,
		},
		Accounting: domain.AccountingStats{
			GrossProfit:        grossProfit,
			MonthlyGrossProfit: monthlyGross,
			NetProfit:          grossProfit,
			MonthlyNetProfit:   monthlyGross,
			ProfitMargin:       margin,
		},
	}

	if e.cacheTTL > 0 {
		if err := e.statsCache.Set(ctx, cacheKey, &stats, e.cacheTTL); err != nil {
			log.Printf("[reporting] WARN: stats cache set failed: %v", err)
		}
	}
	return stats, nil
}

// SalesTrend returns combined daily revenue for the last N calendar days,
// oldest first, with zero entries for days without sales.
func (e *Engine) SalesTrend(ctx context.Context, days int) (domain.SalesTrend, error) {
	if days < 1 {
		days = trendDaysDefault
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(days - 1))

	daily, err := e.repo.GetDailyRevenue(ctx, from, today)
	if err != nil {
		return domain.SalesTrend{}, err
	}
	byDay := make(map[time.Time]int64, len(daily))
	for _, entry := range daily {
		byDay[entry.Date] = entry.RevenueCents
	}

	trend := domain.SalesTrend{
		Labels: make([]string, 0, days),
		Data:   make([]float64, 0, days),
	}
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		trend.Labels = append(trend.Labels, day.Format("Jan 02"))
		trend.Data = append(trend.Data, domain.FloatFromCents(byDay[day]))
	}
	return trend, nil
}

// StockLevels returns per-variant chart data plus the low-stock list,
// ascending by stock level.
func (e *Engine) StockLevels(ctx context.Context, threshold int) (domain.StockLevels, error) {
	if threshold < 1 {
		threshold = e.lowStockThreshold
	}

	variants, err := e.repo.ListVariants(ctx, "", "", true)
	if err != nil {
		return domain.StockLevels{}, err
	}
	low, err := e.repo.ListLowStockVariants(ctx, threshold)
	if err != nil {
		return domain.StockLevels{}, err
	}

	levels := domain.StockLevels{
		Labels:        make([]string, 0, len(variants)),
		Data:          make([]int, 0, len(variants)),
		LowStockItems: make([]domain.LowStockItem, 0, len(low)),
	}
	for _, v := range variants {
		levels.Labels = append(levels.Labels, fmt.Sprintf("%s (%s)", v.ProductName, v.VariantInfo))
		levels.Data = append(levels.Data, v.StockLevel)
	}
	for _, v := range low {
		levels.LowStockItems = append(levels.LowStockItems, domain.LowStockItem{
			ProductName:  v.ProductName,
			VariantInfo:  v.VariantInfo,
			StockLevel:   v.StockLevel,
			SellingPrice: v.SellingPrice,
		})
	}
	return levels, nil
}

func (e *Engine) CustomerInsights(ctx context.Context, limit int) (domain.CustomerInsights, error) {
	if limit < 1 {
		limit = 10
	}
	top, err := e.repo.GetTopCustomers(ctx, limit)
	if err != nil {
		return domain.CustomerInsights{}, err
	}
	now := time.Now().UTC()
	active30, err := e.repo.CountActiveCustomers(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return domain.CustomerInsights{}, err
	}
	active90, err := e.repo.CountActiveCustomers(ctx, now.AddDate(0, 0, -90))
	if err != nil {
		return domain.CustomerInsights{}, err
	}

	insights := domain.CustomerInsights{
		TopCustomers:       make([]domain.CustomerSummary, 0, len(top)),
		ActiveCustomers30d: active30,
		ActiveCustomers90d: active90,
	}
	for _, c := range top {
		spent := domain.FloatFromCents(c.SpentCents)
		avg := 0.0
		if c.OrderCount > 0 {
			avg = round2(spent / float64(c.OrderCount))
		}
		insights.TopCustomers = append(insights.TopCustomers, domain.CustomerSummary{
			Email:         c.Email,
			Name:          c.Name,
			OrderCount:    c.OrderCount,
			TotalSpent:    spent,
			AvgOrderValue: avg,
		})
	}
	return insights, nil
}

func (e *Engine) ProductPerformance(ctx context.Context, limit int) (domain.ProductPerformance, error) {
	if limit < 1 {
		limit = 10
	}
	top, err := e.repo.GetTopProducts(ctx, limit)
	if err != nil {
		return domain.ProductPerformance{}, err
	}
	categories, err := e.repo.GetCategoryPerformance(ctx)
	if err != nil {
		return domain.ProductPerformance{}, err
	}
	low, err := e.repo.ListLowStockVariants(ctx, e.lowStockThreshold)
	if err != nil {
		return domain.ProductPerformance{}, err
	}

	perf := domain.ProductPerformance{
		TopProducts:         make([]domain.ProductRevenue, 0, len(top)),
		CategoryPerformance: make([]domain.CategoryRevenue, 0, len(categories)),
		LowStockItems:       make([]domain.LowStockItem, 0, len(low)),
	}
	for _, p := range top {
		perf.TopProducts = append(perf.TopProducts, domain.ProductRevenue{
			ProductName: p.ProductName,
			VariantInfo: p.VariantInfo,
			UnitsSold:   p.UnitsSold,
			Revenue:     domain.FloatFromCents(p.RevenueCents),
		})
	}
	for _, c := range categories {
		perf.CategoryPerformance = append(perf.CategoryPerformance, domain.CategoryRevenue{
			Category:  c.Category,
			UnitsSold: c.UnitsSold,
			Revenue:   domain.FloatFromCents(c.RevenueCents),
		})
	}
	for _, v := range low {
		perf.LowStockItems = append(perf.LowStockItems, domain.LowStockItem{
			ProductName:  v.ProductName,
			VariantInfo:  v.VariantInfo,
			StockLevel:   v.StockLevel,
			SellingPrice: v.SellingPrice,
		})
	}
	return perf, nil
}

// SalesForecast projects daily revenue 30 days out from 90 days of history.
// The projection is the last-7-day average adjusted by a least-squares trend
// over the whole window, floored at zero. It is a rough planning aid, not a
// statistical model.
func (e *Engine) SalesForecast(ctx context.Context) (domain.SalesForecast, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(forecastHistory - 1))

	daily, err := e.repo.GetDailyRevenue(ctx, from, today)
	if err != nil {
		return domain.SalesForecast{}, err
	}
	byDay := make(map[time.Time]int64, len(daily))
	for _, entry := range daily {
		byDay[entry.Date] = entry.RevenueCents
	}

	history := make([]float64, 0, forecastHistory)
	forecast := domain.SalesForecast{
		HistoryLabels:  make([]string, 0, forecastHistory),
		HistoryData:    make([]float64, 0, forecastHistory),
		ForecastLabels: make([]string, 0, forecastHorizon),
		ForecastData:   make([]float64, 0, forecastHorizon),
	}
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		amount := domain.FloatFromCents(byDay[day])
		history = append(history, amount)
		forecast.HistoryLabels = append(forecast.HistoryLabels, day.Format("Jan 02"))
		forecast.HistoryData = append(forecast.HistoryData, amount)
	}

	recentAvg := mean(history[max(0, len(history)-trendDaysDefault):])
	slope := trendSlope(history)
	for i := 1; i <= forecastHorizon; i++ {
		day := today.AddDate(0, 0, i)
		projected := math.Max(0, round2(recentAvg+slope*float64(i)))
		forecast.ForecastLabels = append(forecast.ForecastLabels, day.Format("Jan 02"))
		forecast.ForecastData = append(forecast.ForecastData, projected)
	}
	return forecast, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// trendSlope fits a least-squares line over the series and returns its
// per-day slope.
func trendSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
