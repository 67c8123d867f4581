package reporting

import (
	"context"
	"testing"
	"time"

	"kaboyagrovet/backend/internal/cache"
	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/store/memory"
)

func seedCatalog(t *testing.T, repo *memory.Store, stock int) string {
	t.Helper()
	ctx := context.Background()

	product, err := repo.CreateProduct(ctx, domain.Product{
		Name:     "NPK 17:17:17",
		Category: domain.CategoryFertilizer,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	variant, err := repo.CreateVariant(ctx, domain.ProductVariant{
		ProductID:         product.ID,
		QuantityValue:     25,
		QuantityUnit:      "kg",
		SellingPriceCents: 385000,
		StockLevel:        stock,
	})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}
	return variant.ID
}

func placeOrder(t *testing.T, repo *memory.Store, variantID string, qty int, at time.Time) {
	t.Helper()
	_, err := repo.CreateOrder(context.Background(), domain.Order{
		CustomerName:    "Jane",
		CustomerEmail:   "jane@example.com",
		CustomerPhone:   "+254700000000",
		DeliveryAddress: "Kaboy town",
		TotalCents:      int64(qty) * 385000,
		OrderedAt:       at,
		Items: []domain.OrderItem{
			{ProductVariantID: variantID, Quantity: qty, PriceCents: 385000},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
}

func TestDashboardStatsProfitMath(t *testing.T) {
	repo := memory.New()
	variantID := seedCatalog(t, repo, 50)
	now := time.Now().UTC()
	placeOrder(t, repo, variantID, 2, now)

	engine := NewEngine(repo, cache.NoopStatsCache{}, 0, 0.6, 10)
	stats, err := engine.DashboardStats(context.Background(), now)
	if err != nil {
		t.Fatalf("dashboard stats: %v", err)
	}

	if stats.Sales.TotalOrders != 1 || stats.Sales.MonthlyOrders != 1 {
		t.Fatalf("expected 1 order total and monthly, got %+v", stats.Sales)
	}
	if stats.Sales.TotalRevenue != 7700 {
		t.Fatalf("expected revenue 7700, got %v", stats.Sales.TotalRevenue)
	}
	if stats.Accounting.GrossProfit != 3080 {
		t.Fatalf("expected gross profit 3080 at 0.6 COGS, got %v", stats.Accounting.GrossProfit)
	}
	if stats.Accounting.NetProfit != stats.Accounting.GrossProfit {
		t.Fatal("net profit must equal gross profit (no expense tracking)")
	}
	if stats.Accounting.ProfitMargin != 40 {
		t.Fatalf("expected 40%% margin, got %v", stats.Accounting.ProfitMargin)
	}
	if stats.Inventory.TotalProducts != 1 || stats.Inventory.TotalVariants != 1 {
		t.Fatalf("unexpected inventory block: %+v", stats.Inventory)
	}
}

func TestSalesTrendZeroFillsAscending(t *testing.T) {
	repo := memory.New()
	variantID := seedCatalog(t, repo, 50)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	placeOrder(t, repo, variantID, 1, today.Add(10*time.Hour))

	engine := NewEngine(repo, nil, 0, 0.6, 10)
	trend, err := engine.SalesTrend(context.Background(), 7)
	if err != nil {
		t.Fatalf("sales trend: %v", err)
	}

	if len(trend.Labels) != 7 || len(trend.Data) != 7 {
		t.Fatalf("expected 7 points, got %d/%d", len(trend.Labels), len(trend.Data))
	}
	if trend.Labels[6] != today.Format("Jan 02") {
		t.Fatalf("expected last label %q, got %q", today.Format("Jan 02"), trend.Labels[6])
	}
	for i := 0; i < 6; i++ {
		if trend.Data[i] != 0 {
			t.Fatalf("expected zero-filled day %d, got %v", i, trend.Data[i])
		}
	}
	if trend.Data[6] != 3850 {
		t.Fatalf("expected today revenue 3850, got %v", trend.Data[6])
	}
}

func TestStockLevelsLowStockAscending(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	product, err := repo.CreateProduct(ctx, domain.Product{Name: "Duduthrin", Category: domain.CategoryPesticide})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	levels := []int{7, 2, 30}
	for _, stock := range levels {
		_, err := repo.CreateVariant(ctx, domain.ProductVariant{
			ProductID:         product.ID,
			QuantityValue:     float64(stock),
			QuantityUnit:      "ml",
			SellingPriceCents: 48000,
			StockLevel:        stock,
		})
		if err != nil {
			t.Fatalf("create variant: %v", err)
		}
	}

	engine := NewEngine(repo, nil, 0, 0.6, 10)
	stock, err := engine.StockLevels(ctx, 10)
	if err != nil {
		t.Fatalf("stock levels: %v", err)
	}
	if len(stock.Labels) != 3 {
		t.Fatalf("expected 3 chart entries, got %d", len(stock.Labels))
	}
	if len(stock.LowStockItems) != 2 {
		t.Fatalf("expected 2 low stock items under threshold 10, got %d", len(stock.LowStockItems))
	}
	if stock.LowStockItems[0].StockLevel != 2 || stock.LowStockItems[1].StockLevel != 7 {
		t.Fatalf("expected low stock ascending, got %+v", stock.LowStockItems)
	}
}

func TestCustomerInsightsGroupsByEmail(t *testing.T) {
	repo := memory.New()
	variantID := seedCatalog(t, repo, 50)
	now := time.Now().UTC()
	placeOrder(t, repo, variantID, 1, now)
	placeOrder(t, repo, variantID, 2, now)

	engine := NewEngine(repo, nil, 0, 0.6, 10)
	insights, err := engine.CustomerInsights(context.Background(), 10)
	if err != nil {
		t.Fatalf("customer insights: %v", err)
	}
	if len(insights.TopCustomers) != 1 {
		t.Fatalf("expected 1 grouped customer, got %d", len(insights.TopCustomers))
	}
	top := insights.TopCustomers[0]
	if top.OrderCount != 2 || top.TotalSpent != 11550 {
		t.Fatalf("unexpected customer totals: %+v", top)
	}
	if top.AvgOrderValue != 5775 {
		t.Fatalf("expected avg 5775, got %v", top.AvgOrderValue)
	}
	if insights.ActiveCustomers30d != 1 || insights.ActiveCustomers90d != 1 {
		t.Fatalf("unexpected active counts: %+v", insights)
	}
}

func TestSalesForecastIsNonNegative(t *testing.T) {
	repo := memory.New()
	variantID := seedCatalog(t, repo, 500)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	// Sharply declining recent revenue pushes the naive projection negative
	// without the clamp.
	for i := 0; i < 7; i++ {
		qty := 7 - i
		placeOrder(t, repo, variantID, qty, today.AddDate(0, 0, -6+i).Add(9*time.Hour))
	}

	engine := NewEngine(repo, nil, 0, 0.6, 10)
	forecast, err := engine.SalesForecast(context.Background())
	if err != nil {
		t.Fatalf("sales forecast: %v", err)
	}
	if len(forecast.ForecastData) != 30 || len(forecast.ForecastLabels) != 30 {
		t.Fatalf("expected 30 forecast points, got %d", len(forecast.ForecastData))
	}
	if len(forecast.HistoryData) != 90 {
		t.Fatalf("expected 90 history points, got %d", len(forecast.HistoryData))
	}
	for i, v := range forecast.ForecastData {
		if v < 0 {
			t.Fatalf("forecast day %d is negative: %v", i, v)
		}
	}
}

func TestDashboardStatsIsIdempotentRead(t *testing.T) {
	repo := memory.New()
	variantID := seedCatalog(t, repo, 50)
	now := time.Now().UTC()
	placeOrder(t, repo, variantID, 1, now)

	engine := NewEngine(repo, nil, 0, 0.6, 10)
	first, err := engine.DashboardStats(context.Background(), now)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := engine.DashboardStats(context.Background(), now)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if first != second {
		t.Fatalf("repeated stats reads must match: %+v vs %+v", first, second)
	}
}
