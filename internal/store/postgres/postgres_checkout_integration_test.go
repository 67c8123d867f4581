package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/store"
)

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	databaseURL := os.Getenv("KABOY_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KABOY_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	product, err := s.CreateProduct(ctx, domain.Product{
		Name:     "Integration DAP",
		Category: domain.CategoryFertilizer,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	t.Cleanup(func() {
		_ = s.DeleteProduct(ctx, product.ID)
	})

	variant, err := s.CreateVariant(ctx, domain.ProductVariant{
		ProductID:         product.ID,
		QuantityValue:     50,
		QuantityUnit:      "kg",
		SellingPriceCents: 695000,
		StockLevel:        5,
	})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}

	order := func(qty int) (*domain.Order, error) {
		return s.CreateOrder(ctx, domain.Order{
			CustomerName:    "Race Tester",
			CustomerEmail:   "race@example.com",
			CustomerPhone:   "+254700000000",
			DeliveryAddress: "Test lane",
			TotalCents:      int64(qty) * 695000,
			OrderedAt:       time.Now().UTC(),
			Items: []domain.OrderItem{
				{ProductVariantID: variant.ID, Quantity: qty, PriceCents: 695000},
			},
		})
	}

	// Ten concurrent 2-unit checkouts against 5 units of stock: at most two
	// can commit, and the survivors must never drive stock below zero.
	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := order(2)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var committed, rejected int
	for err := range results {
		if err == nil {
			committed++
			continue
		}
		// Serialization failures are an acceptable outcome here alongside
		// stock rejections; the invariant under test is no overselling.
		var stockErr *store.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Logf("checkout rejected with non-stock error: %v", err)
		}
		rejected++
	}
	if committed > 2 {
		t.Fatalf("oversold: %d checkouts committed against stock 5", committed)
	}
	if committed+rejected != 10 {
		t.Fatalf("lost checkouts: %d committed, %d rejected", committed, rejected)
	}

	after, err := s.GetVariant(ctx, variant.ID)
	if err != nil {
		t.Fatalf("get variant: %v", err)
	}
	if after.StockLevel < 0 {
		t.Fatalf("stock went negative: %d", after.StockLevel)
	}
	if after.StockLevel != 5-2*committed {
		t.Fatalf("stock %d does not match %d committed checkouts", after.StockLevel, committed)
	}

	orders, err := s.ListOrders(ctx, 0)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	for _, o := range orders {
		if o.CustomerEmail != "race@example.com" {
			continue
		}
		t.Cleanup(func() {
			_ = s.DeleteOrder(ctx, o.ID)
		})
	}
}
