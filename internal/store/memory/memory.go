package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/store"
	"kaboyagrovet/backend/internal/xid"
)

// Store is an in-memory Repository used for tests and driverless dev runs.
// The single mutex is held across whole units of work, which gives the same
// all-or-nothing stock semantics as the postgres transactions.
type Store struct {
	mu           sync.RWMutex
	products     map[string]domain.Product
	variants     map[string]domain.ProductVariant
	orders       map[string]domain.Order
	sales        map[string]domain.OfflineSale
	testimonials map[string]domain.Testimonial
	faqs         map[string]domain.FAQ
	contacts     map[string]domain.ContactMessage
	subscribers  map[string]domain.NewsletterSubscriber
	users        map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		variants:     make(map[string]domain.ProductVariant),
		orders:       make(map[string]domain.Order),
		sales:        make(map[string]domain.OfflineSale),
		testimonials: make(map[string]domain.Testimonial),
		faqs:         make(map[string]domain.FAQ),
		contacts:     make(map[string]domain.ContactMessage),
		subscribers:  make(map[string]domain.NewsletterSubscriber),
		users:        make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial admin account for dev/demo mode. The password
// comes from SEED_ADMIN_PASSWORD; a hardcoded dev default is used with a
// warning when unset. Production deployments use PostgreSQL and the
// bootstrap admin from config instead.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPwd == "" {
		adminPwd = "admin123"
		log.Println("[memory-store] WARNING: using default dev admin password. Set SEED_ADMIN_PASSWORD to override.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed admin password: %v", err)
	}
	return map[string]domain.UserAccount{
		"admin": {
			Username:  "admin",
			Password:  string(hash),
			Role:      "admin",
			Active:    true,
			CreatedAt: time.Now().UTC(),
		},
	}
}

func NewSeeded() *Store {
	s := New()
	s.users = seedUsers()

	now := time.Now().UTC()
	seed := []struct {
		name     string
		category string
		desc     string
		variants []domain.ProductVariant
	}{
		{
			name: "NPK 17:17:17", category: domain.CategoryFertilizer,
			desc: "Balanced compound fertilizer for planting and top dressing.",
			variants: []domain.ProductVariant{
				{QuantityValue: 25, QuantityUnit: "kg", SellingPriceCents: 385000, StockLevel: 40, Supplier: "Yara"},
				{QuantityValue: 50, QuantityUnit: "kg", SellingPriceCents: 745000, StockLevel: 22, Supplier: "Yara"},
			},
		},
		{
			name: "DAP", category: domain.CategoryFertilizer,
			desc: "Di-ammonium phosphate planting fertilizer.",
			variants: []domain.ProductVariant{
				{QuantityValue: 50, QuantityUnit: "kg", SellingPriceCents: 695000, StockLevel: 18, Supplier: "OCP"},
			},
		},
		{
			name: "Duduthrin", category: domain.CategoryPesticide,
			desc: "Broad-spectrum insecticide for field and horticultural crops.",
			variants: []domain.ProductVariant{
				{QuantityValue: 1, QuantityUnit: "L", SellingPriceCents: 165000, StockLevel: 30, Supplier: "Twiga Chemicals"},
				{QuantityValue: 250, QuantityUnit: "ml", SellingPriceCents: 48000, StockLevel: 55, Supplier: "Twiga Chemicals"},
			},
		},
		{
			name: "H614 Hybrid Maize", category: domain.CategorySeed,
			desc: "Late-maturing hybrid maize seed for high-altitude zones.",
			variants: []domain.ProductVariant{
				{QuantityValue: 2, QuantityUnit: "kg", SellingPriceCents: 52000, StockLevel: 60, Supplier: "Kenya Seed"},
				{QuantityValue: 10, QuantityUnit: "kg", SellingPriceCents: 245000, StockLevel: 14, Supplier: "Kenya Seed"},
			},
		},
		{
			name: "Dairy Meal", category: domain.CategoryFeed,
			desc: "High-yield dairy cattle feed.",
			variants: []domain.ProductVariant{
				{QuantityValue: 70, QuantityUnit: "kg", SellingPriceCents: 315000, StockLevel: 26, Supplier: "Unga Feeds"},
			},
		},
		{
			name: "Knapsack Sprayer", category: domain.CategoryOther,
			desc: "16L manual knapsack sprayer.",
			variants: []domain.ProductVariant{
				{QuantityValue: 16, QuantityUnit: "L", SellingPriceCents: 280000, StockLevel: 8, Supplier: ""},
			},
		},
	}

	for _, p := range seed {
		product := domain.Product{
			ID:          xid.New("prd"),
			Name:        p.name,
			Category:    p.category,
			Description: p.desc,
			CreatedAt:   now,
		}
		s.products[product.ID] = product
		for _, v := range p.variants {
			v.ID = xid.New("var")
			v.ProductID = product.ID
			v.SyncAmounts()
			s.variants[v.ID] = v
		}
	}
	return s
}

func (s *Store) ListProducts(_ context.Context, search string, category string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		p.Variants = s.variantsOfLocked(p.ID)
		result = append(result, p)
	}

	slices.SortFunc(result, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return result, nil
}

// variantsOfLocked collects a product's variants. Callers must hold the lock.
func (s *Store) variantsOfLocked(productID string) []domain.ProductVariant {
	variants := make([]domain.ProductVariant, 0, 4)
	for _, v := range s.variants {
		if v.ProductID != productID {
			continue
		}
		v.SyncAmounts()
		variants = append(variants, v)
	}
	slices.SortFunc(variants, func(a, b domain.ProductVariant) int {
		if a.QuantityValue == b.QuantityValue {
			return strings.Compare(a.ID, b.ID)
		}
		if a.QuantityValue < b.QuantityValue {
			return -1
		}
		return 1
	})
	return variants
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Variants = s.variantsOfLocked(p.ID)
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !domain.ValidCategory(product.Category) {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Variants = nil
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !domain.ValidCategory(product.Category) {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.Variants = nil
	s.products[product.ID] = product
	updated := product
	updated.Variants = s.variantsOfLocked(product.ID)
	return &updated, nil
}

// DeleteProduct removes the product and every variant it owns. Order and
// sale items keep their snapshots, so history survives catalog deletions.
func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	for vid, v := range s.variants {
		if v.ProductID == id {
			delete(s.variants, vid)
		}
	}
	return nil
}

func (s *Store) ListVariants(_ context.Context, search string, category string, includeOutOfStock bool) ([]domain.VariantSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	result := make([]domain.VariantSummary, 0, len(s.variants))
	for _, v := range s.variants {
		p, ok := s.products[v.ProductID]
		if !ok {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if !includeOutOfStock && v.StockLevel < 1 {
			continue
		}
		result = append(result, domain.VariantSummary{
			VariantID:    v.ID,
			ProductID:    p.ID,
			ProductName:  p.Name,
			Category:     p.Category,
			VariantInfo:  v.Info(),
			SellingPrice: domain.FloatFromCents(v.SellingPriceCents),
			StockLevel:   v.StockLevel,
			Supplier:     v.Supplier,
		})
	}

	slices.SortFunc(result, func(a, b domain.VariantSummary) int {
		if a.ProductName == b.ProductName {
			return strings.Compare(a.VariantID, b.VariantID)
		}
		return strings.Compare(a.ProductName, b.ProductName)
	})
	return result, nil
}

func (s *Store) GetVariant(_ context.Context, id string) (*domain.ProductVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.variants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	v.SyncAmounts()
	return &v, nil
}

func (s *Store) CreateVariant(_ context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error) {
	if variant.ProductID == "" || variant.QuantityValue <= 0 || variant.QuantityUnit == "" {
		return nil, store.ErrInvalidInput
	}
	if variant.SellingPriceCents < 0 || variant.StockLevel < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[variant.ProductID]; !ok {
		return nil, store.ErrNotFound
	}
	if variant.ID == "" {
		variant.ID = xid.New("var")
	}
	variant.SyncAmounts()
	s.variants[variant.ID] = variant
	created := variant
	return &created, nil
}

func (s *Store) UpdateVariant(_ context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error) {
	if variant.QuantityValue <= 0 || variant.QuantityUnit == "" || variant.SellingPriceCents < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.variants[variant.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	// Stock is owned by reserve/restock, never by catalog edits.
	variant.ProductID = existing.ProductID
	variant.StockLevel = existing.StockLevel
	variant.SyncAmounts()
	s.variants[variant.ID] = variant
	updated := variant
	return &updated, nil
}

func (s *Store) DeleteVariant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.variants, id)
	return nil
}

func (s *Store) RestockVariant(_ context.Context, id string, qty int) (int, error) {
	if qty < 1 {
		return 0, store.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	v.StockLevel += qty
	s.variants[id] = v
	return v.StockLevel, nil
}

// reserveLocked checks and applies one line's stock decrement against the
// scratch map. Nothing is written back to s.variants until every line of
// the cart has cleared, so a failing line aborts the whole unit.
func (s *Store) reserveLocked(scratch map[string]int, variantID string, qty int) error {
	v, ok := s.variants[variantID]
	if !ok {
		return store.ErrNotFound
	}
	available, ok := scratch[variantID]
	if !ok {
		available = v.StockLevel
	}
	if qty > available {
		p := s.products[v.ProductID]
		return &store.InsufficientStockError{
			VariantID:   variantID,
			ProductName: p.Name,
			VariantInfo: v.Info(),
			Available:   available,
			Requested:   qty,
		}
	}
	scratch[variantID] = available - qty
	return nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	if len(order.Items) == 0 {
		return nil, store.ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	scratch := make(map[string]int, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		if item.Quantity < 1 || item.PriceCents < 0 {
			return nil, store.ErrInvalidInput
		}
		if err := s.reserveLocked(scratch, item.ProductVariantID, item.Quantity); err != nil {
			return nil, err
		}
		v := s.variants[item.ProductVariantID]
		item.ProductName = s.products[v.ProductID].Name
		item.VariantInfo = v.Info()
		total += int64(item.Quantity) * item.PriceCents
	}
	if order.TotalCents != total {
		return nil, store.ErrInvalidInput
	}

	if order.ID == "" {
		order.ID = xid.New("ord")
	}
	if order.OrderedAt.IsZero() {
		order.OrderedAt = time.Now().UTC()
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = domain.PaymentStatusPending
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = xid.New("itm")
		}
		order.Items[i].OrderID = order.ID
	}

	for variantID, remaining := range scratch {
		v := s.variants[variantID]
		v.StockLevel = remaining
		s.variants[variantID] = v
	}
	order.SyncAmounts()
	s.orders[order.ID] = order
	created := cloneOrder(order)
	return &created, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := cloneOrder(order)
	return &cloned, nil
}

func (s *Store) ListOrders(_ context.Context, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		result = append(result, cloneOrder(order))
	}
	slices.SortFunc(result, func(a, b domain.Order) int {
		if a.OrderedAt.Equal(b.OrderedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.OrderedAt.After(b.OrderedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) UpdateOrderPaymentStatus(_ context.Context, id string, status string) (*domain.Order, error) {
	if !domain.ValidPaymentStatus(status) {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	order.PaymentStatus = status
	s.orders[id] = order
	cloned := cloneOrder(order)
	return &cloned, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) CreateOfflineSale(_ context.Context, sale domain.OfflineSale) (*domain.OfflineSale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	scratch := make(map[string]int, len(sale.Items))
	for i := range sale.Items {
		item := &sale.Items[i]
		if item.Quantity < 1 || item.PriceCents < 0 {
			return nil, store.ErrInvalidInput
		}
		if err := s.reserveLocked(scratch, item.ProductVariantID, item.Quantity); err != nil {
			return nil, err
		}
		v := s.variants[item.ProductVariantID]
		item.ProductName = s.products[v.ProductID].Name
		item.VariantInfo = v.Info()
		total += int64(item.Quantity) * item.PriceCents
	}
	if sale.TotalCents != total {
		return nil, store.ErrInvalidInput
	}

	if sale.ID == "" {
		sale.ID = xid.New("sal")
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	for i := range sale.Items {
		if sale.Items[i].ID == "" {
			sale.Items[i].ID = xid.New("itm")
		}
		sale.Items[i].SaleID = sale.ID
	}

	for variantID, remaining := range scratch {
		v := s.variants[variantID]
		v.StockLevel = remaining
		s.variants[variantID] = v
	}
	sale.SyncAmounts()
	s.sales[sale.ID] = sale
	created := cloneSale(sale)
	return &created, nil
}

func (s *Store) ListOfflineSales(_ context.Context, limit int) ([]domain.OfflineSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.OfflineSale, 0, len(s.sales))
	for _, sale := range s.sales {
		result = append(result, cloneSale(sale))
	}
	slices.SortFunc(result, func(a, b domain.OfflineSale) int {
		if a.SaleDate.Equal(b.SaleDate) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.SaleDate.After(b.SaleDate) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) DeleteOfflineSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sales, id)
	return nil
}

func (s *Store) GetSalesTotals(_ context.Context, asOf time.Time) (domain.SalesTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	var totals domain.SalesTotals
	for _, order := range s.orders {
		totals.TotalOrders++
		totals.TotalRevenueCents += order.TotalCents
		if !order.OrderedAt.Before(monthStart) {
			totals.MonthlyOrders++
			totals.MonthlyRevenueCents += order.TotalCents
		}
	}
	for _, sale := range s.sales {
		totals.TotalOfflineSales++
		totals.TotalRevenueCents += sale.TotalCents
		if !sale.SaleDate.Before(monthStart) {
			totals.MonthlyOfflineSales++
			totals.MonthlyRevenueCents += sale.TotalCents
		}
	}
	return totals, nil
}

func (s *Store) GetInventorySummary(_ context.Context, lowStockThreshold int) (domain.InventorySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.InventorySummary{
		Products: int64(len(s.products)),
		Variants: int64(len(s.variants)),
	}
	for _, v := range s.variants {
		if v.StockLevel < lowStockThreshold {
			summary.LowStock++
		}
	}
	return summary, nil
}

func (s *Store) GetDailyRevenue(_ context.Context, from time.Time, to time.Time) ([]domain.DailyRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[time.Time]int64)
	add := func(at time.Time, cents int64) {
		day := at.UTC().Truncate(24 * time.Hour)
		if day.Before(from) || day.After(to) {
			return
		}
		byDay[day] += cents
	}
	for _, order := range s.orders {
		add(order.OrderedAt, order.TotalCents)
	}
	for _, sale := range s.sales {
		add(sale.SaleDate, sale.TotalCents)
	}

	result := make([]domain.DailyRevenue, 0, len(byDay))
	for day, cents := range byDay {
		result = append(result, domain.DailyRevenue{Date: day, RevenueCents: cents})
	}
	slices.SortFunc(result, func(a, b domain.DailyRevenue) int {
		return a.Date.Compare(b.Date)
	})
	return result, nil
}

func (s *Store) ListLowStockVariants(_ context.Context, threshold int) ([]domain.VariantSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.VariantSummary, 0, 16)
	for _, v := range s.variants {
		if v.StockLevel >= threshold {
			continue
		}
		p, ok := s.products[v.ProductID]
		if !ok {
			continue
		}
		result = append(result, domain.VariantSummary{
			VariantID:    v.ID,
			ProductID:    p.ID,
			ProductName:  p.Name,
			Category:     p.Category,
			VariantInfo:  v.Info(),
			SellingPrice: domain.FloatFromCents(v.SellingPriceCents),
			StockLevel:   v.StockLevel,
			Supplier:     v.Supplier,
		})
	}
	slices.SortFunc(result, func(a, b domain.VariantSummary) int {
		if a.StockLevel == b.StockLevel {
			return strings.Compare(a.ProductName, b.ProductName)
		}
		return a.StockLevel - b.StockLevel
	})
	return result, nil
}

func (s *Store) GetTopCustomers(_ context.Context, limit int) ([]domain.CustomerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byEmail := make(map[string]*domain.CustomerTotals)
	for _, order := range s.orders {
		email := strings.ToLower(order.CustomerEmail)
		entry, ok := byEmail[email]
		if !ok {
			entry = &domain.CustomerTotals{Email: email, Name: order.CustomerName}
			byEmail[email] = entry
		}
		entry.OrderCount++
		entry.SpentCents += order.TotalCents
		if order.OrderedAt.After(entry.LastOrder) {
			entry.LastOrder = order.OrderedAt
			entry.Name = order.CustomerName
		}
	}

	result := make([]domain.CustomerTotals, 0, len(byEmail))
	for _, entry := range byEmail {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.CustomerTotals) int {
		if a.SpentCents == b.SpentCents {
			return strings.Compare(a.Email, b.Email)
		}
		if a.SpentCents > b.SpentCents {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CountActiveCustomers(_ context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, order := range s.orders {
		if order.OrderedAt.Before(since) {
			continue
		}
		seen[strings.ToLower(order.CustomerEmail)] = true
	}
	return int64(len(seen)), nil
}

func (s *Store) GetTopProducts(_ context.Context, limit int) ([]domain.ProductTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct{ name, info string }
	totals := make(map[key]*domain.ProductTotals)
	add := func(name, info string, qty int, priceCents int64) {
		k := key{name, info}
		entry, ok := totals[k]
		if !ok {
			entry = &domain.ProductTotals{ProductName: name, VariantInfo: info}
			totals[k] = entry
		}
		entry.UnitsSold += int64(qty)
		entry.RevenueCents += int64(qty) * priceCents
	}
	for _, order := range s.orders {
		for _, item := range order.Items {
			add(item.ProductName, item.VariantInfo, item.Quantity, item.PriceCents)
		}
	}
	for _, sale := range s.sales {
		for _, item := range sale.Items {
			add(item.ProductName, item.VariantInfo, item.Quantity, item.PriceCents)
		}
	}

	result := make([]domain.ProductTotals, 0, len(totals))
	for _, entry := range totals {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.ProductTotals) int {
		if a.RevenueCents == b.RevenueCents {
			return strings.Compare(a.ProductName, b.ProductName)
		}
		if a.RevenueCents > b.RevenueCents {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetCategoryPerformance(_ context.Context) ([]domain.CategoryTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Category is resolved through the live variant when it still exists,
	// otherwise the revenue lands under Other.
	categoryOf := func(variantID string) string {
		if v, ok := s.variants[variantID]; ok {
			if p, ok := s.products[v.ProductID]; ok {
				return p.Category
			}
		}
		return domain.CategoryOther
	}

	totals := make(map[string]*domain.CategoryTotals)
	add := func(category string, qty int, priceCents int64) {
		entry, ok := totals[category]
		if !ok {
			entry = &domain.CategoryTotals{Category: category}
			totals[category] = entry
		}
		entry.UnitsSold += int64(qty)
		entry.RevenueCents += int64(qty) * priceCents
	}
	for _, order := range s.orders {
		for _, item := range order.Items {
			add(categoryOf(item.ProductVariantID), item.Quantity, item.PriceCents)
		}
	}
	for _, sale := range s.sales {
		for _, item := range sale.Items {
			add(categoryOf(item.ProductVariantID), item.Quantity, item.PriceCents)
		}
	}

	result := make([]domain.CategoryTotals, 0, len(totals))
	for _, entry := range totals {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.CategoryTotals) int {
		if a.RevenueCents == b.RevenueCents {
			return strings.Compare(a.Category, b.Category)
		}
		if a.RevenueCents > b.RevenueCents {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) CreateTestimonial(_ context.Context, testimonial domain.Testimonial) (*domain.Testimonial, error) {
	if testimonial.Name == "" || testimonial.Message == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if testimonial.ID == "" {
		testimonial.ID = xid.New("tst")
	}
	if testimonial.CreatedAt.IsZero() {
		testimonial.CreatedAt = time.Now().UTC()
	}
	s.testimonials[testimonial.ID] = testimonial
	created := testimonial
	return &created, nil
}

func (s *Store) ListTestimonials(_ context.Context, approvedOnly bool) ([]domain.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Testimonial, 0, len(s.testimonials))
	for _, t := range s.testimonials {
		if approvedOnly && !t.Approved {
			continue
		}
		result = append(result, t)
	}
	slices.SortFunc(result, func(a, b domain.Testimonial) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

func (s *Store) ApproveTestimonial(_ context.Context, id string) (*domain.Testimonial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.testimonials[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t.Approved = true
	s.testimonials[id] = t
	approved := t
	return &approved, nil
}

func (s *Store) DeleteTestimonial(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.testimonials[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.testimonials, id)
	return nil
}

func (s *Store) CreateFAQ(_ context.Context, faq domain.FAQ) (*domain.FAQ, error) {
	if faq.Question == "" || faq.Answer == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if faq.ID == "" {
		faq.ID = xid.New("faq")
	}
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = time.Now().UTC()
	}
	s.faqs[faq.ID] = faq
	created := faq
	return &created, nil
}

func (s *Store) ListFAQs(_ context.Context) ([]domain.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.FAQ, 0, len(s.faqs))
	for _, f := range s.faqs {
		result = append(result, f)
	}
	slices.SortFunc(result, func(a, b domain.FAQ) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (s *Store) UpdateFAQ(_ context.Context, faq domain.FAQ) (*domain.FAQ, error) {
	if faq.Question == "" || faq.Answer == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.faqs[faq.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	faq.CreatedAt = existing.CreatedAt
	s.faqs[faq.ID] = faq
	updated := faq
	return &updated, nil
}

func (s *Store) DeleteFAQ(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.faqs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.faqs, id)
	return nil
}

func (s *Store) CreateContactMessage(_ context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.contacts[msg.ID] = msg
	created := msg
	return &created, nil
}

func (s *Store) ListContactMessages(_ context.Context, limit int) ([]domain.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ContactMessage, 0, len(s.contacts))
	for _, m := range s.contacts {
		result = append(result, m)
	}
	slices.SortFunc(result, func(a, b domain.ContactMessage) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) MarkContactMessageRead(_ context.Context, id string) (*domain.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.contacts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.Read = true
	s.contacts[id] = m
	read := m
	return &read, nil
}

func (s *Store) DeleteContactMessage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *Store) UpsertNewsletterSubscriber(_ context.Context, email string, token string) (*domain.NewsletterSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || token == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.subscribers[email]; ok {
		existing.Active = true
		s.subscribers[email] = existing
		sub := existing
		return &sub, nil
	}

	sub := domain.NewsletterSubscriber{
		ID:               uuid.NewString(),
		Email:            email,
		UnsubscribeToken: token,
		Active:           true,
		SubscribedAt:     time.Now().UTC(),
	}
	s.subscribers[email] = sub
	created := sub
	return &created, nil
}

func (s *Store) UnsubscribeNewsletter(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for email, sub := range s.subscribers {
		if sub.UnsubscribeToken == token {
			sub.Active = false
			s.subscribers[email] = sub
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListNewsletterSubscribers(_ context.Context) ([]domain.NewsletterSubscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.NewsletterSubscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		if !sub.Active {
			continue
		}
		result = append(result, sub)
	}
	slices.SortFunc(result, func(a, b domain.NewsletterSubscriber) int {
		return strings.Compare(a.Email, b.Email)
	})
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	slices.SortFunc(result, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return result, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = password
	s.users[username] = u
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	cloned := order
	cloned.Items = make([]domain.OrderItem, len(order.Items))
	copy(cloned.Items, order.Items)
	return cloned
}

func cloneSale(sale domain.OfflineSale) domain.OfflineSale {
	cloned := sale
	cloned.Items = make([]domain.OfflineSaleItem, len(sale.Items))
	copy(cloned.Items, sale.Items)
	return cloned
}
