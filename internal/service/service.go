package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/notify"
	"kaboyagrovet/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo              store.Repository
	sender            notify.Sender
	shopEmail         string
	lowStockThreshold int
}

func New(repo store.Repository, sender notify.Sender, shopEmail string, lowStockThreshold int) *Service {
	if sender == nil {
		sender = notify.LogSender{}
	}
	if lowStockThreshold < 1 {
		lowStockThreshold = 10
	}
	return &Service{
		repo:              repo,
		sender:            sender,
		shopEmail:         shopEmail,
		lowStockThreshold: lowStockThreshold,
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context, search string, category string) ([]domain.Product, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, fmt.Errorf("unknown category %q: %w", category, store.ErrInvalidInput)
	}
	return s.repo.ListProducts(ctx, search, category)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" {
		return nil, fmt.Errorf("product name is required: %w", store.ErrInvalidInput)
	}
	if !domain.ValidCategory(req.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, store.ErrInvalidInput)
	}

	return s.repo.CreateProduct(ctx, domain.Product{
		Name:        req.Name,
		Category:    req.Category,
		Description: strings.TrimSpace(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		CreatedAt:   time.Now().UTC(),
	})
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("product name is required: %w", store.ErrInvalidInput)
		}
		updated.Name = name
	}
	if req.Category != nil {
		if !domain.ValidCategory(*req.Category) {
			return nil, fmt.Errorf("unknown category %q: %w", *req.Category, store.ErrInvalidInput)
		}
		updated.Category = *req.Category
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	return s.repo.UpdateProduct(ctx, updated)
}

// DeleteProduct removes a product and its variants. Recorded order and sale
// items keep their snapshots, so sales history is unaffected.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

// ListVariants serves the storefront: out-of-stock variants are hidden.
func (s *Service) ListVariants(ctx context.Context, search string, category string) ([]domain.VariantSummary, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, fmt.Errorf("unknown category %q: %w", category, store.ErrInvalidInput)
	}
	return s.repo.ListVariants(ctx, search, category, false)
}

// ListAllVariants serves the back office: zero-stock variants included.
func (s *Service) ListAllVariants(ctx context.Context, search string, category string) ([]domain.VariantSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListVariants(ctx, search, category, true)
}

func (s *Service) CreateVariant(ctx context.Context, req domain.VariantCreateRequest) (*domain.ProductVariant, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.ProductID == "" || req.QuantityValue <= 0 || strings.TrimSpace(req.QuantityUnit) == "" {
		return nil, fmt.Errorf("variant packaging is required: %w", store.ErrInvalidInput)
	}
	if req.SellingPrice < 0 || req.StockLevel < 0 {
		return nil, fmt.Errorf("price and stock must not be negative: %w", store.ErrInvalidInput)
	}

	variant := domain.ProductVariant{
		ProductID:         req.ProductID,
		QuantityValue:     req.QuantityValue,
		QuantityUnit:      strings.TrimSpace(req.QuantityUnit),
		SellingPriceCents: domain.CentsFromFloat(req.SellingPrice),
		StockLevel:        req.StockLevel,
		Supplier:          strings.TrimSpace(req.Supplier),
	}
	if req.BuyingPrice != nil {
		if *req.BuyingPrice < 0 {
			return nil, fmt.Errorf("buying price must not be negative: %w", store.ErrInvalidInput)
		}
		cents := domain.CentsFromFloat(*req.BuyingPrice)
		variant.BuyingPriceCents = &cents
	}
	if req.ExpiryDate != "" {
		expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("expiry date must be YYYY-MM-DD: %w", store.ErrInvalidInput)
		}
		variant.ExpiryDate = &expiry
	}
	return s.repo.CreateVariant(ctx, variant)
}

func (s *Service) UpdateVariant(ctx context.Context, id string, req domain.VariantUpdateRequest) (*domain.ProductVariant, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetVariant(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.QuantityValue != nil {
		if *req.QuantityValue <= 0 {
			return nil, fmt.Errorf("quantity value must be positive: %w", store.ErrInvalidInput)
		}
		updated.QuantityValue = *req.QuantityValue
	}
	if req.QuantityUnit != nil {
		unit := strings.TrimSpace(*req.QuantityUnit)
		if unit == "" {
			return nil, fmt.Errorf("quantity unit is required: %w", store.ErrInvalidInput)
		}
		updated.QuantityUnit = unit
	}
	if req.SellingPrice != nil {
		if *req.SellingPrice < 0 {
			return nil, fmt.Errorf("selling price must not be negative: %w", store.ErrInvalidInput)
		}
		updated.SellingPriceCents = domain.CentsFromFloat(*req.SellingPrice)
	}
	if req.BuyingPrice != nil {
		if *req.BuyingPrice < 0 {
			return nil, fmt.Errorf("buying price must not be negative: %w", store.ErrInvalidInput)
		}
		cents := domain.CentsFromFloat(*req.BuyingPrice)
		updated.BuyingPriceCents = &cents
	}
	if req.ExpiryDate != nil {
		if *req.ExpiryDate == "" {
			updated.ExpiryDate = nil
		} else {
			expiry, err := time.Parse("2006-01-02", *req.ExpiryDate)
			if err != nil {
				return nil, fmt.Errorf("expiry date must be YYYY-MM-DD: %w", store.ErrInvalidInput)
			}
			updated.ExpiryDate = &expiry
		}
	}
	if req.Supplier != nil {
		updated.Supplier = strings.TrimSpace(*req.Supplier)
	}
	return s.repo.UpdateVariant(ctx, updated)
}

func (s *Service) DeleteVariant(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteVariant(ctx, id)
}

func (s *Service) Restock(ctx context.Context, req domain.RestockRequest) (int, error) {
	if err := requireAdmin(ctx); err != nil {
		return 0, err
	}
	if req.VariantID == "" {
		return 0, fmt.Errorf("variant_id is required: %w", store.ErrInvalidInput)
	}
	if req.Quantity < 1 {
		return 0, fmt.Errorf("restock quantity must be positive: %w", store.ErrInvalidQuantity)
	}

	newLevel, err := s.repo.RestockVariant(ctx, req.VariantID, req.Quantity)
	if err != nil {
		return 0, err
	}
	actor, _ := ActorFromContext(ctx)
	log.Printf("[service] restock variant=%s qty=%d new_level=%d by=%s", req.VariantID, req.Quantity, newLevel, actor.Username)
	return newLevel, nil
}

// SubmitOrder validates the cart, reserves stock and persists the order
// atomically, then fires best-effort notifications. Duplicate variant lines
// are deliberately kept separate and reserved in list order; if any line
// fails, the store rolls the whole unit back.
func (s *Service) SubmitOrder(ctx context.Context, req domain.OrderSubmitRequest) (*domain.Order, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	if req.CustomerName == "" || req.CustomerEmail == "" || req.CustomerPhone == "" || req.DeliveryAddress == "" {
		return nil, fmt.Errorf("customer name, email, phone and delivery address are required: %w", store.ErrInvalidInput)
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		return nil, fmt.Errorf("customer email is invalid: %w", store.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", store.ErrEmptyCart)
	}

	order := domain.Order{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		PaymentStatus:   domain.PaymentStatusPending,
		OrderedAt:       time.Now().UTC(),
		Items:           make([]domain.OrderItem, 0, len(req.Items)),
	}
	var total int64
	for i, line := range req.Items {
		if line.ProductVariantID == "" {
			return nil, fmt.Errorf("item %d: product_variant_id is required: %w", i+1, store.ErrInvalidInput)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity must be positive: %w", i+1, store.ErrInvalidQuantity)
		}
		if line.SellingPrice < 0 {
			return nil, fmt.Errorf("item %d: selling price must not be negative: %w", i+1, store.ErrInvalidInput)
		}
		priceCents := domain.CentsFromFloat(line.SellingPrice)
		order.Items = append(order.Items, domain.OrderItem{
			ProductVariantID: line.ProductVariantID,
			Quantity:         line.Quantity,
			PriceCents:       priceCents,
		})
		total += int64(line.Quantity) * priceCents
	}
	order.TotalCents = total

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	go s.notifyOrderPlaced(*created)
	return created, nil
}

// notifyOrderPlaced runs after commit in its own goroutine. Failures are
// logged and never surfaced to the customer.
func (s *Service) notifyOrderPlaced(order domain.Order) {
	if s.shopEmail != "" {
		subject, body := notify.OrderNotification(order)
		if err := s.sender.Send([]string{s.shopEmail}, subject, body); err != nil {
			log.Printf("[service] WARN: order notification failed order=%s: %v", order.ID, err)
		}
	}
	subject, body := notify.OrderConfirmation(order)
	if err := s.sender.Send([]string{order.CustomerEmail}, subject, body); err != nil {
		log.Printf("[service] WARN: order confirmation failed order=%s: %v", order.ID, err)
	}
	lines := make([]soldLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, soldLine{item.ProductVariantID, item.ProductName, item.VariantInfo})
	}
	s.notifyLowStock(lines)
}

// notifySaleRecorded is the staff-sale counterpart of notifyOrderPlaced.
// There is no customer mail; the shop gets the sale summary and any
// low-stock alerts the sale triggered.
func (s *Service) notifySaleRecorded(sale domain.OfflineSale) {
	if s.shopEmail != "" {
		subject, body := notify.SaleNotification(sale)
		if err := s.sender.Send([]string{s.shopEmail}, subject, body); err != nil {
			log.Printf("[service] WARN: sale notification failed sale=%s: %v", sale.ID, err)
		}
	}
	lines := make([]soldLine, 0, len(sale.Items))
	for _, item := range sale.Items {
		lines = append(lines, soldLine{item.ProductVariantID, item.ProductName, item.VariantInfo})
	}
	s.notifyLowStock(lines)
}

// soldLine is the slice element notifyLowStock shares between order and
// offline-sale items.
type soldLine struct {
	variantID   string
	productName string
	variantInfo string
}

func (s *Service) notifyLowStock(lines []soldLine) {
	if s.shopEmail == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if seen[line.variantID] {
			continue
		}
		seen[line.variantID] = true
		variant, err := s.repo.GetVariant(ctx, line.variantID)
		if err != nil || variant.StockLevel >= s.lowStockThreshold {
			continue
		}
		subject, body := notify.LowStockAlert(line.productName, line.variantInfo, variant.StockLevel, s.lowStockThreshold)
		if err := s.sender.Send([]string{s.shopEmail}, subject, body); err != nil {
			log.Printf("[service] WARN: low stock alert failed variant=%s: %v", line.variantID, err)
		}
	}
}

// RecordOfflineSale is the staff-side counterpart of SubmitOrder: same
// reservation and atomicity rules, point-of-sale header fields.
func (s *Service) RecordOfflineSale(ctx context.Context, req domain.ManualSaleRequest) (*domain.OfflineSale, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !domain.ValidPaymentMode(req.PaymentMode) {
		return nil, fmt.Errorf("unknown payment mode %q: %w", req.PaymentMode, store.ErrInvalidInput)
	}
	if req.AmountPaid < 0 || req.ChangeGiven < 0 {
		return nil, fmt.Errorf("amounts must not be negative: %w", store.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("sale has no items: %w", store.ErrEmptyCart)
	}

	sale := domain.OfflineSale{
		CustomerName:     strings.TrimSpace(req.CustomerName),
		AmountPaidCents:  domain.CentsFromFloat(req.AmountPaid),
		ChangeGivenCents: domain.CentsFromFloat(req.ChangeGiven),
		PaymentMode:      req.PaymentMode,
		SaleDate:         time.Now().UTC(),
		Items:            make([]domain.OfflineSaleItem, 0, len(req.Items)),
	}
	var total int64
	for i, line := range req.Items {
		if line.ProductVariantID == "" {
			return nil, fmt.Errorf("item %d: product_variant_id is required: %w", i+1, store.ErrInvalidInput)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity must be positive: %w", i+1, store.ErrInvalidQuantity)
		}
		if line.Price < 0 {
			return nil, fmt.Errorf("item %d: price must not be negative: %w", i+1, store.ErrInvalidInput)
		}
		priceCents := domain.CentsFromFloat(line.Price)
		sale.Items = append(sale.Items, domain.OfflineSaleItem{
			ProductVariantID: line.ProductVariantID,
			Quantity:         line.Quantity,
			PriceCents:       priceCents,
		})
		total += int64(line.Quantity) * priceCents
	}
	sale.TotalCents = total

	// total_cost from the till is advisory; the recomputed item total is
	// what gets persisted. A mismatch is rejected rather than silently
	// corrected.
	if req.TotalCost != 0 && domain.CentsFromFloat(req.TotalCost) != total {
		return nil, fmt.Errorf("total_cost does not match the item total: %w", store.ErrInvalidInput)
	}

	created, err := s.repo.CreateOfflineSale(ctx, sale)
	if err != nil {
		return nil, err
	}

	go s.notifySaleRecorded(*created)
	return created, nil
}

func (s *Service) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, limit)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) UpdateOrderPaymentStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !domain.ValidPaymentStatus(status) {
		return nil, fmt.Errorf("unknown payment status %q: %w", status, store.ErrInvalidInput)
	}
	return s.repo.UpdateOrderPaymentStatus(ctx, id, status)
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteOrder(ctx, id)
}

func (s *Service) ListOfflineSales(ctx context.Context, limit int) ([]domain.OfflineSale, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListOfflineSales(ctx, limit)
}

func (s *Service) DeleteOfflineSale(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteOfflineSale(ctx, id)
}

func (s *Service) SubmitTestimonial(ctx context.Context, req domain.TestimonialCreateRequest) (*domain.Testimonial, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Message == "" {
		return nil, fmt.Errorf("name and message are required: %w", store.ErrInvalidInput)
	}
	// New testimonials wait for approval before they show on the storefront.
	return s.repo.CreateTestimonial(ctx, domain.Testimonial{
		Name:    req.Name,
		Message: req.Message,
	})
}

func (s *Service) ListApprovedTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	return s.repo.ListTestimonials(ctx, true)
}

func (s *Service) ListAllTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListTestimonials(ctx, false)
}

func (s *Service) ApproveTestimonial(ctx context.Context, id string) (*domain.Testimonial, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ApproveTestimonial(ctx, id)
}

func (s *Service) DeleteTestimonial(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteTestimonial(ctx, id)
}

func (s *Service) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	return s.repo.ListFAQs(ctx)
}

func (s *Service) CreateFAQ(ctx context.Context, req domain.FAQRequest) (*domain.FAQ, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	req.Question = strings.TrimSpace(req.Question)
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Question == "" || req.Answer == "" {
		return nil, fmt.Errorf("question and answer are required: %w", store.ErrInvalidInput)
	}
	return s.repo.CreateFAQ(ctx, domain.FAQ{Question: req.Question, Answer: req.Answer})
}

func (s *Service) UpdateFAQ(ctx context.Context, id string, req domain.FAQRequest) (*domain.FAQ, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	req.Question = strings.TrimSpace(req.Question)
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Question == "" || req.Answer == "" {
		return nil, fmt.Errorf("question and answer are required: %w", store.ErrInvalidInput)
	}
	return s.repo.UpdateFAQ(ctx, domain.FAQ{ID: id, Question: req.Question, Answer: req.Answer})
}

func (s *Service) DeleteFAQ(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteFAQ(ctx, id)
}

func (s *Service) SubmitContactMessage(ctx context.Context, req domain.ContactRequest) (*domain.ContactMessage, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		return nil, fmt.Errorf("name, email and message are required: %w", store.ErrInvalidInput)
	}
	if !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("email is invalid: %w", store.ErrInvalidInput)
	}

	created, err := s.repo.CreateContactMessage(ctx, domain.ContactMessage{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Subject: strings.TrimSpace(req.Subject),
		Message: req.Message,
	})
	if err != nil {
		return nil, err
	}

	if s.shopEmail != "" {
		go func(msg domain.ContactMessage) {
			subject, body := notify.ContactAlert(msg)
			if err := s.sender.Send([]string{s.shopEmail}, subject, body); err != nil {
				log.Printf("[service] WARN: contact alert failed message=%s: %v", msg.ID, err)
			}
		}(*created)
	}
	return created, nil
}

func (s *Service) ListContactMessages(ctx context.Context, limit int) ([]domain.ContactMessage, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListContactMessages(ctx, limit)
}

func (s *Service) MarkContactMessageRead(ctx context.Context, id string) (*domain.ContactMessage, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.MarkContactMessageRead(ctx, id)
}

func (s *Service) DeleteContactMessage(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteContactMessage(ctx, id)
}

// SubscribeNewsletter is idempotent on email: resubscribing an existing
// address reactivates it without issuing a new token.
func (s *Service) SubscribeNewsletter(ctx context.Context, email string) (*domain.NewsletterSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("email is invalid: %w", store.ErrInvalidInput)
	}
	return s.repo.UpsertNewsletterSubscriber(ctx, email, uuid.NewString())
}

func (s *Service) UnsubscribeNewsletter(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required: %w", store.ErrInvalidInput)
	}
	return s.repo.UnsubscribeNewsletter(ctx, token)
}

func (s *Service) ListNewsletterSubscribers(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListNewsletterSubscribers(ctx)
}
