package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/notify"
	"kaboyagrovet/backend/internal/store"
	"kaboyagrovet/backend/internal/store/memory"
)

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

// newTestService builds a service over an empty in-memory store with one
// product and one 50 kg variant at KSh 6950.00 holding 5 units.
func newTestService(t *testing.T) (*Service, *memory.Store, string) {
	t.Helper()

	repo := memory.New()
	svc := New(repo, notify.LogSender{}, "", 10)
	ctx := adminCtx()

	product, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:     "DAP",
		Category: domain.CategoryFertilizer,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	variant, err := svc.CreateVariant(ctx, domain.VariantCreateRequest{
		ProductID:     product.ID,
		QuantityValue: 50,
		QuantityUnit:  "kg",
		SellingPrice:  6950,
		StockLevel:    5,
	})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}
	return svc, repo, variant.ID
}

func stockOf(t *testing.T, repo *memory.Store, variantID string) int {
	t.Helper()
	v, err := repo.GetVariant(context.Background(), variantID)
	if err != nil {
		t.Fatalf("get variant: %v", err)
	}
	return v.StockLevel
}

func orderRequest(variantID string, qty int, price float64) domain.OrderSubmitRequest {
	return domain.OrderSubmitRequest{
		CustomerName:    "Jane Wanjiku",
		CustomerEmail:   "jane@example.com",
		CustomerPhone:   "+254712345678",
		DeliveryAddress: "Kaboy town, opposite the matatu stage",
		Items: []domain.OrderLine{
			{ProductVariantID: variantID, Quantity: qty, SellingPrice: price},
		},
	}
}

func TestSubmitOrderReservesStockAndComputesTotal(t *testing.T) {
	svc, repo, variantID := newTestService(t)

	order, err := svc.SubmitOrder(context.Background(), orderRequest(variantID, 3, 6950))
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}
	if order.ID == "" {
		t.Fatal("expected order id")
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected Pending payment status, got %q", order.PaymentStatus)
	}
	if order.TotalCents != 3*695000 {
		t.Fatalf("expected total %d cents, got %d", 3*695000, order.TotalCents)
	}
	if order.TotalAmount != 20850 {
		t.Fatalf("expected total amount 20850, got %v", order.TotalAmount)
	}
	if got := stockOf(t, repo, variantID); got != 2 {
		t.Fatalf("expected stock 2 after reservation, got %d", got)
	}
	if order.Items[0].ProductName != "DAP" || order.Items[0].VariantInfo != "50 kg" {
		t.Fatalf("expected item snapshot, got %q (%q)", order.Items[0].ProductName, order.Items[0].VariantInfo)
	}
}

func TestSubmitOrderInsufficientStockLeavesStateUntouched(t *testing.T) {
	svc, repo, variantID := newTestService(t)

	if _, err := svc.SubmitOrder(context.Background(), orderRequest(variantID, 3, 6950)); err != nil {
		t.Fatalf("first order: %v", err)
	}

	_, err := svc.SubmitOrder(context.Background(), orderRequest(variantID, 3, 6950))
	var stockErr *store.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 2 || stockErr.Requested != 3 {
		t.Fatalf("expected available 2 requested 3, got %d/%d", stockErr.Available, stockErr.Requested)
	}

	if got := stockOf(t, repo, variantID); got != 2 {
		t.Fatalf("failed order must not touch stock, got %d", got)
	}
	orders, err := svc.ListOrders(adminCtx(), 0)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 persisted order, got %d", len(orders))
	}
}

func TestSubmitOrderMultiLineFailureAbortsWholeCart(t *testing.T) {
	svc, repo, variantID := newTestService(t)

	req := orderRequest(variantID, 2, 6950)
	req.Items = append(req.Items, domain.OrderLine{
		ProductVariantID: "var_missing", Quantity: 1, SellingPrice: 100,
	})

	_, err := svc.SubmitOrder(context.Background(), req)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown variant, got %v", err)
	}
	if got := stockOf(t, repo, variantID); got != 5 {
		t.Fatalf("aborted cart must not reserve stock, got %d", got)
	}
}

func TestSubmitOrderDuplicateLinesReserveSequentially(t *testing.T) {
	svc, repo, variantID := newTestService(t)

	req := orderRequest(variantID, 3, 6950)
	req.Items = append(req.Items, domain.OrderLine{
		ProductVariantID: variantID, Quantity: 3, SellingPrice: 6950,
	})
	_, err := svc.SubmitOrder(context.Background(), req)
	var stockErr *store.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected second duplicate line to fail, got %v", err)
	}
	if stockErr.Available != 2 || stockErr.Requested != 3 {
		t.Fatalf("expected available 2 requested 3, got %d/%d", stockErr.Available, stockErr.Requested)
	}
	if got := stockOf(t, repo, variantID); got != 5 {
		t.Fatalf("aborted duplicate cart must not reserve stock, got %d", got)
	}

	req = orderRequest(variantID, 2, 6950)
	req.Items = append(req.Items, domain.OrderLine{
		ProductVariantID: variantID, Quantity: 2, SellingPrice: 6950,
	})
	order, err := svc.SubmitOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("duplicate lines within stock should pass: %v", err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("duplicate lines must not be merged, got %d items", len(order.Items))
	}
	if got := stockOf(t, repo, variantID); got != 1 {
		t.Fatalf("expected stock 1, got %d", got)
	}
}

func TestSubmitOrderValidation(t *testing.T) {
	svc, _, variantID := newTestService(t)
	ctx := context.Background()

	req := orderRequest(variantID, 1, 6950)
	req.Items = nil
	if _, err := svc.SubmitOrder(ctx, req); !errors.Is(err, store.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	if _, err := svc.SubmitOrder(ctx, orderRequest(variantID, 0, 6950)); !errors.Is(err, store.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for zero quantity, got %v", err)
	}

	if _, err := svc.SubmitOrder(ctx, orderRequest(variantID, 1, -5)); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative price, got %v", err)
	}

	req = orderRequest(variantID, 1, 6950)
	req.CustomerEmail = "not-an-email"
	if _, err := svc.SubmitOrder(ctx, req); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
}

func TestRecordOfflineSale(t *testing.T) {
	svc, repo, variantID := newTestService(t)
	ctx := adminCtx()

	sale, err := svc.RecordOfflineSale(ctx, domain.ManualSaleRequest{
		CustomerName: "Walk-in",
		AmountPaid:   15000,
		ChangeGiven:  1100,
		PaymentMode:  domain.PaymentModeCash,
		Items: []domain.SaleLine{
			{ProductVariantID: variantID, Quantity: 2, Price: 6950},
		},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if sale.TotalCents != 2*695000 {
		t.Fatalf("expected total %d, got %d", 2*695000, sale.TotalCents)
	}
	if got := stockOf(t, repo, variantID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}

	_, err = svc.RecordOfflineSale(ctx, domain.ManualSaleRequest{
		PaymentMode: "Barter",
		Items: []domain.SaleLine{
			{ProductVariantID: variantID, Quantity: 1, Price: 6950},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown payment mode, got %v", err)
	}
}

func TestRecordOfflineSaleRejectsMismatchedTotal(t *testing.T) {
	svc, _, variantID := newTestService(t)

	_, err := svc.RecordOfflineSale(adminCtx(), domain.ManualSaleRequest{
		TotalCost:   999,
		PaymentMode: domain.PaymentModeMpesa,
		Items: []domain.SaleLine{
			{ProductVariantID: variantID, Quantity: 1, Price: 6950},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for mismatched total_cost, got %v", err)
	}
}

// captureSender records every mail on a channel so tests can wait for
// the post-commit notification goroutines.
type captureSender struct {
	mails chan capturedMail
}

type capturedMail struct {
	to      []string
	subject string
}

func (c *captureSender) Send(to []string, subject string, _ string) error {
	c.mails <- capturedMail{to: to, subject: subject}
	return nil
}

func (c *captureSender) wait(t *testing.T) capturedMail {
	t.Helper()
	select {
	case mail := <-c.mails:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification mail")
		return capturedMail{}
	}
}

func TestRecordOfflineSaleNotifiesShop(t *testing.T) {
	repo := memory.New()
	sender := &captureSender{mails: make(chan capturedMail, 4)}
	svc := New(repo, sender, "shop@kaboyagrovet.co.ke", 10)
	ctx := adminCtx()

	product, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:     "DAP",
		Category: domain.CategoryFertilizer,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	variant, err := svc.CreateVariant(ctx, domain.VariantCreateRequest{
		ProductID:     product.ID,
		QuantityValue: 50,
		QuantityUnit:  "kg",
		SellingPrice:  6950,
		StockLevel:    5,
	})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}

	sale, err := svc.RecordOfflineSale(ctx, domain.ManualSaleRequest{
		CustomerName: "Walk-in",
		AmountPaid:   21000,
		PaymentMode:  domain.PaymentModeCash,
		Items: []domain.SaleLine{
			{ProductVariantID: variant.ID, Quantity: 3, Price: 6950},
		},
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	// Stock fell from 5 to 2, under the threshold of 10, so the shop
	// gets the sale summary and then a low stock alert.
	first := sender.wait(t)
	if first.to[0] != "shop@kaboyagrovet.co.ke" {
		t.Fatalf("unexpected recipient %v", first.to)
	}
	if !strings.Contains(first.subject, sale.ID) {
		t.Fatalf("expected sale id in subject, got %q", first.subject)
	}
	second := sender.wait(t)
	if !strings.HasPrefix(second.subject, "Low stock: DAP (50 kg)") {
		t.Fatalf("expected low stock alert, got %q", second.subject)
	}
}

func TestRestock(t *testing.T) {
	svc, _, variantID := newTestService(t)
	ctx := adminCtx()

	newLevel, err := svc.Restock(ctx, domain.RestockRequest{VariantID: variantID, Quantity: 10})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if newLevel != 15 {
		t.Fatalf("expected new stock level 15, got %d", newLevel)
	}

	if _, err := svc.Restock(ctx, domain.RestockRequest{VariantID: variantID, Quantity: -1}); !errors.Is(err, store.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.Restock(ctx, domain.RestockRequest{VariantID: "var_missing", Quantity: 3}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminOperationsRequireAdminActor(t *testing.T) {
	svc, _, variantID := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{Name: "X", Category: domain.CategoryOther}); err == nil {
		t.Fatal("expected create product to fail without actor")
	}
	if _, err := svc.Restock(ctx, domain.RestockRequest{VariantID: variantID, Quantity: 1}); err == nil {
		t.Fatal("expected restock to fail without actor")
	}
	if _, err := svc.ListOrders(ctx, 10); err == nil {
		t.Fatal("expected order listing to fail without actor")
	}
}

func TestStorefrontVariantListingHidesOutOfStock(t *testing.T) {
	svc, _, variantID := newTestService(t)

	if _, err := svc.SubmitOrder(context.Background(), orderRequest(variantID, 5, 6950)); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	public, err := svc.ListVariants(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(public) != 0 {
		t.Fatalf("expected zero-stock variant hidden from storefront, got %d", len(public))
	}

	all, err := svc.ListAllVariants(adminCtx(), "", "")
	if err != nil {
		t.Fatalf("list all variants: %v", err)
	}
	if len(all) != 1 || all[0].StockLevel != 0 {
		t.Fatalf("expected admin listing to include zero-stock variant, got %+v", all)
	}
}

func TestTestimonialApprovalFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	submitted, err := svc.SubmitTestimonial(ctx, domain.TestimonialCreateRequest{
		Name:    "Peter",
		Message: "The maize seed germinated beautifully.",
	})
	if err != nil {
		t.Fatalf("submit testimonial: %v", err)
	}

	approved, err := svc.ListApprovedTestimonials(ctx)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(approved) != 0 {
		t.Fatalf("unapproved testimonial must not be listed, got %d", len(approved))
	}

	if _, err := svc.ApproveTestimonial(adminCtx(), submitted.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approved, err = svc.ListApprovedTestimonials(ctx)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(approved) != 1 {
		t.Fatalf("expected 1 approved testimonial, got %d", len(approved))
	}
}

func TestNewsletterSubscribeIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SubscribeNewsletter(ctx, "Farmer@Example.com")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if first.Email != "farmer@example.com" {
		t.Fatalf("expected lowercased email, got %q", first.Email)
	}

	second, err := svc.SubscribeNewsletter(ctx, "farmer@example.com")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if second.ID != first.ID || second.UnsubscribeToken != first.UnsubscribeToken {
		t.Fatal("resubscribe must keep the original subscriber row and token")
	}

	if err := svc.UnsubscribeNewsletter(ctx, first.UnsubscribeToken); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	subscribers, err := svc.ListNewsletterSubscribers(adminCtx())
	if err != nil {
		t.Fatalf("list subscribers: %v", err)
	}
	if len(subscribers) != 0 {
		t.Fatalf("expected no active subscribers, got %d", len(subscribers))
	}

	if err := svc.UnsubscribeNewsletter(ctx, "bogus-token"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}
}

func TestDeleteProductKeepsOrderHistorySnapshots(t *testing.T) {
	svc, _, variantID := newTestService(t)

	order, err := svc.SubmitOrder(context.Background(), orderRequest(variantID, 1, 6950))
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}

	variant, err := svc.ListAllVariants(adminCtx(), "", "")
	if err != nil || len(variant) != 1 {
		t.Fatalf("list variants: %v", err)
	}
	if err := svc.DeleteProduct(adminCtx(), variant[0].ProductID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	got, err := svc.GetOrder(adminCtx(), order.ID)
	if err != nil {
		t.Fatalf("get order after catalog delete: %v", err)
	}
	if got.Items[0].ProductName != "DAP" || got.Items[0].VariantInfo != "50 kg" {
		t.Fatalf("expected snapshots to survive deletion, got %+v", got.Items[0])
	}
}

func TestUpdateOrderPaymentStatus(t *testing.T) {
	svc, _, variantID := newTestService(t)

	order, err := svc.SubmitOrder(context.Background(), orderRequest(variantID, 1, 6950))
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}

	updated, err := svc.UpdateOrderPaymentStatus(adminCtx(), order.ID, domain.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected Paid, got %q", updated.PaymentStatus)
	}

	if _, err := svc.UpdateOrderPaymentStatus(adminCtx(), order.ID, "Shipped"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}
