package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/notify"
	"kaboyagrovet/backend/internal/reporting"
	"kaboyagrovet/backend/internal/service"
	"kaboyagrovet/backend/internal/store/memory"
)

// newTestAPI builds a full API over an in-memory store with one product and
// one 50 kg variant holding 5 units, plus a bootstrapped admin account.
func newTestAPI(t *testing.T) (http.Handler, string) {
	t.Helper()
	ctx := context.Background()

	repo := memory.New()
	product, err := repo.CreateProduct(ctx, domain.Product{
		Name:     "DAP",
		Category: domain.CategoryFertilizer,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	variant, err := repo.CreateVariant(ctx, domain.ProductVariant{
		ProductID:         product.ID,
		QuantityValue:     50,
		QuantityUnit:      "kg",
		SellingPriceCents: 695000,
		StockLevel:        5,
	})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}

	svc := service.New(repo, notify.LogSender{}, "", 10)
	engine := reporting.NewEngine(repo, nil, 0, 0.6, 10)
	auth := NewAuthManager(strings.Repeat("k", 32), time.Hour, repo)
	if err := auth.EnsureAdmin(ctx, "admin", "secret123"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	api := New(svc, engine, auth, "http://127.0.0.1:3000")
	return api.Handler(), variant.ID
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	payload := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, payload
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec, payload := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
		Username: "admin",
		Password: "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	token, _ := payload["access_token"].(string)
	if token == "" {
		t.Fatalf("expected access token in %v", payload)
	}
	return token
}

func orderBody(variantID string, qty int) domain.OrderSubmitRequest {
	return domain.OrderSubmitRequest{
		CustomerName:    "Jane Wanjiku",
		CustomerEmail:   "jane@example.com",
		CustomerPhone:   "+254712345678",
		DeliveryAddress: "Kaboy town",
		Items: []domain.OrderLine{
			{ProductVariantID: variantID, Quantity: qty, SellingPrice: 6950},
		},
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler, _ := newTestAPI(t)

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
		Username: "admin",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if payload["status"] != "error" {
		t.Fatalf("expected error envelope, got %v", payload)
	}
}

func TestAdminRoutesRequireBearerToken(t *testing.T) {
	handler, variantID := newTestAPI(t)

	rec, _ := doJSON(t, handler, http.MethodGet, "/api/admin/orders", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/restock-product", "not-a-jwt", domain.RestockRequest{
		VariantID: variantID, Quantity: 1,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestSubmitOrderEndpoint(t *testing.T) {
	handler, variantID := newTestAPI(t)

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/submit-full-order", "", orderBody(variantID, 3))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if payload["status"] != "success" {
		t.Fatalf("expected success envelope, got %v", payload)
	}
	msg, _ := payload["message"].(string)
	if !strings.HasPrefix(msg, "Order ") || !strings.HasSuffix(msg, "Total: KSh 20850.00") {
		t.Fatalf("unexpected order message %q", msg)
	}
	if id, _ := payload["order_id"].(string); id == "" {
		t.Fatalf("expected order_id in %v", payload)
	}
}

func TestSubmitOrderInsufficientStockMessage(t *testing.T) {
	handler, variantID := newTestAPI(t)

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/submit-full-order", "", orderBody(variantID, 3))
	if rec.Code != http.StatusOK {
		t.Fatalf("first order: %d %s", rec.Code, rec.Body.String())
	}

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/submit-full-order", "", orderBody(variantID, 3))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	want := "Insufficient stock for DAP (50 kg). Available: 2, Requested: 3"
	if payload["message"] != want {
		t.Fatalf("expected message %q, got %v", want, payload["message"])
	}
}

func TestSubmitOrderRejectsUnknownFields(t *testing.T) {
	handler, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/submit-full-order",
		strings.NewReader(`{"customer_name":"x","coupon":"FREE"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestRestockEndpoint(t *testing.T) {
	handler, variantID := newTestAPI(t)
	token := login(t, handler)

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/restock-product", token, domain.RestockRequest{
		VariantID: variantID,
		Quantity:  10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if payload["new_stock_level"] != float64(15) {
		t.Fatalf("expected new_stock_level 15, got %v", payload["new_stock_level"])
	}
	if payload["message"] != "Stock updated successfully. New stock level: 15" {
		t.Fatalf("unexpected restock message %v", payload["message"])
	}

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/restock-product", token, domain.RestockRequest{
		VariantID: variantID,
		Quantity:  -1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative restock, got %d", rec.Code)
	}
}

func TestManualSaleEndpoint(t *testing.T) {
	handler, variantID := newTestAPI(t)
	token := login(t, handler)

	rec, payload := doJSON(t, handler, http.MethodPost, "/api/manual-sale", token, domain.ManualSaleRequest{
		CustomerName: "Walk-in",
		AmountPaid:   14000,
		PaymentMode:  domain.PaymentModeCash,
		Items: []domain.SaleLine{
			{ProductVariantID: variantID, Quantity: 2, Price: 6950},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	id, _ := payload["sale_id"].(string)
	if payload["status"] != "success" || id == "" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestDashboardStatsEndpoint(t *testing.T) {
	handler, variantID := newTestAPI(t)
	token := login(t, handler)

	if rec, _ := doJSON(t, handler, http.MethodPost, "/api/submit-full-order", "", orderBody(variantID, 1)); rec.Code != http.StatusOK {
		t.Fatalf("seed order failed: %d", rec.Code)
	}

	rec, payload := doJSON(t, handler, http.MethodGet, "/api/dashboard/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	stats, ok := payload["stats"].(map[string]any)
	if !ok {
		t.Fatalf("expected stats object, got %v", payload)
	}
	sales, ok := stats["sales"].(map[string]any)
	if !ok || sales["total_orders"] != float64(1) {
		t.Fatalf("unexpected sales block %v", stats)
	}
}

func TestPublicCatalogEndpoints(t *testing.T) {
	handler, _ := newTestAPI(t)

	rec, payload := doJSON(t, handler, http.MethodGet, "/api/product-variants", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	variants, ok := payload["variants"].([]any)
	if !ok || len(variants) != 1 {
		t.Fatalf("expected 1 variant, got %v", payload)
	}

	rec, _ = doJSON(t, handler, http.MethodGet, "/api/products?category=NotACategory", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rec.Code)
	}
}

func TestSecurityHeadersAndOptions(t *testing.T) {
	handler, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://127.0.0.1:3000" {
		t.Fatalf("unexpected CORS origin %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestNewsletterRoundTrip(t *testing.T) {
	handler, _ := newTestAPI(t)
	token := login(t, handler)

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/newsletter/subscribe", "", domain.NewsletterSubscribeRequest{
		Email: "farmer@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribe: %d %s", rec.Code, rec.Body.String())
	}

	rec, payload := doJSON(t, handler, http.MethodGet, "/api/admin/newsletter/subscribers", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list subscribers: %d", rec.Code)
	}
	subs, ok := payload["subscribers"].([]any)
	if !ok || len(subs) != 1 {
		t.Fatalf("expected 1 subscriber, got %v", payload)
	}

	rec, _ = doJSON(t, handler, http.MethodGet, "/api/newsletter/unsubscribe/bogus", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token, got %d", rec.Code)
	}
}

func TestLoginRateLimiter(t *testing.T) {
	handler, _ := newTestAPI(t)

	for i := 0; i < 5; i++ {
		rec, _ := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
			Username: "admin",
			Password: fmt.Sprintf("wrong-%d", i),
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	rec, _ := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{
		Username: "admin",
		Password: "secret123",
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
}
