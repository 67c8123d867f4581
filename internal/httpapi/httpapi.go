package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/reporting"
	"kaboyagrovet/backend/internal/service"
	"kaboyagrovet/backend/internal/store"
)

type API struct {
	service       *service.Service
	reports       *reporting.Engine
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, reports *reporting.Engine, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		reports:       reports,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/auth/login", a.handleLogin)

	mux.HandleFunc("/api/products", a.handlePublicProducts)
	mux.HandleFunc("/api/product-variants", a.handlePublicVariants)
	mux.HandleFunc("/api/submit-full-order", a.handleSubmitOrder)
	mux.HandleFunc("/api/contact", a.handleContact)
	mux.HandleFunc("/api/newsletter/subscribe", a.handleNewsletterSubscribe)
	mux.HandleFunc("/api/newsletter/unsubscribe/", a.handleNewsletterUnsubscribe)
	mux.HandleFunc("/api/testimonials", a.handleTestimonials)
	mux.HandleFunc("/api/faqs", a.handleFAQs)

	mux.HandleFunc("/api/manual-sale", a.requireAuth(a.handleManualSale, "admin"))
	mux.HandleFunc("/api/restock-product", a.requireAuth(a.handleRestock, "admin"))

	mux.HandleFunc("/api/admin/products", a.requireAuth(a.handleAdminProducts, "admin"))
	mux.HandleFunc("/api/admin/products/", a.requireAuth(a.handleAdminProductActions, "admin"))
	mux.HandleFunc("/api/admin/product-variants", a.requireAuth(a.handleAdminVariants, "admin"))
	mux.HandleFunc("/api/admin/product-variants/", a.requireAuth(a.handleAdminVariantActions, "admin"))
	mux.HandleFunc("/api/admin/orders", a.requireAuth(a.handleAdminOrders, "admin"))
	mux.HandleFunc("/api/admin/orders/", a.requireAuth(a.handleAdminOrderActions, "admin"))
	mux.HandleFunc("/api/admin/sales", a.requireAuth(a.handleAdminSales, "admin"))
	mux.HandleFunc("/api/admin/sales/", a.requireAuth(a.handleAdminSaleActions, "admin"))
	mux.HandleFunc("/api/admin/testimonials", a.requireAuth(a.handleAdminTestimonials, "admin"))
	mux.HandleFunc("/api/admin/testimonials/", a.requireAuth(a.handleAdminTestimonialActions, "admin"))
	mux.HandleFunc("/api/admin/faqs", a.requireAuth(a.handleAdminFAQs, "admin"))
	mux.HandleFunc("/api/admin/faqs/", a.requireAuth(a.handleAdminFAQActions, "admin"))
	mux.HandleFunc("/api/admin/contact-messages", a.requireAuth(a.handleAdminContacts, "admin"))
	mux.HandleFunc("/api/admin/contact-messages/", a.requireAuth(a.handleAdminContactActions, "admin"))
	mux.HandleFunc("/api/admin/newsletter/subscribers", a.requireAuth(a.handleAdminSubscribers, "admin"))
	mux.HandleFunc("/api/admin/users", a.requireAuth(a.handleAdminUsers, "admin"))
	mux.HandleFunc("/api/admin/users/", a.requireAuth(a.handleAdminUserActions, "admin"))

	mux.HandleFunc("/api/dashboard/stats", a.requireAuth(a.handleDashboardStats, "admin"))
	mux.HandleFunc("/api/dashboard/sales-trends", a.requireAuth(a.handleSalesTrends, "admin"))
	mux.HandleFunc("/api/dashboard/stock-levels", a.requireAuth(a.handleStockLevels, "admin"))
	mux.HandleFunc("/api/dashboard/recent-orders", a.requireAuth(a.handleRecentOrders, "admin"))
	mux.HandleFunc("/api/dashboard/recent-sales", a.requireAuth(a.handleRecentSales, "admin"))
	mux.HandleFunc("/api/analytics/customer-insights", a.requireAuth(a.handleCustomerInsights, "admin"))
	mux.HandleFunc("/api/analytics/product-performance", a.requireAuth(a.handleProductPerformance, "admin"))
	mux.HandleFunc("/api/analytics/sales-forecast", a.requireAuth(a.handleSalesForecast, "admin"))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"access_token": resp.AccessToken,
		"role":         resp.Role,
		"expires_at":   resp.ExpiresAt,
	})
}

func (a *API) handlePublicProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	products, err := a.service.ListProducts(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handlePublicVariants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	variants, err := a.service.ListVariants(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"variants": variants})
}

func (a *API) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.OrderSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	order, err := a.service.SubmitOrder(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("Order %s placed successfully! Total: %s", order.ID, domain.FormatKES(order.TotalCents)),
		"order_id": order.ID,
		"order":    order,
	})
}

func (a *API) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	msg, err := a.service.SubmitContactMessage(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"message":    "Thank you for reaching out. We will get back to you shortly.",
		"message_id": msg.ID,
	})
}

func (a *API) handleNewsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.NewsletterSubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sub, err := a.service.SubscribeNewsletter(r.Context(), req.Email)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Subscribed to the newsletter.",
		"email":   sub.Email,
	})
}

func (a *API) handleNewsletterUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	token := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/newsletter/unsubscribe/"), "/"))
	if token == "" {
		writeError(w, http.StatusBadRequest, errors.New("unsubscribe token required"))
		return
	}

	if err := a.service.UnsubscribeNewsletter(r.Context(), token); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "You have been unsubscribed from the newsletter.",
	})
}

func (a *API) handleTestimonials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		testimonials, err := a.service.ListApprovedTestimonials(r.Context())
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"testimonials": testimonials})
	case http.MethodPost:
		var req domain.TestimonialCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		testimonial, err := a.service.SubmitTestimonial(r.Context(), req)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusCreated, map[string]any{
			"message":     "Thank you! Your testimonial is pending review.",
			"testimonial": testimonial,
		})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleFAQs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	faqs, err := a.service.ListFAQs(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"faqs": faqs})
}

func (a *API) handleManualSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.ManualSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sale, err := a.service.RecordOfflineSale(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Sale recorded successfully. Total: %s", domain.FormatKES(sale.TotalCents)),
		"sale_id": sale.ID,
		"sale":    sale,
	})
}

func (a *API) handleRestock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	newLevel, err := a.service.Restock(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message":         fmt.Sprintf("Stock updated successfully. New stock level: %d", newLevel),
		"new_stock_level": newLevel,
	})
}

func (a *API) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.service.ListProducts(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("category"))
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAdminProductActions(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/admin/products/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(r.Context(), id)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodPut:
		var req domain.ProductUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.UpdateProduct(r.Context(), id, req)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodDelete:
		if err := a.service.DeleteProduct(r.Context(), id); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"message": "Product deleted successfully."})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAdminVariants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		variants, err := a.service.ListAllVariants(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("category"))
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"variants": variants})
	case http.MethodPost:
		var req domain.VariantCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		variant, err := a.service.CreateVariant(r.Context(), req)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusCreated, map[string]any{"variant": variant})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAdminVariantActions(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/admin/product-variants/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("variant id required"))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.VariantUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		variant, err := a.service.UpdateVariant(r.Context(), id, req)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"variant": variant})
	case http.MethodDelete:
		if err := a.service.DeleteVariant(r.Context(), id); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"message": "Variant deleted successfully."})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	orders, err := a.service.ListOrders(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleAdminOrderActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/admin/orders/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("order id required"))
		return
	}

	if strings.HasSuffix(tail, "/payment-status") {
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		id := strings.Trim(strings.TrimSuffix(tail, "/payment-status"), "/")
		var req domain.PaymentStatusUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		order, err := a.service.UpdateOrderPaymentStatus(r.Context(), id, req.PaymentStatus)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"order": order})
		return
	}

	switch r.Method {
	case http.MethodGet:
		order, err := a.service.GetOrder(r.Context(), tail)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"order": order})
	case http.MethodDelete:
		if err := a.service.DeleteOrder(r.Context(), tail); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"message": "Order deleted successfully."})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAdminSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	sales, err := a.service.ListOfflineSales(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleAdminSaleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	id := pathTail(r.URL.Path, "/api/admin/sales/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("sale id required"))
		return
	}
	if err := a.service.DeleteOfflineSale(r.Context(), id); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Sale deleted successfully."})
}

func (a *API) handleAdminTestimonials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	testimonials, err := a.service.ListAllTestimonials(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"testimonials": testimonials})
}

func (a *API) handleAdminTestimonialActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/admin/testimonials/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("testimonial id required"))
		return
	}

	if strings.HasSuffix(tail, "/approve") {
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		id := strings.Trim(strings.TrimSuffix(tail, "/approve"), "/")
		testimonial, err := a.service.ApproveTestimonial(r.Context(), id)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"testimonial": testimonial})
		return
	}

	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	if err := a.service.DeleteTestimonial(r.Context(), tail); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Testimonial deleted successfully."})
}

func (a *API) handleAdminFAQs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.FAQRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	faq, err := a.service.CreateFAQ(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"faq": faq})
}

func (a *API) handleAdminFAQActions(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/admin/faqs/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("faq id required"))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.FAQRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		faq, err := a.service.UpdateFAQ(r.Context(), id, req)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"faq": faq})
	case http.MethodDelete:
		if err := a.service.DeleteFAQ(r.Context(), id); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"message": "FAQ deleted successfully."})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAdminContacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	messages, err := a.service.ListContactMessages(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"messages": messages})
}

func (a *API) handleAdminContactActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/admin/contact-messages/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("message id required"))
		return
	}

	if strings.HasSuffix(tail, "/read") {
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		id := strings.Trim(strings.TrimSuffix(tail, "/read"), "/")
		msg, err := a.service.MarkContactMessageRead(r.Context(), id)
		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"contact_message": msg})
		return
	}

	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	if err := a.service.DeleteContactMessage(r.Context(), tail); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Contact message deleted successfully."})
}

func (a *API) handleAdminSubscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	subscribers, err := a.service.ListNewsletterSubscribers(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"subscribers": subscribers})
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeSuccess(w, http.StatusOK, map[string]any{"users": a.auth.ListAdmins()})
	case http.MethodPost:
		var req domain.AdminUserCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		user, err := a.auth.CreateAdmin(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeSuccess(w, http.StatusCreated, map[string]any{"user": user})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAdminUserActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/admin/users/")
	if !strings.HasSuffix(tail, "/password") {
		writeError(w, http.StatusBadRequest, errors.New("unknown user action"))
		return
	}
	if r.Method != http.MethodPut {
		writeMethodNotAllowed(w)
		return
	}
	username := strings.Trim(strings.TrimSuffix(tail, "/password"), "/")
	if username == "" {
		writeError(w, http.StatusBadRequest, errors.New("username required"))
		return
	}

	var req domain.PasswordUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.auth.UpdatePassword(username, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Password updated successfully."})
}

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	stats, err := a.reports.DashboardStats(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

func (a *API) handleSalesTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	days := parsePositiveLimit(r.URL.Query().Get("days"), 7, 90)
	trend, err := a.reports.SalesTrend(r.Context(), days)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"labels": trend.Labels, "data": trend.Data})
}

func (a *API) handleStockLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	threshold := parsePositiveLimit(r.URL.Query().Get("threshold"), a.reports.LowStockThreshold(), 1000)
	levels, err := a.reports.StockLevels(r.Context(), threshold)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"labels":          levels.Labels,
		"data":            levels.Data,
		"low_stock_items": levels.LowStockItems,
	})
}

func (a *API) handleRecentOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 10, 100)
	orders, err := a.service.ListOrders(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleRecentSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 10, 100)
	sales, err := a.service.ListOfflineSales(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleCustomerInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 10, 100)
	insights, err := a.reports.CustomerInsights(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"insights": insights})
}

func (a *API) handleProductPerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 10, 100)
	performance, err := a.reports.ProductPerformance(r.Context(), limit)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"performance": performance})
}

func (a *API) handleSalesForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	forecast, err := a.reports.SalesForecast(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"forecast": forecast})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func pathTail(path string, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(strings.TrimPrefix(path, prefix), "/"))
}

// errorStatus maps domain errors to HTTP status codes. Stock shortfalls are
// client errors: the cart asked for more than the shop has.
func errorStatus(err error) int {
	var stockErr *store.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrEmptyCart),
		errors.Is(err, store.ErrInvalidQuantity),
		errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case strings.Contains(strings.ToLower(err.Error()), "admin role required"):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 4xx messages are user-facing; 5xx detail stays in the log so SQL
	// errors and file paths never reach the client.
	msg := err.Error()
	var stockErr *store.InsufficientStockError
	if errors.As(err, &stockErr) {
		msg = fmt.Sprintf("Insufficient stock for %s (%s). Available: %d, Requested: %d",
			stockErr.ProductName, stockErr.VariantInfo, stockErr.Available, stockErr.Requested)
	}
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": msg,
	})
}

func writeSuccess(w http.ResponseWriter, status int, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["status"] = "success"
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
