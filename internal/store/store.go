package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kaboyagrovet/backend/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyCart       = errors.New("empty cart")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidInput    = errors.New("invalid input")
)

// InsufficientStockError reports a failed stock reservation with enough
// detail to build the customer-facing message. It aborts the whole unit of
// work it occurred in; no partial decrement survives it.
type InsufficientStockError struct {
	VariantID   string
	ProductName string
	VariantInfo string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): available %d, requested %d",
		e.ProductName, e.VariantInfo, e.Available, e.Requested)
}

type Repository interface {
	ListProducts(ctx context.Context, search string, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListVariants(ctx context.Context, search string, category string, includeOutOfStock bool) ([]domain.VariantSummary, error)
	GetVariant(ctx context.Context, id string) (*domain.ProductVariant, error)
	CreateVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error)
	UpdateVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error)
	DeleteVariant(ctx context.Context, id string) error
	RestockVariant(ctx context.Context, id string, qty int) (int, error)

	// CreateOrder and CreateOfflineSale reserve stock for every line and
	// persist the aggregate plus its items in one atomic unit. Either the
	// whole cart commits or nothing does.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, limit int) ([]domain.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, id string, status string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error

	CreateOfflineSale(ctx context.Context, sale domain.OfflineSale) (*domain.OfflineSale, error)
	ListOfflineSales(ctx context.Context, limit int) ([]domain.OfflineSale, error)
	DeleteOfflineSale(ctx context.Context, id string) error

	GetSalesTotals(ctx context.Context, asOf time.Time) (domain.SalesTotals, error)
	GetInventorySummary(ctx context.Context, lowStockThreshold int) (domain.InventorySummary, error)
	GetDailyRevenue(ctx context.Context, from time.Time, to time.Time) ([]domain.DailyRevenue, error)
	ListLowStockVariants(ctx context.Context, threshold int) ([]domain.VariantSummary, error)
	GetTopCustomers(ctx context.Context, limit int) ([]domain.CustomerTotals, error)
	CountActiveCustomers(ctx context.Context, since time.Time) (int64, error)
	GetTopProducts(ctx context.Context, limit int) ([]domain.ProductTotals, error)
	GetCategoryPerformance(ctx context.Context) ([]domain.CategoryTotals, error)

	CreateTestimonial(ctx context.Context, testimonial domain.Testimonial) (*domain.Testimonial, error)
	ListTestimonials(ctx context.Context, approvedOnly bool) ([]domain.Testimonial, error)
	ApproveTestimonial(ctx context.Context, id string) (*domain.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error

	CreateFAQ(ctx context.Context, faq domain.FAQ) (*domain.FAQ, error)
	ListFAQs(ctx context.Context) ([]domain.FAQ, error)
	UpdateFAQ(ctx context.Context, faq domain.FAQ) (*domain.FAQ, error)
	DeleteFAQ(ctx context.Context, id string) error

	CreateContactMessage(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error)
	ListContactMessages(ctx context.Context, limit int) ([]domain.ContactMessage, error)
	MarkContactMessageRead(ctx context.Context, id string) (*domain.ContactMessage, error)
	DeleteContactMessage(ctx context.Context, id string) error

	UpsertNewsletterSubscriber(ctx context.Context, email string, token string) (*domain.NewsletterSubscriber, error)
	UnsubscribeNewsletter(ctx context.Context, token string) error
	ListNewsletterSubscribers(ctx context.Context) ([]domain.NewsletterSubscriber, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
