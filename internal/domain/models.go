package domain

import "time"

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Description string           `json:"description,omitempty"`
	ImageURL    string           `json:"image_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Variants    []ProductVariant `json:"variants,omitempty"`
}

type ProductVariant struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	QuantityValue     float64    `json:"quantity_value"`
	QuantityUnit      string     `json:"quantity_unit"`
	SellingPriceCents int64      `json:"-"`
	BuyingPriceCents  *int64     `json:"-"`
	SellingPrice      float64    `json:"selling_price"`
	BuyingPrice       *float64   `json:"buying_price,omitempty"`
	StockLevel        int        `json:"stock_level"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	Supplier          string     `json:"supplier,omitempty"`
}

// VariantSummary is the flattened shape served on variant listings:
// one row per purchasable packaging, with its parent product's identity.
type VariantSummary struct {
	VariantID    string  `json:"variant_id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Category     string  `json:"category"`
	VariantInfo  string  `json:"variant_info"`
	SellingPrice float64 `json:"selling_price"`
	StockLevel   int     `json:"stock_level"`
	Supplier     string  `json:"supplier,omitempty"`
}

type ProductCreateRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type ProductUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

type VariantCreateRequest struct {
	ProductID     string   `json:"product_id"`
	QuantityValue float64  `json:"quantity_value"`
	QuantityUnit  string   `json:"quantity_unit"`
	SellingPrice  float64  `json:"selling_price"`
	BuyingPrice   *float64 `json:"buying_price,omitempty"`
	StockLevel    int      `json:"stock_level"`
	ExpiryDate    string   `json:"expiry_date,omitempty"`
	Supplier      string   `json:"supplier,omitempty"`
}

type VariantUpdateRequest struct {
	QuantityValue *float64 `json:"quantity_value,omitempty"`
	QuantityUnit  *string  `json:"quantity_unit,omitempty"`
	SellingPrice  *float64 `json:"selling_price,omitempty"`
	BuyingPrice   *float64 `json:"buying_price,omitempty"`
	ExpiryDate    *string  `json:"expiry_date,omitempty"`
	Supplier      *string  `json:"supplier,omitempty"`
}

type OrderLine struct {
	ProductVariantID string  `json:"product_variant_id"`
	Quantity         int     `json:"quantity"`
	SellingPrice     float64 `json:"selling_price"`
}

type OrderSubmitRequest struct {
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	Items           []OrderLine `json:"items"`
}

type OrderItem struct {
	ID               string  `json:"id"`
	OrderID          string  `json:"order_id"`
	ProductVariantID string  `json:"product_variant_id"`
	ProductName      string  `json:"product_name"`
	VariantInfo      string  `json:"variant_info"`
	Quantity         int     `json:"quantity"`
	PriceCents       int64   `json:"-"`
	PriceAtPurchase  float64 `json:"price_at_purchase"`
}

type Order struct {
	ID              string      `json:"id"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	TotalCents      int64       `json:"-"`
	TotalAmount     float64     `json:"total_amount"`
	PaymentStatus   string      `json:"payment_status"`
	OrderedAt       time.Time   `json:"ordered_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

type SaleLine struct {
	ProductVariantID string  `json:"product_variant_id"`
	Quantity         int     `json:"quantity"`
	Price            float64 `json:"price"`
}

type ManualSaleRequest struct {
	CustomerName string     `json:"customer_name,omitempty"`
	TotalCost    float64    `json:"total_cost"`
	AmountPaid   float64    `json:"amount_paid"`
	ChangeGiven  float64    `json:"change_given"`
	PaymentMode  string     `json:"payment_mode"`
	Items        []SaleLine `json:"items"`
}

type OfflineSaleItem struct {
	ID               string  `json:"id"`
	SaleID           string  `json:"sale_id"`
	ProductVariantID string  `json:"product_variant_id"`
	ProductName      string  `json:"product_name"`
	VariantInfo      string  `json:"variant_info"`
	Quantity         int     `json:"quantity"`
	PriceCents       int64   `json:"-"`
	PriceAtSale      float64 `json:"price_at_sale"`
}

type OfflineSale struct {
	ID               string            `json:"id"`
	CustomerName     string            `json:"customer_name,omitempty"`
	TotalCents       int64             `json:"-"`
	TotalCost        float64           `json:"total_cost"`
	AmountPaidCents  int64             `json:"-"`
	AmountPaid       float64           `json:"amount_paid"`
	ChangeGivenCents int64             `json:"-"`
	ChangeGiven      float64           `json:"change_given"`
	PaymentMode      string            `json:"payment_mode"`
	SaleDate         time.Time         `json:"sale_date"`
	Items            []OfflineSaleItem `json:"items,omitempty"`
}

type RestockRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type Testimonial struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

type TestimonialCreateRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type FAQRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type NewsletterSubscriber struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	UnsubscribeToken string    `json:"-"`
	Active           bool      `json:"active"`
	SubscribedAt     time.Time `json:"subscribed_at"`
}

type NewsletterSubscribeRequest struct {
	Email string `json:"email"`
}

type PaymentStatusUpdateRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type PasswordUpdateRequest struct {
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type AdminUserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type SalesStats struct {
	TotalOrders         int64   `json:"total_orders"`
	MonthlyOrders       int64   `json:"monthly_orders"`
	TotalOfflineSales   int64   `json:"total_offline_sales"`
	MonthlyOfflineSales int64   `json:"monthly_offline_sales"`
	TotalRevenue        float64 `json:"total_revenue"`
	MonthlyRevenue      float64 `json:"monthly_revenue"`
}

type InventoryStats struct {
	TotalProducts    int64 `json:"total_products"`
	TotalVariants    int64 `json:"total_variants"`
	LowStockVariants int64 `json:"low_stock_variants"`
}

type AccountingStats struct {
	GrossProfit        float64 `json:"gross_profit"`
	MonthlyGrossProfit float64 `json:"monthly_gross_profit"`
	NetProfit          float64 `json:"net_profit"`
	MonthlyNetProfit   float64 `json:"monthly_net_profit"`
	ProfitMargin       float64 `json:"profit_margin"`
}

type DashboardStats struct {
	Sales      SalesStats      `json:"sales"`
	Inventory  InventoryStats  `json:"inventory"`
	Accounting AccountingStats `json:"accounting"`
}

type SalesTrend struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type LowStockItem struct {
	ProductName  string  `json:"product_name"`
	VariantInfo  string  `json:"variant_info"`
	StockLevel   int     `json:"stock_level"`
	SellingPrice float64 `json:"selling_price"`
}

type StockLevels struct {
	Labels        []string       `json:"labels"`
	Data          []int          `json:"data"`
	LowStockItems []LowStockItem `json:"low_stock_items"`
}

type CustomerSummary struct {
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	OrderCount    int64   `json:"order_count"`
	TotalSpent    float64 `json:"total_spent"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

type CustomerInsights struct {
	TopCustomers       []CustomerSummary `json:"top_customers"`
	ActiveCustomers30d int64             `json:"active_customers_30d"`
	ActiveCustomers90d int64             `json:"active_customers_90d"`
}

type ProductRevenue struct {
	ProductName string  `json:"product_name"`
	VariantInfo string  `json:"variant_info"`
	UnitsSold   int64   `json:"units_sold"`
	Revenue     float64 `json:"revenue"`
}

type CategoryRevenue struct {
	Category  string  `json:"category"`
	UnitsSold int64   `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
}

type ProductPerformance struct {
	TopProducts         []ProductRevenue  `json:"top_products"`
	CategoryPerformance []CategoryRevenue `json:"category_performance"`
	LowStockItems       []LowStockItem    `json:"low_stock_items"`
}

type SalesForecast struct {
	HistoryLabels  []string  `json:"history_labels"`
	HistoryData    []float64 `json:"history_data"`
	ForecastLabels []string  `json:"forecast_labels"`
	ForecastData   []float64 `json:"forecast_data"`
}

// Aggregate rows the store computes for the reporting engine. Revenue stays
// in cents here; the engine converts at the JSON boundary.
type SalesTotals struct {
	TotalOrders         int64
	MonthlyOrders       int64
	TotalOfflineSales   int64
	MonthlyOfflineSales int64
	TotalRevenueCents   int64
	MonthlyRevenueCents int64
}

type InventorySummary struct {
	Products int64
	Variants int64
	LowStock int64
}

type DailyRevenue struct {
	Date         time.Time
	RevenueCents int64
}

type CustomerTotals struct {
	Email      string
	Name       string
	OrderCount int64
	SpentCents int64
	LastOrder  time.Time
}

type ProductTotals struct {
	ProductName  string
	VariantInfo  string
	UnitsSold    int64
	RevenueCents int64
}

type CategoryTotals struct {
	Category     string
	UnitsSold    int64
	RevenueCents int64
}

const (
	CategoryFertilizer = "Fertilizer"
	CategoryPesticide  = "Pesticide"
	CategorySeed       = "Seed"
	CategoryFeed       = "Feed"
	CategoryOther      = "Other"
)

const (
	PaymentStatusPending   = "Pending"
	PaymentStatusPaid      = "Paid"
	PaymentStatusCancelled = "Cancelled"
	PaymentStatusRefunded  = "Refunded"
)

const (
	PaymentModeCash         = "Cash"
	PaymentModeMpesa        = "M-Pesa"
	PaymentModeCard         = "Card"
	PaymentModeBankTransfer = "Bank Transfer"
	PaymentModeOther        = "Other"
)

func ValidCategory(category string) bool {
	switch category {
	case CategoryFertilizer, CategoryPesticide, CategorySeed, CategoryFeed, CategoryOther:
		return true
	}
	return false
}

func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

func ValidPaymentMode(mode string) bool {
	switch mode {
	case PaymentModeCash, PaymentModeMpesa, PaymentModeCard, PaymentModeBankTransfer, PaymentModeOther:
		return true
	}
	return false
}
