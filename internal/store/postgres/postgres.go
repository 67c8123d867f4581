package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kaboyagrovet/backend/internal/domain"
	"kaboyagrovet/backend/internal/store"
	"kaboyagrovet/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS product_variants (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			quantity_value DOUBLE PRECISION NOT NULL,
			quantity_unit TEXT NOT NULL,
			selling_price_cents BIGINT NOT NULL,
			buying_price_cents BIGINT,
			stock_level INTEGER NOT NULL DEFAULT 0 CHECK (stock_level >= 0),
			expiry_date DATE,
			supplier TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			customer_phone TEXT NOT NULL,
			delivery_address TEXT NOT NULL,
			total_cents BIGINT NOT NULL,
			payment_status TEXT NOT NULL DEFAULT 'Pending',
			ordered_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_variant_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			variant_info TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price_cents BIGINT NOT NULL CHECK (price_cents >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS offline_sales (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL DEFAULT '',
			total_cents BIGINT NOT NULL,
			amount_paid_cents BIGINT NOT NULL,
			change_given_cents BIGINT NOT NULL,
			payment_mode TEXT NOT NULL,
			sale_date TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS offline_sale_items (
			id TEXT PRIMARY KEY,
			sale_id TEXT NOT NULL REFERENCES offline_sales(id) ON DELETE CASCADE,
			product_variant_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			variant_info TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price_cents BIGINT NOT NULL CHECK (price_cents >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS testimonials (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			message TEXT NOT NULL,
			approved BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS faqs (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS newsletter_subscribers (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			unsubscribe_token TEXT NOT NULL UNIQUE,
			active BOOLEAN NOT NULL DEFAULT true,
			subscribed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_variants_product ON product_variants(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ordered_at ON orders(ordered_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON offline_sales(sale_date)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON offline_sale_items(sale_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, search string, category string) ([]domain.Product, error) {
	query := `
		SELECT id, name, category, description, image_url, created_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		ORDER BY category, name
	`
	rows, err := s.db.QueryContext(ctx, query, strings.TrimSpace(search), category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	index := make(map[string]int)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	variantRows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity_value, quantity_unit, selling_price_cents, buying_price_cents,
		       stock_level, expiry_date, supplier
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, quantity_value
	`, ids)
	if err != nil {
		return nil, err
	}
	defer variantRows.Close()

	for variantRows.Next() {
		v, err := scanVariant(variantRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	if err := variantRows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVariant(row rowScanner) (domain.ProductVariant, error) {
	var v domain.ProductVariant
	var buying sql.NullInt64
	var expiry sql.NullTime
	err := row.Scan(&v.ID, &v.ProductID, &v.QuantityValue, &v.QuantityUnit, &v.SellingPriceCents,
		&buying, &v.StockLevel, &expiry, &v.Supplier)
	if err != nil {
		return domain.ProductVariant{}, err
	}
	if buying.Valid {
		b := buying.Int64
		v.BuyingPriceCents = &b
	}
	if expiry.Valid {
		e := expiry.Time.UTC()
		v.ExpiryDate = &e
	}
	v.SyncAmounts()
	return v, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, description, image_url, created_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity_value, quantity_unit, selling_price_cents, buying_price_cents,
		       stock_level, expiry_date, supplier
		FROM product_variants WHERE product_id = $1
		ORDER BY quantity_value
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !domain.ValidCategory(product.Category) {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, description, image_url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, product.ID, product.Name, product.Category, product.Description, product.ImageURL, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !domain.ValidCategory(product.Category) {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = $2, category = $3, description = $4, image_url = $5
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.Description, product.ImageURL)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	// Variants go with the product (ON DELETE CASCADE); item rows keep
	// their snapshots so order history stays intact.
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListVariants(ctx context.Context, search string, category string, includeOutOfStock bool) ([]domain.VariantSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.product_id, p.name, p.category, v.quantity_value, v.quantity_unit,
		       v.selling_price_cents, v.stock_level, v.supplier
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR p.category = $2)
		  AND ($3 OR v.stock_level > 0)
		ORDER BY p.name, v.quantity_value
	`, strings.TrimSpace(search), category, includeOutOfStock)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVariantSummaries(rows)
}

func scanVariantSummaries(rows *sql.Rows) ([]domain.VariantSummary, error) {
	result := make([]domain.VariantSummary, 0, 64)
	for rows.Next() {
		var item domain.VariantSummary
		var qtyValue float64
		var qtyUnit string
		var priceCents int64
		err := rows.Scan(&item.VariantID, &item.ProductID, &item.ProductName, &item.Category,
			&qtyValue, &qtyUnit, &priceCents, &item.StockLevel, &item.Supplier)
		if err != nil {
			return nil, err
		}
		item.VariantInfo = domain.ProductVariant{QuantityValue: qtyValue, QuantityUnit: qtyUnit}.Info()
		item.SellingPrice = domain.FloatFromCents(priceCents)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetVariant(ctx context.Context, id string) (*domain.ProductVariant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, quantity_value, quantity_unit, selling_price_cents, buying_price_cents,
		       stock_level, expiry_date, supplier
		FROM product_variants WHERE id = $1
	`, id)
	v, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *Store) CreateVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error) {
	if variant.ProductID == "" || variant.QuantityValue <= 0 || variant.QuantityUnit == "" {
		return nil, store.ErrInvalidInput
	}
	if variant.SellingPriceCents < 0 || variant.StockLevel < 0 {
		return nil, store.ErrInvalidInput
	}
	if variant.ID == "" {
		variant.ID = xid.New("var")
	}

	var buying any
	if variant.BuyingPriceCents != nil {
		buying = *variant.BuyingPriceCents
	}
	var expiry any
	if variant.ExpiryDate != nil {
		expiry = *variant.ExpiryDate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_variants
			(id, product_id, quantity_value, quantity_unit, selling_price_cents, buying_price_cents,
			 stock_level, expiry_date, supplier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, variant.ID, variant.ProductID, variant.QuantityValue, variant.QuantityUnit,
		variant.SellingPriceCents, buying, variant.StockLevel, expiry, variant.Supplier)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	variant.SyncAmounts()
	created := variant
	return &created, nil
}

func (s *Store) UpdateVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error) {
	if variant.QuantityValue <= 0 || variant.QuantityUnit == "" || variant.SellingPriceCents < 0 {
		return nil, store.ErrInvalidInput
	}

	var buying any
	if variant.BuyingPriceCents != nil {
		buying = *variant.BuyingPriceCents
	}
	var expiry any
	if variant.ExpiryDate != nil {
		expiry = *variant.ExpiryDate
	}
	// stock_level is deliberately not touched here; it belongs to
	// reserve/restock.
	res, err := s.db.ExecContext(ctx, `
		UPDATE product_variants
		SET quantity_value = $2, quantity_unit = $3, selling_price_cents = $4,
		    buying_price_cents = $5, expiry_date = $6, supplier = $7
		WHERE id = $1
	`, variant.ID, variant.QuantityValue, variant.QuantityUnit, variant.SellingPriceCents,
		buying, expiry, variant.Supplier)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetVariant(ctx, variant.ID)
}

func (s *Store) DeleteVariant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RestockVariant(ctx context.Context, id string, qty int) (int, error) {
	if qty < 1 {
		return 0, store.ErrInvalidQuantity
	}

	var newLevel int
	err := s.db.QueryRowContext(ctx, `
		UPDATE product_variants
		SET stock_level = stock_level + $2
		WHERE id = $1
		RETURNING stock_level
	`, id, qty).Scan(&newLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	return newLevel, nil
}

// reserveTx locks one variant row, verifies stock and applies the guarded
// decrement. Duplicate cart lines each pass through here, so a later line
// sees the stock left by earlier lines of the same transaction.
func reserveTx(ctx context.Context, tx *sql.Tx, variantID string, qty int) (productName string, variantInfo string, err error) {
	var stock int
	var qtyValue float64
	var qtyUnit string
	err = tx.QueryRowContext(ctx, `
		SELECT v.stock_level, v.quantity_value, v.quantity_unit, p.name
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1
		FOR UPDATE OF v
	`, variantID).Scan(&stock, &qtyValue, &qtyUnit, &productName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", fmt.Errorf("variant %s: %w", variantID, store.ErrNotFound)
		}
		return "", "", err
	}
	variantInfo = domain.ProductVariant{QuantityValue: qtyValue, QuantityUnit: qtyUnit}.Info()

	res, err := tx.ExecContext(ctx, `
		UPDATE product_variants
		SET stock_level = stock_level - $2
		WHERE id = $1 AND stock_level >= $2
	`, variantID, qty)
	if err != nil {
		return "", "", err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", "", err
	}
	if affected == 0 {
		return "", "", &store.InsufficientStockError{
			VariantID:   variantID,
			ProductName: productName,
			VariantInfo: variantInfo,
			Available:   stock,
			Requested:   qty,
		}
	}
	return productName, variantInfo, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if len(order.Items) == 0 {
		return nil, store.ErrEmptyCart
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for i := range order.Items {
		item := &order.Items[i]
		if item.Quantity < 1 || item.PriceCents < 0 {
			return nil, store.ErrInvalidInput
		}
		name, info, err := reserveTx(ctx, tx, item.ProductVariantID, item.Quantity)
		if err != nil {
			return nil, err
		}
		item.ProductName = name
		item.VariantInfo = info
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, customer_email, customer_phone, delivery_address,
			total_cents, payment_status, ordered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone, order.DeliveryAddress,
		order.TotalCents, order.PaymentStatus, order.OrderedAt)
	if err != nil {
		return nil, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = xid.New("itm")
		}
		item.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_variant_id, product_name, variant_info, quantity, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, item.ID, item.OrderID, item.ProductVariantID, item.ProductName, item.VariantInfo,
			item.Quantity, item.PriceCents)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	order.SyncAmounts()
	created := order
	return &created, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, customer_email, customer_phone, delivery_address,
		       total_cents, payment_status, ordered_at
		FROM orders WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
		&order.DeliveryAddress, &order.TotalCents, &order.PaymentStatus, &order.OrderedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	items, err := s.orderItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	order.SyncAmounts()
	return &order, nil
}

func (s *Store) orderItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_variant_id, product_name, variant_info, quantity, price_cents
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductVariantID, &item.ProductName,
			&item.VariantInfo, &item.Quantity, &item.PriceCents)
		if err != nil {
			return nil, err
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, customer_email, customer_phone, delivery_address,
		       total_cents, payment_status, ordered_at
		FROM orders
		ORDER BY ordered_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var order domain.Order
		err := rows.Scan(&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
			&order.DeliveryAddress, &order.TotalCents, &order.PaymentStatus, &order.OrderedAt)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := s.orderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		orders[i].SyncAmounts()
	}
	return orders, nil
}

func (s *Store) UpdateOrderPaymentStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	if !domain.ValidPaymentStatus(status) {
		return nil, store.ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetOrder(ctx, id)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateOfflineSale(ctx context.Context, sale domain.OfflineSale) (*domain.OfflineSale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrEmptyCart
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for i := range sale.Items {
		item := &sale.Items[i]
		if item.Quantity < 1 || item.PriceCents < 0 {
			return nil, store.ErrInvalidInput
		}
		name, info, err := reserveTx(ctx, tx, item.ProductVariantID, item.Quantity)
		if err != nil {
			return nil, err
		}
		item.ProductName = name
		item.VariantInfo = info
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO offline_sales (id, customer_name, total_cents, amount_paid_cents, change_given_cents, payment_mode, sale_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sale.ID, sale.CustomerName, sale.TotalCents, sale.AmountPaidCents, sale.ChangeGivenCents,
		sale.PaymentMode, sale.SaleDate)
	if err != nil {
		return nil, err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		if item.ID == "" {
			item.ID = xid.New("itm")
		}
		item.SaleID = sale.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO offline_sale_items (id, sale_id, product_variant_id, product_name, variant_info, quantity, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, item.ID, item.SaleID, item.ProductVariantID, item.ProductName, item.VariantInfo,
			item.Quantity, item.PriceCents)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sale.SyncAmounts()
	created := sale
	return &created, nil
}

func (s *Store) ListOfflineSales(ctx context.Context, limit int) ([]domain.OfflineSale, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, total_cents, amount_paid_cents, change_given_cents, payment_mode, sale_date
		FROM offline_sales
		ORDER BY sale_date DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.OfflineSale, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		var sale domain.OfflineSale
		err := rows.Scan(&sale.ID, &sale.CustomerName, &sale.TotalCents, &sale.AmountPaidCents,
			&sale.ChangeGivenCents, &sale.PaymentMode, &sale.SaleDate)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_variant_id, product_name, variant_info, quantity, price_cents
		FROM offline_sale_items WHERE sale_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	itemsBySale := make(map[string][]domain.OfflineSaleItem, len(ids))
	for itemRows.Next() {
		var item domain.OfflineSaleItem
		err := itemRows.Scan(&item.ID, &item.SaleID, &item.ProductVariantID, &item.ProductName,
			&item.VariantInfo, &item.Quantity, &item.PriceCents)
		if err != nil {
			return nil, err
		}
		itemsBySale[item.SaleID] = append(itemsBySale[item.SaleID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = itemsBySale[sales[i].ID]
		sales[i].SyncAmounts()
	}
	return sales, nil
}

func (s *Store) DeleteOfflineSale(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM offline_sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetSalesTotals(ctx context.Context, asOf time.Time) (domain.SalesTotals, error) {
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	var totals domain.SalesTotals

	var orderRevenue, monthlyOrderRevenue int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_cents), 0),
		       COUNT(*) FILTER (WHERE ordered_at >= $1),
		       COALESCE(SUM(total_cents) FILTER (WHERE ordered_at >= $1), 0)
		FROM orders
	`, monthStart).Scan(&totals.TotalOrders, &orderRevenue, &totals.MonthlyOrders, &monthlyOrderRevenue)
	if err != nil {
		return domain.SalesTotals{}, err
	}

	var saleRevenue, monthlySaleRevenue int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_cents), 0),
		       COUNT(*) FILTER (WHERE sale_date >= $1),
		       COALESCE(SUM(total_cents) FILTER (WHERE sale_date >= $1), 0)
		FROM offline_sales
	`, monthStart).Scan(&totals.TotalOfflineSales, &saleRevenue, &totals.MonthlyOfflineSales, &monthlySaleRevenue)
	if err != nil {
		return domain.SalesTotals{}, err
	}

	totals.TotalRevenueCents = orderRevenue + saleRevenue
	totals.MonthlyRevenueCents = monthlyOrderRevenue + monthlySaleRevenue
	return totals, nil
}

func (s *Store) GetInventorySummary(ctx context.Context, lowStockThreshold int) (domain.InventorySummary, error) {
	var summary domain.InventorySummary
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM products),
		       (SELECT COUNT(*) FROM product_variants),
		       (SELECT COUNT(*) FROM product_variants WHERE stock_level < $1)
	`, lowStockThreshold).Scan(&summary.Products, &summary.Variants, &summary.LowStock)
	if err != nil {
		return domain.InventorySummary{}, err
	}
	return summary, nil
}

func (s *Store) GetDailyRevenue(ctx context.Context, from time.Time, to time.Time) ([]domain.DailyRevenue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, SUM(revenue) FROM (
			SELECT date_trunc('day', ordered_at AT TIME ZONE 'UTC') AS day, total_cents AS revenue FROM orders
			UNION ALL
			SELECT date_trunc('day', sale_date AT TIME ZONE 'UTC') AS day, total_cents AS revenue FROM offline_sales
		) combined
		WHERE day >= $1 AND day <= $2
		GROUP BY day
		ORDER BY day
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.DailyRevenue, 0, 32)
	for rows.Next() {
		var entry domain.DailyRevenue
		if err := rows.Scan(&entry.Date, &entry.RevenueCents); err != nil {
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListLowStockVariants(ctx context.Context, threshold int) ([]domain.VariantSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.product_id, p.name, p.category, v.quantity_value, v.quantity_unit,
		       v.selling_price_cents, v.stock_level, v.supplier
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.stock_level < $1
		ORDER BY v.stock_level, p.name
	`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVariantSummaries(rows)
}

func (s *Store) GetTopCustomers(ctx context.Context, limit int) ([]domain.CustomerTotals, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT LOWER(customer_email),
		       (array_agg(customer_name ORDER BY ordered_at DESC))[1],
		       COUNT(*), SUM(total_cents), MAX(ordered_at)
		FROM orders
		GROUP BY LOWER(customer_email)
		ORDER BY SUM(total_cents) DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.CustomerTotals, 0, limit)
	for rows.Next() {
		var entry domain.CustomerTotals
		err := rows.Scan(&entry.Email, &entry.Name, &entry.OrderCount, &entry.SpentCents, &entry.LastOrder)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CountActiveCustomers(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT LOWER(customer_email)) FROM orders WHERE ordered_at >= $1
	`, since).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) GetTopProducts(ctx context.Context, limit int) ([]domain.ProductTotals, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_name, variant_info, SUM(quantity), SUM(quantity * price_cents)
		FROM (
			SELECT product_name, variant_info, quantity, price_cents FROM order_items
			UNION ALL
			SELECT product_name, variant_info, quantity, price_cents FROM offline_sale_items
		) combined
		GROUP BY product_name, variant_info
		ORDER BY SUM(quantity * price_cents) DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ProductTotals, 0, limit)
	for rows.Next() {
		var entry domain.ProductTotals
		err := rows.Scan(&entry.ProductName, &entry.VariantInfo, &entry.UnitsSold, &entry.RevenueCents)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetCategoryPerformance(ctx context.Context) ([]domain.CategoryTotals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(p.category, $1), SUM(combined.quantity), SUM(combined.quantity * combined.price_cents)
		FROM (
			SELECT product_variant_id, quantity, price_cents FROM order_items
			UNION ALL
			SELECT product_variant_id, quantity, price_cents FROM offline_sale_items
		) combined
		LEFT JOIN product_variants v ON v.id = combined.product_variant_id
		LEFT JOIN products p ON p.id = v.product_id
		GROUP BY COALESCE(p.category, $1)
		ORDER BY SUM(combined.quantity * combined.price_cents) DESC
	`, domain.CategoryOther)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.CategoryTotals, 0, 8)
	for rows.Next() {
		var entry domain.CategoryTotals
		if err := rows.Scan(&entry.Category, &entry.UnitsSold, &entry.RevenueCents); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateTestimonial(ctx context.Context, testimonial domain.Testimonial) (*domain.Testimonial, error) {
	if testimonial.Name == "" || testimonial.Message == "" {
		return nil, store.ErrInvalidInput
	}
	if testimonial.ID == "" {
		testimonial.ID = xid.New("tst")
	}
	if testimonial.CreatedAt.IsZero() {
		testimonial.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO testimonials (id, name, message, approved, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, testimonial.ID, testimonial.Name, testimonial.Message, testimonial.Approved, testimonial.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := testimonial
	return &created, nil
}

func (s *Store) ListTestimonials(ctx context.Context, approvedOnly bool) ([]domain.Testimonial, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, message, approved, created_at
		FROM testimonials
		WHERE $1 = false OR approved = true
		ORDER BY created_at DESC
	`, approvedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Testimonial, 0, 32)
	for rows.Next() {
		var t domain.Testimonial
		if err := rows.Scan(&t.ID, &t.Name, &t.Message, &t.Approved, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ApproveTestimonial(ctx context.Context, id string) (*domain.Testimonial, error) {
	var t domain.Testimonial
	err := s.db.QueryRowContext(ctx, `
		UPDATE testimonials SET approved = true WHERE id = $1
		RETURNING id, name, message, approved, created_at
	`, id).Scan(&t.ID, &t.Name, &t.Message, &t.Approved, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
}

func (s *Store) deleteByID(ctx context.Context, query string, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateFAQ(ctx context.Context, faq domain.FAQ) (*domain.FAQ, error) {
	if faq.Question == "" || faq.Answer == "" {
		return nil, store.ErrInvalidInput
	}
	if faq.ID == "" {
		faq.ID = xid.New("faq")
	}
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO faqs (id, question, answer, created_at) VALUES ($1,$2,$3,$4)
	`, faq.ID, faq.Question, faq.Answer, faq.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := faq
	return &created, nil
}

func (s *Store) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, created_at FROM faqs ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.FAQ, 0, 16)
	for rows.Next() {
		var f domain.FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateFAQ(ctx context.Context, faq domain.FAQ) (*domain.FAQ, error) {
	if faq.Question == "" || faq.Answer == "" {
		return nil, store.ErrInvalidInput
	}
	var updated domain.FAQ
	err := s.db.QueryRowContext(ctx, `
		UPDATE faqs SET question = $2, answer = $3 WHERE id = $1
		RETURNING id, question, answer, created_at
	`, faq.ID, faq.Question, faq.Answer).Scan(&updated.ID, &updated.Question, &updated.Answer, &updated.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteFAQ(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM faqs WHERE id = $1`, id)
}

func (s *Store) CreateContactMessage(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, store.ErrInvalidInput
	}
	if msg.ID == "" {
		msg.ID = xid.New("msg")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, msg.ID, msg.Name, msg.Email, msg.Subject, msg.Message, msg.Read, msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := msg
	return &created, nil
}

func (s *Store) ListContactMessages(ctx context.Context, limit int) ([]domain.ContactMessage, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, subject, message, read, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ContactMessage, 0, limit)
	for rows.Next() {
		var m domain.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) MarkContactMessageRead(ctx context.Context, id string) (*domain.ContactMessage, error) {
	var m domain.ContactMessage
	err := s.db.QueryRowContext(ctx, `
		UPDATE contact_messages SET read = true WHERE id = $1
		RETURNING id, name, email, subject, message, read, created_at
	`, id).Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Read, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) DeleteContactMessage(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
}

func (s *Store) UpsertNewsletterSubscriber(ctx context.Context, email string, token string) (*domain.NewsletterSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || token == "" {
		return nil, store.ErrInvalidInput
	}

	var sub domain.NewsletterSubscriber
	// Resubscribing reactivates but keeps the original token, so old
	// unsubscribe links stay valid.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO newsletter_subscribers (id, email, unsubscribe_token, active, subscribed_at)
		VALUES ($1,$2,$3,true,now())
		ON CONFLICT (email) DO UPDATE SET active = true
		RETURNING id, email, unsubscribe_token, active, subscribed_at
	`, xid.New("sub"), email, token).Scan(&sub.ID, &sub.Email, &sub.UnsubscribeToken, &sub.Active, &sub.SubscribedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) UnsubscribeNewsletter(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE newsletter_subscribers SET active = false WHERE unsubscribe_token = $1
	`, token)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListNewsletterSubscribers(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, unsubscribe_token, active, subscribed_at
		FROM newsletter_subscribers
		WHERE active = true
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.NewsletterSubscriber, 0, 64)
	for rows.Next() {
		var sub domain.NewsletterSubscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.UnsubscribeToken, &sub.Active, &sub.SubscribedAt); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at FROM users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
