package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"storefront-service/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements Store using PostgreSQL. Nested document fields
// (product images, order customer and items) live in JSONB columns.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a connection pool for dsn and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: OpenPostgres failed to open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: OpenPostgres failed to ping: %w", err)
	}
	return NewPostgresStore(db), nil
}

// Migrate applies the storefront schema. It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: Migrate failed: %w", err)
	}
	return nil
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const productColumns = `id, name, selling_price, original_price, description, category, images, created_at`

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var images []byte
	if err := row.Scan(&p.ID, &p.Name, &p.SellingPrice, &p.OriginalPrice, &p.Description, &p.Category, &images, &p.CreatedAt); err != nil {
		return p, err
	}
	p.Images = []domain.ProductImage{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return p, fmt.Errorf("decode images: %w", err)
		}
	}
	return p, nil
}

func marshalImages(images []domain.ProductImage) ([]byte, error) {
	if images == nil {
		images = []domain.ProductImage{}
	}
	return json.Marshal(images)
}

// --- ProductStorer Implementation ---

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO storefront.products (id, name, selling_price, original_price, description, category, images, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + productColumns + `;
	`
	images, err := marshalImages(product.Images)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to encode images: %w", err)
	}
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := s.db.QueryRowContext(ctx, query,
		uuid.NewString(), product.Name, product.SellingPrice, product.OriginalPrice,
		product.Description, product.Category, images, createdAt,
	)
	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + productColumns + ` FROM storefront.products WHERE id = $1;`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if checkUUID(id) == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []domain.Product{}, nil
	}
	query := `SELECT ` + productColumns + ` FROM storefront.products WHERE id = ANY($1);`
	return s.queryProducts(ctx, "GetProductsByIDs", query, pq.Array(valid))
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) {
	var args []any
	where := ""
	if params.Category != "" {
		where = " WHERE category = $1"
		args = append(args, params.Category)
	}
	query := `SELECT ` + productColumns + ` FROM storefront.products` + where + ` ORDER BY name ASC;`
	return s.queryProducts(ctx, "ListProducts", query, args...)
}

func (s *PostgresStore) queryProducts(ctx context.Context, op, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: %s failed to query products: %w", op, err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: %s failed to scan product row: %w", op, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: %s iteration error: %w", op, err)
	}
	return products, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	var setClauses []string
	var args []any
	argID := 1
	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}
	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.SellingPrice != nil {
		set("selling_price", *update.SellingPrice)
	}
	if update.OriginalPrice != nil {
		set("original_price", *update.OriginalPrice)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.Category != nil {
		set("category", *update.Category)
	}
	if update.Images != nil {
		images, err := marshalImages(update.Images)
		if err != nil {
			return nil, fmt.Errorf("store: UpdateProduct failed to encode images: %w", err)
		}
		set("images", images)
	}
	if len(setClauses) == 0 {
		return s.GetProductByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE storefront.products SET %s WHERE id = $%d RETURNING %s;`,
		strings.Join(setClauses, ", "), argID, productColumns)
	args = append(args, id)

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	query := `DELETE FROM storefront.products WHERE id = $1 RETURNING ` + productColumns + `;`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) DistinctCategories(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT category FROM storefront.products WHERE category <> '';`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: DistinctCategories failed to query: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: DistinctCategories failed to scan row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: DistinctCategories iteration error: %w", err)
	}
	return names, nil
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name, order_index
		FROM storefront.categories
		ORDER BY order_index ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.OrderIndex); err != nil {
			return nil, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `SELECT id, name, order_index FROM storefront.categories WHERE name = $1 LIMIT 1;`
	var c domain.Category
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&c.ID, &c.Name, &c.OrderIndex); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: FindCategoryByName failed to scan row: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM storefront.categories;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: CountCategories failed: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO storefront.categories (id, name, order_index)
		VALUES ($1, $2, $3)
		RETURNING id, name, order_index;
	`
	var c domain.Category
	err := s.db.QueryRowContext(ctx, query, uuid.NewString(), category.Name, category.OrderIndex).Scan(&c.ID, &c.Name, &c.OrderIndex)
	if err != nil {
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) SetCategoryOrder(ctx context.Context, id string, orderIndex int) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `UPDATE storefront.categories SET order_index = $1 WHERE id = $2;`, orderIndex, id)
	if err != nil {
		return fmt.Errorf("store: SetCategoryOrder failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: SetCategoryOrder failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// --- OrderStorer Implementation ---

const orderColumns = `id, customer, items, total_amount, status, created_at`

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var customer, items []byte
	var status string
	if err := row.Scan(&o.ID, &customer, &items, &o.TotalAmount, &status, &o.CreatedAt); err != nil {
		return o, err
	}
	o.Status = domain.OrderStatus(status)
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return o, fmt.Errorf("decode customer: %w", err)
	}
	o.Items = []domain.OrderItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return o, fmt.Errorf("decode items: %w", err)
		}
	}
	return o, nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	for _, it := range order.Items {
		if err := checkUUID(it.ProductID); err != nil {
			return nil, err
		}
	}
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to encode customer: %w", err)
	}
	itemList := order.Items
	if itemList == nil {
		itemList = []domain.OrderItem{}
	}
	items, err := json.Marshal(itemList)
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to encode items: %w", err)
	}
	status := order.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO storefront.orders (id, customer, items, total_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + orderColumns + `;
	`
	created, err := scanOrder(s.db.QueryRowContext(ctx, query,
		uuid.NewString(), customer, items, order.TotalAmount, string(status), createdAt))
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + orderColumns + ` FROM storefront.orders WHERE id = $1;`
	o, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: GetOrderByID failed to scan row: %w", err)
	}
	return &o, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM storefront.orders ORDER BY created_at DESC;`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListOrders failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListOrders failed to scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListOrders iteration error: %w", err)
	}
	return orders, nil
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	query := `UPDATE storefront.orders SET status = $1 WHERE id = $2 RETURNING ` + orderColumns + `;`
	o, err := scanOrder(s.db.QueryRowContext(ctx, query, string(status), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: UpdateOrderStatus failed to scan row: %w", err)
	}
	return &o, nil
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM storefront.orders WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("store: DeleteOrder failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteOrder failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
