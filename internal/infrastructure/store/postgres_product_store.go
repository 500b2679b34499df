package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/example/product-catalog/internal/catalog"
)

// PostgresProductStore implements ProductStore on PostgreSQL.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = `id, name, description, brand, category_id, category_name, price, stock_quantity, image_url, active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*catalog.Product, error) {
	var p catalog.Product
	var categoryID, imageURL sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Brand, &categoryID, &p.CategoryName,
		&p.Price, &p.StockQuantity, &imageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = categoryID.String
	p.ImageURL = imageURL.String
	return &p, nil
}

func (s *PostgresProductStore) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PostgresProductStore) GetByIDs(ctx context.Context, ids []string) ([]*catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresProductStore) Save(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, brand, category_id, category_name, price, stock_quantity, image_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			category_id = EXCLUDED.category_id,
			category_name = EXCLUDED.category_name,
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Description, p.Brand, nullString(p.CategoryID), p.CategoryName,
		p.Price, p.StockQuantity, nullString(p.ImageURL), p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

// AdjustStock applies the delta with the guard in the UPDATE itself, so
// concurrent adjustments from other processes can never drive the quantity
// negative regardless of in-process locking.
func (s *PostgresProductStore) AdjustStock(ctx context.Context, id string, delta int, updatedAt time.Time) (*catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = $2
		WHERE id = $3 AND stock_quantity + $1 >= 0
		RETURNING `+productColumns,
		delta, updatedAt, id)

	p, err := scanProduct(row)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// No row updated: distinguish a missing product from a guard failure.
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, catalog.ErrInsufficientStock
}

func (s *PostgresProductStore) ListActive(ctx context.Context, page catalog.PageRequest) (*catalog.Page, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE active = true`).Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE active = true ` +
		orderClause(page) + ` LIMIT $1 OFFSET $2`
	rows, err := s.db.QueryContext(ctx, query, page.Size, page.Page*page.Size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return catalog.NewPage(products, page.Page, page.Size, total), nil
}

func (s *PostgresProductStore) Brands(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT brand FROM products WHERE active = true AND brand <> '' ORDER BY brand`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// sortColumns whitelists API sort fields against real columns. Anything
// else falls back to created_at.
var sortColumns = map[string]string{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"name":          "name",
	"price":         "price",
	"stockQuantity": "stock_quantity",
}

func orderClause(page catalog.PageRequest) string {
	column, ok := sortColumns[page.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if page.SortDir == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ConnectPostgres establishes a pooled connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
