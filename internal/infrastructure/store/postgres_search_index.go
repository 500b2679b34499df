package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/product-catalog/internal/catalog"
)

// PostgresSearchIndex implements IndexStore on a dedicated search table
// with a weighted tsvector column. Writes carry last-write-wins
// semantics keyed on updated_at so out-of-order sync retries never
// clobber newer data.
type PostgresSearchIndex struct {
	db *sql.DB
}

func NewPostgresSearchIndex(db *sql.DB) *PostgresSearchIndex {
	return &PostgresSearchIndex{db: db}
}

func (s *PostgresSearchIndex) Put(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_products (id, name, description, brand, category_id, category_name, price, stock_quantity, image_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			category_id = EXCLUDED.category_id,
			category_name = EXCLUDED.category_name,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			image_url = EXCLUDED.image_url,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		WHERE search_products.updated_at <= EXCLUDED.updated_at
	`, p.ID, p.Name, p.Description, p.Brand, nullString(p.CategoryID), p.CategoryName,
		p.Price, p.StockQuantity, nullString(p.ImageURL), p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PostgresSearchIndex) Query(ctx context.Context, criteria catalog.SearchCriteria, page catalog.PageRequest) (*catalog.Page, error) {
	where, args := buildSearchWhere(criteria)

	countQuery := `SELECT COUNT(*) FROM search_products ` + where
	var total int64
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	order := orderClause(page)
	if criteria.Keyword != "" {
		// Rank full-text matches by relevance instead of the
		// requested sort order.
		order = fmt.Sprintf("ORDER BY ts_rank(search_vector, plainto_tsquery('english', $%d)) DESC", keywordArgIndex(args, criteria.Keyword))
	}

	query := fmt.Sprintf(
		`SELECT `+productColumns+` FROM search_products %s %s LIMIT $%d OFFSET $%d`,
		where, order, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Page*page.Size)

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func buildSearchWhere(criteria catalog.SearchCriteria) (string, []any) {
	conditions := []string{"active = true"}
	var args []any

	if criteria.Keyword != "" {
		args = append(args, criteria.Keyword)
		conditions = append(conditions, fmt.Sprintf("search_vector @@ plainto_tsquery('english', $%d)", len(args)))
	}
	if criteria.CategoryID != "" {
		args = append(args, criteria.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if criteria.Brand != "" {
		args = append(args, criteria.Brand)
		conditions = append(conditions, fmt.Sprintf("brand = $%d", len(args)))
	}
	if criteria.MinPrice > 0 {
		args = append(args, criteria.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if criteria.MaxPrice > 0 {
		args = append(args, criteria.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}
	if criteria.MaxStock != nil {
		args = append(args, *criteria.MaxStock)
		conditions = append(conditions, fmt.Sprintf("stock_quantity <= $%d", len(args)))
	}
	if criteria.ExcludeID != "" {
		args = append(args, criteria.ExcludeID)
		conditions = append(conditions, fmt.Sprintf("id <> $%d", len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func keywordArgIndex(args []any, keyword string) int {
	for i, a := range args {
		if s, ok := a.(string); ok && s == keyword {
			return i + 1
		}
	}
	return 1
}
