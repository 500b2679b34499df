package store

import (
	"context"
	"database/sql"

	"github.com/example/product-catalog/internal/catalog"
)

type PostgresCategoryStore struct {
	db *sql.DB
}

func NewPostgresCategoryStore(db *sql.DB) *PostgresCategoryStore {
	return &PostgresCategoryStore{db: db}
}

const categoryColumns = `id, name, description, parent_id, display_order, active, created_at`

func scanCategory(row interface{ Scan(...any) error }) (*catalog.Category, error) {
	var c catalog.Category
	var parentID sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Description, &parentID, &c.DisplayOrder, &c.Active, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.ParentID = parentID.String
	return &c, nil
}

func (s *PostgresCategoryStore) GetByID(ctx context.Context, id string) (*catalog.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresCategoryStore) Save(ctx context.Context, c *catalog.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description, parent_id, display_order, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			parent_id = EXCLUDED.parent_id,
			display_order = EXCLUDED.display_order,
			active = EXCLUDED.active
	`, c.ID, c.Name, c.Description, nullString(c.ParentID), c.DisplayOrder, c.Active, c.CreatedAt)
	return err
}

func (s *PostgresCategoryStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *PostgresCategoryStore) List(ctx context.Context) ([]*catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE active = true ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*catalog.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresCategoryStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	return count, err
}
