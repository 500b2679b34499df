package store

import "database/sql"

// EnsureSchema creates the tables the service needs if they do not
// exist yet. The search table keeps its own copy of the product rows
// plus a weighted tsvector: name matches rank above description, which
// ranks above brand.
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			category_id TEXT,
			category_name TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL,
			stock_quantity INT NOT NULL,
			image_url TEXT,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_active_created ON products (active, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS search_products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			category_id TEXT,
			category_name TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL,
			stock_quantity INT NOT NULL,
			image_url TEXT,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			search_vector TSVECTOR GENERATED ALWAYS AS (
				setweight(to_tsvector('english', coalesce(name, '')), 'A') ||
				setweight(to_tsvector('english', coalesce(description, '')), 'B') ||
				setweight(to_tsvector('english', coalesce(brand, '')), 'C')
			) STORED
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_products_vector ON search_products USING GIN (search_vector)`,
		`CREATE INDEX IF NOT EXISTS idx_search_products_category ON search_products (category_id) WHERE active = true`,

		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			parent_id TEXT,
			display_order INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
