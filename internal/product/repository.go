package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrSlugTaken = errors.New("product slug already exists")

const productColumns = `id, title, slug, description, price, category, brand, quantity, sold, image, color, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price, &p.Category, &p.Brand,
		&p.Quantity, &p.Sold, &p.Image, &p.Color, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Product, bool, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, false, nil
		}
		return Product{}, false, fmt.Errorf("query product: %w", err)
	}
	return p, true, nil
}

func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	created, err := scanProduct(r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, title, slug, description, price, category, brand, quantity, sold, image, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING `+productColumns,
		id.String(), p.Title, p.Slug, p.Description, p.Price, p.Category, p.Brand, p.Quantity, p.Sold, p.Image, p.Color, now,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return created, nil
}

func (r *Repository) Update(ctx context.Context, id string, p Product) (Product, bool, error) {
	updated, err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products
		SET title = $2, slug = $3, description = $4, price = $5, category = $6, brand = $7,
			quantity = $8, sold = $9, image = $10, color = $11, updated_at = $12
		WHERE id = $1
		RETURNING `+productColumns,
		id, p.Title, p.Slug, p.Description, p.Price, p.Category, p.Brand, p.Quantity, p.Sold, p.Image, p.Color, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, false, nil
		}
		if isUniqueViolation(err) {
			return Product{}, false, ErrSlugTaken
		}
		return Product{}, false, fmt.Errorf("update product: %w", err)
	}

	return updated, true, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (Product, bool, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, false, nil
		}
		return Product{}, false, fmt.Errorf("delete product: %w", err)
	}
	return p, true, nil
}

// SlugTaken reports whether another product already uses slug. The unique
// index remains the final guard against concurrent writers.
func (r *Repository) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND id <> $2)`, slug, exceptID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("query product slug: %w", err)
	}
	return taken, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
