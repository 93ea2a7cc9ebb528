// internal/repository/postgres/product_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, seller_id, title, description, price, status, created_at, updated_at`

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (seller_id, title, description, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, p.SellerID, p.Title, p.Description, p.Price, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var p product.Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Price, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) ListByStatus(ctx context.Context, status product.Status) ([]product.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE status = $1 ORDER BY created_at DESC`, productColumns)
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID int64) ([]product.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE seller_id = $1 ORDER BY created_at DESC`, productColumns)
	rows, err := r.db.Query(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *ProductRepository) UpdateStatus(ctx context.Context, id int64, status product.Status) error {
	query := `UPDATE products SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]product.Product, error) {
	var result []product.Product
	for rows.Next() {
		var p product.Product
		err := rows.Scan(
			&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Price, &p.Status,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
