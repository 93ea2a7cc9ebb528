// internal/repository/postgres/transaction_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const txColumns = `id, tx_ref, buyer_id, seller_id, product_id, amount, commission,
       seller_amount, currency, payment_method, status, gateway_tx_id,
       failure_reason, created_at, updated_at`

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create persists a new PENDING transaction. The partial unique index on
// (buyer_id, product_id) WHERE status = 'COMPLETED' backs the
// at-most-one-completed-purchase invariant; tx_ref carries its own
// unique constraint.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			tx_ref, buyer_id, seller_id, product_id, amount, commission,
			seller_amount, currency, payment_method, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		t.TxRef, t.BuyerID, t.SellerID, t.ProductID, t.Amount, t.Commission,
		t.SellerAmount, t.Currency, t.PaymentMethod, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindByRef retrieves a transaction by its external reference.
func (r *TransactionRepository) FindByRef(ctx context.Context, txRef string) (*transaction.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE tx_ref = $1`, txColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, txRef))
}

// FindByID retrieves a transaction by primary key.
func (r *TransactionRepository) FindByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, txColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// HasCompletedPurchase reports whether the buyer already owns the product.
func (r *TransactionRepository) HasCompletedPurchase(ctx context.Context, buyerID, productID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE buyer_id = $1 AND product_id = $2 AND status = 'COMPLETED'
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, buyerID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completed purchase: %w", err)
	}
	return exists, nil
}

// CompleteByRef transitions PENDING -> COMPLETED as a conditional update.
// Two racing webhook deliveries cannot both observe the PENDING row, so
// exactly one caller sees transitioned = true.
func (r *TransactionRepository) CompleteByRef(ctx context.Context, txRef, gatewayTxID string) (*transaction.Transaction, bool, error) {
	query := fmt.Sprintf(`
		UPDATE transactions
		SET status = 'COMPLETED', gateway_tx_id = $2, updated_at = $3
		WHERE tx_ref = $1 AND status = 'PENDING'
		RETURNING %s
	`, txColumns)

	t, err := r.scanOne(r.db.QueryRow(ctx, query, txRef, gatewayTxID, time.Now()))
	if err == nil {
		return t, true, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// The partial unique index on (buyer_id, product_id) blocked
		// this completion: another transaction already settled the
		// same buyer+product pair.
		return nil, false, xerrors.ErrConflict
	}
	if !errors.Is(err, xerrors.ErrTransactionNotFound) {
		return nil, false, err
	}

	// No PENDING row matched; fetch current state so the caller can
	// distinguish idempotent replay from a genuine miss.
	current, err := r.FindByRef(ctx, txRef)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// FailByRef transitions PENDING -> FAILED as a conditional update.
func (r *TransactionRepository) FailByRef(ctx context.Context, txRef, gatewayTxID, reason string) (*transaction.Transaction, bool, error) {
	query := fmt.Sprintf(`
		UPDATE transactions
		SET status = 'FAILED', gateway_tx_id = $2, failure_reason = $3, updated_at = $4
		WHERE tx_ref = $1 AND status = 'PENDING'
		RETURNING %s
	`, txColumns)

	t, err := r.scanOne(r.db.QueryRow(ctx, query, txRef, gatewayTxID, reason, time.Now()))
	if err == nil {
		return t, true, nil
	}
	if !errors.Is(err, xerrors.ErrTransactionNotFound) {
		return nil, false, err
	}

	current, err := r.FindByRef(ctx, txRef)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// ListByBuyer returns a buyer's purchase attempts, newest first.
func (r *TransactionRepository) ListByBuyer(ctx context.Context, buyerID int64, filters *transaction.ListFilters) ([]transaction.Transaction, error) {
	return r.list(ctx, "buyer_id", buyerID, filters)
}

// ListBySeller returns a seller's sales, newest first.
func (r *TransactionRepository) ListBySeller(ctx context.Context, sellerID int64, filters *transaction.ListFilters) ([]transaction.Transaction, error) {
	return r.list(ctx, "seller_id", sellerID, filters)
}

// SalesSummary aggregates a seller's completed sales.
func (r *TransactionRepository) SalesSummary(ctx context.Context, sellerID int64) (*transaction.SalesSummary, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(seller_amount), 0)
		FROM transactions
		WHERE seller_id = $1 AND status = 'COMPLETED'
	`

	var summary transaction.SalesSummary
	err := r.db.QueryRow(ctx, query, sellerID).Scan(
		&summary.CompletedSales, &summary.GrossAmount, &summary.NetAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	return &summary, nil
}

func (r *TransactionRepository) list(ctx context.Context, column string, id int64, filters *transaction.ListFilters) ([]transaction.Transaction, error) {
	page, pageSize := 1, 20
	var status *transaction.Status
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 && filters.PageSize <= 100 {
			pageSize = filters.PageSize
		}
		status = filters.Status
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s = $1`, txColumns, column)
	args := []interface{}{id}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var result []transaction.Transaction
	for rows.Next() {
		var t transaction.Transaction
		if err := scanTx(rows, &t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *TransactionRepository) scanOne(row pgx.Row) (*transaction.Transaction, error) {
	var t transaction.Transaction
	if err := scanTx(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func scanTx(row pgx.Row, t *transaction.Transaction) error {
	err := row.Scan(
		&t.ID, &t.TxRef, &t.BuyerID, &t.SellerID, &t.ProductID, &t.Amount,
		&t.Commission, &t.SellerAmount, &t.Currency, &t.PaymentMethod,
		&t.Status, &t.GatewayTxID, &t.FailureReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("failed to scan transaction: %w", err)
	}
	return nil
}
