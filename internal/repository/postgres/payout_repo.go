// internal/repository/postgres/payout_repo.go
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

const payoutColumns = `id, reference, seller_id, transaction_id, amount, currency, status,
       mobile_money_number, mobile_money_provider, gateway_payout_id,
       gateway_ref, failure_reason, created_at, updated_at`

type PayoutRepository struct {
	db *pgxpool.Pool
}

func NewPayoutRepository(db *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// Create persists a PENDING payout. transaction_id is unique, so a
// second create for the same transaction fails with ErrConflict.
func (r *PayoutRepository) Create(ctx context.Context, p *transaction.Payout) error {
	query := `
		INSERT INTO payouts (
			reference, seller_id, transaction_id, amount, currency, status,
			mobile_money_number, mobile_money_provider
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		p.Reference, p.SellerID, p.TransactionID, p.Amount, p.Currency,
		p.Status, p.MobileMoneyNumber, p.MobileMoneyProvider,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

func (r *PayoutRepository) FindByID(ctx context.Context, id int64) (*transaction.Payout, error) {
	query := fmt.Sprintf(`SELECT %s FROM payouts WHERE id = $1`, payoutColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *PayoutRepository) FindByTransactionID(ctx context.Context, transactionID int64) (*transaction.Payout, error) {
	query := fmt.Sprintf(`SELECT %s FROM payouts WHERE transaction_id = $1`, payoutColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, transactionID))
}

// MarkProcessing records the gateway handle once the transfer request
// is accepted.
func (r *PayoutRepository) MarkProcessing(ctx context.Context, id int64, gatewayPayoutID, gatewayRef string) error {
	query := `
		UPDATE payouts
		SET status = 'PROCESSING', gateway_payout_id = $2, gateway_ref = $3,
		    failure_reason = NULL, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, gatewayPayoutID, gatewayRef, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark payout processing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// RecordFailure keeps the payout PENDING with the dispatch failure noted
// so it stays queryable for manual retry.
func (r *PayoutRepository) RecordFailure(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE payouts
		SET failure_reason = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, reason, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record payout failure: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdateStatus applies a terminal status reported by the gateway.
func (r *PayoutRepository) UpdateStatus(ctx context.Context, id int64, status transaction.PayoutStatus) error {
	query := `UPDATE payouts SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update payout status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ListPending returns payouts that never left PENDING, oldest first.
// Used by the admin surface for manual retries.
func (r *PayoutRepository) ListPending(ctx context.Context) ([]transaction.Payout, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payouts
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
	`, payoutColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payouts: %w", err)
	}
	defer rows.Close()
	return collectPayouts(rows)
}

func (r *PayoutRepository) ListBySeller(ctx context.Context, sellerID int64) ([]transaction.Payout, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payouts
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, payoutColumns)

	rows, err := r.db.Query(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller payouts: %w", err)
	}
	defer rows.Close()
	return collectPayouts(rows)
}

func collectPayouts(rows pgx.Rows) ([]transaction.Payout, error) {
	var result []transaction.Payout
	for rows.Next() {
		var p transaction.Payout
		if err := scanPayout(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PayoutRepository) scanOne(row pgx.Row) (*transaction.Payout, error) {
	var p transaction.Payout
	if err := scanPayout(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanPayout(row pgx.Row, p *transaction.Payout) error {
	err := row.Scan(
		&p.ID, &p.Reference, &p.SellerID, &p.TransactionID, &p.Amount,
		&p.Currency, &p.Status, &p.MobileMoneyNumber, &p.MobileMoneyProvider,
		&p.GatewayPayoutID, &p.GatewayRef, &p.FailureReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("failed to scan payout: %w", err)
	}
	return nil
}
