// internal/repository/postgres/seller_repo.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/seller"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SellerRepository struct {
	db *pgxpool.Pool
}

func NewSellerRepository(db *pgxpool.Pool) *SellerRepository {
	return &SellerRepository{db: db}
}

// FindTierContext reads the commission-relevant seller attributes: the
// owner flag from the profile and the pro flag from an active PRO
// subscription. A seller without a profile row gets default-tier zeros.
func (r *SellerRepository) FindTierContext(ctx context.Context, sellerID int64) (seller.TierContext, error) {
	query := `
		SELECT
			COALESCE(sp.is_owner, FALSE),
			COALESCE(sub.plan = 'PRO' AND sub.is_active, FALSE),
			COALESCE(sp.mobile_money_number, ''),
			COALESCE(sp.mobile_money_provider, '')
		FROM users u
		LEFT JOIN seller_profiles sp ON sp.user_id = u.id
		LEFT JOIN subscriptions sub ON sub.user_id = u.id
		WHERE u.id = $1
	`

	var tier seller.TierContext
	err := r.db.QueryRow(ctx, query, sellerID).Scan(
		&tier.IsOwner, &tier.IsPro, &tier.MobileMoneyNumber, &tier.MobileMoneyProvider,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return seller.TierContext{}, fmt.Errorf("seller %d not found", sellerID)
	}
	if err != nil {
		return seller.TierContext{}, fmt.Errorf("failed to read seller tier: %w", err)
	}
	return tier, nil
}

// UpsertPayoutDetails sets or replaces a seller's mobile-money details.
func (r *SellerRepository) UpsertPayoutDetails(ctx context.Context, sellerID int64, number, provider string) error {
	query := `
		INSERT INTO seller_profiles (user_id, mobile_money_number, mobile_money_provider)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET mobile_money_number = EXCLUDED.mobile_money_number,
		    mobile_money_provider = EXCLUDED.mobile_money_provider,
		    updated_at = $4
	`

	if _, err := r.db.Exec(ctx, query, sellerID, number, provider, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert payout details: %w", err)
	}
	return nil
}

// FindProfile returns the raw profile row, nil when none exists.
func (r *SellerRepository) FindProfile(ctx context.Context, sellerID int64) (*seller.Profile, error) {
	query := `
		SELECT user_id, is_owner, mobile_money_number, mobile_money_provider, created_at, updated_at
		FROM seller_profiles WHERE user_id = $1
	`

	var p seller.Profile
	var number, provider sql.NullString
	err := r.db.QueryRow(ctx, query, sellerID).Scan(
		&p.UserID, &p.IsOwner, &number, &provider, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find seller profile: %w", err)
	}
	p.MobileMoneyNumber = number
	p.MobileMoneyProvider = provider
	return &p, nil
}
