// internal/service/ledger/ledger_service.go
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/seller"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/commission"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// TransactionStore is the persistence surface the ledger needs. The
// terminal-transition methods are conditional updates: the bool result
// reports whether this call performed the PENDING -> terminal change.
type TransactionStore interface {
	Create(ctx context.Context, t *transaction.Transaction) error
	FindByRef(ctx context.Context, txRef string) (*transaction.Transaction, error)
	FindByID(ctx context.Context, id int64) (*transaction.Transaction, error)
	HasCompletedPurchase(ctx context.Context, buyerID, productID int64) (bool, error)
	CompleteByRef(ctx context.Context, txRef, gatewayTxID string) (*transaction.Transaction, bool, error)
	FailByRef(ctx context.Context, txRef, gatewayTxID, reason string) (*transaction.Transaction, bool, error)
	ListByBuyer(ctx context.Context, buyerID int64, filters *transaction.ListFilters) ([]transaction.Transaction, error)
	ListBySeller(ctx context.Context, sellerID int64, filters *transaction.ListFilters) ([]transaction.Transaction, error)
	SalesSummary(ctx context.Context, sellerID int64) (*transaction.SalesSummary, error)
}

type ProductStore interface {
	FindByID(ctx context.Context, id int64) (*product.Product, error)
}

type TierStore interface {
	FindTierContext(ctx context.Context, sellerID int64) (seller.TierContext, error)
}

// LedgerService owns the lifecycle of purchase records. It is the only
// component that writes transaction status.
type LedgerService struct {
	transactions TransactionStore
	products     ProductStore
	tiers        TierStore
	rates        commission.Rates
	currency     string
	logger       *zap.Logger
}

func NewLedgerService(
	transactions TransactionStore,
	products ProductStore,
	tiers TierStore,
	rates commission.Rates,
	currency string,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		transactions: transactions,
		products:     products,
		tiers:        tiers,
		rates:        rates,
		currency:     currency,
		logger:       logger,
	}
}

// CreatePending reserves a PENDING transaction for a purchase attempt.
// The commission split is computed from the seller's tier at this moment
// and frozen; later tier changes never touch existing records.
func (s *LedgerService) CreatePending(ctx context.Context, buyerID, productID int64, method transaction.PaymentMethod) (*transaction.Transaction, error) {
	if !method.Valid() {
		return nil, xerrors.ErrInvalidPaymentMethod
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !p.Purchasable() {
		return nil, xerrors.ErrProductUnavailable
	}

	owned, err := s.transactions.HasCompletedPurchase(ctx, buyerID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check prior purchases: %w", err)
	}
	if owned {
		return nil, xerrors.ErrDuplicatePurchase
	}

	tier, err := s.tiers.FindTierContext(ctx, p.SellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller tier: %w", err)
	}

	split := commission.Compute(p.Price, tier.IsOwner, tier.IsPro, s.rates)

	t := &transaction.Transaction{
		TxRef:         newTxRef(),
		BuyerID:       buyerID,
		SellerID:      p.SellerID,
		ProductID:     productID,
		Amount:        p.Price,
		Commission:    split.Commission,
		SellerAmount:  split.SellerAmount,
		Currency:      s.currency,
		PaymentMethod: method,
		Status:        transaction.StatusPending,
	}

	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.logger.Info("transaction created",
		zap.String("tx_ref", t.TxRef),
		zap.Int64("buyer_id", buyerID),
		zap.Int64("product_id", productID),
		zap.String("amount", t.Amount.String()),
		zap.String("commission", t.Commission.String()),
	)
	return t, nil
}

// MarkCompleted applies the COMPLETED outcome for a verified settlement.
// The bool result reports a fresh PENDING -> COMPLETED transition; a
// replay of the same gateway id is a no-op success.
func (s *LedgerService) MarkCompleted(ctx context.Context, txRef, gatewayTxID string) (*transaction.Transaction, bool, error) {
	t, transitioned, err := s.transactions.CompleteByRef(ctx, txRef, gatewayTxID)
	if err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			// A different transaction already settled this buyer+product
			// pair; this charge needs a manual refund.
			s.logger.Error("settlement blocked by an existing completed purchase",
				zap.String("tx_ref", txRef),
				zap.String("gateway_tx_id", gatewayTxID),
			)
		}
		return nil, false, err
	}
	if transitioned {
		s.logger.Info("transaction completed",
			zap.String("tx_ref", txRef),
			zap.String("gateway_tx_id", gatewayTxID),
		)
		return t, true, nil
	}

	switch t.Status {
	case transaction.StatusCompleted:
		if t.GatewayTxID.Valid && t.GatewayTxID.String != gatewayTxID {
			// Durably logged for manual audit; the caller still
			// acknowledges the event.
			s.logger.Error("completed transaction received conflicting gateway id",
				zap.String("tx_ref", txRef),
				zap.String("stored_gateway_tx_id", t.GatewayTxID.String),
				zap.String("incoming_gateway_tx_id", gatewayTxID),
			)
		}
		return t, false, nil
	case transaction.StatusFailed:
		s.logger.Error("completion signal for failed transaction",
			zap.String("tx_ref", txRef),
			zap.String("gateway_tx_id", gatewayTxID),
		)
		return nil, false, xerrors.ErrInvalidTransition
	default:
		return nil, false, fmt.Errorf("transaction %s left in unexpected status %s", txRef, t.Status)
	}
}

// MarkFailed applies the FAILED outcome. A completed sale cannot be
// un-completed by a later failure signal.
func (s *LedgerService) MarkFailed(ctx context.Context, txRef, gatewayTxID, reason string) (*transaction.Transaction, bool, error) {
	t, transitioned, err := s.transactions.FailByRef(ctx, txRef, gatewayTxID, reason)
	if err != nil {
		return nil, false, err
	}
	if transitioned {
		s.logger.Info("transaction failed",
			zap.String("tx_ref", txRef),
			zap.String("reason", reason),
		)
		return t, true, nil
	}

	switch t.Status {
	case transaction.StatusFailed:
		return t, false, nil
	case transaction.StatusCompleted:
		return nil, false, xerrors.ErrInvalidTransition
	default:
		return nil, false, fmt.Errorf("transaction %s left in unexpected status %s", txRef, t.Status)
	}
}

func (s *LedgerService) GetByRef(ctx context.Context, txRef string) (*transaction.Transaction, error) {
	return s.transactions.FindByRef(ctx, txRef)
}

func (s *LedgerService) ListPurchases(ctx context.Context, buyerID int64, filters *transaction.ListFilters) ([]transaction.Transaction, error) {
	return s.transactions.ListByBuyer(ctx, buyerID, filters)
}

func (s *LedgerService) ListSales(ctx context.Context, sellerID int64, filters *transaction.ListFilters) ([]transaction.Transaction, error) {
	return s.transactions.ListBySeller(ctx, sellerID, filters)
}

func (s *LedgerService) SalesSummary(ctx context.Context, sellerID int64) (*transaction.SalesSummary, error) {
	return s.transactions.SalesSummary(ctx, sellerID)
}

func newTxRef() string {
	return "TX-" + ulid.Make().String()
}
