// internal/service/payout/payout_service.go
package payout

import (
	"context"
	"errors"
	"fmt"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/seller"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/gateway/flutterwave"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PayoutStore interface {
	Create(ctx context.Context, p *transaction.Payout) error
	FindByID(ctx context.Context, id int64) (*transaction.Payout, error)
	FindByTransactionID(ctx context.Context, transactionID int64) (*transaction.Payout, error)
	MarkProcessing(ctx context.Context, id int64, gatewayPayoutID, gatewayRef string) error
	RecordFailure(ctx context.Context, id int64, reason string) error
	UpdateStatus(ctx context.Context, id int64, status transaction.PayoutStatus) error
	ListPending(ctx context.Context) ([]transaction.Payout, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]transaction.Payout, error)
}

type TransactionStore interface {
	FindByID(ctx context.Context, id int64) (*transaction.Transaction, error)
}

type ProductStore interface {
	FindByID(ctx context.Context, id int64) (*product.Product, error)
}

// Gateway is the subset of the payment adapter the dispatcher uses.
type Gateway interface {
	InitiatePayout(ctx context.Context, req flutterwave.PayoutRequest) (*flutterwave.TransferHandle, error)
	VerifyPayout(ctx context.Context, transferID string) (*flutterwave.TransferHandle, error)
}

// DispatcherService turns completed sales into disbursement attempts.
// There is no automatic retry loop: a rejected dispatch stays PENDING
// with its failure reason recorded, waiting for a manual retry.
type DispatcherService struct {
	payouts      PayoutStore
	transactions TransactionStore
	products     ProductStore
	gateway      Gateway
	logger       *zap.Logger
}

func NewDispatcherService(
	payouts PayoutStore,
	transactions TransactionStore,
	products ProductStore,
	gateway Gateway,
	logger *zap.Logger,
) *DispatcherService {
	return &DispatcherService{
		payouts:      payouts,
		transactions: transactions,
		products:     products,
		gateway:      gateway,
		logger:       logger,
	}
}

// Dispatch creates and attempts the payout for a completed transaction.
// Idempotent: an existing payout for the transaction is returned as is.
// A gateway rejection is recorded on the payout and returned alongside
// it; the payout itself stays PENDING.
func (s *DispatcherService) Dispatch(ctx context.Context, t *transaction.Transaction, tier seller.TierContext) (*transaction.Payout, error) {
	if t.Status != transaction.StatusCompleted {
		return nil, fmt.Errorf("%w: transaction %s is not completed", xerrors.ErrInvalidTransition, t.TxRef)
	}
	if !tier.HasPayoutDetails() {
		return nil, fmt.Errorf("%w: seller %d has no mobile money details", xerrors.ErrInvalidInput, t.SellerID)
	}

	if existing, err := s.payouts.FindByTransactionID(ctx, t.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	p := &transaction.Payout{
		Reference:           "PAYOUT-" + uuid.NewString(),
		SellerID:            t.SellerID,
		TransactionID:       t.ID,
		Amount:              t.SellerAmount,
		Currency:            t.Currency,
		Status:              transaction.PayoutStatusPending,
		MobileMoneyNumber:   tier.MobileMoneyNumber,
		MobileMoneyProvider: tier.MobileMoneyProvider,
	}

	if err := s.payouts.Create(ctx, p); err != nil {
		// A concurrent dispatch won the unique transaction_id race.
		if errors.Is(err, xerrors.ErrConflict) {
			return s.payouts.FindByTransactionID(ctx, t.ID)
		}
		return nil, err
	}

	return s.attempt(ctx, p, t)
}

// Retry re-dispatches a payout that never left PENDING.
func (s *DispatcherService) Retry(ctx context.Context, payoutID int64) (*transaction.Payout, error) {
	p, err := s.payouts.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != transaction.PayoutStatusPending {
		return nil, fmt.Errorf("%w: payout %d is %s", xerrors.ErrConflict, payoutID, p.Status)
	}

	t, err := s.transactions.FindByID(ctx, p.TransactionID)
	if err != nil {
		return nil, err
	}
	return s.attempt(ctx, p, t)
}

// SyncStatus refreshes a PROCESSING payout from the gateway's transfer
// state and applies a terminal status when the gateway reports one.
func (s *DispatcherService) SyncStatus(ctx context.Context, payoutID int64) (*transaction.Payout, error) {
	p, err := s.payouts.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != transaction.PayoutStatusProcessing || !p.GatewayPayoutID.Valid {
		return nil, fmt.Errorf("%w: payout %d has no transfer in flight", xerrors.ErrConflict, payoutID)
	}

	handle, err := s.gateway.VerifyPayout(ctx, p.GatewayPayoutID.String)
	if err != nil {
		return nil, err
	}

	var next transaction.PayoutStatus
	switch handle.Status {
	case "SUCCESSFUL":
		next = transaction.PayoutStatusCompleted
	case "FAILED":
		next = transaction.PayoutStatusFailed
	default:
		// Still in flight at the gateway.
		return p, nil
	}

	if err := s.payouts.UpdateStatus(ctx, p.ID, next); err != nil {
		return nil, err
	}
	p.Status = next

	s.logger.Info("payout status synced",
		zap.Int64("payout_id", p.ID),
		zap.String("gateway_payout_id", p.GatewayPayoutID.String),
		zap.String("status", string(next)),
	)
	return p, nil
}

func (s *DispatcherService) ListPending(ctx context.Context) ([]transaction.Payout, error) {
	return s.payouts.ListPending(ctx)
}

func (s *DispatcherService) ListBySeller(ctx context.Context, sellerID int64) ([]transaction.Payout, error) {
	return s.payouts.ListBySeller(ctx, sellerID)
}

func (s *DispatcherService) attempt(ctx context.Context, p *transaction.Payout, t *transaction.Transaction) (*transaction.Payout, error) {
	narration := "Digital Flux payout"
	if prod, err := s.products.FindByID(ctx, t.ProductID); err == nil {
		narration = "Payout for " + prod.Title
	}

	handle, err := s.gateway.InitiatePayout(ctx, flutterwave.PayoutRequest{
		AccountBank:   p.MobileMoneyProvider,
		AccountNumber: p.MobileMoneyNumber,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Narration:     narration,
		Reference:     p.Reference,
	})
	if err != nil {
		s.logger.Warn("payout dispatch failed",
			zap.Int64("payout_id", p.ID),
			zap.String("reference", p.Reference),
			zap.Error(err),
		)
		if recordErr := s.payouts.RecordFailure(ctx, p.ID, err.Error()); recordErr != nil {
			s.logger.Error("failed to record payout failure", zap.Int64("payout_id", p.ID), zap.Error(recordErr))
		}
		p.FailureReason.String = err.Error()
		p.FailureReason.Valid = true
		return p, err
	}

	if err := s.payouts.MarkProcessing(ctx, p.ID, handle.ID, handle.Reference); err != nil {
		return p, err
	}
	p.Status = transaction.PayoutStatusProcessing
	p.GatewayPayoutID.String = handle.ID
	p.GatewayPayoutID.Valid = true
	p.GatewayRef.String = handle.Reference
	p.GatewayRef.Valid = true

	s.logger.Info("payout dispatched",
		zap.Int64("payout_id", p.ID),
		zap.String("reference", p.Reference),
		zap.String("gateway_payout_id", handle.ID),
	)
	return p, nil
}
