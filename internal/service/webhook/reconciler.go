// internal/service/webhook/reconciler.go
package webhook

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/seller"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/gateway/flutterwave"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"go.uber.org/zap"
)

// Ledger is the transaction-lifecycle surface the reconciler drives.
type Ledger interface {
	GetByRef(ctx context.Context, txRef string) (*transaction.Transaction, error)
	MarkCompleted(ctx context.Context, txRef, gatewayTxID string) (*transaction.Transaction, bool, error)
	MarkFailed(ctx context.Context, txRef, gatewayTxID, reason string) (*transaction.Transaction, bool, error)
}

// Dispatcher triggers the seller disbursement after a fresh completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, t *transaction.Transaction, tier seller.TierContext) (*transaction.Payout, error)
}

type TierStore interface {
	FindTierContext(ctx context.Context, sellerID int64) (seller.TierContext, error)
}

// Gateway is the verification surface of the payment adapter.
type Gateway interface {
	VerifyTransaction(ctx context.Context, gatewayTxID string) (*flutterwave.VerifiedTransaction, error)
}

// Outcome describes how an inbound event was resolved.
type Outcome string

const (
	// OutcomeIgnored: acknowledged without ledger action (unknown
	// reference, uninteresting event type).
	OutcomeIgnored Outcome = "ignored"
	// OutcomeRejected: acknowledged but discarded after an integrity
	// check failed; logged for audit.
	OutcomeRejected Outcome = "rejected"
	// OutcomeCompleted: fresh transition into COMPLETED.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed: fresh transition into FAILED.
	OutcomeFailed Outcome = "failed"
	// OutcomeReplayed: idempotent redelivery of an already-applied event.
	OutcomeReplayed Outcome = "replayed"
	// OutcomeHeld: verification returned a non-terminal state; the
	// transaction stays PENDING for manual review.
	OutcomeHeld Outcome = "held"
)

// ReconcilerService verifies inbound settlement notifications and drives
// the ledger. It never trusts the callback body for money or status: the
// gateway's verify endpoint is re-queried on every event.
type ReconcilerService struct {
	secretHash string
	ledger     Ledger
	dispatcher Dispatcher
	tiers      TierStore
	gateway    Gateway
	logger     *zap.Logger
}

func NewReconcilerService(
	secretHash string,
	ledger Ledger,
	dispatcher Dispatcher,
	tiers TierStore,
	gateway Gateway,
	logger *zap.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		secretHash: secretHash,
		ledger:     ledger,
		dispatcher: dispatcher,
		tiers:      tiers,
		gateway:    gateway,
		logger:     logger,
	}
}

// VerifySignature recomputes the provider hash over the raw body and
// compares it byte for byte against the verif-hash header value.
func (s *ReconcilerService) VerifySignature(body []byte, signature string) error {
	if signature == "" {
		return xerrors.ErrInvalidSignature
	}

	h := sha256.Sum256(append(append([]byte{}, body...), []byte(s.secretHash)...))
	computed := hex.EncodeToString(h[:])

	if subtle.ConstantTimeCompare([]byte(computed), []byte(signature)) != 1 {
		return xerrors.ErrInvalidSignature
	}
	return nil
}

// HandleEvent runs the full reconciliation sequence for one delivery:
// authenticate, correlate, re-verify with the gateway, apply the
// outcome, and on a fresh completion dispatch the seller payout. Safe to
// call any number of times with the same payload.
func (s *ReconcilerService) HandleEvent(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if err := s.VerifySignature(body, signature); err != nil {
		s.logger.Warn("webhook signature rejected", zap.Int("body_bytes", len(body)))
		return "", err
	}

	event, err := decodeEvent(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}

	if event.Event != EventChargeCompleted {
		s.logger.Debug("webhook event ignored", zap.String("event", event.Event))
		return OutcomeIgnored, nil
	}

	t, err := s.ledger.GetByRef(ctx, event.Data.TxRef)
	if err != nil {
		if errors.Is(err, xerrors.ErrTransactionNotFound) {
			// Never create a transaction reactively from a webhook;
			// acknowledge so the provider stops retrying.
			s.logger.Warn("webhook for unknown transaction reference",
				zap.String("tx_ref", event.Data.TxRef),
			)
			return OutcomeIgnored, nil
		}
		return "", err
	}

	gatewayTxID := event.Data.ID.String()

	// Step 3: the callback body never drives the outcome. Whatever the
	// webhook claims, ask the gateway what actually happened.
	verified, err := s.gateway.VerifyTransaction(ctx, gatewayTxID)
	if err != nil {
		return "", fmt.Errorf("failed to verify transaction with gateway: %w", err)
	}

	// A valid gateway id paired with someone else's reference must not
	// settle this transaction.
	if verified.TxRef != "" && verified.TxRef != t.TxRef {
		s.logger.Error("verified reference mismatch, event discarded",
			zap.String("tx_ref", t.TxRef),
			zap.String("verified_tx_ref", verified.TxRef),
			zap.String("gateway_tx_id", gatewayTxID),
		)
		return OutcomeRejected, nil
	}

	switch {
	case verified.Successful():
		if verified.Currency != t.Currency || verified.Amount.LessThan(t.Amount) {
			s.logger.Error("verified amount mismatch, event discarded",
				zap.String("tx_ref", t.TxRef),
				zap.String("stored_amount", t.Amount.String()),
				zap.String("verified_amount", verified.Amount.String()),
				zap.String("stored_currency", t.Currency),
				zap.String("verified_currency", verified.Currency),
			)
			return OutcomeRejected, nil
		}
		return s.applyCompleted(ctx, t, gatewayTxID)

	case verified.Failed():
		return s.applyFailed(ctx, t, gatewayTxID)

	default:
		s.logger.Warn("verification returned non-terminal status, holding",
			zap.String("tx_ref", t.TxRef),
			zap.String("verified_status", verified.Status),
		)
		return OutcomeHeld, nil
	}
}

func (s *ReconcilerService) applyCompleted(ctx context.Context, t *transaction.Transaction, gatewayTxID string) (Outcome, error) {
	completed, fresh, err := s.ledger.MarkCompleted(ctx, t.TxRef, gatewayTxID)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrInvalidTransition):
			// Already FAILED; a completed signal now is an audit
			// inconsistency, not a reason to retry the webhook.
			return OutcomeRejected, nil
		case errors.Is(err, xerrors.ErrConflict):
			// The buyer already owns the product through another
			// completed transaction. Acknowledging stops the provider
			// from retrying a delivery that can never apply; the
			// double charge is logged for a manual refund.
			s.logger.Error("duplicate charge for an owned product, event discarded",
				zap.String("tx_ref", t.TxRef),
				zap.String("gateway_tx_id", gatewayTxID),
				zap.Int64("buyer_id", t.BuyerID),
				zap.Int64("product_id", t.ProductID),
			)
			return OutcomeRejected, nil
		}
		return "", err
	}
	if !fresh {
		return OutcomeReplayed, nil
	}

	// Step 5: payout only on the fresh transition, and only when the
	// seller can receive mobile money. Failures here are recorded on
	// the payout and must not fail the webhook.
	tier, err := s.tiers.FindTierContext(ctx, completed.SellerID)
	if err != nil {
		s.logger.Error("failed to load seller tier for payout",
			zap.String("tx_ref", completed.TxRef),
			zap.Error(err),
		)
		return OutcomeCompleted, nil
	}
	if !tier.HasPayoutDetails() {
		s.logger.Info("seller has no payout details, skipping disbursement",
			zap.String("tx_ref", completed.TxRef),
			zap.Int64("seller_id", completed.SellerID),
		)
		return OutcomeCompleted, nil
	}

	if _, err := s.dispatcher.Dispatch(ctx, completed, tier); err != nil {
		s.logger.Warn("payout dispatch failed after settlement",
			zap.String("tx_ref", completed.TxRef),
			zap.Error(err),
		)
	}
	return OutcomeCompleted, nil
}

func (s *ReconcilerService) applyFailed(ctx context.Context, t *transaction.Transaction, gatewayTxID string) (Outcome, error) {
	_, fresh, err := s.ledger.MarkFailed(ctx, t.TxRef, gatewayTxID, "payment failed at gateway")
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidTransition) {
			// The sale already completed; a late failure signal cannot
			// un-complete it.
			s.logger.Error("failure signal for completed transaction, discarded",
				zap.String("tx_ref", t.TxRef),
				zap.String("gateway_tx_id", gatewayTxID),
			)
			return OutcomeRejected, nil
		}
		return "", err
	}
	if !fresh {
		return OutcomeReplayed, nil
	}
	return OutcomeFailed, nil
}
