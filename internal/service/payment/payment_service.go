// internal/service/payment/payment_service.go
package payment

import (
	"context"
	"fmt"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/user"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/gateway/flutterwave"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"go.uber.org/zap"
)

type Ledger interface {
	CreatePending(ctx context.Context, buyerID, productID int64, method transaction.PaymentMethod) (*transaction.Transaction, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

type ProductStore interface {
	FindByID(ctx context.Context, id int64) (*product.Product, error)
}

// Gateway is the initiation surface of the payment adapter.
type Gateway interface {
	InitiateCardPayment(ctx context.Context, req flutterwave.CardPaymentRequest) (string, error)
	InitiateMobileMoneyPayment(ctx context.Context, req flutterwave.MobileMoneyRequest) (*flutterwave.ChargeHandle, error)
}

// PaymentService runs the purchase-initiation flow: reserve a PENDING
// transaction, then hand the buyer to the gateway. A gateway failure
// leaves the transaction PENDING so the buyer can retry.
type PaymentService struct {
	ledger     Ledger
	users      UserStore
	products   ProductStore
	gateway    Gateway
	appBaseURL string
	logger     *zap.Logger
}

func NewPaymentService(
	ledger Ledger,
	users UserStore,
	products ProductStore,
	gateway Gateway,
	appBaseURL string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		ledger:     ledger,
		users:      users,
		products:   products,
		gateway:    gateway,
		appBaseURL: appBaseURL,
		logger:     logger,
	}
}

// Initialize validates the checkout request, reserves the transaction
// and initiates payment with the gateway.
func (s *PaymentService) Initialize(ctx context.Context, buyerID int64, input *transaction.InitializePaymentInput) (*transaction.InitializePaymentResult, error) {
	if !input.PaymentMethod.Valid() {
		return nil, xerrors.ErrInvalidPaymentMethod
	}
	// Validated before any record is created: client input errors must
	// not mutate state.
	if input.PaymentMethod.IsMobileMoney() && input.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: phone number is required for mobile money", xerrors.ErrInvalidPaymentMethod)
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}

	t, err := s.ledger.CreatePending(ctx, buyerID, input.ProductID, input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	result := &transaction.InitializePaymentResult{
		TransactionID: t.ID,
		TxRef:         t.TxRef,
	}

	if input.PaymentMethod == transaction.PaymentMethodCard {
		description := ""
		if p, err := s.products.FindByID(ctx, t.ProductID); err == nil {
			description = p.Title
		}

		link, err := s.gateway.InitiateCardPayment(ctx, flutterwave.CardPaymentRequest{
			TxRef:       t.TxRef,
			Amount:      t.Amount,
			Currency:    t.Currency,
			Customer:    flutterwave.Customer{Email: buyer.Email, Name: buyer.Name},
			RedirectURL: s.appBaseURL + "/payment/callback",
			Title:       "Digital Flux Purchase",
			Description: description,
			Meta: map[string]interface{}{
				"transaction_id": t.ID,
				"product_id":     t.ProductID,
			},
		})
		if err != nil {
			s.logger.Warn("card payment initiation failed, transaction stays pending",
				zap.String("tx_ref", t.TxRef),
				zap.Error(err),
			)
			return nil, err
		}
		result.PaymentLink = link
		return result, nil
	}

	handle, err := s.gateway.InitiateMobileMoneyPayment(ctx, flutterwave.MobileMoneyRequest{
		TxRef:       t.TxRef,
		Amount:      t.Amount,
		Currency:    t.Currency,
		Network:     input.PaymentMethod.Network(),
		PhoneNumber: input.PhoneNumber,
		Email:       buyer.Email,
		FullName:    buyer.Name,
	})
	if err != nil {
		s.logger.Warn("mobile money initiation failed, transaction stays pending",
			zap.String("tx_ref", t.TxRef),
			zap.Error(err),
		)
		return nil, err
	}
	result.ChargeID = handle.ID
	result.ChargeStatus = handle.Status
	return result, nil
}
