package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/user"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/gateway/flutterwave"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeLedger struct {
	calls int
	err   error
}

func (f *fakeLedger) CreatePending(ctx context.Context, buyerID, productID int64, method transaction.PaymentMethod) (*transaction.Transaction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &transaction.Transaction{
		ID:            11,
		TxRef:         "TX-01JX5T",
		BuyerID:       buyerID,
		SellerID:      3,
		ProductID:     productID,
		Amount:        decimal.NewFromInt(10000),
		Currency:      "XAF",
		PaymentMethod: method,
		Status:        transaction.StatusPending,
	}, nil
}

type fakeUserStore struct{}

func (f *fakeUserStore) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return &user.User{ID: id, Email: "buyer@example.com", Name: "Test Buyer", Role: user.RoleBuyer}, nil
}

type fakeProductStore struct{}

func (f *fakeProductStore) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	return &product.Product{ID: id, SellerID: 3, Title: "Lightroom Preset Pack", Status: product.StatusApproved}, nil
}

type fakeGateway struct {
	cardReq  *flutterwave.CardPaymentRequest
	momoReq  *flutterwave.MobileMoneyRequest
	cardErr  error
	momoErr  error
	link     string
	chargeID string
}

func (f *fakeGateway) InitiateCardPayment(ctx context.Context, req flutterwave.CardPaymentRequest) (string, error) {
	f.cardReq = &req
	if f.cardErr != nil {
		return "", f.cardErr
	}
	return f.link, nil
}

func (f *fakeGateway) InitiateMobileMoneyPayment(ctx context.Context, req flutterwave.MobileMoneyRequest) (*flutterwave.ChargeHandle, error) {
	f.momoReq = &req
	if f.momoErr != nil {
		return nil, f.momoErr
	}
	return &flutterwave.ChargeHandle{ID: f.chargeID, Status: "pending"}, nil
}

func newTestService(ledger *fakeLedger, gateway *fakeGateway) *PaymentService {
	return NewPaymentService(ledger, &fakeUserStore{}, &fakeProductStore{}, gateway, "https://shop.example.com", zap.NewNop())
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("card checkout returns the hosted payment link", func(t *testing.T) {
		ledger := &fakeLedger{}
		gateway := &fakeGateway{link: "https://checkout.flutterwave.com/pay/abc"}
		svc := newTestService(ledger, gateway)

		res, err := svc.Initialize(ctx, 42, &transaction.InitializePaymentInput{
			ProductID:     7,
			PaymentMethod: transaction.PaymentMethodCard,
		})
		if err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if res.PaymentLink != gateway.link {
			t.Errorf("payment link = %q, want %q", res.PaymentLink, gateway.link)
		}
		if res.TxRef != "TX-01JX5T" {
			t.Errorf("tx_ref = %q, want TX-01JX5T", res.TxRef)
		}
		if gateway.cardReq == nil {
			t.Fatal("card payment was never initiated")
		}
		if gateway.cardReq.RedirectURL != "https://shop.example.com/payment/callback" {
			t.Errorf("redirect url = %q", gateway.cardReq.RedirectURL)
		}
		if gateway.cardReq.Customer.Email != "buyer@example.com" {
			t.Errorf("customer email = %q", gateway.cardReq.Customer.Email)
		}
	})

	t.Run("mobile money checkout charges the buyer's phone", func(t *testing.T) {
		ledger := &fakeLedger{}
		gateway := &fakeGateway{chargeID: "801"}
		svc := newTestService(ledger, gateway)

		res, err := svc.Initialize(ctx, 42, &transaction.InitializePaymentInput{
			ProductID:     7,
			PaymentMethod: transaction.PaymentMethodMobileMoneyMTN,
			PhoneNumber:   "237670000001",
		})
		if err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if res.ChargeID != "801" {
			t.Errorf("charge id = %q, want 801", res.ChargeID)
		}
		if gateway.momoReq == nil {
			t.Fatal("mobile money charge was never initiated")
		}
		if gateway.momoReq.Network != "MTN" {
			t.Errorf("network = %q, want MTN", gateway.momoReq.Network)
		}
		if gateway.momoReq.PhoneNumber != "237670000001" {
			t.Errorf("phone = %q", gateway.momoReq.PhoneNumber)
		}
	})

	t.Run("mobile money without a phone number creates nothing", func(t *testing.T) {
		ledger := &fakeLedger{}
		svc := newTestService(ledger, &fakeGateway{})

		_, err := svc.Initialize(ctx, 42, &transaction.InitializePaymentInput{
			ProductID:     7,
			PaymentMethod: transaction.PaymentMethodMobileMoneyOrange,
		})
		if !errors.Is(err, xerrors.ErrInvalidPaymentMethod) {
			t.Fatalf("error = %v, want ErrInvalidPaymentMethod", err)
		}
		if ledger.calls != 0 {
			t.Errorf("ledger calls = %d, want 0", ledger.calls)
		}
	})

	t.Run("unknown payment method creates nothing", func(t *testing.T) {
		ledger := &fakeLedger{}
		svc := newTestService(ledger, &fakeGateway{})

		_, err := svc.Initialize(ctx, 42, &transaction.InitializePaymentInput{
			ProductID:     7,
			PaymentMethod: transaction.PaymentMethod("paypal"),
		})
		if !errors.Is(err, xerrors.ErrInvalidPaymentMethod) {
			t.Fatalf("error = %v, want ErrInvalidPaymentMethod", err)
		}
		if ledger.calls != 0 {
			t.Errorf("ledger calls = %d, want 0", ledger.calls)
		}
	})

	t.Run("gateway outage leaves the reserved transaction pending", func(t *testing.T) {
		ledger := &fakeLedger{}
		gateway := &fakeGateway{cardErr: xerrors.ErrGatewayUnavailable}
		svc := newTestService(ledger, gateway)

		_, err := svc.Initialize(ctx, 42, &transaction.InitializePaymentInput{
			ProductID:     7,
			PaymentMethod: transaction.PaymentMethodCard,
		})
		if !errors.Is(err, xerrors.ErrGatewayUnavailable) {
			t.Fatalf("error = %v, want ErrGatewayUnavailable", err)
		}
		// The transaction was reserved before the gateway call; nothing
		// rolls it back.
		if ledger.calls != 1 {
			t.Errorf("ledger calls = %d, want 1", ledger.calls)
		}
	})

	t.Run("ledger rejection propagates unchanged", func(t *testing.T) {
		ledger := &fakeLedger{err: xerrors.ErrDuplicatePurchase}
		svc := newTestService(ledger, &fakeGateway{})

		_, err := svc.Initialize(ctx, 42, &transaction.InitializePaymentInput{
			ProductID:     7,
			PaymentMethod: transaction.PaymentMethodCard,
		})
		if !errors.Is(err, xerrors.ErrDuplicatePurchase) {
			t.Errorf("error = %v, want ErrDuplicatePurchase", err)
		}
	})
}
