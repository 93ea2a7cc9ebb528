package payout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/product"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/seller"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/transaction"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/gateway/flutterwave"
	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakePayoutStore struct {
	nextID int64
	byID   map[int64]*transaction.Payout
	byTxID map[int64]*transaction.Payout
}

func newFakePayoutStore() *fakePayoutStore {
	return &fakePayoutStore{
		byID:   make(map[int64]*transaction.Payout),
		byTxID: make(map[int64]*transaction.Payout),
	}
}

func (f *fakePayoutStore) Create(ctx context.Context, p *transaction.Payout) error {
	if _, ok := f.byTxID[p.TransactionID]; ok {
		return xerrors.ErrConflict
	}
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byID[p.ID] = &cp
	f.byTxID[p.TransactionID] = &cp
	return nil
}

func (f *fakePayoutStore) FindByID(ctx context.Context, id int64) (*transaction.Payout, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayoutStore) FindByTransactionID(ctx context.Context, transactionID int64) (*transaction.Payout, error) {
	p, ok := f.byTxID[transactionID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayoutStore) MarkProcessing(ctx context.Context, id int64, gatewayPayoutID, gatewayRef string) error {
	p := f.byID[id]
	p.Status = transaction.PayoutStatusProcessing
	p.GatewayPayoutID.String = gatewayPayoutID
	p.GatewayPayoutID.Valid = true
	p.GatewayRef.String = gatewayRef
	p.GatewayRef.Valid = true
	p.FailureReason.Valid = false
	p.FailureReason.String = ""
	return nil
}

func (f *fakePayoutStore) RecordFailure(ctx context.Context, id int64, reason string) error {
	p := f.byID[id]
	p.FailureReason.String = reason
	p.FailureReason.Valid = true
	return nil
}

func (f *fakePayoutStore) UpdateStatus(ctx context.Context, id int64, status transaction.PayoutStatus) error {
	p, ok := f.byID[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	p.Status = status
	return nil
}

func (f *fakePayoutStore) ListPending(ctx context.Context) ([]transaction.Payout, error) {
	var out []transaction.Payout
	for _, p := range f.byID {
		if p.Status == transaction.PayoutStatusPending {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePayoutStore) ListBySeller(ctx context.Context, sellerID int64) ([]transaction.Payout, error) {
	var out []transaction.Payout
	for _, p := range f.byID {
		if p.SellerID == sellerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeTxStore struct {
	byID map[int64]*transaction.Transaction
}

func (f *fakeTxStore) FindByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, xerrors.ErrTransactionNotFound
	}
	return t, nil
}

type fakeProductStore struct {
	byID map[int64]*product.Product
}

func (f *fakeProductStore) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return p, nil
}

type fakeGateway struct {
	calls    int
	err      error
	lastReq  flutterwave.PayoutRequest
	handleID string

	verifyCalls  int
	verifyErr    error
	verifyStatus string
	lastVerifyID string
}

func (f *fakeGateway) InitiatePayout(ctx context.Context, req flutterwave.PayoutRequest) (*flutterwave.TransferHandle, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &flutterwave.TransferHandle{ID: f.handleID, Reference: req.Reference, Status: "NEW"}, nil
}

func (f *fakeGateway) VerifyPayout(ctx context.Context, transferID string) (*flutterwave.TransferHandle, error) {
	f.verifyCalls++
	f.lastVerifyID = transferID
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &flutterwave.TransferHandle{ID: transferID, Status: f.verifyStatus}, nil
}

func completedSale() *transaction.Transaction {
	return &transaction.Transaction{
		ID:           11,
		TxRef:        "TX-01JX5T",
		BuyerID:      42,
		SellerID:     3,
		ProductID:    7,
		Amount:       decimal.NewFromInt(10000),
		Commission:   decimal.NewFromInt(1000),
		SellerAmount: decimal.NewFromInt(9000),
		Currency:     "XAF",
		Status:       transaction.StatusCompleted,
	}
}

func sellerTier() seller.TierContext {
	return seller.TierContext{
		MobileMoneyNumber:   "237670000001",
		MobileMoneyProvider: "MTN",
	}
}

func testDispatcher(payouts *fakePayoutStore, gateway *fakeGateway) (*DispatcherService, *fakeTxStore) {
	t := completedSale()
	txs := &fakeTxStore{byID: map[int64]*transaction.Transaction{t.ID: t}}
	products := &fakeProductStore{byID: map[int64]*product.Product{
		7: {ID: 7, SellerID: 3, Title: "Lightroom Preset Pack"},
	}}
	return NewDispatcherService(payouts, txs, products, gateway, zap.NewNop()), txs
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches the seller amount to mobile money", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{handleID: "transfer-55"}
		svc, _ := testDispatcher(payouts, gateway)

		p, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if p.Status != transaction.PayoutStatusProcessing {
			t.Errorf("status = %s, want PROCESSING", p.Status)
		}
		if !gateway.lastReq.Amount.Equal(decimal.NewFromInt(9000)) {
			t.Errorf("transfer amount = %s, want the seller share 9000", gateway.lastReq.Amount)
		}
		if gateway.lastReq.AccountBank != "MTN" || gateway.lastReq.AccountNumber != "237670000001" {
			t.Errorf("transfer destination = %s/%s, want MTN/237670000001",
				gateway.lastReq.AccountBank, gateway.lastReq.AccountNumber)
		}
		if !strings.Contains(gateway.lastReq.Narration, "Lightroom Preset Pack") {
			t.Errorf("narration = %q, want product title included", gateway.lastReq.Narration)
		}
		if !strings.HasPrefix(p.Reference, "PAYOUT-") {
			t.Errorf("reference = %q, want PAYOUT- prefix", p.Reference)
		}
	})

	t.Run("second dispatch for the same sale is a no-op", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{handleID: "transfer-55"}
		svc, _ := testDispatcher(payouts, gateway)

		first, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if err != nil {
			t.Fatalf("first Dispatch() error = %v", err)
		}
		second, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if err != nil {
			t.Fatalf("second Dispatch() error = %v", err)
		}
		if gateway.calls != 1 {
			t.Errorf("gateway calls = %d, want 1", gateway.calls)
		}
		if second.ID != first.ID || second.Reference != first.Reference {
			t.Errorf("second dispatch returned a different payout: %+v vs %+v", second, first)
		}
	})

	t.Run("gateway rejection leaves the payout pending with the reason", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{err: xerrors.Wrap(xerrors.ErrPayoutRejected, "insufficient balance")}
		svc, _ := testDispatcher(payouts, gateway)

		p, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if !errors.Is(err, xerrors.ErrPayoutRejected) {
			t.Fatalf("error = %v, want ErrPayoutRejected", err)
		}
		if p == nil {
			t.Fatal("payout = nil, want the pending record")
		}
		stored, err := payouts.FindByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if stored.Status != transaction.PayoutStatusPending {
			t.Errorf("status = %s, want PENDING", stored.Status)
		}
		if !strings.Contains(stored.FailureReason.String, "insufficient balance") {
			t.Errorf("failure reason = %q, want gateway message recorded", stored.FailureReason.String)
		}
	})

	t.Run("rejects a transaction that is not completed", func(t *testing.T) {
		svc, _ := testDispatcher(newFakePayoutStore(), &fakeGateway{})

		tx := completedSale()
		tx.Status = transaction.StatusPending
		_, err := svc.Dispatch(ctx, tx, sellerTier())
		if !errors.Is(err, xerrors.ErrInvalidTransition) {
			t.Errorf("error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("rejects a seller without payout details", func(t *testing.T) {
		svc, _ := testDispatcher(newFakePayoutStore(), &fakeGateway{})

		_, err := svc.Dispatch(ctx, completedSale(), seller.TierContext{})
		if !errors.Is(err, xerrors.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("re-dispatches a pending payout after an outage", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{err: xerrors.ErrGatewayUnavailable}
		svc, _ := testDispatcher(payouts, gateway)

		p, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if !errors.Is(err, xerrors.ErrGatewayUnavailable) {
			t.Fatalf("error = %v, want ErrGatewayUnavailable", err)
		}

		gateway.err = nil
		gateway.handleID = "transfer-56"
		retried, err := svc.Retry(ctx, p.ID)
		if err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if retried.Status != transaction.PayoutStatusProcessing {
			t.Errorf("status = %s, want PROCESSING", retried.Status)
		}
		if retried.GatewayPayoutID.String != "transfer-56" {
			t.Errorf("gateway payout id = %q, want transfer-56", retried.GatewayPayoutID.String)
		}
	})

	t.Run("refuses to retry a payout already processing", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{handleID: "transfer-55"}
		svc, _ := testDispatcher(payouts, gateway)

		p, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		_, err = svc.Retry(ctx, p.ID)
		if !errors.Is(err, xerrors.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("unknown payout id is not found", func(t *testing.T) {
		svc, _ := testDispatcher(newFakePayoutStore(), &fakeGateway{})

		_, err := svc.Retry(ctx, 999)
		if !errors.Is(err, xerrors.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSyncStatus(t *testing.T) {
	ctx := context.Background()

	dispatched := func(t *testing.T, payouts *fakePayoutStore, gateway *fakeGateway) *transaction.Payout {
		t.Helper()
		svc, _ := testDispatcher(payouts, gateway)
		p, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		return p
	}

	t.Run("successful transfer marks the payout completed", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{handleID: "transfer-55", verifyStatus: "SUCCESSFUL"}
		svc, _ := testDispatcher(payouts, gateway)
		p := dispatched(t, payouts, gateway)

		synced, err := svc.SyncStatus(ctx, p.ID)
		if err != nil {
			t.Fatalf("SyncStatus() error = %v", err)
		}
		if synced.Status != transaction.PayoutStatusCompleted {
			t.Errorf("status = %s, want COMPLETED", synced.Status)
		}
		if gateway.lastVerifyID != "transfer-55" {
			t.Errorf("verified transfer = %q, want transfer-55", gateway.lastVerifyID)
		}
		stored, err := payouts.FindByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if stored.Status != transaction.PayoutStatusCompleted {
			t.Errorf("stored status = %s, want COMPLETED", stored.Status)
		}
	})

	t.Run("failed transfer marks the payout failed", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{handleID: "transfer-55", verifyStatus: "FAILED"}
		svc, _ := testDispatcher(payouts, gateway)
		p := dispatched(t, payouts, gateway)

		synced, err := svc.SyncStatus(ctx, p.ID)
		if err != nil {
			t.Fatalf("SyncStatus() error = %v", err)
		}
		if synced.Status != transaction.PayoutStatusFailed {
			t.Errorf("status = %s, want FAILED", synced.Status)
		}
	})

	t.Run("transfer still in flight leaves the payout processing", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{handleID: "transfer-55", verifyStatus: "PENDING"}
		svc, _ := testDispatcher(payouts, gateway)
		p := dispatched(t, payouts, gateway)

		synced, err := svc.SyncStatus(ctx, p.ID)
		if err != nil {
			t.Fatalf("SyncStatus() error = %v", err)
		}
		if synced.Status != transaction.PayoutStatusProcessing {
			t.Errorf("status = %s, want PROCESSING", synced.Status)
		}
	})

	t.Run("payout without a transfer in flight conflicts", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{err: xerrors.ErrGatewayUnavailable}
		svc, _ := testDispatcher(payouts, gateway)

		// Dispatch fails, so the payout never left PENDING.
		p, err := svc.Dispatch(ctx, completedSale(), sellerTier())
		if !errors.Is(err, xerrors.ErrGatewayUnavailable) {
			t.Fatalf("error = %v, want ErrGatewayUnavailable", err)
		}

		_, err = svc.SyncStatus(ctx, p.ID)
		if !errors.Is(err, xerrors.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
		if gateway.verifyCalls != 0 {
			t.Errorf("verify calls = %d, want 0", gateway.verifyCalls)
		}
	})

	t.Run("verify outage does not change the payout", func(t *testing.T) {
		payouts := newFakePayoutStore()
		gateway := &fakeGateway{handleID: "transfer-55", verifyErr: xerrors.ErrGatewayUnavailable}
		svc, _ := testDispatcher(payouts, gateway)
		p := dispatched(t, payouts, gateway)

		_, err := svc.SyncStatus(ctx, p.ID)
		if !errors.Is(err, xerrors.ErrGatewayUnavailable) {
			t.Fatalf("error = %v, want ErrGatewayUnavailable", err)
		}
		stored, err := payouts.FindByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if stored.Status != transaction.PayoutStatusProcessing {
			t.Errorf("status = %s, want PROCESSING untouched", stored.Status)
		}
	})

	t.Run("unknown payout id is not found", func(t *testing.T) {
		svc, _ := testDispatcher(newFakePayoutStore(), &fakeGateway{})

		_, err := svc.SyncStatus(ctx, 999)
		if !errors.Is(err, xerrors.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
