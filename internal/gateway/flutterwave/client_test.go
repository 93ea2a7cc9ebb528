package flutterwave

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "FLWSECK_TEST"}, zap.NewNop())
	return client, srv
}

func TestClient_InitiateCardPayment(t *testing.T) {
	t.Run("Given gateway accepts charge When initiated Then returns payment link", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/payments" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer FLWSECK_TEST" {
				t.Errorf("unexpected auth header %q", got)
			}

			var payload map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if payload["tx_ref"] != "TX-1" {
				t.Errorf("tx_ref = %v, want TX-1", payload["tx_ref"])
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.flutterwave.com/v3/hosted/pay/abc"}}`))
		})

		link, err := client.InitiateCardPayment(context.Background(), CardPaymentRequest{
			TxRef:    "TX-1",
			Amount:   decimal.NewFromInt(10000),
			Currency: "XAF",
			Customer: Customer{Email: "buyer@example.com", Name: "Buyer"},
		})
		if err != nil {
			t.Fatalf("InitiateCardPayment failed: %v", err)
		}
		if link != "https://checkout.flutterwave.com/v3/hosted/pay/abc" {
			t.Errorf("unexpected link %q", link)
		}
	})

	t.Run("Given gateway is down When initiated Then returns ErrGatewayUnavailable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.InitiateCardPayment(context.Background(), CardPaymentRequest{TxRef: "TX-2"})
		if !errors.Is(err, xerrors.ErrGatewayUnavailable) {
			t.Errorf("err = %v, want ErrGatewayUnavailable", err)
		}
	})
}

func TestClient_VerifyTransaction(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/8912/verify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","message":"verified","data":{"id":8912,"tx_ref":"TX-3","status":"successful","amount":10000,"currency":"XAF"}}`))
	})

	verified, err := client.VerifyTransaction(context.Background(), "8912")
	if err != nil {
		t.Fatalf("VerifyTransaction failed: %v", err)
	}
	if verified.ID != "8912" || verified.TxRef != "TX-3" {
		t.Errorf("unexpected identity %+v", verified)
	}
	if !verified.Successful() {
		t.Errorf("expected verified charge to be successful, got status %q", verified.Status)
	}
	if !verified.Amount.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("amount = %s, want 10000", verified.Amount)
	}
}

func TestClient_InitiatePayout(t *testing.T) {
	t.Run("Given transfer accepted When initiated Then returns handle", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success","message":"created","data":{"id":345,"reference":"PAYOUT-1","status":"NEW"}}`))
		})

		handle, err := client.InitiatePayout(context.Background(), PayoutRequest{
			AccountBank:   "MTN",
			AccountNumber: "+237670000001",
			Amount:        decimal.NewFromInt(9000),
			Currency:      "XAF",
			Reference:     "PAYOUT-1",
		})
		if err != nil {
			t.Fatalf("InitiatePayout failed: %v", err)
		}
		if handle.ID != "345" || handle.Reference != "PAYOUT-1" {
			t.Errorf("unexpected handle %+v", handle)
		}
	})

	t.Run("Given transfer rejected When initiated Then returns ErrPayoutRejected with reason", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"error","message":"insufficient balance","data":null}`))
		})

		_, err := client.InitiatePayout(context.Background(), PayoutRequest{Reference: "PAYOUT-2"})
		if !errors.Is(err, xerrors.ErrPayoutRejected) {
			t.Fatalf("err = %v, want ErrPayoutRejected", err)
		}
		if got := err.Error(); !strings.Contains(got, "insufficient balance") {
			t.Errorf("error does not carry provider reason: %q", got)
		}
	})
}

func TestClient_VerifyPayout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfers/345" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","message":"fetched","data":{"id":345,"reference":"PAYOUT-1","status":"SUCCESSFUL"}}`))
	})

	handle, err := client.VerifyPayout(context.Background(), "345")
	if err != nil {
		t.Fatalf("VerifyPayout failed: %v", err)
	}
	if handle.ID != "345" || handle.Status != "SUCCESSFUL" {
		t.Errorf("unexpected handle %+v", handle)
	}
}
