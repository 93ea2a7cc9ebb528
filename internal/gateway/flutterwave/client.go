// internal/gateway/flutterwave/client.go
package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	xerrors "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/errors"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.flutterwave.com/v3"

// Client talks to the Flutterwave v3 REST API. It is the only component
// allowed to make outbound calls to the payment provider; no retries
// are built in at this layer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	logger     *zap.Logger
}

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		secretKey:  cfg.SecretKey,
		logger:     logger,
	}
}

// InitiateCardPayment creates a hosted checkout session and returns the
// payment link the buyer is redirected to.
func (c *Client) InitiateCardPayment(ctx context.Context, req CardPaymentRequest) (string, error) {
	payload := paymentPayload{
		TxRef:          req.TxRef,
		Amount:         req.Amount,
		Currency:       req.Currency,
		PaymentOptions: "card",
		RedirectURL:    req.RedirectURL,
		Customer:       req.Customer,
		Meta:           req.Meta,
	}
	payload.Customizations.Title = req.Title
	payload.Customizations.Description = req.Description

	var data linkData
	if err := c.post(ctx, "/payments", payload, &data); err != nil {
		return "", err
	}
	if data.Link == "" {
		return "", fmt.Errorf("%w: no payment link in response", xerrors.ErrGatewayUnavailable)
	}
	return data.Link, nil
}

// InitiateMobileMoneyPayment starts a franco-region mobile money charge.
func (c *Client) InitiateMobileMoneyPayment(ctx context.Context, req MobileMoneyRequest) (*ChargeHandle, error) {
	payload := momoPayload{
		TxRef:       req.TxRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Network:     req.Network,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		FullName:    req.FullName,
	}

	var data chargeData
	if err := c.post(ctx, "/charges?type=mobile_money_franco", payload, &data); err != nil {
		return nil, err
	}
	return &ChargeHandle{ID: data.ID.String(), Status: data.Status}, nil
}

// VerifyTransaction fetches the authoritative state of a charge. Webhook
// callbacks must never be trusted without this call.
func (c *Client) VerifyTransaction(ctx context.Context, gatewayTxID string) (*VerifiedTransaction, error) {
	var data verifyData
	if err := c.get(ctx, "/transactions/"+gatewayTxID+"/verify", &data); err != nil {
		return nil, err
	}
	return &VerifiedTransaction{
		ID:       data.ID.String(),
		TxRef:    data.TxRef,
		Status:   data.Status,
		Amount:   data.Amount,
		Currency: data.Currency,
	}, nil
}

// InitiatePayout asks the gateway to move seller proceeds to a mobile
// money account. Rejections surface as ErrPayoutRejected.
func (c *Client) InitiatePayout(ctx context.Context, req PayoutRequest) (*TransferHandle, error) {
	payload := transferPayload{
		AccountBank:     req.AccountBank,
		AccountNumber:   req.AccountNumber,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Narration:       req.Narration,
		Reference:       req.Reference,
		BeneficiaryName: req.BeneficiaryName,
	}

	var data transferData
	if err := c.postTransfer(ctx, "/transfers", payload, &data); err != nil {
		return nil, err
	}
	return &TransferHandle{ID: data.ID.String(), Reference: data.Reference, Status: data.Status}, nil
}

// VerifyPayout fetches the current state of a dispatched transfer.
func (c *Client) VerifyPayout(ctx context.Context, transferID string) (*TransferHandle, error) {
	var data transferData
	if err := c.get(ctx, "/transfers/"+transferID, &data); err != nil {
		return nil, err
	}
	return &TransferHandle{ID: data.ID.String(), Reference: data.Reference, Status: data.Status}, nil
}

// ----- transport helpers -----

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, payload, out, false)
}

func (c *Client) postTransfer(ctx context.Context, path string, payload, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, payload, out, true)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}, transfer bool) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", xerrors.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("gateway returned server error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
		)
		return fmt.Errorf("%w: http %d", xerrors.ErrGatewayUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: malformed response: %v", xerrors.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || env.Status == "error" {
		// Transfer rejections are a distinct, surfaced condition:
		// invalid destination, insufficient balance, compliance block.
		if transfer {
			return fmt.Errorf("%w: %s", xerrors.ErrPayoutRejected, env.Message)
		}
		return fmt.Errorf("%w: %s", xerrors.ErrGatewayUnavailable, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed response data: %v", xerrors.ErrGatewayUnavailable, err)
		}
	}
	return nil
}
