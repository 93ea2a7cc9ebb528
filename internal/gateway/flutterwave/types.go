// internal/gateway/flutterwave/types.go
package flutterwave

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Customer identifies the paying buyer in gateway requests.
type Customer struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// CardPaymentRequest initiates a hosted card checkout.
type CardPaymentRequest struct {
	TxRef       string
	Amount      decimal.Decimal
	Currency    string
	Customer    Customer
	RedirectURL string
	Title       string
	Description string
	Meta        map[string]interface{}
}

// MobileMoneyRequest initiates a franco mobile-money charge.
type MobileMoneyRequest struct {
	TxRef       string
	Amount      decimal.Decimal
	Currency    string
	Network     string
	PhoneNumber string
	Email       string
	FullName    string
}

// ChargeHandle is the provider-side handle of a pending charge.
type ChargeHandle struct {
	ID     string
	Status string
}

// VerifiedTransaction is the gateway's authoritative view of a charge,
// fetched through the verify endpoint.
type VerifiedTransaction struct {
	ID       string
	TxRef    string
	Status   string
	Amount   decimal.Decimal
	Currency string
}

// Successful reports whether the gateway considers the charge settled.
func (v *VerifiedTransaction) Successful() bool {
	return v.Status == "successful"
}

// Failed reports whether the gateway considers the charge failed.
func (v *VerifiedTransaction) Failed() bool {
	return v.Status == "failed"
}

// PayoutRequest initiates a transfer of seller proceeds.
type PayoutRequest struct {
	AccountBank     string
	AccountNumber   string
	Amount          decimal.Decimal
	Currency        string
	Narration       string
	Reference       string
	BeneficiaryName string
}

// TransferHandle is the provider-side handle of a dispatched transfer.
type TransferHandle struct {
	ID        string
	Reference string
	Status    string
}

// ----- wire shapes -----

type paymentPayload struct {
	TxRef          string          `json:"tx_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PaymentOptions string          `json:"payment_options"`
	RedirectURL    string          `json:"redirect_url"`
	Customer       Customer        `json:"customer"`
	Customizations struct {
		Title       string `json:"title,omitempty"`
		Description string `json:"description,omitempty"`
	} `json:"customizations"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

type momoPayload struct {
	TxRef       string          `json:"tx_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Network     string          `json:"network"`
	Email       string          `json:"email"`
	PhoneNumber string          `json:"phone_number"`
	FullName    string          `json:"fullname"`
}

type transferPayload struct {
	AccountBank     string          `json:"account_bank"`
	AccountNumber   string          `json:"account_number"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Narration       string          `json:"narration"`
	Reference       string          `json:"reference"`
	BeneficiaryName string          `json:"beneficiary_name,omitempty"`
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type linkData struct {
	Link string `json:"link"`
}

type chargeData struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

type verifyData struct {
	ID       json.Number     `json:"id"`
	TxRef    string          `json:"tx_ref"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type transferData struct {
	ID        json.Number `json:"id"`
	Reference string      `json:"reference"`
	Status    string      `json:"status"`
}
