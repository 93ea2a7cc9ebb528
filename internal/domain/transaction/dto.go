// internal/domain/transaction/dto.go
package transaction

import "github.com/shopspring/decimal"

// InitializePaymentInput is the checkout request body.
type InitializePaymentInput struct {
	ProductID     int64         `json:"product_id" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
	PhoneNumber   string        `json:"phone_number"`
}

// InitializePaymentResult is returned to the checkout UI. Card payments
// carry a redirect link; mobile money carries the provider charge handle.
type InitializePaymentResult struct {
	TransactionID int64  `json:"transaction_id"`
	TxRef         string `json:"tx_ref"`
	PaymentLink   string `json:"payment_link,omitempty"`
	ChargeID      string `json:"charge_id,omitempty"`
	ChargeStatus  string `json:"charge_status,omitempty"`
}

type ListFilters struct {
	Status   *Status `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// SalesSummary aggregates a seller's completed sales.
type SalesSummary struct {
	CompletedSales int64           `json:"completed_sales"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}
