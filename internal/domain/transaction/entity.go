// internal/domain/transaction/entity.go
package transaction

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard              PaymentMethod = "card"
	PaymentMethodMobileMoneyMTN    PaymentMethod = "mobile_money_mtn"
	PaymentMethodMobileMoneyOrange PaymentMethod = "mobile_money_orange"
)

// Valid reports whether the method is one the platform accepts.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodMobileMoneyMTN, PaymentMethodMobileMoneyOrange:
		return true
	}
	return false
}

// IsMobileMoney reports whether the method settles through a mobile wallet.
func (m PaymentMethod) IsMobileMoney() bool {
	return m == PaymentMethodMobileMoneyMTN || m == PaymentMethodMobileMoneyOrange
}

// Network returns the mobile-money network code expected by the gateway.
func (m PaymentMethod) Network() string {
	switch m {
	case PaymentMethodMobileMoneyMTN:
		return "MTN"
	case PaymentMethodMobileMoneyOrange:
		return "ORANGE"
	}
	return ""
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Transaction is one purchase attempt. The commission split is frozen
// at creation time from the seller's tier; status is written only by
// the ledger service.
type Transaction struct {
	ID     int64  `json:"id" db:"id"`
	TxRef  string `json:"tx_ref" db:"tx_ref"`

	BuyerID   int64 `json:"buyer_id" db:"buyer_id"`
	SellerID  int64 `json:"seller_id" db:"seller_id"`
	ProductID int64 `json:"product_id" db:"product_id"`

	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Commission   decimal.Decimal `json:"commission" db:"commission"`
	SellerAmount decimal.Decimal `json:"seller_amount" db:"seller_amount"`
	Currency     string          `json:"currency" db:"currency"`

	PaymentMethod PaymentMethod  `json:"payment_method" db:"payment_method"`
	Status        Status         `json:"status" db:"status"`
	GatewayTxID   sql.NullString `json:"gateway_tx_id,omitempty" db:"gateway_tx_id"`
	FailureReason sql.NullString `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "PENDING"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusCompleted  PayoutStatus = "COMPLETED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
)

// Payout is one disbursement of seller proceeds, 1:1 with a completed
// transaction. A payout failure never affects its transaction.
type Payout struct {
	ID            int64  `json:"id" db:"id"`
	Reference     string `json:"reference" db:"reference"`
	SellerID      int64  `json:"seller_id" db:"seller_id"`
	TransactionID int64  `json:"transaction_id" db:"transaction_id"`

	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Currency string          `json:"currency" db:"currency"`
	Status   PayoutStatus    `json:"status" db:"status"`

	MobileMoneyNumber   string `json:"mobile_money_number" db:"mobile_money_number"`
	MobileMoneyProvider string `json:"mobile_money_provider" db:"mobile_money_provider"`

	GatewayPayoutID sql.NullString `json:"gateway_payout_id,omitempty" db:"gateway_payout_id"`
	GatewayRef      sql.NullString `json:"gateway_ref,omitempty" db:"gateway_ref"`
	FailureReason   sql.NullString `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
