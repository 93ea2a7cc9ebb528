// internal/domain/seller/entity.go
package seller

import (
	"database/sql"
	"time"
)

type Profile struct {
	UserID              int64          `json:"user_id" db:"user_id"`
	IsOwner             bool           `json:"is_owner" db:"is_owner"`
	MobileMoneyNumber   sql.NullString `json:"mobile_money_number,omitempty" db:"mobile_money_number"`
	MobileMoneyProvider sql.NullString `json:"mobile_money_provider,omitempty" db:"mobile_money_provider"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

type SubscriptionPlan string

const (
	PlanFree SubscriptionPlan = "FREE"
	PlanPro  SubscriptionPlan = "PRO"
)

// TierContext is the seller attributes frozen into a transaction's
// commission fields at creation time.
type TierContext struct {
	IsOwner             bool
	IsPro               bool
	MobileMoneyNumber   string
	MobileMoneyProvider string
}

// HasPayoutDetails reports whether seller proceeds can be disbursed.
func (t TierContext) HasPayoutDetails() bool {
	return t.MobileMoneyNumber != "" && t.MobileMoneyProvider != ""
}

type UpdatePayoutDetailsInput struct {
	MobileMoneyNumber   string `json:"mobile_money_number" binding:"required"`
	MobileMoneyProvider string `json:"mobile_money_provider" binding:"required,oneof=MTN ORANGE"`
}
