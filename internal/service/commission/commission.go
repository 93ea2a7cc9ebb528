// internal/service/commission/commission.go
package commission

import "github.com/shopspring/decimal"

// minorUnits is the settlement currency's fractional precision.
const minorUnits = 2

// Rates holds the platform commission fractions per seller tier.
type Rates struct {
	Owner   decimal.Decimal
	Default decimal.Decimal
	Pro     decimal.Decimal
}

// Split is the division of a gross sale amount.
type Split struct {
	Commission   decimal.Decimal
	SellerAmount decimal.Decimal
}

// Compute splits a gross amount into platform commission and seller
// proceeds. Owner rate wins over pro rate; seller amount is derived by
// subtraction so that Commission + SellerAmount == amount exactly.
func Compute(amount decimal.Decimal, isOwner, isPro bool, rates Rates) Split {
	rate := rates.Default
	if isOwner {
		rate = rates.Owner
	} else if isPro {
		rate = rates.Pro
	}

	commission := amount.Mul(rate).Round(minorUnits)
	return Split{
		Commission:   commission,
		SellerAmount: amount.Sub(commission),
	}
}
