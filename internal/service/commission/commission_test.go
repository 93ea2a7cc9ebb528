package commission

import (
	"testing"

	"github.com/shopspring/decimal"
)

func defaultRates() Rates {
	return Rates{
		Owner:   decimal.Zero,
		Default: decimal.NewFromFloat(0.10),
		Pro:     decimal.NewFromFloat(0.05),
	}
}

func TestCompute_TierPrecedence(t *testing.T) {
	amount := decimal.NewFromInt(10000)
	rates := defaultRates()

	tests := []struct {
		name           string
		isOwner, isPro bool
		wantCommission string
	}{
		{"default tier", false, false, "1000"},
		{"pro tier", false, true, "500"},
		{"owner tier", true, false, "0"},
		{"owner wins over pro", true, true, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := Compute(amount, tt.isOwner, tt.isPro, rates)

			want := decimal.RequireFromString(tt.wantCommission)
			if !split.Commission.Equal(want) {
				t.Errorf("commission = %s, want %s", split.Commission, want)
			}
			if !split.Commission.Add(split.SellerAmount).Equal(amount) {
				t.Errorf("money not conserved: %s + %s != %s",
					split.Commission, split.SellerAmount, amount)
			}
		})
	}
}

func TestCompute_MoneyConservation(t *testing.T) {
	amounts := []string{"10000", "9999", "0.01", "333.33", "123456.78", "1"}
	rateSets := []Rates{
		defaultRates(),
		{Owner: decimal.Zero, Default: decimal.Zero, Pro: decimal.Zero},
		{Owner: decimal.NewFromInt(1), Default: decimal.NewFromInt(1), Pro: decimal.NewFromInt(1)},
		{Owner: decimal.NewFromFloat(0.03), Default: decimal.NewFromFloat(0.15), Pro: decimal.NewFromFloat(0.07)},
	}

	for _, a := range amounts {
		amount := decimal.RequireFromString(a)
		for _, rates := range rateSets {
			for _, isOwner := range []bool{false, true} {
				for _, isPro := range []bool{false, true} {
					split := Compute(amount, isOwner, isPro, rates)
					if !split.Commission.Add(split.SellerAmount).Equal(amount) {
						t.Errorf("amount=%s owner=%v pro=%v: %s + %s != %s",
							a, isOwner, isPro, split.Commission, split.SellerAmount, amount)
					}
				}
			}
		}
	}
}

func TestCompute_BoundaryRates(t *testing.T) {
	amount := decimal.NewFromInt(5000)

	t.Run("zero rate leaves everything to the seller", func(t *testing.T) {
		split := Compute(amount, false, false, Rates{Default: decimal.Zero})
		if !split.Commission.IsZero() {
			t.Errorf("commission = %s, want 0", split.Commission)
		}
		if !split.SellerAmount.Equal(amount) {
			t.Errorf("seller amount = %s, want %s", split.SellerAmount, amount)
		}
	})

	t.Run("full rate leaves nothing to the seller", func(t *testing.T) {
		split := Compute(amount, false, false, Rates{Default: decimal.NewFromInt(1)})
		if !split.Commission.Equal(amount) {
			t.Errorf("commission = %s, want %s", split.Commission, amount)
		}
		if !split.SellerAmount.IsZero() {
			t.Errorf("seller amount = %s, want 0", split.SellerAmount)
		}
	})
}

func TestCompute_Deterministic(t *testing.T) {
	amount := decimal.NewFromFloat(777.77)
	rates := defaultRates()

	first := Compute(amount, false, true, rates)
	for i := 0; i < 10; i++ {
		again := Compute(amount, false, true, rates)
		if !again.Commission.Equal(first.Commission) || !again.SellerAmount.Equal(first.SellerAmount) {
			t.Fatalf("compute is not deterministic: %+v vs %+v", again, first)
		}
	}
}
