package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/beauty-admin/internal/domain/money"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCalcSpecialPrice(t *testing.T) {
	tests := []struct {
		name    string
		base    money.Cents
		typ     DiscountType
		value   decimal.Decimal
		want    money.Cents
		wantErr bool
	}{
		{name: "percent 20 off", base: 10000, typ: DiscountPercent, value: d("20"), want: 8000},
		{name: "percent rounds to cents", base: 999, typ: DiscountPercent, value: d("15"), want: 849},
		{name: "percent 100 is free", base: 4500, typ: DiscountPercent, value: d("100"), want: 0},
		{name: "percent above 100 clamps", base: 4500, typ: DiscountPercent, value: d("150"), want: 0},
		{name: "percent zero keeps price", base: 4500, typ: DiscountPercent, value: d("0"), want: 4500},
		{name: "amount off", base: 10000, typ: DiscountAmountOff, value: d("2500"), want: 7500},
		{name: "amount off clamps at zero", base: 1000, typ: DiscountAmountOff, value: d("2500"), want: 0},
		{name: "fixed price verbatim", base: 10000, typ: DiscountFixedPrice, value: d("12999"), want: 12999},
		{name: "negative value rejected", base: 10000, typ: DiscountAmountOff, value: d("-1"), wantErr: true},
		{name: "unknown type rejected", base: 10000, typ: DiscountType("bogo"), value: d("1"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalcSpecialPrice(tt.base, tt.typ, tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDiscount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalcSpecialPrice_Bounds(t *testing.T) {
	bases := []money.Cents{0, 1, 99, 1000, 123456}
	values := []string{"0", "0.5", "1", "33.33", "50", "100", "250", "99999"}

	for _, base := range bases {
		for _, v := range values {
			for _, typ := range []DiscountType{DiscountPercent, DiscountAmountOff, DiscountFixedPrice} {
				got, err := CalcSpecialPrice(base, typ, d(v))
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got, money.Cents(0), "%s %s on %d", typ, v, base)
				if typ != DiscountFixedPrice {
					assert.LessOrEqual(t, got, base, "%s %s on %d", typ, v, base)
				}
			}
		}
	}
}

func TestAdjustPrice(t *testing.T) {
	tests := []struct {
		name  string
		old   money.Cents
		adj   Adjustment
		value decimal.Decimal
		want  money.Cents
	}{
		{name: "percent increase 10", old: 10000, adj: AdjustPercent, value: d("10"), want: 11000},
		{name: "percent decrease", old: 10000, adj: AdjustPercent, value: d("-25"), want: 7500},
		{name: "percent to zero clamps to 1", old: 10000, adj: AdjustPercent, value: d("-100"), want: 1},
		{name: "increase rand", old: 10000, adj: AdjustIncrease, value: d("12.50"), want: 11250},
		{name: "decrease rand", old: 10000, adj: AdjustDecrease, value: d("20"), want: 8000},
		{name: "decrease clamps to 1", old: 100, adj: AdjustDecrease, value: d("50.00"), want: 1},
		{name: "set", old: 100, adj: AdjustSet, value: d("349.99"), want: 34999},
		{name: "set zero clamps to 1", old: 100, adj: AdjustSet, value: d("0"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustPrice(tt.old, tt.adj, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdjustPrice_UnknownType(t *testing.T) {
	_, err := AdjustPrice(100, Adjustment("double"), d("1"))
	require.ErrorIs(t, err, ErrInvalidAdjustment)
}
