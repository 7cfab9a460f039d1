package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehub/restaurant-pos/apperrors"
)

func defaultCalc() Calculator {
	return New(decimal.NewFromFloat(0.10), decimal.NewFromFloat(0.05))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTotalsNoDiscount(t *testing.T) {
	calc := defaultCalc()

	lines := []Line{
		{UnitPrice: dec("12.99"), Quantity: 2},
	}
	got, err := calc.Totals(lines, Discount{})
	require.NoError(t, err)

	assert.True(t, got.Subtotal.Equal(dec("25.98")), "subtotal = %s", got.Subtotal)
	assert.True(t, got.TaxableBase.Equal(dec("25.98")))
	assert.True(t, got.Tax.Equal(dec("2.60")), "tax = %s", got.Tax)
	assert.True(t, got.ServiceCharge.Equal(dec("1.30")), "service = %s", got.ServiceCharge)
	// 25.98 * 1.15 = 29.877 -> components round to 29.88
	assert.True(t, got.Final.Equal(dec("29.88")), "final = %s", got.Final)
}

func TestTotalsPercentDiscount(t *testing.T) {
	calc := defaultCalc()

	lines := []Line{
		{UnitPrice: dec("50.00"), Quantity: 2},
	}
	got, err := calc.Totals(lines, PercentDiscount(10))
	require.NoError(t, err)

	assert.True(t, got.Subtotal.Equal(dec("100.00")))
	assert.True(t, got.Discount.Equal(dec("10.00")))
	assert.True(t, got.TaxableBase.Equal(dec("90.00")))
	assert.True(t, got.Tax.Equal(dec("9.00")))
	assert.True(t, got.ServiceCharge.Equal(dec("4.50")))
	assert.True(t, got.Final.Equal(dec("103.50")))
}

func TestTotalsIdentitiesHold(t *testing.T) {
	calc := defaultCalc()

	lines := []Line{
		{UnitPrice: dec("3.33"), Quantity: 3},
		{UnitPrice: dec("7.77"), Quantity: 1},
		{UnitPrice: dec("0.01"), Quantity: 7},
	}
	got, err := calc.Totals(lines, PercentDiscount(12.5))
	require.NoError(t, err)

	// final = taxableBase + tax + serviceCharge exactly
	assert.True(t, got.Final.Equal(got.TaxableBase.Add(got.Tax).Add(got.ServiceCharge)))
	assert.True(t, got.Final.GreaterThanOrEqual(got.TaxableBase))
	assert.True(t, got.Tax.Equal(got.TaxableBase.Mul(calc.TaxRate).Round(2)))
	assert.True(t, got.ServiceCharge.Equal(got.TaxableBase.Mul(calc.ServiceRate).Round(2)))

	// Idempotence: identical input yields identical output.
	again, err := calc.Totals(lines, PercentDiscount(12.5))
	require.NoError(t, err)
	assert.True(t, got.Final.Equal(again.Final))
}

func TestTotalsExcludesCancelledLines(t *testing.T) {
	calc := defaultCalc()

	lines := []Line{
		{UnitPrice: dec("10.00"), Quantity: 1},
		{UnitPrice: dec("99.00"), Quantity: 4, Cancelled: true},
	}
	got, err := calc.Totals(lines, Discount{})
	require.NoError(t, err)
	assert.True(t, got.Subtotal.Equal(dec("10.00")))
}

func TestTotalsRejectsInvalidInput(t *testing.T) {
	calc := defaultCalc()

	_, err := calc.Totals([]Line{{UnitPrice: dec("5.00"), Quantity: 0}}, Discount{})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = calc.Totals([]Line{{UnitPrice: dec("-1.00"), Quantity: 1}}, Discount{})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	// discount larger than subtotal is rejected, not clamped
	_, err = calc.Totals(
		[]Line{{UnitPrice: dec("5.00"), Quantity: 1}},
		AmountDiscount(dec("6.00")),
	)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = calc.Totals([]Line{{UnitPrice: dec("5.00"), Quantity: 1}}, PercentDiscount(101))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = calc.Totals([]Line{{UnitPrice: dec("5.00"), Quantity: 1}}, PercentDiscount(-1))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestTotalsDiscountEqualToSubtotal(t *testing.T) {
	calc := defaultCalc()

	got, err := calc.Totals(
		[]Line{{UnitPrice: dec("20.00"), Quantity: 1}},
		PercentDiscount(100),
	)
	require.NoError(t, err)
	assert.True(t, got.TaxableBase.IsZero())
	assert.True(t, got.Final.IsZero())
}

func TestSplitEvenly(t *testing.T) {
	shares, err := Split(dec("100.00"), 4)
	require.NoError(t, err)
	require.Len(t, shares, 4)
	for _, s := range shares {
		assert.True(t, s.Equal(dec("25.00")))
	}
}

func TestSplitRemainderGoesToFirstShare(t *testing.T) {
	shares, err := Split(dec("100.01"), 3)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	assert.True(t, shares[0].Equal(dec("33.35")), "first = %s", shares[0])
	assert.True(t, shares[1].Equal(dec("33.33")))
	assert.True(t, shares[2].Equal(dec("33.33")))

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	assert.True(t, sum.Equal(dec("100.01")))
}

func TestSplitRejectsBadParts(t *testing.T) {
	_, err := Split(dec("10.00"), 1)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
