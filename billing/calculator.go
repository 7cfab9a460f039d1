// Package billing holds the single canonical derivation of monetary
// totals for orders and bills. Every call site (order mutations, bill
// generation, discount re-derivation) goes through Calculator so the
// arithmetic cannot drift between screens.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/dinehub/restaurant-pos/apperrors"
	"github.com/dinehub/restaurant-pos/models"
)

// Line is one priced row entering the derivation.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
	Cancelled bool
}

// Discount is either a percentage of the subtotal (0-100) or an
// absolute amount. Zero value means no discount.
type Discount struct {
	Percent *decimal.Decimal
	Amount  *decimal.Decimal
}

// Totals is the full derived breakdown. All fields carry at most two
// decimal places; Final is the exact sum of TaxableBase, Tax and
// ServiceCharge so the identities hold without drift.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	TaxableBase   decimal.Decimal `json:"taxable_base"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	Final         decimal.Decimal `json:"final"`
}

var (
	hundred = decimal.NewFromInt(100)
)

// Calculator computes totals against configured tax and service rates.
type Calculator struct {
	TaxRate     decimal.Decimal
	ServiceRate decimal.Decimal
}

// New returns a Calculator with the given rates, e.g. 0.10 and 0.05.
func New(taxRate, serviceRate decimal.Decimal) Calculator {
	return Calculator{TaxRate: taxRate, ServiceRate: serviceRate}
}

// Totals derives subtotal, discount, taxable base, tax, service charge
// and final amount from the given lines. Cancelled lines are excluded
// from the subtotal. Rounding to two places happens per derived
// component, never mid-multiplication.
func (c Calculator) Totals(lines []Line, disc Discount) (Totals, error) {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Cancelled {
			continue
		}
		if l.Quantity < 1 {
			return Totals{}, apperrors.E(apperrors.KindValidation, "line quantity must be at least 1, got %d", l.Quantity)
		}
		if l.UnitPrice.IsNegative() {
			return Totals{}, apperrors.E(apperrors.KindValidation, "unit price must not be negative, got %s", l.UnitPrice)
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discount, err := normalizeDiscount(disc, subtotal)
	if err != nil {
		return Totals{}, err
	}

	base := subtotal.Sub(discount)
	tax := base.Mul(c.TaxRate).Round(2)
	service := base.Mul(c.ServiceRate).Round(2)

	return Totals{
		Subtotal:      subtotal.Round(2),
		Discount:      discount,
		TaxableBase:   base.Round(2),
		Tax:           tax,
		ServiceCharge: service,
		Final:         base.Add(tax).Add(service).Round(2),
	}, nil
}

// LinesFromOrderItems converts persisted order items into derivation
// lines, marking cancelled items so they drop out of the subtotal.
func LinesFromOrderItems(items []models.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Cancelled: it.Status == models.ItemStatusCancelled,
		})
	}
	return lines
}

// LinesFromBillItems converts a bill's frozen snapshot into derivation
// lines.
func LinesFromBillItems(items []models.BillItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

// normalizeDiscount converts a percent-or-amount discount into an
// absolute amount no larger than the subtotal. A discount exceeding
// the subtotal is rejected rather than clamped; a negative result
// clamps to zero.
func normalizeDiscount(disc Discount, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if disc.Percent != nil && disc.Amount != nil {
		return decimal.Zero, apperrors.E(apperrors.KindValidation, "discount cannot be both percent and amount")
	}

	var amount decimal.Decimal
	switch {
	case disc.Percent != nil:
		p := *disc.Percent
		if p.IsNegative() || p.GreaterThan(hundred) {
			return decimal.Zero, apperrors.E(apperrors.KindValidation, "discount percent must be between 0 and 100, got %s", p)
		}
		amount = subtotal.Mul(p).Div(hundred).Round(2)
	case disc.Amount != nil:
		amount = *disc.Amount
		if amount.IsNegative() {
			return decimal.Zero, apperrors.E(apperrors.KindValidation, "discount amount must not be negative, got %s", amount)
		}
		amount = amount.Round(2)
	default:
		return decimal.Zero, nil
	}

	if amount.GreaterThan(subtotal) {
		return decimal.Zero, apperrors.E(apperrors.KindValidation, "discount %s exceeds subtotal %s", amount, subtotal)
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount, nil
}

// PercentDiscount is a convenience constructor for a percentage
// discount.
func PercentDiscount(p float64) Discount {
	d := decimal.NewFromFloat(p)
	return Discount{Percent: &d}
}

// AmountDiscount is a convenience constructor for an absolute
// discount.
func AmountDiscount(a decimal.Decimal) Discount {
	return Discount{Amount: &a}
}
