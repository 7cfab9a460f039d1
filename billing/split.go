package billing

import (
	"github.com/shopspring/decimal"

	"github.com/dinehub/restaurant-pos/apperrors"
)

// Split divides total into parts equal shares. Shares are rounded down
// to the cent and the leftover cents go to the first share, so the
// shares always sum to total exactly.
func Split(total decimal.Decimal, parts int) ([]decimal.Decimal, error) {
	if parts < 2 {
		return nil, apperrors.E(apperrors.KindValidation, "split requires at least 2 parts, got %d", parts)
	}
	if total.IsNegative() {
		return nil, apperrors.E(apperrors.KindValidation, "cannot split negative amount %s", total)
	}

	n := decimal.NewFromInt(int64(parts))
	base := total.Div(n).RoundDown(2)
	remainder := total.Sub(base.Mul(n))

	shares := make([]decimal.Decimal, parts)
	for i := range shares {
		shares[i] = base
	}
	shares[0] = shares[0].Add(remainder)
	return shares, nil
}
