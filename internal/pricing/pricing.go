// Package pricing computes order totals. It is pure: no I/O, no clock, and
// it never fails. Malformed numeric input is clamped so a displayable total
// always comes out. The live order endpoints, the close flow and the
// reporting aggregator all call the same Compute so a closed order's stored
// total matches what the floor saw before closing.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/enum"
)

var hundred = decimal.NewFromInt(100)

// Discount mirrors store.Discount without importing it, keeping the package
// dependency-free of the persistence layer.
type Discount struct {
	Type  string
	Value decimal.Decimal
}

// Config is the tenant's billing configuration.
type Config struct {
	TaxRatePercent       decimal.Decimal
	ServiceChargePercent decimal.Decimal
	RoundingIncrement    decimal.Decimal
}

// Totals is the full breakdown of one bill.
type Totals struct {
	Subtotal            decimal.Decimal
	DiscountAmount      decimal.Decimal
	DiscountedSubtotal  decimal.Decimal
	ServiceChargeAmount decimal.Decimal
	TaxAmount           decimal.Decimal
	TotalBeforeRounding decimal.Decimal
	RoundingAdjustment  decimal.Decimal
	Total               decimal.Decimal
}

// Compute derives the bill for the given subtotal. The order of operations
// is fixed: discount, then service charge on the discounted subtotal, then
// tax on subtotal+service, then rounding to the tenant's increment.
func Compute(subtotal decimal.Decimal, disc *Discount, cfg Config) Totals {
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	discountAmount := discountAmount(subtotal, disc)

	discountedSubtotal := subtotal.Sub(discountAmount)
	if discountedSubtotal.IsNegative() {
		discountedSubtotal = decimal.Zero
	}

	serviceChargeAmount := discountedSubtotal.Mul(clampPercent(cfg.ServiceChargePercent)).Div(hundred)
	taxableBase := discountedSubtotal.Add(serviceChargeAmount)
	taxAmount := taxableBase.Mul(clampPercent(cfg.TaxRatePercent)).Div(hundred)
	totalBeforeRounding := taxableBase.Add(taxAmount)

	total, adjustment := roundToIncrement(totalBeforeRounding, cfg.RoundingIncrement)

	return Totals{
		Subtotal:            subtotal,
		DiscountAmount:      discountAmount,
		DiscountedSubtotal:  discountedSubtotal,
		ServiceChargeAmount: serviceChargeAmount,
		TaxAmount:           taxAmount,
		TotalBeforeRounding: totalBeforeRounding,
		RoundingAdjustment:  adjustment,
		Total:               total,
	}
}

func discountAmount(subtotal decimal.Decimal, disc *Discount) decimal.Decimal {
	if disc == nil || subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	switch disc.Type {
	case enum.DiscountTypePercent:
		return subtotal.Mul(clampPercent(disc.Value)).Div(hundred)
	case enum.DiscountTypeAmount:
		v := disc.Value
		if v.IsNegative() {
			v = decimal.Zero
		}
		if v.GreaterThan(subtotal) {
			v = subtotal
		}
		return v
	}
	return decimal.Zero
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// roundToIncrement snaps x to the nearest multiple of inc, half away from
// zero, truncated to the increment's own decimal precision (0.05 -> 2
// decimals). The adjustment keeps the exact difference so rounded minus
// pre-rounded always reconciles.
func roundToIncrement(x, inc decimal.Decimal) (total, adjustment decimal.Decimal) {
	if inc.LessThanOrEqual(decimal.Zero) {
		return x, decimal.Zero
	}
	places := -inc.Exponent()
	if places < 0 {
		places = 0
	}
	total = x.DivRound(inc, 16).Round(0).Mul(inc).Truncate(places)
	return total, total.Sub(x)
}
