package usecase

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// DefaultSlippagePct bounds how far a market order may execute from the last
// trade price.
const DefaultSlippagePct = 0.03

func roundTo(v float64, places int) float64 {
	f := math.Pow10(places)
	return math.Round(v*f) / f
}

// QuantizeQuantity floors raw to the market's step size and rounds the
// result to sizeDecimals. The division result is rounded to 8 decimals
// before flooring so float noise cannot push the floor one whole step off.
func QuantizeQuantity(raw, stepSize float64, sizeDecimals int) float64 {
	return roundTo(math.Floor(roundTo(raw/stepSize, 8))*stepSize, sizeDecimals)
}

// WorstAcceptablePrice bounds a market order's execution price with a
// slippage buffer around the last trade price.
func WorstAcceptablePrice(marketPrice float64, side domain.Side, slippagePct float64) float64 {
	if side == domain.SideBuy {
		return marketPrice * (1 + slippagePct)
	}
	return marketPrice * (1 - slippagePct)
}

// ScaleToUnits converts a fractional quantity or price into exchange integer
// units at the given decimal precision.
func ScaleToUnits(v float64, decimals int) int64 {
	return decimal.NewFromFloat(v).Shift(int32(decimals)).Round(0).IntPart()
}
