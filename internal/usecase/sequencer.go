package usecase

import (
	"math"
	"sort"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// OrderBatches holds the two execution batches in their mandatory order.
// CloseOrders (reduce-only) is always submitted in full before OpenOrders:
// de-risking precedes adding risk.
type OrderBatches struct {
	CloseOrders []domain.OrderIntent
	OpenOrders  []domain.OrderIntent
}

// SequenceIntents splits intents into the two batches, applies the
// minimum-size filters to the risk-adding batch, and orders each batch with
// margin-reducing legs first.
func SequenceIntents(intents []domain.OrderIntent) OrderBatches {
	var batches OrderBatches
	for _, intent := range intents {
		switch {
		case intent.ClosePosition && intent.CoinAmount != 0:
			// Closes are never size-filtered; residual dust must still be
			// flattened.
			batches.CloseOrders = append(batches.CloseOrders, intent)
		case !intent.ClosePosition && clearsMinimums(intent):
			batches.OpenOrders = append(batches.OpenOrders, intent)
		}
		// Anything else is too small for the exchange to accept and is
		// dropped, not an error.
	}
	sortByPriority(batches.CloseOrders)
	sortByPriority(batches.OpenOrders)
	return batches
}

func clearsMinimums(intent domain.OrderIntent) bool {
	quantized := QuantizeQuantity(math.Abs(intent.CoinAmount), intent.StepSize, intent.SizeDecimals)
	return quantized >= intent.MinOrderSize &&
		math.Abs(intent.CoinAmount)*intent.MarketPrice >= intent.MinNotionalSize
}

func sortByPriority(intents []domain.OrderIntent) {
	sort.SliceStable(intents, func(i, j int) bool {
		return intents[i].ExecutePriority && !intents[j].ExecutePriority
	})
}
