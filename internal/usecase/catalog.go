package usecase

import (
	"math"
	"sort"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// MarketCatalog indexes exchange reference data by symbol for one run.
type MarketCatalog struct {
	markets map[string]domain.MarketInfo
}

// BuildMarketCatalog merges raw order-book records with last trade prices
// into a per-symbol lookup.
func BuildMarketCatalog(books []domain.OrderBookRecord, lastPrices map[string]float64) *MarketCatalog {
	markets := make(map[string]domain.MarketInfo, len(books))
	for _, ob := range books {
		markets[ob.Symbol] = domain.MarketInfo{
			Symbol:          ob.Symbol,
			MarketID:        ob.MarketID,
			MinOrderSize:    ob.MinBaseAmount,
			MinNotionalSize: ob.MinQuoteAmount,
			StepSize:        1 / math.Pow10(ob.SupportedSizeDecimals),
			SizeDecimals:    ob.SupportedSizeDecimals,
			PriceDecimals:   ob.SupportedPriceDecimals,
			LastPrice:       lastPrices[ob.Symbol],
		}
	}
	return &MarketCatalog{markets: markets}
}

// Lookup returns the market info for symbol. A miss reports the symbol and
// every known symbol so a misconfigured allocation is diagnosable.
func (c *MarketCatalog) Lookup(symbol string) (domain.MarketInfo, error) {
	info, ok := c.markets[symbol]
	if !ok {
		return domain.MarketInfo{}, &domain.MarketNotFoundError{Symbol: symbol, Known: c.Symbols()}
	}
	return info, nil
}

// Symbols lists every indexed symbol in stable order.
func (c *MarketCatalog) Symbols() []string {
	symbols := make([]string, 0, len(c.markets))
	for s := range c.markets {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
