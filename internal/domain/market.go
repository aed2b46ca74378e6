package domain

// OrderBookRecord is raw per-market reference data from the exchange.
type OrderBookRecord struct {
	Symbol                 string
	MarketID               int
	MinBaseAmount          float64
	MinQuoteAmount         float64
	SupportedSizeDecimals  int
	SupportedPriceDecimals int
}

// MarketInfo is the trading-constraint view of one market used by the
// planner and executor.
type MarketInfo struct {
	Symbol          string
	MarketID        int
	MinOrderSize    float64
	MinNotionalSize float64
	StepSize        float64
	SizeDecimals    int
	PriceDecimals   int
	LastPrice       float64
}
