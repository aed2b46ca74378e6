package domain

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderTypeMarket is the only order type this system submits.
const OrderTypeMarket = "MARKET"

// AckCodeOK is the gateway status code for an accepted transaction.
const AckCodeOK = 200

// OrderIntent is the computed rebalance delta for one symbol, with the
// market constraints needed to quantize and file it.
type OrderIntent struct {
	Symbol          string  `json:"symbol"`
	Percentage      float64 `json:"percentage"`
	USDAmount       float64 `json:"usdAmount"`
	CoinAmount      float64 `json:"coinAmount"`
	MinOrderSize    float64 `json:"minOrderSize"`
	MinNotionalSize float64 `json:"minNotionalSize"`
	StepSize        float64 `json:"stepSize"`
	SizeDecimals    int     `json:"sizeDecimals"`
	PriceDecimals   int     `json:"priceDecimals"`
	MarketPrice     float64 `json:"marketPrice"`
	Leverage        int     `json:"leverage"`
	ClosePosition   bool    `json:"closePosition"`
	ExecutePriority bool    `json:"executePriority"`
}

// QuantizedOrder is an exchange-ready market order. Quantity is floored to
// the market's step size and rounded to its size decimals.
type QuantizedOrder struct {
	Symbol           string  `json:"symbol"`
	Side             Side    `json:"side"`
	Type             string  `json:"type"`
	Quantity         float64 `json:"quantity"`
	MarketPrice      float64 `json:"marketPrice"`
	WorstPrice       float64 `json:"worstPrice"`
	SizeDecimals     int     `json:"sizeDecimals"`
	PriceDecimals    int     `json:"priceDecimals"`
	ClientOrderIndex int64   `json:"clientOrderIndex"`
}

// MarketOrderRequest is the trading-gateway submission payload, scaled to
// exchange integer units.
type MarketOrderRequest struct {
	MarketID          int
	ClientOrderIndex  int64
	BaseAmount        int64
	AvgExecutionPrice int64
	IsAsk             bool
	ReduceOnly        bool
}

// OrderAck is the gateway response for one submitted transaction. A non-OK
// Code can arrive even when the submission call itself succeeded.
type OrderAck struct {
	TxHash string `json:"txHash,omitempty"`
	Code   int    `json:"code"`
	Msg    string `json:"msg,omitempty"`
}

// OrderExecution pairs a submitted order with its gateway response.
type OrderExecution struct {
	Order    QuantizedOrder `json:"order"`
	Response *OrderAck      `json:"response"`
}

// RebalanceRequest is the caller input for one rebalance run.
type RebalanceRequest struct {
	Account string             `json:"account"`
	Order   []TargetAllocation `json:"order"`
}

// RebalanceReport is the full trace of a successful run: the positions it
// started from, every planned intent, and both executed batches.
type RebalanceReport struct {
	CurrentPosition        []Position       `json:"currentPosition"`
	AllOrderBeforeAdjusted []OrderIntent    `json:"allOrderBeforeAdjusted"`
	Order1AfterAdjusted    []QuantizedOrder `json:"order1AfterAdjusted"`
	Order2AfterAdjusted    []QuantizedOrder `json:"order2AfterAdjusted"`
	GatewayResponse1       []OrderExecution `json:"gatewayResponse1"`
	GatewayResponse2       []OrderExecution `json:"gatewayResponse2"`
}

// RebalanceResult is the orchestrator's structured outcome.
type RebalanceResult struct {
	Status  string           `json:"status"`
	Account string           `json:"account"`
	Attempt int              `json:"attempt,omitempty"`
	Result  *RebalanceReport `json:"result"`
}
