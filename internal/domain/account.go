package domain

// MarginMode is the per-market margin configuration on the exchange.
type MarginMode int

const (
	MarginModeCross    MarginMode = 0
	MarginModeIsolated MarginMode = 1
)

// RawPosition is one position row as reported by the exchange account
// snapshot. Size is an unsigned magnitude; Sign carries the direction.
type RawPosition struct {
	Symbol                string
	Size                  float64
	Sign                  int
	MarginMode            MarginMode
	InitialMarginFraction float64 // percent of notional, e.g. 20 => 5x leverage
}

// AccountSnapshot is the raw exchange view of one account, fetched once per
// rebalance run.
type AccountSnapshot struct {
	AccountIndex    int64
	TotalAssetValue float64
	Positions       []RawPosition
}

// Position is an open position normalized for one rebalance run.
// QuantityPercentage is the fraction of total margin the position consumes.
type Position struct {
	Symbol             string     `json:"symbol"`
	Quantity           float64    `json:"quantity"`
	QuantityPercentage float64    `json:"quantityPercentage"`
	Leverage           int        `json:"leverage"`
	MarginMode         MarginMode `json:"marginMode"`
}

// AccountState is the immutable account view a rebalance run plans against.
// TotalMarginBalance already carries the safety haircut.
type AccountState struct {
	TotalMarginBalance float64
	Positions          []Position
}

// TargetAllocation is one caller-supplied target: a fraction of total margin
// (signed, short targets are negative) and the desired leverage.
type TargetAllocation struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Leverage int     `json:"leverage"`
}

// Credentials is the signing material returned by the secrets provider.
type Credentials struct {
	PrivateKey    string
	APIKeyIndex   int
	WalletAddress string
}
