package domain

import "context"

// SecretsProvider returns signing credentials for an account identifier.
type SecretsProvider interface {
	GetCredentials(ctx context.Context, account string) (*Credentials, error)
}

// MarketDataService exposes the exchange's read-only market and account API.
type MarketDataService interface {
	GetAccount(ctx context.Context, l1Address string) (*AccountSnapshot, error)
	GetOrderBooks(ctx context.Context) ([]OrderBookRecord, error)
	GetLastPrices(ctx context.Context) (map[string]float64, error)
}

// TradingSession is a signed connection to the trading gateway, scoped to
// one rebalance run. Close must run on every exit path.
type TradingSession interface {
	UpdateLeverage(ctx context.Context, marketID int, leverage int, mode MarginMode) error
	CreateMarketOrder(ctx context.Context, req MarketOrderRequest) (*OrderAck, error)
	Close() error
}

// SessionFactory opens a TradingSession for one rebalance run.
type SessionFactory interface {
	NewSession(ctx context.Context, creds *Credentials) (TradingSession, error)
}

// AlertSink delivers one plain-text message to one recipient. Delivery is
// best-effort; failures are logged by the caller, never escalated.
type AlertSink interface {
	Push(ctx context.Context, recipient string, message string) error
}
