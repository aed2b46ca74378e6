package usecase_test

import (
	"context"
	"sync"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// gatewayCall records one mutation issued to the mock trading session.
type gatewayCall struct {
	Kind     string // "leverage" or "order"
	MarketID int
	Leverage int
	Mode     domain.MarginMode
	Order    domain.MarketOrderRequest
}

type MockSession struct {
	Calls          []gatewayCall
	LeverageErr    error
	OrderErr       error
	AckCode        int
	NilAck         bool
	Closed         bool
	AckCodeBySeq   map[int]int // call sequence -> ack code override
	orderCallCount int
}

func NewMockSession() *MockSession {
	return &MockSession{AckCode: domain.AckCodeOK}
}

func (m *MockSession) UpdateLeverage(ctx context.Context, marketID int, leverage int, mode domain.MarginMode) error {
	m.Calls = append(m.Calls, gatewayCall{Kind: "leverage", MarketID: marketID, Leverage: leverage, Mode: mode})
	return m.LeverageErr
}

func (m *MockSession) CreateMarketOrder(ctx context.Context, req domain.MarketOrderRequest) (*domain.OrderAck, error) {
	m.Calls = append(m.Calls, gatewayCall{Kind: "order", MarketID: req.MarketID, Order: req})
	m.orderCallCount++
	if m.OrderErr != nil {
		return nil, m.OrderErr
	}
	if m.NilAck {
		return nil, nil
	}
	code := m.AckCode
	if override, ok := m.AckCodeBySeq[m.orderCallCount]; ok {
		code = override
	}
	return &domain.OrderAck{Code: code, TxHash: "0xmock"}, nil
}

func (m *MockSession) Close() error {
	m.Closed = true
	return nil
}

func (m *MockSession) OrderRequests() []domain.MarketOrderRequest {
	var reqs []domain.MarketOrderRequest
	for _, call := range m.Calls {
		if call.Kind == "order" {
			reqs = append(reqs, call.Order)
		}
	}
	return reqs
}

type MockSecrets struct {
	Creds *domain.Credentials
	Err   error
	Calls int
}

func (m *MockSecrets) GetCredentials(ctx context.Context, account string) (*domain.Credentials, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Creds != nil {
		return m.Creds, nil
	}
	return &domain.Credentials{PrivateKey: "key", APIKeyIndex: 1, WalletAddress: "0xabc"}, nil
}

type MockMarketData struct {
	Snapshot *domain.AccountSnapshot
	Books    []domain.OrderBookRecord
	Prices   map[string]float64
	Err      error
	Calls    int
}

func (m *MockMarketData) GetAccount(ctx context.Context, l1Address string) (*domain.AccountSnapshot, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Snapshot, nil
}

func (m *MockMarketData) GetOrderBooks(ctx context.Context) ([]domain.OrderBookRecord, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Books, nil
}

func (m *MockMarketData) GetLastPrices(ctx context.Context) (map[string]float64, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Prices, nil
}

type MockSessionFactory struct {
	Session *MockSession
	Err     error
}

func (m *MockSessionFactory) NewSession(ctx context.Context, creds *domain.Credentials) (domain.TradingSession, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Session, nil
}

// MockSink records every pushed alert message.
type MockSink struct {
	mu       sync.Mutex
	Messages []string
	To       []string
	Err      error
}

func (m *MockSink) Push(ctx context.Context, recipient string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.To = append(m.To, recipient)
	m.Messages = append(m.Messages, message)
	return m.Err
}

func (m *MockSink) Pushed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Messages))
	copy(out, m.Messages)
	return out
}
