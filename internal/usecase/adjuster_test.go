package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
	"github.com/vitos/futures_rebalancer/internal/usecase"
)

func newTestAdjuster() *usecase.MarginAdjuster {
	return usecase.NewMarginAdjuster(zap.NewNop(), time.Microsecond)
}

func TestAdjust_AlreadyIsolatedAtTargetLeverage(t *testing.T) {
	session := NewMockSession()
	positions := []domain.Position{
		{Symbol: "BTC", Quantity: 0.01, Leverage: 3, MarginMode: domain.MarginModeIsolated},
	}
	intents := []domain.OrderIntent{{Symbol: "BTC", CoinAmount: 0.01, Leverage: 3}}

	err := newTestAdjuster().Adjust(context.Background(), session, intents, positions, testCatalog())
	require.NoError(t, err)
	assert.Empty(t, session.Calls)
}

func TestAdjust_SwitchesCrossPositionToIsolated(t *testing.T) {
	session := NewMockSession()
	positions := []domain.Position{
		{Symbol: "BTC", Quantity: 0.01, Leverage: 3, MarginMode: domain.MarginModeCross},
	}
	intents := []domain.OrderIntent{{Symbol: "BTC", CoinAmount: -0.005, Leverage: 3}}

	err := newTestAdjuster().Adjust(context.Background(), session, intents, positions, testCatalog())
	require.NoError(t, err)

	// Mode switch at the current leverage; target leverage already matches so
	// no second call.
	require.Len(t, session.Calls, 1)
	call := session.Calls[0]
	assert.Equal(t, "leverage", call.Kind)
	assert.Equal(t, 1, call.MarketID)
	assert.Equal(t, 3, call.Leverage)
	assert.Equal(t, domain.MarginModeIsolated, call.Mode)
}

func TestAdjust_LeverageChangeForcesIsolated(t *testing.T) {
	session := NewMockSession()
	positions := []domain.Position{
		{Symbol: "BTC", Quantity: 0.01, Leverage: 2, MarginMode: domain.MarginModeIsolated},
	}
	intents := []domain.OrderIntent{{Symbol: "BTC", CoinAmount: 0.01, Leverage: 5}}

	err := newTestAdjuster().Adjust(context.Background(), session, intents, positions, testCatalog())
	require.NoError(t, err)

	require.Len(t, session.Calls, 1)
	assert.Equal(t, 5, session.Calls[0].Leverage)
	assert.Equal(t, domain.MarginModeIsolated, session.Calls[0].Mode)
}

func TestAdjust_NewSymbolGetsLeverageOnly(t *testing.T) {
	session := NewMockSession()
	intents := []domain.OrderIntent{{Symbol: "ETH", CoinAmount: 1, Leverage: 4}}

	err := newTestAdjuster().Adjust(context.Background(), session, intents, nil, testCatalog())
	require.NoError(t, err)

	// No open position, so no mode-switch pass; leverage is still set.
	require.Len(t, session.Calls, 1)
	assert.Equal(t, 2, session.Calls[0].MarketID)
	assert.Equal(t, 4, session.Calls[0].Leverage)
}

func TestAdjust_GatewayErrorWrapped(t *testing.T) {
	session := NewMockSession()
	session.LeverageErr = errors.New("rate limited")
	intents := []domain.OrderIntent{{Symbol: "ETH", CoinAmount: 1, Leverage: 4}}

	err := newTestAdjuster().Adjust(context.Background(), session, intents, nil, testCatalog())

	var adjustErr *domain.MarginAdjustError
	require.True(t, errors.As(err, &adjustErr))
	assert.Equal(t, "ETH", adjustErr.Symbol)
}
