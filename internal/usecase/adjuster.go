package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// defaultAdjustInterval spaces leverage/margin mutations; the exchange rate
// limiter is per-account.
const defaultAdjustInterval = time.Second

// MarginAdjuster brings per-symbol margin mode and leverage in line with the
// planned intents before any order is placed.
type MarginAdjuster struct {
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewMarginAdjuster paces gateway calls at one per interval; interval <= 0
// selects the default.
func NewMarginAdjuster(logger *zap.Logger, interval time.Duration) *MarginAdjuster {
	if interval <= 0 {
		interval = defaultAdjustInterval
	}
	return &MarginAdjuster{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// Adjust runs two passes over the combined intent list: first switching any
// touched symbol to isolated margin at its current leverage, then updating
// leverage wherever the intent differs from the open position. Symbols
// already in the wanted state are skipped without a gateway call.
func (a *MarginAdjuster) Adjust(ctx context.Context, session domain.TradingSession, intents []domain.OrderIntent, positions []domain.Position, catalog *MarketCatalog) error {
	bySymbol := make(map[string]domain.Position, len(positions))
	for _, pos := range positions {
		bySymbol[pos.Symbol] = pos
	}

	for _, intent := range intents {
		pos, open := bySymbol[intent.Symbol]
		if !open || pos.MarginMode == domain.MarginModeIsolated {
			continue
		}
		info, err := catalog.Lookup(intent.Symbol)
		if err != nil {
			return err
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := session.UpdateLeverage(ctx, info.MarketID, pos.Leverage, domain.MarginModeIsolated); err != nil {
			return &domain.MarginAdjustError{Symbol: intent.Symbol, Err: err}
		}
		a.logger.Info("switched margin mode to isolated",
			zap.String("symbol", intent.Symbol),
			zap.Int("leverage", pos.Leverage))
	}

	for _, intent := range intents {
		pos, open := bySymbol[intent.Symbol]
		if open && pos.Leverage == intent.Leverage {
			continue
		}
		info, err := catalog.Lookup(intent.Symbol)
		if err != nil {
			return err
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		// Leverage updates force isolated mode.
		if err := session.UpdateLeverage(ctx, info.MarketID, intent.Leverage, domain.MarginModeIsolated); err != nil {
			return &domain.MarginAdjustError{Symbol: intent.Symbol, Err: err}
		}
		a.logger.Info("updated leverage",
			zap.String("symbol", intent.Symbol),
			zap.Int("leverage", intent.Leverage))
	}

	return nil
}
