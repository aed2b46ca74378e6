package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

const defaultOrderInterval = 500 * time.Millisecond

// OrderExecutor submits quantized market orders sequentially through a
// trading session, paced to stay under the exchange's per-account rate
// limit.
type OrderExecutor struct {
	limiter     *rate.Limiter
	slippagePct float64
	logger      *zap.Logger
}

// NewOrderExecutor paces submissions at one per interval; interval <= 0 and
// slippagePct <= 0 select the defaults.
func NewOrderExecutor(logger *zap.Logger, interval time.Duration, slippagePct float64) *OrderExecutor {
	if interval <= 0 {
		interval = defaultOrderInterval
	}
	if slippagePct <= 0 {
		slippagePct = DefaultSlippagePct
	}
	return &OrderExecutor{
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		slippagePct: slippagePct,
		logger:      logger,
	}
}

// ExecuteBatch quantizes and submits every intent in order. baseIndex seeds
// the strictly increasing client order index sequence; orders quantized to
// zero are dropped before submission. A gateway error aborts the rest of
// the batch; after all submissions the acknowledgements are inspected for
// non-OK status codes.
func (e *OrderExecutor) ExecuteBatch(ctx context.Context, session domain.TradingSession, intents []domain.OrderIntent, catalog *MarketCatalog, reduceOnly bool, baseIndex int64) ([]domain.OrderExecution, error) {
	var executions []domain.OrderExecution

	for i, intent := range intents {
		info, err := catalog.Lookup(intent.Symbol)
		if err != nil {
			return nil, err
		}

		quantity := QuantizeQuantity(math.Abs(intent.CoinAmount), intent.StepSize, intent.SizeDecimals)
		if quantity == 0 {
			e.logger.Debug("dropping zero-quantity order", zap.String("symbol", intent.Symbol))
			continue
		}

		side := domain.SideBuy
		if intent.CoinAmount < 0 {
			side = domain.SideSell
		}
		worstPrice := WorstAcceptablePrice(intent.MarketPrice, side, e.slippagePct)

		order := domain.QuantizedOrder{
			Symbol:           intent.Symbol,
			Side:             side,
			Type:             domain.OrderTypeMarket,
			Quantity:         quantity,
			MarketPrice:      intent.MarketPrice,
			WorstPrice:       worstPrice,
			SizeDecimals:     intent.SizeDecimals,
			PriceDecimals:    intent.PriceDecimals,
			ClientOrderIndex: baseIndex + int64(i),
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		ack, err := session.CreateMarketOrder(ctx, domain.MarketOrderRequest{
			MarketID:          info.MarketID,
			ClientOrderIndex:  order.ClientOrderIndex,
			BaseAmount:        ScaleToUnits(quantity, intent.SizeDecimals),
			AvgExecutionPrice: ScaleToUnits(worstPrice, intent.PriceDecimals),
			IsAsk:             side == domain.SideSell,
			ReduceOnly:        reduceOnly,
		})
		if err != nil {
			return nil, &domain.OrderSubmissionError{Symbol: intent.Symbol, Err: err}
		}
		if ack == nil {
			return nil, &domain.OrderSubmissionError{Symbol: intent.Symbol, Err: errors.New("gateway returned no acknowledgement")}
		}

		e.logger.Info("market order submitted",
			zap.String("symbol", intent.Symbol),
			zap.String("side", string(side)),
			zap.Float64("quantity", quantity),
			zap.Bool("reduceOnly", reduceOnly),
			zap.Float64("slippagePct", e.slippagePct))

		executions = append(executions, domain.OrderExecution{Order: order, Response: ack})
	}

	// An order can be acknowledged and still fail asynchronously; a non-OK
	// status code anywhere in the batch fails the whole run.
	var failed []string
	for _, exec := range executions {
		if exec.Response.Code != domain.AckCodeOK {
			failed = append(failed, exec.Order.Symbol)
		}
	}
	if len(failed) > 0 {
		return executions, &domain.BatchExecutionError{Symbols: failed}
	}

	return executions, nil
}
