package usecase

import (
	"math"

	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// marginHaircut keeps 2% of the reported asset value out of play as a
// buffer against fee and slippage drift.
const marginHaircut = 0.98

// RebalancePlanner computes, per symbol, the delta between the current and
// the target position.
type RebalancePlanner struct {
	logger *zap.Logger
}

func NewRebalancePlanner(logger *zap.Logger) *RebalancePlanner {
	return &RebalancePlanner{logger: logger}
}

// DeriveAccountState normalizes a raw account snapshot: applies the margin
// haircut, drops flat positions, and derives each position's leverage and
// margin share.
func (p *RebalancePlanner) DeriveAccountState(snapshot *domain.AccountSnapshot, catalog *MarketCatalog) (*domain.AccountState, error) {
	total := snapshot.TotalAssetValue * marginHaircut
	if total == 0 {
		return nil, &domain.PlanningError{Reason: "total margin balance is 0"}
	}

	var positions []domain.Position
	for _, raw := range snapshot.Positions {
		if raw.Size == 0 {
			continue
		}
		if raw.InitialMarginFraction == 0 {
			return nil, &domain.PlanningError{Symbol: raw.Symbol, Reason: "initial margin fraction is 0"}
		}
		info, err := catalog.Lookup(raw.Symbol)
		if err != nil {
			return nil, err
		}

		leverage := int(100 / raw.InitialMarginFraction)
		signed := raw.Size * float64(raw.Sign)
		positions = append(positions, domain.Position{
			Symbol:             raw.Symbol,
			Quantity:           signed,
			QuantityPercentage: (signed * info.LastPrice) / float64(leverage) / total,
			Leverage:           leverage,
			MarginMode:         raw.MarginMode,
		})
	}

	p.logger.Debug("derived account state",
		zap.Float64("totalMarginBalance", total),
		zap.Int("openPositions", len(positions)))

	return &domain.AccountState{TotalMarginBalance: total, Positions: positions}, nil
}

// Plan produces one OrderIntent per symbol that needs to move: closing
// intents for positions with no (or zero) target, adjusting intents where
// current and target differ, opening intents for fresh targets.
func (p *RebalancePlanner) Plan(state *domain.AccountState, targets []domain.TargetAllocation, catalog *MarketCatalog) ([]domain.OrderIntent, error) {
	total := state.TotalMarginBalance
	var intents []domain.OrderIntent

	for _, cur := range state.Positions {
		info, err := catalog.Lookup(cur.Symbol)
		if err != nil {
			return nil, err
		}
		price := roundTo(info.LastPrice, 8)
		target := findTarget(targets, cur.Symbol)

		if target == nil || target.Quantity == 0 {
			intents = append(intents, attachMarket(domain.OrderIntent{
				Symbol:        cur.Symbol,
				Percentage:    -cur.QuantityPercentage,
				USDAmount:     -cur.QuantityPercentage * total,
				CoinAmount:    -cur.Quantity,
				Leverage:      cur.Leverage,
				ClosePosition: true,
			}, info, price))
			continue
		}

		// Coin exposure at current price, current position at its own
		// leverage, target at the requested leverage.
		curCoin := cur.QuantityPercentage * total / price * float64(cur.Leverage)
		newCoin := target.Quantity * total / price * float64(target.Leverage)

		intents = append(intents, attachMarket(domain.OrderIntent{
			Symbol:          cur.Symbol,
			Percentage:      target.Quantity - cur.QuantityPercentage,
			USDAmount:       target.Quantity*total*float64(target.Leverage) - cur.QuantityPercentage*total*float64(cur.Leverage),
			CoinAmount:      newCoin - curCoin,
			Leverage:        target.Leverage,
			ClosePosition:   false,
			ExecutePriority: math.Abs(curCoin)-math.Abs(newCoin) > 0,
		}, info, price))
	}

	for _, target := range targets {
		if hasPosition(state.Positions, target.Symbol) {
			continue
		}
		if target.Quantity == 0 {
			// Nothing open and nothing wanted.
			continue
		}
		info, err := catalog.Lookup(target.Symbol)
		if err != nil {
			return nil, err
		}
		price := roundTo(info.LastPrice, 8)

		intents = append(intents, attachMarket(domain.OrderIntent{
			Symbol:        target.Symbol,
			Percentage:    target.Quantity,
			USDAmount:     target.Quantity * total * float64(target.Leverage),
			CoinAmount:    target.Quantity * total / price * float64(target.Leverage),
			Leverage:      target.Leverage,
			ClosePosition: false,
		}, info, price))
	}

	p.logger.Info("rebalance plan computed", zap.Int("intents", len(intents)))
	return intents, nil
}

func attachMarket(intent domain.OrderIntent, info domain.MarketInfo, price float64) domain.OrderIntent {
	intent.MinOrderSize = info.MinOrderSize
	intent.MinNotionalSize = info.MinNotionalSize
	intent.StepSize = info.StepSize
	intent.SizeDecimals = info.SizeDecimals
	intent.PriceDecimals = info.PriceDecimals
	intent.MarketPrice = price
	return intent
}

func findTarget(targets []domain.TargetAllocation, symbol string) *domain.TargetAllocation {
	for i := range targets {
		if targets[i].Symbol == symbol {
			return &targets[i]
		}
	}
	return nil
}

func hasPosition(positions []domain.Position, symbol string) bool {
	for _, p := range positions {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}
