package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

const maxLeverage = 5

// Orchestrator runs one full rebalance: validate, fetch, plan, adjust
// margin, sequence, execute.
type Orchestrator struct {
	secrets  domain.SecretsProvider
	market   domain.MarketDataService
	sessions domain.SessionFactory
	planner  *RebalancePlanner
	adjuster *MarginAdjuster
	executor *OrderExecutor
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrchestrator(
	secrets domain.SecretsProvider,
	market domain.MarketDataService,
	sessions domain.SessionFactory,
	planner *RebalancePlanner,
	adjuster *MarginAdjuster,
	executor *OrderExecutor,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		secrets:  secrets,
		market:   market,
		sessions: sessions,
		planner:  planner,
		adjuster: adjuster,
		executor: executor,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Rebalance executes one run for the requested account. Concurrent runs for
// the same account are serialized; interleaved leverage and margin-mode
// mutations would corrupt each other.
func (o *Orchestrator) Rebalance(ctx context.Context, req domain.RebalanceRequest) (*domain.RebalanceResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	lock := o.accountLock(req.Account)
	lock.Lock()
	defer lock.Unlock()

	creds, err := o.secrets.GetCredentials(ctx, req.Account)
	if err != nil {
		return nil, &domain.UpstreamFetchError{Resource: "credentials", Err: err}
	}

	session, err := o.sessions.NewSession(ctx, creds)
	if err != nil {
		return nil, &domain.UpstreamFetchError{Resource: "trading session", Err: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			o.logger.Warn("failed to close trading session", zap.Error(cerr))
		}
	}()

	prices, err := o.market.GetLastPrices(ctx)
	if err != nil {
		return nil, &domain.UpstreamFetchError{Resource: "market prices", Err: err}
	}
	books, err := o.market.GetOrderBooks(ctx)
	if err != nil {
		return nil, &domain.UpstreamFetchError{Resource: "order books", Err: err}
	}
	snapshot, err := o.market.GetAccount(ctx, creds.WalletAddress)
	if err != nil {
		return nil, &domain.UpstreamFetchError{Resource: "account", Err: err}
	}

	catalog := BuildMarketCatalog(books, prices)

	state, err := o.planner.DeriveAccountState(snapshot, catalog)
	if err != nil {
		return nil, err
	}
	intents, err := o.planner.Plan(state, req.Order, catalog)
	if err != nil {
		return nil, err
	}

	// Account config is adjusted for the full combined plan before the
	// first order goes out.
	if err := o.adjuster.Adjust(ctx, session, intents, state.Positions, catalog); err != nil {
		return nil, err
	}

	batches := SequenceIntents(intents)

	// Time-derived base keeps client order indexes unique across runs so a
	// stale order can never collide with a fresh one.
	baseIndex := time.Now().UnixMilli()

	closeExecs, err := o.executor.ExecuteBatch(ctx, session, batches.CloseOrders, catalog, true, baseIndex)
	if err != nil {
		return nil, err
	}
	openExecs, err := o.executor.ExecuteBatch(ctx, session, batches.OpenOrders, catalog, false, baseIndex+int64(len(batches.CloseOrders)))
	if err != nil {
		return nil, err
	}

	o.logger.Info("rebalance completed",
		zap.String("account", req.Account),
		zap.Int("closeOrders", len(closeExecs)),
		zap.Int("openOrders", len(openExecs)))

	return &domain.RebalanceResult{
		Status:  "ok",
		Account: req.Account,
		Result: &domain.RebalanceReport{
			CurrentPosition:        state.Positions,
			AllOrderBeforeAdjusted: intents,
			Order1AfterAdjusted:    ordersOf(closeExecs),
			Order2AfterAdjusted:    ordersOf(openExecs),
			GatewayResponse1:       closeExecs,
			GatewayResponse2:       openExecs,
		},
	}, nil
}

func (o *Orchestrator) accountLock(account string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[account]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[account] = lock
	}
	return lock
}

func validateRequest(req domain.RebalanceRequest) error {
	var total float64
	for _, target := range req.Order {
		total += math.Abs(target.Quantity)
		if target.Leverage < 1 || target.Leverage > maxLeverage {
			return &domain.ValidationError{
				Reason: fmt.Sprintf("leverage for %s must be between 1 and %d", target.Symbol, maxLeverage),
			}
		}
	}
	if total > 1 {
		return &domain.ValidationError{Reason: "sum of target fractions exceeds 100%"}
	}
	return nil
}

func ordersOf(executions []domain.OrderExecution) []domain.QuantizedOrder {
	orders := make([]domain.QuantizedOrder, 0, len(executions))
	for _, exec := range executions {
		orders = append(orders, exec.Order)
	}
	return orders
}
