package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 3 * time.Second

	// runTypeTag identifies this pipeline in alert messages.
	runTypeTag = "Lighter futures"
)

// Rebalancer is the single-attempt operation the retry wrapper drives.
type Rebalancer interface {
	Rebalance(ctx context.Context, req domain.RebalanceRequest) (*domain.RebalanceResult, error)
}

// RebalanceService wraps a Rebalancer in bounded retries, alerting on every
// attempt outcome and once more when retries are exhausted.
type RebalanceService struct {
	rebalancer  Rebalancer
	alerts      *AlertBroadcaster
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewRebalanceService builds the wrapper; maxAttempts <= 0 and
// retryDelay <= 0 select the defaults (3 attempts, 3s apart).
func NewRebalanceService(rebalancer Rebalancer, alerts *AlertBroadcaster, maxAttempts int, retryDelay time.Duration, logger *zap.Logger) *RebalanceService {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &RebalanceService{
		rebalancer:  rebalancer,
		alerts:      alerts,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
	}
}

// Execute runs the rebalance with up to maxAttempts attempts. The terminal
// error is the last attempt's error, with its kind intact.
//
// TODO: skip retrying validation errors; they cannot succeed on a retry.
func (s *RebalanceService) Execute(ctx context.Context, req domain.RebalanceRequest) (*domain.RebalanceResult, error) {
	policy := retrypolicy.NewBuilder[*domain.RebalanceResult]().
		WithMaxAttempts(s.maxAttempts).
		WithDelay(s.retryDelay).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[*domain.RebalanceResult]) {
			s.notifyFailure(ctx, req.Account, e.Attempts(), e.LastError())
		}).
		OnRetriesExceeded(func(e failsafe.ExecutionEvent[*domain.RebalanceResult]) {
			s.notifyFailure(ctx, req.Account, e.Attempts(), e.LastError())
			s.notifyExhausted(ctx, req.Account)
		}).
		Build()

	var attempt int
	result, err := failsafe.With[*domain.RebalanceResult](policy).WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[*domain.RebalanceResult]) (*domain.RebalanceResult, error) {
			attempt = exec.Attempts()
			s.logger.Info("rebalance attempt",
				zap.String("account", req.Account),
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", s.maxAttempts))
			return s.rebalancer.Rebalance(exec.Context(), req)
		})
	if err != nil {
		return nil, err
	}

	result.Attempt = attempt
	s.notifySuccess(ctx, result)
	return result, nil
}

type alertPayload struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Account string `json:"account"`
	Attempt int    `json:"attempt,omitempty"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *RebalanceService) notifySuccess(ctx context.Context, result *domain.RebalanceResult) {
	s.broadcast(ctx, alertPayload{
		Type:    runTypeTag,
		Status:  result.Status,
		Account: result.Account,
		Attempt: result.Attempt,
	})
}

func (s *RebalanceService) notifyFailure(ctx context.Context, account string, attempt int, cause error) {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	s.broadcast(ctx, alertPayload{
		Type:    runTypeTag,
		Status:  "error",
		Account: account,
		Attempt: attempt,
		Result:  detail,
	})
}

func (s *RebalanceService) notifyExhausted(ctx context.Context, account string) {
	s.broadcast(ctx, alertPayload{
		Type:    runTypeTag,
		Status:  "error",
		Account: account,
		Message: "Max retries reached",
	})
}

func (s *RebalanceService) broadcast(ctx context.Context, payload alertPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode alert payload", zap.Error(err))
		return
	}
	s.alerts.Broadcast(ctx, string(body))
}
