package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

const alertSendTimeout = 10 * time.Second

// AlertBroadcaster fans one message out to every configured recipient
// concurrently and joins all deliveries. A failed or slow recipient is
// logged and never blocks the others or the caller's control flow.
type AlertBroadcaster struct {
	sink       domain.AlertSink
	recipients []string
	logger     *zap.Logger
}

func NewAlertBroadcaster(sink domain.AlertSink, recipients []string, logger *zap.Logger) *AlertBroadcaster {
	return &AlertBroadcaster{
		sink:       sink,
		recipients: recipients,
		logger:     logger,
	}
}

// Broadcast delivers message to every recipient and waits for all sends to
// finish or time out.
func (b *AlertBroadcaster) Broadcast(ctx context.Context, message string) {
	var wg sync.WaitGroup
	for _, recipient := range b.recipients {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, alertSendTimeout)
			defer cancel()

			if err := b.sink.Push(sendCtx, to, message); err != nil {
				b.logger.Error("alert delivery failed",
					zap.String("recipient", to),
					zap.Error(err))
				return
			}
			b.logger.Debug("alert delivered", zap.String("recipient", to))
		}(recipient)
	}
	wg.Wait()
}
