package settlement

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"raffle/internal/logger"
	"raffle/internal/raffle"
)

const PayoutBatchSize = 16

type Submitter interface {
	Submit(ctx context.Context, payout *raffle.Payout, progress Progress) (string, error)
}

// Oracle drains the payout outbox in id order. A payout that fails before
// any broadcast is retried on the next poll and later payouts wait behind it.
// A payout whose broadcast failed is marked failed and never resent.
type Oracle struct {
	storage   raffle.PayoutStorage
	submitter Submitter
	interval  time.Duration
}

func NewOracle(storage raffle.PayoutStorage, submitter Submitter, interval time.Duration) *Oracle {
	return &Oracle{
		storage:   storage,
		submitter: submitter,
		interval:  interval,
	}
}

// Run polls until ctx is canceled.
func (o *Oracle) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		if _, err := o.Poll(ctx); err != nil {
			logger.Error("oracle: poll... failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("oracle stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Poll submits one batch of pending payouts and reports how many were acknowledged.
func (o *Oracle) Poll(ctx context.Context) (int, error) {
	payouts, err := o.storage.GetPendingPayouts(ctx, PayoutBatchSize)
	if err != nil {
		return 0, err
	}

	logger.Debug("oracle: poll...", zap.Int("pending", len(payouts)))

	submitted := 0
	for _, payout := range payouts {
		hash, err := o.submitter.Submit(ctx, payout, func(sent int, txHash string) error {
			return o.storage.RecordPayoutProgress(ctx, payout.ID, sent, txHash)
		})

		var sendErr *SendError
		if errors.As(err, &sendErr) {
			logger.Error("oracle: payout needs reconciliation",
				zap.Uint64("payout", payout.ID),
				zap.Int("sent", sendErr.Sent),
				zap.Error(err),
			)
			if markErr := o.storage.MarkPayoutFailed(ctx, payout.ID, err.Error()); markErr != nil {
				return submitted, errors.Join(err, markErr)
			}
			return submitted, err
		}
		if err != nil {
			return submitted, err
		}

		if err := o.storage.MarkPayoutSubmitted(ctx, payout.ID, hash); err != nil {
			return submitted, err
		}
		submitted++
	}

	logger.Debug("oracle: poll... done", zap.Int("submitted", submitted))
	return submitted, nil
}
