package raffle

import (
	"context"
	"fmt"

	apperrors "raffle/internal/errors"
	"raffle/internal/ledger"
	"raffle/internal/proceeds"
	"raffle/internal/selection"
)

const (
	DefaultSimulatedDraws = 100
	MaxSimulatedDraws     = 1000
)

func (e *Engine) GetState(ctx context.Context, id string) (*State, error) {
	record, err := e.storage.GetRaffle(ctx, id)
	if err != nil {
		return nil, err
	}
	return &record.State, nil
}

func (e *Engine) GetRecord(ctx context.Context, id string) (*Record, error) {
	return e.storage.GetRaffle(ctx, id)
}

func (e *Engine) GetOperator(ctx context.Context, id string) (string, error) {
	record, err := e.storage.GetRaffle(ctx, id)
	if err != nil {
		return "", err
	}
	return record.Operator, nil
}

func (e *Engine) GetRoyalties(ctx context.Context, id string) ([]proceeds.Royalty, error) {
	record, err := e.storage.GetRaffle(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.Royalties, nil
}

func (e *Engine) GetOrders(ctx context.Context, id string) (ledger.Book, error) {
	if _, err := e.storage.GetRaffle(ctx, id); err != nil {
		return nil, err
	}
	return e.storage.GetOrders(ctx, id)
}

func (e *Engine) GetWallets(ctx context.Context, id string) ([]ledger.Wallet, error) {
	if _, err := e.storage.GetRaffle(ctx, id); err != nil {
		return nil, err
	}
	return e.storage.GetWallets(ctx, id)
}

func (e *Engine) GetRefundStatus(ctx context.Context, id string, wallet string) (bool, error) {
	if _, err := e.storage.GetRaffle(ctx, id); err != nil {
		return false, err
	}
	return e.storage.GetRefundStatus(ctx, id, wallet)
}

// SimulateDraws runs count draws with replacement against the current wallet
// aggregates and reports how often each wallet won. Diagnostic only: nothing
// is persisted. A zero count runs DefaultSimulatedDraws.
func (e *Engine) SimulateDraws(ctx context.Context, id string, env Env, count int) (map[string]uint32, error) {
	if count == 0 {
		count = DefaultSimulatedDraws
	}
	if count < 0 || count > MaxSimulatedDraws {
		return nil, apperrors.Validation(fmt.Sprintf("draw count must be between 1 and %d", MaxSimulatedDraws))
	}

	record, err := e.storage.GetRaffle(ctx, id)
	if err != nil {
		return nil, err
	}

	wallets, err := e.storage.GetWallets(ctx, id)
	if err != nil {
		return nil, err
	}

	winners := selection.MultiDraw(record.State.Seed, wallets, selection.Entropy{
		Caller:  env.Sender,
		Entropy: env.entropy(),
	}, count)
	return selection.Histogram(winners), nil
}
