package raffle

import (
	"context"

	"go.uber.org/zap"

	"raffle/internal/asset"
	apperrors "raffle/internal/errors"
	"raffle/internal/logger"
	"raffle/internal/proceeds"
)

// ClaimRefund pays a wallet back for every ticket it bought in a canceled
// raffle. Each wallet can claim once.
func (e *Engine) ClaimRefund(ctx context.Context, id string, env Env) (*proceeds.Instruction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("raffle: claim refund...", zap.String("raffle", id), zap.String("wallet", env.Sender))

	record, err := e.load(ctx, id)
	if err != nil {
		return nil, reject("claim refund", id, err)
	}

	if record.State.Status != StatusCanceled {
		return nil, reject("claim refund", id, apperrors.ErrNotActive)
	}

	wallet, err := e.storage.GetWallet(ctx, id, env.Sender)
	if err != nil {
		return nil, reject("claim refund", id, err)
	}
	if wallet == nil {
		return nil, reject("claim refund", id, apperrors.ErrNotAuthorized)
	}

	claimed, err := e.storage.GetRefundStatus(ctx, id, env.Sender)
	if err != nil {
		return nil, reject("claim refund", id, err)
	}
	if claimed || wallet.HasClaimedRefund {
		return nil, reject("claim refund", id, apperrors.ErrAlreadyClaimed)
	}

	price := record.State.Price
	refund := proceeds.Transfer(env.Sender, asset.Amount{
		Token:  price.Token,
		Amount: price.Amount.Mul(asset.Units(wallet.TicketCount)),
	}, proceeds.PurposeRefund)

	var settlement proceeds.Settlement
	settlement.Add(refund)

	updated := *wallet
	updated.HasClaimedRefund = true

	err = e.commit(ctx, id, &Changeset{
		Wallet:        &updated,
		RefundClaimed: env.Sender,
		Payout: &Payout{
			RaffleID:   id,
			Action:     ActionClaimRefund,
			Height:     env.Height,
			TxIndex:    env.TxIndex,
			Settlement: settlement,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("raffle: claim refund... done",
		zap.String("raffle", id),
		zap.String("wallet", env.Sender),
		zap.String("amount", refund.Amount.String()),
	)
	return &refund, nil
}
