package raffle

import (
	"context"

	"go.uber.org/zap"

	apperrors "raffle/internal/errors"
	"raffle/internal/logger"
	"raffle/internal/proceeds"
)

// Cancel stops an Active raffle and returns its transferable prizes to the
// creator. Ticket payments are returned per wallet through ClaimRefund.
func (e *Engine) Cancel(ctx context.Context, id string, env Env) (proceeds.Settlement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("raffle: cancel...", zap.String("raffle", id), zap.String("caller", env.Sender))

	record, err := e.load(ctx, id)
	if err != nil {
		return proceeds.Settlement{}, reject("cancel", id, err)
	}

	if env.Sender != record.Operator {
		return proceeds.Settlement{}, reject("cancel", id, apperrors.ErrNotAuthorized)
	}

	if record.State.Status != StatusActive {
		return proceeds.Settlement{}, reject("cancel", id, apperrors.ErrNotActive)
	}

	var settlement proceeds.Settlement
	settlement.Add(proceeds.PrizeTransfers(record.State.Prizes, record.Creator, proceeds.PurposeReturn)...)

	updated := *record
	updated.State.Status = StatusCanceled

	err = e.commit(ctx, id, &Changeset{
		Record: &updated,
		Payout: &Payout{
			RaffleID:   id,
			Action:     ActionCancel,
			Height:     env.Height,
			TxIndex:    env.TxIndex,
			Settlement: settlement,
		},
	})
	if err != nil {
		return proceeds.Settlement{}, err
	}

	logger.Info("raffle: cancel... done",
		zap.String("raffle", id),
		zap.Uint64("ticketsSold", record.State.TicketsSold),
		zap.Int("returned", settlement.Len()),
	)
	return settlement, nil
}
