package raffle

import (
	"context"

	"go.uber.org/zap"

	apperrors "raffle/internal/errors"
	"raffle/internal/logger"
	"raffle/internal/proceeds"
	"raffle/internal/selection"
)

const (
	ActionChooseWinner = "choose_winner"
	ActionCancel       = "cancel"
	ActionClaimRefund  = "claim_refund"
)

// ChooseWinner finalizes an Active raffle, draws the winner and emits the
// proceeds settlement. When the raffle has a deadline it must have passed,
// unless the supply is sold out. A raffle without any sold ticket stays Active.
func (e *Engine) ChooseWinner(ctx context.Context, id string, env Env) (*Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("raffle: choose winner...", zap.String("raffle", id), zap.String("caller", env.Sender))

	record, err := e.load(ctx, id)
	if err != nil {
		return nil, reject("choose winner", id, err)
	}

	if env.Sender != record.Operator {
		return nil, reject("choose winner", id, apperrors.ErrNotAuthorized)
	}

	state := record.State
	if state.Status != StatusActive {
		return nil, reject("choose winner", id, apperrors.ErrNotActive)
	}

	if state.Winner != nil || state.TicketsSold == 0 {
		return nil, reject("choose winner", id, apperrors.ErrAlreadyClaimed)
	}

	// without a deadline the operator may finalize at any time
	salesOpen := state.SalesEndAt != nil && env.Time.Before(*state.SalesEndAt)
	if salesOpen && !state.IsSoldOut() {
		return nil, reject("choose winner", id, apperrors.ErrNotSoldOut)
	}

	if state.SalesTarget != nil && state.TicketsSold < *state.SalesTarget {
		return nil, reject("choose winner", id, apperrors.ErrInsufficientTicketSupply)
	}

	edition, ok := e.editions.Get(record.Edition)
	if !ok {
		return nil, reject("choose winner", id,
			apperrors.New(apperrors.CodeInternal, "edition "+record.Edition+" is no longer configured"))
	}

	book, err := e.storage.GetOrders(ctx, id)
	if err != nil {
		return nil, reject("choose winner", id, err)
	}
	if book.TicketsSold() != state.TicketsSold {
		return nil, reject("choose winner", id,
			apperrors.New(apperrors.CodeInternal, "order book out of sync with ticket tally"))
	}

	winner := selection.SingleDraw(state.Seed, book, selection.Entropy{
		Caller:  env.Sender,
		Entropy: env.entropy(),
	})

	settlement, summary := proceeds.Distribute(proceeds.Input{
		Winner:      winner,
		Prizes:      state.Prizes,
		Price:       state.Price,
		TicketsSold: state.TicketsSold,
		Edition:     edition,
		Royalties:   record.Royalties,
	})

	updated := *record
	updated.State.Status = StatusComplete
	updated.State.Winner = &winner

	err = e.commit(ctx, id, &Changeset{
		Record: &updated,
		Payout: &Payout{
			RaffleID:   id,
			Action:     ActionChooseWinner,
			Height:     env.Height,
			TxIndex:    env.TxIndex,
			Settlement: settlement,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("raffle: choose winner... done",
		zap.String("raffle", id),
		zap.String("winner", winner),
		zap.Int("instructions", settlement.Len()),
		zap.String("pot", summary.Pot.String()),
		zap.String("retained", summary.Retained.String()),
	)

	return &Outcome{Winner: winner, Settlement: settlement, Summary: summary}, nil
}
