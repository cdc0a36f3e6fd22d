package raffle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"raffle/internal/asset"
	apperrors "raffle/internal/errors"
	"raffle/internal/ledger"
	"raffle/internal/logger"
	"raffle/internal/seed"
)

// BuyTickets appends one order for the sender and advances the seed chain.
// The funds attached in env must cover count times the unit price.
func (e *Engine) BuyTickets(ctx context.Context, id string, env Env, request BuyRequest) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("raffle: buy tickets...",
		zap.String("raffle", id),
		zap.String("buyer", env.Sender),
		zap.Uint32("count", request.Count),
	)

	if env.Sender == "" {
		return nil, reject("buy tickets", id, apperrors.ErrNotAuthorized)
	}

	if request.Message != nil && len(*request.Message) > maxMessageLength {
		return nil, reject("buy tickets", id,
			apperrors.Validation(fmt.Sprintf("message longer than %d bytes", maxMessageLength)))
	}

	record, err := e.load(ctx, id)
	if err != nil {
		return nil, reject("buy tickets", id, err)
	}

	state := record.State
	if state.Status != StatusActive {
		return nil, reject("buy tickets", id, apperrors.ErrNotActive)
	}

	existing, err := e.storage.GetWallet(ctx, id, env.Sender)
	if err != nil {
		return nil, reject("buy tickets", id, err)
	}

	entry, err := ledger.Append(state.tally(), state.limits(), existing, ledger.Purchase{
		Buyer:   env.Sender,
		Count:   request.Count,
		Visible: request.Visible,
		Message: request.Message,
		Time:    env.Time,
	})
	if err != nil {
		return nil, reject("buy tickets", id, err)
	}

	payment := asset.Amount{
		Token:  state.Price.Token,
		Amount: state.Price.Amount.Mul(asset.Units(uint64(request.Count))),
	}
	if attached := asset.Sum(env.Funds, payment.Token); attached.LessThan(payment.Amount) {
		return nil, reject("buy tickets", id, apperrors.New(apperrors.CodeMissingFunds,
			fmt.Sprintf("attached %s, required %s %s", attached, payment.Amount, payment.Token)))
	}

	updated := *record
	updated.State.TicketsSold = entry.Tally.TicketsSold
	updated.State.WalletCount = entry.Tally.WalletCount
	updated.State.Seed = seed.Next(state.Seed, request.Message, env.Sender, env.entropy())

	err = e.commit(ctx, id, &Changeset{
		Record: &updated,
		Order:  &entry.Order,
		Wallet: &entry.Wallet,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("raffle: buy tickets... done",
		zap.String("raffle", id),
		zap.String("buyer", env.Sender),
		zap.Uint32("count", request.Count),
		zap.Uint64("ticketsSold", entry.Tally.TicketsSold),
	)

	return &Receipt{
		RaffleID:    id,
		Order:       entry.Order,
		TicketsSold: entry.Tally.TicketsSold,
		Payment:     payment,
	}, nil
}
