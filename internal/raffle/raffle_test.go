package raffle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle/internal/asset"
	apperrors "raffle/internal/errors"
	"raffle/internal/proceeds"
	"raffle/internal/raffle"
	"raffle/internal/storage"
)

var (
	ton   = asset.Native("nanoton")
	start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func ptr[T any](v T) *T { return &v }

func newEngine(t *testing.T) (*raffle.Engine, *storage.MemoryStorage) {
	t.Helper()

	editions, err := proceeds.LoadEditions("")
	require.NoError(t, err)

	store := storage.NewMemoryStorage()
	return raffle.NewEngine(store, editions, "standard"), store
}

func at(sender string, when time.Time, height uint64) raffle.Env {
	return raffle.Env{Sender: sender, Time: when, Height: height}
}

func paying(sender string, when time.Time, height uint64, amount int64) raffle.Env {
	env := at(sender, when, height)
	env.Funds = []asset.Amount{asset.NewAmount(ton, amount)}
	return env
}

func baseConfig() raffle.Config {
	return raffle.Config{
		Price:      asset.NewAmount(ton, 100),
		Prizes:     []asset.Prize{asset.TokenPrize(asset.NewAmount(ton, 10_000))},
		SalesEndAt: ptr(start.Add(24 * time.Hour)),
	}
}

func create(t *testing.T, engine *raffle.Engine, config raffle.Config) string {
	t.Helper()
	id, err := engine.Create(context.Background(), at("creator", start, 1), config)
	require.NoError(t, err)
	return id
}

func buy(t *testing.T, engine *raffle.Engine, id, buyer string, count uint32, height uint64) *raffle.Receipt {
	t.Helper()
	receipt, err := engine.BuyTickets(context.Background(), id,
		paying(buyer, start.Add(time.Duration(height)*time.Minute), height, int64(count)*100),
		raffle.BuyRequest{Count: count})
	require.NoError(t, err)
	return receipt
}

func TestCreateValidation(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*raffle.Config)
	}{
		{"no prizes", func(c *raffle.Config) { c.Prizes = nil }},
		{"deadline in the past", func(c *raffle.Config) { c.SalesEndAt = ptr(start.Add(-time.Hour)) }},
		{"zero supply", func(c *raffle.Config) { c.TicketSupply = ptr(uint64(0)) }},
		{"supply below target", func(c *raffle.Config) {
			c.TicketSupply = ptr(uint64(5))
			c.SalesTarget = ptr(uint64(6))
		}},
		{"royalties above 100%", func(c *raffle.Config) {
			c.Royalties = []proceeds.Royalty{{Address: "a", Pct: 70}, {Address: "b", Pct: 31}}
		}},
		{"unknown edition", func(c *raffle.Config) { c.Edition = "missing" }},
		{"negative price", func(c *raffle.Config) { c.Price = asset.NewAmount(ton, -1) }},
		{"item prize without item", func(c *raffle.Config) {
			c.Prizes = []asset.Prize{asset.ItemPrize("0:collection", "")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := baseConfig()
			tt.mutate(&config)
			_, err := engine.Create(ctx, at("creator", start, 1), config)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	id := create(t, engine, baseConfig())

	record, err := engine.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "creator", record.Operator)
	assert.Equal(t, "standard", record.Edition)
	assert.Equal(t, raffle.StatusActive, record.State.Status)
	assert.Len(t, record.State.Seed, 32)
	assert.Nil(t, record.State.Winner)
}

func TestCreateIsDeterministic(t *testing.T) {
	first, _ := newEngine(t)
	second, _ := newEngine(t)

	assert.Equal(t, create(t, first, baseConfig()), create(t, second, baseConfig()))
}

func TestBuyTicketsAdvancesLedgerAndSeed(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()
	id := create(t, engine, baseConfig())

	before, err := engine.GetState(ctx, id)
	require.NoError(t, err)

	receipt := buy(t, engine, id, "alice", 3, 2)
	assert.Equal(t, uint64(3), receipt.Order.Cumulative)
	assert.Equal(t, "300", receipt.Payment.Amount.String())

	_, err = engine.BuyTickets(ctx, id, paying("bob", start.Add(time.Hour), 3, 200),
		raffle.BuyRequest{Count: 2, Message: ptr("good luck"), Visible: true})
	require.NoError(t, err)
	buy(t, engine, id, "alice", 1, 4)

	state, err := engine.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), state.TicketsSold)
	assert.Equal(t, uint64(2), state.WalletCount)
	assert.NotEqual(t, before.Seed, state.Seed)

	orders, err := engine.GetOrders(ctx, id)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []uint64{3, 5, 6}, []uint64{orders[0].Cumulative, orders[1].Cumulative, orders[2].Cumulative})

	wallets, err := engine.GetWallets(ctx, id)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "alice", wallets[0].Address)
	assert.Equal(t, uint64(4), wallets[0].TicketCount)
	assert.Equal(t, uint32(2), wallets[0].OrderCount)
	require.NotNil(t, wallets[1].DisplayMessage)
	assert.Equal(t, "good luck", *wallets[1].DisplayMessage)
}

func TestBuyTicketsRejectionLeavesNoTrace(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	config := baseConfig()
	config.TicketSupply = ptr(uint64(6))
	id := create(t, engine, config)
	buy(t, engine, id, "alice", 5, 2)

	before, err := engine.GetState(ctx, id)
	require.NoError(t, err)

	_, err = engine.BuyTickets(ctx, id, paying("bob", start.Add(time.Hour), 3, 300), raffle.BuyRequest{Count: 3})
	require.ErrorIs(t, err, apperrors.ErrSoldOut)

	_, err = engine.BuyTickets(ctx, id, paying("bob", start.Add(time.Hour), 3, 50), raffle.BuyRequest{Count: 1})
	require.ErrorIs(t, err, apperrors.ErrMissingFunds)

	_, err = engine.BuyTickets(ctx, id, paying("bob", start.Add(time.Hour), 3, 0), raffle.BuyRequest{Count: 0})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = engine.BuyTickets(ctx, id, paying("bob", start.Add(48*time.Hour), 3, 100), raffle.BuyRequest{Count: 1})
	require.ErrorIs(t, err, apperrors.ErrSalesPeriodOver)

	after, err := engine.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.TicketsSold, after.TicketsSold)
	assert.Equal(t, before.WalletCount, after.WalletCount)
	assert.Equal(t, before.Seed, after.Seed)

	orders, err := engine.GetOrders(ctx, id)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	wallet, err := engine.GetWallets(ctx, id)
	require.NoError(t, err)
	assert.Len(t, wallet, 1)
}

func TestBuyTicketsUnknownRaffle(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.BuyTickets(context.Background(), "missing", paying("bob", start, 2, 100), raffle.BuyRequest{Count: 1})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestChooseWinnerWithoutTicketsStaysActive(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()
	id := create(t, engine, baseConfig())

	_, err := engine.ChooseWinner(ctx, id, at("creator", start.Add(48*time.Hour), 10))
	require.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)

	state, err := engine.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, raffle.StatusActive, state.Status)
}

func TestChooseWinnerGuards(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	config := baseConfig()
	config.SalesTarget = ptr(uint64(10))
	id := create(t, engine, config)
	buy(t, engine, id, "alice", 3, 2)

	_, err := engine.ChooseWinner(ctx, id, at("alice", start.Add(48*time.Hour), 10))
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	_, err = engine.ChooseWinner(ctx, id, at("creator", start.Add(time.Hour), 10))
	require.ErrorIs(t, err, apperrors.ErrNotSoldOut)

	_, err = engine.ChooseWinner(ctx, id, at("creator", start.Add(48*time.Hour), 10))
	require.ErrorIs(t, err, apperrors.ErrInsufficientTicketSupply)

	state, err := engine.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, raffle.StatusActive, state.Status)
}

func TestSoldOutFinalizesBeforeDeadline(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	config := baseConfig()
	config.TicketSupply = ptr(uint64(10))
	config.Royalties = []proceeds.Royalty{{Name: "artist", Address: "artist", Pct: 50}}
	id := create(t, engine, config)

	buy(t, engine, id, "alice", 4, 2)
	buy(t, engine, id, "bob", 6, 3)

	outcome, err := engine.ChooseWinner(ctx, id, at("creator", start.Add(time.Hour), 10))
	require.NoError(t, err)
	assert.Contains(t, []string{"alice", "bob"}, outcome.Winner)
	assert.Equal(t, "1000", outcome.Summary.Pot.String())
	assert.Equal(t, "100", outcome.Summary.Tax.String())
	assert.Equal(t, "450", outcome.Summary.Royalties.String())

	prize := outcome.Settlement.Native[0]
	assert.Equal(t, proceeds.PurposePrize, prize.Purpose)
	assert.Equal(t, outcome.Winner, prize.Recipient)

	state, err := engine.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, raffle.StatusComplete, state.Status)
	require.NotNil(t, state.Winner)
	assert.Equal(t, outcome.Winner, *state.Winner)

	_, err = engine.ChooseWinner(ctx, id, at("creator", start.Add(time.Hour), 11))
	require.ErrorIs(t, err, apperrors.ErrNotActive)

	_, err = engine.Cancel(ctx, id, at("creator", start.Add(time.Hour), 11))
	require.ErrorIs(t, err, apperrors.ErrNotActive)

	payouts, err := store.GetPendingPayouts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, raffle.ActionChooseWinner, payouts[0].Action)
	assert.Equal(t, outcome.Settlement.Len(), payouts[0].Settlement.Len())
}

func TestChooseWinnerIsDeterministic(t *testing.T) {
	run := func() string {
		engine, _ := newEngine(t)
		id := create(t, engine, baseConfig())
		buy(t, engine, id, "alice", 3, 2)
		buy(t, engine, id, "bob", 5, 3)
		buy(t, engine, id, "carol", 1, 4)

		outcome, err := engine.ChooseWinner(context.Background(), id, at("creator", start.Add(48*time.Hour), 20))
		require.NoError(t, err)
		return outcome.Winner
	}

	assert.Equal(t, run(), run())
}

func TestCancelAndClaimRefundOnce(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	config := baseConfig()
	config.Prizes = append(config.Prizes,
		asset.ItemPrize("0:collection", "0:item"),
		asset.OffchainPrize("dinner", "for two"),
	)
	id := create(t, engine, config)
	buy(t, engine, id, "alice", 5, 2)

	_, err := engine.ClaimRefund(ctx, id, at("alice", start.Add(time.Hour), 3))
	require.ErrorIs(t, err, apperrors.ErrNotActive)

	_, err = engine.Cancel(ctx, id, at("alice", start.Add(time.Hour), 3))
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	returned, err := engine.Cancel(ctx, id, at("creator", start.Add(time.Hour), 3))
	require.NoError(t, err)
	require.Equal(t, 2, returned.Len())
	for _, in := range returned.All() {
		assert.Equal(t, "creator", in.Recipient)
		assert.Equal(t, proceeds.PurposeReturn, in.Purpose)
	}

	refund, err := engine.ClaimRefund(ctx, id, at("alice", start.Add(2*time.Hour), 4))
	require.NoError(t, err)
	assert.Equal(t, "alice", refund.Recipient)
	assert.Equal(t, "500", refund.Amount.String())
	assert.Equal(t, proceeds.PurposeRefund, refund.Purpose)

	_, err = engine.ClaimRefund(ctx, id, at("alice", start.Add(3*time.Hour), 5))
	require.ErrorIs(t, err, apperrors.ErrAlreadyClaimed)

	_, err = engine.ClaimRefund(ctx, id, at("mallory", start.Add(3*time.Hour), 5))
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	claimed, err := engine.GetRefundStatus(ctx, id, "alice")
	require.NoError(t, err)
	assert.True(t, claimed)

	payouts, err := store.GetPendingPayouts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.Equal(t, raffle.ActionCancel, payouts[0].Action)
	assert.Equal(t, raffle.ActionClaimRefund, payouts[1].Action)
}

func TestTransferOwnership(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()
	id := create(t, engine, baseConfig())

	err := engine.TransferOwnership(ctx, id, at("mallory", start, 2), "mallory")
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	require.NoError(t, engine.TransferOwnership(ctx, id, at("creator", start, 2), "operator"))

	operator, err := engine.GetOperator(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "operator", operator)

	_, err = engine.Cancel(ctx, id, at("creator", start, 3))
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	_, err = engine.Cancel(ctx, id, at("operator", start, 3))
	require.NoError(t, err)
}

func TestSimulateDraws(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()
	id := create(t, engine, baseConfig())
	buy(t, engine, id, "alice", 1, 2)
	buy(t, engine, id, "bob", 9, 3)

	hits, err := engine.SimulateDraws(ctx, id, at("anyone", start, 5), 0)
	require.NoError(t, err)

	var total uint32
	for wallet, n := range hits {
		assert.Contains(t, []string{"alice", "bob"}, wallet)
		total += n
	}
	assert.Equal(t, uint32(raffle.DefaultSimulatedDraws), total)

	again, err := engine.SimulateDraws(ctx, id, at("anyone", start, 5), 0)
	require.NoError(t, err)
	assert.Equal(t, hits, again)

	_, err = engine.SimulateDraws(ctx, id, at("anyone", start, 5), raffle.MaxSimulatedDraws+1)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	state, err := engine.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, raffle.StatusActive, state.Status)
}

func TestChooseWinnerWithoutDeadline(t *testing.T) {
	tests := []struct {
		name   string
		supply *uint64
	}{
		{"uncapped", nil},
		{"capped and not sold out", ptr(uint64(50))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newEngine(t)
			ctx := context.Background()

			config := baseConfig()
			config.SalesEndAt = nil
			config.TicketSupply = tt.supply
			id := create(t, engine, config)
			buy(t, engine, id, "alice", 2, 2)

			outcome, err := engine.ChooseWinner(ctx, id, at("creator", start.Add(time.Hour), 10))
			require.NoError(t, err)
			assert.Equal(t, "alice", outcome.Winner)

			state, err := engine.GetState(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, raffle.StatusComplete, state.Status)
		})
	}
}

func TestChooseWinnerWithoutDeadlineStillNeedsTarget(t *testing.T) {
	engine, _ := newEngine(t)

	config := baseConfig()
	config.SalesEndAt = nil
	config.SalesTarget = ptr(uint64(5))
	id := create(t, engine, config)
	buy(t, engine, id, "alice", 2, 2)

	_, err := engine.ChooseWinner(context.Background(), id, at("creator", start.Add(time.Hour), 10))
	require.ErrorIs(t, err, apperrors.ErrInsufficientTicketSupply)
}
