// Package settlement executes raffle settlement instructions on TON.
//
// The engine never moves funds itself: it records every settlement in the
// payout outbox, and the oracle hands them to a Settler which turns them into
// wallet messages signed by the raffle wallet.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tonkeeper/tonapi-go"
	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/wallet"
	"go.uber.org/zap"

	apperrors "raffle/internal/errors"
	"raffle/internal/logger"
	"raffle/internal/raffle"
)

// messages per external message accepted by v3/v4 wallets
const MaxMessagesPerTransfer = 4

var rateLimitDelay = 500 * time.Millisecond

// AccountReader is the part of the tonapi client the settler reads balances with.
type AccountReader interface {
	GetAccount(ctx context.Context, params tonapi.GetAccountParams) (*tonapi.Account, error)
}

// Sender signs and broadcasts wallet messages from its own address.
type Sender interface {
	GetAddress() ton.AccountID
	SendV2(ctx context.Context, waitingConfirmation time.Duration, messages ...wallet.Sendable) (ton.Bits256, error)
}

// Progress persists the instructions sent so far and their hashes before
// the next batch goes out.
type Progress func(sent int, txHash string) error

// SendError reports a broadcast whose outcome is unknown. Sent instructions
// before the failing batch are known to be out.
type SendError struct {
	Sent int
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send after %d instructions: %v", e.Sent, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

type Settler struct {
	accounts       AccountReader
	sender         Sender
	raffleWallet   ton.AccountID
	confirmTimeout time.Duration
}

// NewSettler fails when the signing wallet is not the raffle wallet.
func NewSettler(accounts AccountReader, sender Sender, raffleWallet ton.AccountID, confirmTimeout time.Duration) (*Settler, error) {
	if sender.GetAddress() != raffleWallet {
		return nil, fmt.Errorf("signing wallet %s is not the raffle wallet %s",
			sender.GetAddress().ToRaw(), raffleWallet.ToRaw())
	}
	return &Settler{
		accounts:       accounts,
		sender:         sender,
		raffleWallet:   raffleWallet,
		confirmTimeout: confirmTimeout,
	}, nil
}

type Func[T any] func() (T, error)

// rateLimitRetry repeats fn while tonapi answers 429 and ctx is alive.
func rateLimitRetry[T any](ctx context.Context, fn Func[T]) (T, error) {
	for {
		result, err := fn()
		if err != nil {
			var e *tonapi.ErrorStatusCode
			if errors.As(err, &e) && e.StatusCode == http.StatusTooManyRequests {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(rateLimitDelay):
				}
				continue
			}
		}

		return result, err
	}
}

// Submit sends the instructions of the payout not yet sent, resuming after
// payout.Sent, and returns the hashes of all sent external messages, comma
// separated. progress runs after every acknowledged batch. A failed
// broadcast is returned as a *SendError.
func (s *Settler) Submit(ctx context.Context, payout *raffle.Payout, progress Progress) (string, error) {
	logger.Debug("settlement: submit payout...",
		zap.Uint64("payout", payout.ID),
		zap.String("raffle", payout.RaffleID),
		zap.String("action", payout.Action),
		zap.Int("sent", payout.Sent),
	)

	// query ids are unique per payout and instruction
	messages, err := BuildMessages(s.raffleWallet, payout.Settlement, payout.ID<<16)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("payout %d", payout.ID), err)
	}
	if payout.Sent < 0 || payout.Sent > len(messages) {
		return "", apperrors.Validation(fmt.Sprintf("payout %d: %d of %d instructions sent", payout.ID, payout.Sent, len(messages)))
	}

	var hashes []string
	if payout.TxHash != "" {
		hashes = strings.Split(payout.TxHash, ",")
	}

	remaining := messages[payout.Sent:]
	if len(remaining) == 0 {
		logger.Debug("settlement: nothing left to send, skip", zap.Uint64("payout", payout.ID))
		return payout.TxHash, nil
	}

	if err := s.checkBalance(ctx, remaining); err != nil {
		return "", err
	}

	sent := payout.Sent
	for start := 0; start < len(remaining); start += MaxMessagesPerTransfer {
		end := min(start+MaxMessagesPerTransfer, len(remaining))

		batch := make([]wallet.Sendable, 0, end-start)
		for _, m := range remaining[start:end] {
			batch = append(batch, m)
		}

		hash, err := s.sender.SendV2(ctx, s.confirmTimeout, batch...)
		if err != nil {
			return strings.Join(hashes, ","), &SendError{
				Sent: sent,
				Err:  fmt.Errorf("payout %d: %w", payout.ID, err),
			}
		}
		sent += len(batch)
		hashes = append(hashes, hash.Hex())

		if err := progress(sent, strings.Join(hashes, ",")); err != nil {
			return strings.Join(hashes, ","), fmt.Errorf("record progress of payout %d: %w", payout.ID, err)
		}
	}

	logger.Info("settlement: submit payout... done",
		zap.Uint64("payout", payout.ID),
		zap.Int("messages", len(remaining)),
		zap.Strings("hashes", hashes),
	)
	return strings.Join(hashes, ","), nil
}

func (s *Settler) checkBalance(ctx context.Context, messages []wallet.Message) error {
	var required uint64
	for _, m := range messages {
		required += uint64(m.Amount)
	}

	account, err := rateLimitRetry(ctx, func() (*tonapi.Account, error) {
		return s.accounts.GetAccount(ctx, tonapi.GetAccountParams{
			AccountID: s.raffleWallet.ToRaw(),
		})
	})
	if err != nil {
		return fmt.Errorf("get raffle wallet account: %w", err)
	}

	balance := account.GetBalance()
	logger.Debug("settlement: raffle wallet balance",
		zap.Int64("balance", balance),
		zap.Uint64("required", required),
	)

	if balance < 0 || uint64(balance) < required {
		return apperrors.New(apperrors.CodeMissingFunds,
			fmt.Sprintf("raffle wallet holds %d nanoton, settlement needs %d", balance, required))
	}
	return nil
}
