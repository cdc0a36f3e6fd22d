package raffle

import (
	"context"

	"raffle/internal/ledger"
)

// Storage is the key-value collaborator holding raffle state. Getters return
// apperrors.ErrNotFound for unknown raffles. GetWallet returns nil for a
// wallet that never bought a ticket.
type Storage interface {
	CreateRaffle(ctx context.Context, record *Record) error
	GetRaffle(ctx context.Context, id string) (*Record, error)
	GetOrders(ctx context.Context, id string) (ledger.Book, error)
	GetWallet(ctx context.Context, id string, address string) (*ledger.Wallet, error)
	GetWallets(ctx context.Context, id string) ([]ledger.Wallet, error)
	GetRefundStatus(ctx context.Context, id string, address string) (bool, error)
	Commit(ctx context.Context, id string, changeset *Changeset) error
}

// PayoutStorage is the settlement outbox. Pending payouts are neither
// submitted nor failed.
type PayoutStorage interface {
	GetPendingPayouts(ctx context.Context, limit int) ([]*Payout, error)
	RecordPayoutProgress(ctx context.Context, id uint64, sent int, txHash string) error
	MarkPayoutSubmitted(ctx context.Context, id uint64, txHash string) error
	MarkPayoutFailed(ctx context.Context, id uint64, reason string) error
}
