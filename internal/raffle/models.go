package raffle

import (
	"time"

	"raffle/internal/asset"
	"raffle/internal/ledger"
	"raffle/internal/proceeds"
	"raffle/internal/seed"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
	StatusCanceled Status = "canceled"
)

// Config is the creation request of a raffle.
type Config struct {
	Price        asset.Amount       `json:"price"`
	Prizes       []asset.Prize      `json:"prizes"`
	TicketSupply *uint64            `json:"ticket_supply,omitempty"`
	SalesEndAt   *time.Time         `json:"ticket_sales_end_at,omitempty"`
	SalesTarget  *uint64            `json:"ticket_sales_target,omitempty"`
	Royalties    []proceeds.Royalty `json:"royalties,omitempty"`
	Edition      string             `json:"edition,omitempty"`
	Operator     string             `json:"operator,omitempty"`
}

type State struct {
	Status       Status        `json:"status"`
	Price        asset.Amount  `json:"price"`
	Prizes       []asset.Prize `json:"prizes"`
	TicketSupply *uint64       `json:"ticket_supply,omitempty"`
	SalesEndAt   *time.Time    `json:"ticket_sales_end_at,omitempty"`
	SalesTarget  *uint64       `json:"ticket_sales_target,omitempty"`
	TicketsSold  uint64        `json:"tickets_sold"`
	WalletCount  uint64        `json:"wallet_count"`
	Seed         []byte        `json:"seed"`
	Winner       *string       `json:"winner_address,omitempty"`
}

func (s State) IsSoldOut() bool {
	return s.TicketSupply != nil && *s.TicketSupply == s.TicketsSold
}

func (s State) tally() ledger.Tally {
	return ledger.Tally{TicketsSold: s.TicketsSold, WalletCount: s.WalletCount}
}

func (s State) limits() ledger.Limits {
	return ledger.Limits{Supply: s.TicketSupply, SalesEndAt: s.SalesEndAt}
}

// Record is the singleton stored per raffle. Royalties and Edition are fixed
// at creation; Operator changes only through TransferOwnership.
type Record struct {
	ID        string             `json:"id"`
	Creator   string             `json:"creator"`
	Operator  string             `json:"operator"`
	Edition   string             `json:"edition"`
	Royalties []proceeds.Royalty `json:"royalties"`
	State     State              `json:"raffle"`
}

// Env is the replay-stable environment of one invocation. Funds lists the
// amounts attached to the invocation by the caller.
type Env struct {
	Sender  string         `json:"sender"`
	Time    time.Time      `json:"time"`
	Height  uint64         `json:"height"`
	TxIndex uint64         `json:"tx_index"`
	Funds   []asset.Amount `json:"funds,omitempty"`
}

func (e Env) entropy() seed.Entropy {
	return seed.Entropy{Time: e.Time, Height: e.Height, TxIndex: e.TxIndex}
}

type BuyRequest struct {
	Count   uint32  `json:"count"`
	Message *string `json:"message,omitempty"`
	Visible bool    `json:"is_visible"`
}

type Receipt struct {
	RaffleID    string       `json:"raffle_id"`
	Order       ledger.Order `json:"order"`
	TicketsSold uint64       `json:"tickets_sold"`
	Payment     asset.Amount `json:"payment"`
}

type Outcome struct {
	Winner     string              `json:"winner"`
	Settlement proceeds.Settlement `json:"settlement"`
	Summary    proceeds.Summary    `json:"summary"`
}

// Payout is a settlement handed to the external settlement collaborator.
// Sent counts the instructions, in Settlement.All order, already broadcast.
// A Failed payout is left for manual reconciliation and never resent.
type Payout struct {
	ID         uint64              `json:"id"`
	RaffleID   string              `json:"raffle_id"`
	Action     string              `json:"action"`
	Height     uint64              `json:"height"`
	TxIndex    uint64              `json:"tx_index"`
	Settlement proceeds.Settlement `json:"settlement"`
	Sent       int                 `json:"sent"`
	Submitted  bool                `json:"submitted"`
	Failed     bool                `json:"failed"`
	Error      string              `json:"error,omitempty"`
	TxHash     string              `json:"tx_hash,omitempty"`
}

// Changeset is every write of one invocation. Storage applies it all or nothing.
type Changeset struct {
	Record        *Record
	Order         *ledger.Order
	Wallet        *ledger.Wallet
	RefundClaimed string
	Payout        *Payout
}
