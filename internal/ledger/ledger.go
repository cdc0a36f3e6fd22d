// Package ledger keeps the append-only ticket order sequence of a raffle.
//
// Each order stores the cumulative ticket count through and including
// itself, so order i owns the half-open ticket interval
// [Cumulative-Count, Cumulative). The intervals of consecutive orders tile
// [0, TicketsSold) without gaps, which lets Lookup find the owner of any
// ticket number by binary search.
package ledger

import (
	"sort"
	"time"

	apperrors "raffle/internal/errors"
)

type Order struct {
	Buyer      string  `json:"buyer"`
	Count      uint32  `json:"count"`
	Cumulative uint64  `json:"cumulative_count"`
	Visible    bool    `json:"is_visible"`
	Message    *string `json:"message,omitempty"`
}

// Lower is the first ticket number owned by the order.
func (o Order) Lower() uint64 {
	return o.Cumulative - uint64(o.Count)
}

func (o Order) Contains(x uint64) bool {
	return x >= o.Lower() && x < o.Cumulative
}

type Wallet struct {
	Address          string  `json:"address"`
	TicketCount      uint64  `json:"ticket_count"`
	OrderCount       uint32  `json:"ticket_order_count"`
	DisplayMessage   *string `json:"display_message,omitempty"`
	HasClaimedRefund bool    `json:"has_claimed_refund"`
}

// Tally is the running counters of a raffle.
type Tally struct {
	TicketsSold uint64
	WalletCount uint64
}

// Limits are the optional sale restrictions of a raffle.
type Limits struct {
	Supply     *uint64
	SalesEndAt *time.Time
}

type Purchase struct {
	Buyer   string
	Count   uint32
	Visible bool
	Message *string
	Time    time.Time
}

// Entry is everything one accepted purchase writes.
type Entry struct {
	Order  Order
	Wallet Wallet
	Tally  Tally
}

// Append validates a purchase against the limits and computes the order,
// the buyer's updated wallet aggregate and the advanced tally. Nothing is
// mutated: existing may be nil for a first-time buyer.
func Append(tally Tally, limits Limits, existing *Wallet, purchase Purchase) (Entry, error) {
	if purchase.Count == 0 {
		return Entry{}, apperrors.Validation("ticket count must be at least 1")
	}

	if limits.Supply != nil {
		supply := *limits.Supply
		if tally.TicketsSold >= supply || supply-tally.TicketsSold < uint64(purchase.Count) {
			return Entry{}, apperrors.ErrSoldOut
		}
	}

	if limits.SalesEndAt != nil && !purchase.Time.Before(*limits.SalesEndAt) {
		return Entry{}, apperrors.ErrSalesPeriodOver
	}

	next := Tally{
		TicketsSold: tally.TicketsSold + uint64(purchase.Count),
		WalletCount: tally.WalletCount,
	}

	var display *string
	if purchase.Visible {
		display = purchase.Message
	}

	var wallet Wallet
	if existing == nil {
		next.WalletCount++
		wallet = Wallet{
			Address:        purchase.Buyer,
			TicketCount:    uint64(purchase.Count),
			OrderCount:     1,
			DisplayMessage: display,
		}
	} else {
		wallet = *existing
		wallet.TicketCount += uint64(purchase.Count)
		wallet.OrderCount++
		wallet.DisplayMessage = display
	}

	return Entry{
		Order: Order{
			Buyer:      purchase.Buyer,
			Count:      purchase.Count,
			Cumulative: next.TicketsSold,
			Visible:    purchase.Visible,
			Message:    purchase.Message,
		},
		Wallet: wallet,
		Tally:  next,
	}, nil
}

// Book is the cumulative-count-ordered order sequence.
type Book []Order

// TicketsSold is the cumulative count of the last order.
func (b Book) TicketsSold() uint64 {
	if len(b) == 0 {
		return 0
	}
	return b[len(b)-1].Cumulative
}

// Lookup returns the index of the order whose interval contains ticket x.
// It reports false when x is outside [0, TicketsSold).
func (b Book) Lookup(x uint64) (int, bool) {
	if x >= b.TicketsSold() {
		return 0, false
	}

	// orders tile [0, TicketsSold) with half-open [Lower, Cumulative), so the
	// first order whose Cumulative exceeds x is the one with Lower <= x
	i := sort.Search(len(b), func(i int) bool {
		return b[i].Cumulative > x
	})
	return i, true
}
