// Package selection draws raffle winners from a ticket ledger.
//
// # Determinism
//
// Both draws reseed a PCG stream from the raffle seed plus the draw
// entropy. Identical (seed, ledger, entropy) inputs always select the same
// wallet, so every replica that replays the same history agrees on the
// winner.
package selection

import (
	"sort"

	"raffle/internal/ledger"
	"raffle/internal/seed"
)

// Entropy is the environment of the transaction performing the draw.
type Entropy struct {
	Caller string
	seed.Entropy
}

func (e Entropy) components(raffleSeed []byte) []seed.Component {
	return []seed.Component{
		seed.Bytes(raffleSeed),
		seed.String(e.Caller),
		seed.Uint(uint64(e.Time.UnixNano())),
		seed.Uint(e.Height),
		seed.Uint(e.TxIndex),
	}
}

// SingleDraw picks one ticket uniformly from [0, TicketsSold) and returns the
// buyer of the order holding it. The caller guarantees a non-empty book.
func SingleDraw(raffleSeed []byte, book ledger.Book, entropy Entropy) string {
	rng := seed.NewRand(entropy.components(raffleSeed)...)
	x := rng.Uint64() % book.TicketsSold()

	i, _ := book.Lookup(x)
	return book[i].Buyer
}

// MultiDraw samples k winners with replacement from one stream. Slots are
// laid out one per ticket over the wallet aggregates in ascending address
// order; each draw picks a slot and binary-searches the per-wallet cumulative
// counts for its owner, so memory stays proportional to the wallet count.
// Diagnostic only.
func MultiDraw(raffleSeed []byte, wallets []ledger.Wallet, entropy Entropy, k int) []string {
	sorted := make([]ledger.Wallet, len(wallets))
	copy(sorted, wallets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Address < sorted[j].Address
	})

	cumulative := make([]uint64, len(sorted))
	var total uint64
	for i, w := range sorted {
		total += w.TicketCount
		cumulative[i] = total
	}
	if total == 0 || k <= 0 {
		return nil
	}

	rng := seed.NewRand(entropy.components(raffleSeed)...)
	winners := make([]string, 0, k)
	for range k {
		slot := rng.Uint64() % total
		i := sort.Search(len(cumulative), func(i int) bool {
			return cumulative[i] > slot
		})
		winners = append(winners, sorted[i].Address)
	}
	return winners
}

// Histogram counts how often each wallet was drawn.
func Histogram(winners []string) map[string]uint32 {
	hits := make(map[string]uint32, len(winners))
	for _, w := range winners {
		hits[w]++
	}
	return hits
}
