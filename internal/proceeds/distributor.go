// Package proceeds computes what must move to whom when a raffle settles.
//
// It never performs a transfer. Percentages are applied as integer
// multiply-then-floor-divide. Rounding remainders stay in the raffle's own
// balance, so the distributed total is at most the pot and falls short of it
// by less than one minimal unit per recipient.
package proceeds

import (
	"fmt"

	"github.com/shopspring/decimal"

	"raffle/internal/asset"
)

const royaltyDenominator = 100

type Royalty struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Pct     uint8  `json:"pct"`
}

func ValidateRoyalties(royalties []Royalty) error {
	var sum uint32
	for _, r := range royalties {
		if r.Address == "" {
			return fmt.Errorf("royalty recipient %q without address", r.Name)
		}
		if r.Pct == 0 {
			return fmt.Errorf("royalty recipient %s with zero share", r.Address)
		}
		sum += uint32(r.Pct)
	}
	if sum > royaltyDenominator {
		return fmt.Errorf("royalty shares sum to %d%%", sum)
	}
	return nil
}

type Input struct {
	Winner      string
	Prizes      []asset.Prize
	Price       asset.Amount
	TicketsSold uint64
	Edition     Edition
	Royalties   []Royalty
}

type Summary struct {
	Pot       decimal.Decimal `json:"pot"`
	Tax       decimal.Decimal `json:"tax"`
	Royalties decimal.Decimal `json:"royalties"`
	Retained  decimal.Decimal `json:"retained"`
}

// Distribute produces, in order: prize transfers to the winner, the edition's
// tax cuts of the pot, and royalty cuts of the post-tax remainder.
// Zero-amount cuts are omitted.
func Distribute(in Input) (Settlement, Summary) {
	var settlement Settlement
	settlement.Add(PrizeTransfers(in.Prizes, in.Winner, PurposePrize)...)

	pot := in.Price.Amount.Mul(asset.Units(in.TicketsSold))

	tax := decimal.Zero
	for _, b := range in.Edition.Beneficiaries {
		amount := share(pot, uint64(b.Pct), uint64(in.Edition.Denominator))
		tax = tax.Add(amount)
		if amount.IsPositive() {
			settlement.Add(Transfer(b.Address, asset.Amount{Token: in.Price.Token, Amount: amount}, PurposeTax))
		}
	}

	remainder := pot.Sub(tax)
	royalties := decimal.Zero
	for _, r := range in.Royalties {
		amount := share(remainder, uint64(r.Pct), royaltyDenominator)
		royalties = royalties.Add(amount)
		if amount.IsPositive() {
			settlement.Add(Transfer(r.Address, asset.Amount{Token: in.Price.Token, Amount: amount}, PurposeRoyalty))
		}
	}

	return settlement, Summary{
		Pot:       pot,
		Tax:       tax,
		Royalties: royalties,
		Retained:  pot.Sub(tax).Sub(royalties),
	}
}

func share(total decimal.Decimal, numerator, denominator uint64) decimal.Decimal {
	quotient, _ := total.Mul(asset.Units(numerator)).QuoRem(asset.Units(denominator), 0)
	return quotient
}
