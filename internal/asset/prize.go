package asset

import "fmt"

type PrizeType string

const (
	PrizeToken    PrizeType = "token"
	PrizeItem     PrizeType = "item"
	PrizeOffchain PrizeType = "offchain"
)

// Prize is one entry of a raffle's prize pool. Token and item prizes are held
// by the raffle and move automatically at settlement; off-chain prizes are
// delivered by the operator.
type Prize struct {
	Type        PrizeType `json:"type"`
	Amount      *Amount   `json:"amount,omitempty"`
	Collection  string    `json:"collection,omitempty"`
	Item        string    `json:"item,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Terms       string    `json:"terms,omitempty"`
}

func TokenPrize(amount Amount) Prize {
	return Prize{Type: PrizeToken, Amount: &amount}
}

func ItemPrize(collection, item string) Prize {
	return Prize{Type: PrizeItem, Collection: collection, Item: item}
}

func OffchainPrize(name, description string) Prize {
	return Prize{Type: PrizeOffchain, Name: name, Description: description}
}

// Transferable reports whether settlement moves the prize.
func (p Prize) Transferable() bool {
	return p.Type == PrizeToken || p.Type == PrizeItem
}

func (p Prize) Validate() error {
	switch p.Type {
	case PrizeToken:
		if p.Amount == nil {
			return fmt.Errorf("token prize without amount")
		}
		if err := p.Amount.Validate(); err != nil {
			return fmt.Errorf("token prize: %w", err)
		}
		if !p.Amount.Amount.IsPositive() {
			return fmt.Errorf("token prize with zero amount")
		}
	case PrizeItem:
		if p.Item == "" {
			return fmt.Errorf("item prize without item address")
		}
	case PrizeOffchain:
		if p.Name == "" {
			return fmt.Errorf("off-chain prize without name")
		}
	default:
		return fmt.Errorf("unknown prize type %q", p.Type)
	}
	return nil
}
