package proceeds

import (
	"github.com/shopspring/decimal"

	"raffle/internal/asset"
)

type Purpose string

const (
	PurposePrize   Purpose = "prize"
	PurposeTax     Purpose = "tax"
	PurposeRoyalty Purpose = "royalty"
	PurposeReturn  Purpose = "return"
	PurposeRefund  Purpose = "refund"
)

// Instruction is one transfer the settlement collaborator must execute.
// Item is set for NFT item prizes, which move as a whole with a zero amount.
type Instruction struct {
	Recipient string          `json:"recipient"`
	Token     asset.Token     `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
	Item      string          `json:"item,omitempty"`
	Purpose   Purpose         `json:"purpose"`
}

func NativeTransfer(recipient, denom string, amount decimal.Decimal, purpose Purpose) Instruction {
	return Instruction{Recipient: recipient, Token: asset.Native(denom), Amount: amount, Purpose: purpose}
}

func CustomTransfer(recipient, tokenAddress string, amount decimal.Decimal, purpose Purpose) Instruction {
	return Instruction{Recipient: recipient, Token: asset.Custom(tokenAddress), Amount: amount, Purpose: purpose}
}

// ItemTransfer moves an NFT item held by the raffle.
func ItemTransfer(recipient, collection, item string, purpose Purpose) Instruction {
	return Instruction{
		Recipient: recipient,
		Token:     asset.Custom(collection),
		Amount:    decimal.Zero,
		Item:      item,
		Purpose:   purpose,
	}
}

// Transfer picks the constructor matching the token kind.
func Transfer(recipient string, amount asset.Amount, purpose Purpose) Instruction {
	if amount.Token.Kind == asset.KindCustom {
		return CustomTransfer(recipient, amount.Token.Address, amount.Amount, purpose)
	}
	return NativeTransfer(recipient, amount.Token.Denom, amount.Amount, purpose)
}

// Settlement partitions instructions by settlement mechanism. Order within
// each partition is the order the instructions were produced.
type Settlement struct {
	Native []Instruction `json:"native"`
	Custom []Instruction `json:"custom"`
}

func (s *Settlement) Add(instructions ...Instruction) {
	for _, in := range instructions {
		if in.Token.Kind == asset.KindCustom {
			s.Custom = append(s.Custom, in)
		} else {
			s.Native = append(s.Native, in)
		}
	}
}

func (s Settlement) Len() int {
	return len(s.Native) + len(s.Custom)
}

// All returns native instructions followed by custom ones.
func (s Settlement) All() []Instruction {
	all := make([]Instruction, 0, s.Len())
	all = append(all, s.Native...)
	return append(all, s.Custom...)
}

// PrizeTransfers moves every transferable prize to recipient. Off-chain
// prizes produce no instruction.
func PrizeTransfers(prizes []asset.Prize, recipient string, purpose Purpose) []Instruction {
	var instructions []Instruction
	for _, p := range prizes {
		if !p.Transferable() {
			continue
		}
		switch p.Type {
		case asset.PrizeToken:
			instructions = append(instructions, Transfer(recipient, *p.Amount, purpose))
		case asset.PrizeItem:
			instructions = append(instructions, ItemTransfer(recipient, p.Collection, p.Item, purpose))
		}
	}
	return instructions
}
