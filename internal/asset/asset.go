package asset

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindNative Kind = "native"
	KindCustom Kind = "custom"
)

// Token is either the chain's native currency or a custom-ledger token.
// For custom tokens Address is the token wallet held by the raffle.
type Token struct {
	Kind    Kind   `json:"kind"`
	Denom   string `json:"denom,omitempty"`
	Address string `json:"address,omitempty"`
}

func Native(denom string) Token {
	return Token{Kind: KindNative, Denom: denom}
}

func Custom(address string) Token {
	return Token{Kind: KindCustom, Address: address}
}

func (t Token) Validate() error {
	switch t.Kind {
	case KindNative:
		if t.Denom == "" {
			return fmt.Errorf("native token without denom")
		}
	case KindCustom:
		if t.Address == "" {
			return fmt.Errorf("custom token without address")
		}
	default:
		return fmt.Errorf("unknown token kind %q", t.Kind)
	}
	return nil
}

func (t Token) String() string {
	if t.Kind == KindCustom {
		return "custom:" + t.Address
	}
	return "native:" + t.Denom
}

// Amount is a quantity of a token in minimal units.
type Amount struct {
	Token  Token           `json:"token"`
	Amount decimal.Decimal `json:"amount"`
}

func NewAmount(token Token, amount int64) Amount {
	return Amount{Token: token, Amount: decimal.NewFromInt(amount)}
}

// Units converts a count to a decimal without going through int64.
func Units(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

func (a Amount) Validate() error {
	if err := a.Token.Validate(); err != nil {
		return err
	}
	if a.Amount.IsNegative() || !a.Amount.IsInteger() {
		return fmt.Errorf("amount %s is not a non-negative integer", a.Amount)
	}
	return nil
}

// Sum adds up every amount denominated in token.
func Sum(amounts []Amount, token Token) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		if a.Token == token {
			total = total.Add(a.Amount)
		}
	}
	return total
}
