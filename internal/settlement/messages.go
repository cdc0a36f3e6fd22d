package settlement

import (
	"fmt"
	"math/big"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/wallet"

	"raffle/internal/asset"
	"raffle/internal/proceeds"
)

const (
	NativeDenom = "nanoton"

	JettonTransferOpCode = 0x0f8a7ea5
	NftTransferOpCode    = 0x5fcc3d14

	// attached to jetton and nft transfers to pay for the token contract
	TokenTransferGas = 50_000_000
)

// BuildMessages converts settlement instructions into wallet messages sent
// from the raffle wallet. Custom token amounts go through the raffle's token
// wallet; NFT items are transferred by messaging the item itself.
func BuildMessages(raffleWallet ton.AccountID, settlement proceeds.Settlement, queryID uint64) ([]wallet.Message, error) {
	messages := make([]wallet.Message, 0, settlement.Len())
	for i, in := range settlement.All() {
		message, err := buildMessage(raffleWallet, in, queryID+uint64(i))
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%s to %s): %w", i, in.Purpose, in.Recipient, err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func buildMessage(raffleWallet ton.AccountID, in proceeds.Instruction, queryID uint64) (wallet.Message, error) {
	recipient, err := ton.ParseAccountID(in.Recipient)
	if err != nil {
		return wallet.Message{}, fmt.Errorf("parse recipient: %w", err)
	}

	amount := in.Amount.BigInt()
	if amount.Sign() < 0 {
		return wallet.Message{}, fmt.Errorf("negative amount %s", in.Amount)
	}

	switch {
	case in.Item != "":
		item, err := ton.ParseAccountID(in.Item)
		if err != nil {
			return wallet.Message{}, fmt.Errorf("parse item: %w", err)
		}
		body, err := nftTransferBody(queryID, recipient, raffleWallet)
		if err != nil {
			return wallet.Message{}, err
		}
		return wallet.Message{
			Amount:  TokenTransferGas,
			Address: item,
			Bounce:  true,
			Mode:    wallet.DefaultMessageMode,
			Body:    body,
		}, nil

	case in.Token.Kind == asset.KindCustom:
		tokenWallet, err := ton.ParseAccountID(in.Token.Address)
		if err != nil {
			return wallet.Message{}, fmt.Errorf("parse token wallet: %w", err)
		}
		body, err := jettonTransferBody(queryID, amount, recipient, raffleWallet)
		if err != nil {
			return wallet.Message{}, err
		}
		return wallet.Message{
			Amount:  TokenTransferGas,
			Address: tokenWallet,
			Bounce:  true,
			Mode:    wallet.DefaultMessageMode,
			Body:    body,
		}, nil

	default:
		if in.Token.Denom != NativeDenom {
			return wallet.Message{}, fmt.Errorf("unsupported native denom %q", in.Token.Denom)
		}
		if !amount.IsUint64() {
			return wallet.Message{}, fmt.Errorf("amount %s out of range", in.Amount)
		}
		return wallet.Message{
			Amount:  tlb.Grams(amount.Uint64()),
			Address: recipient,
			Bounce:  false,
			Mode:    wallet.DefaultMessageMode,
		}, nil
	}
}

// transfer#0f8a7ea5 query_id:uint64 amount:(VarUInteger 16) destination:MsgAddress
// response_destination:MsgAddress custom_payload:(Maybe ^Cell)
// forward_ton_amount:(VarUInteger 16) forward_payload:(Either Cell ^Cell)
func jettonTransferBody(queryID uint64, amount *big.Int, destination, response ton.AccountID) (*boc.Cell, error) {
	cell := boc.NewCell()

	if err := cell.WriteUint(JettonTransferOpCode, 32); err != nil {
		return nil, err
	}
	if err := cell.WriteUint(queryID, 64); err != nil {
		return nil, err
	}
	if err := writeCoins(cell, amount); err != nil {
		return nil, err
	}
	if err := tlb.Marshal(cell, destination.ToMsgAddress()); err != nil {
		return nil, err
	}
	if err := tlb.Marshal(cell, response.ToMsgAddress()); err != nil {
		return nil, err
	}
	if err := cell.WriteBit(false); err != nil { // custom_payload
		return nil, err
	}
	if err := writeCoins(cell, big.NewInt(0)); err != nil { // forward_ton_amount
		return nil, err
	}
	if err := cell.WriteBit(false); err != nil { // forward_payload
		return nil, err
	}

	return cell, nil
}

// transfer#5fcc3d14 query_id:uint64 new_owner:MsgAddress
// response_destination:MsgAddress custom_payload:(Maybe ^Cell)
// forward_amount:(VarUInteger 16) forward_payload:(Either Cell ^Cell)
func nftTransferBody(queryID uint64, newOwner, response ton.AccountID) (*boc.Cell, error) {
	cell := boc.NewCell()

	if err := cell.WriteUint(NftTransferOpCode, 32); err != nil {
		return nil, err
	}
	if err := cell.WriteUint(queryID, 64); err != nil {
		return nil, err
	}
	if err := tlb.Marshal(cell, newOwner.ToMsgAddress()); err != nil {
		return nil, err
	}
	if err := tlb.Marshal(cell, response.ToMsgAddress()); err != nil {
		return nil, err
	}
	if err := cell.WriteBit(false); err != nil {
		return nil, err
	}
	if err := writeCoins(cell, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := cell.WriteBit(false); err != nil {
		return nil, err
	}

	return cell, nil
}

// writeCoins stores a VarUInteger 16: a 4-bit byte length then the big-endian value.
func writeCoins(cell *boc.Cell, amount *big.Int) error {
	value := amount.Bytes()
	if len(value) > 15 {
		return fmt.Errorf("coins value %s does not fit 15 bytes", amount)
	}
	if err := cell.WriteUint(uint64(len(value)), 4); err != nil {
		return err
	}
	for _, b := range value {
		if err := cell.WriteUint(uint64(b), 8); err != nil {
			return err
		}
	}
	return nil
}
