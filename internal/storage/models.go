package storage

import (
	"time"

	"raffle/internal/ledger"
	"raffle/internal/proceeds"
	"raffle/internal/raffle"
)

type RaffleRecord struct {
	ID        string             `gorm:"primaryKey"`
	Creator   string             `gorm:"not null"`
	Operator  string             `gorm:"not null;index"`
	Edition   string             `gorm:"not null"`
	Status    raffle.Status      `gorm:"not null;index"`
	Royalties []proceeds.Royalty `gorm:"serializer:json"`
	State     raffle.State       `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newRaffleRecord(record *raffle.Record) *RaffleRecord {
	return &RaffleRecord{
		ID:        record.ID,
		Creator:   record.Creator,
		Operator:  record.Operator,
		Edition:   record.Edition,
		Status:    record.State.Status,
		Royalties: record.Royalties,
		State:     record.State,
	}
}

func (r *RaffleRecord) toRecord() *raffle.Record {
	return &raffle.Record{
		ID:        r.ID,
		Creator:   r.Creator,
		Operator:  r.Operator,
		Edition:   r.Edition,
		Royalties: r.Royalties,
		State:     r.State,
	}
}

type TicketOrder struct {
	ID         int64  `gorm:"primaryKey"`
	RaffleID   string `gorm:"not null;uniqueIndex:idx_raffle_cumulative"`
	Cumulative uint64 `gorm:"not null;uniqueIndex:idx_raffle_cumulative"`
	Buyer      string `gorm:"not null"`
	Count      uint32 `gorm:"not null"`
	Visible    bool   `gorm:"default:false"`
	Message    *string
}

func (o *TicketOrder) toOrder() ledger.Order {
	return ledger.Order{
		Buyer:      o.Buyer,
		Count:      o.Count,
		Cumulative: o.Cumulative,
		Visible:    o.Visible,
		Message:    o.Message,
	}
}

type WalletAggregate struct {
	RaffleID         string `gorm:"primaryKey"`
	Address          string `gorm:"primaryKey"`
	TicketCount      uint64 `gorm:"not null"`
	OrderCount       uint32 `gorm:"not null"`
	DisplayMessage   *string
	HasClaimedRefund bool `gorm:"default:false"`
}

func newWalletAggregate(raffleID string, wallet *ledger.Wallet) *WalletAggregate {
	return &WalletAggregate{
		RaffleID:         raffleID,
		Address:          wallet.Address,
		TicketCount:      wallet.TicketCount,
		OrderCount:       wallet.OrderCount,
		DisplayMessage:   wallet.DisplayMessage,
		HasClaimedRefund: wallet.HasClaimedRefund,
	}
}

func (w *WalletAggregate) toWallet() ledger.Wallet {
	return ledger.Wallet{
		Address:          w.Address,
		TicketCount:      w.TicketCount,
		OrderCount:       w.OrderCount,
		DisplayMessage:   w.DisplayMessage,
		HasClaimedRefund: w.HasClaimedRefund,
	}
}

type RefundClaim struct {
	RaffleID  string `gorm:"primaryKey"`
	Address   string `gorm:"primaryKey"`
	CreatedAt time.Time
}

type SettlementPayout struct {
	ID         uint64              `gorm:"primaryKey"`
	RaffleID   string              `gorm:"not null;index"`
	Action     string              `gorm:"not null"`
	Height     uint64              `gorm:"not null"`
	TxIndex    uint64              `gorm:"not null"`
	Settlement proceeds.Settlement `gorm:"serializer:json"`
	Sent       int                 `gorm:"not null;default:0"`
	Status     PayoutStatus        `gorm:"not null;index;default:pending"`
	TxHash     string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *SettlementPayout) toPayout() *raffle.Payout {
	return &raffle.Payout{
		ID:         p.ID,
		RaffleID:   p.RaffleID,
		Action:     p.Action,
		Height:     p.Height,
		TxIndex:    p.TxIndex,
		Settlement: p.Settlement,
		Sent:       p.Sent,
		Submitted:  p.Status == PayoutSubmitted,
		Failed:     p.Status == PayoutFailed,
		Error:      p.Error,
		TxHash:     p.TxHash,
	}
}
