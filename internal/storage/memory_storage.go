package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	apperrors "raffle/internal/errors"
	"raffle/internal/ledger"
	"raffle/internal/raffle"
)

type memoryRaffle struct {
	record  *raffle.Record
	orders  ledger.Book
	wallets map[string]ledger.Wallet
	refunds map[string]bool
}

// MemoryStorage keeps everything in process memory. Values are copied on the
// way in and out, so callers never share state with the store.
type MemoryStorage struct {
	mu      sync.RWMutex
	raffles map[string]*memoryRaffle
	payouts []*raffle.Payout
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		raffles: make(map[string]*memoryRaffle),
	}
}

func (s *MemoryStorage) CreateRaffle(_ context.Context, record *raffle.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.raffles[record.ID]; ok {
		return apperrors.Validation("raffle " + record.ID + " already exists")
	}

	stored, err := clone(record)
	if err != nil {
		return err
	}

	s.raffles[record.ID] = &memoryRaffle{
		record:  stored,
		wallets: make(map[string]ledger.Wallet),
		refunds: make(map[string]bool),
	}
	return nil
}

func (s *MemoryStorage) get(id string) (*memoryRaffle, error) {
	r, ok := s.raffles[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "raffle "+id)
	}
	return r, nil
}

func (s *MemoryStorage) GetRaffle(_ context.Context, id string) (*raffle.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return clone(r.record)
}

func (s *MemoryStorage) GetOrders(_ context.Context, id string) (ledger.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.raffles[id]
	if !ok {
		return ledger.Book{}, nil
	}
	book, err := clone(&r.orders)
	if err != nil {
		return nil, err
	}
	if *book == nil {
		return ledger.Book{}, nil
	}
	return *book, nil
}

func (s *MemoryStorage) GetWallet(_ context.Context, id string, address string) (*ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.raffles[id]
	if !ok {
		return nil, nil
	}
	wallet, ok := r.wallets[address]
	if !ok {
		return nil, nil
	}
	return clone(&wallet)
}

func (s *MemoryStorage) GetWallets(_ context.Context, id string) ([]ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.raffles[id]
	if !ok {
		return []ledger.Wallet{}, nil
	}

	wallets := make([]ledger.Wallet, 0, len(r.wallets))
	for _, w := range r.wallets {
		c, err := clone(&w)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *c)
	}
	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].Address < wallets[j].Address
	})
	return wallets, nil
}

func (s *MemoryStorage) GetRefundStatus(_ context.Context, id string, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.raffles[id]
	if !ok {
		return false, nil
	}
	return r.refunds[address], nil
}

// Commit prepares every copy before touching the store, so a failing copy
// leaves nothing applied.
func (s *MemoryStorage) Commit(_ context.Context, id string, changeset *raffle.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.get(id)
	if err != nil {
		return err
	}

	var (
		record *raffle.Record
		order  *ledger.Order
		wallet *ledger.Wallet
		payout *raffle.Payout
	)
	if changeset.Record != nil {
		if record, err = clone(changeset.Record); err != nil {
			return err
		}
	}
	if changeset.Order != nil {
		if order, err = clone(changeset.Order); err != nil {
			return err
		}
		if order.Cumulative != r.orders.TicketsSold()+uint64(order.Count) {
			return fmt.Errorf("append order to raffle %s: cumulative count %d out of sequence", id, order.Cumulative)
		}
	}
	if changeset.Wallet != nil {
		if wallet, err = clone(changeset.Wallet); err != nil {
			return err
		}
	}
	if changeset.Payout != nil {
		if payout, err = clone(changeset.Payout); err != nil {
			return err
		}
	}

	if record != nil {
		r.record = record
	}
	if order != nil {
		r.orders = append(r.orders, *order)
	}
	if wallet != nil {
		r.wallets[wallet.Address] = *wallet
	}
	if changeset.RefundClaimed != "" {
		r.refunds[changeset.RefundClaimed] = true
	}
	if payout != nil {
		payout.ID = uint64(len(s.payouts) + 1)
		payout.RaffleID = id
		changeset.Payout.ID = payout.ID
		s.payouts = append(s.payouts, payout)
	}
	return nil
}

func (s *MemoryStorage) GetPendingPayouts(_ context.Context, limit int) ([]*raffle.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*raffle.Payout
	for _, p := range s.payouts {
		if p.Submitted || p.Failed {
			continue
		}
		if limit > 0 && len(pending) == limit {
			break
		}
		c, err := clone(p)
		if err != nil {
			return nil, err
		}
		pending = append(pending, c)
	}
	return pending, nil
}

func (s *MemoryStorage) RecordPayoutProgress(_ context.Context, id uint64, sent int, txHash string) error {
	return s.updatePayout(id, func(p *raffle.Payout) {
		p.Sent = sent
		p.TxHash = txHash
	})
}

func (s *MemoryStorage) MarkPayoutSubmitted(_ context.Context, id uint64, txHash string) error {
	return s.updatePayout(id, func(p *raffle.Payout) {
		p.Submitted = true
		p.TxHash = txHash
	})
}

func (s *MemoryStorage) MarkPayoutFailed(_ context.Context, id uint64, reason string) error {
	return s.updatePayout(id, func(p *raffle.Payout) {
		p.Failed = true
		p.Error = reason
	})
}

// updatePayout only touches pending payouts; finished ones are immutable.
func (s *MemoryStorage) updatePayout(id uint64, update func(*raffle.Payout)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == 0 || id > uint64(len(s.payouts)) {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("pending payout %d", id))
	}
	p := s.payouts[id-1]
	if p.Submitted || p.Failed {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("pending payout %d", id))
	}
	update(p)
	return nil
}

// clone deep-copies v through its JSON form.
func clone[T any](v *T) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("copy %T: %w", v, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy %T: %w", v, err)
	}
	return &out, nil
}
