package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	apperrors "raffle/internal/errors"
	"raffle/internal/ledger"
	"raffle/internal/logger"
	"raffle/internal/raffle"
)

type SqliteStorage struct {
	db *gorm.DB
}

func NewSqliteStorage(path string) (*SqliteStorage, error) {
	logger.Debug("initializing database...", zap.String("path", path))

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	err = db.AutoMigrate(
		&RaffleRecord{},
		&TicketOrder{},
		&WalletAggregate{},
		&RefundClaim{},
		&SettlementPayout{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Debug("initializing database... done")
	return &SqliteStorage{
		db: db,
	}, nil
}

func (s *SqliteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStorage) CreateRaffle(ctx context.Context, record *raffle.Record) error {
	logger.Debug("creating raffle record...", zap.String("raffle", record.ID))

	err := s.db.WithContext(ctx).Create(newRaffleRecord(record)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Validation("raffle " + record.ID + " already exists")
	}
	if err != nil {
		return fmt.Errorf("create raffle %s: %w", record.ID, err)
	}

	logger.Debug("creating raffle record... done")
	return nil
}

func (s *SqliteStorage) GetRaffle(ctx context.Context, id string) (*raffle.Record, error) {
	row, err := getRaffleRecord(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return row.toRecord(), nil
}

func getRaffleRecord(db *gorm.DB, id string) (*RaffleRecord, error) {
	var row RaffleRecord
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "raffle "+id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get raffle %s: %w", id, err)
	}
	return &row, nil
}

func (s *SqliteStorage) GetOrders(ctx context.Context, id string) (ledger.Book, error) {
	var rows []*TicketOrder
	err := s.db.WithContext(ctx).
		Where("raffle_id = ?", id).
		Order("cumulative asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get orders of raffle %s: %w", id, err)
	}

	book := make(ledger.Book, 0, len(rows))
	for _, row := range rows {
		book = append(book, row.toOrder())
	}
	return book, nil
}

func (s *SqliteStorage) GetWallet(ctx context.Context, id string, address string) (*ledger.Wallet, error) {
	var row WalletAggregate
	err := s.db.WithContext(ctx).
		Where("raffle_id = ? and address = ?", id, address).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet %s of raffle %s: %w", address, id, err)
	}

	wallet := row.toWallet()
	return &wallet, nil
}

func (s *SqliteStorage) GetWallets(ctx context.Context, id string) ([]ledger.Wallet, error) {
	var rows []*WalletAggregate
	err := s.db.WithContext(ctx).
		Where("raffle_id = ?", id).
		Order("address asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get wallets of raffle %s: %w", id, err)
	}

	wallets := make([]ledger.Wallet, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, row.toWallet())
	}
	return wallets, nil
}

func (s *SqliteStorage) GetRefundStatus(ctx context.Context, id string, address string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&RefundClaim{}).
		Where("raffle_id = ? and address = ?", id, address).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("get refund status of %s in raffle %s: %w", address, id, err)
	}
	return count > 0, nil
}

// Commit applies the changeset in one transaction.
func (s *SqliteStorage) Commit(ctx context.Context, id string, changeset *raffle.Changeset) error {
	logger.Debug("committing raffle changeset...", zap.String("raffle", id))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := getRaffleRecord(tx, id)
		if err != nil {
			return err
		}

		if changeset.Record != nil {
			row := newRaffleRecord(changeset.Record)
			row.CreatedAt = current.CreatedAt
			if err := tx.Save(row).Error; err != nil {
				return fmt.Errorf("save raffle: %w", err)
			}
		}

		if changeset.Order != nil {
			order := changeset.Order
			err := tx.Create(&TicketOrder{
				RaffleID:   id,
				Cumulative: order.Cumulative,
				Buyer:      order.Buyer,
				Count:      order.Count,
				Visible:    order.Visible,
				Message:    order.Message,
			}).Error
			if err != nil {
				return fmt.Errorf("append order: %w", err)
			}
		}

		if changeset.Wallet != nil {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "raffle_id"}, {Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"ticket_count", "order_count", "display_message", "has_claimed_refund"}),
			}).Create(newWalletAggregate(id, changeset.Wallet)).Error
			if err != nil {
				return fmt.Errorf("upsert wallet: %w", err)
			}
		}

		if changeset.RefundClaimed != "" {
			err := tx.Create(&RefundClaim{RaffleID: id, Address: changeset.RefundClaimed}).Error
			if err != nil {
				return fmt.Errorf("mark refund: %w", err)
			}
		}

		if changeset.Payout != nil {
			payout := changeset.Payout
			row := &SettlementPayout{
				RaffleID:   id,
				Action:     payout.Action,
				Height:     payout.Height,
				TxIndex:    payout.TxIndex,
				Settlement: payout.Settlement,
				Status:     PayoutPending,
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("enqueue payout: %w", err)
			}
			payout.ID = row.ID
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("committing raffle changeset... done")
	return nil
}

func (s *SqliteStorage) GetPendingPayouts(ctx context.Context, limit int) ([]*raffle.Payout, error) {
	query := s.db.WithContext(ctx).
		Where("status = ?", PayoutPending).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []*SettlementPayout
	err := query.Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get pending payouts: %w", err)
	}

	payouts := make([]*raffle.Payout, 0, len(rows))
	for _, row := range rows {
		payouts = append(payouts, row.toPayout())
	}
	return payouts, nil
}

func (s *SqliteStorage) RecordPayoutProgress(ctx context.Context, id uint64, sent int, txHash string) error {
	logger.Debug("recording payout progress...", zap.Uint64("payout", id), zap.Int("sent", sent))
	return s.updatePayout(ctx, id, map[string]any{"sent": sent, "tx_hash": txHash})
}

func (s *SqliteStorage) MarkPayoutSubmitted(ctx context.Context, id uint64, txHash string) error {
	logger.Debug("marking payout submitted...", zap.Uint64("payout", id), zap.String("tx", txHash))
	return s.updatePayout(ctx, id, map[string]any{"status": PayoutSubmitted, "tx_hash": txHash})
}

func (s *SqliteStorage) MarkPayoutFailed(ctx context.Context, id uint64, reason string) error {
	logger.Debug("marking payout failed...", zap.Uint64("payout", id), zap.String("reason", reason))
	return s.updatePayout(ctx, id, map[string]any{"status": PayoutFailed, "error": reason})
}

// updatePayout only touches pending payouts; finished ones are immutable.
func (s *SqliteStorage) updatePayout(ctx context.Context, id uint64, columns map[string]any) error {
	result := s.db.WithContext(ctx).
		Model(&SettlementPayout{}).
		Where("id = ? and status = ?", id, PayoutPending).
		Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("update payout %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("pending payout %d", id))
	}
	return nil
}
