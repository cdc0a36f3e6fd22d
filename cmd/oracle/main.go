package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"

	"raffle/internal/config"
	"raffle/internal/logger"
	"raffle/internal/settlement"
	"raffle/internal/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- run(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "oracle stopped: %v\n", err)
			os.Exit(1)
		}
	case <-waitForInterrupt():
		fmt.Println("oracle: interrupt received")
		cancel()
		<-errCh
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.Log.Logger()); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := cfg.Settlement.Validate(); err != nil {
		return err
	}

	raffleWallet, err := ton.ParseAccountID(cfg.Settlement.RaffleWallet)
	if err != nil {
		return fmt.Errorf("parse raffle wallet address: %w", err)
	}

	sqliteStorage, err := storage.NewSqliteStorage(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer sqliteStorage.Close()

	client, err := settlement.NewAccountReader(cfg.Settlement.TonapiToken)
	if err != nil {
		return fmt.Errorf("tonapi client: %w", err)
	}

	oracleWallet, err := settlement.NewWallet(cfg.Settlement.WalletMnemonic, cfg.Settlement.WalletVersion)
	if err != nil {
		return err
	}

	settler, err := settlement.NewSettler(client, oracleWallet, raffleWallet, cfg.Settlement.ConfirmTimeout)
	if err != nil {
		return err
	}
	oracle := settlement.NewOracle(sqliteStorage, settler, cfg.Settlement.PollInterval)

	logger.Info("oracle: started",
		zap.String("raffle wallet", raffleWallet.ToRaw()),
		zap.Duration("interval", cfg.Settlement.PollInterval),
	)
	return oracle.Run(ctx)
}

func waitForInterrupt() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh
}
