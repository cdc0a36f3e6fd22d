package settlement

import (
	"fmt"

	"github.com/tonkeeper/tonapi-go"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/wallet"
	"go.uber.org/zap"

	"raffle/internal/logger"
)

var WalletMap = map[string]int{
	"V1R1":         0,
	"V1R2":         1,
	"V1R3":         2,
	"V2R1":         3,
	"V2R2":         4,
	"V3R1":         5,
	"V3R2":         6,
	"V3R2Lockup":   7,
	"V4R1":         8,
	"V4R2":         9,
	"V5Beta":       10,
	"V5R1":         11,
	"HighLoadV1R1": 12,
	"HighLoadV1R2": 13,
	"HighLoadV2":   14,
	"HighLoadV2R1": 15,
	"HighLoadV2R2": 16,
}

// NewWallet restores the raffle wallet from its mnemonic over a mainnet liteserver connection.
func NewWallet(mnemonic string, version string) (*wallet.Wallet, error) {
	logger.Debug("settlement initialization: wallet...", zap.String("version", version))

	index, ok := WalletMap[version]
	if !ok {
		return nil, fmt.Errorf("unknown wallet version %q", version)
	}

	client, err := liteapi.NewClientWithDefaultMainnet()
	if err != nil {
		return nil, fmt.Errorf("connect liteserver: %w", err)
	}

	pk, err := wallet.SeedToPrivateKey(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("derive private key: %w", err)
	}

	w, err := wallet.New(pk, wallet.Version(index), client)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	logger.Debug("settlement initialization: wallet... done")
	return &w, nil
}

// NewAccountReader returns a tonapi client authenticated with token.
func NewAccountReader(token string) (*tonapi.Client, error) {
	logger.Debug("settlement initialization: tonapi client...")
	return tonapi.NewClient(tonapi.TonApiURL, tonapi.WithToken(token))
}
