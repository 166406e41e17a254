package svc

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/zipline/core"
	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/executor"
	"github.com/SipengXie/zipline/node/internal/config"
	"github.com/SipengXie/zipline/sdk"
)

type ServiceContext struct {
	Config          config.Config
	Ledger          *ledger.Ledger
	ExecutorService *executor.ExecutorService
	Client          *sdk.Client
	// pays for every transaction the relay submits
	FeePayer *types.Keypair
}

// NewServiceContext builds the relay for the zipline program registered on l
// under programID.
func NewServiceContext(c config.Config, programID types.Pubkey, l *ledger.Ledger, logger log.Logger) (*ServiceContext, error) {
	var (
		feePayer *types.Keypair
		err      error
	)
	if c.FeePayerSeed != "" {
		seed, decErr := hex.DecodeString(c.FeePayerSeed)
		if decErr != nil {
			return nil, fmt.Errorf("fee payer seed: %w", decErr)
		}
		feePayer, err = types.KeypairFromSeed(seed)
	} else {
		feePayer, err = types.NewKeypair()
	}
	if err != nil {
		return nil, err
	}

	if c.FeePayerFunding > 0 {
		genesis := &core.Genesis{Alloc: core.GenesisAlloc{feePayer.Pubkey(): c.FeePayerFunding}}
		if _, err := genesis.Commit(context.Background(), l, logger); err != nil {
			return nil, err
		}
	}
	logger.Info("Relay ready", "program", programID, "feePayer", feePayer.Pubkey())

	return &ServiceContext{
		Config:          c,
		Ledger:          l,
		ExecutorService: executor.NewExecutorService(l, logger.New("service", "executor")),
		Client:          sdk.New(programID),
		FeePayer:        feePayer,
	}, nil
}
