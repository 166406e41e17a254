package core

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
)

// GenesisAlloc is the initial funding of a ledger.
type GenesisAlloc map[types.Pubkey]uint64

type Genesis struct {
	Alloc GenesisAlloc
}

// Commit funds every allocated account that is still empty, so reopening a
// persistent ledger does not credit it twice. It returns how many accounts
// were funded.
func (g *Genesis) Commit(ctx context.Context, l *ledger.Ledger, logger log.Logger) (int, error) {
	funded := 0
	for key, lamports := range g.Alloc {
		acc, err := l.Account(ctx, key)
		if err != nil {
			return funded, err
		}
		if acc.InUse() {
			continue
		}
		if err := l.Airdrop(ctx, key, lamports); err != nil {
			return funded, err
		}
		logger.Info("Funded genesis account", "account", key, "lamports", lamports)
		funded++
	}
	return funded, nil
}
