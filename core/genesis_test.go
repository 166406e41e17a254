package core

import (
	"context"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
)

func TestGenesisCommitOnce(t *testing.T) {
	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	l := ledger.New(ledger.NewMemoryStore(), logger)
	kp, err := types.NewKeypair()
	require.NoError(t, err)

	g := &Genesis{Alloc: GenesisAlloc{kp.Pubkey(): 500}}
	n, err := g.Commit(context.Background(), l, logger)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = g.Commit(context.Background(), l, logger)
	require.NoError(t, err)
	require.Zero(t, n)

	acc, err := l.Account(context.Background(), kp.Pubkey())
	require.NoError(t, err)
	require.Equal(t, uint64(500), acc.Lamports)
}
