package tracer

import (
	"context"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/SipengXie/zipline/accesslist"
	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
)

func TestCreateRWAL(t *testing.T) {
	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	l := ledger.New(ledger.NewMemoryStore(), logger)
	payer, err := types.NewKeypair()
	require.NoError(t, err)
	to, err := types.NewKeypair()
	require.NoError(t, err)
	require.NoError(t, l.Airdrop(context.Background(), payer.Pubkey(), 100))

	tx := types.NewTransaction(payer.Pubkey(),
		ledger.TransferInstruction(payer.Pubkey(), to.Pubkey(), 10),
	)
	require.NoError(t, tx.Sign(payer))

	rwal, receipt, err := CreateRWAL(context.Background(), l, tx)
	require.NoError(t, err)
	require.Equal(t, ledger.ReceiptStatusSuccessful, receipt.Status)
	m := rwal.ToMarshal()
	require.Contains(t, m.WriteSet, to.Pubkey().String())
	require.Contains(t, m.WriteSet, payer.Pubkey().String())
	require.True(t, rwal.Equal(accesslist.FromTransaction(tx)))

	// nothing was kept
	acc, err := l.Account(context.Background(), to.Pubkey())
	require.NoError(t, err)
	require.Zero(t, acc.Lamports)
}

func TestTracerExcludes(t *testing.T) {
	tr := NewRWAccessListTracer(nil, DefaultExcluded())
	tr.CaptureEnter(0, types.SystemProgramID, []types.AccountMeta{
		types.Readonly(types.InstructionsSysvarID),
		types.Writable(types.Secp256k1ProgramID),
	})
	require.Zero(t, tr.RWAccessList().ReadAL.Cardinality())
	require.Zero(t, tr.RWAccessList().WriteAL.Cardinality())
}
