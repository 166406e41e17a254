package tracer

import (
	"context"

	"github.com/SipengXie/zipline/accesslist"
	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
)

// NewFeePayerTracer returns a tracer seeded with the fee payer's balance,
// which every transaction reads and writes even when no instruction lists it.
func NewFeePayerTracer(tx *types.Transaction) *RWAccessListsTracer {
	prev := accesslist.NewRWAccessLists()
	prev.AddReadAL(tx.FeePayer, accesslist.LAMPORTS)
	prev.AddWriteAL(tx.FeePayer, accesslist.LAMPORTS)
	return NewRWAccessListTracer(prev, DefaultExcluded())
}

// CreateRWAL dry-runs tx on l and returns the accounts it touched together
// with the receipt of the run. The run keeps no state. The receipt is nil
// when the ledger rejected tx before executing it.
func CreateRWAL(ctx context.Context, l *ledger.Ledger, tx *types.Transaction) (*accesslist.RWAccessLists, *ledger.Receipt, error) {
	tracer := NewFeePayerTracer(tx)
	receipt, err := l.Simulate(ctx, tx, tracer)
	return tracer.RWAccessList(), receipt, err
}
