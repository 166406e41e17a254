package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/SipengXie/zipline/core/secp256k1"
	"github.com/SipengXie/zipline/core/types"
)

func newTestLedger(t *testing.T) (*Ledger, *types.Keypair) {
	t.Helper()
	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	l := New(NewMemoryStore(), logger)
	payer, err := types.NewKeypair()
	require.NoError(t, err)
	require.NoError(t, l.Airdrop(context.Background(), payer.Pubkey(), 1_000_000))
	return l, payer
}

func newKeypair(t *testing.T) *types.Keypair {
	kp, err := types.NewKeypair()
	require.NoError(t, err)
	return kp
}

func process(t *testing.T, l *Ledger, payer *types.Keypair, signers []*types.Keypair, ixs ...types.Instruction) (*Receipt, error) {
	tx := types.NewTransaction(payer.Pubkey(), ixs...)
	require.NoError(t, tx.Sign(append([]*types.Keypair{payer}, signers...)...))
	return l.ProcessTransaction(context.Background(), tx)
}

func balance(t *testing.T, l *Ledger, key types.Pubkey) uint64 {
	acc, err := l.Account(context.Background(), key)
	require.NoError(t, err)
	return acc.Lamports
}

func TestStateSnapshot(t *testing.T) {
	s := NewState(NewMemoryStore())
	key := newKeypair(t).Pubkey()

	require.NoError(t, s.SetAccount(key, &Account{Lamports: 1}))
	snap := s.Snapshot()
	require.NoError(t, s.SetAccount(key, &Account{Lamports: 2}))
	require.NoError(t, s.SetAccount(key, &Account{Lamports: 3}))
	s.RevertToSnapshot(snap)

	bal, err := s.GetBalance(key)
	require.NoError(t, err)
	require.Equal(t, uint64(1), bal)

	s.Discard()
	bal, err = s.GetBalance(key)
	require.NoError(t, err)
	require.Zero(t, bal)
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.db")
	store, err := OpenBoltStore(path, 16*datasize.MB)
	require.NoError(t, err)

	key := newKeypair(t).Pubkey()
	owner := newKeypair(t).Pubkey()
	s := NewState(store)
	require.NoError(t, s.SetAccount(key, &Account{Lamports: 5, Owner: owner, Data: []byte{1, 2}}))
	require.NoError(t, s.Commit())
	require.NoError(t, store.Close())

	store, err = OpenBoltStore(path, 16*datasize.MB)
	require.NoError(t, err)
	defer store.Close()
	acc, err := store.Get(key)
	require.NoError(t, err)
	require.Equal(t, &Account{Lamports: 5, Owner: owner, Data: []byte{1, 2}}, acc)

	// emptied accounts are removed
	s = NewState(store)
	require.NoError(t, s.SetAccount(key, &Account{}))
	require.NoError(t, s.Commit())
	acc, err = store.Get(key)
	require.NoError(t, err)
	require.Nil(t, acc)
}

func TestSystemTransfer(t *testing.T) {
	l, payer := newTestLedger(t)
	to := newKeypair(t).Pubkey()

	receipt, err := process(t, l, payer, nil, TransferInstruction(payer.Pubkey(), to, 300))
	require.NoError(t, err)
	require.Equal(t, ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, uint64(300), balance(t, l, to))
	require.Equal(t, uint64(1_000_000-300), balance(t, l, payer.Pubkey()))

	_, err = process(t, l, payer, nil, TransferInstruction(payer.Pubkey(), to, 2_000_000))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, uint64(300), balance(t, l, to))
}

func TestSystemCreateAccount(t *testing.T) {
	l, payer := newTestLedger(t)
	account := newKeypair(t)
	owner := newKeypair(t).Pubkey()

	ix := CreateAccountInstruction(payer.Pubkey(), account.Pubkey(), MinimumBalance(10), 10, owner)
	_, err := process(t, l, payer, []*types.Keypair{account}, ix)
	require.NoError(t, err)

	acc, err := l.Account(context.Background(), account.Pubkey())
	require.NoError(t, err)
	require.Equal(t, owner, acc.Owner)
	require.Len(t, acc.Data, 10)
	require.Equal(t, MinimumBalance(10), acc.Lamports)

	_, err = process(t, l, payer, []*types.Keypair{account}, ix)
	require.ErrorIs(t, err, ErrAccountAlreadyInUse)
}

func TestSystemAllocateAssign(t *testing.T) {
	l, payer := newTestLedger(t)
	account := newKeypair(t)
	owner := newKeypair(t).Pubkey()

	_, err := process(t, l, payer, nil, TransferInstruction(payer.Pubkey(), account.Pubkey(), 7))
	require.NoError(t, err)

	// both need the account's own signature
	_, err = process(t, l, payer, nil, types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []types.AccountMeta{types.Writable(account.Pubkey())},
		Data:      AllocateInstruction(account.Pubkey(), 4).Data,
	})
	require.ErrorIs(t, err, ErrMissingRequiredSignature)

	_, err = process(t, l, payer, []*types.Keypair{account},
		AllocateInstruction(account.Pubkey(), 4),
		AssignInstruction(account.Pubkey(), owner),
	)
	require.NoError(t, err)

	acc, err := l.Account(context.Background(), account.Pubkey())
	require.NoError(t, err)
	require.Equal(t, &Account{Lamports: 7, Owner: owner, Data: make([]byte, 4)}, acc)

	// no longer a system account
	_, err = process(t, l, payer, []*types.Keypair{account}, AssignInstruction(account.Pubkey(), types.SystemProgramID))
	require.ErrorIs(t, err, ErrExternalAccountDataModified)
}

func TestMissingSignerRejected(t *testing.T) {
	l, payer := newTestLedger(t)
	account := newKeypair(t)
	ix := CreateAccountInstruction(payer.Pubkey(), account.Pubkey(), 1, 0, types.SystemProgramID)
	_, err := process(t, l, payer, nil, ix)
	require.ErrorIs(t, err, types.ErrMissingSignature)
}

func TestPrecompileRunsFirst(t *testing.T) {
	l, payer := newTestLedger(t)
	to := newKeypair(t).Pubkey()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	verify, err := secp256k1.NewInstruction(key, []byte("msg"), 1)
	require.NoError(t, err)
	verify.Data[len(verify.Data)-1] ^= 1

	// the failing verification sits after the transfer but still stops it
	receipt, err := process(t, l, payer, nil, TransferInstruction(payer.Pubkey(), to, 1), verify)
	require.ErrorIs(t, err, secp256k1.ErrInvalidSignature)
	require.Equal(t, ReceiptStatusFailed, receipt.Status)
	require.Zero(t, balance(t, l, to))
}

func TestInstructionsSysvar(t *testing.T) {
	l, payer := newTestLedger(t)
	programID := newKeypair(t).Pubkey()

	var seen []uint16
	require.NoError(t, l.RegisterProgram(programID, ProgramFunc(func(ctx *InvokeContext, data []byte) error {
		sysvar, err := ctx.LoadInstructions(ctx.Accounts()[0])
		if err != nil {
			return err
		}
		index, err := sysvar.CurrentIndex()
		if err != nil {
			return err
		}
		ix, err := sysvar.InstructionAt(int(index))
		if err != nil {
			return err
		}
		require.Equal(t, data, ix.Data)
		_, err = sysvar.InstructionAt(sysvar.Len())
		require.ErrorIs(t, err, ErrInstructionOutOfRange)
		seen = append(seen, index)
		return nil
	})))

	ix := func(b byte) types.Instruction {
		return types.Instruction{ProgramID: programID, Accounts: []types.AccountMeta{types.Readonly(types.InstructionsSysvarID)}, Data: []byte{b}}
	}
	_, err := process(t, l, payer, nil, ix(1), ix(2))
	require.NoError(t, err)
	require.Equal(t, []uint16{0, 1}, seen)

	bad := ix(3)
	bad.Accounts[0] = types.Readonly(payer.Pubkey())
	_, err = process(t, l, payer, nil, bad)
	require.ErrorIs(t, err, ErrInvalidSysvar)
}

func TestInvokePrivileges(t *testing.T) {
	l, payer := newTestLedger(t)
	programID := newKeypair(t).Pubkey()
	to := newKeypair(t).Pubkey()

	var seeds [][][]byte
	require.NoError(t, l.RegisterProgram(programID, ProgramFunc(func(ctx *InvokeContext, data []byte) error {
		accounts := ctx.Accounts()
		return ctx.Invoke(TransferInstruction(accounts[0].Key, accounts[1].Key, 10), accounts, seeds)
	})))

	vault, bump, err := types.FindProgramAddress([][]byte{[]byte("vault")}, programID)
	require.NoError(t, err)
	require.NoError(t, l.Airdrop(context.Background(), vault, 100))

	call := types.Instruction{ProgramID: programID, Accounts: []types.AccountMeta{types.Writable(vault), types.Writable(to)}}

	// without seeds the program cannot sign for its vault
	_, err = process(t, l, payer, nil, call)
	require.ErrorIs(t, err, ErrPrivilegeEscalation)

	seeds = [][][]byte{{[]byte("vault"), {bump}}}
	_, err = process(t, l, payer, nil, call)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance(t, l, to))
	require.Equal(t, uint64(90), balance(t, l, vault))

	// writable cannot be gained either
	readonly := types.Instruction{ProgramID: programID, Accounts: []types.AccountMeta{types.Writable(vault), types.Readonly(to)}}
	_, err = process(t, l, payer, nil, readonly)
	require.ErrorIs(t, err, ErrPrivilegeEscalation)
}

func TestInvokeDepthAndReentrancy(t *testing.T) {
	l, payer := newTestLedger(t)
	a := newKeypair(t).Pubkey()
	b := newKeypair(t).Pubkey()

	var maxDepth int
	require.NoError(t, l.RegisterProgram(a, ProgramFunc(func(ctx *InvokeContext, data []byte) error {
		if ctx.Depth() > maxDepth {
			maxDepth = ctx.Depth()
		}
		switch data[0] {
		case 0: // recurse into itself
			return ctx.Invoke(types.Instruction{ProgramID: a, Data: data}, nil, nil)
		default: // bounce through b
			return ctx.Invoke(types.Instruction{ProgramID: b, Data: data}, nil, nil)
		}
	})))
	require.NoError(t, l.RegisterProgram(b, ProgramFunc(func(ctx *InvokeContext, data []byte) error {
		return ctx.Invoke(types.Instruction{ProgramID: a, Data: data}, nil, nil)
	})))

	_, err := process(t, l, payer, nil, types.Instruction{ProgramID: a, Data: []byte{0}})
	require.ErrorIs(t, err, ErrCallDepth)
	require.Equal(t, MaxInvokeDepth, maxDepth)

	_, err = process(t, l, payer, nil, types.Instruction{ProgramID: a, Data: []byte{1}})
	require.ErrorIs(t, err, ErrReentrancyNotAllowed)

	_, err = process(t, l, payer, nil, types.Instruction{ProgramID: newKeypair(t).Pubkey()})
	require.ErrorIs(t, err, ErrUnknownProgram)
}

func TestOwnershipRules(t *testing.T) {
	l, payer := newTestLedger(t)
	programID := newKeypair(t).Pubkey()
	require.NoError(t, l.RegisterProgram(programID, ProgramFunc(func(ctx *InvokeContext, data []byte) error {
		acc := ctx.Accounts()[0]
		if data[0] == 0 {
			return acc.Debit(1)
		}
		return acc.SetData(nil)
	})))

	call := func(b byte) types.Instruction {
		return types.Instruction{ProgramID: programID, Accounts: []types.AccountMeta{types.Writable(payer.Pubkey())}, Data: []byte{b}}
	}
	_, err := process(t, l, payer, nil, call(0))
	require.ErrorIs(t, err, ErrExternalAccountLamportSpend)
	_, err = process(t, l, payer, nil, call(1))
	require.ErrorIs(t, err, ErrExternalAccountDataModified)

	require.ErrorIs(t, l.RegisterProgram(programID, ProgramFunc(nil)), ErrProgramRegistered)
}
