package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/semaphore"

	"github.com/SipengXie/zipline/core/secp256k1"
	"github.com/SipengXie/zipline/core/types"
)

const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

var ErrProgramRegistered = errors.New("program already registered")

// InstructionError reports which top-level instruction failed a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }

// Receipt is the outcome of an executed transaction.
type Receipt struct {
	TxHash common.Hash `json:"txHash"`
	Status uint64      `json:"status"`
	Logs   []string    `json:"logs"`
	Err    string      `json:"error,omitempty"`
}

// Ledger executes transactions one at a time against an account store. A
// transaction either commits all of its changes or none.
type Ledger struct {
	sem      *semaphore.Weighted
	store    Store
	state    *State
	programs map[types.Pubkey]Program
	logger   log.Logger
}

// New creates a ledger over store with the system program and the secp256k1
// precompile registered.
func New(store Store, logger log.Logger) *Ledger {
	if logger == nil {
		logger = log.Root()
	}
	l := &Ledger{
		sem:      semaphore.NewWeighted(1),
		store:    store,
		state:    NewState(store),
		programs: make(map[types.Pubkey]Program),
		logger:   logger,
	}
	l.programs[types.SystemProgramID] = SystemProgram{}
	// signatures are checked before execution, invoking it is a no-op
	l.programs[types.Secp256k1ProgramID] = ProgramFunc(func(*InvokeContext, []byte) error { return nil })
	return l
}

// RegisterProgram makes program callable under id.
func (l *Ledger) RegisterProgram(id types.Pubkey, program Program) error {
	if err := l.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	if _, ok := l.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrProgramRegistered, id)
	}
	l.programs[id] = program
	return nil
}

func (l *Ledger) program(id types.Pubkey) (Program, bool) {
	p, ok := l.programs[id]
	return p, ok
}

// Account returns a copy of the committed account under key.
func (l *Ledger) Account(ctx context.Context, key types.Pubkey) (*Account, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.state.GetAccount(key)
}

// Airdrop mints lamports into key.
func (l *Ledger) Airdrop(ctx context.Context, key types.Pubkey, lamports uint64) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	acc, err := l.state.GetAccount(key)
	if err != nil {
		return err
	}
	if acc.Lamports > math.MaxUint64-lamports {
		return ErrLamportOverflow
	}
	acc.Lamports += lamports
	if err := l.state.SetAccount(key, acc); err != nil {
		l.state.Discard()
		return err
	}
	return l.state.Commit()
}

// ProcessTransaction verifies and executes tx. When execution fails the
// receipt is still returned, together with the error, and no change is kept.
func (l *Ledger) ProcessTransaction(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	return l.ProcessTransactionWithTracer(ctx, tx, nil)
}

// ProcessTransactionWithTracer is ProcessTransaction with tracer observing
// every invocation.
func (l *Ledger) ProcessTransactionWithTracer(ctx context.Context, tx *types.Transaction, tracer Tracer) (*Receipt, error) {
	return l.process(ctx, tx, tracer, true)
}

// Simulate executes tx like ProcessTransaction but always discards its
// changes.
func (l *Ledger) Simulate(ctx context.Context, tx *types.Transaction, tracer Tracer) (*Receipt, error) {
	return l.process(ctx, tx, tracer, false)
}

func (l *Ledger) process(ctx context.Context, tx *types.Transaction, tracer Tracer, commit bool) (*Receipt, error) {
	if err := tx.VerifySignatures(); err != nil {
		return nil, err
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	hash := tx.Hash()
	receipt := &Receipt{TxHash: hash}
	exec := &execution{
		ledger: l,
		state:  l.state,
		tx:     tx,
		tracer: tracer,
		logger: l.logger.New("tx", hash),
	}
	err := l.execute(exec)
	receipt.Logs = exec.logs
	if err != nil {
		l.state.Discard()
		receipt.Status = ReceiptStatusFailed
		receipt.Err = err.Error()
		l.logger.Debug("Transaction failed", "hash", hash, "err", err)
		return receipt, err
	}
	receipt.Status = ReceiptStatusSuccessful
	if !commit {
		l.state.Discard()
		return receipt, nil
	}
	if err := l.state.Commit(); err != nil {
		l.state.Discard()
		return nil, fmt.Errorf("commit %s: %w", hash, err)
	}
	l.logger.Debug("Transaction executed", "hash", hash, "instructions", len(tx.Instructions))
	return receipt, nil
}

func (l *Ledger) execute(exec *execution) error {
	tx := exec.tx
	datas := make([][]byte, len(tx.Instructions))
	for i, ix := range tx.Instructions {
		datas[i] = ix.Data
	}
	for i, ix := range tx.Instructions {
		if ix.ProgramID != types.Secp256k1ProgramID {
			continue
		}
		if err := secp256k1.Verify(ix.Data, datas); err != nil {
			return &InstructionError{Index: i, Err: err}
		}
	}

	signers, writable := tx.Privileges()
	for i, ix := range tx.Instructions {
		exec.current = i
		ctx := &InvokeContext{
			exec:      exec,
			programID: ix.ProgramID,
			accounts:  make([]*AccountInfo, 0, len(ix.Accounts)),
		}
		for _, meta := range ix.Accounts {
			ctx.accounts = append(ctx.accounts, &AccountInfo{
				Key:        meta.Pubkey,
				IsSigner:   signers.Contains(meta.Pubkey),
				IsWritable: writable.Contains(meta.Pubkey),
				ctx:        ctx,
			})
		}
		if err := exec.dispatch(ctx, ix); err != nil {
			return &InstructionError{Index: i, Err: err}
		}
	}
	return nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
