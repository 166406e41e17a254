package ledger

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/zipline/core/types"
)

// MaxInvokeDepth bounds nested invocations below a top-level instruction.
const MaxInvokeDepth = 4

var (
	ErrUnknownProgram       = errors.New("unknown program")
	ErrCallDepth            = errors.New("max invoke depth reached")
	ErrReentrancyNotAllowed = errors.New("cross-program reentrancy not allowed")
	ErrMissingAccount       = errors.New("instruction references an account the caller did not supply")
	ErrPrivilegeEscalation  = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrInvalidSignerSeeds   = errors.New("could not derive signer from seeds")
)

// Tracer observes invocations as they are dispatched.
type Tracer interface {
	CaptureEnter(depth int, programID types.Pubkey, accounts []types.AccountMeta)
	CaptureExit(depth int, programID types.Pubkey, err error)
}

// execution is the per-transaction environment shared by every invocation.
type execution struct {
	ledger  *Ledger
	state   *State
	tx      *types.Transaction
	current int
	stack   []types.Pubkey
	logs    []string
	tracer  Tracer
	logger  log.Logger
}

// InvokeContext is handed to a program for one invocation.
type InvokeContext struct {
	exec      *execution
	programID types.Pubkey
	accounts  []*AccountInfo
	depth     int
}

func (c *InvokeContext) ProgramID() types.Pubkey { return c.programID }

// Accounts returns the accounts of the instruction in declaration order.
func (c *InvokeContext) Accounts() []*AccountInfo { return c.accounts }

func (c *InvokeContext) Depth() int { return c.depth }

// Log records a program log line on the receipt.
func (c *InvokeContext) Log(format string, args ...interface{}) {
	line := fmt.Sprintf("Program %s: %s", c.programID, fmt.Sprintf(format, args...))
	c.exec.logs = append(c.exec.logs, line)
	c.exec.logger.Trace(line)
}

// Invoke runs ix as a nested instruction. infos must cover every account ix
// references; signerSeeds lets the calling program sign for addresses derived
// from its own id. The callee can never gain a privilege the caller lacks.
func (c *InvokeContext) Invoke(ix types.Instruction, infos []*AccountInfo, signerSeeds [][][]byte) error {
	if c.depth+1 > MaxInvokeDepth {
		return ErrCallDepth
	}
	derived := mapset.NewThreadUnsafeSet[types.Pubkey]()
	for _, seeds := range signerSeeds {
		addr, err := types.CreateProgramAddress(seeds, c.programID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignerSeeds, err)
		}
		derived.Add(addr)
	}

	signers := mapset.NewThreadUnsafeSet[types.Pubkey]()
	writable := mapset.NewThreadUnsafeSet[types.Pubkey]()
	owned := mapset.NewThreadUnsafeSet[types.Pubkey]()
	for _, acc := range c.accounts {
		owned.Add(acc.Key)
		if acc.IsSigner {
			signers.Add(acc.Key)
		}
		if acc.IsWritable {
			writable.Add(acc.Key)
		}
	}
	supplied := mapset.NewThreadUnsafeSet[types.Pubkey]()
	for _, info := range infos {
		supplied.Add(info.Key)
	}

	callee := &InvokeContext{
		exec:      c.exec,
		programID: ix.ProgramID,
		accounts:  make([]*AccountInfo, 0, len(ix.Accounts)),
		depth:     c.depth + 1,
	}
	for _, meta := range ix.Accounts {
		if !supplied.Contains(meta.Pubkey) || !owned.Contains(meta.Pubkey) {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.Pubkey)
		}
		if meta.IsWritable && !writable.Contains(meta.Pubkey) {
			return fmt.Errorf("%w: %s writable", ErrPrivilegeEscalation, meta.Pubkey)
		}
		if meta.IsSigner && !signers.Contains(meta.Pubkey) && !derived.Contains(meta.Pubkey) {
			return fmt.Errorf("%w: %s signer", ErrPrivilegeEscalation, meta.Pubkey)
		}
		callee.accounts = append(callee.accounts, &AccountInfo{
			Key:        meta.Pubkey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			ctx:        callee,
		})
	}
	return c.exec.dispatch(callee, ix)
}

func (e *execution) dispatch(ctx *InvokeContext, ix types.Instruction) (err error) {
	program, ok := e.ledger.program(ix.ProgramID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}
	// a program may call itself but not re-enter through another program
	if n := len(e.stack); n > 0 && e.stack[n-1] != ix.ProgramID {
		for _, id := range e.stack {
			if id == ix.ProgramID {
				return fmt.Errorf("%w: %s", ErrReentrancyNotAllowed, ix.ProgramID)
			}
		}
	}
	e.stack = append(e.stack, ix.ProgramID)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	if e.tracer != nil {
		e.tracer.CaptureEnter(ctx.depth, ix.ProgramID, ix.Accounts)
		defer func() { e.tracer.CaptureExit(ctx.depth, ix.ProgramID, err) }()
	}
	return program.Process(ctx, ix.Data)
}
