package ledger

import (
	"errors"
	"fmt"

	"github.com/SipengXie/zipline/core/types"
)

var (
	ErrInvalidSysvar           = errors.New("account is not the instructions sysvar")
	ErrInstructionOutOfRange   = errors.New("instruction index out of range")
	ErrInstructionIndexTooHigh = errors.New("current instruction index does not fit in u16")
)

// InstructionsSysvar lets a program read the top-level instructions of the
// running transaction. The current index always names the top-level
// instruction, also while a nested invocation runs.
type InstructionsSysvar struct {
	exec *execution
}

// LoadInstructions opens the sysvar through the account the caller passed
// for it.
func (c *InvokeContext) LoadInstructions(info *AccountInfo) (*InstructionsSysvar, error) {
	if info == nil || info.Key != types.InstructionsSysvarID {
		return nil, ErrInvalidSysvar
	}
	return &InstructionsSysvar{exec: c.exec}, nil
}

func (s *InstructionsSysvar) CurrentIndex() (uint16, error) {
	if s.exec.current > 0xffff {
		return 0, ErrInstructionIndexTooHigh
	}
	return uint16(s.exec.current), nil
}

// InstructionAt returns a copy of the top-level instruction at index.
func (s *InstructionsSysvar) InstructionAt(index int) (*types.Instruction, error) {
	ixs := s.exec.tx.Instructions
	if index < 0 || index >= len(ixs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInstructionOutOfRange, index, len(ixs))
	}
	return ixs[index].Copy(), nil
}

// Len returns the number of top-level instructions.
func (s *InstructionsSysvar) Len() int {
	return len(s.exec.tx.Instructions)
}
