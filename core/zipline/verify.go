package zipline

import (
	"errors"
	"fmt"

	"github.com/SipengXie/zipline/core/secp256k1"
	"github.com/SipengXie/zipline/core/types"
)

var (
	ErrMissingPrecedingInstruction = errors.New("authorize instruction is the first in the transaction")
	ErrNotTopLevelCall             = errors.New("authorize instruction is not a top-level call to this program")
	ErrNotASignatureVerification   = errors.New("preceding instruction is not a secp256k1 verification")
	ErrMissingSignature            = errors.New("secp256k1 instruction carries no signature")
	ErrInvalidDataOffsets          = errors.New("secp256k1 offsets do not point into the authorize instruction")
)

// Introspector reads the top-level instructions of the running transaction.
type Introspector interface {
	CurrentIndex() (uint16, error)
	InstructionAt(index int) (*types.Instruction, error)
}

// VerifyBinding checks that the instruction immediately before the current
// one is a secp256k1 verification whose first signature covers exactly the
// current instruction's signature, address and prefixed message bytes. The
// precompile itself has already checked the signature by the time this runs.
func VerifyBinding(intro Introspector, programID types.Pubkey) error {
	index, err := intro.CurrentIndex()
	if err != nil {
		return err
	}
	if index == 0 {
		return ErrMissingPrecedingInstruction
	}
	current, err := intro.InstructionAt(int(index))
	if err != nil {
		return err
	}
	// the sysvar only lists top-level instructions, so a nested call sees the
	// instruction of whoever invoked it
	if current.ProgramID != programID {
		return fmt.Errorf("%w: current instruction targets %s", ErrNotTopLevelCall, current.ProgramID)
	}
	prev, err := intro.InstructionAt(int(index) - 1)
	if err != nil {
		return err
	}
	if prev.ProgramID != types.Secp256k1ProgramID {
		return fmt.Errorf("%w: %s", ErrNotASignatureVerification, prev.ProgramID)
	}

	it, err := secp256k1.IterSignatureOffsets(prev.Data)
	if err != nil {
		return err
	}
	offsets, ok := it.Next()
	if !ok {
		return ErrMissingSignature
	}

	idx := int(index)
	switch {
	case offsets.SignatureOffset != SignatureOffset:
		return fmt.Errorf("%w: signature offset %d", ErrInvalidDataOffsets, offsets.SignatureOffset)
	case int(offsets.SignatureInstructionIndex) != idx:
		return fmt.Errorf("%w: signature instruction %d", ErrInvalidDataOffsets, offsets.SignatureInstructionIndex)
	case offsets.EthAddressOffset != EthAddressOffset:
		return fmt.Errorf("%w: eth address offset %d", ErrInvalidDataOffsets, offsets.EthAddressOffset)
	case int(offsets.EthAddressInstructionIndex) != idx:
		return fmt.Errorf("%w: eth address instruction %d", ErrInvalidDataOffsets, offsets.EthAddressInstructionIndex)
	case offsets.MessageDataOffset != MessageOffset:
		return fmt.Errorf("%w: message offset %d", ErrInvalidDataOffsets, offsets.MessageDataOffset)
	case int(offsets.MessageDataSize) != len(current.Data)-MessageOffset:
		return fmt.Errorf("%w: message size %d, want %d", ErrInvalidDataOffsets, offsets.MessageDataSize, len(current.Data)-MessageOffset)
	case int(offsets.MessageInstructionIndex) != idx:
		return fmt.Errorf("%w: message instruction %d", ErrInvalidDataOffsets, offsets.MessageInstructionIndex)
	}
	return nil
}
