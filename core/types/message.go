package types

// Operation is one step of an authorized batch. It carries everything the
// ledger needs to invoke Target on behalf of an identity's authority.
type Operation struct {
	Target   Pubkey        `json:"target"`
	Accounts []AccountMeta `json:"accounts"`
	Data     []byte        `json:"data"`
}

// Message is the batch a secp256k1 key holder signs. Operations run in slice
// order.
type Message struct {
	Sequence   uint64      `json:"sequence"`
	Operations []Operation `json:"operations"`
}

// OperationFromInstruction wraps a ledger instruction as a batch operation.
func OperationFromInstruction(ix Instruction) Operation {
	op := Operation{
		Target:   ix.ProgramID,
		Accounts: make([]AccountMeta, len(ix.Accounts)),
		Data:     make([]byte, len(ix.Data)),
	}
	copy(op.Accounts, ix.Accounts)
	copy(op.Data, ix.Data)
	return op
}

// Instruction converts the operation back to a ledger instruction.
func (op Operation) Instruction() Instruction {
	ix := Instruction{
		ProgramID: op.Target,
		Accounts:  make([]AccountMeta, len(op.Accounts)),
		Data:      make([]byte, len(op.Data)),
	}
	copy(ix.Accounts, op.Accounts)
	copy(ix.Data, op.Data)
	return ix
}

// AccountCount is the number of accounts the batch consumes from the
// remaining account pool when it is replayed.
func (m *Message) AccountCount() int {
	n := 0
	for _, op := range m.Operations {
		n += len(op.Accounts)
	}
	return n
}
