package types

// AccountMeta describes how an instruction uses one account.
type AccountMeta struct {
	Pubkey     Pubkey `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

func NewAccountMeta(pubkey Pubkey, isSigner, isWritable bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: isSigner, IsWritable: isWritable}
}

// Writable returns a writable, non-signing reference to pubkey.
func Writable(pubkey Pubkey) AccountMeta { return AccountMeta{Pubkey: pubkey, IsWritable: true} }

// Readonly returns a read-only, non-signing reference to pubkey.
func Readonly(pubkey Pubkey) AccountMeta { return AccountMeta{Pubkey: pubkey} }

// Instruction is a single program invocation inside a transaction.
type Instruction struct {
	ProgramID Pubkey        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      []byte        `json:"data"`
}

// Copy returns a deep copy of the instruction.
func (ix *Instruction) Copy() *Instruction {
	cpy := &Instruction{
		ProgramID: ix.ProgramID,
		Accounts:  make([]AccountMeta, len(ix.Accounts)),
		Data:      make([]byte, len(ix.Data)),
	}
	copy(cpy.Accounts, ix.Accounts)
	copy(cpy.Data, ix.Data)
	return cpy
}
