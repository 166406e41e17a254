package ledger

import (
	"github.com/SipengXie/zipline/core/types"
)

const (
	// accountStorageOverhead is the per-account byte overhead charged for rent.
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionThreshold     = 2
)

// Account is the ledger's unit of state.
type Account struct {
	Lamports   uint64
	Owner      types.Pubkey
	Data       []byte
	Executable bool
}

func (a *Account) Copy() *Account {
	cpy := *a
	if a.Data != nil {
		cpy.Data = make([]byte, len(a.Data))
		copy(cpy.Data, a.Data)
	}
	return &cpy
}

// InUse reports whether the account holds anything that creating it again
// would clobber.
func (a *Account) InUse() bool {
	return a.Lamports > 0 || len(a.Data) > 0 || a.Owner != types.SystemProgramID
}

// MinimumBalance is the rent-exempt minimum for an account with space bytes
// of data.
func MinimumBalance(space uint64) uint64 {
	return (accountStorageOverhead + space) * lamportsPerByteYear * exemptionThreshold
}
