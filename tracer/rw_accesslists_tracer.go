package tracer

import (
	"github.com/SipengXie/zipline/accesslist"
	"github.com/SipengXie/zipline/core/types"
)

// RWAccessListsTracer records the account fields every invocation of a
// transaction is given read or write access to.
type RWAccessListsTracer struct {
	excl map[types.Pubkey]struct{} // stateless ids: precompiles and sysvars
	list *accesslist.RWAccessLists
}

func NewRWAccessListTracer(rwAL *accesslist.RWAccessLists, excluded []types.Pubkey) *RWAccessListsTracer {
	excl := make(map[types.Pubkey]struct{}, len(excluded))
	for _, key := range excluded {
		excl[key] = struct{}{}
	}
	list := accesslist.NewRWAccessLists()
	if rwAL != nil {
		list.Merge(rwAL)
	}
	return &RWAccessListsTracer{excl: excl, list: list}
}

// DefaultExcluded are the ids that never carry state.
func DefaultExcluded() []types.Pubkey {
	return []types.Pubkey{types.Secp256k1ProgramID, types.InstructionsSysvarID}
}

func (a *RWAccessListsTracer) CaptureEnter(depth int, programID types.Pubkey, accounts []types.AccountMeta) {
	for _, meta := range accounts {
		if _, ok := a.excl[meta.Pubkey]; ok {
			continue
		}
		a.list.AddReadAL(meta.Pubkey, accesslist.LAMPORTS)
		a.list.AddReadAL(meta.Pubkey, accesslist.DATA)
		if meta.IsWritable {
			a.list.AddWriteAL(meta.Pubkey, accesslist.LAMPORTS)
			a.list.AddWriteAL(meta.Pubkey, accesslist.DATA)
			a.list.AddWriteAL(meta.Pubkey, accesslist.OWNER)
		}
	}
}

func (*RWAccessListsTracer) CaptureExit(depth int, programID types.Pubkey, err error) {}

// RWAccessList returns the access lists gathered so far.
func (a *RWAccessListsTracer) RWAccessList() *accesslist.RWAccessLists {
	return a.list
}
