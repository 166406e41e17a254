package accesslist

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/SipengXie/zipline/core/types"
)

// Field is the part of an account a transaction touches.
type Field uint8

const (
	LAMPORTS Field = iota
	DATA
	OWNER
)

func (f Field) String() string {
	switch f {
	case LAMPORTS:
		return "lamports"
	case DATA:
		return "data"
	case OWNER:
		return "owner"
	default:
		return "unknown"
	}
}

// Key names one field of one account.
type Key struct {
	Account types.Pubkey
	Field   Field
}

// ALTuple is a set of touched account fields.
type ALTuple struct {
	mapset.Set[Key]
}

func newALTuple() ALTuple {
	return ALTuple{mapset.NewThreadUnsafeSet[Key]()}
}

func (tuple ALTuple) Add(account types.Pubkey, field Field) {
	tuple.Set.Add(Key{Account: account, Field: field})
}

// RWAccessLists are the account fields a transaction read and wrote.
type RWAccessLists struct {
	ReadAL  ALTuple
	WriteAL ALTuple
}

func NewRWAccessLists() *RWAccessLists {
	return &RWAccessLists{
		ReadAL:  newALTuple(),
		WriteAL: newALTuple(),
	}
}

func (rwal *RWAccessLists) AddReadAL(account types.Pubkey, field Field) {
	rwal.ReadAL.Add(account, field)
}

func (rwal *RWAccessLists) AddWriteAL(account types.Pubkey, field Field) {
	rwal.WriteAL.Add(account, field)
}

// Merge adds every entry of other.
func (rwal *RWAccessLists) Merge(other *RWAccessLists) {
	rwal.ReadAL.Set = rwal.ReadAL.Union(other.ReadAL.Set)
	rwal.WriteAL.Set = rwal.WriteAL.Union(other.WriteAL.Set)
}

func (rwal *RWAccessLists) Equal(other *RWAccessLists) bool {
	return rwal.ReadAL.Equal(other.ReadAL.Set) && rwal.WriteAL.Equal(other.WriteAL.Set)
}

// HasConflict reports whether running the two transactions in either order
// could give different results: one writes what the other reads or writes.
func (rwal *RWAccessLists) HasConflict(other *RWAccessLists) bool {
	if rwal.WriteAL.Intersect(other.WriteAL.Set).Cardinality() > 0 {
		return true
	}
	if rwal.ReadAL.Intersect(other.WriteAL.Set).Cardinality() > 0 {
		return true
	}
	return rwal.WriteAL.Intersect(other.ReadAL.Set).Cardinality() > 0
}

// FromTransaction returns the access lists the account metas of tx declare.
// Nested invocations can only touch accounts listed here, so this bounds
// what the transaction does at run time.
func FromTransaction(tx *types.Transaction) *RWAccessLists {
	rwal := NewRWAccessLists()
	_, writable := tx.Privileges()
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			rwal.AddReadAL(meta.Pubkey, LAMPORTS)
			rwal.AddReadAL(meta.Pubkey, DATA)
			if writable.Contains(meta.Pubkey) {
				rwal.AddWriteAL(meta.Pubkey, LAMPORTS)
				rwal.AddWriteAL(meta.Pubkey, DATA)
				rwal.AddWriteAL(meta.Pubkey, OWNER)
			}
		}
	}
	rwal.AddWriteAL(tx.FeePayer, LAMPORTS)
	return rwal
}

func (rwal *RWAccessLists) ToMarshal() RWAccessListsMarshal {
	return RWAccessListsMarshal{
		ReadSet:  marshalTuple(rwal.ReadAL),
		WriteSet: marshalTuple(rwal.WriteAL),
	}
}

func marshalTuple(tuple ALTuple) map[string][]string {
	out := make(map[string][]string)
	tuple.Each(func(k Key) bool {
		acc := k.Account.String()
		out[acc] = append(out[acc], k.Field.String())
		return false
	})
	for _, fields := range out {
		sort.Strings(fields)
	}
	return out
}

type RWAccessListsMarshal struct {
	ReadSet  map[string][]string `json:"readSet"`
	WriteSet map[string][]string `json:"writeSet"`
}
