package accesslist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SipengXie/zipline/core/types"
)

func key(b byte) types.Pubkey {
	var k types.Pubkey
	k[0] = b
	return k
}

func TestHasConflict(t *testing.T) {
	a := NewRWAccessLists()
	a.AddReadAL(key(1), LAMPORTS)
	a.AddWriteAL(key(2), DATA)

	b := NewRWAccessLists()
	b.AddReadAL(key(1), LAMPORTS)
	require.False(t, a.HasConflict(b))

	b.AddWriteAL(key(1), LAMPORTS)
	require.True(t, a.HasConflict(b))
	require.True(t, b.HasConflict(a))

	c := NewRWAccessLists()
	c.AddReadAL(key(2), DATA)
	require.True(t, a.HasConflict(c))
}

func TestFromTransaction(t *testing.T) {
	payer, other := key(1), key(2)
	tx := types.NewTransaction(payer, types.Instruction{Accounts: []types.AccountMeta{
		types.Readonly(other),
		types.Writable(key(3)),
	}})
	rwal := FromTransaction(tx)
	m := rwal.ToMarshal()
	require.Equal(t, []string{"data", "lamports"}, m.ReadSet[other.String()])
	require.Nil(t, m.WriteSet[other.String()])
	require.Equal(t, []string{"data", "lamports", "owner"}, m.WriteSet[key(3).String()])
	require.Equal(t, []string{"lamports"}, m.WriteSet[payer.String()])

	merged := NewRWAccessLists()
	merged.Merge(rwal)
	require.True(t, merged.Equal(rwal))
}
