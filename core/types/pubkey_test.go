package types

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestWellKnownIDs(t *testing.T) {
	require.True(t, SystemProgramID.IsZero())
	require.Equal(t, "11111111111111111111111111111111", SystemProgramID.String())
	require.Equal(t, "KeccakSecp256k11111111111111111111111111111", Secp256k1ProgramID.String())
	require.Equal(t, "Sysvar1nstructions1111111111111111111111111", InstructionsSysvarID.String())
}

func TestPubkeyText(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)
	key := kp.Pubkey()

	parsed, err := PubkeyFromBase58(key.String())
	require.NoError(t, err)
	require.Equal(t, key, parsed)

	enc, err := json.Marshal(map[string]Pubkey{"k": key})
	require.NoError(t, err)
	var dec map[string]Pubkey
	require.NoError(t, json.Unmarshal(enc, &dec))
	require.Equal(t, key, dec["k"])

	_, err = PubkeyFromBase58("abc")
	require.ErrorIs(t, err, ErrInvalidPubkey)
}

func TestProgramAddress(t *testing.T) {
	program := Secp256k1ProgramID
	seeds := [][]byte{[]byte("identity"), common.HexToAddress("0x01").Bytes()}

	addr, bump, err := FindProgramAddress(seeds, program)
	require.NoError(t, err)
	require.False(t, IsOnCurve(addr[:]))

	again, err := CreateProgramAddress(append(seeds, []byte{bump}), program)
	require.NoError(t, err)
	require.Equal(t, addr, again)

	other, _, err := FindProgramAddress(seeds, SystemProgramID)
	require.NoError(t, err)
	require.NotEqual(t, addr, other)

	kp, err := NewKeypair()
	require.NoError(t, err)
	key := kp.Pubkey()
	require.True(t, IsOnCurve(key[:]))

	_, err = CreateProgramAddress([][]byte{make([]byte, MaxSeedLen+1)}, program)
	require.ErrorIs(t, err, ErrMaxSeedLengthExceeded)
}

func TestTransactionSignatures(t *testing.T) {
	payer, err := NewKeypair()
	require.NoError(t, err)
	other, err := NewKeypair()
	require.NoError(t, err)

	ix := Instruction{ProgramID: SystemProgramID, Accounts: []AccountMeta{
		NewAccountMeta(payer.Pubkey(), true, true),
		NewAccountMeta(other.Pubkey(), true, false),
	}}
	tx := NewTransaction(payer.Pubkey(), ix)
	require.Equal(t, []Pubkey{payer.Pubkey(), other.Pubkey()}, tx.RequiredSigners())

	require.NoError(t, tx.Sign(payer))
	require.ErrorIs(t, tx.VerifySignatures(), ErrMissingSignature)

	require.NoError(t, tx.Sign(other))
	require.NoError(t, tx.VerifySignatures())

	tx.Instructions[0].Data = []byte{1}
	require.ErrorIs(t, tx.VerifySignatures(), ErrInvalidTxSig)

	signers, writable := tx.Privileges()
	require.True(t, signers.Contains(other.Pubkey()))
	require.False(t, writable.Contains(other.Pubkey()))
	require.True(t, writable.Contains(payer.Pubkey()))

	require.ErrorIs(t, NewTransaction(payer.Pubkey()).VerifySignatures(), ErrNoInstructions)
}
