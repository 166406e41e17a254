package sdk

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/secp256k1"
	"github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/core/zipline"
)

func TestAuthorizeInstructions(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := types.NewEthSigner(key)
	client := New(zipline.ProgramID)

	authority, err := client.FindAuthority(signer.Address())
	require.NoError(t, err)
	to, err := types.NewKeypair()
	require.NoError(t, err)
	msg := &types.Message{Sequence: 4, Operations: []types.Operation{
		types.OperationFromInstruction(ledger.TransferInstruction(authority, to.Pubkey(), 1)),
	}}

	ixs, err := client.Authorize(signer, msg, 2)
	require.NoError(t, err)
	require.Len(t, ixs, 2)
	require.Equal(t, types.Secp256k1ProgramID, ixs[0].ProgramID)
	require.Equal(t, zipline.ProgramID, ixs[1].ProgramID)

	it, err := secp256k1.IterSignatureOffsets(ixs[0].Data)
	require.NoError(t, err)
	o, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, uint8(3), o.SignatureInstructionIndex)
	require.Equal(t, uint8(3), o.MessageInstructionIndex)
	require.Equal(t, len(ixs[1].Data)-zipline.MessageOffset, int(o.MessageDataSize))

	// the signed span is the prefix followed by the encoded batch
	batch, err := types.EncodeMessage(msg)
	require.NoError(t, err)
	signed := ixs[1].Data[o.MessageDataOffset:]
	require.Equal(t, append([]byte(types.PersonalPrefix(len(batch))), batch...), signed)

	metas := ixs[1].Accounts
	require.Len(t, metas, 3+msg.AccountCount())
	require.Equal(t, types.InstructionsSysvarID, metas[2].Pubkey)
	require.Equal(t, authority, metas[3].Pubkey)
	require.False(t, metas[3].IsSigner)
	require.True(t, metas[3].IsWritable)

	_, err = client.Authorize(signer, msg, 255)
	require.ErrorIs(t, err, ErrIndexTooHigh)
}

func TestNextSequenceWithoutIdentity(t *testing.T) {
	l := ledger.New(ledger.NewMemoryStore(), nil)
	client := New(zipline.ProgramID)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = client.NextSequence(context.Background(), l, crypto.PubkeyToAddress(key.PublicKey))
	require.ErrorIs(t, err, ErrIdentityNotFound)
}
