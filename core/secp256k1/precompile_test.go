package secp256k1

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestOffsetsRoundTrip(t *testing.T) {
	o := SignatureOffsets{
		SignatureOffset:            8,
		SignatureInstructionIndex:  1,
		EthAddressOffset:           73,
		EthAddressInstructionIndex: 1,
		MessageDataOffset:          97,
		MessageDataSize:            0x0102,
		MessageInstructionIndex:    1,
	}
	require.Equal(t, []byte{8, 0, 1, 73, 0, 1, 97, 0, 2, 1, 1}, o.Encode())

	table := EncodeOffsetTable(o, SignatureOffsets{})
	require.Len(t, table, 1+2*SignatureOffsetsSerializedSize)

	it, err := IterSignatureOffsets(table)
	require.NoError(t, err)
	require.Equal(t, 2, it.Len())
	first, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, o, first)
	second, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, SignatureOffsets{}, second)
	_, ok = it.Next()
	require.False(t, ok)
}

func TestIterSignatureOffsetsMalformed(t *testing.T) {
	_, err := IterSignatureOffsets(nil)
	require.ErrorIs(t, err, ErrMalformedOffsetTable)

	_, err = IterSignatureOffsets([]byte{1, 0, 0})
	require.ErrorIs(t, err, ErrMalformedOffsetTable)

	it, err := IterSignatureOffsets([]byte{0})
	require.NoError(t, err)
	_, ok := it.Next()
	require.False(t, ok)

	// trailing payload after the records is allowed
	table := append(EncodeOffsetTable(SignatureOffsets{}), 1, 2, 3)
	it, err = IterSignatureOffsets(table)
	require.NoError(t, err)
	require.Equal(t, 1, it.Len())
}

func TestVerifyInline(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	msg := []byte("hello")

	ix, err := NewInstruction(key, msg, 0)
	require.NoError(t, err)
	require.NoError(t, Verify(ix.Data, [][]byte{ix.Data}))

	tampered := append([]byte(nil), ix.Data...)
	tampered[len(tampered)-1] ^= 1
	require.ErrorIs(t, Verify(tampered, [][]byte{tampered}), ErrInvalidSignature)
}

func TestVerifyAcrossInstructions(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	msg := []byte("signed elsewhere")
	sig, err := crypto.Sign(crypto.Keccak256(msg), key)
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	other := append([]byte{0xff}, sig...)
	other = append(other, addr[:]...)
	other = append(other, msg...)
	table := EncodeOffsetTable(SignatureOffsets{
		SignatureOffset:            1,
		SignatureInstructionIndex:  1,
		EthAddressOffset:           1 + 65,
		EthAddressInstructionIndex: 1,
		MessageDataOffset:          1 + 65 + 20,
		MessageDataSize:            uint16(len(msg)),
		MessageInstructionIndex:    1,
	})
	require.NoError(t, Verify(table, [][]byte{table, other}))

	require.ErrorIs(t, Verify(table, [][]byte{table}), ErrInvalidInstructionIndex)
	require.ErrorIs(t, Verify(table, [][]byte{table, other[:len(other)-1]}), ErrInvalidSignature)
}

func TestVerifyEmpty(t *testing.T) {
	require.ErrorIs(t, Verify(nil, nil), ErrInvalidInstructionDataSize)
	require.ErrorIs(t, Verify([]byte{0, 1}, nil), ErrInvalidInstructionDataSize)
	require.NoError(t, Verify([]byte{0}, nil))
	require.ErrorIs(t, Verify([]byte{3}, nil), ErrInvalidInstructionDataSize)
}
