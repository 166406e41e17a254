package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestSignPersonal(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewEthSigner(key)

	data := []byte("batch bytes")
	sig, prefix, err := signer.SignPersonal(data)
	require.NoError(t, err)
	require.Equal(t, "\x19Ethereum Signed Message:\n11", prefix)

	hash := crypto.Keccak256(append([]byte(prefix), data...))
	require.Equal(t, accounts.TextHash(data), hash)

	addr, err := RecoverPlain(hash, sig)
	require.NoError(t, err)
	require.Equal(t, signer.Address(), addr)

	addr, err = RecoverPlain(crypto.Keccak256(data), sig)
	if err == nil {
		require.NotEqual(t, signer.Address(), addr)
	}

	sig.RecoveryID = 27
	_, err = RecoverPlain(hash, sig)
	require.ErrorIs(t, err, ErrInvalidRecovery)
}

func TestEthSignatureFromBytes(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, _, err := NewEthSigner(key).SignPersonal([]byte("batch"))
	require.NoError(t, err)

	raw := sig.Bytes()
	parsed, err := EthSignatureFromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, sig, parsed)

	raw[SignatureLength] += 27
	parsed, err = EthSignatureFromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, sig, parsed)

	raw[SignatureLength] = 29
	_, err = EthSignatureFromBytes(raw)
	require.ErrorIs(t, err, ErrInvalidRecovery)
	_, err = EthSignatureFromBytes(raw[:64])
	require.ErrorIs(t, err, ErrInvalidSig)
}
