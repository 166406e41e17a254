// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of a compact secp256k1 signature without the
// recovery id.
const SignatureLength = 64

var (
	ErrInvalidSig      = errors.New("invalid secp256k1 signature")
	ErrInvalidRecovery = errors.New("invalid recovery id")
)

// EthSignature is a recoverable secp256k1 signature split the way the
// authorize instruction carries it.
type EthSignature struct {
	Signature  [SignatureLength]byte
	RecoveryID uint8
}

// Bytes returns the 65-byte [R || S || V] form with V in {0, 1}.
func (s EthSignature) Bytes() []byte {
	out := make([]byte, crypto.SignatureLength)
	copy(out, s.Signature[:])
	out[SignatureLength] = s.RecoveryID
	return out
}

// EthSignatureFromBytes parses a 65-byte [R || S || V] signature. Wallets
// return V as 27 or 28, both forms are accepted.
func EthSignatureFromBytes(b []byte) (EthSignature, error) {
	if len(b) != crypto.SignatureLength {
		return EthSignature{}, fmt.Errorf("%w: length %d", ErrInvalidSig, len(b))
	}
	var out EthSignature
	copy(out.Signature[:], b[:SignatureLength])
	v := b[SignatureLength]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return EthSignature{}, fmt.Errorf("%w: %d", ErrInvalidRecovery, b[SignatureLength])
	}
	out.RecoveryID = v
	return out, nil
}

// PersonalPrefix is the EIP-191 prefix wallets put in front of a message of
// length n before hashing it.
func PersonalPrefix(n int) string {
	return fmt.Sprintf("\x19Ethereum Signed Message:\n%d", n)
}

// EthSigner produces personal-sign signatures over encoded batches.
type EthSigner struct {
	key *ecdsa.PrivateKey
}

func NewEthSigner(key *ecdsa.PrivateKey) *EthSigner {
	return &EthSigner{key: key}
}

// Address returns the Ethereum address of the signing key.
func (s *EthSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignPersonal signs keccak256(prefix || data) and returns the prefix that was
// used, which has to travel with the signature.
func (s *EthSigner) SignPersonal(data []byte) (EthSignature, string, error) {
	sig, err := crypto.Sign(accounts.TextHash(data), s.key)
	if err != nil {
		return EthSignature{}, "", err
	}
	var out EthSignature
	copy(out.Signature[:], sig[:SignatureLength])
	out.RecoveryID = sig[SignatureLength]
	return out, PersonalPrefix(len(data)), nil
}

// RecoverPlain returns the Ethereum address that produced sig over hash.
func RecoverPlain(hash []byte, sig EthSignature) (common.Address, error) {
	if sig.RecoveryID > 1 {
		return common.Address{}, fmt.Errorf("%w: %d", ErrInvalidRecovery, sig.RecoveryID)
	}
	// recover the public key from the signature
	pub, err := crypto.Ecrecover(hash, sig.Bytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, errors.New("invalid public key")
	}
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr, nil
}
