package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	IdentityDiscriminator = Discriminator("account", "Identity")

	ErrAccountDiscriminator = errors.New("account discriminator mismatch")
)

// IdentitySize is the space an encoded identity occupies in account data.
const IdentitySize = DiscriminatorLength + 1 + common.AddressLength + 8

// Identity binds an Ethereum address to a delegated authority on the ledger.
// One record exists per address; its account key is derived from the
// address.
type Identity struct {
	AuthorityBump   uint8          `json:"authorityBump"`
	EthAddress      common.Address `json:"ethAddress"`
	SequenceCounter uint64         `json:"sequenceCounter"`
}

// EncodeAccountData prefixes the encoded identity with its discriminator.
func (id *Identity) EncodeAccountData() ([]byte, error) {
	body, err := Encode(*id)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, DiscriminatorLength+len(body))
	out = append(out, IdentityDiscriminator[:]...)
	return append(out, body...), nil
}

// DecodeIdentity parses identity account data.
func DecodeIdentity(data []byte) (*Identity, error) {
	if len(data) < DiscriminatorLength || !bytes.Equal(data[:DiscriminatorLength], IdentityDiscriminator[:]) {
		return nil, ErrAccountDiscriminator
	}
	id := new(Identity)
	if err := Decode(id, data[DiscriminatorLength:]); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	return id, nil
}
